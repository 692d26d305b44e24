package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/vbonduro/weddingdb/internal/domain"
)

const guestsTable = "guests"

var guestColumns = []string{
	"id::text", "family_name", "number_of_members", "place_of_visit",
	"gift_amount::text", "phone_number", "created_at",
}

// psql builds queries with $n placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// GuestStore provides guest persistence backed by PostgreSQL.
type GuestStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewGuestStore(pool *pgxpool.Pool) *GuestStore {
	return &GuestStore{pool: pool, now: time.Now}
}

// Insert assigns an ID (and CreatedAt when unset) and writes g.
func (s *GuestStore) Insert(ctx context.Context, g *domain.Guest) (uuid.UUID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generate guest id: %w", domain.ErrWriteFailed)
	}
	createdAt := g.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	createdAt = createdAt.UTC()

	query, args, err := psql.Insert(guestsTable).
		Columns("id", "family_name", "number_of_members", "place_of_visit", "gift_amount", "phone_number", "created_at").
		Values(id.String(), g.FamilyName, g.NumberOfMembers, string(g.PlaceOfVisit), g.GiftAmount.String(), g.PhoneNumber, createdAt).
		ToSql()
	if err != nil {
		return uuid.Nil, fmt.Errorf("build insert guest: %w: %v", domain.ErrWriteFailed, err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return uuid.Nil, fmt.Errorf("insert guest: %w", s.classifyWrite(ctx, err))
	}

	g.ID = id
	g.CreatedAt = createdAt
	return id, nil
}

// ListAll returns every guest ordered by created_at descending. Returns an
// empty slice (not nil) when there are no guests.
func (s *GuestStore) ListAll(ctx context.Context) ([]*domain.Guest, error) {
	query, args, err := psql.Select(guestColumns...).
		From(guestsTable).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list guests: %w: %v", domain.ErrStoreUnavailable, err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list guests: %w: %v", domain.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	guests := make([]*domain.Guest, 0)
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan guest: %w: %v", domain.ErrStoreUnavailable, err)
		}
		guests = append(guests, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate guests: %w: %v", domain.ErrStoreUnavailable, err)
	}

	return guests, nil
}

// DeleteByID removes the guest with id. A missing row is not an error.
func (s *GuestStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("delete guest: %w", domain.ErrInvalidIdentifier)
	}

	query, args, err := psql.Delete(guestsTable).
		Where(sq.Eq{"id": id.String()}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete guest: %w: %v", domain.ErrStoreUnavailable, err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("delete guest %s: %w: %v", id, domain.ErrStoreUnavailable, err)
	}
	return nil
}

func scanGuest(row pgx.Row) (*domain.Guest, error) {
	var (
		g      domain.Guest
		id     string
		place  string
		amount string
	)
	if err := row.Scan(&id, &g.FamilyName, &g.NumberOfMembers, &place, &amount, &g.PhoneNumber, &g.CreatedAt); err != nil {
		return nil, err
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("stored id %q: %w", id, err)
	}
	g.ID = parsed
	g.PlaceOfVisit = domain.Place(place)

	g.GiftAmount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("stored gift amount %q: %w", amount, err)
	}
	return &g, nil
}

// classifyWrite maps pgx/pgconn errors onto the store taxonomy.
// context.DeadlineExceeded and context.Canceled count as unavailable.
func (s *GuestStore) classifyWrite(ctx context.Context, err error) error {
	if isUnavailable(err) {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%w: %s (%s)", domain.ErrWriteFailed, pgErr.Message, pgErr.Code)
	}

	if perr := s.pool.Ping(ctx); perr != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrWriteFailed, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// Class 08: connection exception; 57P0x: server shutting down.
		switch {
		case len(pgErr.Code) == 5 && pgErr.Code[:2] == "08":
			return true
		case pgErr.Code == "57P01", pgErr.Code == "57P02", pgErr.Code == "57P03":
			return true
		}
	}
	return false
}
