package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vbonduro/weddingdb/internal/domain"
)

type GuestStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewGuestStore(db *sql.DB) *GuestStore {
	return &GuestStore{db: db, now: time.Now}
}

// Insert assigns an ID (and CreatedAt when unset) and writes g.
func (s *GuestStore) Insert(ctx context.Context, g *domain.Guest) (uuid.UUID, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to generate guest id: %w", domain.ErrWriteFailed)
	}
	createdAt := g.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	createdAt = createdAt.UTC()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO guests (id, family_name, number_of_members, place_of_visit, gift_amount, phone_number, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id.String(), g.FamilyName, g.NumberOfMembers, string(g.PlaceOfVisit), g.GiftAmount.String(), g.PhoneNumber, createdAt)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert guest: %w", s.classifyWrite(ctx, err))
	}

	g.ID = id
	g.CreatedAt = createdAt
	return id, nil
}

// ListAll returns every guest, newest first. An empty table yields an empty slice.
func (s *GuestStore) ListAll(ctx context.Context) ([]*domain.Guest, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, family_name, number_of_members, place_of_visit, gift_amount, phone_number, created_at
		FROM guests ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list guests: %w: %v", domain.ErrStoreUnavailable, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	guests := make([]*domain.Guest, 0)
	for rows.Next() {
		g, err := scanGuest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan guest: %w: %v", domain.ErrStoreUnavailable, err)
		}
		guests = append(guests, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating guests: %w: %v", domain.ErrStoreUnavailable, err)
	}

	return guests, nil
}

// DeleteByID removes the guest with id. A missing row is not an error.
func (s *GuestStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("delete guest: %w", domain.ErrInvalidIdentifier)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM guests WHERE id = ?`, id.String()); err != nil {
		return fmt.Errorf("failed to delete guest: %w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGuest(r rowScanner) (*domain.Guest, error) {
	var (
		g      domain.Guest
		id     string
		place  string
		amount string
	)
	if err := r.Scan(&id, &g.FamilyName, &g.NumberOfMembers, &place, &amount, &g.PhoneNumber, &g.CreatedAt); err != nil {
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
