package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vbonduro/weddingdb/internal/domain"
	"github.com/vbonduro/weddingdb/internal/suggest"
)

// GuestRepository is the subset of the guest stores that GuestService requires.
// Both store.GuestStore and postgres.GuestStore satisfy it.
type GuestRepository interface {
	Insert(ctx context.Context, g *domain.Guest) (uuid.UUID, error)
	ListAll(ctx context.Context) ([]*domain.Guest, error)
	DeleteByID(ctx context.Context, id uuid.UUID) error
}

// GuestRecord is a guest as handed to callers: the store's identifier is
// rendered as its canonical string.
type GuestRecord struct {
	ID              string          `json:"id"`
	FamilyName      string          `json:"familyName"`
	NumberOfMembers int             `json:"numberOfMembers"`
	PlaceOfVisit    domain.Place    `json:"placeOfVisit"`
	GiftAmount      decimal.Decimal `json:"giftAmount"`
	PhoneNumber     string          `json:"phoneNumber,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// MarshalJSON writes GiftAmount as a JSON number rather than decimal's
// default quoted string.
func (r GuestRecord) MarshalJSON() ([]byte, error) {
	type plain GuestRecord
	return json.Marshal(struct {
		plain
		GiftAmount json.Number `json:"giftAmount"`
	}{plain(r), json.Number(r.GiftAmount.String())})
}

func toRecord(g *domain.Guest) *GuestRecord {
	return &GuestRecord{
		ID:              g.ID.String(),
		FamilyName:      g.FamilyName,
		NumberOfMembers: g.NumberOfMembers,
		PlaceOfVisit:    g.PlaceOfVisit,
		GiftAmount:      g.GiftAmount,
		PhoneNumber:     g.PhoneNumber,
		CreatedAt:       g.CreatedAt,
	}
}

type GuestService struct {
	guests         GuestRepository
	suggester      suggest.Suggester
	notifier       *Notifier
	suggestTimeout time.Duration
	logger         *slog.Logger
	now            func() time.Time
}

// NewGuestService wires the service. suggester may be nil, in which case
// SuggestArrangement always reports ErrSuggestionUnavailable. A non-positive
// suggestTimeout disables the deadline.
func NewGuestService(
	guests GuestRepository,
	suggester suggest.Suggester,
	notifier *Notifier,
	suggestTimeout time.Duration,
	logger *slog.Logger,
) *GuestService {
	if notifier == nil {
		notifier = NewNotifier()
	}
	return &GuestService{
		guests:         guests,
		suggester:      suggester,
		notifier:       notifier,
		suggestTimeout: suggestTimeout,
		logger:         logger,
		now:            time.Now,
	}
}

// Notifier returns the notifier that receives a Refresh after every change.
func (s *GuestService) Notifier() *Notifier {
	return s.notifier
}

// AddGuest validates in and persists it. Validation failures never reach the
// store and are reported as a *domain.ValidationError.
func (s *GuestService) AddGuest(ctx context.Context, in domain.GuestInput) (*GuestRecord, error) {
	g, err := in.Validate()
	if err != nil {
		s.logger.Debug("guest rejected", "error", err)
		return nil, err
	}
	g.CreatedAt = s.now()

	id, err := s.guests.Insert(ctx, g)
	if err != nil {
		s.logger.Error("insert guest failed", "family", g.FamilyName, "error", err)
		return nil, err
	}
	g.ID = id
	s.logger.Info("guest added", "id", id, "family", g.FamilyName, "members", g.NumberOfMembers, "place", g.PlaceOfVisit)

	rec := toRecord(g)
	s.notifier.Publish(Refresh{Reason: "added", ID: rec.ID})
	return rec, nil
}

// ListGuests returns every guest, newest first.
func (s *GuestService) ListGuests(ctx context.Context) ([]*GuestRecord, error) {
	guests, err := s.guests.ListAll(ctx)
	if err != nil {
		s.logger.Error("list guests failed", "error", err)
		return nil, err
	}
	records := make([]*GuestRecord, 0, len(guests))
	for _, g := range guests {
		records = append(records, toRecord(g))
	}
	return records, nil
}

// RemoveGuest deletes the guest with the given id. Removing an id that is
// not stored succeeds.
func (s *GuestService) RemoveGuest(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil || parsed == uuid.Nil {
		return &domain.FieldError{Field: domain.FieldID, Message: "not a valid guest id"}
	}

	if err := s.guests.DeleteByID(ctx, parsed); err != nil {
		if errors.Is(err, domain.ErrInvalidIdentifier) {
			return fmt.Errorf("remove guest %s: %w: %w", id, domain.ErrInvalidInput, err)
		}
		s.logger.Error("delete guest failed", "id", id, "error", err)
		return err
	}
	s.logger.Info("guest removed", "id", parsed)

	s.notifier.Publish(Refresh{Reason: "removed", ID: parsed.String()})
	return nil
}

// SuggestArrangement asks the configured provider for travel and seating
// advice. The provider call outlives ctx's cancellation but is bounded by the
// configured timeout. Stored guests are never touched.
func (s *GuestService) SuggestArrangement(ctx context.Context, members int, place string) (string, error) {
	if s.suggester == nil {
		return "", fmt.Errorf("no suggestion provider configured: %w", domain.ErrSuggestionUnavailable)
	}

	callCtx := context.WithoutCancel(ctx)
	if s.suggestTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(callCtx, s.suggestTimeout)
		defer cancel()
	}

	start := s.now()
	text, err := s.suggester.Suggest(callCtx, members, place)
	if err != nil {
		s.logger.Warn("suggestion failed", "members", members, "place", place, "error", err)
		return "", fmt.Errorf("%w: %w", domain.ErrSuggestionUnavailable, err)
	}
	if text == "" {
		return "", fmt.Errorf("empty suggestion: %w", domain.ErrSuggestionUnavailable)
	}
	s.logger.Info("suggestion generated", "members", members, "place", place, "duration_ms", s.now().Sub(start).Milliseconds())
	return text, nil
}
