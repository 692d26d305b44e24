package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Place is where a family is visiting from.
type Place string

const (
	PlacePune       Place = "Pune"
	PlaceIndore     Place = "Indore"
	PlacePuneIndore Place = "Pune-Indore"
)

// Places lists every accepted Place in display order.
var Places = []Place{PlacePune, PlaceIndore, PlacePuneIndore}

// ParsePlace matches s case-insensitively against the known places and
// returns the canonical spelling.
func ParsePlace(s string) (Place, bool) {
	s = strings.TrimSpace(s)
	for _, p := range Places {
		if strings.EqualFold(s, string(p)) {
			return p, true
		}
	}
	return "", false
}

// Guest is one registered family as persisted by the store.
type Guest struct {
	ID              uuid.UUID
	FamilyName      string
	NumberOfMembers int
	PlaceOfVisit    Place
	GiftAmount      decimal.Decimal // the Aaher amount
	PhoneNumber     string
	CreatedAt       time.Time
}

// GuestInput carries raw form values before validation.
type GuestInput struct {
	FamilyName      string
	NumberOfMembers string
	PlaceOfVisit    string
	GiftAmount      string
	PhoneNumber     string
}
