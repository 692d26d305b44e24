package web

import (
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/vbonduro/weddingdb/internal/domain"
	"github.com/vbonduro/weddingdb/internal/service"
)

var (
	pageFiles = []string{
		"base.html", "pages/guests.html",
		"partials/guest_list.html", "partials/guest_card.html",
	}
	listFiles   = []string{"partials/guest_list.html", "partials/guest_card.html"}
	cardFiles   = []string{"partials/guest_card.html"}
	errorsFiles = []string{"partials/form_errors.html"}
)

// guestSummary is the header tally shown above the list.
type guestSummary struct {
	Families int
	Members  int
	Gifts    decimal.Decimal
}

func summarize(guests []*service.GuestRecord) guestSummary {
	sum := guestSummary{Families: len(guests)}
	for _, g := range guests {
		sum.Members += g.NumberOfMembers
		sum.Gifts = sum.Gifts.Add(g.GiftAmount)
	}
	return sum
}

func (s *Server) handleGuestsPage(w http.ResponseWriter, r *http.Request) {
	guests, err := s.service.ListGuests(r.Context())
	if err != nil {
		http.Error(w, publicMessage(err), statusFor(err))
		s.logger.Error("list guests failed", "error", err)
		return
	}

	if err := s.renderPage(w,
		map[string]any{"Guests": guests, "Summary": summarize(guests)},
		pageFiles...,
	); err != nil {
		s.logger.Error("render page failed", "error", err)
	}
}

func (s *Server) handleGuestList(w http.ResponseWriter, r *http.Request) {
	guests, err := s.service.ListGuests(r.Context())
	if err != nil {
		http.Error(w, publicMessage(err), statusFor(err))
		s.logger.Error("list guests failed", "error", err)
		return
	}

	if err := s.renderPartial(w, http.StatusOK, "guest_list",
		map[string]any{"Guests": guests, "Summary": summarize(guests)},
		listFiles...,
	); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

const maxFormSize = 64 * 1024

func (s *Server) handleCreateGuest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	rec, err := s.service.AddGuest(r.Context(), domain.GuestInput{
		FamilyName:      r.PostFormValue("familyName"),
		NumberOfMembers: r.PostFormValue("numberOfMembers"),
		PlaceOfVisit:    r.PostFormValue("placeOfVisit"),
		GiftAmount:      r.PostFormValue("giftAmount"),
		PhoneNumber:     r.PostFormValue("phoneNumber"),
	})
	if err != nil {
		data := map[string]any{"Fields": domain.FieldErrors(err)}
		if !errors.Is(err, domain.ErrInvalidInput) {
			data["Message"] = publicMessage(err)
		}
		if err := s.renderPartial(w, statusFor(err), "form_errors", data, errorsFiles...); err != nil {
			s.logger.Error("render partial failed", "error", err)
		}
		return
	}

	if err := s.renderPartial(w, http.StatusOK, "guest_card", rec, cardFiles...); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

func (s *Server) handleDeleteGuest(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RemoveGuest(r.Context(), r.PathValue("id")); err != nil {
		http.Error(w, publicMessage(err), statusFor(err))
		return
	}
	// An empty 200 lets the card swap itself out of the list.
	w.WriteHeader(http.StatusOK)
}
