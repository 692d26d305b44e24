package web

import (
	"encoding/json"
	"net/http"

	"github.com/vbonduro/weddingdb/internal/domain"
)

const maxJSONBody = 64 * 1024

// createGuestRequest accepts numbers either as JSON numbers or as numeric
// strings; range checks happen in the service.
type createGuestRequest struct {
	FamilyName      string      `json:"familyName"`
	NumberOfMembers json.Number `json:"numberOfMembers"`
	PlaceOfVisit    string      `json:"placeOfVisit"`
	GiftAmount      json.Number `json:"giftAmount"`
	PhoneNumber     string      `json:"phoneNumber"`
}

type suggestRequest struct {
	NumberOfMembers int    `json:"numberOfMembers"`
	PlaceOfVisit    string `json:"placeOfVisit"`
}

type suggestResponse struct {
	SuggestionText string `json:"suggestionText"`
}

type errorBody struct {
	Kind    string              `json:"kind"`
	Message string              `json:"message"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("write json failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	s.writeJSON(w, statusFor(err), map[string]errorBody{"error": {
		Kind:    domain.KindOf(err),
		Message: publicMessage(err),
		Fields:  domain.FieldErrors(err),
	}})
}

func (s *Server) writeBadRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, map[string]errorBody{"error": {
		Kind:    domain.KindInvalidInput,
		Message: msg,
	}})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (s *Server) handleAPIListGuests(w http.ResponseWriter, r *http.Request) {
	guests, err := s.service.ListGuests(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, guests)
}

func (s *Server) handleAPICreateGuest(w http.ResponseWriter, r *http.Request) {
	var req createGuestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeBadRequest(w, "malformed request body: "+err.Error())
		return
	}

	rec, err := s.service.AddGuest(r.Context(), domain.GuestInput{
		FamilyName:      req.FamilyName,
		NumberOfMembers: req.NumberOfMembers.String(),
		PlaceOfVisit:    req.PlaceOfVisit,
		GiftAmount:      req.GiftAmount.String(),
		PhoneNumber:     req.PhoneNumber,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleAPIDeleteGuest(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RemoveGuest(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAPISuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeBadRequest(w, "malformed request body: "+err.Error())
		return
	}
	if req.NumberOfMembers < 1 {
		s.writeError(w, &domain.FieldError{Field: domain.FieldNumberOfMembers, Message: "must be at least 1"})
		return
	}
	if req.PlaceOfVisit == "" {
		s.writeError(w, &domain.FieldError{Field: domain.FieldPlaceOfVisit, Message: "is required"})
		return
	}

	text, err := s.service.SuggestArrangement(r.Context(), req.NumberOfMembers, req.PlaceOfVisit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, suggestResponse{SuggestionText: text})
}
