package web

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/vbonduro/weddingdb/internal/domain"
)

var suggestionFiles = []string{"partials/suggestion.html"}

// handleSuggest renders a suggestion for the card identified by {id}. The
// card posts its own member count and place, so no store lookup is needed.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "failed to parse form", http.StatusBadRequest)
		return
	}

	members, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("members")))
	if err != nil || members < 1 {
		http.Error(w, "invalid member count", http.StatusBadRequest)
		return
	}
	place := strings.TrimSpace(r.PostFormValue("place"))
	if place == "" {
		http.Error(w, "place required", http.StatusBadRequest)
		return
	}

	text, err := s.service.SuggestArrangement(r.Context(), members, place)
	data := map[string]any{"ID": r.PathValue("id"), "Text": text}
	if err != nil {
		if !errors.Is(err, domain.ErrSuggestionUnavailable) {
			http.Error(w, "failed to get suggestion", http.StatusInternalServerError)
			s.logger.Error("suggestion failed", "guest_id", r.PathValue("id"), "error", err)
			return
		}
		// Shown inline so the rest of the card keeps working.
		data["Error"] = publicMessage(err)
	}

	if err := s.renderPartial(w, http.StatusOK, "suggestion", data, suggestionFiles...); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}
