package httpapi

import (
	"net/http"

	"github.com/google/uuid"
)

func (s *Server) openChat(w http.ResponseWriter, r *http.Request) {
	listingID, err := parseUUIDParam(r, "listingId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid listingId")
		return
	}
	auth := authUserFromContext(r.Context())
	snap, err := s.negotiationSvc.Open(r.Context(), listingID, auth.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, snap)
}

func (s *Server) listListingChats(w http.ResponseWriter, r *http.Request) {
	listingID, err := parseUUIDParam(r, "listingId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid listingId")
		return
	}
	auth := authUserFromContext(r.Context())
	snaps, err := s.negotiationSvc.ListForListing(r.Context(), listingID, auth.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"chats": snaps})
}

type selectTraderRequest struct {
	ChatID string `json:"chat_id"`
}

func (s *Server) selectTrader(w http.ResponseWriter, r *http.Request) {
	listingID, err := parseUUIDParam(r, "listingId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid listingId")
		return
	}
	var req selectTraderRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	chatID, err := uuid.Parse(req.ChatID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid chat_id")
		return
	}
	auth := authUserFromContext(r.Context())
	snap, err := s.negotiationSvc.SelectTrader(r.Context(), listingID, chatID, auth.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}
