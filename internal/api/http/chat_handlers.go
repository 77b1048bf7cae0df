package httpapi

import (
	"net/http"
)

func (s *Server) getChat(w http.ResponseWriter, r *http.Request) {
	chatID, err := parseUUIDParam(r, "chatId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid chatId")
		return
	}
	auth := authUserFromContext(r.Context())
	snap, err := s.negotiationSvc.GetSnapshot(r.Context(), chatID, auth.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) lockIn(w http.ResponseWriter, r *http.Request) {
	chatID, err := parseUUIDParam(r, "chatId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid chatId")
		return
	}
	auth := authUserFromContext(r.Context())
	snap, err := s.negotiationSvc.LockIn(r.Context(), chatID, auth.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) approve(w http.ResponseWriter, r *http.Request) {
	chatID, err := parseUUIDParam(r, "chatId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid chatId")
		return
	}
	auth := authUserFromContext(r.Context())
	snap, err := s.negotiationSvc.Approve(r.Context(), chatID, auth.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

func (s *Server) leave(w http.ResponseWriter, r *http.Request) {
	chatID, err := parseUUIDParam(r, "chatId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid chatId")
		return
	}
	auth := authUserFromContext(r.Context())
	snap, err := s.negotiationSvc.Leave(r.Context(), chatID, auth.UserID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

type sendMessageRequest struct {
	Body string `json:"body"`
}

func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	chatID, err := parseUUIDParam(r, "chatId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid chatId")
		return
	}
	var req sendMessageRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	auth := authUserFromContext(r.Context())
	m, err := s.messageSvc.Send(r.Context(), chatID, auth.UserID, req.Body)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

func (s *Server) listMessages(w http.ResponseWriter, r *http.Request) {
	chatID, err := parseUUIDParam(r, "chatId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid chatId")
		return
	}
	limit, offset := parseLimitOffset(r, 100, 500)
	auth := authUserFromContext(r.Context())
	messages, err := s.messageSvc.List(r.Context(), chatID, auth.UserID, limit, offset)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})
}

func (s *Server) listTrades(w http.ResponseWriter, r *http.Request) {
	limit, offset := parseLimitOffset(r, 50, 200)
	auth := authUserFromContext(r.Context())
	trades, err := s.completionSvc.TradesForUser(r.Context(), auth.UserID, limit, offset)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"trades": trades})
}
