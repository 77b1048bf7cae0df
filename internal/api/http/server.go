package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	appCompletion "github.com/trade-hub/trade-hub/internal/application/completion"
	appMessage "github.com/trade-hub/trade-hub/internal/application/message"
	appNegotiation "github.com/trade-hub/trade-hub/internal/application/negotiation"
	"github.com/trade-hub/trade-hub/internal/domain/chat"
	"github.com/trade-hub/trade-hub/internal/domain/event"
	"github.com/trade-hub/trade-hub/internal/domain/listing"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	negotiationSvc *appNegotiation.Service
	messageSvc     *appMessage.Service
	completionSvc  *appCompletion.Service
	hub            event.Hub
	jwtSecret      []byte
	logger         zerolog.Logger
}

func NewServer(
	negotiationSvc *appNegotiation.Service,
	messageSvc *appMessage.Service,
	completionSvc *appCompletion.Service,
	hub event.Hub,
	jwtSecret []byte,
	logger zerolog.Logger,
) *Server {
	return &Server{
		negotiationSvc: negotiationSvc,
		messageSvc:     messageSvc,
		completionSvc:  completionSvc,
		hub:            hub,
		jwtSecret:      jwtSecret,
		logger:         logger.With().Str("component", "http").Logger(),
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Route("/listings/{listingId}", func(r chi.Router) {
			r.Post("/chats", s.openChat)
			r.Get("/chats", s.listListingChats)
			r.Post("/select-trader", s.selectTrader)
		})

		r.Route("/chats/{chatId}", func(r chi.Router) {
			r.Get("/", s.getChat)
			r.Post("/lock-in", s.lockIn)
			r.Post("/approve", s.approve)
			r.Post("/leave", s.leave)
			r.Post("/messages", s.sendMessage)
			r.Get("/messages", s.listMessages)
			r.Get("/events", s.chatEvents)
		})

		r.Get("/trades", s.listTrades)
	})

	return r
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

// respondDomainError maps the negotiation error taxonomy to distinct HTTP
// responses so the edge can render a specific reason, never a generic failure.
func respondDomainError(w http.ResponseWriter, err error) {
	var taken *listing.AlreadyTakenError
	switch {
	case errors.As(err, &taken):
		respondJSON(w, http.StatusConflict, map[string]interface{}{
			"error":           "ALREADY_TAKEN",
			"message":         taken.Error(),
			"current_chat_id": taken.CurrentChatID,
		})
	case errors.Is(err, chat.ErrNotFound), errors.Is(err, listing.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, chat.ErrNotParticipant):
		respondError(w, http.StatusForbidden, "NOT_PARTICIPANT", err.Error())
	case errors.Is(err, listing.ErrNotOwner):
		respondError(w, http.StatusForbidden, "NOT_OWNER", err.Error())
	case errors.Is(err, chat.ErrTerminalState):
		respondError(w, http.StatusConflict, "TERMINAL_STATE", err.Error())
	case errors.Is(err, chat.ErrPreconditionFailed):
		respondError(w, http.StatusPreconditionFailed, "PRECONDITION_FAILED", err.Error())
	case errors.Is(err, chat.ErrSuspended):
		respondError(w, http.StatusConflict, "CHAT_SUSPENDED", err.Error())
	case errors.Is(err, chat.ErrOwnListing), errors.Is(err, chat.ErrListingMismatch), errors.Is(err, appMessage.ErrEmptyBody):
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
	case errors.Is(err, chat.ErrWriteConflict), errors.Is(err, listing.ErrWriteConflict):
		respondError(w, http.StatusConflict, "WRITE_CONFLICT", "concurrent update, reload and retry")
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil {
			offset = o
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
