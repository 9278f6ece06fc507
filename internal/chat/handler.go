// AngelaMos | 2026
// handler.go

package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/memoria/internal/core"
	"github.com/carterperez-dev/memoria/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/sessions", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.ListSessions)
		r.Post("/", h.StartSession)

		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Patch("/", h.Rename)
			r.Delete("/", h.DeleteSession)
			r.Get("/messages", h.ListMessages)
			r.Post("/messages", h.PostMessage)
		})
	})
}

func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessions, err := h.service.ListSessions(
		ctx,
		middleware.GetUserID(ctx),
		r.URL.Query().Get("q"),
		core.QueryOptionalInt(r, "limit"),
		middleware.GetLocation(ctx),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, sessions)
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	resp, err := h.service.StartSession(ctx, middleware.GetUserID(ctx), req.Content, middleware.GetLocation(ctx))
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, resp)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	resp, err := h.service.GetSession(
		ctx,
		middleware.GetUserID(ctx),
		id,
		core.QueryOptionalInt(r, "role"),
		middleware.GetLocation(ctx),
	)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	resp, err := h.service.ListMessages(ctx, middleware.GetUserID(ctx), id, core.QueryOptionalInt(r, "role"))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req ContentRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	messages, err := h.service.PostMessage(ctx, middleware.GetUserID(ctx), id, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, messages)
}

func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	var req RenameRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	resp, err := h.service.Rename(ctx, middleware.GetUserID(ctx), id, req.Title)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionID(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	if err := h.service.DeleteSession(ctx, middleware.GetUserID(ctx), id); err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, OKResponse{OK: true})
}

func sessionID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil || id <= 0 {
		core.NotFound(w, "session")
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		core.BadRequest(w, "invalid request body")
		return false
	}

	if err := h.validator.Struct(dst); err != nil {
		core.ValidationFailed(w, err)
		return false
	}

	return true
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "session")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, "content must not be empty")
	default:
		core.InternalServerError(w, err)
	}
}
