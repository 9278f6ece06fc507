// AngelaMos | 2026
// handler.go

package memory

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
	r.Route("/memories", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.ListMemories)
		r.Post("/", h.CreateMemory)
		r.Get("/{memoryID}", h.GetMemory)
		r.Delete("/{memoryID}", h.DeleteMemory)
		r.Post("/{memoryID}/bullets", h.AddBullet)
	})

	r.Route("/memory-bullets", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/", h.ListBullets)
		r.Post("/{bulletID}/vote", h.Vote)
		r.Put("/{bulletID}/strength", h.SetStrength)
		r.Delete("/{bulletID}", h.DeleteBullet)
	})
}

func (h *Handler) ListMemories(w http.ResponseWriter, r *http.Request) {
	memories, err := h.service.ListMemories(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err, memoryResource)
		return
	}

	core.OK(w, memories)
}

func (h *Handler) CreateMemory(w http.ResponseWriter, r *http.Request) {
	m, err := h.service.CreateMemory(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err, memoryResource)
		return
	}

	core.Created(w, m)
}

func (h *Handler) GetMemory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "memoryID")
	if !ok {
		return
	}

	m, err := h.service.GetMemory(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeError(w, err, memoryResource)
		return
	}

	core.OK(w, m)
}

func (h *Handler) DeleteMemory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "memoryID")
	if !ok {
		return
	}

	if err := h.service.DeleteMemory(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		writeError(w, err, memoryResource)
		return
	}

	core.NoContent(w)
}

func (h *Handler) AddBullet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "memoryID")
	if !ok {
		return
	}

	var req CreateBulletRequest
	if !h.decode(w, r, &req) {
		return
	}

	b, err := h.service.AddBullet(r.Context(), middleware.GetUserID(r.Context()), id, req)
	if err != nil {
		writeError(w, err, memoryResource)
		return
	}

	core.Created(w, b)
}

func (h *Handler) ListBullets(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.ListBullets(
		r.Context(),
		middleware.GetUserID(r.Context()),
		ParseFilter(r.URL.Query()),
	)
	if err != nil {
		writeError(w, err, bulletResource)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "bulletID")
	if !ok {
		return
	}

	var req VoteRequest
	if !h.decode(w, r, &req) {
		return
	}

	b, err := h.service.Vote(r.Context(), middleware.GetUserID(r.Context()), id, VoteKind(req.Kind))
	if err != nil {
		writeError(w, err, bulletResource)
		return
	}

	core.OK(w, b)
}

func (h *Handler) SetStrength(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "bulletID")
	if !ok {
		return
	}

	var req StrengthRequest
	if !h.decode(w, r, &req) {
		return
	}

	b, err := h.service.SetStrength(r.Context(), middleware.GetUserID(r.Context()), id, *req.Strength)
	if err != nil {
		writeError(w, err, bulletResource)
		return
	}

	core.OK(w, b)
}

func (h *Handler) DeleteBullet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "bulletID")
	if !ok {
		return
	}

	if err := h.service.DeleteBullet(r.Context(), middleware.GetUserID(r.Context()), id); err != nil {
		writeError(w, err, bulletResource)
		return
	}

	core.NoContent(w)
}

// pathID parses a numeric route id. Anything else is reported as a
// missing resource.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		core.NotFound(w, resourceName(name))
		return 0, false
	}
	return id, true
}

const (
	memoryResource = "memory"
	bulletResource = "memory bullet"
)

func resourceName(param string) string {
	if param == "bulletID" {
		return bulletResource
	}
	return memoryResource
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

func writeError(w http.ResponseWriter, err error, resource string) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, resource)
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	default:
		core.InternalServerError(w, err)
	}
}
