// AngelaMos | 2026
// handler.go

package analytics

import (
	"bytes"
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/memoria/internal/core"
	"github.com/carterperez-dev/memoria/internal/holiday"
	"github.com/carterperez-dev/memoria/internal/middleware"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/analytics", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/summary", h.Summary)
		r.Get("/export/sessions", h.ExportSessions)
		r.Get("/export/memory-bullets", h.ExportBullets)
	})
}

// RegisterPublicRoutes mounts the unauthenticated feeds. holidayLimit
// wraps the holiday route, which calls an upstream service.
func (h *Handler) RegisterPublicRoutes(
	r chi.Router,
	holidayLimit func(http.Handler) http.Handler,
) {
	r.Route("/public", func(r chi.Router) {
		r.Get("/active-users", h.ActiveUsers)
		r.With(holidayLimit).Get("/active-users/holidays", h.HolidayActivity)
		r.Get("/demo", h.Demo)
	})
}

func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Summary(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, summary)
}

func (h *Handler) ExportSessions(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, h.service.SessionsReport)
}

func (h *Handler) ExportBullets(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, h.service.BulletsReport)
}

type reportFunc func(ctx context.Context, userID string, loc *time.Location) (*Report, error)

func (h *Handler) export(
	w http.ResponseWriter,
	r *http.Request,
	build reportFunc,
) {
	format, err := ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		core.JSONError(w, err)
		return
	}

	ctx := r.Context()
	report, err := build(ctx, middleware.GetUserID(ctx), middleware.GetLocation(ctx))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, format); err != nil {
		core.InternalServerError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+report.Filename(format)+`"`)
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // best-effort response write
	_, _ = buf.WriteTo(w)
}

func (h *Handler) ActiveUsers(w http.ResponseWriter, r *http.Request) {
	feed, err := h.service.ActiveUsers(r.Context(), middleware.GetLocation(r.Context()))
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.WriteJSON(w, http.StatusOK, feed)
}

type invalidCountryBody struct {
	Error                string           `json:"error"`
	RequestedCountryCode string           `json:"requested_country_code"`
	AvailableRegions     []holiday.Region `json:"available_regions"`
}

type unavailableBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (h *Handler) HolidayActivity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("country")
	if strings.TrimSpace(code) == "" {
		code = q.Get("q")
	}

	payload, err := h.service.HolidayActivity(r.Context(), code, middleware.GetLocation(r.Context()))

	var invalid *holiday.InvalidCountryError
	switch {
	case err == nil:
		core.WriteIndentedJSON(w, http.StatusOK, payload)
	case errors.As(err, &invalid):
		regions := invalid.Regions
		if regions == nil {
			regions = []holiday.Region{}
		}
		core.WriteIndentedJSON(w, http.StatusBadRequest, invalidCountryBody{
			Error:                "Invalid country code",
			RequestedCountryCode: invalid.Code,
			AvailableRegions:     regions,
		})
	case errors.Is(err, holiday.ErrUnavailable):
		slog.WarnContext(r.Context(), "holiday calendar unavailable",
			"country", code,
			"error", err,
		)
		core.WriteIndentedJSON(w, http.StatusServiceUnavailable, unavailableBody{
			Error:   "Holiday service unavailable",
			Message: holidayUnavailableMessage,
		})
	default:
		core.InternalServerError(w, err)
	}
}

const holidayUnavailableMessage = "Unable to reach the holiday calendar. Try again later."

type demoInfo struct {
	Project     string `json:"project"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

var demo = demoInfo{
	Project:     "MEMORIA",
	Version:     "1.0",
	Description: "Memory Enhanced AI Assistant",
}

var demoPage = template.Must(template.New("demo").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.Project}} API</title></head>
<body>
<h1>{{.Project}} API</h1>
<p>{{.Description}}</p>
<p>Version {{.Version}}</p>
</body>
</html>
`))

// Demo serves the same sample as json, html or text.
func (h *Handler) Demo(w http.ResponseWriter, r *http.Request) {
	switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format"))) {
	case "html":
		var buf bytes.Buffer
		if err := demoPage.Execute(&buf, demo); err != nil {
			core.InternalServerError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		//nolint:errcheck // best-effort response write
		_, _ = buf.WriteTo(w)
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		//nolint:errcheck // best-effort response write
		_, _ = w.Write([]byte(demo.Project + " API: " + demo.Description + "\nVersion: " + demo.Version + "\n"))
	default:
		core.WriteJSON(w, http.StatusOK, demo)
	}
}
