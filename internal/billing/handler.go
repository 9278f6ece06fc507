// AngelaMos | 2026
// handler.go

package billing

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
	r.Get("/plans", h.ListActivePlans)

	r.Route("/billing", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/subscription", h.GetSubscription)
		r.Post("/subscription", h.Subscribe)
		r.Patch("/subscription", h.SetAutoRenew)
		r.Get("/payments", h.ListPayments)
	})
}

func (h *Handler) RegisterAdminRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Use(adminOnly)

		r.Get("/admin/plans", h.ListPlans)
		r.Post("/admin/plans", h.CreatePlan)
		r.Put("/admin/plans/{planID}", h.UpdatePlan)
		r.Delete("/admin/plans/{planID}", h.DeletePlan)
		r.Delete("/admin/subscriptions/{subscriptionID}", h.DeleteSubscription)
		r.Put("/admin/payments/{paymentID}/status", h.RecordOutcome)
	})
}

func (h *Handler) ListActivePlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListActivePlans(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToPlanResponseList(plans))
}

func (h *Handler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	sub, err := h.service.GetSubscription(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToSubscriptionResponse(sub))
}

func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req SubscribeRequest
	if !h.decode(w, r, &req) {
		return
	}

	ctx := r.Context()
	sub, payment, err := h.service.Subscribe(ctx, middleware.GetUserID(ctx), req.PlanID, middleware.GetLocation(ctx))
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, SubscribeResponse{
		Subscription: ToSubscriptionResponse(sub),
		Payment:      ToPaymentResponse(payment),
	})
}

func (h *Handler) SetAutoRenew(w http.ResponseWriter, r *http.Request) {
	var req AutoRenewRequest
	if !h.decode(w, r, &req) {
		return
	}

	sub, err := h.service.SetAutoRenew(r.Context(), middleware.GetUserID(r.Context()), *req.AutoRenew)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToSubscriptionResponse(sub))
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListPayments(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToPaymentResponseList(payments))
}

func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.service.ListPlans(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToPlanResponseList(plans))
}

func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if !h.decode(w, r, &req) {
		return
	}

	plan, err := h.service.CreatePlan(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, ToPlanResponse(plan))
}

func (h *Handler) UpdatePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "planID", "plan")
	if !ok {
		return
	}

	var req PlanRequest
	if !h.decode(w, r, &req) {
		return
	}

	plan, err := h.service.UpdatePlan(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToPlanResponse(plan))
}

func (h *Handler) DeletePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "planID", "plan")
	if !ok {
		return
	}

	if err := h.service.DeletePlan(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) DeleteSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "subscriptionID", "subscription")
	if !ok {
		return
	}

	if err := h.service.DeleteSubscription(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) RecordOutcome(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "paymentID", "payment")
	if !ok {
		return
	}

	var req OutcomeRequest
	if !h.decode(w, r, &req) {
		return
	}

	payment, err := h.service.RecordOutcome(r.Context(), id, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToPaymentResponse(payment))
}

func pathID(w http.ResponseWriter, r *http.Request, param, resource string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		core.NotFound(w, resource)
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
	if appErr, ok := core.AsAppError(err); ok {
		core.JSONError(w, appErr)
		return
	}

	switch {
	case errors.Is(err, core.ErrNotFound):
		core.NotFound(w, "resource")
	case errors.Is(err, core.ErrDuplicateKey):
		core.JSONError(w, core.IntegrityError())
	case errors.Is(err, core.ErrProtected):
		core.JSONError(w, core.ProtectedError("plan has subscriptions and cannot be deleted"))
	case errors.Is(err, ErrAlreadySettled):
		core.Conflict(w, "payment already settled")
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, err.Error())
	default:
		core.InternalServerError(w, err)
	}
}
