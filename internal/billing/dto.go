// AngelaMos | 2026
// dto.go

package billing

import (
	"time"
)

type PlanRequest struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Code        string `json:"code"        validate:"required,max=32"`
	Description string `json:"description" validate:"max=5000"`
	Interval    *int   `json:"interval"    validate:"required,oneof=0 1"`
	PriceCents  int64  `json:"price_cents" validate:"gte=0"`
	Currency    string `json:"currency"    validate:"omitempty,iso4217"`
	IsActive    *bool  `json:"is_active"`
}

type SubscribeRequest struct {
	PlanID int64 `json:"plan_id" validate:"required,gt=0"`
}

type AutoRenewRequest struct {
	AutoRenew *bool `json:"auto_renew" validate:"required"`
}

type OutcomeRequest struct {
	Status string `json:"status" validate:"required,oneof=succeeded failed cancelled"`
}

type PlanResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Code          string    `json:"code"`
	Description   string    `json:"description"`
	Interval      int       `json:"interval"`
	IntervalLabel string    `json:"interval_label"`
	PriceCents    int64     `json:"price_cents"`
	Currency      string    `json:"currency"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type SubscriptionResponse struct {
	ID                 int64     `json:"id"`
	PlanID             int64     `json:"plan_id"`
	Status             int       `json:"status"`
	StatusLabel        string    `json:"status_label"`
	AutoRenew          bool      `json:"auto_renew"`
	CurrentPeriodStart string    `json:"current_period_start"`
	CurrentPeriodEnd   string    `json:"current_period_end"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type PaymentResponse struct {
	ID             int64      `json:"id"`
	SubscriptionID *int64     `json:"subscription_id"`
	PlanID         *int64     `json:"plan_id"`
	AmountCents    int64      `json:"amount_cents"`
	Currency       string     `json:"currency"`
	Status         int        `json:"status"`
	StatusLabel    string     `json:"status_label"`
	PaidAt         *time.Time `json:"paid_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

type SubscribeResponse struct {
	Subscription SubscriptionResponse `json:"subscription"`
	Payment      PaymentResponse      `json:"payment"`
}

func ToPlanResponse(p *Plan) PlanResponse {
	return PlanResponse{
		ID:            p.ID,
		Name:          p.Name,
		Code:          p.Code,
		Description:   p.Description,
		Interval:      int(p.Interval),
		IntervalLabel: p.Interval.Label(),
		PriceCents:    p.PriceCents,
		Currency:      p.Currency,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func ToPlanResponseList(plans []Plan) []PlanResponse {
	out := make([]PlanResponse, 0, len(plans))
	for i := range plans {
		out = append(out, ToPlanResponse(&plans[i]))
	}
	return out
}

func ToSubscriptionResponse(s *Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:                 s.ID,
		PlanID:             s.PlanID,
		Status:             int(s.Status),
		StatusLabel:        s.Status.Label(),
		AutoRenew:          s.AutoRenew,
		CurrentPeriodStart: s.CurrentPeriodStart.Format(time.DateOnly),
		CurrentPeriodEnd:   s.CurrentPeriodEnd.Format(time.DateOnly),
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func ToPaymentResponse(p *Payment) PaymentResponse {
	return PaymentResponse{
		ID:             p.ID,
		SubscriptionID: p.SubscriptionID,
		PlanID:         p.PlanID,
		AmountCents:    p.AmountCents,
		Currency:       p.Currency,
		Status:         int(p.Status),
		StatusLabel:    p.Status.Label(),
		PaidAt:         p.PaidAt,
		CreatedAt:      p.CreatedAt,
	}
}

func ToPaymentResponseList(payments []Payment) []PaymentResponse {
	out := make([]PaymentResponse, 0, len(payments))
	for i := range payments {
		out = append(out, ToPaymentResponse(&payments[i]))
	}
	return out
}
