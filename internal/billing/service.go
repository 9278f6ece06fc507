// AngelaMos | 2026
// service.go

package billing

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/carterperez-dev/memoria/internal/core"
	"github.com/carterperez-dev/memoria/internal/middleware"
)

const DefaultCurrency = "USD"

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) ListActivePlans(ctx context.Context) ([]Plan, error) {
	return s.repo.ListPlans(ctx, true)
}

func (s *Service) ListPlans(ctx context.Context) ([]Plan, error) {
	return s.repo.ListPlans(ctx, false)
}

func (s *Service) CreatePlan(ctx context.Context, req PlanRequest) (*Plan, error) {
	plan := &Plan{IsActive: true}
	if err := applyPlanRequest(plan, req); err != nil {
		return nil, err
	}

	if err := s.repo.CreatePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *Service) UpdatePlan(ctx context.Context, id int64, req PlanRequest) (*Plan, error) {
	plan, err := s.repo.GetPlan(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyPlanRequest(plan, req); err != nil {
		return nil, err
	}

	if err := s.repo.UpdatePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func applyPlanRequest(plan *Plan, req PlanRequest) error {
	code := strings.TrimSpace(req.Code)
	if !slugPattern.MatchString(code) {
		return core.FieldError("code", "must contain only letters, digits, hyphens and underscores")
	}

	plan.Name = strings.TrimSpace(req.Name)
	plan.Code = code
	plan.Description = req.Description
	plan.Interval = Interval(*req.Interval)
	plan.PriceCents = req.PriceCents
	plan.Currency = strings.ToUpper(req.Currency)
	if plan.Currency == "" {
		plan.Currency = DefaultCurrency
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	return nil
}

func (s *Service) DeletePlan(ctx context.Context, id int64) error {
	return s.repo.DeletePlan(ctx, id)
}

func (s *Service) GetSubscription(ctx context.Context, userID string) (*Subscription, error) {
	return s.repo.GetSubscription(ctx, userID)
}

// Subscribe opens an incomplete subscription for the current period in loc
// and a pending payment for the plan price.
func (s *Service) Subscribe(
	ctx context.Context,
	userID string,
	planID int64,
	loc *time.Location,
) (*Subscription, *Payment, error) {
	plan, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		return nil, nil, err
	}
	if !plan.IsActive {
		return nil, nil, fmt.Errorf("subscribe to inactive plan %d: %w", planID, core.ErrNotFound)
	}

	if loc == nil {
		loc = time.UTC
	}
	local := s.now().In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	sub := &Subscription{
		UserID:             userID,
		PlanID:             plan.ID,
		Status:             StatusIncomplete,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   plan.Interval.PeriodEnd(start),
	}
	payment := &Payment{
		UserID:      userID,
		PlanID:      &plan.ID,
		AmountCents: plan.PriceCents,
		Currency:    plan.Currency,
		Status:      PaymentPending,
	}

	if err := s.repo.Subscribe(ctx, sub, payment); err != nil {
		return nil, nil, err
	}

	return sub, payment, nil
}

func (s *Service) SetAutoRenew(ctx context.Context, userID string, autoRenew bool) (*Subscription, error) {
	return s.repo.SetAutoRenew(ctx, userID, autoRenew)
}

func (s *Service) DeleteSubscription(ctx context.Context, id int64) error {
	return s.repo.DeleteSubscription(ctx, id)
}

func (s *Service) ListPayments(ctx context.Context, userID string) ([]Payment, error) {
	return s.repo.ListPayments(ctx, userID)
}

// RecordOutcome settles a pending payment. A success upgrades the payer to
// the plan's tier when the plan code names one.
func (s *Service) RecordOutcome(ctx context.Context, id int64, outcome string) (*Payment, error) {
	status, ok := ParseOutcome(outcome)
	if !ok {
		return nil, core.FieldError("status", "must be one of: succeeded failed cancelled")
	}

	payment, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}

	var tier string
	if status == PaymentSucceeded && payment.PlanID != nil {
		plan, err := s.repo.GetPlan(ctx, *payment.PlanID)
		switch {
		case errors.Is(err, core.ErrNotFound):
		case err != nil:
			return nil, err
		case middleware.IsKnownTier(plan.Code):
			tier = plan.Code
		}
	}

	return s.repo.SettlePayment(ctx, id, status, tier)
}
