// AngelaMos | 2026
// repository.go

package billing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/memoria/internal/core"
)

// ErrAlreadySettled rejects an outcome for a payment that is no longer
// pending.
var ErrAlreadySettled = errors.New("payment already settled")

type Repository interface {
	ListPlans(ctx context.Context, activeOnly bool) ([]Plan, error)
	GetPlan(ctx context.Context, id int64) (*Plan, error)
	CreatePlan(ctx context.Context, plan *Plan) error
	UpdatePlan(ctx context.Context, plan *Plan) error
	DeletePlan(ctx context.Context, id int64) error

	GetSubscription(ctx context.Context, userID string) (*Subscription, error)
	// Subscribe inserts the subscription and its first payment together.
	Subscribe(ctx context.Context, sub *Subscription, payment *Payment) error
	SetAutoRenew(ctx context.Context, userID string, autoRenew bool) (*Subscription, error)
	DeleteSubscription(ctx context.Context, id int64) error

	ListPayments(ctx context.Context, userID string) ([]Payment, error)
	GetPayment(ctx context.Context, id int64) (*Payment, error)
	// SettlePayment moves a pending payment to status. A success also
	// activates the subscription and, when tier is set, the user's tier.
	SettlePayment(ctx context.Context, id int64, status PaymentStatus, tier string) (*Payment, error)
}

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

const planColumns = `id, name, code, description, billing_interval, price_cents,
	currency, is_active, created_at, updated_at`

func (r *repository) ListPlans(ctx context.Context, activeOnly bool) ([]Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY price_cents ASC, id ASC`

	plans := []Plan{}
	if err := r.db.SelectContext(ctx, &plans, query); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	return plans, nil
}

func (r *repository) GetPlan(ctx context.Context, id int64) (*Plan, error) {
	var p Plan
	err := r.db.GetContext(ctx, &p, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get plan: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}

	return &p, nil
}

func (r *repository) CreatePlan(ctx context.Context, plan *Plan) error {
	query := `
		INSERT INTO plans (name, code, description, billing_interval, price_cents, currency, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		plan.Name,
		plan.Code,
		plan.Description,
		plan.Interval,
		plan.PriceCents,
		plan.Currency,
		plan.IsActive,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)
	if err != nil {
		return mapWriteError("create plan", err)
	}

	return nil
}

func (r *repository) UpdatePlan(ctx context.Context, plan *Plan) error {
	query := `
		UPDATE plans
		SET name = $2, code = $3, description = $4, billing_interval = $5,
		    price_cents = $6, currency = $7, is_active = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		plan.ID,
		plan.Name,
		plan.Code,
		plan.Description,
		plan.Interval,
		plan.PriceCents,
		plan.Currency,
		plan.IsActive,
	).Scan(&plan.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update plan: %w", core.ErrNotFound)
	}
	if err != nil {
		return mapWriteError("update plan", err)
	}

	return nil
}

// DeletePlan refuses plans that still have subscriptions. Payments keep
// their history with plan_id nulled.
func (r *repository) DeletePlan(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if core.IsForeignKeyError(err) {
		return fmt.Errorf("delete plan: %w", core.ErrProtected)
	}
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}

	return requireRow(result, "delete plan")
}

const subscriptionColumns = `id, user_id, plan_id, status, auto_renew,
	current_period_start, current_period_end, created_at, updated_at`

func (r *repository) GetSubscription(ctx context.Context, userID string) (*Subscription, error) {
	var s Subscription
	err := r.db.GetContext(ctx, &s,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE user_id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get subscription: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}

	return &s, nil
}

func (r *repository) Subscribe(ctx context.Context, sub *Subscription, payment *Payment) error {
	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO subscriptions (
				user_id, plan_id, status, auto_renew,
				current_period_start, current_period_end
			) VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at`,
			sub.UserID,
			sub.PlanID,
			sub.Status,
			sub.AutoRenew,
			sub.CurrentPeriodStart,
			sub.CurrentPeriodEnd,
		).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
		if err != nil {
			return mapWriteError("insert subscription", err)
		}

		payment.SubscriptionID = &sub.ID
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO payments (user_id, subscription_id, plan_id, amount_cents, currency, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at`,
			payment.UserID,
			payment.SubscriptionID,
			payment.PlanID,
			payment.AmountCents,
			payment.Currency,
			payment.Status,
		).Scan(&payment.ID, &payment.CreatedAt)
		if err != nil {
			return mapWriteError("insert payment", err)
		}

		return nil
	})
}

func (r *repository) SetAutoRenew(ctx context.Context, userID string, autoRenew bool) (*Subscription, error) {
	var s Subscription
	err := r.db.GetContext(ctx, &s, `
		UPDATE subscriptions SET auto_renew = $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING `+subscriptionColumns, userID, autoRenew)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("set auto renew: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("set auto renew: %w", err)
	}

	return &s, nil
}

func (r *repository) DeleteSubscription(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}

	return requireRow(result, "delete subscription")
}

const paymentColumns = `id, user_id, subscription_id, plan_id, amount_cents,
	currency, status, paid_at, created_at`

func (r *repository) ListPayments(ctx context.Context, userID string) ([]Payment, error) {
	payments := []Payment{}
	err := r.db.SelectContext(ctx, &payments, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}

	return payments, nil
}

func (r *repository) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	var p Payment
	err := r.db.GetContext(ctx, &p, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get payment: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}

	return &p, nil
}

func (r *repository) SettlePayment(
	ctx context.Context,
	id int64,
	status PaymentStatus,
	tier string,
) (*Payment, error) {
	var p Payment

	err := core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &p, `
			UPDATE payments
			SET status = $2,
			    paid_at = CASE WHEN $2 = 2 THEN NOW() ELSE paid_at END
			WHERE id = $1 AND status = 1
			RETURNING `+paymentColumns, id, status)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("settle payment %d: %w", id, ErrAlreadySettled)
		}
		if err != nil {
			return fmt.Errorf("settle payment: %w", err)
		}

		if status != PaymentSucceeded {
			return nil
		}

		if p.SubscriptionID != nil {
			if _, err := tx.ExecContext(ctx, `
				UPDATE subscriptions SET status = $2, updated_at = NOW()
				WHERE id = $1`, *p.SubscriptionID, StatusActive); err != nil {
				return fmt.Errorf("activate subscription: %w", err)
			}
		}

		if tier != "" {
			if _, err := tx.ExecContext(ctx, `
				UPDATE users SET tier = $2, updated_at = NOW()
				WHERE id = $1`, p.UserID, tier); err != nil {
				return fmt.Errorf("update tier: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func mapWriteError(op string, err error) error {
	switch {
	case core.IsDuplicateKeyError(err):
		return fmt.Errorf("%s: %w", op, core.ErrDuplicateKey)
	case core.IsForeignKeyError(err):
		return fmt.Errorf("%s: %w", op, core.ErrForeignKey)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func requireRow(result sql.Result, op string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	return nil
}
