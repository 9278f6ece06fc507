// AngelaMos | 2026
// entity.go

package billing

import (
	"time"
)

type Interval int

const (
	Monthly Interval = 0
	Yearly  Interval = 1
)

func (i Interval) Valid() bool {
	return i == Monthly || i == Yearly
}

func (i Interval) Label() string {
	switch i {
	case Monthly:
		return "Monthly"
	case Yearly:
		return "Yearly"
	default:
		return "Unknown"
	}
}

// PeriodEnd is the end date of a billing period starting on start. A start
// day missing from the target month clamps to that month's last day.
func (i Interval) PeriodEnd(start time.Time) time.Time {
	years, months := 0, 1
	if i == Yearly {
		years, months = 1, 0
	}

	first := time.Date(start.Year()+years, start.Month()+time.Month(months), 1, 0, 0, 0, 0, start.Location())
	lastDay := first.AddDate(0, 1, -1).Day()

	return time.Date(first.Year(), first.Month(), min(start.Day(), lastDay), 0, 0, 0, 0, start.Location())
}

type SubscriptionStatus int

const (
	StatusIncomplete SubscriptionStatus = 0
	StatusActive     SubscriptionStatus = 1
	StatusExpired    SubscriptionStatus = 2
)

func (s SubscriptionStatus) Label() string {
	switch s {
	case StatusIncomplete:
		return "Incomplete"
	case StatusActive:
		return "Active"
	case StatusExpired:
		return "Expired"
	default:
		return "Unknown"
	}
}

type PaymentStatus int

const (
	PaymentPending   PaymentStatus = 1
	PaymentSucceeded PaymentStatus = 2
	PaymentFailed    PaymentStatus = 3
	PaymentCancelled PaymentStatus = 4
)

func (s PaymentStatus) Label() string {
	switch s {
	case PaymentPending:
		return "Pending"
	case PaymentSucceeded:
		return "Succeeded"
	case PaymentFailed:
		return "Failed"
	case PaymentCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// ParseOutcome maps an admin-supplied outcome to a settled status.
func ParseOutcome(raw string) (PaymentStatus, bool) {
	switch raw {
	case "succeeded":
		return PaymentSucceeded, true
	case "failed":
		return PaymentFailed, true
	case "cancelled":
		return PaymentCancelled, true
	default:
		return 0, false
	}
}

type Plan struct {
	ID          int64     `db:"id"`
	Name        string    `db:"name"`
	Code        string    `db:"code"`
	Description string    `db:"description"`
	Interval    Interval  `db:"billing_interval"`
	PriceCents  int64     `db:"price_cents"`
	Currency    string    `db:"currency"`
	IsActive    bool      `db:"is_active"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type Subscription struct {
	ID                 int64              `db:"id"`
	UserID             string             `db:"user_id"`
	PlanID             int64              `db:"plan_id"`
	Status             SubscriptionStatus `db:"status"`
	AutoRenew          bool               `db:"auto_renew"`
	CurrentPeriodStart time.Time          `db:"current_period_start"`
	CurrentPeriodEnd   time.Time          `db:"current_period_end"`
	CreatedAt          time.Time          `db:"created_at"`
	UpdatedAt          time.Time          `db:"updated_at"`
}

type Payment struct {
	ID             int64         `db:"id"`
	UserID         string        `db:"user_id"`
	SubscriptionID *int64        `db:"subscription_id"`
	PlanID         *int64        `db:"plan_id"`
	AmountCents    int64         `db:"amount_cents"`
	Currency       string        `db:"currency"`
	Status         PaymentStatus `db:"status"`
	PaidAt         *time.Time    `db:"paid_at"`
	CreatedAt      time.Time     `db:"created_at"`
}
