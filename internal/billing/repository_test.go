// AngelaMos | 2026
// repository_test.go

package billing

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/memoria/internal/core"
	"github.com/carterperez-dev/memoria/internal/testutil/testpg"
)

func createPlan(t *testing.T, svc *Service, code string, interval int, price int64) *Plan {
	t.Helper()

	plan, err := svc.CreatePlan(context.Background(), PlanRequest{
		Name:       code,
		Code:       code,
		Interval:   &interval,
		PriceCents: price,
	})
	require.NoError(t, err)
	return plan
}

func count(t *testing.T, db *sqlx.DB, query string, args ...any) int {
	t.Helper()

	var n int
	require.NoError(t, db.GetContext(context.Background(), &n, query, args...))
	return n
}

func TestBillingIntegration(t *testing.T) {
	db := testpg.Start(t)
	svc := NewService(NewRepository(db))
	svc.now = func() time.Time { return time.Date(2024, 1, 31, 15, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	pro := createPlan(t, svc, "pro", int(Monthly), 1500)
	assert.Equal(t, DefaultCurrency, pro.Currency)

	t.Run("duplicate code and interval is an integrity error", func(t *testing.T) {
		interval := int(Monthly)
		_, err := svc.CreatePlan(ctx, PlanRequest{Name: "again", Code: "pro", Interval: &interval})
		assert.ErrorIs(t, err, core.ErrDuplicateKey)

		createPlan(t, svc, "pro", int(Yearly), 15000)
	})

	t.Run("subscribe opens an incomplete subscription with a pending payment", func(t *testing.T) {
		alice := testpg.CreateUser(t, db, "alice")

		sub, payment, err := svc.Subscribe(ctx, alice, pro.ID, time.UTC)
		require.NoError(t, err)

		assert.Equal(t, StatusIncomplete, sub.Status)
		assert.Equal(t, "2024-01-31", sub.CurrentPeriodStart.Format(time.DateOnly))
		assert.Equal(t, "2024-02-29", sub.CurrentPeriodEnd.Format(time.DateOnly))
		assert.Equal(t, PaymentPending, payment.Status)
		assert.Equal(t, int64(1500), payment.AmountCents)

		_, _, err = svc.Subscribe(ctx, alice, pro.ID, time.UTC)
		assert.ErrorIs(t, err, core.ErrDuplicateKey)
	})

	t.Run("successful payment activates and upgrades tier", func(t *testing.T) {
		bob := testpg.CreateUser(t, db, "bob")
		sub, payment, err := svc.Subscribe(ctx, bob, pro.ID, time.UTC)
		require.NoError(t, err)

		settled, err := svc.RecordOutcome(ctx, payment.ID, "succeeded")
		require.NoError(t, err)
		assert.Equal(t, PaymentSucceeded, settled.Status)
		assert.NotNil(t, settled.PaidAt)

		got, err := svc.GetSubscription(ctx, bob)
		require.NoError(t, err)
		assert.Equal(t, sub.ID, got.ID)
		assert.Equal(t, StatusActive, got.Status)

		var tier string
		require.NoError(t, db.GetContext(ctx, &tier, `SELECT tier FROM users WHERE id = $1`, bob))
		assert.Equal(t, "pro", tier)

		_, err = svc.RecordOutcome(ctx, payment.ID, "failed")
		assert.ErrorIs(t, err, ErrAlreadySettled)
	})

	t.Run("plan with subscriptions is protected", func(t *testing.T) {
		before := count(t, db, `SELECT COUNT(*) FROM subscriptions WHERE plan_id = $1`, pro.ID)
		require.Positive(t, before)

		err := svc.DeletePlan(ctx, pro.ID)
		assert.ErrorIs(t, err, core.ErrProtected)

		_, err = svc.repo.GetPlan(ctx, pro.ID)
		assert.NoError(t, err)
		assert.Equal(t, before, count(t, db, `SELECT COUNT(*) FROM subscriptions WHERE plan_id = $1`, pro.ID))
	})

	t.Run("deleting a subscription keeps its payments", func(t *testing.T) {
		carol := testpg.CreateUser(t, db, "carol")
		sub, payment, err := svc.Subscribe(ctx, carol, pro.ID, time.UTC)
		require.NoError(t, err)

		require.NoError(t, svc.DeleteSubscription(ctx, sub.ID))

		got, err := svc.repo.GetPayment(ctx, payment.ID)
		require.NoError(t, err)
		assert.Nil(t, got.SubscriptionID)
	})

	t.Run("unused plan deletes and nulls payment history", func(t *testing.T) {
		basic := createPlan(t, svc, "basic", int(Monthly), 500)
		dave := testpg.CreateUser(t, db, "dave")
		sub, payment, err := svc.Subscribe(ctx, dave, basic.ID, time.UTC)
		require.NoError(t, err)
		require.NoError(t, svc.DeleteSubscription(ctx, sub.ID))

		require.NoError(t, svc.DeletePlan(ctx, basic.ID))

		got, err := svc.repo.GetPayment(ctx, payment.ID)
		require.NoError(t, err)
		assert.Nil(t, got.PlanID)
	})

	t.Run("deleting a user cascades billing", func(t *testing.T) {
		erin := testpg.CreateUser(t, db, "erin")
		_, _, err := svc.Subscribe(ctx, erin, pro.ID, time.UTC)
		require.NoError(t, err)

		_, err = db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, erin)
		require.NoError(t, err)

		assert.Zero(t, count(t, db, `SELECT COUNT(*) FROM subscriptions WHERE user_id = $1`, erin))
		assert.Zero(t, count(t, db, `SELECT COUNT(*) FROM payments WHERE user_id = $1`, erin))
	})

	t.Run("inactive plans are hidden and unsubscribable", func(t *testing.T) {
		interval := int(Monthly)
		inactive := false
		hidden, err := svc.CreatePlan(ctx, PlanRequest{
			Name: "legacy", Code: "legacy", Interval: &interval, IsActive: &inactive,
		})
		require.NoError(t, err)

		plans, err := svc.ListActivePlans(ctx)
		require.NoError(t, err)
		for _, p := range plans {
			assert.NotEqual(t, hidden.ID, p.ID)
		}

		frank := testpg.CreateUser(t, db, "frank")
		_, _, err = svc.Subscribe(ctx, frank, hidden.ID, time.UTC)
		assert.ErrorIs(t, err, core.ErrNotFound)
	})
}
