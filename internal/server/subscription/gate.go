// Package subscription annotates authenticated users with their billing state.
package subscription

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/sessionkeeper/internal/common"
	"github.com/dmitrijs2005/sessionkeeper/internal/logging"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/billing"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/sessionkeeper/internal/server/models"
)

// Gate asks the billing provider whether a user is subscribed.
//
// By default a billing failure fails the check, and with it the enclosing
// authentication. With failOpen set, the failure is logged and the user is
// reported as not subscribed instead.
type Gate struct {
	billing  billing.Client
	failOpen bool
	log      logging.Logger
	metrics  *metrics.Metrics
}

func NewGate(b billing.Client, failOpen bool, log logging.Logger, m *metrics.Metrics) *Gate {
	return &Gate{
		billing:  b,
		failOpen: failOpen,
		log:      log.With("module", "subscription"),
		metrics:  m,
	}
}

// Check sets u.SubscriptionActive and returns it. Nothing is persisted.
func (g *Gate) Check(ctx context.Context, u *models.User) (bool, error) {
	active, err := g.billing.IsSubscribed(ctx, u.ID)
	if err != nil {
		g.metrics.SubscriptionChecks.WithLabelValues("error").Inc()
		if g.failOpen {
			g.log.Warn(ctx, "billing check failed, treating user as unsubscribed", "user_id", u.ID, "error", err)
			u.SubscriptionActive = false
			return false, nil
		}
		return false, fmt.Errorf("subscription check: %w: %w", common.ErrorUnavailable, err)
	}

	if active {
		g.metrics.SubscriptionChecks.WithLabelValues("active").Inc()
	} else {
		g.metrics.SubscriptionChecks.WithLabelValues("inactive").Inc()
	}

	u.SubscriptionActive = active
	return active, nil
}
