// Package metrics holds the prometheus collectors of the session core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sessionkeeper"

// Validation paths.
const (
	PathPreAuth = "preauth"
	PathSession = "session"
)

type Metrics struct {
	Validations        *prometheus.CounterVec
	Rotations          prometheus.Counter
	Minted             prometheus.Counter
	Reclaimed          prometheus.Counter
	ReclaimErrors      prometheus.Counter
	SubscriptionChecks *prometheus.CounterVec
}

// New registers the collectors with reg. A nil reg creates unregistered
// collectors, which is what tests want.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Validations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_validations_total",
			Help:      "Token validations by path and result.",
		}, []string{"path", "result"}),
		Rotations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_rotations_total",
			Help:      "Successful token rotations.",
		}),
		Minted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_minted_total",
			Help:      "Unbound tokens minted for login round trips.",
		}),
		Reclaimed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_reclaimed_total",
			Help:      "Stale tokens deleted by the reclamation worker.",
		}),
		ReclaimErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reclaim_errors_total",
			Help:      "Failed reclamation runs.",
		}),
		SubscriptionChecks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_checks_total",
			Help:      "Subscription checks by result (active, inactive, error).",
		}, []string{"result"}),
	}
}
