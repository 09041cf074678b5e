package metrics

import "github.com/prometheus/client_golang/prometheus"

// Checkout outcomes.
const (
	CheckoutCreated = "created"
	CheckoutReused  = "reused"
	CheckoutAborted = "aborted"
	CheckoutEmpty   = "empty"
	CheckoutFailed  = "failed"
)

// CheckoutMetrics counts checkout attempts and cart lock decisions.
type CheckoutMetrics struct {
	sessions *prometheus.CounterVec
	lock     *prometheus.CounterVec
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "buttery_checkout_sessions_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	lock := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "buttery_cart_lock_decisions_total",
		Help: "Cart lock guard decisions by session state.",
	}, []string{"decision"})
	reg.MustRegister(sessions, lock)
	return &CheckoutMetrics{sessions: sessions, lock: lock}
}

func (m *CheckoutMetrics) IncSession(outcome string) {
	if m == nil || m.sessions == nil {
		return
	}
	m.sessions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *CheckoutMetrics) IncLockDecision(decision string) {
	if m == nil || m.lock == nil {
		return
	}
	m.lock.WithLabelValues(normalizeLabel(decision)).Inc()
}
