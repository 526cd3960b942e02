package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics tracks the money-movement counters the settlement side
// exposes: payout credits, maturation sweeps, withdrawals and outbox health.
type SettlementMetrics struct {
	payoutsCredited  *prometheus.CounterVec
	maturedCents     prometheus.Counter
	withdrawals      *prometheus.CounterVec
	outboxPublished  prometheus.Counter
	outboxDeadLetter prometheus.Counter
}

// NewSettlementMetrics registers settlement counters on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	payoutsCredited := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_payouts_credited_total",
		Help: "Payout rows credited on delivery confirmation.",
	}, []string{"payment_method"})
	maturedCents := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_matured_cents_total",
		Help: "Total cents moved from pending to available by the maturation job.",
	})
	withdrawals := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_withdrawals_total",
		Help: "Withdrawal requests by outcome.",
	}, []string{"outcome"})
	outboxPublished := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_events_published_total",
		Help: "Outbox events handed to the broker.",
	})
	outboxDeadLetter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "outbox_events_dead_lettered_total",
		Help: "Outbox events moved to the dead letter table.",
	})
	reg.MustRegister(payoutsCredited, maturedCents, withdrawals, outboxPublished, outboxDeadLetter)
	return &SettlementMetrics{
		payoutsCredited:  payoutsCredited,
		maturedCents:     maturedCents,
		withdrawals:      withdrawals,
		outboxPublished:  outboxPublished,
		outboxDeadLetter: outboxDeadLetter,
	}
}

// IncPayoutCredited counts a delivery credit for the given payment method.
func (s *SettlementMetrics) IncPayoutCredited(paymentMethod string) {
	if s == nil || s.payoutsCredited == nil {
		return
	}
	s.payoutsCredited.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// AddMaturedCents accumulates the amount moved to available balance.
func (s *SettlementMetrics) AddMaturedCents(cents int64) {
	if s == nil || s.maturedCents == nil || cents <= 0 {
		return
	}
	s.maturedCents.Add(float64(cents))
}

// IncWithdrawal counts a withdrawal by outcome (accepted, rejected, completed, failed).
func (s *SettlementMetrics) IncWithdrawal(outcome string) {
	if s == nil || s.withdrawals == nil {
		return
	}
	s.withdrawals.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncOutboxPublished counts a successfully published outbox event.
func (s *SettlementMetrics) IncOutboxPublished() {
	if s == nil || s.outboxPublished == nil {
		return
	}
	s.outboxPublished.Inc()
}

// IncOutboxDeadLetter counts an event moved to the DLQ.
func (s *SettlementMetrics) IncOutboxDeadLetter() {
	if s == nil || s.outboxDeadLetter == nil {
		return
	}
	s.outboxDeadLetter.Inc()
}
