package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// LedgerMetrics counts wallet and order activity. A nil receiver is a no-op.
type LedgerMetrics struct {
	walletTransactions *prometheus.CounterVec
	walletAmount       *prometheus.CounterVec
	ordersPlaced       *prometheus.CounterVec
	orderRejections    *prometheus.CounterVec
	walletDrift        prometheus.Gauge
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	m := &LedgerMetrics{
		walletTransactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wallet_transactions_total",
			Help:      "Wallet ledger entries recorded, by type.",
		}, []string{"type"}),
		walletAmount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "wallet_amount_total",
			Help:      "Sum of wallet ledger amounts recorded, by type.",
		}, []string{"type"}),
		ordersPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders placed, by payment method.",
		}, []string{"payment_method"}),
		orderRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_rejections_total",
			Help:      "Checkouts rejected before persistence, by reason.",
		}, []string{"reason"}),
		walletDrift: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "wallet_balance_drift_profiles",
			Help:      "Profiles whose cached balance differs from the ledger sum at the last reconcile.",
		}),
	}
	reg.MustRegister(m.walletTransactions, m.walletAmount, m.ordersPlaced, m.orderRejections, m.walletDrift)
	return m
}

// RecordWalletTransaction counts one ledger entry.
func (m *LedgerMetrics) RecordWalletTransaction(txType string, amount decimal.Decimal) {
	if m == nil || m.walletTransactions == nil {
		return
	}
	label := normalizeLabel(txType)
	m.walletTransactions.WithLabelValues(label).Inc()
	m.walletAmount.WithLabelValues(label).Add(amount.InexactFloat64())
}

// OrderPlaced counts a persisted order.
func (m *LedgerMetrics) OrderPlaced(paymentMethod string) {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// OrderRejected counts a checkout rejected before any write.
func (m *LedgerMetrics) OrderRejected(reason string) {
	if m == nil || m.orderRejections == nil {
		return
	}
	m.orderRejections.WithLabelValues(normalizeLabel(reason)).Inc()
}

// SetWalletDrift records how many profiles drifted in the last reconcile.
func (m *LedgerMetrics) SetWalletDrift(profiles int) {
	if m == nil || m.walletDrift == nil {
		return
	}
	m.walletDrift.Set(float64(profiles))
}
