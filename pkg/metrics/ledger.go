package metrics

import "github.com/prometheus/client_golang/prometheus"

// LedgerMetrics counts inventory and order outcomes.
type LedgerMetrics struct {
	ordersPlaced      prometheus.Counter
	ordersCancelled   prometheus.Counter
	insufficientStock prometheus.Counter
	productsAdded     *prometheus.CounterVec
	productsSkipped   *prometheus.CounterVec
	productsRemoved   prometheus.Counter
}

// NewLedgerMetrics registers the ledger counters on reg. A nil reg yields a
// no-op instance.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	m := &LedgerMetrics{
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_placed_total",
			Help: "Orders committed with status placed.",
		}),
		ordersCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_cancelled_total",
			Help: "Orders moved from placed to cancelled.",
		}),
		insufficientStock: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_insufficient_stock_total",
			Help: "Order placements rejected because stock was too low.",
		}),
		productsAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_products_added_total",
			Help: "Catalog items inserted, by category.",
		}, []string{"category"}),
		productsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_products_skipped_total",
			Help: "Catalog items skipped as duplicates, by category.",
		}, []string{"category"}),
		productsRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_products_removed_total",
			Help: "Catalog items removed.",
		}),
	}
	reg.MustRegister(m.ordersPlaced, m.ordersCancelled, m.insufficientStock, m.productsAdded, m.productsSkipped, m.productsRemoved)
	return m
}

func (m *LedgerMetrics) OrderPlaced() {
	if m == nil || m.ordersPlaced == nil {
		return
	}
	m.ordersPlaced.Inc()
}

func (m *LedgerMetrics) OrderCancelled() {
	if m == nil || m.ordersCancelled == nil {
		return
	}
	m.ordersCancelled.Inc()
}

func (m *LedgerMetrics) InsufficientStock() {
	if m == nil || m.insufficientStock == nil {
		return
	}
	m.insufficientStock.Inc()
}

func (m *LedgerMetrics) ProductAdded(category string) {
	if m == nil || m.productsAdded == nil {
		return
	}
	m.productsAdded.WithLabelValues(normalizeLabel(category)).Inc()
}

func (m *LedgerMetrics) ProductSkipped(category string) {
	if m == nil || m.productsSkipped == nil {
		return
	}
	m.productsSkipped.WithLabelValues(normalizeLabel(category)).Inc()
}

func (m *LedgerMetrics) ProductRemoved() {
	if m == nil || m.productsRemoved == nil {
		return
	}
	m.productsRemoved.Inc()
}
