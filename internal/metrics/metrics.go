// Package metrics exports issuance activity to Prometheus.
package metrics

import (
	"math/big"

	"github.com/avatarnftme/anme-mint/internal/events"
	"github.com/avatarnftme/anme-mint/internal/minter"
	"github.com/avatarnftme/anme-mint/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "anme"

// Collector turns minter events and rejections into Prometheus metrics.
type Collector struct {
	mints      *prometheus.CounterVec
	rejections *prometheus.CounterVec
	fee        prometheus.Gauge
	items      prometheus.Gauge
	currencies prometheus.Gauge

	currencyCount func() int
}

// New registers the collectors with reg. currencyCount reports the number of
// registered alternate currencies.
func New(reg prometheus.Registerer, currencyCount func() int) *Collector {
	f := promauto.With(reg)
	return &Collector{
		mints: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mints_total",
			Help:      "number of successful mints by payment path",
		}, []string{"path"}),
		rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mint_rejections_total",
			Help:      "number of rejected mints by failure kind",
		}, []string{"reason"}),
		fee: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_fee",
			Help:      "current issuance fee in native base units (approximate)",
		}),
		items: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "items_issued",
			Help:      "number of items issued",
		}),
		currencies: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "currencies_registered",
			Help:      "number of registered alternate currencies",
		}),
		currencyCount: currencyCount,
	}
}

// Sync sets the gauges from the current state. Called once at startup.
func (c *Collector) Sync(fee *big.Int, items uint64) {
	c.fee.Set(approx(fee))
	c.items.Set(float64(items))
	if c.currencyCount != nil {
		c.currencies.Set(float64(c.currencyCount()))
	}
}

// Handle implements events.Listener.
func (c *Collector) Handle(e events.Event) {
	switch e := e.(type) {
	case events.PaymentCollected:
		path := minter.PathCurrency
		if e.Currency == types.NativeCurrency {
			path = minter.PathNative
		}
		c.mints.WithLabelValues(path).Inc()
	case events.ItemMinted:
		c.items.Set(float64(e.ID + 1))
	case events.FeeIncremented:
		c.fee.Set(approx(e.NewFee))
	case events.CurrencyRegistered:
		if c.currencyCount != nil {
			c.currencies.Set(float64(c.currencyCount()))
		}
	}
}

// ObserveRejection implements minter.RejectionObserver.
func (c *Collector) ObserveRejection(_ string, err error) {
	c.rejections.WithLabelValues(minter.Kind(err)).Inc()
}

func approx(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
