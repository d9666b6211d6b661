package metrics

import (
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"
	"testing"

	"github.com/avatarnftme/anme-mint/internal/events"
	"github.com/avatarnftme/anme-mint/internal/payment"
	"github.com/avatarnftme/anme-mint/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var usdc = types.MustParseAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48")

func TestCollector_Events(t *testing.T) {
	reg := prometheus.NewRegistry()
	n := 0
	c := New(reg, func() int { return n })
	c.Sync(big.NewInt(50), 0)

	c.Handle(events.PaymentCollected{Amount: big.NewInt(50), Currency: types.NativeCurrency})
	c.Handle(events.ItemMinted{ID: 0})
	c.Handle(events.PaymentCollected{Amount: big.NewInt(100000), Currency: usdc})
	c.Handle(events.ItemMinted{ID: 1})
	c.Handle(events.FeeIncremented{NewFee: big.NewInt(100)})
	n = 2
	c.Handle(events.CurrencyRegistered{Currency: usdc})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.mints.WithLabelValues("native")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.mints.WithLabelValues("currency")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.items))
	assert.Equal(t, 100.0, testutil.ToFloat64(c.fee))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.currencies))
}

func TestCollector_Rejections(t *testing.T) {
	c := New(prometheus.NewRegistry(), nil)
	c.ObserveRejection("native", fmt.Errorf("%w: required 50", payment.ErrInsufficientPayment))
	c.ObserveRejection("native", payment.ErrInsufficientPayment)
	c.ObserveRejection("currency", errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.rejections.WithLabelValues("InsufficientPayment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rejections.WithLabelValues("Internal")))
}

func TestServer_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg, nil)
	c.Sync(big.NewInt(50), 3)

	s := NewServer(zerolog.Nop(), "127.0.0.1:0", reg)
	require.NoError(t, s.Start())
	defer s.Stop()

	resp, err := http.Get("http://" + s.Addr().String() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.True(t, strings.Contains(string(body), "anme_items_issued 3"), string(body))
	assert.Contains(t, string(body), "anme_current_fee 50")
}

func TestRegisterBadgerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, RegisterBadgerMetrics(reg))
	assert.Error(t, RegisterBadgerMetrics(reg), "double registration")
}
