package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Server serves /metrics for Prometheus.
type Server struct {
	server   *http.Server
	listener net.Listener
	log      zerolog.Logger
}

// NewServer creates a server exposing the metrics gathered by g.
func NewServer(log zerolog.Logger, address string, g prometheus.Gatherer) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	return &Server{
		server: &http.Server{
			Addr:              address,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("metrics listen %s: %w", s.server.Addr, err)
	}
	s.listener = ln
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("Metrics server error")
		}
	}()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("Metrics server started")
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop shuts the server down.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// RegisterBadgerMetrics exports Badger's expvar counters through reg.
func RegisterBadgerMetrics(reg prometheus.Registerer) error {
	col := collectors.NewExpvarCollector(map[string]*prometheus.Desc{
		"badger_get_num_user":     prometheus.NewDesc("anme_badger_gets_total", "number of gets", nil, nil),
		"badger_put_num_user":     prometheus.NewDesc("anme_badger_puts_total", "number of puts", nil, nil),
		"badger_write_bytes_user": prometheus.NewDesc("anme_badger_written_bytes", "cumulative number of bytes written", nil, nil),
		"badger_size_bytes_lsm":   prometheus.NewDesc("anme_badger_lsm_size_bytes", "size of the LSM in bytes", []string{"path"}, nil),
		"badger_size_bytes_vlog":  prometheus.NewDesc("anme_badger_vlog_size_bytes", "size of the value log in bytes", []string{"path"}, nil),
	})
	if err := reg.Register(col); err != nil {
		return fmt.Errorf("register badger metrics: %w", err)
	}
	return nil
}
