package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// BattleNetRequests counts upstream requests by endpoint and HTTP status.
// Transport failures are recorded with status "error".
var BattleNetRequests = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "nephalem_battlenet_requests_total",
	},
	[]string{"endpoint", "status"},
)

var BattleNetRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "nephalem_battlenet_request_duration_ms",
		Buckets: []float64{25, 50, 100, 150, 200, 300, 500, 750, 1000, 2000, 5000, 10000},
	},
	[]string{"endpoint"},
)

var TrackerRefreshes = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "nephalem_tracker_refresh_total",
	},
	[]string{"result"},
)

var TrackerEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "nephalem_tracker_events_total",
	},
	[]string{"kind"},
)

var registerOnce sync.Once

// Register adds all collectors to the default registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(BattleNetRequests)
		prometheus.MustRegister(BattleNetRequestDuration)
		prometheus.MustRegister(TrackerRefreshes)
		prometheus.MustRegister(TrackerEvents)
	})
}

// ObserveRequest records one upstream request. A status of 0 means the request never got a response.
func ObserveRequest(endpoint string, status int, elapsed time.Duration) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	BattleNetRequests.WithLabelValues(endpoint, label).Inc()
	BattleNetRequestDuration.WithLabelValues(endpoint).Observe(float64(elapsed.Milliseconds()))
}

// Serve exposes /metrics on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
