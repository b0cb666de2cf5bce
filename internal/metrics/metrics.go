package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector records gateway calls and token refreshes.
// It satisfies apiclient.Observer and auth.RefreshObserver.
type Collector struct {
	apiRequests  *prometheus.CounterVec
	apiDuration  *prometheus.HistogramVec
	refreshTotal *prometheus.CounterVec
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "api_requests_total",
			Help:      "Requests sent to the API gateway by method and status code (0 = no response).",
		}, []string{"method", "code"}),
		apiDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "storefront",
			Name:      "api_request_duration_seconds",
			Help:      "Latency of API gateway requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		refreshTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "token_refreshes_total",
			Help:      "Access token refresh exchanges by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(c.apiRequests, c.apiDuration, c.refreshTotal)
	return c
}

// ObserveRequest records one gateway call
func (c *Collector) ObserveRequest(method string, status int, d time.Duration) {
	c.apiRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.apiDuration.WithLabelValues(method).Observe(d.Seconds())
}

// ObserveRefresh records one refresh exchange
func (c *Collector) ObserveRefresh(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	c.refreshTotal.WithLabelValues(outcome).Inc()
}
