// Package metrics exposes Prometheus collectors for the API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grameen",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "grameen",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "grameen",
		Name:      "http_requests_in_flight",
		Help:      "Requests currently being served.",
	})

	registrations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grameen",
		Name:      "registrations_total",
		Help:      "Accounts created, by role.",
	}, []string{"role"})

	logins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grameen",
		Name:      "logins_total",
		Help:      "Login attempts by outcome.",
	}, []string{"outcome"})

	requestsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "grameen",
		Name:      "service_requests_created_total",
		Help:      "Service requests submitted.",
	})

	statusChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "grameen",
		Name:      "service_request_status_changes_total",
		Help:      "Status updates by target status.",
	}, []string{"status"})

	realtimeClients = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "grameen",
		Name:      "realtime_clients",
		Help:      "Connected realtime feed subscribers.",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		httpRequests, httpDuration, httpInFlight,
		registrations, logins, requestsCreated, statusChanges, realtimeClients,
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Middleware records request count and latency labelled by the matched route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func RecordRegistration(role string) { registrations.WithLabelValues(role).Inc() }

func RecordLogin(ok bool) {
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	logins.WithLabelValues(outcome).Inc()
}

func RecordRequestCreated() { requestsCreated.Inc() }

func RecordStatusChange(status string) { statusChanges.WithLabelValues(status).Inc() }

func SetRealtimeClients(n int) { realtimeClients.Set(float64(n)) }
