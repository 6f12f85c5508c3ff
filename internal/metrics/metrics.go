// metrics: Prometheus-метрики клиента API и гарда сессии.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Исходы refresh для clinic_client_refresh_total.
const (
	RefreshOK     = "ok"
	RefreshFailed = "failed"
)

// Решения гарда для clinic_guard_decisions_total.
const (
	GuardPublic   = "public"
	GuardNoCookie = "no_cookie"
	GuardAllowed  = "allowed"
	GuardRejected = "rejected"
	GuardUpstream = "upstream_error"
)

type Metrics struct {
	Requests       *prometheus.CounterVec
	Refreshes      *prometheus.CounterVec
	Retries        prometheus.Counter
	GuardDecisions *prometheus.CounterVec
}

// New регистрирует метрики в reg; nil означает prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_client_requests_total",
			Help: "Outgoing API requests by method and response code.",
		}, []string{"method", "code"}),
		Refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_client_refresh_total",
			Help: "Access token refresh attempts by outcome.",
		}, []string{"outcome"}),
		Retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clinic_client_retries_total",
			Help: "Requests re-issued after a successful refresh.",
		}),
		GuardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clinic_guard_decisions_total",
			Help: "Session guard decisions per navigation.",
		}, []string{"decision"}),
	}

	reg.MustRegister(m.Requests, m.Refreshes, m.Retries, m.GuardDecisions)

	return m
}

// Nop: метрики, не привязанные ни к какому реестру.
func Nop() *Metrics {
	return New(prometheus.NewRegistry())
}

// ObserveRequest: code "error" для запросов без ответа.
func (m *Metrics) ObserveRequest(method string, status int) {
	if m == nil {
		return
	}

	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}

	m.Requests.WithLabelValues(method, code).Inc()
}

func (m *Metrics) ObserveRefresh(ok bool) {
	if m == nil {
		return
	}

	outcome := RefreshFailed
	if ok {
		outcome = RefreshOK
	}

	m.Refreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}

	m.Retries.Inc()
}

func (m *Metrics) ObserveGuard(decision string) {
	if m == nil {
		return
	}

	m.GuardDecisions.WithLabelValues(decision).Inc()
}
