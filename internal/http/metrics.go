package http

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricsOnce sync.Once
	metricsErr  error

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        *prometheus.GaugeVec

	callbackOutcomes    *prometheus.CounterVec
	proxyUpstreamErrors prometheus.Counter
)

// RegisterMetrics inicializa las métricas HTTP y del relay.
// Devuelve el handler para /metrics.
func RegisterMetrics(registry prometheus.Registerer) (http.Handler, error) {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	metricsOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		httpInflight = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo por método y ruta",
		}, []string{"method", "path"})

		callbackOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_callback_outcomes_total",
			Help: "Resultados terminales del callback OAuth por tipo",
		}, []string{"outcome"})

		proxyUpstreamErrors = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "relay_proxy_upstream_errors_total",
			Help: "Fallas de upstream del proxy de auth-handler",
		})

		for _, c := range []prometheus.Collector{
			httpRequestsTotal, httpRequestDuration, httpInflight,
			callbackOutcomes, proxyUpstreamErrors,
		} {
			if err := registerCollector(registry, c); err != nil {
				metricsErr = err
				return
			}
		}
	})
	if metricsErr != nil {
		return nil, metricsErr
	}

	return promhttp.Handler(), nil
}

// WithMetrics instrumenta requests HTTP (contadores, latencia, inflight).
func WithMetrics(next http.Handler) http.Handler {
	if next == nil {
		return nil
	}
	if httpRequestsTotal == nil || httpRequestDuration == nil || httpInflight == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := strings.ToUpper(r.Method)
		pathLabel := normalizePath(r.URL.Path)

		httpInflight.WithLabelValues(method, pathLabel).Inc()
		start := time.Now()

		rec := &metricsRecorder{ResponseWriter: w}
		defer func() {
			httpInflight.WithLabelValues(method, pathLabel).Dec()
			httpRequestDuration.WithLabelValues(method, pathLabel).Observe(time.Since(start).Seconds())

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			httpRequestsTotal.WithLabelValues(method, pathLabel, strconv.Itoa(status)).Inc()
		}()

		next.ServeHTTP(rec, r)
	})
}

// RecordCallbackOutcome registra el resultado terminal de un callback.
func RecordCallbackOutcome(outcome string) {
	if callbackOutcomes != nil {
		callbackOutcomes.WithLabelValues(outcome).Inc()
	}
}

// RecordProxyUpstreamError registra una falla de upstream del proxy.
func RecordProxyUpstreamError() {
	if proxyUpstreamErrors != nil {
		proxyUpstreamErrors.Inc()
	}
}

func registerCollector(reg prometheus.Registerer, collector prometheus.Collector) error {
	if err := reg.Register(collector); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}

type metricsRecorder struct {
	http.ResponseWriter
	status int
}

func (m *metricsRecorder) WriteHeader(code int) {
	if m.status == 0 {
		m.status = code
	}
	m.ResponseWriter.WriteHeader(code)
}

func (m *metricsRecorder) Write(b []byte) (int, error) {
	if m.status == 0 {
		m.status = http.StatusOK
	}
	return m.ResponseWriter.Write(b)
}

// normalizePath colapsa segmentos dinámicos para acotar la cardinalidad.
// El proxy atiende paths arbitrarios bajo /__/auth/.
func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if strings.HasPrefix(p, "/__/auth/") {
		return "/__/auth/*"
	}
	segments := strings.Split(strings.TrimPrefix(p, "/"), "/")
	var out []string
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		if len(seg) > 48 {
			out = append(out, ":param")
			continue
		}
		out = append(out, seg)
	}
	if len(out) == 0 {
		return "/"
	}
	return "/" + strings.Join(out, "/")
}
