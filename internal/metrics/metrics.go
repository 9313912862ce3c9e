// Package metrics registra os contadores Prometheus do serviço de orçamentos.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "odonto"

var defaultDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

type Metrics struct {
	registry *prometheus.Registry

	httpDuration   *prometheus.HistogramVec
	budgetsSaved   *prometheus.CounterVec
	pdfExports     *prometheus.CounterVec
	imageLoads     *prometheus.CounterVec
	signatureLinks *prometheus.CounterVec
	budgetsSigned  prometheus.Counter
	openSessions   prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	m.registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	m.registry.MustRegister(prometheus.NewGoCollector())

	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duração das requisições HTTP.",
		Buckets:   defaultDurationBuckets,
	}, []string{"method", "route", "status"})

	m.budgetsSaved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "budgets_saved_total",
		Help:      "Orçamentos persistidos, por status resultante.",
	}, []string{"status"})

	m.pdfExports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pdf_exports_total",
		Help:      "PDFs gerados, por tipo de documento e assinatura.",
	}, []string{"kind", "signed"})

	m.imageLoads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "image_loads_total",
		Help:      "Carregamento de imagens para PDF, por estratégia e resultado.",
	}, []string{"strategy", "result"})

	m.signatureLinks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signature_links_total",
		Help:      "Links de assinatura gerados, por resultado do envio.",
	}, []string{"result"})

	m.budgetsSigned = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "budgets_signed_total",
		Help:      "Orçamentos assinados pelo paciente.",
	})

	m.openSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "wizard_sessions_open",
		Help:      "Sessões de edição de orçamento abertas.",
	})

	m.registry.MustRegister(m.httpDuration, m.budgetsSaved, m.pdfExports, m.imageLoads,
		m.signatureLinks, m.budgetsSigned, m.openSessions)
	return m
}

// Handler expõe o registry em /metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Os métodos abaixo aceitam receiver nil para que os pacotes funcionem sem métricas (testes, CLI).

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) BudgetSaved(status string) {
	if m == nil {
		return
	}
	m.budgetsSaved.WithLabelValues(status).Inc()
}

func (m *Metrics) PDFExported(kind string, signed bool) {
	if m == nil {
		return
	}
	m.pdfExports.WithLabelValues(kind, strconv.FormatBool(signed)).Inc()
}

func (m *Metrics) ImageLoad(strategy, result string) {
	if m == nil {
		return
	}
	m.imageLoads.WithLabelValues(strategy, result).Inc()
}

func (m *Metrics) SignatureLink(result string) {
	if m == nil {
		return
	}
	m.signatureLinks.WithLabelValues(result).Inc()
}

func (m *Metrics) BudgetSigned() {
	if m == nil {
		return
	}
	m.budgetsSigned.Inc()
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.openSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.openSessions.Dec()
}
