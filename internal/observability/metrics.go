package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/lexiqai/rag-agent/internal/resilience"
)

const namespace = "rag_agent"

var (
	// Turn metrics
	activeTurns = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_turns",
		Help:      "Number of chat turns in progress",
	})

	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "turns_total",
		Help:      "Total number of chat turns processed",
	}, []string{"mode", "status"})

	turnDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "turn_duration_seconds",
		Help:      "Duration of chat turns in seconds",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"mode"})

	// LLM metrics
	llmCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "llm_calls_total",
		Help:      "Total number of LLM completion calls",
	}, []string{"model", "status"})

	llmLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "llm_latency_seconds",
		Help:      "LLM completion latency in seconds",
		Buckets:   []float64{0.25, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0},
	}, []string{"model"})

	// Gateway metrics (knowledge base, web search, upload API)
	gatewayRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gateway_requests_total",
		Help:      "Total number of requests to external retrieval gateways",
	}, []string{"gateway", "status"})

	gatewayLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "gateway_latency_seconds",
		Help:      "Gateway request latency in seconds",
		Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 10.0},
	}, []string{"gateway"})

	// Tool metrics
	toolInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tool_invocations_total",
		Help:      "Total number of tool invocations",
	}, []string{"tool", "status"})

	// Upload metrics
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Total number of document uploads",
	}, []string{"status"})

	uploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "upload_bytes_total",
		Help:      "Total bytes uploaded to the knowledge base",
	})

	// Error metrics
	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "errors_total",
		Help:      "Total number of errors",
	}, []string{"type", "component"})

	// Circuit breaker metrics
	circuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_state",
		Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open)",
	}, []string{"service"})

	circuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_failures_total",
		Help:      "Total circuit breaker failures",
	}, []string{"service"})
)

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// TurnMetrics tracks metrics for a single chat turn
type TurnMetrics struct {
	mode         string
	startTime    time.Time
	llmStartTime time.Time
	mu           sync.Mutex
}

// NewTurnMetrics creates a new metrics tracker for a turn and marks it active
func NewTurnMetrics(mode string) *TurnMetrics {
	activeTurns.Inc()
	return &TurnMetrics{
		mode:      mode,
		startTime: time.Now(),
	}
}

// RecordTurnEnd records the end of the turn
func (m *TurnMetrics) RecordTurnEnd(success bool) {
	activeTurns.Dec()
	turnsTotal.WithLabelValues(m.mode, statusLabel(success)).Inc()
	turnDuration.WithLabelValues(m.mode).Observe(time.Since(m.startTime).Seconds())
}

// RecordLLMStart records the start of an LLM call
func (m *TurnMetrics) RecordLLMStart() {
	m.mu.Lock()
	m.llmStartTime = time.Now()
	m.mu.Unlock()
}

// RecordLLMEnd records the end of an LLM call
func (m *TurnMetrics) RecordLLMEnd(model string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.llmStartTime.IsZero() {
		llmLatency.WithLabelValues(model).Observe(time.Since(m.llmStartTime).Seconds())
		m.llmStartTime = time.Time{}
	}
	llmCalls.WithLabelValues(model, statusLabel(success)).Inc()
}

// RecordGatewayRequest records one request to an external gateway
func RecordGatewayRequest(gateway string, started time.Time, success bool) {
	gatewayLatency.WithLabelValues(gateway).Observe(time.Since(started).Seconds())
	gatewayRequests.WithLabelValues(gateway, statusLabel(success)).Inc()
}

// RecordToolInvocation records a tool invocation outcome
func RecordToolInvocation(tool string, success bool) {
	toolInvocations.WithLabelValues(tool, statusLabel(success)).Inc()
}

// RecordUpload records a document upload outcome
func RecordUpload(bytes int64, success bool) {
	uploadsTotal.WithLabelValues(statusLabel(success)).Inc()
	if success {
		uploadBytes.Add(float64(bytes))
	}
}

// RecordError records an error
func RecordError(errorType, component string) {
	errorsTotal.WithLabelValues(errorType, component).Inc()
}

// UpdateCircuitBreakerState updates circuit breaker state metric
func UpdateCircuitBreakerState(service string, state int) {
	circuitBreakerState.WithLabelValues(service).Set(float64(state))
}

// IncrementCircuitBreakerFailures increments circuit breaker failure counter
func IncrementCircuitBreakerFailures(service string) {
	circuitBreakerFailures.WithLabelValues(service).Inc()
}

// TrackCircuitBreaker exports the breaker's state and failures as metrics
func TrackCircuitBreaker(cb *resilience.CircuitBreaker) {
	UpdateCircuitBreakerState(cb.Name(), int(cb.GetState()))
	cb.OnResult(func(name string, state resilience.CircuitState, success bool) {
		UpdateCircuitBreakerState(name, int(state))
		if !success {
			IncrementCircuitBreakerFailures(name)
		}
	})
}
