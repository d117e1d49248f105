package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the domain counters exposed on /metrics
type Metrics struct {
	ReportsGenerated *prometheus.CounterVec
	AssistantLatency *prometheus.HistogramVec
	Uploads          *prometheus.CounterVec
	SessionStarts    prometheus.Counter
	SessionExhausted prometheus.Counter
	EmailsSent       *prometheus.CounterVec
	LoginAttempts    *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them on reg when not nil
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ReportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simulai",
			Name:      "reports_generated_total",
			Help:      "Reports generated, by assistant and outcome.",
		}, []string{"assistant", "status"}),
		AssistantLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "simulai",
			Name:      "assistant_request_duration_seconds",
			Help:      "Latency of LLM completion calls.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"assistant"}),
		Uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simulai",
			Name:      "uploads_total",
			Help:      "Files uploaded to object storage, by kind.",
		}, []string{"kind"}),
		SessionStarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "simulai",
			Name:      "session_starts_total",
			Help:      "Avatar sessions started.",
		}),
		SessionExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "simulai",
			Name:      "session_exhausted_total",
			Help:      "Session starts or heartbeats refused because no time remained.",
		}),
		EmailsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simulai",
			Name:      "emails_sent_total",
			Help:      "Emails handed to the mailer, by template and outcome.",
		}, []string{"template", "status"}),
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "simulai",
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome.",
		}, []string{"status"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.ReportsGenerated,
			m.AssistantLatency,
			m.Uploads,
			m.SessionStarts,
			m.SessionExhausted,
			m.EmailsSent,
			m.LoginAttempts,
		)
	}
	return m
}

// NewNopMetrics returns unregistered collectors, for tests and tools
func NewNopMetrics() *Metrics {
	return NewMetrics(nil)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
