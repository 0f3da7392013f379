// Package metrics exports encounter counters to Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ShaySapozhnikov/Lift-off-ctf-sub000/internal/anomaly"
)

// Metrics records session milestones. It satisfies encounter.Observer.
type Metrics struct {
	registry *prometheus.Registry

	sessionsStarted prometheus.Counter
	activeSessions  prometheus.Gauge
	choices         *prometheus.CounterVec
	choicePoints    prometheus.Histogram
	finalsReached   *prometheus.CounterVec
	endings         *prometheus.CounterVec
	rewards         *prometheus.CounterVec
}

// New registers the encounter metrics and the Go runtime collectors on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		sessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "anomaly_sessions_started_total",
			Help: "Total number of encounter playthroughs started, restarts included.",
		}),
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "anomaly_sessions_active",
			Help: "Number of sessions currently held by the hub.",
		}),
		choices: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "anomaly_choices_total",
			Help: "Total number of accepted choices by group and mood.",
		}, []string{"group", "mood"}),
		choicePoints: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "anomaly_choice_points",
			Help:    "Points awarded per accepted choice.",
			Buckets: []float64{1, 2, 3, 5},
		}),
		finalsReached: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "anomaly_finals_reached_total",
			Help: "Total number of conversations that reached the final phase, by turn count.",
		}, []string{"turns"}),
		endings: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "anomaly_endings_total",
			Help: "Total number of endings selected by ending and outcome.",
		}, []string{"ending", "outcome"}),
		rewards: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "anomaly_reward_fetches_total",
			Help: "Total number of reward fetches by outcome and status.",
		}, []string{"outcome", "status"}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// SessionOpened and SessionClosed track the hub population.
func (m *Metrics) SessionOpened() { m.activeSessions.Inc() }
func (m *Metrics) SessionClosed() { m.activeSessions.Dec() }

func (m *Metrics) SessionStarted() { m.sessionsStarted.Inc() }

func (m *Metrics) ChoiceAccepted(choice anomaly.Choice, points int) {
	m.choices.WithLabelValues(string(choice.Group), string(choice.Mood)).Inc()
	m.choicePoints.Observe(float64(points))
}

func (m *Metrics) FinalReached(progress anomaly.Progress) {
	m.finalsReached.WithLabelValues(turnLabel(progress.Turns)).Inc()
}

func (m *Metrics) EndingSelected(ending anomaly.EndingKey, outcome anomaly.Outcome) {
	m.endings.WithLabelValues(string(ending), string(outcome)).Inc()
}

func (m *Metrics) RewardFetched(outcome anomaly.Outcome, issued bool, err error) {
	status := "withheld"
	switch {
	case err != nil:
		status = "error"
	case issued:
		status = "issued"
	}
	m.rewards.WithLabelValues(string(outcome), status).Inc()
}

// turnLabel keeps the label set small.
func turnLabel(turns int) string {
	switch {
	case turns <= 1:
		return "1"
	case turns == 2:
		return "2"
	case turns == 3:
		return "3"
	}
	return "4+"
}
