package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/actr-go/core/actor"
	"github.com/codewandler/actr-go/core/metrics"
)

// actorMetrics implements actor.ActorMetrics using Prometheus.
type actorMetrics struct {
	messageDuration       *prometheus.HistogramVec
	messagesTotal         *prometheus.CounterVec
	panicTotal            *prometheus.CounterVec
	droppedTotal          *prometheus.CounterVec
	mailboxDepth          *prometheus.GaugeVec
	actorsLive            *prometheus.GaugeVec
	schedulerInflight     prometheus.Gauge
	schedulerTaskDuration prometheus.Histogram
	schedulerTasksTotal   *prometheus.CounterVec
}

// NewActorMetrics creates a new Prometheus implementation of ActorMetrics
// and registers its collectors with reg.
func NewActorMetrics(reg prometheus.Registerer) actor.ActorMetrics {
	m := &actorMetrics{
		messageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "actr_actor_message_duration_seconds",
			Help:    "Operation run time in seconds",
			Buckets: defaultBuckets,
		}, []string{"op"}),

		messagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actr_actor_messages_total",
			Help: "Total number of operations run",
		}, []string{"op", "mode", "success"}),

		panicTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actr_actor_panics_total",
			Help: "Total number of operation panics",
		}, []string{"op"}),

		droppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actr_actor_messages_dropped_total",
			Help: "Total number of operations dropped without running",
		}, []string{"op"}),

		mailboxDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "actr_actor_mailbox_depth",
			Help: "Current mailbox queue depth",
		}, []string{"actor_id"}),

		actorsLive: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "actr_actor_live",
			Help: "Number of started actors that have not been torn down",
		}, []string{"actor_type"}),

		schedulerInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "actr_scheduler_inflight",
			Help: "Number of actor tasks currently running",
		}),

		schedulerTaskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "actr_scheduler_task_duration_seconds",
			Help:    "Actor task lifetime in seconds",
			Buckets: prometheus.ExponentialBuckets(.001, 4, 12),
		}),

		schedulerTasksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "actr_scheduler_tasks_total",
			Help: "Total number of actor tasks completed",
		}, []string{"success"}),
	}

	reg.MustRegister(
		m.messageDuration,
		m.messagesTotal,
		m.panicTotal,
		m.droppedTotal,
		m.mailboxDepth,
		m.actorsLive,
		m.schedulerInflight,
		m.schedulerTaskDuration,
		m.schedulerTasksTotal,
	)

	return m
}

func (m *actorMetrics) MessageDuration(op string) metrics.Timer {
	return newTimer(m.messageDuration.WithLabelValues(op))
}

func (m *actorMetrics) MessageProcessed(op string, mode string, success bool) {
	m.messagesTotal.WithLabelValues(op, mode, boolToStr(success)).Inc()
}

func (m *actorMetrics) MessagePanic(op string) {
	m.panicTotal.WithLabelValues(op).Inc()
}

func (m *actorMetrics) MessageDropped(op string) {
	m.droppedTotal.WithLabelValues(op).Inc()
}

func (m *actorMetrics) MailboxDepth(actorID string, depth int) {
	m.mailboxDepth.WithLabelValues(actorID).Set(float64(depth))
}

func (m *actorMetrics) MailboxClosed(actorID string) {
	m.mailboxDepth.DeleteLabelValues(actorID)
}

func (m *actorMetrics) ActorStarted(actorType string) {
	m.actorsLive.WithLabelValues(actorType).Inc()
}

func (m *actorMetrics) ActorStopped(actorType string) {
	m.actorsLive.WithLabelValues(actorType).Dec()
}

func (m *actorMetrics) SchedulerInflight(count int) {
	m.schedulerInflight.Set(float64(count))
}

func (m *actorMetrics) SchedulerTaskDuration() metrics.Timer {
	return newTimer(m.schedulerTaskDuration)
}

func (m *actorMetrics) SchedulerTaskCompleted(success bool) {
	m.schedulerTasksTotal.WithLabelValues(boolToStr(success)).Inc()
}

var _ actor.ActorMetrics = (*actorMetrics)(nil)
