// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "faceblog_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "faceblog_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// WebSocketConnections is the gauge of open realtime connections.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "faceblog_websocket_connections",
		Help: "Number of active WebSocket connections",
	})

	// WebSocketEvents counts inbound and outbound realtime events by type.
	WebSocketEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "faceblog_websocket_events_total",
		Help: "Total WebSocket events by type and direction",
	}, []string{"event_type", "direction"})

	// WebSocketBackpressureDrops counts frames dropped for slow clients.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "faceblog_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})

	// MessagesPosted counts persisted room and direct messages.
	MessagesPosted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "faceblog_messages_posted_total",
		Help: "Total number of persisted messages by kind",
	}, []string{"kind"})

	// NotifyFailures counts publish attempts that did not reach the broker.
	NotifyFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "faceblog_notify_failures_total",
		Help: "Total number of failed realtime notifications by topic kind",
	}, []string{"topic_kind"})

	// FollowOperations counts social graph mutations by outcome.
	FollowOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "faceblog_follow_operations_total",
		Help: "Total follow and unfollow operations by outcome",
	}, []string{"operation", "outcome"})

	// EmailDeliveries counts welcome email attempts by outcome.
	EmailDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "faceblog_email_deliveries_total",
		Help: "Total outbound email attempts by outcome",
	}, []string{"outcome"})
)

const queryStartKey = "faceblog:query_start"

// RegisterGormMetrics installs GORM callbacks that observe query latency per
// operation and table.
func RegisterGormMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "unknown"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []struct {
		op       string
		register func(name string, fn func(*gorm.DB)) error
		after    func(name string, fn func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
	}
	for _, s := range steps {
		if err := s.register("metrics:before_"+s.op, before); err != nil {
			return err
		}
		if err := s.after("metrics:after_"+s.op, after(s.op)); err != nil {
			return err
		}
	}
	return nil
}
