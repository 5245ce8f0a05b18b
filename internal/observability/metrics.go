package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal counts handled requests by method, route and status code.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration records request latency by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "messenger_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// PanicRecoveries counts handler panics turned into 500 responses.
	PanicRecoveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_panic_recoveries_total",
		Help: "Total number of recovered handler panics",
	}, []string{"path"})

	// Registrations counts register attempts by result (created, duplicate, invalid, error).
	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_registrations_total",
		Help: "Total number of registration attempts",
	}, []string{"result"})

	// Logins counts login attempts by result (success, failure, error).
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_logins_total",
		Help: "Total number of login attempts",
	}, []string{"result"})

	// PasswordUpgrades counts legacy password hashes rehashed with bcrypt on login.
	PasswordUpgrades = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messenger_password_hash_upgrades_total",
		Help: "Total number of legacy password hashes upgraded to bcrypt",
	})

	// ChatsCreated counts personal chats actually inserted (idempotent hits are not counted).
	ChatsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "messenger_chats_created_total",
		Help: "Total number of personal chats created",
	})

	// MessagesSent counts stored messages, labelled text or other.
	MessagesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_messages_sent_total",
		Help: "Total number of messages sent",
	}, []string{"message_type"})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})
)

// RegisterOnlineUsers exposes fn as the online users gauge. Call it once per process.
func RegisterOnlineUsers(fn func() float64) prometheus.GaugeFunc {
	return promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "messenger_online_users",
		Help: "Number of users seen online within the presence TTL",
	}, fn)
}
