package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		usersRegisteredTotal,
		telegramUpdatesTotal,
		telegramCommandsReceivedTotal,
		updateHandleSeconds,
		broadcastMessagesTotal,
	)
}

var (
	usersRegisteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Total number of new users registered.",
		},
	)

	telegramUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_total",
			Help: "Updates received from Telegram by kind.",
		},
		[]string{"kind"}, // message, callback, ignored
	)

	telegramCommandsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_commands_received_total",
			Help: "Counts incoming commands from users.",
		},
		[]string{"command"},
	)

	updateHandleSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "update_handle_seconds",
			Help:    "Time spent handling a single update, replies included.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	broadcastMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_messages_total",
			Help: "Admin broadcast deliveries by result.",
		},
		[]string{"result"}, // sent, failed
	)
)

func IncUsersRegistered() {
	usersRegisteredTotal.Inc()
}

func IncUpdate(kind string) {
	telegramUpdatesTotal.WithLabelValues(label(kind)).Inc()
}

func IncTelegramCommand(command string) {
	telegramCommandsReceivedTotal.WithLabelValues(label(command)).Inc()
}

func ObserveUpdate(d time.Duration) {
	updateHandleSeconds.Observe(d.Seconds())
}

func IncBroadcast(result string) {
	broadcastMessagesTotal.WithLabelValues(label(result)).Inc()
}
