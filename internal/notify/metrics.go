package notify

import "github.com/prometheus/client_golang/prometheus"

var mailTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "mail_messages_total", Help: "Mail messages by kind and outcome"},
	[]string{"kind", "result"}, // result: queued / dropped / sent / failed
)

func init() { prometheus.MustRegister(mailTotal) }
