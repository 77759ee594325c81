package application

import "github.com/prometheus/client_golang/prometheus"

const requestTypeLabel = "type"

var (
	pendingRequestsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mpurse_pending_requests",
			Help: "number of requests waiting for a user decision",
		},
	)

	connectedChannelsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mpurse_connected_channels",
			Help: "number of pages connected to the wallet",
		},
	)

	requestsCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mpurse_requests_total",
			Help: "number of requests received from pages",
		},
		[]string{requestTypeLabel},
	)
)

func init() {
	prometheus.MustRegister(
		pendingRequestsGauge, connectedChannelsGauge, requestsCounter,
	)
}
