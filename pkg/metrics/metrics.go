package metrics

import (
	"net/http"

	"fixgateway/pkg/collector"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func ListenAndServeMetrics(addr string) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collector.IncomingAppCounter,
		collector.IncomingAdminCounter,
		collector.OutgoingOrderCounter,
		collector.ExecutionReportCounter,
		collector.CancelRejectCounter,
		collector.MarketDataTickCounter,
		collector.DroppedMessageCounter,
		collector.OutgoingKafkaCounter,
		collector.SessionErrorCounter,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ok"))
	}))

	return http.ListenAndServe(addr, mux)
}
