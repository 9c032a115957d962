package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_command_runs_total",
		Help: "Total CLI command runs",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_command_errors_total",
		Help: "Total CLI command failures",
	}, []string{"command"})
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_http_requests_total",
		Help: "HTTP requests by method and status code (0 = no response)",
	}, []string{"method", "code"})
	HTTPDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "chirp_http_request_duration_seconds",
		Help:    "HTTP request duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chirp_http_retries_total",
		Help: "Total transport retry attempts",
	}, []string{"host"})
	Reauthorizations = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chirp_reauthorizations_total",
		Help: "Authorization dances triggered by unauthorized responses",
	})
	DroppedRecords = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chirp_dropped_records_total",
		Help: "Response records that could not be normalized",
	})
	UpdatesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chirp_updates_sent_total",
		Help: "Status updates posted",
	})
)

func init() {
	prometheus.MustRegister(CommandRuns, CommandErrors, HTTPRequests, HTTPDuration,
		APIRetries, Reauthorizations, DroppedRecords, UpdatesSent)
}

// WriteTextfile dumps all registered metrics in the text exposition format,
// for pickup by a node_exporter textfile collector. Empty path is a no-op.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

func IncCommandRun(cmd string)   { CommandRuns.WithLabelValues(cmd).Inc() }
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }

// ObserveRequest records one HTTP exchange.
func ObserveRequest(method string, code int, start time.Time) {
	HTTPRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
	HTTPDuration.Observe(time.Since(start).Seconds())
}

// IncAPIRetry increments the retry counter for a host.
func IncAPIRetry(host string) { APIRetries.WithLabelValues(host).Inc() }
