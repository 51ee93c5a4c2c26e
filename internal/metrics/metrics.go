package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all CityBeat metrics
const namespace = "citybeat"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// AppInfo exposes application version information as labels (value always 1)
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// TicketsBooked counts issued tickets by outcome (booked, sold_out, not_eligible)
var TicketsBooked = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tickets_booked_total",
		Help:      "Total ticket booking attempts by outcome",
	},
	[]string{"outcome"},
)

// TicketValidations counts scan attempts by outcome (validated, already_verified, not_found)
var TicketValidations = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ticket_validations_total",
		Help:      "Total ticket validation scans by outcome",
	},
	[]string{"outcome"},
)

// SubmissionsReviewed counts moderation decisions by outcome (approved, rejected)
var SubmissionsReviewed = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_reviewed_total",
		Help:      "Total moderation decisions by outcome",
	},
	[]string{"outcome"},
)

// UploadsSwept counts files removed by the orphan cleanup job
var UploadsSwept = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_swept_total",
		Help:      "Total orphaned upload files removed by the cleanup job",
	},
)

// Init registers runtime collectors and stamps version info.
func Init(version, commit, buildDate string) {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
