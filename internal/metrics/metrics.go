// Package metrics exposes application counters for Prometheus.
package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "route_tracker"

var Registry = prometheus.NewRegistry()

var (
	Registrations = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Members registered.",
	})
	CompletionsLogged = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "completions_logged_total",
		Help:      "Route completions logged by members.",
	})
	DuplicateCompletions = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duplicate_completions_total",
		Help:      "Completion submissions rejected because the route was already completed.",
	})
	RouteStatusChanges = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "route_status_changes_total",
		Help:      "Routes activated or archived one at a time.",
	}, []string{"status"})
	BulkRouteUpdates = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bulk_route_updates_total",
		Help:      "Routes changed by bulk actions.",
	}, []string{"action"})
	AuthorizationDenials = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "authorization_denials_total",
		Help:      "Requests to admin pages by non-admins.",
	})
	MembersDeleted = promauto.With(Registry).NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "members_deleted_total",
		Help:      "Members removed through confirmed deletion.",
	})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}
