package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/centralrock/route-tracker/internal/forms"
	"github.com/centralrock/route-tracker/internal/metrics"
	"github.com/centralrock/route-tracker/internal/middleware"
	"github.com/centralrock/route-tracker/internal/models"
	"github.com/centralrock/route-tracker/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const pushTimeout = 30 * time.Second

func AdminDashboard(c *fiber.Ctx) error {
	dash, err := stats.Dashboard(c.UserContext())
	if err != nil {
		return failure(c, err)
	}
	return render(c, "admin_dashboard", fiber.Map{
		"totalRoutes":       dash.TotalRoutes,
		"activeRoutes":      dash.ActiveRoutes,
		"archivedRoutes":    dash.ArchivedRoutes,
		"recentCompletions": dash.RecentCompletions,
	})
}

// routeFormData carries the choice sets every route form needs.
func routeFormData(c *fiber.Ctx, currentSetter string) (fiber.Map, []string, error) {
	choices, err := routeSvc.SetterChoices(c.UserContext(), currentSetter)
	if err != nil {
		return nil, nil, err
	}
	all, err := areas.All(c.UserContext())
	if err != nil {
		return nil, nil, err
	}
	return fiber.Map{
		"setterChoices": choices,
		"areas":         all,
		"grades":        models.Grades,
		"colors":        models.Colors,
	}, choices, nil
}

func AddRoutePage(c *fiber.Ctx) error {
	data, _, err := routeFormData(c, "")
	if err != nil {
		return failure(c, err)
	}
	data["form"] = forms.NewRouteForm()
	return render(c, "add_route", data)
}

// AddRoute sets a new route and announces it.
func AddRoute(c *fiber.Ctx) error {
	var form forms.RouteForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}
	data, choices, err := routeFormData(c, "")
	if err != nil {
		return failure(c, err)
	}
	in, err := form.Clean(choices)
	if err != nil {
		return renderInvalid(c, "add_route", form, err, data)
	}

	route, err := routeSvc.Create(c.UserContext(), in)
	if err != nil {
		if verr := forms.FromServiceError(err); verr != nil {
			return renderInvalid(c, "add_route", form, verr, data)
		}
		return failure(c, err)
	}

	WS.Broadcast(route.AreaID, EventRouteSet, route)
	go func(r *models.Route) {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		push.AnnounceRoute(ctx, r)
	}(route)

	flash(c, middleware.LevelSuccess, fmt.Sprintf("Route %q added successfully!", route.Label()))
	return redirect(c, "/admin-dashboard")
}

func EditRoutePage(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	route, err := routeSvc.Get(c.UserContext(), id)
	if err != nil {
		return failure(c, err)
	}
	data, _, err := routeFormData(c, route.SetterName)
	if err != nil {
		return failure(c, err)
	}
	data["route"] = route
	data["form"] = forms.RouteFormFor(route)
	return render(c, "edit_route", data)
}

func EditRoute(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	route, err := routeSvc.Get(c.UserContext(), id)
	if err != nil {
		return failure(c, err)
	}

	var form forms.RouteForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}
	data, choices, err := routeFormData(c, route.SetterName)
	if err != nil {
		return failure(c, err)
	}
	data["route"] = route
	in, err := form.Clean(choices)
	if err != nil {
		return renderInvalid(c, "edit_route", form, err, data)
	}

	updated, err := routeSvc.Update(c.UserContext(), id, in)
	if err != nil {
		if verr := forms.FromServiceError(err); verr != nil {
			return renderInvalid(c, "edit_route", form, verr, data)
		}
		return failure(c, err)
	}
	flash(c, middleware.LevelSuccess, fmt.Sprintf("Route %q updated.", updated.Label()))
	return redirect(c, "/admin/manage-routes")
}

// ManageRoutes lists routes filtered by status.
func ManageRoutes(c *fiber.Ctx) error {
	filter := c.Query("filter", services.FilterAll)
	routes, err := routeSvc.Manage(c.UserContext(), filter)
	if err != nil {
		return failure(c, err)
	}
	all, err := areas.All(c.UserContext())
	if err != nil {
		return failure(c, err)
	}
	return render(c, "manage_routes", fiber.Map{
		"routes":        routes,
		"currentFilter": filter,
		"areas":         all,
	})
}

// SetRouteStatus puts a route in the state the form asks for. An unticked
// is_active archives the route.
func SetRouteStatus(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var form forms.StatusForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}

	route, err := routeSvc.SetStatus(c.UserContext(), id, form.Active())
	if err != nil {
		return failure(c, err)
	}

	state := "archived"
	if route.IsActive {
		state = "activated"
	}
	metrics.RouteStatusChanges.WithLabelValues(state).Inc()
	WS.Broadcast(route.AreaID, EventRouteStatusChanged, fiber.Map{
		"routeId":  route.ID,
		"isActive": route.IsActive,
	})
	flash(c, middleware.LevelSuccess, fmt.Sprintf("Route %q has been %s.", route.Label(), state))
	return redirect(c, "/admin/manage-routes")
}

// BulkRoutes archives or restores many routes at once.
func BulkRoutes(c *fiber.Ctx) error {
	var form forms.BulkForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}
	ids, areaID, err := form.Clean()
	if err != nil {
		flash(c, middleware.LevelError, "Select routes or an area for the bulk action.")
		return redirect(c, "/admin/manage-routes")
	}

	ctx := c.UserContext()
	var (
		count   int64
		message string
	)
	switch form.Action {
	case forms.BulkArchive:
		count, err = routeSvc.BulkSetActive(ctx, ids, false)
		message = "Archived %d route(s)."
	case forms.BulkRestore:
		count, err = routeSvc.BulkSetActive(ctx, ids, true)
		message = "Restored %d route(s)."
	case forms.BulkArchiveArea:
		count, err = routeSvc.ArchiveArea(ctx, areaID)
		message = "Archived %d route(s) in the area."
	}
	if err != nil {
		return failure(c, err)
	}

	metrics.BulkRouteUpdates.WithLabelValues(form.Action).Add(float64(count))
	if form.Action == forms.BulkArchiveArea && count > 0 {
		WS.Broadcast(areaID, EventRoutesBulkUpdated, fiber.Map{"action": form.Action, "count": count})
	}
	flash(c, middleware.LevelSuccess, fmt.Sprintf(message, count))
	return redirect(c, "/admin/manage-routes")
}

// AdminCompletions browses completions with filters and pagination.
func AdminCompletions(c *fiber.Ctx) error {
	filter := services.CompletionFilter{
		RouteID:   services.ParseID(c.Query("route")),
		MemberID:  services.ParseID(c.Query("member")),
		AreaID:    services.ParseID(c.Query("area")),
		DateRange: c.Query("date_range", fmt.Sprint(services.DefaultDateRangeDays)),
		Page:      c.QueryInt("page", 1),
	}
	page, err := completions.Browse(c.UserContext(), filter, time.Now())
	if err != nil {
		return failure(c, err)
	}
	return render(c, "admin_completions", fiber.Map{
		"completions":      page.Completions,
		"page":             page.Page,
		"pageSize":         page.PageSize,
		"totalPages":       page.TotalPages,
		"filteredCount":    page.FilteredCount,
		"totalCompletions": page.TotalCompletions,
		"routes":           page.RouteOptions,
		"members":          page.MemberOptions,
		"areas":            page.AreaOptions,
		"filters": fiber.Map{
			"route":      idString(filter.RouteID),
			"member":     idString(filter.MemberID),
			"area":       idString(filter.AreaID),
			"date_range": filter.DateRange,
		},
	})
}

func idString(id *uuid.UUID) string {
	if id == nil {
		return ""
	}
	return id.String()
}
