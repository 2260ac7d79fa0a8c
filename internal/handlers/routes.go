package handlers

import (
	"errors"
	"fmt"

	"github.com/centralrock/route-tracker/internal/forms"
	"github.com/centralrock/route-tracker/internal/metrics"
	"github.com/centralrock/route-tracker/internal/middleware"
	"github.com/centralrock/route-tracker/internal/models"
	"github.com/centralrock/route-tracker/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func ListRoutes(c *fiber.Ctx) error {
	routes, err := routeSvc.ListActive(c.UserContext())
	if err != nil {
		return failure(c, err)
	}
	return render(c, "route_list", fiber.Map{"routes": routes})
}

func GetRoute(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	data, err := routeDetailData(c, id)
	if err != nil {
		return failure(c, err)
	}
	return render(c, "route_detail", data)
}

func routeDetailData(c *fiber.Ctx, id uuid.UUID) (fiber.Map, error) {
	p := middleware.CurrentPrincipal(c)
	var viewerMember *models.Member
	if p != nil {
		viewerMember = p.Member
	}
	detail, err := routeSvc.Detail(c.UserContext(), id, viewerMember)
	if err != nil {
		return nil, err
	}

	data := fiber.Map{
		"route":            detail.Route,
		"label":            detail.Route.Label(),
		"completions":      detail.Completions,
		"completionCount":  detail.CompletionCount,
		"userHasCompleted": detail.MyCompletion != nil,
		"userCompletion":   detail.MyCompletion,
		"canComplete":      p != nil && detail.Route.IsActive && detail.MyCompletion == nil,
	}
	if p != nil && detail.Route.IsActive {
		data["form"] = forms.NewCompletionForm()
	}
	return data, nil
}

// LogCompletion records that the current member climbed the route.
func LogCompletion(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	p, err := ensureMember(c)
	if err != nil {
		return failure(c, err)
	}

	back := "/routes/" + id.String()
	// An existing completion wins over whatever was submitted.
	done, err := completions.Exists(c.UserContext(), p.Member.ID, id)
	if err != nil {
		return failure(c, err)
	}
	if done {
		return alreadyCompleted(c, back)
	}

	var form forms.CompletionForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}
	in, err := form.Clean()
	if err != nil {
		data, derr := routeDetailData(c, id)
		if derr != nil {
			return failure(c, derr)
		}
		return renderInvalid(c, "route_detail", form, err, data)
	}

	completion, route, err := completions.Log(c.UserContext(), p.Member, id, in)
	switch {
	case errors.Is(err, services.ErrAlreadyCompleted):
		return alreadyCompleted(c, back)
	case errors.Is(err, services.ErrRouteArchived):
		flash(c, middleware.LevelError, "This route has been archived and can no longer be logged.")
		return redirect(c, back)
	case err != nil:
		return failure(c, err)
	}

	metrics.CompletionsLogged.Inc()
	WS.Broadcast(route.AreaID, EventCompletionLogged, fiber.Map{
		"routeId":          route.ID,
		"route":            route.Label(),
		"member":           p.Member.FullName(),
		"difficultyRating": completion.DifficultyRating,
	})
	flash(c, middleware.LevelSuccess, fmt.Sprintf("Completion logged for %q! Great job!", route.Label()))
	return redirect(c, back)
}

func alreadyCompleted(c *fiber.Ctx, back string) error {
	metrics.DuplicateCompletions.Inc()
	flash(c, middleware.LevelWarning, "You have already logged a completion for this route.")
	return redirect(c, back)
}
