package handlers

import (
	"fmt"
	"log/slog"

	"github.com/centralrock/route-tracker/internal/forms"
	"github.com/centralrock/route-tracker/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

// Home shows gym totals and the latest completions.
func Home(c *fiber.Ctx) error {
	home, err := stats.Home(c.UserContext())
	if err != nil {
		return failure(c, err)
	}
	return render(c, "home", fiber.Map{
		"totalAreas":        home.TotalAreas,
		"activeRoutes":      home.ActiveRoutes,
		"totalMembers":      home.TotalMembers,
		"recentCompletions": home.RecentCompletions,
	})
}

func ListAreas(c *fiber.Ctx) error {
	list, err := areas.List(c.UserContext())
	if err != nil {
		return failure(c, err)
	}
	return render(c, "area_list", fiber.Map{"areas": list})
}

func GetArea(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	detail, err := areas.Detail(c.UserContext(), id)
	if err != nil {
		return failure(c, err)
	}
	return render(c, "area_detail", fiber.Map{
		"area":             detail.Area,
		"routes":           detail.Routes,
		"totalCompletions": detail.TotalCompletions,
	})
}

// CreateArea adds a climbing area (admin only)
func CreateArea(c *fiber.Ctx) error {
	var form forms.AreaForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}
	if err := form.Validate(); err != nil {
		return renderInvalid(c, "area_form", form, err, nil)
	}

	area, err := areas.Create(c.UserContext(), form.Name, form.Description)
	if err != nil {
		return failure(c, err)
	}
	flash(c, middleware.LevelSuccess, fmt.Sprintf("Area %q added.", area.Name))
	return redirect(c, "/areas/"+area.ID.String())
}

// DeleteArea removes an area with all its routes and their completions (admin only)
func DeleteArea(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	detail, err := areas.Detail(c.UserContext(), id)
	if err != nil {
		return failure(c, err)
	}
	if err := areas.Delete(c.UserContext(), id); err != nil {
		return failure(c, err)
	}
	slog.Info("area deleted", "area", id, "by", middleware.CurrentPrincipal(c).User.Username)
	flash(c, middleware.LevelSuccess, fmt.Sprintf("Area %q and its routes have been deleted.", detail.Area.Name))
	return redirect(c, "/areas")
}
