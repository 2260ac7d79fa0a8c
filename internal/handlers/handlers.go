package handlers

import (
	"errors"
	"log/slog"

	"github.com/centralrock/route-tracker/internal/config"
	"github.com/centralrock/route-tracker/internal/forms"
	"github.com/centralrock/route-tracker/internal/middleware"
	"github.com/centralrock/route-tracker/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	cfg         *config.Config
	members     *services.MemberService
	areas       *services.AreaService
	routeSvc    *services.RouteService
	completions *services.CompletionService
	stats       *services.StatsService
	push        *services.PushService
)

// Init wires the services used by the handlers.
func Init(db *gorm.DB, c *config.Config, p *services.PushService) {
	cfg = c
	members = services.NewMemberService(db)
	areas = services.NewAreaService(db, c.AreaOrder)
	routeSvc = services.NewRouteService(db)
	completions = services.NewCompletionService(db)
	stats = services.NewStatsService(db)
	push = p
}

// Members is the principal resolver for the auth middleware.
func Members() *services.MemberService {
	return members
}

// render answers with the named view, its values, the pending flash
// messages and who is looking.
func render(c *fiber.Ctx, view string, data fiber.Map) error {
	return renderStatus(c, fiber.StatusOK, view, data)
}

func renderStatus(c *fiber.Ctx, status int, view string, data fiber.Map) error {
	body := fiber.Map{
		"view":     view,
		"messages": middleware.PopFlashes(c),
		"viewer":   viewer(c),
	}
	for k, v := range data {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

// renderInvalid shows a form again with its field errors.
func renderInvalid(c *fiber.Ctx, view string, form interface{}, err error, data fiber.Map) error {
	var verr *forms.ValidationError
	if !errors.As(err, &verr) {
		return failure(c, err)
	}
	if data == nil {
		data = fiber.Map{}
	}
	data["form"] = form
	data["errors"] = verr
	return renderStatus(c, fiber.StatusUnprocessableEntity, view, data)
}

func viewer(c *fiber.Ctx) fiber.Map {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		return nil
	}
	return fiber.Map{
		"username": p.User.Username,
		"name":     p.User.DisplayName(),
		"isAdmin":  p.IsAdmin(),
		"member":   p.Member,
	}
}

func redirect(c *fiber.Ctx, path string) error {
	return c.Redirect(path, fiber.StatusSeeOther)
}

func flash(c *fiber.Ctx, level, text string) {
	middleware.AddFlash(c, level, text)
}

// failure maps service errors to HTTP errors without leaking their text.
func failure(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrNotFound) {
		return fiber.ErrNotFound
	}
	slog.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	return fiber.ErrInternalServerError
}

func paramID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.ErrNotFound
	}
	return id, nil
}

// ensureMember returns the principal's member profile, creating the
// default one if the user has none yet.
func ensureMember(c *fiber.Ctx) (*middleware.Principal, error) {
	p := middleware.CurrentPrincipal(c)
	if p.Member != nil {
		return p, nil
	}
	result, err := members.EnsureMemberProfile(c.UserContext(), p.User)
	if err != nil {
		return nil, err
	}
	if result.Created {
		slog.Info("created missing member profile", "user", p.User.ID, "memberNumber", result.Member.MemberNumber)
	}
	middleware.SetMember(c, result.Member)
	return p, nil
}
