package handlers

import (
	"time"

	"github.com/centralrock/route-tracker/internal/forms"
	"github.com/centralrock/route-tracker/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

// ListMembers is the admin member directory.
func ListMembers(c *fiber.Ctx) error {
	list, err := members.List(c.UserContext())
	if err != nil {
		return failure(c, err)
	}
	return render(c, "member_list", fiber.Map{"members": list})
}

// Profile shows the current member's climbing statistics.
func Profile(c *fiber.Ctx) error {
	p, err := ensureMember(c)
	if err != nil {
		return failure(c, err)
	}
	profile, err := stats.Profile(c.UserContext(), p.Member.ID, time.Now())
	if err != nil {
		return failure(c, err)
	}
	return render(c, "profile", fiber.Map{
		"member":            p.Member,
		"totalCompletions":  profile.TotalCompletions,
		"uniqueRoutes":      profile.UniqueRoutes,
		"recentCount":       profile.RecentCount,
		"gradeCounts":       profile.GradeCounts,
		"areaCounts":        profile.AreaCounts,
		"areaRanking":       profile.AreaRanking,
		"recentCompletions": profile.RecentCompletions,
	})
}

func EditProfilePage(c *fiber.Ctx) error {
	p, err := ensureMember(c)
	if err != nil {
		return failure(c, err)
	}
	return render(c, "edit_profile", fiber.Map{
		"form": forms.ProfileFormFor(p.Member, p.User),
	})
}

func EditProfile(c *fiber.Ctx) error {
	p, err := ensureMember(c)
	if err != nil {
		return failure(c, err)
	}

	var form forms.ProfileForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}
	in, err := form.Clean()
	if err != nil {
		return renderInvalid(c, "edit_profile", form, err, nil)
	}

	member, err := members.UpdateProfile(c.UserContext(), p.Member.ID, in)
	if err != nil {
		if verr := forms.FromServiceError(err); verr != nil {
			return renderInvalid(c, "edit_profile", form, verr, nil)
		}
		return failure(c, err)
	}
	middleware.SetMember(c, member)
	flash(c, middleware.LevelSuccess, "Profile updated successfully!")
	return redirect(c, "/profile")
}

// RegisterDeviceToken stores the caller's push token.
func RegisterDeviceToken(c *fiber.Ctx) error {
	p, err := ensureMember(c)
	if err != nil {
		return failure(c, err)
	}
	var form forms.DeviceTokenForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}
	if err := form.Validate(); err != nil {
		return renderInvalid(c, "device_token", form, err, nil)
	}
	if err := members.SetDeviceToken(c.UserContext(), p.Member.ID, form.Token); err != nil {
		return failure(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
