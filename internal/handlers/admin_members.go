package handlers

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/centralrock/route-tracker/internal/forms"
	"github.com/centralrock/route-tracker/internal/metrics"
	"github.com/centralrock/route-tracker/internal/middleware"
	"github.com/centralrock/route-tracker/internal/services"
	"github.com/gofiber/fiber/v2"
)

// ManageMembers is the searchable member management list.
func ManageMembers(c *fiber.Ctx) error {
	search := c.Query("search")
	rows, total, err := members.Search(c.UserContext(), search)
	if err != nil {
		return failure(c, err)
	}
	return render(c, "manage_members", fiber.Map{
		"members":      rows,
		"search":       search,
		"totalMembers": total,
	})
}

// DeleteMemberPage asks for confirmation and shows what will go.
func DeleteMemberPage(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	member, count, err := members.Get(c.UserContext(), id)
	if err != nil {
		return failure(c, err)
	}
	return render(c, "delete_member", fiber.Map{
		"member":          member,
		"completionCount": count,
		"confirmation":    services.DeleteConfirmation,
	})
}

func DeleteMember(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	var form forms.DeleteMemberForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}

	member, err := members.Delete(c.UserContext(), id, form.Confirm)
	if errors.Is(err, services.ErrDeletionNotConfirmed) {
		flash(c, middleware.LevelError, fmt.Sprintf("Deletion cancelled. You must type %q to confirm.", services.DeleteConfirmation))
		return redirect(c, "/admin/members/"+id.String()+"/delete")
	}
	if err != nil {
		return failure(c, err)
	}

	metrics.MembersDeleted.Inc()
	slog.Info("member deleted",
		"member", member.ID,
		"memberNumber", member.MemberNumber,
		"by", middleware.CurrentPrincipal(c).User.Username)
	flash(c, middleware.LevelSuccess, fmt.Sprintf("Member %s has been successfully deleted.", member.FullName()))
	return redirect(c, "/admin/members")
}
