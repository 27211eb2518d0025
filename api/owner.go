package api

import (
	"regexp"

	"github.com/gofiber/fiber/v2"
)

// OwnerHeader carries the id of the user a request acts for. Authentication
// happens upstream; the API trusts this header.
const OwnerHeader = "X-Owner-ID"

const ownerLocal = "owner_id"

var ownerPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

func (s *Server) requireOwner(c *fiber.Ctx) error {
	owner := c.Get(OwnerHeader)
	if owner == "" {
		return errorJSON(c, fiber.StatusUnauthorized, "missing "+OwnerHeader+" header")
	}
	if !ownerPattern.MatchString(owner) {
		return errorJSON(c, fiber.StatusBadRequest, "invalid "+OwnerHeader+" header")
	}

	c.Locals(ownerLocal, owner)
	return c.Next()
}

func ownerOf(c *fiber.Ctx) string {
	owner, _ := c.Locals(ownerLocal).(string)
	return owner
}
