package v1

import (
	"github.com/gofiber/fiber/v3"
)

func RegisterApplicants(r fiber.Router, h Handlers) {
	if r == nil {
		return
	}

	if h.Applications != nil {
		h.Applications.RegisterRoutes(r)
	}
	if h.Profile != nil {
		h.Profile.RegisterRoutes(r)
	}
}
