package v1

import (
	"github.com/gofiber/fiber/v3"
)

// RegisterJobs mounts the staff-facing posting, ranking and cascade routes.
func RegisterJobs(r fiber.Router, h Handlers) {
	if r == nil {
		return
	}

	if h.Jobs != nil {
		h.Jobs.RegisterRoutes(r)
	}
	if h.Ranking != nil {
		h.Ranking.RegisterRoutes(r)
	}
	if h.Cascade != nil {
		h.Cascade.RegisterRoutes(r)
	}
}
