package v1

import (
	"workforce-portal/internal/delivery/http/handler"
	"workforce-portal/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
)

type Handlers struct {
	Transitions  *handler.TransitionsHandler
	Applications *handler.ApplicationHandler
	Jobs         *handler.JobHandler
	Ranking      *handler.RankingHandler
	Cascade      *handler.CascadeHandler
	Profile      *handler.ProfileHandler
}

// Register mounts every v1 route behind bearer auth. Role checks beyond
// "authenticated" live in the usecases.
func Register(r fiber.Router, auth *middleware.AuthMiddleware, h Handlers) {
	if r == nil {
		return
	}

	protected := r
	if auth != nil {
		protected = r.Group("", auth.Middleware())
	}

	if h.Transitions != nil {
		h.Transitions.RegisterRoutes(protected)
	}
	RegisterJobs(protected, h)
	RegisterApplicants(protected, h)
}
