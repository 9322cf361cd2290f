package handler

import (
	"log"
	"time"

	"workforce-portal/internal/pkg/response"
	"workforce-portal/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type CascadeHandler struct {
	uc  usecase.CascadeUsecase
	log *log.Logger
}

type cascadeRequest struct {
	Reason string `json:"reason"`
}

func NewCascadeHandler(uc usecase.CascadeUsecase, logger *log.Logger) *CascadeHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &CascadeHandler{uc: uc, log: logger}
}

func (h *CascadeHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/jobs/:job_id/close-and-deny-remaining", h.handle(usecase.CascadeDeny))
	r.Post("/jobs/:job_id/close-and-reroute-remaining", h.handle(usecase.CascadeReroute))
}

func (h *CascadeHandler) handle(mode usecase.CascadeMode) fiber.Handler {
	return func(c fiber.Ctx) error {
		actor, err := actorFrom(c)
		if err != nil {
			return err
		}
		jobID, err := uuidParam(c, "job_id")
		if err != nil {
			return err
		}

		var req cascadeRequest
		if len(c.Body()) > 0 {
			if err := c.Bind().Body(&req); err != nil {
				return badRequest(err)
			}
		}

		start := time.Now()
		res, err := h.uc.ResolveRemaining(c.Context(), jobID, mode, req.Reason, actor)
		if err != nil {
			return err
		}
		h.log.Printf("http_request method=%s path=%s status=ok duration=%s resolved=%d skipped=%d",
			c.Method(), c.Path(), time.Since(start), res.Resolved, res.Skipped)
		return response.OK(c, res)
	}
}
