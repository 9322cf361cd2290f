package handler

import (
	"workforce-portal/internal/delivery/http/dto"
	"workforce-portal/internal/domain/lifecycle"
	"workforce-portal/internal/pkg/response"
	"workforce-portal/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type TransitionsHandler struct {
	uc usecase.StatusUsecase
}

func NewTransitionsHandler(uc usecase.StatusUsecase) *TransitionsHandler {
	return &TransitionsHandler{uc: uc}
}

func (h *TransitionsHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/transitions", h.List)
}

// List answers which statuses are reachable in one step, so clients render
// the same choices the server accepts.
func (h *TransitionsHandler) List(c fiber.Ctx) error {
	domain, err := lifecycle.ParseDomain(c.Query("domain", string(lifecycle.DomainJob)))
	if err != nil {
		return err
	}
	status, err := lifecycle.ParseStatus(domain, c.Query("status"))
	if err != nil {
		return err
	}

	next := h.uc.ValidTransitions(domain, status)
	names := make([]string, 0, len(next))
	for _, s := range next {
		names = append(names, string(s))
	}
	return response.OK(c, dto.TransitionsResponse{Domain: string(domain), Status: string(status), Next: names})
}
