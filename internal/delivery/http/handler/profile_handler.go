package handler

import (
	"workforce-portal/internal/delivery/http/dto"
	"workforce-portal/internal/delivery/http/middleware"
	"workforce-portal/internal/domain/lifecycle"
	"workforce-portal/internal/pkg/response"
	"workforce-portal/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type ProfileHandler struct {
	uc usecase.ApplicationUsecase
}

type saveProfileRequest struct {
	Degree          string   `json:"degree"`
	YearsExperience int      `json:"years_experience"`
	Skills          []string `json:"skills"`
	Eligibilities   []string `json:"eligibilities"`
}

func NewProfileHandler(uc usecase.ApplicationUsecase) *ProfileHandler {
	return &ProfileHandler{uc: uc}
}

func (h *ProfileHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Put("/me/profile", middleware.RequireRole(lifecycle.RoleApplicant), h.Save)
}

func (h *ProfileHandler) Save(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req saveProfileRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}

	p, err := h.uc.SaveProfile(c.Context(), actor, usecase.ProfileInput{
		Degree:          req.Degree,
		YearsExperience: req.YearsExperience,
		Skills:          req.Skills,
		Eligibilities:   req.Eligibilities,
	})
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewProfileResponse(p))
}
