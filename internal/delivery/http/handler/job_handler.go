package handler

import (
	"workforce-portal/internal/delivery/http/dto"
	"workforce-portal/internal/domain/lifecycle"
	"workforce-portal/internal/pkg/response"
	"workforce-portal/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type JobHandler struct {
	uc usecase.JobUsecase
}

type createJobRequest struct {
	Domain          string   `json:"domain"`
	Title           string   `json:"title"`
	Degree          string   `json:"degree"`
	Skills          []string `json:"skills"`
	Eligibilities   []string `json:"eligibilities"`
	YearsExperience int      `json:"years_experience"`
	Capacity        *int     `json:"capacity"`
}

type updateJobStatusRequest struct {
	Status string `json:"status"`
}

func NewJobHandler(uc usecase.JobUsecase) *JobHandler {
	return &JobHandler{uc: uc}
}

func (h *JobHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	grp := r.Group("/jobs")
	grp.Post("/", h.Create)
	grp.Get("/:job_id", h.Get)
	grp.Patch("/:job_id/status", h.UpdateStatus)
	grp.Get("/:job_id/pipeline", h.Pipeline)
}

func (h *JobHandler) Create(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	var req createJobRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}

	job, err := h.uc.Create(c.Context(), usecase.JobInput{
		Domain:          req.Domain,
		Title:           req.Title,
		Degree:          req.Degree,
		Skills:          req.Skills,
		Eligibilities:   req.Eligibilities,
		YearsExperience: req.YearsExperience,
		Capacity:        req.Capacity,
	}, actor)
	if err != nil {
		return err
	}
	return response.Created(c, dto.NewJobResponse(job))
}

func (h *JobHandler) Get(c fiber.Ctx) error {
	id, err := uuidParam(c, "job_id")
	if err != nil {
		return err
	}

	job, err := h.uc.Get(c.Context(), id)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewJobResponse(job))
}

func (h *JobHandler) UpdateStatus(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "job_id")
	if err != nil {
		return err
	}

	var req updateJobStatusRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	target, err := lifecycle.ParseJobStatus(req.Status)
	if err != nil {
		return err
	}

	job, err := h.uc.UpdateStatus(c.Context(), id, target, actor)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewJobResponse(job))
}

func (h *JobHandler) Pipeline(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "job_id")
	if err != nil {
		return err
	}

	sum, err := h.uc.PipelineSummary(c.Context(), id, actor)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewPipelineStatusResponse(sum))
}
