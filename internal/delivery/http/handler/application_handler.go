package handler

import (
	"strconv"
	"strings"
	"time"

	"workforce-portal/internal/delivery/http/dto"
	"workforce-portal/internal/domain/lifecycle"
	"workforce-portal/internal/pkg/response"
	"workforce-portal/internal/repository"
	"workforce-portal/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type ApplicationHandler struct {
	apps   usecase.ApplicationUsecase
	status usecase.StatusUsecase
}

type updateStatusRequest struct {
	Status         string     `json:"status"`
	ExpectedStatus string     `json:"expected_status"`
	Reason         string     `json:"reason"`
	DenialReason   string     `json:"denial_reason"`
	InterviewDate  *time.Time `json:"interview_date"`
	NextSteps      string     `json:"next_steps"`
	HRNotes        string     `json:"hr_notes"`
}

func NewApplicationHandler(apps usecase.ApplicationUsecase, status usecase.StatusUsecase) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, status: status}
}

func (h *ApplicationHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}

	r.Post("/jobs/:job_id/applications", h.Submit)
	r.Get("/jobs/:job_id/applications", h.List)

	grp := r.Group("/applications")
	grp.Get("/:id", h.Get)
	grp.Get("/:id/history", h.History)
	grp.Patch("/:id/status", h.UpdateStatus)
	grp.Delete("/:id", h.Purge)
}

func (h *ApplicationHandler) Submit(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	jobID, err := uuidParam(c, "job_id")
	if err != nil {
		return err
	}

	app, err := h.apps.Submit(c.Context(), jobID, actor)
	if err != nil {
		return err
	}
	return response.Created(c, dto.NewApplicationResponse(app))
}

func (h *ApplicationHandler) List(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	jobID, err := uuidParam(c, "job_id")
	if err != nil {
		return err
	}
	opts, err := listOptionsFromQuery(c)
	if err != nil {
		return err
	}

	items, err := h.apps.List(c.Context(), jobID, opts, actor)
	if err != nil {
		return err
	}

	res := make([]dto.ApplicationResponse, 0, len(items))
	for _, a := range items {
		res = append(res, dto.NewApplicationResponse(a))
	}
	return response.List(c, res, response.ListMeta{Limit: opts.Limit, Offset: opts.Offset, Count: len(res)})
}

func (h *ApplicationHandler) Get(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	app, err := h.apps.Get(c.Context(), id, actor)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewApplicationResponse(app))
}

func (h *ApplicationHandler) History(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	entries, err := h.apps.History(c.Context(), id, actor)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewHistoryResponse(entries))
}

func (h *ApplicationHandler) UpdateStatus(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req updateStatusRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(err)
	}
	target := lifecycle.Status(strings.ToLower(strings.TrimSpace(req.Status)))
	if target == "" {
		return invalid("status is required")
	}

	meta := lifecycle.Metadata{
		Reason:        req.Reason,
		DenialReason:  req.DenialReason,
		InterviewDate: req.InterviewDate,
		NextSteps:     req.NextSteps,
		HRNotes:       req.HRNotes,
	}
	if s := strings.TrimSpace(req.ExpectedStatus); s != "" {
		meta.ExpectedStatus = lifecycle.StatusPtr(lifecycle.Status(strings.ToLower(s)))
	}

	app, err := h.status.Transition(c.Context(), id, target, actor, meta)
	if err != nil {
		return err
	}
	return response.OK(c, dto.NewApplicationResponse(app))
}

func (h *ApplicationHandler) Purge(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.apps.Purge(c.Context(), id, actor); err != nil {
		return err
	}
	return response.OK(c, fiber.Map{"id": id})
}

// listOptionsFromQuery reads status, sort, order, limit and offset.
func listOptionsFromQuery(c fiber.Ctx) (repository.ListOptions, error) {
	var opts repository.ListOptions

	for _, raw := range strings.Split(c.Query("status"), ",") {
		if s := strings.ToLower(strings.TrimSpace(raw)); s != "" {
			opts.Statuses = append(opts.Statuses, lifecycle.Status(s))
		}
	}

	sortBy, err := repository.ParseSortField(strings.ToLower(strings.TrimSpace(c.Query("sort"))))
	if err != nil {
		return opts, err
	}
	opts.SortBy = sortBy

	switch strings.ToLower(strings.TrimSpace(c.Query("order", "asc"))) {
	case "asc":
	case "desc":
		opts.Descending = true
	default:
		return opts, invalid("order must be asc or desc")
	}

	if opts.Limit, err = intQuery(c, "limit", 50); err != nil {
		return opts, err
	}
	if opts.Offset, err = intQuery(c, "offset", 0); err != nil {
		return opts, err
	}
	if opts.Limit > 200 {
		opts.Limit = 200
	}
	return opts.Normalize(), nil
}

func intQuery(c fiber.Ctx, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, invalid(key + " must be a non-negative integer")
	}
	return v, nil
}
