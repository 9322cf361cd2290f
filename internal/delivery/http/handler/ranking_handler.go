package handler

import (
	"log"
	"time"

	"workforce-portal/internal/pkg/response"
	"workforce-portal/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type RankingHandler struct {
	uc  usecase.RankingUsecase
	log *log.Logger
}

func NewRankingHandler(uc usecase.RankingUsecase, logger *log.Logger) *RankingHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &RankingHandler{uc: uc, log: logger}
}

func (h *RankingHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/jobs/:job_id/rank", h.Rank)
	r.Get("/jobs/:job_id/ranking", h.Report)
}

func (h *RankingHandler) Rank(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	jobID, err := uuidParam(c, "job_id")
	if err != nil {
		return err
	}

	start := time.Now()
	pool, err := h.uc.Rank(c.Context(), jobID, actor)
	if err != nil {
		h.log.Printf("http_request method=%s path=%s status=error duration=%s err=%v", c.Method(), c.Path(), time.Since(start), err)
		return err
	}
	h.log.Printf("http_request method=%s path=%s status=ok duration=%s candidates=%d", c.Method(), c.Path(), time.Since(start), len(pool.Candidates))
	return response.OK(c, pool)
}

func (h *RankingHandler) Report(c fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	jobID, err := uuidParam(c, "job_id")
	if err != nil {
		return err
	}

	pool, err := h.uc.Report(c.Context(), jobID, actor)
	if err != nil {
		return err
	}
	return response.OK(c, pool)
}
