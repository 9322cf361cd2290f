package handler

import (
	"strings"

	"workforce-portal/internal/delivery/http/middleware"
	"workforce-portal/internal/domain/lifecycle"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

func actorFrom(c fiber.Ctx) (lifecycle.Actor, error) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return lifecycle.Actor{}, middleware.NewAppError(fiber.StatusUnauthorized, "Unauthorized", nil, nil)
	}
	return actor, nil
}

func uuidParam(c fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params(name)))
	if err != nil {
		return uuid.Nil, middleware.NewAppError(fiber.StatusBadRequest, "invalid "+name, nil, err)
	}
	return id, nil
}

func badRequest(err error) error {
	return middleware.NewAppError(fiber.StatusBadRequest, "Bad request", nil, err)
}

func invalid(msg string) error {
	return middleware.NewAppError(fiber.StatusBadRequest, msg, nil, nil)
}
