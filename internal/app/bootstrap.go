package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"workforce-portal/internal/config"
	"workforce-portal/internal/delivery/http/handler"
	"workforce-portal/internal/delivery/http/middleware"
	"workforce-portal/internal/delivery/http/routes"
	v1 "workforce-portal/internal/delivery/http/routes/v1"
	"workforce-portal/internal/pkg/jwt"
	"workforce-portal/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// New wires the HTTP surface on top of an already built container.
func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f, c.Logger)
	registerRoutes(f, c)

	return &App{Fiber: f, Container: c}
}

func Bootstrap(cfg config.Config) (*App, func() error, error) {
	logger := log.Default()

	c, err := NewContainer(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	go c.Hub.Run(ctx)

	app := New(c)
	cleanup := func() error {
		cancel()
		return c.Close()
	}
	return app, cleanup, nil
}

func registerGlobalMiddleware(app *fiber.App, logger *log.Logger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(logger).Middleware())
	app.Use(middleware.NewErrorMiddleware(logger).Middleware())
}

func registerRoutes(app *fiber.App, c *Container) {
	if app == nil || c == nil {
		return
	}

	checks := map[string]handler.Pinger{}
	if c.SQLite != nil {
		checks["database"] = c.SQLite
	}
	if c.DB != nil {
		checks["database"] = c.DB
	}
	if c.Cache != nil && c.Cache.Available() {
		checks["redis"] = c.Cache
	}

	jwtSvc := jwt.NewHMACService(c.Config.JWT.AccessSecret, c.Config.JWT.AccessExpiresIn)
	auth := middleware.NewAuthMiddleware(jwtSvc)

	handlers := v1.Handlers{
		Transitions:  handler.NewTransitionsHandler(c.Status),
		Applications: handler.NewApplicationHandler(c.Applications, c.Status),
		Jobs:         handler.NewJobHandler(c.Jobs),
		Ranking:      handler.NewRankingHandler(c.Ranking, c.Logger),
		Cascade:      handler.NewCascadeHandler(c.Cascade, c.Logger),
		Profile:      handler.NewProfileHandler(c.Applications),
	}

	routes.NewRegistry(
		handler.NewHealthHandler(checks),
		ws.NewHandler(c.Hub, c.Logger),
		auth,
		handlers,
	).Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
