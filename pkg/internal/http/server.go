package http

import (
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/config"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/http/admin"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/http/api"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/http/exts"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/services"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type App struct {
	app  *fiber.App
	bind string
}

func NewServer(settings config.Settings, bot *services.PollBot, sweeper *services.PollSweeper) *App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		EnableIPValidation:    true,
		ServerHeader:          "Hypernet.PollBot",
		AppName:               "Hypernet.PollBot",
		ProxyHeader:           fiber.HeaderXForwardedFor,
		JSONEncoder:           jsoniter.ConfigCompatibleWithStandardLibrary.Marshal,
		JSONDecoder:           jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal,
		BodyLimit:             1 * 1024 * 1024,
		EnablePrintRoutes:     settings.Debug,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "${status} | ${latency} | ${method} ${path}\n",
		Output: log.Logger,
	}))
	app.Use(exts.ProvideServices(bot, sweeper))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	admin.MapControllers(app, "/admin", exts.EnsureAdmin(settings.AdminToken))
	api.MapControllers(app, "/api", exts.VerifySlackSignature(settings.Slack.SigningSecret))

	return &App{app: app, bind: settings.Bind}
}

func (v *App) Fiber() *fiber.App {
	return v.app
}

func (v *App) Listen() {
	if err := v.app.Listen(v.bind); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when starting server...")
	}
}

func (v *App) Shutdown() error {
	return v.app.Shutdown()
}
