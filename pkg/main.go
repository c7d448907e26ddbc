package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	pkg "git.solsynth.dev/hypernet/pollbot/pkg/internal"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/cache"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/config"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/events"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/gap"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/http"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/models"
	"git.solsynth.dev/hypernet/pollbot/pkg/internal/services"
	"github.com/fatih/color"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
}

func main() {
	// Booting screen
	fmt.Println(color.YellowString(" ____       _ _ ____        _\n|  _ \\ ___ | | | __ )  ___ | |_\n| |_) / _ \\| | |  _ \\ / _ \\| __|\n|  __/ (_) | | | |_) | (_) | |_\n|_|   \\___/|_|_|____/ \\___/ \\__|"))
	fmt.Printf("%s v%s\n", color.New(color.FgHiYellow).Add(color.Bold).Sprintf("Hypernet.PollBot"), pkg.AppVersion)
	fmt.Printf("The chat poll bot in Hypernet\n")
	color.HiBlack("=====================================================\n")

	// Load settings
	_, settings, err := config.Load()
	if err != nil {
		log.Panic().Err(err).Msg("An error occurred when loading settings.")
	}
	if settings.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Initialize cache
	if err := cache.Initialize(); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when initializing cache.")
	}

	// Connect to slack
	slack := gap.NewSlack(settings.Slack.Endpoint, settings.Slack.Token, cache.S)
	if settings.Slack.DirectoryTTL > 0 {
		slack.DirectoryTTL = settings.Slack.DirectoryTTL
	}
	if len(settings.Slack.Token) == 0 {
		log.Warn().Msg("No slack token configured, chat messages will be refused.")
	}

	// Event stream
	var publisher events.Publisher = events.NopPublisher{}
	if len(settings.Events.Kafka.Brokers) > 0 {
		if kafka, err := events.NewKafkaPublisher(settings.Events.Kafka.Brokers, settings.Events.Kafka.Topic); err != nil {
			log.Error().Err(err).Msg("An error occurred when connecting to kafka, poll events will be dropped.")
		} else {
			publisher = kafka
			log.Info().Strs("brokers", settings.Events.Kafka.Brokers).Msg("Poll events will be published to kafka.")
		}
	}

	// Poll engine
	store := services.NewPollStore()
	controller := services.NewPollController(store, slack, services.ControllerOptions{
		Defaults: models.PollConfig{
			Limit:     settings.Polls.DefaultLimit,
			ExpiresIn: settings.Polls.DefaultExpiresIn,
		},
		Events: publisher,
	})
	bot := services.NewPollBot(controller, slack, settings.Slack.FallbackChannel)

	// Configure timed tasks
	quartz := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(&log.Logger)))
	sweeper := services.NewPollSweeper(store, quartz)
	if err := sweeper.Start(settings.Polls.CleanupSchedule); err != nil {
		log.Fatal().Err(err).Msg("An error occurred when scheduling poll cleanup.")
	}
	quartz.Start()

	// Server
	server := http.NewServer(settings, bot, sweeper)
	go server.Listen()

	log.Info().Str("bind", settings.Bind).Msg("Poll bot is up and running.")

	// Messages
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	sweeper.Stop()
	<-quartz.Stop().Done()
	if err := server.Shutdown(); err != nil {
		log.Error().Err(err).Msg("An error occurred when shutting down server...")
	}
	if err := publisher.Close(); err != nil {
		log.Error().Err(err).Msg("An error occurred when closing event publisher...")
	}
}
