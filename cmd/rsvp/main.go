package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"event-rsvp/internal/config"
	"event-rsvp/internal/handler"
	"event-rsvp/internal/server"
	"event-rsvp/internal/sheetlog"
	"event-rsvp/internal/whatsapp"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:          "rsvp",
		Short:        "RSVP form for an event invite, logged to a sheet and handed off to WhatsApp",
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./config.yaml or ./config/config.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the RSVP page",
		RunE:  runServe,
	})
	root.AddCommand(newSubmitCmd())
	root.AddCommand(newLinkCmd())
	root.AddCommand(newPairCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	lvl, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	return cfg, nil
}

// newRSVPHandler wires the sheet logger and, when enabled, the WhatsApp
// organizer copy. The returned func releases the WhatsApp connection.
func newRSVPHandler(ctx context.Context, cfg *config.Config, log zerolog.Logger, extra ...handler.Handoff) (*handler.RSVPHandler, func(), error) {
	sheet, err := sheetlog.New(ctx, cfg.Sheet, log)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	handoffs := extra

	if cfg.WhatsApp.Enabled {
		wa, err := whatsapp.NewService(ctx, &whatsapp.Config{DataDir: cfg.WhatsApp.DataDir}, log)
		if err != nil {
			return nil, nil, fmt.Errorf("error initializing WhatsApp service: %w", err)
		}
		if err := wa.Connect(); err != nil {
			log.Warn().Err(err).Msg("WhatsApp organizer copy disabled")
		} else {
			handoffs = append(handoffs, whatsapp.NewOrganizerCopy(wa, cfg.Event.OrganizerPhone))
			cleanup = wa.Disconnect
		}
	}

	h := handler.NewRSVPHandler(sheet, &handler.Config{
		Event:      cfg.Event,
		LogTimeout: cfg.Sheet.Timeout,
		OpenDelay:  cfg.Workflow.OpenDelay,
		HideDelay:  cfg.Workflow.HideDelay,
		Retention:  cfg.Workflow.Retention,
	}, log, handoffs...)

	return h, cleanup, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	fmt.Println("🎊 Event RSVP")
	fmt.Println("=============")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rsvp, cleanup, err := newRSVPHandler(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	gin.SetMode(cfg.Server.Mode)
	srv := server.NewServer(cfg.Server, server.InitRoutes(rsvp, log, cfg.Server.RequestTimeout))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	log.Info().
		Str("port", cfg.Server.Port).
		Str("event", cfg.Event.Name).
		Str("sheet_mode", cfg.Sheet.Mode).
		Msg("RSVP page listening")

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("error running http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	fmt.Println("\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down http server")
	}
	fmt.Println("Goodbye! 👋")
	return nil
}
