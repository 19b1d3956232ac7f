package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"event-rsvp/internal/whatsapp"

	"github.com/spf13/cobra"
)

func newPairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pair",
		Short: "Link a WhatsApp device used to send the organizer a copy of each RSVP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			wa, err := whatsapp.NewService(ctx, &whatsapp.Config{DataDir: cfg.WhatsApp.DataDir}, log)
			if err != nil {
				return fmt.Errorf("error initializing WhatsApp service: %w", err)
			}
			defer wa.Disconnect()

			fmt.Println("Connecting to WhatsApp...")
			if err := wa.Pair(ctx, os.Stdout); err != nil {
				return err
			}
			fmt.Println("✅ Device linked. Set whatsapp.enabled=true to send organizer copies.")
			return nil
		},
	}
}
