package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event-rsvp/internal/handler"
	"event-rsvp/internal/models"
	"event-rsvp/internal/whatsapp"

	"github.com/spf13/cobra"
)

type formFlags struct {
	form   models.GuestForm
	status string
}

func (f *formFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.form.Name, "name", "", "guest name")
	cmd.Flags().StringVar(&f.form.Pax, "pax", "", "number of pax")
	cmd.Flags().StringVar(&f.form.Contact, "contact", "", "contact number")
	cmd.Flags().StringVar(&f.form.Email, "email", "", "email address (optional)")
	cmd.Flags().StringVar(&f.status, "status", string(models.RSVPAttending), "attending, maybe or cant-attend")
}

func printValidation(err error) {
	var verr *handler.ValidationError
	if !errors.As(err, &verr) {
		return
	}
	for _, f := range []models.Field{models.FieldName, models.FieldPax, models.FieldContact} {
		if msg := verr.Errors.For(f); msg != "" {
			fmt.Printf("❌ %s\n", msg)
		}
	}
}

func newSubmitCmd() *cobra.Command {
	var flags formFlags

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Send an RSVP from the terminal: log it to the sheet and print the WhatsApp link",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := models.ParseRSVPStatus(flags.status)
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log := newLogger()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			printLink := handler.HandoffFunc(func(_ context.Context, link, message string) error {
				fmt.Printf("\n%s\n🔗 %s\n\n", message, link)
				return nil
			})

			rsvp, cleanup, err := newRSVPHandler(ctx, cfg, log, printLink)
			if err != nil {
				return err
			}
			defer cleanup()

			rsvp.OnFeedback(func(_ string, state models.FeedbackState) {
				if state.Visible {
					fmt.Println(state.Message)
				}
			})

			sub, err := rsvp.Submit(ctx, flags.form, status)
			if err != nil {
				printValidation(err)
				return err
			}

			select {
			case <-sub.Done():
			case <-ctx.Done():
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newLinkCmd() *cobra.Command {
	var flags formFlags

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Print the WhatsApp message and link for an RSVP without logging it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := models.ParseRSVPStatus(flags.status)
			if err != nil {
				return err
			}
			if errs := models.Validate(flags.form); !errs.Empty() {
				err := &handler.ValidationError{Errors: errs}
				printValidation(err)
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			resp := models.NewGuestResponse(flags.form, status, cfg.Event.Name, time.Now().In(cfg.Event.Location()))
			message := whatsapp.ComposeMessage(cfg.Event, resp)
			fmt.Println(message)
			fmt.Println(whatsapp.DeepLink(cfg.Event.OrganizerPhone, message))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
