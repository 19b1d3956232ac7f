// Package sheetlog records RSVP responses in a remote spreadsheet.
//
// Every implementation makes a single attempt. Callers treat the returned
// error as diagnostic only.
package sheetlog

import (
	"context"
	"fmt"

	"event-rsvp/internal/config"
	"event-rsvp/internal/models"

	"github.com/rs/zerolog"
)

// Logger appends one guest response to the remote sheet
type Logger interface {
	Log(ctx context.Context, resp models.GuestResponse) error
}

// New builds the logger selected by cfg.Mode
func New(ctx context.Context, cfg config.SheetConfig, log zerolog.Logger) (Logger, error) {
	log = log.With().Str("component", "SheetLog").Str("mode", cfg.Mode).Logger()

	switch cfg.Mode {
	case config.SheetModeWebhook:
		return NewWebhookLogger(cfg.WebhookURL, cfg.Timeout), nil
	case config.SheetModeSheets:
		l, err := NewSheetsLogger(ctx, cfg.CredentialsFile, cfg.SpreadsheetID, cfg.SheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to create sheets logger: %w", err)
		}
		return l, nil
	case config.SheetModeNone:
		log.Warn().Msg("Remote sheet logging disabled")
		return NopLogger{}, nil
	}
	return nil, fmt.Errorf("unknown sheet mode %q", cfg.Mode)
}

// NopLogger drops every response
type NopLogger struct{}

func (NopLogger) Log(context.Context, models.GuestResponse) error { return nil }
