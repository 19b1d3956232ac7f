package sheetlog

import (
	"context"
	"fmt"
	"os"

	"event-rsvp/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsLogger appends rows through the Google Sheets API using a service
// account.
type SheetsLogger struct {
	service     *sheets.Service
	spreadsheet string
	sheetName   string
}

func NewSheetsLogger(ctx context.Context, credentialsPath, spreadsheetID, sheetName string) (*SheetsLogger, error) {
	credBytes, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	jwt, err := google.JWTConfigFromJSON(credBytes, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	service, err := sheets.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets client: %w", err)
	}

	return &SheetsLogger{
		service:     service,
		spreadsheet: spreadsheetID,
		sheetName:   sheetName,
	}, nil
}

// Row returns the cells written for one response
func Row(resp models.GuestResponse) []interface{} {
	return []interface{}{
		resp.Timestamp,
		resp.Event,
		resp.Name,
		resp.Pax,
		resp.Contact,
		resp.Email,
		string(resp.Status),
	}
}

func (l *SheetsLogger) Log(ctx context.Context, resp models.GuestResponse) error {
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{Row(resp)},
	}

	_, err := l.service.Spreadsheets.Values.Append(
		l.spreadsheet,
		l.sheetName,
		valueRange,
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}
	return nil
}
