package models

import (
	"fmt"
	"strings"
	"time"
)

// RSVPStatus represents the guest's answer to the invite
type RSVPStatus string

const (
	RSVPAttending  RSVPStatus = "attending"
	RSVPMaybe      RSVPStatus = "maybe"
	RSVPCantAttend RSVPStatus = "cant-attend"
)

// ParseRSVPStatus converts a raw button value into an RSVPStatus
func ParseRSVPStatus(s string) (RSVPStatus, error) {
	switch RSVPStatus(strings.ToLower(strings.TrimSpace(s))) {
	case RSVPAttending:
		return RSVPAttending, nil
	case RSVPMaybe:
		return RSVPMaybe, nil
	case RSVPCantAttend:
		return RSVPCantAttend, nil
	}
	return "", fmt.Errorf("unknown rsvp status %q", s)
}

// GuestForm holds the raw values typed into the RSVP form
type GuestForm struct {
	Name    string `json:"name" form:"name"`
	Pax     string `json:"pax" form:"pax"`
	Contact string `json:"contact" form:"contact"`
	Email   string `json:"email" form:"email"`
}

// Trimmed returns a copy of the form with surrounding whitespace removed
func (f GuestForm) Trimmed() GuestForm {
	return GuestForm{
		Name:    strings.TrimSpace(f.Name),
		Pax:     strings.TrimSpace(f.Pax),
		Contact: strings.TrimSpace(f.Contact),
		Email:   strings.TrimSpace(f.Email),
	}
}

// GuestResponse is the record sent to the remote logger. It only lives for
// the duration of one submission.
type GuestResponse struct {
	Name      string     `json:"name"`
	Pax       string     `json:"pax"`
	Contact   string     `json:"contact"`
	Email     string     `json:"email"`
	Status    RSVPStatus `json:"status"`
	Event     string     `json:"event"`
	Timestamp string     `json:"timestamp"`
}

// TimestampLayout mirrors the en-US locale string spreadsheets already
// receive, e.g. "2/20/2026, 8:15:02 PM".
const TimestampLayout = "1/2/2006, 3:04:05 PM"

// NewGuestResponse builds the record for a validated form
func NewGuestResponse(form GuestForm, status RSVPStatus, event string, at time.Time) GuestResponse {
	form = form.Trimmed()
	return GuestResponse{
		Name:      form.Name,
		Pax:       form.Pax,
		Contact:   form.Contact,
		Email:     form.Email,
		Status:    status,
		Event:     event,
		Timestamp: at.Format(TimestampLayout),
	}
}
