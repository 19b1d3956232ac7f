package whatsapp

import (
	"fmt"
	"strings"

	"event-rsvp/internal/config"
	"event-rsvp/internal/models"
)

// DeepLinkBase is the click-to-chat prefix
const DeepLinkBase = "https://wa.me/"

// statusText returns the opening line for a response
func statusText(event config.EventConfig, status models.RSVPStatus) string {
	switch status {
	case models.RSVPAttending:
		return fmt.Sprintf("I'm attending %s on %s at %s. See you there! 😊", event.Name, event.Date, event.Time)
	case models.RSVPMaybe:
		return fmt.Sprintf("I might be able to attend %s on %s. Will let you know soon!", event.Name, event.Date)
	case models.RSVPCantAttend:
		return fmt.Sprintf("Sorry, I can't attend %s on %s. Have a great time! 😊", event.Name, event.Date)
	}
	return ""
}

// ComposeMessage builds the prefilled text sent to the organizer
func ComposeMessage(event config.EventConfig, resp models.GuestResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hey! %s\n\n", statusText(event, resp.Status))
	fmt.Fprintf(&b, "👤 Name: %s\n", strings.TrimSpace(resp.Name))
	fmt.Fprintf(&b, "👥 Pax: %s\n", strings.TrimSpace(resp.Pax))
	fmt.Fprintf(&b, "📞 Contact: %s\n", strings.TrimSpace(resp.Contact))
	if email := strings.TrimSpace(resp.Email); email != "" {
		fmt.Fprintf(&b, "📧 Email: %s\n", email)
	}
	return b.String()
}

// DeepLink returns the wa.me link that opens a chat with phone and the
// message already typed.
func DeepLink(phone, message string) string {
	return DeepLinkBase + NormalizePhoneNumber(phone) + "?text=" + encodeComponent(message)
}

const upperhex = "0123456789ABCDEF"

// encodeComponent percent-encodes every byte of s except the unreserved set
// A-Z a-z 0-9 - _ . ! ~ * ' ( ), matching JavaScript's encodeURIComponent.
func encodeComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}

// NormalizePhoneNumber keeps the digits of a phone number. wa.me expects
// the international number with no +, spaces or dashes.
func NormalizePhoneNumber(phoneNumber string) string {
	var b strings.Builder
	for _, r := range phoneNumber {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
