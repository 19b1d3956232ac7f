package models

// Phase is a step of the submission workflow
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseValidating  Phase = "validating"
	PhaseInvalid     Phase = "invalid"
	PhaseSaving      Phase = "saving"
	PhaseComposing   Phase = "composing"
	PhaseRedirecting Phase = "redirecting"
	PhaseSent        Phase = "sent"
)

// Busy reports whether the response buttons should stay disabled
func (p Phase) Busy() bool {
	return p == PhaseSaving || p == PhaseComposing || p == PhaseRedirecting
}

// FeedbackState is what the overlay shows
type FeedbackState struct {
	Visible bool   `json:"visible"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

const (
	MessageSaving      = "Saving RSVP..."
	MessageRedirecting = "Opening WhatsApp..."
	MessageSent        = "Sent & Saved!"
)
