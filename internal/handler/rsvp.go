package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"event-rsvp/internal/config"
	"event-rsvp/internal/models"
	"event-rsvp/internal/sheetlog"
	"event-rsvp/internal/whatsapp"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrInFlight   = errors.New("an RSVP for this contact is already being sent")
	ErrNotFound   = errors.New("submission not found")
)

// ValidationError carries the per-field messages of a rejected form
type ValidationError struct {
	Errors models.ValidationErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidation, e.Errors.For(e.Errors.First()))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Handoff delivers the composed message once the deep link is opened.
// Errors are logged and never change the outcome of a submission.
type Handoff interface {
	Open(ctx context.Context, link, message string) error
}

// HandoffFunc adapts a function to Handoff
type HandoffFunc func(ctx context.Context, link, message string) error

func (f HandoffFunc) Open(ctx context.Context, link, message string) error {
	return f(ctx, link, message)
}

type Config struct {
	Event config.EventConfig

	// LogTimeout bounds the single remote log attempt
	LogTimeout time.Duration
	// OpenDelay is the pause between "Opening WhatsApp..." and the handoff
	OpenDelay time.Duration
	// HideDelay is how long "Sent & Saved!" stays on screen
	HideDelay time.Duration
	// Retention keeps finished submissions available to Lookup
	Retention time.Duration
}

type RSVPHandler struct {
	sheet    sheetlog.Logger
	handoffs []Handoff
	config   *Config
	log      zerolog.Logger
	now      func() time.Time

	onFeedback func(id string, state models.FeedbackState)

	mu          sync.Mutex
	submissions map[string]*Submission
	inFlight    map[string]string
}

// NewRSVPHandler creates a new RSVP handler
func NewRSVPHandler(sheet sheetlog.Logger, cfg *Config, log zerolog.Logger, handoffs ...Handoff) *RSVPHandler {
	return &RSVPHandler{
		sheet:       sheet,
		handoffs:    handoffs,
		config:      cfg,
		log:         log.With().Str("component", "RSVP").Logger(),
		now:         time.Now,
		submissions: make(map[string]*Submission),
		inFlight:    make(map[string]string),
	}
}

// OnFeedback registers fn to be called on every overlay change. It must be
// set before the first Submit.
func (h *RSVPHandler) OnFeedback(fn func(id string, state models.FeedbackState)) {
	h.onFeedback = fn
}

// Event returns the event the handler answers for
func (h *RSVPHandler) Event() config.EventConfig {
	return h.config.Event
}

// Submit validates the form and starts the workflow. It returns as soon as
// the overlay shows "Saving RSVP..."; logging, the handoff and the timed
// feedback run in the background. A validation failure returns a
// *ValidationError before anything is logged or opened.
func (h *RSVPHandler) Submit(ctx context.Context, form models.GuestForm, status models.RSVPStatus) (*Submission, error) {
	if _, err := models.ParseRSVPStatus(string(status)); err != nil {
		return nil, err
	}

	h.log.Debug().Str("phase", string(models.PhaseValidating)).Msg("Validating RSVP")
	if errs := models.Validate(form); !errs.Empty() {
		return nil, &ValidationError{Errors: errs}
	}

	form = form.Trimmed()
	at := h.now().In(h.config.Event.Location())
	sub := newSubmission(uuid.NewString(), models.NewGuestResponse(form, status, h.config.Event.Name, at))

	key := strings.ToLower(form.Contact)
	h.mu.Lock()
	if _, busy := h.inFlight[key]; busy {
		h.mu.Unlock()
		return nil, ErrInFlight
	}
	h.inFlight[key] = sub.ID
	h.submissions[sub.ID] = sub
	h.mu.Unlock()

	h.transition(sub, models.PhaseSaving, models.FeedbackState{
		Visible: true,
		Message: models.MessageSaving,
	})

	h.log.Info().
		Str("submission", sub.ID).
		Str("status", string(status)).
		Str("name", form.Name).
		Msg("RSVP submitted")

	go h.run(context.WithoutCancel(ctx), sub, key)

	return sub, nil
}

// Lookup returns a running or recently finished submission
func (h *RSVPHandler) Lookup(id string) (*Submission, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub, ok := h.submissions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sub, nil
}

func (h *RSVPHandler) run(ctx context.Context, sub *Submission, key string) {
	defer h.finish(sub, key)

	h.saveToSheet(ctx, sub)

	sub.setPhase(models.PhaseComposing)
	message := whatsapp.ComposeMessage(h.config.Event, sub.response)
	link := whatsapp.DeepLink(h.config.Event.OrganizerPhone, message)
	sub.compose(message, link)

	h.transition(sub, models.PhaseRedirecting, models.FeedbackState{
		Visible: true,
		Message: models.MessageRedirecting,
	})

	wait(h.config.OpenDelay)

	sub.open()
	h.handoff(ctx, sub, link, message)

	// the contact may answer again as soon as the link is out
	h.release(sub, key)
	h.transition(sub, models.PhaseSent, models.FeedbackState{
		Visible: true,
		Message: models.MessageSent,
		Success: true,
	})

	wait(h.config.HideDelay)

	h.transition(sub, models.PhaseIdle, models.FeedbackState{
		Visible: false,
		Message: models.MessageSent,
		Success: true,
	})
}

// saveToSheet makes the one remote log attempt. Its outcome only reaches
// the log.
func (h *RSVPHandler) saveToSheet(ctx context.Context, sub *Submission) {
	if h.config.LogTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.LogTimeout)
		defer cancel()
	}

	if err := h.sheet.Log(ctx, sub.response); err != nil {
		h.log.Warn().Err(err).Str("submission", sub.ID).Msg("Error submitting RSVP to sheet")
		return
	}
	h.log.Debug().Str("submission", sub.ID).Msg("RSVP sent to sheet")
}

func (h *RSVPHandler) handoff(ctx context.Context, sub *Submission, link, message string) {
	for _, hf := range h.handoffs {
		hctx, cancel := ctx, context.CancelFunc(func() {})
		if h.config.LogTimeout > 0 {
			hctx, cancel = context.WithTimeout(ctx, h.config.LogTimeout)
		}
		if err := hf.Open(hctx, link, message); err != nil {
			h.log.Warn().Err(err).Str("submission", sub.ID).Msg("Handoff failed")
		}
		cancel()
	}
}

func (h *RSVPHandler) transition(sub *Submission, phase models.Phase, fb models.FeedbackState) {
	sub.set(phase, fb)
	if h.onFeedback != nil {
		h.onFeedback(sub.ID, fb)
	}
}

func (h *RSVPHandler) release(sub *Submission, key string) {
	h.mu.Lock()
	if h.inFlight[key] == sub.ID {
		delete(h.inFlight, key)
	}
	h.mu.Unlock()
}

func (h *RSVPHandler) finish(sub *Submission, key string) {
	h.release(sub, key)
	close(sub.done)

	time.AfterFunc(h.config.Retention, func() {
		h.mu.Lock()
		delete(h.submissions, sub.ID)
		h.mu.Unlock()
	})
}

func wait(d time.Duration) {
	if d > 0 {
		time.Sleep(d)
	}
}
