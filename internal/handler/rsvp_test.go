package handler

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"event-rsvp/internal/config"
	"event-rsvp/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSheet struct {
	mu    sync.Mutex
	calls []models.GuestResponse
	err   error
	delay time.Duration
}

func (f *fakeSheet) Log(_ context.Context, resp models.GuestResponse) error {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, resp)
	return f.err
}

func (f *fakeSheet) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type step struct {
	state models.FeedbackState
	at    time.Time
}

type recorder struct {
	mu    sync.Mutex
	steps []step
}

func (r *recorder) record(_ string, s models.FeedbackState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, step{state: s, at: time.Now()})
}

func (r *recorder) snapshot() []step {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]step(nil), r.steps...)
}

var testEvent = config.EventConfig{
	Name:           "CNY Dinner",
	Date:           "Thursday, 20 Feb 2026",
	Time:           "8pm - 11pm",
	OrganizerPhone: "60175678327",
	Timezone:       "UTC",
}

func newTestHandler(sheet *fakeSheet, openDelay, hideDelay time.Duration, handoffs ...Handoff) (*RSVPHandler, *recorder) {
	h := NewRSVPHandler(sheet, &Config{
		Event:      testEvent,
		LogTimeout: time.Second,
		OpenDelay:  openDelay,
		HideDelay:  hideDelay,
		Retention:  time.Minute,
	}, zerolog.Nop(), handoffs...)
	rec := &recorder{}
	h.OnFeedback(rec.record)
	return h, rec
}

var validForm = models.GuestForm{Name: "Alex Tan", Pax: "2", Contact: "0123456789"}

func waitDone(t *testing.T, sub *Submission) {
	t.Helper()
	select {
	case <-sub.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("submission did not finish")
	}
}

func TestSubmitInvalidHaltsBeforeSideEffects(t *testing.T) {
	tests := []struct {
		name  string
		form  models.GuestForm
		field models.Field
	}{
		{"blank name", models.GuestForm{Name: " ", Pax: "2", Contact: "012"}, models.FieldName},
		{"blank pax", models.GuestForm{Name: "Alex", Pax: "", Contact: "012"}, models.FieldPax},
		{"blank contact", models.GuestForm{Name: "Alex", Pax: "2", Contact: "\t"}, models.FieldContact},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet := &fakeSheet{}
			var opened int
			h, rec := newTestHandler(sheet, 0, 0, HandoffFunc(func(context.Context, string, string) error {
				opened++
				return nil
			}))

			sub, err := h.Submit(context.Background(), tt.form, models.RSVPAttending)
			require.Error(t, err)
			assert.Nil(t, sub)
			assert.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.NotEmpty(t, verr.Errors.For(tt.field))

			time.Sleep(20 * time.Millisecond)
			assert.Zero(t, sheet.count())
			assert.Zero(t, opened)
			assert.Empty(t, rec.snapshot())
		})
	}
}

func TestSubmitRejectsUnknownStatus(t *testing.T) {
	h, _ := newTestHandler(&fakeSheet{}, 0, 0)
	_, err := h.Submit(context.Background(), validForm, models.RSVPStatus("declined"))
	assert.Error(t, err)
}

func TestSubmitLogsOnceAndAlwaysLinks(t *testing.T) {
	for _, sheetErr := range []error{nil, errors.New("network down")} {
		name := "sheet ok"
		if sheetErr != nil {
			name = "sheet fails"
		}
		t.Run(name, func(t *testing.T) {
			sheet := &fakeSheet{err: sheetErr}
			var links []string
			h, _ := newTestHandler(sheet, time.Millisecond, time.Millisecond, HandoffFunc(func(_ context.Context, link, _ string) error {
				links = append(links, link)
				return errors.New("handoff errors are ignored")
			}))

			sub, err := h.Submit(context.Background(), validForm, models.RSVPAttending)
			require.NoError(t, err)
			waitDone(t, sub)

			assert.Equal(t, 1, sheet.count())
			require.Len(t, links, 1)

			st := sub.Status()
			assert.Equal(t, models.PhaseIdle, st.Phase)
			assert.Equal(t, links[0], st.Link)
			require.True(t, strings.HasPrefix(st.Link, "https://wa.me/60175678327?text="))

			u, err := url.Parse(st.Link)
			require.NoError(t, err)
			assert.Equal(t, st.Message, u.Query().Get("text"))
			assert.Contains(t, st.Message, "Alex Tan")
			assert.Contains(t, st.Message, "👥 Pax: 2")
			assert.NotContains(t, st.Message, "📧")
		})
	}
}

func TestSubmitSendsTrimmedRecord(t *testing.T) {
	sheet := &fakeSheet{}
	h, _ := newTestHandler(sheet, 0, 0)
	h.now = func() time.Time { return time.Date(2026, 2, 20, 20, 0, 0, 0, time.UTC) }

	sub, err := h.Submit(context.Background(), models.GuestForm{Name: " Alex ", Pax: " 2", Contact: "012 ", Email: " a@b.c "}, models.RSVPMaybe)
	require.NoError(t, err)
	waitDone(t, sub)

	require.Equal(t, 1, sheet.count())
	got := sheet.calls[0]
	assert.Equal(t, "Alex", got.Name)
	assert.Equal(t, "2", got.Pax)
	assert.Equal(t, "012", got.Contact)
	assert.Equal(t, "a@b.c", got.Email)
	assert.Equal(t, models.RSVPMaybe, got.Status)
	assert.Equal(t, "CNY Dinner", got.Event)
	assert.Equal(t, "2/20/2026, 8:00:00 PM", got.Timestamp)
}

func TestSubmitFeedbackSequence(t *testing.T) {
	const openDelay = 50 * time.Millisecond
	const hideDelay = 120 * time.Millisecond

	h, rec := newTestHandler(&fakeSheet{}, openDelay, hideDelay)

	sub, err := h.Submit(context.Background(), validForm, models.RSVPAttending)
	require.NoError(t, err)

	// "Saving" is visible as soon as Submit returns
	assert.Equal(t, models.FeedbackState{Visible: true, Message: models.MessageSaving}, sub.Status().Feedback)

	waitDone(t, sub)

	steps := rec.snapshot()
	require.Len(t, steps, 4)
	assert.Equal(t, models.FeedbackState{Visible: true, Message: models.MessageSaving}, steps[0].state)
	assert.Equal(t, models.FeedbackState{Visible: true, Message: models.MessageRedirecting}, steps[1].state)
	assert.Equal(t, models.FeedbackState{Visible: true, Message: models.MessageSent, Success: true}, steps[2].state)
	assert.False(t, steps[3].state.Visible)

	assert.GreaterOrEqual(t, steps[2].at.Sub(steps[1].at), openDelay)
	assert.GreaterOrEqual(t, steps[3].at.Sub(steps[2].at), hideDelay)
}

func TestSubmitLinkHiddenUntilOpened(t *testing.T) {
	h, _ := newTestHandler(&fakeSheet{}, 100*time.Millisecond, 0)

	sub, err := h.Submit(context.Background(), validForm, models.RSVPCantAttend)
	require.NoError(t, err)
	assert.Empty(t, sub.Status().Link)

	select {
	case <-sub.Opened():
	case <-time.After(5 * time.Second):
		t.Fatal("link never opened")
	}
	assert.NotEmpty(t, sub.Status().Link)
	waitDone(t, sub)
}

func TestSubmitProceedsAfterSlowFailedLog(t *testing.T) {
	sheet := &fakeSheet{delay: 30 * time.Millisecond, err: context.DeadlineExceeded}
	h, _ := newTestHandler(sheet, 0, 0)

	sub, err := h.Submit(context.Background(), validForm, models.RSVPAttending)
	require.NoError(t, err)
	waitDone(t, sub)
	assert.NotEmpty(t, sub.Status().Link)
}

func TestSubmitInFlightGuard(t *testing.T) {
	h, _ := newTestHandler(&fakeSheet{}, 50*time.Millisecond, 0)

	first, err := h.Submit(context.Background(), validForm, models.RSVPAttending)
	require.NoError(t, err)

	_, err = h.Submit(context.Background(), validForm, models.RSVPMaybe)
	assert.ErrorIs(t, err, ErrInFlight)

	other := validForm
	other.Contact = "0199999999"
	second, err := h.Submit(context.Background(), other, models.RSVPMaybe)
	require.NoError(t, err)

	waitDone(t, first)
	waitDone(t, second)

	again, err := h.Submit(context.Background(), validForm, models.RSVPMaybe)
	require.NoError(t, err)
	waitDone(t, again)
}

func TestSubmitInFlightReleasedOnSent(t *testing.T) {
	h, _ := newTestHandler(&fakeSheet{delay: 50 * time.Millisecond}, 0, 300*time.Millisecond)

	first, err := h.Submit(context.Background(), validForm, models.RSVPAttending)
	require.NoError(t, err)
	require.True(t, first.Status().Phase.Busy())

	again := validForm
	again.Contact = " " + validForm.Contact + " "
	_, err = h.Submit(context.Background(), again, models.RSVPMaybe)
	require.ErrorIs(t, err, ErrInFlight)

	require.Eventually(t, func() bool {
		return first.Status().Phase == models.PhaseSent
	}, 5*time.Second, 5*time.Millisecond)

	// the overlay still shows "Sent & Saved!" but the buttons are live again
	select {
	case <-first.Done():
		t.Fatal("first submission finished before the resubmit")
	default:
	}
	second, err := h.Submit(context.Background(), again, models.RSVPMaybe)
	require.NoError(t, err)

	waitDone(t, first)
	waitDone(t, second)
}

func TestLookup(t *testing.T) {
	h, _ := newTestHandler(&fakeSheet{}, 0, 0)

	sub, err := h.Submit(context.Background(), validForm, models.RSVPAttending)
	require.NoError(t, err)

	got, err := h.Lookup(sub.ID)
	require.NoError(t, err)
	assert.Same(t, sub, got)

	_, err = h.Lookup("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	waitDone(t, sub)
}

func TestLookupEvictsAfterRetention(t *testing.T) {
	h, _ := newTestHandler(&fakeSheet{}, 0, 0)
	h.config.Retention = 20 * time.Millisecond

	sub, err := h.Submit(context.Background(), validForm, models.RSVPAttending)
	require.NoError(t, err)
	waitDone(t, sub)

	require.Eventually(t, func() bool {
		_, err := h.Lookup(sub.ID)
		return errors.Is(err, ErrNotFound)
	}, 5*time.Second, 5*time.Millisecond)

	// the snapshot a caller already holds stays readable
	assert.Equal(t, models.PhaseIdle, sub.Status().Phase)
}

func TestSubmitIgnoresRequestCancellation(t *testing.T) {
	sheet := &fakeSheet{}
	h, _ := newTestHandler(sheet, 0, 0)

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := h.Submit(ctx, validForm, models.RSVPAttending)
	require.NoError(t, err)
	cancel()

	waitDone(t, sub)
	assert.Equal(t, 1, sheet.count())
	assert.NotEmpty(t, sub.Status().Link)
}
