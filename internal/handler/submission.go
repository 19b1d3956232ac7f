package handler

import (
	"sync"

	"event-rsvp/internal/models"
)

// Submission is one run of the RSVP workflow
type Submission struct {
	ID string

	response models.GuestResponse

	mu       sync.RWMutex
	phase    models.Phase
	feedback models.FeedbackState
	message  string
	link     string

	opened chan struct{}
	done   chan struct{}
}

// Status is a point-in-time view of a submission. Link and Message are only
// filled once the deep link has been opened.
type Status struct {
	ID       string               `json:"id"`
	Phase    models.Phase         `json:"phase"`
	Feedback models.FeedbackState `json:"feedback"`
	Link     string               `json:"link,omitempty"`
	Message  string               `json:"message,omitempty"`
}

func newSubmission(id string, resp models.GuestResponse) *Submission {
	return &Submission{
		ID:       id,
		response: resp,
		phase:    models.PhaseIdle,
		opened:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *Submission) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		ID:       s.ID,
		Phase:    s.phase,
		Feedback: s.feedback,
	}
	select {
	case <-s.opened:
		st.Link = s.link
		st.Message = s.message
	default:
	}
	return st
}

// Opened is closed once the deep link is available to the guest
func (s *Submission) Opened() <-chan struct{} {
	return s.opened
}

// Done is closed when the overlay is hidden and the workflow is back to idle
func (s *Submission) Done() <-chan struct{} {
	return s.done
}

func (s *Submission) set(phase models.Phase, fb models.FeedbackState) {
	s.mu.Lock()
	s.phase = phase
	s.feedback = fb
	s.mu.Unlock()
}

func (s *Submission) setPhase(phase models.Phase) {
	s.mu.Lock()
	s.phase = phase
	s.mu.Unlock()
}

func (s *Submission) compose(message, link string) {
	s.mu.Lock()
	s.message = message
	s.link = link
	s.mu.Unlock()
}

func (s *Submission) open() {
	close(s.opened)
}
