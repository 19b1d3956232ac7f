// Package feedback renders the status overlay shown while an RSVP is being
// submitted.
package feedback

import (
	"bytes"
	"html/template"
	"io"

	"event-rsvp/internal/models"
)

const overlayHTML = `{{if .Visible}}<div class="overlay" role="status" aria-live="polite">
  <div class="overlay-card">
    {{- if .Success}}
    <div class="overlay-check"><svg xmlns="http://www.w3.org/2000/svg" width="32" height="32" viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="3" stroke-linecap="round" stroke-linejoin="round"><polyline points="20 6 9 17 4 12"/></svg></div>
    {{- else}}
    <div class="overlay-spinner"></div>
    {{- end}}
    <p class="overlay-message">{{.Message}}</p>
    {{- if not .Success}}
    <p class="overlay-hint">Redirecting you now...</p>
    {{- end}}
  </div>
</div>{{end}}`

var overlayTmpl = template.Must(template.New("overlay").Parse(overlayHTML))

// Render writes the overlay for state. Nothing is written when it is hidden.
func Render(w io.Writer, state models.FeedbackState) error {
	return overlayTmpl.Execute(w, state)
}

// HTML returns the rendered overlay for embedding in a page or JSON reply
func HTML(state models.FeedbackState) template.HTML {
	var buf bytes.Buffer
	if err := Render(&buf, state); err != nil {
		return ""
	}
	return template.HTML(buf.String())
}
