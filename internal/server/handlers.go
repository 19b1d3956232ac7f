package server

import (
	"errors"
	"html/template"
	"net/http"

	"event-rsvp/internal/config"
	"event-rsvp/internal/feedback"
	"event-rsvp/internal/handler"
	"event-rsvp/internal/models"

	"github.com/gin-gonic/gin"
)

type pageHandler struct {
	rsvp *handler.RSVPHandler
}

func newPageHandler(rsvp *handler.RSVPHandler) *pageHandler {
	return &pageHandler{rsvp: rsvp}
}

type pageData struct {
	Event      config.EventConfig
	Form       models.GuestForm
	Errors     models.ValidationErrors
	FirstError models.Field
	Notice     string
	Overlay    template.HTML

	// SubmissionID lets the page script resume polling a submission the
	// form post stopped waiting for
	SubmissionID string
}

type rsvpRequest struct {
	models.GuestForm
	Status string `json:"status" form:"status"`
}

type statusResponse struct {
	handler.Status
	Busy    bool          `json:"busy"`
	Overlay template.HTML `json:"overlay"`
}

func newStatusResponse(sub *handler.Submission) statusResponse {
	st := sub.Status()
	return statusResponse{
		Status:  st,
		Busy:    st.Phase.Busy(),
		Overlay: feedback.HTML(st.Feedback),
	}
}

func (h *pageHandler) Index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", pageData{Event: h.rsvp.Event()})
}

// SubmitJSON starts a submission for the page script
func (h *pageHandler) SubmitJSON(c *gin.Context) {
	var req rsvpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
		return
	}
	status, err := models.ParseRSVPStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.rsvp.Submit(c.Request.Context(), req.GuestForm, status)
	if err != nil {
		var verr *handler.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"phase":       models.PhaseInvalid,
				"errors":      verr.Errors,
				"first_error": verr.Errors.First(),
			})
		case errors.Is(err, handler.ErrInFlight):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusAccepted, newStatusResponse(sub))
}

func (h *pageHandler) GetStatus(c *gin.Context) {
	sub, err := h.rsvp.Lookup(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, newStatusResponse(sub))
}

// SubmitForm handles the plain form post used without JavaScript. A valid
// answer redirects the guest to WhatsApp once the link opens.
func (h *pageHandler) SubmitForm(c *gin.Context) {
	var req rsvpRequest
	if err := c.ShouldBind(&req); err != nil {
		c.String(http.StatusBadRequest, "invalid form")
		return
	}
	status, err := models.ParseRSVPStatus(req.Status)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.rsvp.Submit(c.Request.Context(), req.GuestForm, status)
	if err != nil {
		data := pageData{Event: h.rsvp.Event(), Form: req.GuestForm}
		var verr *handler.ValidationError
		switch {
		case errors.As(err, &verr):
			data.Errors = verr.Errors
			data.FirstError = verr.Errors.First()
			c.HTML(http.StatusUnprocessableEntity, "index.html", data)
		case errors.Is(err, handler.ErrInFlight):
			data.Notice = err.Error()
			c.HTML(http.StatusConflict, "index.html", data)
		default:
			c.String(http.StatusInternalServerError, err.Error())
		}
		return
	}

	select {
	case <-sub.Opened():
		c.Redirect(http.StatusSeeOther, sub.Status().Link)
	case <-c.Request.Context().Done():
		c.HTML(http.StatusAccepted, "index.html", pageData{
			Event:        h.rsvp.Event(),
			Overlay:      feedback.HTML(sub.Status().Feedback),
			SubmissionID: sub.ID,
		})
	}
}
