package server

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"event-rsvp/internal/handler"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

//go:embed web
var webFS embed.FS

// InitRoutes builds the gin engine serving the invite page and the RSVP API
func InitRoutes(rsvp *handler.RSVPHandler, log zerolog.Logger, requestTimeout time.Duration) *gin.Engine {
	h := newPageHandler(rsvp)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(Logger(log))
	router.Use(Timeout(requestTimeout))

	router.SetHTMLTemplate(template.Must(template.New("").ParseFS(webFS, "web/index.html")))

	static, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	router.StaticFileFS("/static/rsvp.js", "rsvp.js", http.FS(static))
	router.StaticFileFS("/static/style.css", "style.css", http.FS(static))

	router.GET("/", h.Index)
	router.POST("/rsvp", h.SubmitForm)

	api := router.Group("/api")
	{
		api.POST("/rsvp", h.SubmitJSON)
		api.GET("/rsvp/:id", h.GetStatus)
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	return router
}
