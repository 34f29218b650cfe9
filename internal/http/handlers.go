package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sujalbistaa/cleancook/internal/metrics"
	"github.com/sujalbistaa/cleancook/internal/service"
	"github.com/sujalbistaa/cleancook/internal/upload"
	"github.com/sujalbistaa/cleancook/internal/ws"
)

// --- Structs for request binding ---
type storyForm struct {
	Title      string `form:"title" json:"title"`
	Content    string `form:"content" json:"content"`
	Location   string `form:"location" json:"location"`
	FuelType   string `form:"fuel_type" json:"fuel_type"`
	AuthorName string `form:"author_name" json:"author_name"`
}

// --- Handlers ---
type Env struct {
	Svc     *service.Service
	Uploads *upload.Store
	Hub     *ws.Hub
	Log     logrus.FieldLogger
}

func (e *Env) publish(event string, data interface{}) {
	metrics.RecordEvent(event)
	if e.Hub != nil {
		e.Hub.Publish(event, data)
	}
}

// callerID identifies a caller for like de-duplication and rate limiting.
func callerID(c *gin.Context) string {
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return service.AnonymousIdentifier
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

func (e *Env) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK", "timestamp": time.Now().UTC()})
}

func (e *Env) GetStories(c *gin.Context) {
	// Unparseable values fall back to the defaults.
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))

	result, err := e.Svc.ListStories(c.Request.Context(), page, limit, c.Query("fuel_type"))
	if err != nil {
		e.fail(c, err, "Failed to fetch stories")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (e *Env) CreateStory(c *gin.Context) {
	var form storyForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, "Invalid input: "+err.Error())
		return
	}
	in := service.StoryInput{
		Title:      form.Title,
		Content:    form.Content,
		Location:   form.Location,
		FuelType:   form.FuelType,
		AuthorName: form.AuthorName,
	}
	if err := in.Validate(); err != nil {
		e.fail(c, err, "Failed to create story")
		return
	}

	fh, err := c.FormFile("image")
	switch {
	case err == nil:
		url, err := e.Uploads.Save(fh)
		if err != nil {
			e.fail(c, err, "Failed to store image")
			return
		}
		in.ImageURL = &url
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// No image attached.
	default:
		badRequest(c, "Invalid form data")
		return
	}

	story, err := e.Svc.CreateStory(c.Request.Context(), in)
	if err != nil {
		if in.ImageURL != nil {
			if rmErr := e.Uploads.Remove(*in.ImageURL); rmErr != nil {
				e.Log.WithError(rmErr).WithField("image_url", *in.ImageURL).Warn("remove orphaned upload")
			}
		}
		e.fail(c, err, "Failed to create story")
		return
	}

	e.publish(ws.EventStoryCreated, story)
	c.JSON(http.StatusCreated, story)
}

func (e *Env) LikeStory(c *gin.Context) {
	storyID, ok := parseID(c.Param("id"))
	if !ok {
		badRequest(c, "Invalid story ID")
		return
	}

	story, err := e.Svc.LikeStory(c.Request.Context(), storyID, callerID(c))
	if err != nil {
		e.fail(c, err, "Failed to like story")
		return
	}

	e.publish(ws.EventStoryLiked, gin.H{"id": story.ID, "likes_count": story.LikesCount})
	c.JSON(http.StatusOK, story)
}

func (e *Env) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, e.Svc.Stats(c.Request.Context()))
}
