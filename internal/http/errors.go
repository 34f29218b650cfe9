package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/cleancook/internal/service"
	"github.com/sujalbistaa/cleancook/internal/upload"
)

// apiError is what a failed handler turns into. Err stays on the server; only
// Message reaches the caller.
type apiError struct {
	Status  int
	Message string
	Err     error
}

// translate maps service and upload errors to a response. Anything it does
// not recognize becomes a 500 carrying fallback as the message.
func translate(err error, fallback string) *apiError {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return &apiError{Status: http.StatusBadRequest, Message: verr.Message, Err: err}
	case errors.Is(err, service.ErrAlreadyLiked):
		return &apiError{Status: http.StatusBadRequest, Message: "Already liked this story", Err: err}
	case errors.Is(err, service.ErrStoryNotFound):
		return &apiError{Status: http.StatusNotFound, Message: "Story not found", Err: err}
	case errors.Is(err, service.ErrThreadNotFound):
		return &apiError{Status: http.StatusNotFound, Message: "Thread not found", Err: err}
	case errors.Is(err, upload.ErrFileTooLarge):
		return &apiError{Status: http.StatusBadRequest, Message: "File too large", Err: err}
	case errors.Is(err, upload.ErrNotImage):
		return &apiError{Status: http.StatusBadRequest, Message: "Only image files are allowed!", Err: err}
	default:
		return &apiError{Status: http.StatusInternalServerError, Message: fallback, Err: err}
	}
}

// fail writes err as {"error": message}. Server-side failures are logged;
// caller mistakes are not.
func (e *Env) fail(c *gin.Context, err error, fallback string) {
	ae := translate(err, fallback)
	if ae.Status >= http.StatusInternalServerError {
		e.Log.WithError(ae.Err).WithField("path", c.FullPath()).Error(fallback)
	}
	c.AbortWithStatusJSON(ae.Status, gin.H{"error": ae.Message})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}
