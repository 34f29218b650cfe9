package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/cleancook/internal/models"
	"github.com/sujalbistaa/cleancook/internal/service"
	"github.com/sujalbistaa/cleancook/internal/ws"
)

func (e *Env) GetThreads(c *gin.Context) {
	threads, err := e.Svc.ListThreads(c.Request.Context())
	if err != nil {
		e.fail(c, err, "Failed to fetch threads")
		return
	}
	c.JSON(http.StatusOK, threads)
}

func (e *Env) CreateThread(c *gin.Context) {
	var input service.ThreadInput
	if err := c.ShouldBind(&input); err != nil {
		badRequest(c, "Invalid input: "+err.Error())
		return
	}

	thread, err := e.Svc.CreateThread(c.Request.Context(), input)
	if err != nil {
		e.fail(c, err, "Failed to create thread")
		return
	}

	e.publish(ws.EventThreadCreated, thread)
	c.JSON(http.StatusCreated, thread)
}

func (e *Env) GetComments(c *gin.Context) {
	threadID, ok := parseID(c.Param("id"))
	if !ok {
		// No thread can match, which is an empty list rather than an error.
		c.JSON(http.StatusOK, []models.Comment{})
		return
	}

	comments, err := e.Svc.ListComments(c.Request.Context(), threadID)
	if err != nil {
		e.fail(c, err, "Failed to fetch comments")
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (e *Env) CreateComment(c *gin.Context) {
	threadID, ok := parseID(c.Param("id"))
	if !ok {
		badRequest(c, "Invalid thread ID")
		return
	}
	var input service.CommentInput
	if err := c.ShouldBind(&input); err != nil {
		badRequest(c, "Invalid input: "+err.Error())
		return
	}

	comment, err := e.Svc.CreateComment(c.Request.Context(), threadID, input)
	if err != nil {
		e.fail(c, err, "Failed to add comment")
		return
	}

	e.publish(ws.EventCommentCreated, comment)
	c.JSON(http.StatusCreated, comment)
}
