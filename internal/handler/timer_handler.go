package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"facetimer/backend/internal/middleware"
	"facetimer/backend/internal/service"
)

const defaultTickSeconds = 1

type TimerHandler struct {
	timerService           *service.TimerService
	defaultDurationSeconds int
}

type createTimerRequest struct {
	Name            string `json:"name"`
	DurationSeconds *int   `json:"durationSeconds"`
}

type tickRequest struct {
	DeltaSeconds *int `json:"deltaSeconds"`
}

func NewTimerHandler(timerService *service.TimerService, defaultDurationSeconds int) *TimerHandler {
	return &TimerHandler{
		timerService:           timerService,
		defaultDurationSeconds: defaultDurationSeconds,
	}
}

func (h *TimerHandler) Create(c *gin.Context) {
	var req createTimerRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	duration := h.defaultDurationSeconds
	if req.DurationSeconds != nil {
		duration = *req.DurationSeconds
	}

	timer, apiErr := h.timerService.Create(scopedContext(c), service.CreateTimerInput{
		Name:           req.Name,
		InitialSeconds: duration,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"timer": timer})
}

func (h *TimerHandler) List(c *gin.Context) {
	timers, apiErr := h.timerService.List(scopedContext(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timers": timers})
}

func (h *TimerHandler) Get(c *gin.Context) {
	timer, apiErr := h.timerService.Get(scopedContext(c), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": timer})
}

func (h *TimerHandler) State(c *gin.Context) {
	state, apiErr := h.timerService.State(scopedContext(c), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state})
}

func (h *TimerHandler) Events(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeInvalidQuery(c, "limit must be an integer")
			return
		}
		limit = parsed
	}

	events, apiErr := h.timerService.Events(scopedContext(c), c.Param("id"), limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *TimerHandler) Tick(c *gin.Context) {
	var req tickRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	delta := defaultTickSeconds
	if req.DeltaSeconds != nil {
		delta = *req.DeltaSeconds
	}

	timer, apiErr := h.timerService.Tick(scopedContext(c), c.Param("id"), delta)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": timer})
}

func (h *TimerHandler) Pause(c *gin.Context) {
	timer, apiErr := h.timerService.Pause(scopedContext(c), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": timer})
}

func (h *TimerHandler) Resume(c *gin.Context) {
	timer, apiErr := h.timerService.Resume(scopedContext(c), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": timer})
}

func (h *TimerHandler) Reset(c *gin.Context) {
	timer, apiErr := h.timerService.Reset(scopedContext(c), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"timer": timer})
}

func (h *TimerHandler) Delete(c *gin.Context) {
	if apiErr := h.timerService.Delete(scopedContext(c), c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	noContent(c)
}

// scopedContext limits timer operations to the authenticated user.
func scopedContext(c *gin.Context) context.Context {
	return service.WithOwner(c.Request.Context(), middleware.UserID(c))
}

// bindOptionalJSON accepts an empty body as the zero value. It writes the
// error response itself and reports whether the handler should continue.
func bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		writeInvalidJSON(c)
		return false
	}
	return true
}
