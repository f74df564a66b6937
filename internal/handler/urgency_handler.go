package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apperrors "facetimer/backend/internal/errors"
	"facetimer/backend/internal/urgency"
)

type UrgencyHandler struct{}

type levelInfo struct {
	Level      urgency.Level      `json:"level"`
	Expression urgency.Expression `json:"expression"`
	Colour     urgency.Colour     `json:"colour"`
	Hex        string             `json:"hex"`
}

func NewUrgencyHandler() *UrgencyHandler {
	return &UrgencyHandler{}
}

// Classify answers GET /api/urgency?remaining=&initial= without touching
// any stored timer.
func (h *UrgencyHandler) Classify(c *gin.Context) {
	remaining, err := strconv.Atoi(c.Query("remaining"))
	if err != nil {
		writeInvalidQuery(c, "remaining must be an integer")
		return
	}
	initial, err := strconv.Atoi(c.Query("initial"))
	if err != nil {
		writeInvalidQuery(c, "initial must be an integer")
		return
	}

	c.JSON(http.StatusOK, gin.H{"urgency": urgency.Classify(remaining, initial)})
}

func (h *UrgencyHandler) Levels(c *gin.Context) {
	levels := make([]levelInfo, 0, len(urgency.Levels()))
	for _, level := range urgency.Levels() {
		levels = append(levels, describeLevel(level))
	}
	c.JSON(http.StatusOK, gin.H{"levels": levels})
}

func (h *UrgencyHandler) Level(c *gin.Context) {
	level, err := urgency.ParseLevel(c.Param("level"))
	if err != nil {
		writeError(c, apperrors.BadRequest(apperrors.CodeInvalidLevel, err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"level": describeLevel(level)})
}

func describeLevel(level urgency.Level) levelInfo {
	colour := level.Colour()
	return levelInfo{
		Level:      level,
		Expression: level.Expression(),
		Colour:     colour,
		Hex:        colour.Hex(),
	}
}
