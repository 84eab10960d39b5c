package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/absensi-api/internal/middleware"
	"github.com/noah-isme/absensi-api/internal/models"
	"github.com/noah-isme/absensi-api/pkg/response"
)

type studentService interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	FindByCard(ctx context.Context, cardID string) (*models.Student, error)
}

// StudentHandler exposes the student registry.
type StudentHandler struct {
	service studentService
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(service studentService) *StudentHandler {
	return &StudentHandler{service: service}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Matches name, class or card id"
// @Param class query string false "Class label (alias kelas)"
// @Param level query int false "Grade level (alias tingkatan)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	level, err := optionalInt(firstQuery(c, "level", "tingkatan"), "level")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.StudentFilter{
		Search: c.Query("search"),
		Class:  firstQuery(c, "class", "kelas"),
		Level:  level,
	}

	students, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	meta := middleware.ExtractMeta(c)
	meta["total"] = len(students)
	response.OK(c, students, meta)
}

// ByCard godoc
// @Summary Find a student by scanner card id
// @Tags Students
// @Produce json
// @Param cardId path string true "Card ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /students/card/{cardId} [get]
func (h *StudentHandler) ByCard(c *gin.Context) {
	student, err := h.service.FindByCard(c.Request.Context(), c.Param("cardId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}
