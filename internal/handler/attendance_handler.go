package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/absensi-api/internal/dto"
	"github.com/noah-isme/absensi-api/internal/middleware"
	"github.com/noah-isme/absensi-api/internal/models"
	"github.com/noah-isme/absensi-api/internal/service"
	appErrors "github.com/noah-isme/absensi-api/pkg/errors"
	"github.com/noah-isme/absensi-api/pkg/response"
)

type checkinService interface {
	SubmitNow(ctx context.Context, studentIDs []int64) (*service.CheckinResult, error)
	CheckinByCard(ctx context.Context, cardID string) (*service.CheckinResult, error)
	Recent(ctx context.Context, limit int) ([]models.RecentVisit, error)
}

// AttendanceHandler accepts check-ins from the manual-entry page and card scanners.
type AttendanceHandler struct {
	service   checkinService
	validator *validator.Validate
}

// NewAttendanceHandler constructs the handler.
func NewAttendanceHandler(service checkinService, validate *validator.Validate) *AttendanceHandler {
	if validate == nil {
		validate = validator.New()
	}
	return &AttendanceHandler{service: service, validator: validate}
}

// Submit godoc
// @Summary Record check-ins for today
// @Description Duplicate ids and students already checked in today are skipped. Responds 409 when nothing was recorded.
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body []dto.CheckinItem true "Ordered student ids"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Security DeviceToken
// @Router /attendance [post]
func (h *AttendanceHandler) Submit(c *gin.Context) {
	var req dto.CheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid check-in payload"))
		return
	}
	result, err := h.service.SubmitNow(c.Request.Context(), req.StudentIDs())
	h.respond(c, result, err)
}

// Scan godoc
// @Summary Record a check-in from a scanned card
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.ScanRequest true "Card read"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security DeviceToken
// @Router /attendance/scan [post]
func (h *AttendanceHandler) Scan(c *gin.Context) {
	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid scan payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "cardId is required"))
		return
	}
	result, err := h.service.CheckinByCard(c.Request.Context(), req.CardID)
	h.respond(c, result, err)
}

// Recent godoc
// @Summary Most recent visits
// @Tags Attendance
// @Produce json
// @Param limit query int false "Maximum rows (1-100)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /attendance/recent [get]
func (h *AttendanceHandler) Recent(c *gin.Context) {
	var query dto.RecentVisitsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be an integer"))
		return
	}
	if err := h.validator.Struct(query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "limit must be between 1 and 100"))
		return
	}
	visits, err := h.service.Recent(c.Request.Context(), query.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, visits)
}

func (h *AttendanceHandler) respond(c *gin.Context, result *service.CheckinResult, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	if result.AllAlreadyRecorded {
		response.Error(c, appErrors.WithDetails(appErrors.ErrAlreadyCheckedIn, map[string]interface{}{
			"date":    result.Date,
			"skipped": result.Skipped,
		}))
		return
	}
	meta := middleware.ExtractMeta(c)
	meta["date"] = result.Date
	meta["skipped"] = result.Skipped
	if result.Student != nil {
		meta["student"] = result.Student
	}
	response.Created(c, result.Inserted, meta)
}
