package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chalosafe/safezone/module/core/domain"
	"github.com/chalosafe/safezone/module/core/service"
)

type monitor interface {
	Process(ctx context.Context, sample domain.Sample) (service.Outcome, error)
	Acknowledge(ctx context.Context, subjectID, alertID string) (domain.Alert, error)
	Alerts(ctx context.Context, subjectID string) ([]domain.Alert, int)
	Score(ctx context.Context, subjectID string) int
	Membership(ctx context.Context, subjectID string) []string
}

type advisor interface {
	Analyze(ts time.Time) domain.Advisory
}

type zoneLister interface {
	ListZones() []domain.Zone
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Timestamp int64    `json:"timestamp"`
	Accuracy  float64  `json:"accuracy"`
}

type locationResult struct {
	service.Outcome
	Advisory domain.Advisory `json:"advisory"`
}

type alertsResponse struct {
	Alerts      []domain.Alert `json:"alerts"`
	UnreadCount int            `json:"unread_count"`
}

type scoreResponse struct {
	SubjectID string   `json:"subject_id"`
	Score     int      `json:"score"`
	Zones     []string `json:"zones"`
}

// SafetyHandler exposes position reporting, alerts and safety scores.
type SafetyHandler struct {
	monitor     monitor
	advisor     advisor
	zones       zoneLister
	locationSvc locationService
	logger      *zap.Logger
	now         func() time.Time
}

func NewSafetyHandler(m monitor, a advisor, zones zoneLister, locationSvc locationService, logger *zap.Logger) *SafetyHandler {
	return &SafetyHandler{
		monitor:     m,
		advisor:     a,
		zones:       zones,
		locationSvc: locationSvc,
		logger:      logger,
		now:         time.Now,
	}
}

func (h *SafetyHandler) Register(r *gin.RouterGroup) {
	r.GET("/zones", h.ListZones)
	r.POST("/subjects/:subject_id/locations", h.ReportLocation)
	r.GET("/subjects/:subject_id/alerts", h.ListAlerts)
	r.PUT("/subjects/:subject_id/alerts/:alert_id/acknowledge", h.AcknowledgeAlert)
	r.GET("/subjects/:subject_id/score", h.GetScore)
}

func (h *SafetyHandler) ListZones(c *gin.Context) {
	c.JSON(http.StatusOK, h.zones.ListZones())
}

// ReportLocation evaluates one position synchronously and returns what it
// caused. A missing timestamp means now.
func (h *SafetyHandler) ReportLocation(c *gin.Context) {
	var req locationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
		return
	}

	ts := h.now().UTC()
	if req.Timestamp > 0 {
		ts = time.Unix(req.Timestamp, 0).UTC()
	}
	sample := domain.Sample{
		SubjectID: c.Param("subject_id"),
		Position:  domain.Coordinate{Lat: *req.Latitude, Lon: *req.Longitude},
		Timestamp: ts,
		Accuracy:  req.Accuracy,
	}

	ctx := c.Request.Context()
	out, err := h.monitor.Process(ctx, sample)
	if errors.Is(err, domain.ErrInvalidPosition) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process location"})
		return
	}

	if !out.Dropped {
		if err := h.locationSvc.SaveLocation(ctx, &sample); err != nil {
			h.logger.Error("save location", zap.String("subject_id", sample.SubjectID), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, locationResult{Outcome: out, Advisory: h.advisor.Analyze(ts)})
}

func (h *SafetyHandler) ListAlerts(c *gin.Context) {
	alerts, unread := h.monitor.Alerts(c.Request.Context(), c.Param("subject_id"))
	if alerts == nil {
		alerts = []domain.Alert{}
	}
	c.JSON(http.StatusOK, alertsResponse{Alerts: alerts, UnreadCount: unread})
}

func (h *SafetyHandler) AcknowledgeAlert(c *gin.Context) {
	alert, err := h.monitor.Acknowledge(c.Request.Context(), c.Param("subject_id"), c.Param("alert_id"))
	if errors.Is(err, domain.ErrAlertNotFound) || errors.Is(err, domain.ErrSubjectNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "alert not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to acknowledge alert"})
		return
	}
	c.JSON(http.StatusOK, alert)
}

func (h *SafetyHandler) GetScore(c *gin.Context) {
	ctx := c.Request.Context()
	subjectID := c.Param("subject_id")

	zones := h.monitor.Membership(ctx, subjectID)
	if zones == nil {
		zones = []string{}
	}
	c.JSON(http.StatusOK, scoreResponse{
		SubjectID: subjectID,
		Score:     h.monitor.Score(ctx, subjectID),
		Zones:     zones,
	})
}
