package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chalosafe/safezone/module/core/domain"
	"github.com/chalosafe/safezone/module/core/service"
)

type emergencyService interface {
	Raise(ctx context.Context, req service.SOSRequest) (*domain.Emergency, error)
	Resolve(ctx context.Context, id string) (*domain.Emergency, error)
	ListActive(ctx context.Context) ([]domain.Emergency, error)
}

type sosRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
	Message   string   `json:"message"`
	Type      string   `json:"type"`
	Severity  string   `json:"severity"`
}

type EmergencyHandler struct {
	svc emergencyService
}

func NewEmergencyHandler(svc emergencyService) *EmergencyHandler {
	return &EmergencyHandler{svc: svc}
}

func (h *EmergencyHandler) Register(r *gin.RouterGroup) {
	r.POST("/subjects/:subject_id/emergency", h.Raise)
	r.GET("/emergencies", h.ListActive)
	r.PUT("/emergencies/:id/resolve", h.Resolve)
}

func (h *EmergencyHandler) Raise(c *gin.Context) {
	var req sosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "latitude and longitude are required"})
		return
	}

	var severity domain.Severity
	if req.Severity != "" {
		s, err := domain.ParseSeverity(req.Severity)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		severity = s
	}

	e, err := h.svc.Raise(c.Request.Context(), service.SOSRequest{
		SubjectID: c.Param("subject_id"),
		Position:  domain.Coordinate{Lat: *req.Latitude, Lon: *req.Longitude},
		Message:   req.Message,
		Type:      req.Type,
		Severity:  severity,
	})
	if errors.Is(err, domain.ErrInvalidPosition) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to raise emergency"})
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *EmergencyHandler) ListActive(c *gin.Context) {
	list, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch emergencies"})
		return
	}
	if list == nil {
		list = []domain.Emergency{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *EmergencyHandler) Resolve(c *gin.Context) {
	e, err := h.svc.Resolve(c.Request.Context(), c.Param("id"))
	if errors.Is(err, domain.ErrEmergencyNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "emergency not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve emergency"})
		return
	}
	c.JSON(http.StatusOK, e)
}
