package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chalosafe/safezone/module/core/domain"
)

type locationService interface {
	SaveLocation(ctx context.Context, s *domain.Sample) error
	GetLatest(ctx context.Context, subjectID string) (*domain.Sample, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.Sample, error)
	GetAllSubjects(ctx context.Context) ([]domain.Subject, error)
}

type locationResponse struct {
	SubjectID string  `json:"subject_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Accuracy  float64 `json:"accuracy,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

type SubjectHandler struct {
	locationSvc locationService
}

func NewSubjectHandler(locationSvc locationService) *SubjectHandler {
	return &SubjectHandler{locationSvc: locationSvc}
}

func (h *SubjectHandler) Register(r *gin.RouterGroup) {
	r.GET("/subjects", h.GetAllSubjects)
	r.GET("/subjects/:subject_id/location", h.GetLatestLocation)
	r.GET("/subjects/:subject_id/history", h.GetHistory)
}

func (h *SubjectHandler) GetAllSubjects(c *gin.Context) {
	subjects, err := h.locationSvc.GetAllSubjects(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch subjects"})
		return
	}
	if subjects == nil {
		subjects = []domain.Subject{}
	}

	c.JSON(http.StatusOK, subjects)
}

func (h *SubjectHandler) GetLatestLocation(c *gin.Context) {
	subjectID := c.Param("subject_id")

	s, err := h.locationSvc.GetLatest(c.Request.Context(), subjectID)
	if errors.Is(err, domain.ErrSubjectNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "subject not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch location"})
		return
	}

	c.JSON(http.StatusOK, toLocationResponse(s))
}

func (h *SubjectHandler) GetHistory(c *gin.Context) {
	subjectID := c.Param("subject_id")

	start, err := strconv.ParseInt(c.Query("start"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start parameter"})
		return
	}

	end, err := strconv.ParseInt(c.Query("end"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end parameter"})
		return
	}
	if end < start {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must not be before start"})
		return
	}

	query := &domain.HistoryQuery{
		SubjectID: subjectID,
		Start:     time.Unix(start, 0),
		End:       time.Unix(end, 0),
	}

	samples, err := h.locationSvc.GetHistory(c.Request.Context(), query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}

	results := make([]locationResponse, len(samples))
	for i := range samples {
		results[i] = toLocationResponse(&samples[i])
	}
	c.JSON(http.StatusOK, results)
}

func toLocationResponse(s *domain.Sample) locationResponse {
	return locationResponse{
		SubjectID: s.SubjectID,
		Latitude:  s.Position.Lat,
		Longitude: s.Position.Lon,
		Accuracy:  s.Accuracy,
		Timestamp: s.Timestamp.Unix(),
	}
}
