package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/chalosafe/safezone/module/core/domain"
)

type mockLocationService struct {
	saveLocationFn   func(ctx context.Context, s *domain.Sample) error
	getLatestFn      func(ctx context.Context, subjectID string) (*domain.Sample, error)
	getHistoryFn     func(ctx context.Context, query *domain.HistoryQuery) ([]domain.Sample, error)
	getAllSubjectsFn func(ctx context.Context) ([]domain.Subject, error)
}

func (m *mockLocationService) SaveLocation(ctx context.Context, s *domain.Sample) error {
	return m.saveLocationFn(ctx, s)
}

func (m *mockLocationService) GetLatest(ctx context.Context, subjectID string) (*domain.Sample, error) {
	return m.getLatestFn(ctx, subjectID)
}

func (m *mockLocationService) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.Sample, error) {
	return m.getHistoryFn(ctx, query)
}

func (m *mockLocationService) GetAllSubjects(ctx context.Context) ([]domain.Subject, error) {
	return m.getAllSubjectsFn(ctx)
}

func setupSubjectRouter(svc locationService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewSubjectHandler(svc)
	h.Register(r.Group(""))
	return r
}

func TestGetLatestLocation_Success(t *testing.T) {
	ts := time.Unix(1715003456, 0)
	svc := &mockLocationService{
		getLatestFn: func(_ context.Context, subjectID string) (*domain.Sample, error) {
			if subjectID != "DT-1001" {
				t.Fatalf("unexpected subjectID: %s", subjectID)
			}
			return &domain.Sample{
				SubjectID: "DT-1001",
				Position:  domain.Coordinate{Lat: 28.6139, Lon: 77.209},
				Timestamp: ts,
			}, nil
		},
	}

	r := setupSubjectRouter(svc)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/subjects/DT-1001/location", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp locationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.SubjectID != "DT-1001" {
		t.Errorf("expected DT-1001, got %s", resp.SubjectID)
	}
	if resp.Latitude != 28.6139 {
		t.Errorf("expected 28.6139, got %f", resp.Latitude)
	}
	if resp.Timestamp != 1715003456 {
		t.Errorf("expected 1715003456, got %d", resp.Timestamp)
	}
}

func TestGetLatestLocation_NotFound(t *testing.T) {
	svc := &mockLocationService{
		getLatestFn: func(_ context.Context, _ string) (*domain.Sample, error) {
			return nil, domain.ErrSubjectNotFound
		},
	}

	r := setupSubjectRouter(svc)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/subjects/UNKNOWN/location", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestGetLatestLocation_Error(t *testing.T) {
	svc := &mockLocationService{
		getLatestFn: func(_ context.Context, _ string) (*domain.Sample, error) {
			return nil, errors.New("db error")
		},
	}

	r := setupSubjectRouter(svc)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/subjects/DT-1001/location", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestGetHistory_Success(t *testing.T) {
	ts1 := time.Unix(1715000000, 0)
	ts2 := time.Unix(1715005000, 0)
	svc := &mockLocationService{
		getHistoryFn: func(_ context.Context, query *domain.HistoryQuery) ([]domain.Sample, error) {
			if query.SubjectID != "DT-1001" {
				t.Fatalf("unexpected subjectID: %s", query.SubjectID)
			}
			return []domain.Sample{
				{SubjectID: "DT-1001", Position: domain.Coordinate{Lat: 28.61, Lon: 77.20}, Timestamp: ts1},
				{SubjectID: "DT-1001", Position: domain.Coordinate{Lat: 28.62, Lon: 77.21}, Timestamp: ts2},
			}, nil
		},
	}

	r := setupSubjectRouter(svc)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/subjects/DT-1001/history?start=1715000000&end=1715009999", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp []locationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp))
	}
}

func TestGetHistory_BadParams(t *testing.T) {
	tests := map[string]string{
		"invalid start": "/subjects/DT-1001/history?start=abc&end=1715009999",
		"invalid end":   "/subjects/DT-1001/history?start=1715000000&end=abc",
		"reversed":      "/subjects/DT-1001/history?start=1715009999&end=1715000000",
	}
	for name, url := range tests {
		t.Run(name, func(t *testing.T) {
			r := setupSubjectRouter(&mockLocationService{})
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", url, nil)
			r.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", w.Code)
			}
		})
	}
}

func TestGetHistory_ServiceError(t *testing.T) {
	svc := &mockLocationService{
		getHistoryFn: func(_ context.Context, _ *domain.HistoryQuery) ([]domain.Sample, error) {
			return nil, errors.New("db error")
		},
	}

	r := setupSubjectRouter(svc)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/subjects/DT-1001/history?start=1715000000&end=1715009999", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestGetAllSubjects_Success(t *testing.T) {
	svc := &mockLocationService{
		getAllSubjectsFn: func(_ context.Context) ([]domain.Subject, error) {
			return []domain.Subject{{SubjectID: "DT-1001"}, {SubjectID: "DT-1002"}}, nil
		},
	}

	r := setupSubjectRouter(svc)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/subjects", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp []domain.Subject
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(resp))
	}
	if resp[0].SubjectID != "DT-1001" {
		t.Errorf("expected DT-1001, got %s", resp[0].SubjectID)
	}
}

func TestGetAllSubjects_Error(t *testing.T) {
	svc := &mockLocationService{
		getAllSubjectsFn: func(_ context.Context) ([]domain.Subject, error) {
			return nil, errors.New("db error")
		},
	}

	r := setupSubjectRouter(svc)
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/subjects", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
