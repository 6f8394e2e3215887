package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type fakePinger struct {
	err error
}

func (p *fakePinger) Ping(ctx context.Context) error { return p.err }

type unhealthyQueue struct {
	fakeQueue
}

func (q *unhealthyQueue) HealthCheck(ctx context.Context) error {
	return errors.New("connection closed")
}

func TestHealthCheckBasic(t *testing.T) {
	t.Parallel()

	checker := NewHealthChecker(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	checker.HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var response HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if response.Status != "healthy" {
		t.Errorf("status = %q", response.Status)
	}
	if response.Checks != nil {
		t.Error("basic mode ran dependency checks")
	}
}

func TestHealthCheckExtended(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		db         Pinger
		wantCode   int
		wantStatus string
	}{
		{
			name:       "all healthy",
			db:         &fakePinger{},
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
		},
		{
			name:       "database down",
			db:         &fakePinger{err: errors.New("connection refused")},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "unhealthy",
		},
		{
			name:       "no dependencies configured",
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			checker := NewHealthChecker(tt.db, nil)
			req := httptest.NewRequest(http.MethodGet, "/healthz?mode=extended", nil)
			rec := httptest.NewRecorder()
			checker.HealthCheck(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status code = %d, want %d", rec.Code, tt.wantCode)
			}
			var response HealthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if response.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", response.Status, tt.wantStatus)
			}
		})
	}
}

func TestHealthCheckExtendedQueueDown(t *testing.T) {
	t.Parallel()

	checker := NewHealthChecker(&fakePinger{}, &unhealthyQueue{})
	req := httptest.NewRequest(http.MethodGet, "/healthz?mode=extended", nil)
	rec := httptest.NewRecorder()
	checker.HealthCheck(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	var response HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if response.Checks["database"] != "healthy" {
		t.Errorf("database check = %q", response.Checks["database"])
	}
	if response.Checks["queue"] == "healthy" {
		t.Error("queue reported healthy while down")
	}
}
