package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// mockCollector はMetricsCollectorのテスト用モック。
type mockCollector struct {
	statuses []int
}

func (m *mockCollector) RecordRefreshSuccess(feedID string)                {}
func (m *mockCollector) RecordRefreshFailure(feedID string, reason string) {}
func (m *mockCollector) RecordParseFailure(feedID string)                  {}
func (m *mockCollector) RecordHTTPStatus(statusCode int)                   { m.statuses = append(m.statuses, statusCode) }
func (m *mockCollector) RecordRefreshLatency(duration time.Duration)       {}
func (m *mockCollector) RecordArticlesInserted(count int)                  {}

// TestMetricsMiddleware_RecordsStatusCode はレスポンスステータスが記録されることを検証する。
func TestMetricsMiddleware_RecordsStatusCode(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"200 OK", http.StatusOK},
		{"404 Not Found", http.StatusNotFound},
		{"500 Internal Server Error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := &mockCollector{}
			handler := NewMetricsMiddleware(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/feeds", nil)
			handler.ServeHTTP(httptest.NewRecorder(), req)

			if len(collector.statuses) != 1 || collector.statuses[0] != tt.statusCode {
				t.Errorf("recorded statuses = %v, want [%d]", collector.statuses, tt.statusCode)
			}
		})
	}
}

// TestMetricsMiddleware_DefaultsTo200 はWriteHeader未呼び出し時に200が記録されることを検証する。
func TestMetricsMiddleware_DefaultsTo200(t *testing.T) {
	collector := &mockCollector{}
	handler := NewMetricsMiddleware(collector)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/feeds", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if len(collector.statuses) != 1 || collector.statuses[0] != http.StatusOK {
		t.Errorf("recorded statuses = %v, want [200]", collector.statuses)
	}
}
