// Package testutil provides testing utilities for the gallery API
// cache.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/mvollmer/gallery-api-cache/pkg/gallery"
)

// MockGalleryAPI is a configurable mock upstream gallery API for
// testing. It serves a paginated, filterable case listing plus
// single-case, sidebar, carousel, and filters endpoints, and counts
// requests so tests can assert "zero upstream calls" properties.
type MockGalleryAPI struct {
	server *httptest.Server

	mu       sync.RWMutex
	cases    []gallery.CaseRecord
	pageSize int
	handlers map[string]http.HandlerFunc

	// Tracking
	RequestCount  int
	ListRequests  int
	CaseRequests  int
	LastRequestID int64
}

// NewMockGalleryAPI creates a mock server with no cases loaded.
func NewMockGalleryAPI() *MockGalleryAPI {
	mock := &MockGalleryAPI{
		pageSize: 50,
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()
		if exists {
			handler(w, r)
			return
		}

		mock.route(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockGalleryAPI) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockGalleryAPI) Close() {
	m.server.Close()
}

// Reset clears tracking counters.
func (m *MockGalleryAPI) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.ListRequests = 0
	m.CaseRequests = 0
	m.LastRequestID = 0
}

// SetCases replaces the case fixture set.
func (m *MockGalleryAPI) SetCases(cases []gallery.CaseRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cases = cases
}

// AddCase appends one case to the fixture set.
func (m *MockGalleryAPI) AddCase(record gallery.CaseRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cases = append(m.cases, record)
}

// SetPageSize changes the listing page size (default 50).
func (m *MockGalleryAPI) SetPageSize(size int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pageSize = size
}

// SetHandler installs a custom handler for a path, overriding the
// built-in routing (e.g. to simulate a 500).
func (m *MockGalleryAPI) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// GetRequestCount returns the total number of requests served.
func (m *MockGalleryAPI) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetCaseRequests returns the number of single-case fetches served.
func (m *MockGalleryAPI) GetCaseRequests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.CaseRequests
}

func (m *MockGalleryAPI) route(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/api/v1/cases":
		m.handleList(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/cases/"):
		m.handleCase(w, r)
	case r.URL.Path == "/api/v1/sidebar":
		writeJSON(w, map[string]any{"procedures": []any{}})
	case r.URL.Path == "/api/v1/carousel":
		writeJSON(w, map[string]any{"slides": []any{}})
	case r.URL.Path == "/api/v1/filters":
		writeJSON(w, map[string]any{"filters": []any{}})
	default:
		http.NotFound(w, r)
	}
}

func (m *MockGalleryAPI) handleList(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.ListRequests++
	m.mu.Unlock()

	query := r.URL.Query()
	var procedureIDs []int64
	if raw := query.Get("procedure_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if id, err := strconv.ParseInt(part, 10, 64); err == nil {
				procedureIDs = append(procedureIDs, id)
			}
		}
	}
	memberID, _ := strconv.ParseInt(query.Get("member_id"), 10, 64)
	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []gallery.CaseRecord
	for _, record := range m.cases {
		if memberID > 0 && record.MemberID != memberID {
			continue
		}
		if len(procedureIDs) > 0 && !hasAnyProcedure(record, procedureIDs) {
			continue
		}
		matched = append(matched, record)
	}

	totalPages := (len(matched) + m.pageSize - 1) / m.pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	start := (page - 1) * m.pageSize
	if start > len(matched) {
		start = len(matched)
	}
	end := start + m.pageSize
	if end > len(matched) {
		end = len(matched)
	}

	writeJSON(w, gallery.CaseList{
		Cases:      matched[start:end],
		Page:       page,
		TotalPages: totalPages,
	})
}

func (m *MockGalleryAPI) handleCase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/api/v1/cases/"), 10, 64)
	if err != nil {
		http.Error(w, `{"error": "bad case id"}`, http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.CaseRequests++
	m.LastRequestID = id
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, record := range m.cases {
		if record.CaseID == id {
			writeJSON(w, record)
			return
		}
	}
	http.Error(w, `{"error": "case not found"}`, http.StatusNotFound)
}

func hasAnyProcedure(record gallery.CaseRecord, ids []int64) bool {
	for _, want := range ids {
		for _, have := range record.ProcedureIDs {
			if want == have {
				return true
			}
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	data, _ := json.Marshal(v)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
