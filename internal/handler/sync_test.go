package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fleetops/dispatch-board/internal/models"
	"github.com/fleetops/dispatch-board/internal/service"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubSheetStore struct {
	stored []models.SheetRecord
}

func (s *stubSheetStore) UpsertBatch(ctx context.Context, records []models.SheetRecord) (int, error) {
	s.stored = append(s.stored, records...)
	return len(records), nil
}

func (s *stubSheetStore) List(ctx context.Context, tripNumber string, limit int) ([]models.SheetRecord, error) {
	return s.stored, nil
}

type stubFetcher struct {
	values [][]interface{}
	err    error
	called bool
}

func (s *stubFetcher) FetchValues(ctx context.Context) ([][]interface{}, error) {
	s.called = true
	return s.values, s.err
}

func syncRouter(store service.SheetRecordStore, fetcher service.SheetFetcher, secret string) *gin.Engine {
	r := gin.New()
	h := NewSyncHandler(service.NewSyncService(store, fetcher), secret)
	r.POST("/webhooks/sheets/sync", h.Sync)
	return r
}

func TestSyncHandler_PostedRows(t *testing.T) {
	store := &stubSheetStore{}
	r := syncRouter(store, &stubFetcher{}, "s3cret")

	body := `{"rows":[
		{"Trip Number":"LT1","TO Number":"TO-1"},
		{"Origin":"no trip here"}
	]}`
	req := httptest.NewRequest("POST", "/webhooks/sheets/sync", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Sync-Secret", "s3cret")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Synced  int `json:"synced"`
		Ignored int `json:"ignored"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if resp.Synced != 1 || resp.Ignored != 1 {
		t.Fatalf("expected synced=1 ignored=1, got %+v", resp)
	}
}

// Chunked transfer-encoding leaves ContentLength at -1; posted rows
// must still be consumed rather than falling back to the live fetch.
func TestSyncHandler_UnknownContentLengthBody(t *testing.T) {
	store := &stubSheetStore{}
	fetcher := &stubFetcher{}
	r := syncRouter(store, fetcher, "")

	body := `{"rows":[{"Trip Number":"LT1"}]}`
	// Wrapping the reader hides its length from httptest.NewRequest.
	req := httptest.NewRequest("POST", "/webhooks/sheets/sync", io.MultiReader(strings.NewReader(body)))
	req.Header.Set("Content-Type", "application/json")
	if req.ContentLength != -1 {
		t.Fatalf("test setup: expected unknown content length, got %d", req.ContentLength)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if fetcher.called {
		t.Fatalf("posted rows must not trigger the live fetch")
	}
	if len(store.stored) != 1 || store.stored[0].TripNumber != "LT1" {
		t.Fatalf("posted rows were not ingested: %+v", store.stored)
	}
}

func TestSyncHandler_EmptyBodyFallsBackToFetch(t *testing.T) {
	store := &stubSheetStore{}
	fetcher := &stubFetcher{
		values: [][]interface{}{
			{"Trip Number"},
			{"LT7"},
		},
	}
	r := syncRouter(store, fetcher, "")

	req := httptest.NewRequest("POST", "/webhooks/sheets/sync", nil)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !fetcher.called {
		t.Fatalf("empty body must fall back to the live fetch")
	}
	if len(store.stored) != 1 || store.stored[0].TripNumber != "LT7" {
		t.Fatalf("fetched rows were not ingested: %+v", store.stored)
	}
}

func TestSyncHandler_RejectsBadSecret(t *testing.T) {
	r := syncRouter(&stubSheetStore{}, &stubFetcher{}, "s3cret")

	req := httptest.NewRequest("POST", "/webhooks/sheets/sync", strings.NewReader(`{"rows":[]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Sync-Secret", "wrong")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestSyncHandler_ArrayRowsWithHeaders(t *testing.T) {
	store := &stubSheetStore{}
	r := syncRouter(store, &stubFetcher{}, "")

	body := `{"headers":["Trip Number","Vehicle Number"],"rows":[["LT5","B 1234 XYZ"]]}`
	req := httptest.NewRequest("POST", "/webhooks/sheets/sync", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(store.stored) != 1 || store.stored[0].VehicleNumber != "B 1234 XYZ" {
		t.Fatalf("unexpected stored records: %+v", store.stored)
	}
}
