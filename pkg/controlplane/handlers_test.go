package controlplane

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/cfdpgo"
	"github.com/marmos91/cfdpgo/filestore"
	"github.com/marmos91/cfdpgo/mib"
	"github.com/marmos91/cfdpgo/pkg/auditstore"
)

func newTestHandlers(t *testing.T) (*Handlers, *filestore.Memory) {
	t.Helper()
	fs := filestore.NewMemory()
	m := mib.NewStatic()
	entry := cfdp.Entry{
		EntityID:                2,
		DefaultTransmissionMode: cfdp.TransmissionModeUnacknowledged,
		MaxFileSegmentLength:    1024,
		DefaultChecksumType:     cfdp.ChecksumCRC32C,
		PositiveAckTimeout:      time.Second,
		PositiveAckLimit:        3,
		NakTimeout:              time.Second,
		NakLimit:                3,
	}
	m.Set(entry)
	source := cfdp.NewSourceHandler(cfdp.EntityID(1), fs, m, entry, cfdp.NoOpIndications{}, nil)
	return NewHandlers(source, m, NewStatusTracker(), nil), fs
}

func TestHandleHealth(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.HandleHealth(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandleSubmitTransaction_RejectsMissingFields(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandlers(t)

	body, _ := json.Marshal(map[string]any{"source_file_path": "/a"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleSubmitTransaction(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSubmitTransaction_RejectsInvalidJSON(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	h.HandleSubmitTransaction(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSubmitTransaction_SubmitsAndRecordsStatus(t *testing.T) {
	t.Parallel()
	h, fs := newTestHandlers(t)
	fs.Seed("/src/f.bin", []byte("payload"))

	body, _ := json.Marshal(map[string]any{
		"destination_entity_id": 2,
		"source_file_path":      "/src/f.bin",
		"destination_file_path": "/dst/f.bin",
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleSubmitTransaction(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp submitTransactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.TransactionID)

	status, ok := h.Status.Get(resp.TransactionID)
	require.True(t, ok)
	assert.Equal(t, resp.TransactionID, status.ID)
}

func TestHandleGetTransaction_NotFound(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transactions/bogus", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "bogus")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	h.HandleGetTransaction(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetMIBEntry_ReturnsConfiguredEntry(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/mib/2", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("entityID", "2")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	h.HandleGetMIBEntry(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp mibEntryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(2), resp.EntityID)
	assert.Equal(t, "crc32c", resp.DefaultChecksumType)
}

func TestHandleGetMIBEntry_UnknownEntityNotFound(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/mib/999", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("entityID", "999")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	h.HandleGetMIBEntry(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetMIBEntry_InvalidEntityID(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/mib/not-a-number", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("entityID", "not-a-number")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	h.HandleGetMIBEntry(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetAuditRecord_UnconfiguredReturnsServiceUnavailable(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/1:2:1", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "1:2:1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	h.HandleGetAuditRecord(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleGetAuditRecord_FoundReturnsRecord(t *testing.T) {
	t.Parallel()
	h, _ := newTestHandlers(t)
	store, err := auditstore.Open(&auditstore.Config{
		Type:   auditstore.DatabaseTypeSQLite,
		SQLite: auditstore.SQLiteConfig{Path: t.TempDir() + "/audit.db"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	h.Audit = store

	require.NoError(t, store.RecordStarted(context.Background(), auditstore.TransactionRecord{
		ID:                  "1:2:1",
		SourceEntityID:      1,
		DestinationEntityID: 2,
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/audit/1:2:1", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "1:2:1")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	h.HandleGetAuditRecord(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1:2:1", body["id"])
}

func TestStatusTracker_RecordOmitsIdleSteps(t *testing.T) {
	t.Parallel()
	tracker := NewStatusTracker()
	id := cfdp.TransactionID{SourceEntityID: 1, DestinationEntityID: 2, SequenceNumber: 1}

	tracker.Record(cfdp.FsmResult{TransactionID: id, SourceStep: cfdp.SourceIdle, DestStep: cfdp.DestIdle})

	status, ok := tracker.Get(id.String())
	require.True(t, ok)
	assert.Empty(t, status.SourceStep)
	assert.Empty(t, status.DestStep)
}
