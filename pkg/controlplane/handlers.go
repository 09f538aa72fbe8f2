package controlplane

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/cfdpgo"
	"github.com/marmos91/cfdpgo/pkg/auditstore"
)

// TransactionStatus is the control plane's view of one transaction's
// progress, recorded from FsmResult as the engine drives it forward.
type TransactionStatus struct {
	ID         string    `json:"id"`
	SourceStep string    `json:"source_step,omitempty"`
	DestStep   string    `json:"dest_step,omitempty"`
	Terminal   bool      `json:"terminal"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StatusTracker is a thread-safe table of TransactionStatus, updated when
// the control plane submits a transaction and read by the control-plane API.
type StatusTracker struct {
	mu    sync.RWMutex
	table map[string]TransactionStatus
}

// NewStatusTracker returns an empty StatusTracker.
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{table: make(map[string]TransactionStatus)}
}

// Record stores or updates the status for an FsmResult's transaction.
func (t *StatusTracker) Record(result cfdp.FsmResult) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := result.TransactionID.String()
	status := TransactionStatus{
		ID:        id,
		Terminal:  result.Terminal,
		UpdatedAt: time.Now(),
	}
	if result.SourceStep != cfdp.SourceIdle {
		status.SourceStep = result.SourceStep.String()
	}
	if result.DestStep != cfdp.DestIdle {
		status.DestStep = result.DestStep.String()
	}
	t.table[id] = status
}

// Get returns the recorded status for a transaction ID string.
func (t *StatusTracker) Get(id string) (TransactionStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	status, ok := t.table[id]
	return status, ok
}

// Handlers implements the control plane's HTTP endpoints: submitting Put
// Requests to a local SourceHandler, polling transaction status, and
// inspecting MIB entries.
type Handlers struct {
	Source *cfdp.SourceHandler
	MIB    cfdp.MIB
	Status *StatusTracker
	Audit  *auditstore.Store
}

// NewHandlers wires a Handlers against the given source handler, MIB,
// status tracker, and audit store. audit may be nil if no audit backend is
// configured, in which case HandleGetAuditRecord reports it unavailable.
func NewHandlers(source *cfdp.SourceHandler, mib cfdp.MIB, status *StatusTracker, audit *auditstore.Store) *Handlers {
	return &Handlers{Source: source, MIB: mib, Status: status, Audit: audit}
}

func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type submitTransactionRequest struct {
	DestinationEntityID uint64 `json:"destination_entity_id"`
	SourceFilePath      string `json:"source_file_path"`
	DestinationFilePath string `json:"destination_file_path"`
	Acknowledged        bool   `json:"acknowledged"`
	ClosureRequested    bool   `json:"closure_requested"`
}

type submitTransactionResponse struct {
	TransactionID string `json:"transaction_id"`
}

// HandleSubmitTransaction issues a Put Request against the local
// SourceHandler and returns the assigned transaction ID.
func (h *Handlers) HandleSubmitTransaction(w http.ResponseWriter, r *http.Request) {
	var body submitTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if body.DestinationEntityID == 0 || body.SourceFilePath == "" || body.DestinationFilePath == "" {
		http.Error(w, "destination_entity_id, source_file_path, and destination_file_path are required", http.StatusBadRequest)
		return
	}

	mode := cfdp.TransmissionModeUnacknowledged
	if body.Acknowledged {
		mode = cfdp.TransmissionModeAcknowledged
	}

	req := cfdp.PutRequest{
		DestinationEntityID: cfdp.EntityID(body.DestinationEntityID),
		SourceFilePath:      body.SourceFilePath,
		DestinationFilePath: body.DestinationFilePath,
		TransmissionMode:    mode,
		ModeOverridden:      body.Acknowledged,
		ClosureRequested:    body.ClosureRequested,
	}

	result, err := h.Source.PutRequest(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if h.Status != nil {
		h.Status.Record(result)
	}

	writeJSON(w, http.StatusAccepted, submitTransactionResponse{
		TransactionID: result.TransactionID.String(),
	})
}

// HandleGetTransaction reports the last known status of a transaction.
func (h *Handlers) HandleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if h.Status == nil {
		http.Error(w, "status tracking unavailable", http.StatusServiceUnavailable)
		return
	}
	status, ok := h.Status.Get(id)
	if !ok {
		http.Error(w, "transaction not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

type mibEntryResponse struct {
	EntityID                uint64 `json:"entity_id"`
	DefaultTransmissionMode string `json:"default_transmission_mode"`
	MaxFileSegmentLength    uint64 `json:"max_file_segment_length"`
	DefaultChecksumType     string `json:"default_checksum_type"`
	PositiveAckTimeout      string `json:"positive_ack_timeout"`
	PositiveAckLimit        int    `json:"positive_ack_limit"`
	NakTimeout              string `json:"nak_timeout"`
	NakLimit                int    `json:"nak_limit"`
}

// HandleGetMIBEntry reports the configured MIB entry for a remote entity.
func (h *Handlers) HandleGetMIBEntry(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "entityID")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		http.Error(w, "invalid entity ID", http.StatusBadRequest)
		return
	}

	entry, ok := h.MIB.Lookup(cfdp.EntityID(id))
	if !ok {
		http.Error(w, "no MIB entry for entity", http.StatusNotFound)
		return
	}

	mode := "unacknowledged"
	if entry.DefaultTransmissionMode == cfdp.TransmissionModeAcknowledged {
		mode = "acknowledged"
	}
	checksum := "modular"
	if entry.DefaultChecksumType == cfdp.ChecksumCRC32C {
		checksum = "crc32c"
	}

	writeJSON(w, http.StatusOK, mibEntryResponse{
		EntityID:                uint64(entry.EntityID),
		DefaultTransmissionMode: mode,
		MaxFileSegmentLength:    entry.MaxFileSegmentLength,
		DefaultChecksumType:     checksum,
		PositiveAckTimeout:      entry.PositiveAckTimeout.String(),
		PositiveAckLimit:        entry.PositiveAckLimit,
		NakTimeout:              entry.NakTimeout.String(),
		NakLimit:                entry.NakLimit,
	})
}

type auditRecordResponse struct {
	ID                  string  `json:"id"`
	SourceEntityID      uint64  `json:"source_entity_id"`
	DestinationEntityID uint64  `json:"destination_entity_id"`
	SourceFilePath      string  `json:"source_file_path,omitempty"`
	DestinationFilePath string  `json:"destination_file_path,omitempty"`
	TransmissionMode    string  `json:"transmission_mode,omitempty"`
	ConditionCode       string  `json:"condition_code,omitempty"`
	DeliveryCode        string  `json:"delivery_code,omitempty"`
	StartedAt           string  `json:"started_at"`
	CompletedAt         *string `json:"completed_at,omitempty"`
}

// HandleGetAuditRecord reports the durable audit trail entry for a
// transaction, distinct from HandleGetTransaction's in-memory status:
// the audit record survives a daemon restart, the status tracker does not.
func (h *Handlers) HandleGetAuditRecord(w http.ResponseWriter, r *http.Request) {
	if h.Audit == nil {
		http.Error(w, "audit trail not configured", http.StatusServiceUnavailable)
		return
	}
	id := chi.URLParam(r, "id")
	rec, ok, err := h.Audit.Get(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "transaction not found", http.StatusNotFound)
		return
	}

	resp := auditRecordResponse{
		ID:                  rec.ID,
		SourceEntityID:      rec.SourceEntityID,
		DestinationEntityID: rec.DestinationEntityID,
		SourceFilePath:      rec.SourceFilePath,
		DestinationFilePath: rec.DestinationFilePath,
		TransmissionMode:    rec.TransmissionMode,
		ConditionCode:       rec.ConditionCode,
		DeliveryCode:        rec.DeliveryCode,
		StartedAt:           rec.StartedAt.Format(time.RFC3339),
	}
	if rec.CompletedAt != nil {
		completed := rec.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &completed
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
