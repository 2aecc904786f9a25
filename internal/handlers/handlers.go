// Package handlers provides the HTTP observability surface of the content
// indexer: health and readiness probes, index status, and the manual rescan
// trigger. Indexing itself never depends on this package.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"content-indexer/internal/database"
	"content-indexer/internal/logging"
	"content-indexer/internal/scheduler"
	"content-indexer/internal/startup"
	"content-indexer/internal/treescan"
)

// Handlers holds the dependencies shared by all HTTP handlers.
type Handlers struct {
	db              *database.Database
	sched           *scheduler.Scheduler
	treescan        *treescan.Scanner
	startTime       time.Time
	logHealthChecks bool
}

// New creates the handler set.
func New(db *database.Database, sched *scheduler.Scheduler, ts *treescan.Scanner, logHealthChecks bool) *Handlers {
	return &Handlers{
		db:              db,
		sched:           sched,
		treescan:        ts,
		startTime:       time.Now(),
		logHealthChecks: logHealthChecks,
	}
}

// IndexStatus is the response body of the status endpoint.
type IndexStatus struct {
	QueueDepth   int                         `json:"queueDepth"`
	PendingItems int                         `json:"pendingItems"`
	LastModified *database.FingerprintRecord `json:"lastModified,omitempty"`
	Counts       map[string]int64            `json:"counts"`
	Uptime       string                      `json:"uptime"`
}

// HealthCheck responds 200 as long as the process is serving.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.logHealthChecks {
		logging.Debug("health check from %s", r.RemoteAddr)
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	})
}

// ReadinessCheck responds 200 once the database answers queries.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	if _, err := h.db.CountRecords(r.Context(), database.KindFingerprints); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// GetIndexStatus reports queue depth, the most recent fingerprint record
// (a cache invalidation key for downstream callers), and record counts.
func (h *Handlers) GetIndexStatus(w http.ResponseWriter, r *http.Request) {
	status := IndexStatus{
		QueueDepth:   h.sched.QueueDepth(),
		PendingItems: h.sched.PendingItems(),
		Counts:       make(map[string]int64),
		Uptime:       time.Since(h.startTime).Round(time.Second).String(),
	}

	if record, ok, err := h.db.LastModified(r.Context()); err == nil && ok {
		status.LastModified = &record
	}

	for _, kind := range database.AllRecordKinds {
		count, err := h.db.CountRecords(r.Context(), kind)
		if err != nil {
			logging.Error("Error counting %s records: %v", kind, err)
			continue
		}
		status.Counts[string(kind)] = count
	}

	writeJSON(w, http.StatusOK, status)
}

// GetVersion reports build information.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, startup.GetBuildInfo())
}

// TriggerRescan kicks off a full-tree reconciliation in the background and
// responds immediately.
func (h *Handlers) TriggerRescan(w http.ResponseWriter, _ *http.Request) {
	logging.Info("Manual rescan triggered")
	go h.treescan.ScanIndex()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "rescan scheduled"})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("Error encoding response: %v", err)
	}
}
