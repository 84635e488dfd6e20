// Package endpoints implements the HTTP surface: the unauthenticated
// ingestion endpoint for fleet machines and the session-gated query and
// login endpoints for operators.
package endpoints

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"pc-inventory/auth"
	"pc-inventory/query"
	"pc-inventory/types"
)

// RecordStore is the history store the handlers read and append to.
type RecordStore interface {
	Append(ctx context.Context, draft *types.InventoryRecord) (*types.InventoryRecord, error)
	Get(ctx context.Context, id int64) (*types.InventoryRecord, error)
	List(ctx context.Context, f query.Filter, page int) (*types.Page, error)
	DeviceTypes(ctx context.Context) ([]string, error)
}

// API bundles the handler dependencies. No globals: everything a
// handler touches is passed in here.
type API struct {
	Records  RecordStore
	Sessions *auth.Manager
	Log      zerolog.Logger

	// Ping checks the persistence backend for the health endpoint. May
	// be nil when the backend has nothing to ping.
	Ping func(ctx context.Context) error
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
