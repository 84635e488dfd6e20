package endpoints

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"pc-inventory/query"
	"pc-inventory/types"
)

type listResponse struct {
	Results     []types.InventoryRecord `json:"results"`
	Page        int                     `json:"page"`
	TotalPages  int                     `json:"total_pages"`
	TotalCount  int                     `json:"total_count"`
	DeviceTypes []string                `json:"device_types"`
}

// ListComputers returns one page of inventory history filtered by the
// search, device_type and has_errors query parameters.
func (api *API) ListComputers(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	params := req.URL.Query()

	filter := query.Filter{
		Search:     params.Get("search"),
		DeviceType: params.Get("device_type"),
		HasErrors:  query.ParseHasErrors(params.Get("has_errors")),
	}
	page, _ := strconv.Atoi(params.Get("page"))
	if page < 1 {
		page = 1
	}

	result, err := api.Records.List(ctx, filter, page)
	if err != nil {
		api.Log.Error().Err(err).Msg("list records failed")
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	deviceTypes, err := api.Records.DeviceTypes(ctx)
	if err != nil {
		api.Log.Error().Err(err).Msg("list device types failed")
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}

	writeJSON(w, http.StatusOK, listResponse{
		Results:     result.Results,
		Page:        result.Page,
		TotalPages:  result.TotalPages,
		TotalCount:  result.TotalCount,
		DeviceTypes: deviceTypes,
	})
}

// GetComputer returns one record by identity.
func (api *API) GetComputer(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.ParseInt(req.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "computer not found")
		return
	}

	rec, err := api.Records.Get(req.Context(), id)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			writeError(w, http.StatusNotFound, "computer not found")
			return
		}
		api.Log.Error().Err(err).Int64("id", id).Msg("get record failed")
		writeError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// Healthz reports liveness and, when wired, backend reachability.
func (api *API) Healthz(w http.ResponseWriter, req *http.Request) {
	if api.Ping != nil {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		if err := api.Ping(ctx); err != nil {
			api.Log.Error().Err(err).Msg("health check: backend unreachable")
			writeError(w, http.StatusServiceUnavailable, "storage unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
