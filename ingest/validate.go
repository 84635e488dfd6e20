package ingest

import (
	"encoding/json"
	"strconv"
	"strings"

	"pc-inventory/types"
)

// DefaultUploader is recorded when a submission does not name its
// uploader. The fleet collection script identifies itself the same way.
const DefaultUploader = "Robot"

const (
	msgRequired    = "this field is required"
	msgInteger     = "a valid integer is required"
	msgNotNegative = "must not be negative"
	msgNotBlank    = "this field may not be blank"
)

// Validate checks a decoded submission against the record schema and
// produces a typed record draft. Every offending field is reported in a
// single ValidationError rather than failing on the first. The store is
// never consulted: duplicates are expected and allowed.
//
// has_errors is recomputed: a non-empty error_log forces it true, an
// empty one leaves the caller-supplied value alone.
func Validate(sub *types.Submission) (*types.InventoryRecord, error) {
	fieldErrs := make(map[string]string)

	requireString := func(name string, v *string) string {
		if v == nil {
			fieldErrs[name] = msgRequired
			return ""
		}
		if strings.TrimSpace(*v) == "" {
			fieldErrs[name] = msgNotBlank
			return ""
		}
		return *v
	}

	draft := types.InventoryRecord{
		AssetCode:         requireString("asset_code", sub.AssetCode),
		SerialCode:        requireString("sn_code", sub.SerialCode),
		Model:             requireString("model", sub.Model),
		DeviceType:        requireString("device_type", sub.DeviceType),
		CPUModel:          requireString("cpu_model", sub.CPUModel),
		OSVersion:         requireString("os_version", sub.OSVersion),
		OSInternalVersion: requireString("os_internal_version", sub.OSInternalVersion),
		UserName:          requireString("user_name", sub.UserName),
		ComputerName:      requireString("computer_name", sub.ComputerName),
	}

	if memory, ok := parseMemorySize(sub.MemorySize, fieldErrs); ok {
		draft.MemorySizeGB = memory
	}

	if sub.ExecutionLog != nil {
		draft.ExecutionLog = *sub.ExecutionLog
	}
	if sub.LogSize != nil {
		draft.LogSizeBytes = *sub.LogSize
	} else {
		draft.LogSizeBytes = len(draft.ExecutionLog)
	}

	if sub.ErrorLog != nil {
		cleaned := stripNUL(*sub.ErrorLog)
		draft.ErrorLog = &cleaned
	}

	// Derive-if-present, else trust the caller. An explicit has_errors=true
	// with an empty error log stands.
	if draft.ErrorLog != nil && *draft.ErrorLog != "" {
		draft.HasErrors = true
	} else if sub.HasErrors != nil {
		draft.HasErrors = *sub.HasErrors
	}

	draft.Uploader = DefaultUploader
	if sub.Uploader != nil && strings.TrimSpace(*sub.Uploader) != "" {
		draft.Uploader = *sub.Uploader
	}

	if len(fieldErrs) > 0 {
		return nil, &types.ValidationError{Fields: fieldErrs}
	}
	return &draft, nil
}

// parseMemorySize coerces the raw memory_size value, which arrives either
// as a JSON number or as a numeric string.
func parseMemorySize(raw json.RawMessage, fieldErrs map[string]string) (int, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if len(raw) == 0 || trimmed == "null" {
		fieldErrs["memory_size"] = msgRequired
		return 0, false
	}

	var n int
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			fieldErrs["memory_size"] = msgInteger
			return 0, false
		}
		v, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			fieldErrs["memory_size"] = msgInteger
			return 0, false
		}
		n = v
	}
	if n < 0 {
		fieldErrs["memory_size"] = msgNotNegative
		return 0, false
	}
	return n, true
}
