package types

import (
	"encoding/json"
	"time"
)

// InventoryRecord is one accepted inventory submission. Records are
// immutable history rows: the same asset code may appear many times and
// nothing in the service updates or deletes a row after Append.
type InventoryRecord struct {
	ID                int64     `json:"id"`
	AssetCode         string    `json:"asset_code"`
	SerialCode        string    `json:"sn_code"`
	Model             string    `json:"model"`
	DeviceType        string    `json:"device_type"`
	CPUModel          string    `json:"cpu_model"`
	MemorySizeGB      int       `json:"memory_size"`
	OSVersion         string    `json:"os_version"`
	OSInternalVersion string    `json:"os_internal_version"`
	UserName          string    `json:"user_name"`
	ComputerName      string    `json:"computer_name"`
	ExecutionLog      string    `json:"execution_log"`
	LogSizeBytes      int       `json:"log_size"`
	ErrorLog          *string   `json:"error_log"`
	HasErrors         bool      `json:"has_errors"`
	Uploader          string    `json:"uploader"`
	UploadTime        time.Time `json:"upload_time"`
	LastUpdate        time.Time `json:"last_update"`
}

// Submission is the wire form of an inventory upload before decoding and
// validation. Pointer fields distinguish absent from empty; MemorySize
// stays raw because the fleet script has sent it both as a number and as
// a numeric string over the years.
type Submission struct {
	AssetCode         *string         `json:"asset_code"`
	SerialCode        *string         `json:"sn_code"`
	Model             *string         `json:"model"`
	DeviceType        *string         `json:"device_type"`
	CPUModel          *string         `json:"cpu_model"`
	MemorySize        json.RawMessage `json:"memory_size"`
	OSVersion         *string         `json:"os_version"`
	OSInternalVersion *string         `json:"os_internal_version"`
	UserName          *string         `json:"user_name"`
	ComputerName      *string         `json:"computer_name"`
	ExecutionLog      *string         `json:"execution_log"`
	LogSize           *int            `json:"log_size"`
	ErrorLog          *string         `json:"error_log"`
	HasErrors         *bool           `json:"has_errors"`
	Uploader          *string         `json:"uploader"`

	// ExecutionLogEncoding is the optional envelope marker. The only
	// recognized value is "base64". It never reaches storage.
	ExecutionLogEncoding *string `json:"execution_log_encoding"`
}

// Page is one page of list results plus pagination metadata.
type Page struct {
	Results    []InventoryRecord `json:"results"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
	TotalCount int               `json:"total_count"`
}
