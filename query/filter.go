// Package query builds filtered, paginated views over inventory history.
// The predicate and pagination rules live here so the Postgres and
// in-memory stores share one set of semantics.
package query

import (
	"strings"

	"pc-inventory/types"
)

// PageSize is the fixed number of records per list page.
const PageSize = 20

// Filter describes a record listing. The zero value matches everything.
// Search is a case-insensitive substring matched against asset code,
// user name, computer name, model and serial code; a record matches when
// ANY of those fields contains the term. DeviceType matches exactly.
// HasErrors is tri-state: nil means both.
type Filter struct {
	Search     string
	DeviceType string
	HasErrors  *bool
}

// Match reports whether rec satisfies every supplied filter.
func (f Filter) Match(rec *types.InventoryRecord) bool {
	if term := strings.ToLower(strings.TrimSpace(f.Search)); term != "" {
		if !containsFold(rec.AssetCode, term) &&
			!containsFold(rec.UserName, term) &&
			!containsFold(rec.ComputerName, term) &&
			!containsFold(rec.Model, term) &&
			!containsFold(rec.SerialCode, term) {
			return false
		}
	}
	if f.DeviceType != "" && rec.DeviceType != f.DeviceType {
		return false
	}
	if f.HasErrors != nil && rec.HasErrors != *f.HasErrors {
		return false
	}
	return true
}

// containsFold expects term already lowercased.
func containsFold(field, term string) bool {
	return strings.Contains(strings.ToLower(field), term)
}

// ClampPage clamps a requested page number to the valid range for
// totalCount rows. Out-of-range requests land on the nearest valid page;
// an empty result set still has one (empty) page.
func ClampPage(page, totalCount int) (clamped, totalPages int) {
	totalPages = (totalCount + PageSize - 1) / PageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return page, totalPages
}

// PageBounds returns the half-open slice bounds of page within a result
// set of totalCount rows. The page number must already be clamped.
func PageBounds(page, totalCount int) (lo, hi int) {
	lo = (page - 1) * PageSize
	if lo > totalCount {
		lo = totalCount
	}
	hi = lo + PageSize
	if hi > totalCount {
		hi = totalCount
	}
	return lo, hi
}

// ParseHasErrors maps the has_errors query parameter to the tri-state
// filter: "true" and "false" select, anything else means both.
func ParseHasErrors(value string) *bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true":
		v := true
		return &v
	case "false":
		v := false
		return &v
	default:
		return nil
	}
}
