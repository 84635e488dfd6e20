package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pc-inventory/types"
)

func sampleRecord() *types.InventoryRecord {
	return &types.InventoryRecord{
		AssetCode:    "UIT-0042",
		SerialCode:   "SN-998877",
		Model:        "Latitude 5440",
		DeviceType:   "laptop",
		UserName:     "jdoe",
		ComputerName: "UIT-LT-0042",
		HasErrors:    false,
	}
}

func TestFilterSearchMatchesAnyField(t *testing.T) {
	rec := sampleRecord()

	// One term per searchable field, all case-insensitive.
	for _, term := range []string{"uit-0042", "998877", "latitude", "JDOE", "uit-lt"} {
		assert.True(t, Filter{Search: term}.Match(rec), "term %q should match", term)
	}

	assert.False(t, Filter{Search: "macbook"}.Match(rec))
	// Device type is not part of the search union.
	assert.False(t, Filter{Search: "laptop"}.Match(rec))
}

func TestFilterSearchTrimsWhitespace(t *testing.T) {
	rec := sampleRecord()
	assert.True(t, Filter{Search: "  latitude  "}.Match(rec))
	assert.True(t, Filter{Search: "   "}.Match(rec), "blank search matches everything")
}

func TestFilterDeviceTypeExact(t *testing.T) {
	rec := sampleRecord()
	assert.True(t, Filter{DeviceType: "laptop"}.Match(rec))
	assert.False(t, Filter{DeviceType: "desktop"}.Match(rec))
}

func TestFilterHasErrorsTriState(t *testing.T) {
	rec := sampleRecord()
	yes, no := true, false

	assert.True(t, Filter{}.Match(rec))
	assert.True(t, Filter{HasErrors: &no}.Match(rec))
	assert.False(t, Filter{HasErrors: &yes}.Match(rec))

	rec.HasErrors = true
	assert.True(t, Filter{HasErrors: &yes}.Match(rec))
	assert.False(t, Filter{HasErrors: &no}.Match(rec))
}

func TestFilterCombinesConjunctively(t *testing.T) {
	rec := sampleRecord()
	no := false

	assert.True(t, Filter{Search: "latitude", DeviceType: "laptop", HasErrors: &no}.Match(rec))
	assert.False(t, Filter{Search: "latitude", DeviceType: "desktop", HasErrors: &no}.Match(rec))
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		name           string
		page, total    int
		wantPage       int
		wantTotalPages int
	}{
		{name: "empty set still has one page", page: 1, total: 0, wantPage: 1, wantTotalPages: 1},
		{name: "zero page clamps up", page: 0, total: 45, wantPage: 1, wantTotalPages: 3},
		{name: "negative page clamps up", page: -7, total: 45, wantPage: 1, wantTotalPages: 3},
		{name: "last partial page", page: 3, total: 45, wantPage: 3, wantTotalPages: 3},
		{name: "overshoot clamps to last", page: 99, total: 45, wantPage: 3, wantTotalPages: 3},
		{name: "exact multiple", page: 2, total: 40, wantPage: 2, wantTotalPages: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, totalPages := ClampPage(tt.page, tt.total)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantTotalPages, totalPages)
		})
	}
}

func TestPageBounds(t *testing.T) {
	lo, hi := PageBounds(1, 45)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 20, hi)

	lo, hi = PageBounds(3, 45)
	assert.Equal(t, 40, lo)
	assert.Equal(t, 45, hi)

	lo, hi = PageBounds(1, 0)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 0, hi)
}

func TestParseHasErrors(t *testing.T) {
	assert.Nil(t, ParseHasErrors(""))
	assert.Nil(t, ParseHasErrors("maybe"))
	assert.Nil(t, ParseHasErrors("1"))

	if v := ParseHasErrors("true"); assert.NotNil(t, v) {
		assert.True(t, *v)
	}
	if v := ParseHasErrors("FALSE"); assert.NotNil(t, v) {
		assert.False(t, *v)
	}
	if v := ParseHasErrors(" True "); assert.NotNil(t, v) {
		assert.True(t, *v)
	}
}
