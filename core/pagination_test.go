package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name                  string
		number, size, count   int
		wantNumber, wantPages int
		wantOffset            int
	}{
		{name: "empty result set", number: 1, size: 20, count: 0, wantNumber: 1, wantPages: 1},
		{name: "first page", number: 1, size: 20, count: 45, wantNumber: 1, wantPages: 3},
		{name: "last page", number: 3, size: 20, count: 45, wantNumber: 3, wantPages: 3, wantOffset: 40},
		{name: "page past the end is clamped", number: 4, size: 20, count: 45, wantNumber: 3, wantPages: 3, wantOffset: 40},
		{name: "page below 1 is clamped", number: -2, size: 20, count: 45, wantNumber: 1, wantPages: 3},
		{name: "exact multiple", number: 2, size: 20, count: 40, wantNumber: 2, wantPages: 2, wantOffset: 20},
		{name: "default size", number: 2, size: 0, count: 21, wantNumber: 2, wantPages: 2, wantOffset: 20},
		{name: "size capped", number: 1, size: 500, count: 250, wantNumber: 1, wantPages: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage(tt.number, tt.size, tt.count)
			assert.Equal(t, tt.wantNumber, p.Number)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.wantOffset, p.Offset())
		})
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 3, TotalPages(45, 20))
	assert.Equal(t, 1, TotalPages(0, 20))
	assert.Equal(t, 1, TotalPages(20, 20))
	assert.Equal(t, 2, TotalPages(21, 20))
}
