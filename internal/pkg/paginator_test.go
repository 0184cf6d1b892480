package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	tests := []struct {
		name       string
		count      int64
		raw        string
		wantNumber int
		wantPages  int
		wantOffset int
	}{
		{name: "first page by default", count: 13, raw: "", wantNumber: 1, wantPages: 2, wantOffset: 0},
		{name: "second page", count: 13, raw: "2", wantNumber: 2, wantPages: 2, wantOffset: 10},
		{name: "not an integer", count: 13, raw: "abc", wantNumber: 1, wantPages: 2, wantOffset: 0},
		{name: "beyond the last page", count: 13, raw: "7", wantNumber: 2, wantPages: 2, wantOffset: 10},
		{name: "zero", count: 13, raw: "0", wantNumber: 2, wantPages: 2, wantOffset: 10},
		{name: "empty sequence", count: 0, raw: "3", wantNumber: 1, wantPages: 1, wantOffset: 0},
		{name: "exact multiple", count: 20, raw: "2", wantNumber: 2, wantPages: 2, wantOffset: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPage[int](tt.count, tt.raw, PostsPerPage)
			assert.Equal(t, tt.wantNumber, p.Number)
			assert.Equal(t, tt.wantPages, p.NumPages)
			assert.Equal(t, tt.wantOffset, p.Offset())
			assert.Equal(t, tt.wantNumber < tt.wantPages, p.HasNext)
			assert.Equal(t, tt.wantNumber > 1, p.HasPrevious)
		})
	}
}
