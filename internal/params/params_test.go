package params

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query      string
		wantPage   int
		wantLimit  int
		wantOffset int
	}{
		{"", 1, 20, 0},
		{"page=3&limit=10", 3, 10, 20},
		{"limit=0", 1, 1, 0},
		{"limit=-4", 1, 1, 0},
		{"limit=500", 1, 50, 0},
		{"page=0", 1, 20, 0},
		{"page=-2&limit=5", 1, 5, 0},
		{"page=abc&limit=xyz", 1, 20, 0},
		{"page=2&limit=50", 2, 50, 50},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)
			p := ParsePagination(q)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}

func TestComputeMeta(t *testing.T) {
	p := Pagination{Page: 1, Limit: 20}
	p.ComputeMeta(41)
	assert.Equal(t, 41, p.Total)
	assert.Equal(t, 3, p.TotalPages)

	p.ComputeMeta(0)
	assert.Equal(t, 0, p.TotalPages)
}
