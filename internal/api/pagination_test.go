package api

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLimitOffset(t *testing.T) {
	tests := []struct {
		query         string
		limit, offset int
	}{
		{"", 20, 0},
		{"?limit=5&offset=10", 5, 10},
		{"?limit=500", 100, 0},
		{"?limit=0&offset=-1", 20, 0},
		{"?limit=abc&offset=x", 20, 0},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/api/patients/pa1/orcamentos"+tt.query, nil)
		limit, offset := ParseLimitOffset(r)
		assert.Equal(t, tt.limit, limit, tt.query)
		assert.Equal(t, tt.offset, offset, tt.query)
	}
}

func TestPageBounds(t *testing.T) {
	start, end := pageBounds(3, 2, 1)
	assert.Equal(t, 1, start)
	assert.Equal(t, 3, end)
	start, end = pageBounds(3, 20, 10)
	assert.Equal(t, 3, start)
	assert.Equal(t, 3, end)
	start, end = pageBounds(0, 20, 0)
	assert.Equal(t, 0, start)
	assert.Equal(t, 0, end)
}
