package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPagination(t *testing.T) {
	p, err := ExtractPagination(httptest.NewRequest(http.MethodGet, "/bills/import/history", nil))
	require.NoError(t, err)
	assert.Equal(t, PaginationParams{Page: 1, Limit: 10}, p)

	p, err = ExtractPagination(httptest.NewRequest(http.MethodGet, "/bills/import/history?page=3&limit=4", nil))
	require.NoError(t, err)
	assert.Equal(t, 8, p.Offset)

	for _, q := range []string{"page=0", "page=x", "limit=-1"} {
		_, err = ExtractPagination(httptest.NewRequest(http.MethodGet, "/bills/import/history?"+q, nil))
		assert.Error(t, err, q)
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	p := PaginationParams{Page: 2, Limit: 2, Offset: 2}
	assert.Equal(t, []int{3, 4}, Paginate(items, &p))
	assert.Equal(t, 5, p.TotalRecords)
	assert.Equal(t, 3, p.TotalPages)

	p = PaginationParams{Page: 3, Limit: 2, Offset: 4}
	assert.Equal(t, []int{5}, Paginate(items, &p))

	p = PaginationParams{Page: 9, Limit: 2, Offset: 16}
	assert.Empty(t, Paginate(items, &p))

	p = PaginationParams{Page: 1, Limit: 10}
	assert.Empty(t, Paginate([]int(nil), &p))
	assert.Equal(t, 0, p.TotalPages)
}
