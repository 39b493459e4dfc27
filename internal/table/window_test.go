package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func pages(entries []WindowEntry) []int {
	out := []int{}
	for _, e := range entries {
		if !e.Ellipsis {
			out = append(out, e.Page)
		}
	}
	return out
}

func TestComputeWindow(t *testing.T) {
	t.Run("middle page with delta 2", func(t *testing.T) {
		entries := ComputeWindow(10, 5, 2)

		expected := []WindowEntry{
			{Page: 1},
			{Ellipsis: true},
			{Page: 3}, {Page: 4}, {Page: 5}, {Page: 6}, {Page: 7},
			{Ellipsis: true},
			{Page: 10},
		}
		assert.Equal(t, expected, entries)
	})

	t.Run("zero pages yields empty window", func(t *testing.T) {
		assert.Empty(t, ComputeWindow(0, 1, 2))
	})

	t.Run("single page has no ellipsis", func(t *testing.T) {
		assert.Equal(t, []WindowEntry{{Page: 1}}, ComputeWindow(1, 1, 2))
	})

	t.Run("first page", func(t *testing.T) {
		entries := ComputeWindow(10, 1, 2)
		assert.Equal(t, []WindowEntry{
			{Page: 1}, {Page: 2}, {Page: 3},
			{Ellipsis: true},
			{Page: 10},
		}, entries)
	})

	t.Run("last page", func(t *testing.T) {
		entries := ComputeWindow(10, 10, 2)
		assert.Equal(t, []WindowEntry{
			{Page: 1},
			{Ellipsis: true},
			{Page: 8}, {Page: 9}, {Page: 10},
		}, entries)
	})

	t.Run("no gap means no ellipsis", func(t *testing.T) {
		entries := ComputeWindow(5, 3, 2)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, pages(entries))
		for _, e := range entries {
			assert.False(t, e.Ellipsis)
		}
	})

	t.Run("current page outside range is not clamped", func(t *testing.T) {
		entries := ComputeWindow(10, 20, 2)
		assert.Equal(t, []int{1, 10}, pages(entries))
	})
}

func TestComputeWindowProperties(t *testing.T) {
	for totalPages := 1; totalPages <= 30; totalPages++ {
		for currentPage := 1; currentPage <= totalPages; currentPage++ {
			for delta := 0; delta <= 4; delta++ {
				entries := ComputeWindow(totalPages, currentPage, delta)
				nums := pages(entries)

				// First and last page appear exactly once each
				count1, countN := 0, 0
				for _, p := range nums {
					if p == 1 {
						count1++
					}
					if p == totalPages {
						countN++
					}
				}
				assert.Equal(t, 1, count1, "total=%d current=%d delta=%d", totalPages, currentPage, delta)
				assert.Equal(t, 1, countN, "total=%d current=%d delta=%d", totalPages, currentPage, delta)

				// Numeric entries strictly ascending
				for i := 1; i < len(nums); i++ {
					assert.Greater(t, nums[i], nums[i-1])
				}

				// At most one ellipsis between consecutive numeric entries
				for i := 1; i < len(entries); i++ {
					if entries[i].Ellipsis {
						assert.False(t, entries[i-1].Ellipsis)
					}
				}

				// Window never starts or ends with an ellipsis
				assert.False(t, entries[0].Ellipsis)
				assert.False(t, entries[len(entries)-1].Ellipsis)
			}
		}
	}
}
