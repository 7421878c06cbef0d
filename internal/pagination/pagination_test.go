package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_FirstPage(t *testing.T) {
	p, err := New([]int{1, 2, 3}, 1, 10, 25)
	require.NoError(t, err)

	assert.Equal(t, 3, p.Pages)
	assert.True(t, p.HasNext)
	assert.False(t, p.HasPrev)
	require.NotNil(t, p.NextPage)
	assert.Equal(t, 2, *p.NextPage)
	assert.Nil(t, p.PrevPage)
}

func TestNew_LastPage(t *testing.T) {
	p, err := New([]int{1}, 3, 10, 25)
	require.NoError(t, err)

	assert.False(t, p.HasNext)
	assert.True(t, p.HasPrev)
	assert.Nil(t, p.NextPage)
	require.NotNil(t, p.PrevPage)
	assert.Equal(t, 2, *p.PrevPage)
}

func TestNew_EmptyTotal(t *testing.T) {
	p, err := New[int](nil, 1, 10, 0)
	require.NoError(t, err)

	assert.Equal(t, 0, p.Pages)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrev)
	assert.NotNil(t, p.Items)
	assert.Empty(t, p.Items)
}

func TestNew_PageOutOfRange(t *testing.T) {
	_, err := New([]int{}, 4, 10, 25)
	var oor *OutOfRangeError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 4, oor.Page)
	assert.Equal(t, 3, oor.Pages)
	assert.Contains(t, err.Error(), "out of range (1-3)")
}

func TestNew_InvalidSize(t *testing.T) {
	_, err := New([]int{}, 1, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidSize)
}

func TestNew_Properties(t *testing.T) {
	for total := 0; total <= 50; total += 7 {
		for _, size := range []int{1, 3, 10, 100} {
			pages := (total + size - 1) / size
			maxPage := pages
			if maxPage < 1 {
				maxPage = 1
			}
			for page := 1; page <= maxPage; page++ {
				p, err := New([]int{}, page, size, total)
				require.NoError(t, err, "total=%d size=%d page=%d", total, size, page)
				assert.Equal(t, pages, p.Pages)
				assert.Equal(t, page < pages, p.HasNext)
				assert.Equal(t, page > 1, p.HasPrev)
			}
		}
	}
}
