package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitClamps(t *testing.T) {
	assert.Equal(t, DefaultPageSize, Pagination{}.Limit())
	assert.Equal(t, MaxPageSize, Pagination{PageSize: 1000}.Limit())
	assert.Equal(t, 7, Pagination{PageSize: 7}.Limit())
}

func TestPageBuildsTokenFromLastRow(t *testing.T) {
	rows := []int64{10, 11, 12}
	page, info := Page(rows, 2, func(v int64) int64 { return v })
	assert.Equal(t, []int64{10, 11}, page)
	require.True(t, info.HasMore)

	after, err := Pagination{PageToken: info.NextPageToken}.AfterID()
	require.NoError(t, err)
	assert.Equal(t, int64(11), after)
}

func TestPageWithoutMore(t *testing.T) {
	page, info := Page([]int64{1}, 2, func(v int64) int64 { return v })
	assert.Len(t, page, 1)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}
