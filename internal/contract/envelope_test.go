package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvelopeInvariants(t *testing.T) {
	ok := OK([]string{}, "done")
	assert.True(t, ok.Success)
	assert.NotNil(t, ok.Data)
	assert.Empty(t, ok.Error)
	assert.False(t, ok.Timestamp.IsZero())

	fail := Fail(CodeForbidden, "nope")
	assert.False(t, fail.Success)
	assert.Nil(t, fail.Data)
	assert.Equal(t, string(CodeForbidden), fail.Error)
	assert.Equal(t, 403, fail.StatusCode)
}

func TestNewPagination(t *testing.T) {
	cases := []struct {
		page, limit, total           int
		wantPage, wantLimit, wantTot int
	}{
		{1, 20, 45, 1, 20, 3},
		{4, 20, 45, 4, 20, 3},
		{0, 0, 10, 1, DefaultPageLimit, 1},
		{1, 500, 1000, 1, MaxPageLimit, 10},
		{2, 10, 0, 2, 10, 0},
		{1, 3, 7, 1, 3, 3},
	}

	for _, tc := range cases {
		pg := NewPagination(tc.page, tc.limit, tc.total)
		assert.Equal(t, tc.wantPage, pg.Page)
		assert.Equal(t, tc.wantLimit, pg.Limit)
		assert.Equal(t, tc.total, pg.Total)
		assert.Equal(t, tc.wantTot, pg.TotalPages)
	}
}

func TestPaginationOffset(t *testing.T) {
	assert.Equal(t, 0, NewPagination(1, 20, 100).Offset())
	assert.Equal(t, 60, NewPagination(4, 20, 45).Offset())
}

func TestNewPageNeverNil(t *testing.T) {
	page := NewPage[int](nil, 4, 20, 45)
	assert.NotNil(t, page.Data)
	assert.Len(t, page.Data, 0)
	assert.Equal(t, 45, page.Pagination.Total)
	assert.Equal(t, 3, page.Pagination.TotalPages)
}

func TestErrorCodeStatuses(t *testing.T) {
	assert.Equal(t, 400, CodeValidation.Status())
	assert.Equal(t, 401, CodeAuth.Status())
	assert.Equal(t, 403, CodeForbidden.Status())
	assert.Equal(t, 404, CodeNotFound.Status())
	assert.Equal(t, 409, CodeConflict.Status())
	assert.Equal(t, 500, CodeInternal.Status())
	assert.Equal(t, 500, ErrorCode("SOMETHING_ELSE").Status())
}
