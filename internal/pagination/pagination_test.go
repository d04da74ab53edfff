package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNumPages(t *testing.T) {
	tests := []struct {
		count int64
		want  int
	}{
		{0, 1},
		{1, 1},
		{10, 1},
		{11, 2},
		{13, 2},
		{20, 2},
		{101, 11},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, New(tt.count, 10).NumPages(), "count=%d", tt.count)
	}
}

func TestPage_Resolve(t *testing.T) {
	p := New(13, 10)

	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"missing", "", 1},
		{"first", "1", 1},
		{"second", "2", 2},
		{"not a number", "abc", 1},
		{"zero", "0", 1},
		{"negative", "-3", 1},
		{"past the end", "99", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Page(tt.raw).Number)
		})
	}
}

func TestPage_Sizes(t *testing.T) {
	p := New(13, 10)

	first := p.Page("1")
	assert.Equal(t, 0, first.Offset())
	assert.Equal(t, 10, first.Len())
	assert.True(t, first.HasNext())
	assert.False(t, first.HasPrevious())
	assert.Equal(t, 2, first.NextNumber())

	last := p.Page("2")
	assert.Equal(t, 10, last.Offset())
	assert.Equal(t, 3, last.Len())
	assert.False(t, last.HasNext())
	assert.Equal(t, 1, last.PreviousNumber())
	assert.Equal(t, []int{1, 2}, last.Range())
	assert.Equal(t, 11, last.StartIndex())
	assert.Equal(t, 13, last.EndIndex())

	exact := New(20, 10).Page("2")
	assert.Equal(t, 10, exact.Len())
}

func TestPage_Empty(t *testing.T) {
	page := New(0, 10).Page("5")
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 0, page.Len())
	assert.False(t, page.HasOtherPages())
	assert.Equal(t, 0, page.StartIndex())
	assert.Equal(t, 0, page.EndIndex())
}

func TestNew_DefaultPerPage(t *testing.T) {
	assert.Equal(t, DefaultPerPage, New(5, 0).PerPage)
}
