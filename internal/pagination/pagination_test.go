package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   Params
		want Params
	}{
		{"zero page becomes one", Params{Page: 0, Limit: 10}, Params{Page: 1, Limit: 10}},
		{"negative page becomes one", Params{Page: -3, Limit: 10}, Params{Page: 1, Limit: 10}},
		{"zero limit falls back", Params{Page: 2, Limit: 0}, Params{Page: 2, Limit: DefaultLimit}},
		{"oversized limit clamps to max", Params{Page: 2, Limit: 500}, Params{Page: 2, Limit: MaxLimit}},
		{"limit at max untouched", Params{Page: 2, Limit: MaxLimit}, Params{Page: 2, Limit: MaxLimit}},
		{"valid params untouched", Params{Page: 3, Limit: 50}, Params{Page: 3, Limit: 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.Normalize())
		})
	}
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, Limit: 20}.Offset())
	assert.Equal(t, 40, Params{Page: 3, Limit: 20}.Offset())
}

func TestNewMeta(t *testing.T) {
	// 45 records at 20 per page: 3 pages, last page holds the remainder
	meta := NewMeta(Params{Page: 3, Limit: 20}, 45)
	assert.Equal(t, 3, meta.Pages)
	assert.False(t, meta.HasNext)
	assert.True(t, meta.HasPrev)

	meta = NewMeta(Params{Page: 1, Limit: 20}, 45)
	assert.True(t, meta.HasNext)
	assert.False(t, meta.HasPrev)

	meta = NewMeta(Params{Page: 1, Limit: 20}, 0)
	assert.Equal(t, 0, meta.Pages)
	assert.False(t, meta.HasNext)
	assert.False(t, meta.HasPrev)
}
