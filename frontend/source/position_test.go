package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRangeContains(t *testing.T) {
	outer := Range{PosStart: 10, PosEnd: 50}
	testCases := []struct {
		name     string
		inner    Positioner
		expected bool
	}{
		{"strictly inside", Range{20, 30}, true},
		{"same range", Range{10, 50}, true},
		{"overlapping end", Range{40, 60}, false},
		{"before", Range{1, 5}, false},
		{"invalid", Range{}, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, outer.Contains(tc.inner))
		})
	}
	assert.False(t, Range{}.Contains(Range{1, 2}), "an invalid range contains nothing")
}

func TestRangeHashDistinguishesBounds(t *testing.T) {
	assert.Equal(t, Range{1, 2}.Hash(), Range{1, 2}.Hash())
	assert.NotEqual(t, Range{1, 2}.Hash(), Range{2, 1}.Hash())
}
