package ilerr

import (
	"testing"

	"github.com/cottand/jinfer/frontend/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverInvariant(t *testing.T) {
	err := Recover(func() error {
		Invariant("bucket %d out of order", 3)
		return nil
	})
	require.Error(t, err)
	assert.True(t, IsInvariantViolation(err))
	assert.Contains(t, err.Error(), "bucket 3 out of order")
}

func TestRecoverPassesThroughOtherPanics(t *testing.T) {
	assert.PanicsWithValue(t, "boom", func() {
		_ = Recover(func() error { panic("boom") })
	})
}

func TestRecoverNoPanic(t *testing.T) {
	assert.NoError(t, Recover(func() error { return nil }))
}

func TestErrorsAccumulate(t *testing.T) {
	var errs *Errors
	assert.False(t, errs.HasError())
	errs = errs.With(New(NewCannotInfer{
		Positioner: source.Range{PosStart: 1, PosEnd: 2},
		Method:     "choose",
		Arguments:  []string{"Integer", "Double"},
	}))
	errs = errs.Merge(&Errors{})
	require.True(t, errs.HasError())
	require.Len(t, errs.Errors(), 1)
	assert.Equal(t, "(E002) cannot infer type arguments for choose(Integer, Double)", FormatWithCode(errs.Errors()[0]))
}
