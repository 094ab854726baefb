package util

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapErrorf(t *testing.T) {
	orig := errors.New("dial tcp: connection refused")
	err := WrapErrorf(orig, ErrInternalServerError, "compute route %d", 3)

	assert.ErrorIs(t, err, orig)
	assert.Equal(t, ErrInternalServerError, ErrorCode(err))
	assert.Equal(t, "compute route 3: dial tcp: connection refused", err.Error())

	assert.Nil(t, ErrorCode(orig))
	assert.Equal(t, "bad", WrapErrorf(nil, ErrBadParamInput, "bad").Error())
}

func TestRoundFloat(t *testing.T) {
	testCases := []struct {
		name      string
		val       float64
		precision uint
		want      float64
	}{
		{name: "two digits", val: 3.14159, precision: 2, want: 3.14},
		{name: "zero digits", val: 2.5, precision: 0, want: 3},
		{name: "six digits", val: -33.9121824, precision: 6, want: -33.912182},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RoundFloat(tt.val, tt.precision), 1e-9)
		})
	}
}
