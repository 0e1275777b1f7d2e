package numeric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	assert.Equal(t, 2.0, Round(2.5, 0))
	assert.Equal(t, 4.0, Round(3.5, 0))
	assert.Equal(t, 0.123, Round(0.12345, 3))
	assert.Equal(t, 0.12, Round(0.125, 2))
	assert.Equal(t, -0.413, Round(-0.4127, 3))
	assert.Equal(t, 0.0, Round(-0.00001, 2))
	assert.False(t, math.Signbit(Round(-0.00001, 2)))
	assert.True(t, math.IsNaN(Round(math.NaN(), 2)))
}

func TestFinite(t *testing.T) {
	assert.Equal(t, 0.0, Finite(math.NaN(), 0))
	assert.Equal(t, 1.0, Finite(math.Inf(-1), 1))
	assert.Equal(t, 0.5, Finite(0.5, 0))
}

func TestFormatDecimal(t *testing.T) {
	assert.Equal(t, "90.0", FormatDecimal(90))
	assert.Equal(t, "82.5", FormatDecimal(82.5))
	assert.Equal(t, "-3.0", FormatDecimal(-3))
	assert.Equal(t, "0.001", FormatDecimal(0.001))
	assert.Equal(t, "NaN", FormatDecimal(math.NaN()))
}
