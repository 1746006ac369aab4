package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"199.50", 19950},
		{"0", 0},
		{"0.01", 1},
		{"10", 1000},
		{"0.1", 10},
		{"12.345", 1235},
		{"99999999.99", 9999999999},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ToMinorUnits(decimal.RequireFromString(tc.in))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestToMinorUnits_NoFloatDrift(t *testing.T) {
	// 0.1 + 0.2 drifts in binary floating point; decimals must not.
	sum := decimal.RequireFromString("0.1").Add(decimal.RequireFromString("0.2"))
	got, err := ToMinorUnits(sum)
	require.NoError(t, err)
	assert.Equal(t, int64(30), got)

	total := LineTotal(decimal.RequireFromString("33.30"), 3)
	got, err = ToMinorUnits(total)
	require.NoError(t, err)
	assert.Equal(t, int64(9990), got)
}

func TestToMinorUnits_Negative(t *testing.T) {
	_, err := ToMinorUnits(decimal.RequireFromString("-1"))
	assert.ErrorIs(t, err, ErrNegativeAmount)
}

func TestFromMinorUnits(t *testing.T) {
	assert.True(t, decimal.RequireFromString("199.50").Equal(FromMinorUnits(19950)))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "₹199.50", Format(decimal.RequireFromString("199.5"), "INR"))
	assert.Equal(t, "XYZ 1.00", Format(decimal.NewFromInt(1), "XYZ"))
}
