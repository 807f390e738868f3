package shipping

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTiersSortsPairs(t *testing.T) {
	table, err := ParseTiers("5=1099, 1=499 ,3=799", 1299)
	require.NoError(t, err)
	require.Len(t, table.Tiers, 3)
	require.InDelta(t, 1.0, table.Tiers[0].MaxKm, 1e-9)
	require.InDelta(t, 3.0, table.Tiers[1].MaxKm, 1e-9)
	require.InDelta(t, 5.0, table.Tiers[2].MaxKm, 1e-9)
	require.EqualValues(t, 1299, table.Beyond)
}

func TestParseTiersRejectsBadInput(t *testing.T) {
	for _, csv := range []string{"", "1", "1=abc", "abc=499", "-1=499", "1=-3", "1=499,1=799"} {
		_, err := ParseTiers(csv, 1299)
		require.Error(t, err, "csv %q", csv)
	}
	_, err := ParseTiers("1=499", -1)
	require.Error(t, err)
}

func TestFeeForBoundaries(t *testing.T) {
	table, err := ParseTiers("1=499,3=799,5=1099", 1299)
	require.NoError(t, err)

	cases := []struct {
		km   float64
		want int64
	}{
		{0, 499},
		{0.5, 499},
		{1.0, 499},  // upper bound is inclusive
		{1.001, 799},
		{3.0, 799},
		{3.5, 1099},
		{5.0, 1099},
		{5.001, 1299},
		{42, 1299},
	}
	for _, tc := range cases {
		require.EqualValues(t, tc.want, table.FeeFor(tc.km), "distance %f", tc.km)
	}
}
