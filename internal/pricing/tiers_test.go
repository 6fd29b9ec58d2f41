package pricing

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTiersThreeUnitOffer(t *testing.T) {
	// Base price 89.90, 15% off at the 3-unit tier.
	tiers := ResolveTiers(8990, DefaultSchedule())
	require.Len(t, tiers, 3)

	three := tiers[2]
	assert.Equal(t, 3, three.Qty)
	// 269.70 * 0.85 = 229.245, rounds half-up to 229.25 in one step.
	assert.Equal(t, int64(22925), three.TotalPrice)
	assert.Equal(t, int64(26970), three.OriginalTotal)
	assert.Equal(t, "229.25", FormatMinor(three.TotalPrice))
	assert.True(t, three.Discounted())

	one := tiers[0]
	assert.Equal(t, int64(8990), one.UnitPrice)
	assert.Equal(t, int64(8990), one.TotalPrice)
	assert.False(t, one.Discounted())
}

func TestResolveTiersDefaultSchedule(t *testing.T) {
	got := ResolveTiers(10000, nil)
	want := []Tier{
		{Qty: 1, UnitPrice: 10000, TotalPrice: 10000, OriginalTotal: 10000},
		{Qty: 2, UnitPrice: 9000, TotalPrice: 18000, OriginalTotal: 20000},
		{Qty: 3, UnitPrice: 8500, TotalPrice: 25500, OriginalTotal: 30000},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tier menu mismatch (-want +got):\n%s", diff)
	}

	assert.Nil(t, ResolveTiers(0, nil))
}

func TestSelectedTierMatchesWithinOneMinorUnit(t *testing.T) {
	tiers := ResolveTiers(8990, DefaultSchedule())
	three := tiers[2]

	// Exact unit price.
	tier, ok := SelectedTier(3, three.UnitPrice, tiers)
	require.True(t, ok)
	assert.Equal(t, 3, tier.Qty)

	// One minor unit of rounding drift still selects the tier.
	_, ok = SelectedTier(3, three.UnitPrice-1, tiers)
	assert.True(t, ok)

	// Two minor units away is a custom price, not a tier.
	_, ok = SelectedTier(3, three.UnitPrice-2, tiers)
	assert.False(t, ok)
}

func TestSelectedTierNoMatchIsValid(t *testing.T) {
	tiers := ResolveTiers(8990, DefaultSchedule())
	_, ok := SelectedTier(5, 8990, tiers)
	assert.False(t, ok)
}

func TestParseSchedule(t *testing.T) {
	schedule, err := ParseSchedule("1:0, 2:1000, 3:1500")
	require.NoError(t, err)
	assert.Equal(t, DefaultSchedule(), schedule)

	_, err = ParseSchedule("2")
	assert.Error(t, err)

	_, err = ParseSchedule("0:100")
	assert.Error(t, err)

	schedule, err = ParseSchedule("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSchedule(), schedule)
}

func TestMoneyHelpers(t *testing.T) {
	assert.Equal(t, int64(2000), PercentOf(20000, 1000))
	// 22924.5 rounds half-up.
	assert.Equal(t, int64(22925), ApplyBps(26970, 1500))
	assert.Equal(t, "IDR 100.00", FormatAmount("IDR", 10000))

	parsed, err := ParseMinor("89.90")
	require.NoError(t, err)
	assert.Equal(t, int64(8990), parsed)

	_, err = ParseMinor("abc")
	assert.Error(t, err)
}
