package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requirement: a calendar month clamps to the last day of the shorter month.
func TestAddMonths(t *testing.T) {
	tests := []struct {
		name   string
		from   time.Time
		months int
		want   time.Time
	}{
		{name: "mid month", from: date(2026, time.March, 15), months: 1, want: date(2026, time.April, 15)},
		{name: "jan 31 to feb 28", from: date(2026, time.January, 31), months: 1, want: date(2026, time.February, 28)},
		{name: "jan 31 to feb 29 in leap year", from: date(2028, time.January, 31), months: 1, want: date(2028, time.February, 29)},
		{name: "year rollover", from: date(2026, time.December, 31), months: 1, want: date(2027, time.January, 31)},
		{name: "leap day plus a year", from: date(2028, time.February, 29), months: 12, want: date(2029, time.February, 28)},
		{name: "time of day is dropped", from: time.Date(2026, time.May, 2, 23, 59, 0, 0, time.UTC), months: 1, want: date(2026, time.June, 2)},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, AddMonths(test.from, test.months))
		})
	}
}

// Requirement: the calendar day is taken in UTC whatever zone the time carries.
func TestDateOf_Zones(t *testing.T) {
	east := time.FixedZone("UTC+3", 3*60*60)
	west := time.FixedZone("UTC-5", -5*60*60)

	tests := []struct {
		name string
		t    time.Time
		want time.Time
	}{
		{name: "utc", t: time.Date(2026, time.March, 1, 0, 30, 0, 0, time.UTC), want: date(2026, time.March, 1)},
		{name: "east of utc before midnight utc", t: time.Date(2026, time.March, 1, 1, 0, 0, 0, east), want: date(2026, time.February, 28)},
		{name: "west of utc after midnight utc", t: time.Date(2026, time.March, 31, 22, 0, 0, 0, west), want: date(2026, time.April, 1)},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			got := DateOf(test.t)
			assert.Equal(t, test.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestPriceFor(t *testing.T) {
	tests := []struct {
		tier     Tier
		duration PlanDuration
		want     int
		wantErr  error
	}{
		{TierStandard, DurationMonthly, 750, nil},
		{TierStandard, DurationAnnual, 7650, nil},
		{TierVIP, DurationMonthly, 1500, nil},
		{TierVIP, DurationAnnual, 12600, nil},
		{TierFree, DurationMonthly, 0, ErrInvalidPlan},
		{Tier("gold"), DurationMonthly, 0, ErrInvalidPlan},
		{TierVIP, PlanDuration("weekly"), 0, ErrInvalidDuration},
	}

	for _, test := range tests {
		test := test
		t.Run(string(test.tier)+"/"+string(test.duration), func(t *testing.T) {
			got, err := PriceFor(test.tier, test.duration)
			if test.wantErr != nil {
				assert.ErrorIs(t, err, test.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, got)
		})
	}
}

// Requirement: approving standard/monthly on a given day grants standard until the same day next month.
func TestGrantForMonthlyStandard(t *testing.T) {
	approvedAt := time.Date(2026, time.January, 31, 18, 30, 0, 0, time.UTC)
	payment := &PaymentRequest{Plan: TierStandard, Duration: DurationMonthly, Amount: 750}
	profile := &Profile{Tier: TierFree, IsAnnual: true}

	GrantFor(payment, approvedAt).Apply(profile)

	assert.Equal(t, TierStandard, profile.Tier)
	assert.Equal(t, date(2026, time.January, 31), *profile.SubscriptionStart)
	assert.Equal(t, date(2026, time.February, 28), *profile.SubscriptionEnd)
	assert.False(t, profile.IsAnnual)
}

func TestGrantForAnnualVIP(t *testing.T) {
	g := GrantFor(&PaymentRequest{Plan: TierVIP, Duration: DurationAnnual}, date(2026, time.June, 1))

	assert.Equal(t, date(2027, time.June, 1), g.End)
	assert.True(t, g.Annual)
}
