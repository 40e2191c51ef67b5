package payroll_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-export/generic"
	"github.com/warp/payroll-export/payroll"
)

func TestClassifyShifts_OnCallNeverCountsAsWorkedTime(t *testing.T) {
	// GIVEN: one on-call shift and one base shift; the on-call role also has
	// an override rate, which must not matter
	shifts := []payroll.RawShift{
		shift(1, roleOnCall, 0, 10, 0),
		shift(2, roleCare, 24, 8, 30),
	}
	overrides := map[payroll.RoleID]generic.Amount{roleOnCall: gbp("20")}

	// WHEN: classified
	got := payroll.ClassifyShifts(shifts, overrides, roleLookup)

	// THEN: the on-call shift is a stub exactly once and nowhere else
	require.Len(t, got.OnCallStubs, 1)
	assert.Equal(t, payroll.ShiftID(1), got.OnCallStubs[0].ShiftID)
	assert.Empty(t, got.CustomRoles)
	assert.Equal(t, "7.50", got.BaseHours.Value.StringFixed(2))
	assert.Equal(t, "7.50", got.TotalHours.Value.StringFixed(2))
}

func TestClassifyShifts_RoutesOverridesToCustomBuckets(t *testing.T) {
	// GIVEN: two Homecare shifts with an override and one Care shift without
	shifts := []payroll.RawShift{
		shift(1, roleHome, 0, 4, 0),
		shift(2, roleCare, 24, 8, 60),
		shift(3, roleHome, 48, 3, 15),
	}
	overrides := map[payroll.RoleID]generic.Amount{roleHome: gbp("13.50")}

	got := payroll.ClassifyShifts(shifts, overrides, roleLookup)

	// THEN: Homecare holds 6.75h at 13.50, base holds 7h, total covers both
	require.Contains(t, got.CustomRoles, roleHome)
	home := got.CustomRoles[roleHome]
	assert.Equal(t, "Homecare", home.Role.Name)
	assert.Equal(t, "6.75", home.Hours.Value.StringFixed(2))
	assert.Equal(t, "13.50", home.Rate.Value.StringFixed(2))
	assert.Equal(t, "7.00", got.BaseHours.Value.StringFixed(2))
	assert.Equal(t, "13.75", got.TotalHours.Value.StringFixed(2))
}

func TestClassifyShifts_EveryShiftLandsInExactlyOneBucket(t *testing.T) {
	shifts := []payroll.RawShift{
		shift(1, roleOnCall, 0, 12, 0),
		shift(2, roleHome, 24, 5, 0),
		shift(3, roleCare, 48, 6, 0),
		shift(4, roleNight, 72, 9, 0),
		{ID: 5, Start: ts(base), End: nil, Role: roleCare},
	}
	overrides := map[payroll.RoleID]generic.Amount{roleHome: gbp("13"), roleNight: gbp("14")}

	got := payroll.ClassifyShifts(shifts, overrides, roleLookup)

	var customHours int
	for _, rh := range got.CustomRoles {
		customHours += int(rh.Hours.Value.IntPart())
	}
	routed := len(got.OnCallStubs) + len(got.CustomRoles) + len(got.Dropped) + 1 // base shift 3
	assert.Equal(t, len(shifts), routed)
	assert.Equal(t, 14, customHours)
	assert.Equal(t, "6.00", got.BaseHours.Value.StringFixed(2))
	assert.Equal(t, []payroll.ShiftID{5}, got.Dropped)
}

func TestClassifyShifts_MissingTimestampsAreDropped(t *testing.T) {
	// GIVEN: an on-call shift without an end and a base shift without a start
	shifts := []payroll.RawShift{
		{ID: 1, Start: ts(base), Role: roleOnCall},
		{ID: 2, End: ts(base), Role: roleCare},
	}

	got := payroll.ClassifyShifts(shifts, nil, roleLookup)

	// THEN: neither is counted anywhere, not even as an on-call stub
	assert.Empty(t, got.OnCallStubs)
	assert.True(t, got.TotalHours.IsZero())
	assert.ElementsMatch(t, []payroll.ShiftID{1, 2}, got.Dropped)
}

func TestClassifyShifts_RoundsOncePerBucket(t *testing.T) {
	// GIVEN: three shifts of 20 minutes (0.333h each, 1h together)
	third := int64(1200)
	shifts := []payroll.RawShift{
		{ID: 1, Start: ts(base), End: ts(base + third), Role: roleCare},
		{ID: 2, Start: ts(base + hour), End: ts(base + hour + third), Role: roleCare},
		{ID: 3, Start: ts(base + 2*hour), End: ts(base + 2*hour + third), Role: roleCare},
	}

	got := payroll.ClassifyShifts(shifts, nil, roleLookup)

	// THEN: seconds are summed first, so 1.00 rather than 3 x 0.33
	assert.Equal(t, "1.00", got.BaseHours.Value.StringFixed(2))
}

func TestClassifyShifts_NoShifts(t *testing.T) {
	got := payroll.ClassifyShifts(nil, nil, roleLookup)

	assert.True(t, got.TotalHours.IsZero())
	assert.True(t, got.BaseHours.IsZero())
	assert.Empty(t, got.OnCallStubs)
	assert.NotNil(t, got.CustomRoles)
}

func TestNewRole_TagsOnCallOnce(t *testing.T) {
	assert.True(t, payroll.NewRole(1, "On-Call").IsOnCall())

	// only the exact name counts
	for _, name := range []string{"on-call", "ON-CALL", " On-Call ", "On-Call "} {
		assert.False(t, payroll.NewRole(1, name).IsOnCall(), name)
	}
	assert.False(t, payroll.NewRole(1, "On Call Support").IsOnCall())
	assert.False(t, payroll.NewRole(1, "Care Assistant").IsOnCall())
}

func TestRoleIDs_DistinctInFirstSeenOrder(t *testing.T) {
	shifts := []payroll.RawShift{shift(1, roleHome, 0, 1, 0), shift(2, roleCare, 1, 1, 0), shift(3, roleHome, 2, 1, 0)}

	assert.Equal(t, []payroll.RoleID{roleHome, roleCare}, payroll.RoleIDs(shifts))
}

func TestClassifyShifts_CaseVariantIsOrdinaryWork(t *testing.T) {
	// GIVEN: a role named "on-call" in lower case
	lookup := func(id payroll.RoleID) payroll.Role { return payroll.NewRole(id, "on-call") }
	shifts := []payroll.RawShift{shift(1, 99, 0, 4, 0)}

	got := payroll.ClassifyShifts(shifts, nil, lookup)

	// THEN: its hours are base hours, not an on-call stub
	assert.Empty(t, got.OnCallStubs)
	assert.Equal(t, "4.00", got.BaseHours.Value.StringFixed(2))
}
