package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDailyLimit(t *testing.T) {
	tests := []struct {
		plan     Plan
		limit    Limit
		expected int
	}{
		{PlanFree, LimitSwipes, 10},
		{PlanFree, LimitAIChats, 5},
		{PlanFree, LimitScans, 3},
		{PlanPro, LimitAIChats, Unlimited},
		{PlanElite, LimitScans, Unlimited},
		{Plan("platinum"), LimitScans, 3},
		{PlanFree, Limit("boosts_per_day"), 0},
	}

	for _, tc := range tests {
		t.Run(string(tc.plan)+"/"+string(tc.limit), func(t *testing.T) {
			assert.Equal(t, tc.expected, DailyLimit(tc.plan, tc.limit))
		})
	}
}

func TestCanAccess(t *testing.T) {
	assert.False(t, CanAccess(PlanFree, CapUnlimitedAI))
	assert.True(t, CanAccess(PlanPro, CapUnlimitedAI))
	assert.True(t, CanAccess(PlanPro, CapTrainerChat))
	assert.False(t, CanAccess(PlanPro, CapProfileBoost))
	assert.True(t, CanAccess(PlanElite, CapAdvancedFilters))
	assert.False(t, CanAccess(PlanElite, Capability("teleport")))
}

func TestNormalizePlan(t *testing.T) {
	assert.Equal(t, PlanPro, NormalizePlan(" PRO "))
	assert.Equal(t, PlanElite, NormalizePlan("elite"))
	assert.Equal(t, PlanFree, NormalizePlan(""))
	assert.Equal(t, PlanFree, NormalizePlan("enterprise"))
}

func TestPlanLimits_ReturnsCopy(t *testing.T) {
	limits := PlanLimits(PlanFree)
	limits[LimitScans] = 99

	assert.Equal(t, 3, DailyLimit(PlanFree, LimitScans))
}

func TestCapabilities(t *testing.T) {
	assert.Empty(t, Capabilities(PlanFree))
	assert.Equal(t, []Capability{CapTrainerChat, CapUnlimitedAI, CapUnlimitedScans, CapUnlimitedSwipes}, Capabilities(PlanPro))
	assert.Len(t, Capabilities(PlanElite), 6)
}
