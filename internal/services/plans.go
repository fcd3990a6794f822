package services

import (
	"sort"
	"strings"
)

type Plan string

const (
	PlanFree  Plan = "free"
	PlanPro   Plan = "pro"
	PlanElite Plan = "elite"
)

// Limit names a per-day allowance.
type Limit string

const (
	LimitSwipes  Limit = "swipes_per_day"
	LimitAIChats Limit = "ai_chats_per_day"
	LimitScans   Limit = "scans_per_day"
)

// Unlimited marks a limit with no daily cap.
const Unlimited = -1

// Capability is an on/off plan feature.
type Capability string

const (
	CapUnlimitedSwipes Capability = "unlimited_swipes"
	CapUnlimitedAI     Capability = "unlimited_ai"
	CapUnlimitedScans  Capability = "unlimited_scans"
	CapTrainerChat     Capability = "trainer_chat"
	CapProfileBoost    Capability = "profile_boost"
	CapAdvancedFilters Capability = "advanced_filters"
)

var dailyLimits = map[Plan]map[Limit]int{
	PlanFree: {
		LimitSwipes:  10,
		LimitAIChats: 5,
		LimitScans:   3,
	},
	PlanPro: {
		LimitSwipes:  Unlimited,
		LimitAIChats: Unlimited,
		LimitScans:   Unlimited,
	},
	PlanElite: {
		LimitSwipes:  Unlimited,
		LimitAIChats: Unlimited,
		LimitScans:   Unlimited,
	},
}

var capabilities = map[Capability][]Plan{
	CapUnlimitedSwipes: {PlanPro, PlanElite},
	CapUnlimitedAI:     {PlanPro, PlanElite},
	CapUnlimitedScans:  {PlanPro, PlanElite},
	CapTrainerChat:     {PlanPro, PlanElite},
	CapProfileBoost:    {PlanElite},
	CapAdvancedFilters: {PlanElite},
}

// NormalizePlan maps a stored plan name onto a known Plan. Anything unknown is free.
func NormalizePlan(name string) Plan {
	p := Plan(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := dailyLimits[p]; ok {
		return p
	}
	return PlanFree
}

// DailyLimit returns the allowance for limit on plan, Unlimited, or 0 for unknown limits.
func DailyLimit(plan Plan, limit Limit) int {
	return dailyLimits[NormalizePlan(string(plan))][limit]
}

func CanAccess(plan Plan, c Capability) bool {
	plan = NormalizePlan(string(plan))
	for _, p := range capabilities[c] {
		if p == plan {
			return true
		}
	}
	return false
}

// Capabilities lists the features plan unlocks, sorted by name.
func Capabilities(plan Plan) []Capability {
	out := []Capability{}
	for c := range capabilities {
		if CanAccess(plan, c) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PlanLimits lists every daily limit of a plan.
func PlanLimits(plan Plan) map[Limit]int {
	src := dailyLimits[NormalizePlan(string(plan))]
	out := make(map[Limit]int, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
