package domain

import (
	"strings"

	dErrors "synapse/pkg/domain-errors"
)

// Tier is the retention priority of a plan record.
// Invariant: the value must be one of Hot, Cold or Archive.
//
// Usage: construct via ParseTier at trust boundaries; direct casting bypasses validation.
type Tier string

const (
	TierHot     Tier = "hot"
	TierCold    Tier = "cold"
	TierArchive Tier = "archive"
)

// ParseTier accepts the canonical lowercase names case-insensitively.
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", dErrors.New(dErrors.CodeBadRequest, "tier must be one of hot, cold, archive")
	}
	return t, nil
}

func (t Tier) IsValid() bool {
	switch t {
	case TierHot, TierCold, TierArchive:
		return true
	}
	return false
}

func (t Tier) String() string { return string(t) }

// Tiers lists every tier from most to least active.
func Tiers() []Tier {
	return []Tier{TierHot, TierCold, TierArchive}
}
