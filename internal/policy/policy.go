// Package policy decides whether a debate session may take another round.
package policy

import (
	"log/slog"

	"github.com/alienxp03/sparring/internal/core"
)

// ProfileStore exposes entitlement state. The engine only ever reads the
// premium flag through a RoundPolicy; it never mutates profiles.
type ProfileStore interface {
	GetProfile(userID string) (*core.Profile, error)
}

// RoundPolicy is consulted by the turn engine after every completed round.
type RoundPolicy interface {
	// MayContinue reports whether the session may begin another round.
	// currentRound is the number of rounds already completed.
	MayContinue(userID string, currentRound int) bool
}

// TierPolicy limits free users to a configured number of rounds and lets
// premium users continue without limit. The limit is configuration, not a
// constant: historical deployments disagreed on the value.
type TierPolicy struct {
	FreeRounds int
	Profiles   ProfileStore
}

// NewTierPolicy creates a TierPolicy. A profiles store of nil treats every
// user as free tier.
func NewTierPolicy(freeRounds int, profiles ProfileStore) *TierPolicy {
	if freeRounds <= 0 {
		freeRounds = 3
	}
	return &TierPolicy{FreeRounds: freeRounds, Profiles: profiles}
}

// MayContinue implements RoundPolicy.
func (p *TierPolicy) MayContinue(userID string, currentRound int) bool {
	if p.isPremium(userID) {
		return true
	}
	return currentRound < p.FreeRounds
}

func (p *TierPolicy) isPremium(userID string) bool {
	if p.Profiles == nil || userID == "" {
		return false
	}
	profile, err := p.Profiles.GetProfile(userID)
	if err != nil {
		slog.Warn("failed to look up profile, assuming free tier", "user_id", userID, "error", err)
		return false
	}
	return profile != nil && profile.IsPremium
}

// Unlimited is a RoundPolicy that never denies a round.
type Unlimited struct{}

// MayContinue implements RoundPolicy.
func (Unlimited) MayContinue(string, int) bool { return true }
