// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// MATCHING DOMAIN TYPES
// =============================================================================

// UserProfile accumulates the traits extracted from the user's messages.
// Traits are an ordered set: insertion order is preserved and duplicates
// are never added, so analyzing the same text twice is a no-op.
type UserProfile struct {
	Traits []string `json:"traits"`
}

// Has reports whether the profile already contains the trait.
func (p *UserProfile) Has(trait string) bool {
	for _, t := range p.Traits {
		if t == trait {
			return true
		}
	}
	return false
}

// Add appends a trait if not already present.
func (p *UserProfile) Add(trait string) {
	if !p.Has(trait) {
		p.Traits = append(p.Traits, trait)
	}
}

// Clone returns an independent copy of the profile.
func (p *UserProfile) Clone() UserProfile {
	traits := make([]string, len(p.Traits))
	copy(traits, p.Traits)
	return UserProfile{Traits: traits}
}

// IsEmpty reports whether no traits have been collected yet.
func (p *UserProfile) IsEmpty() bool {
	return len(p.Traits) == 0
}

// Person is a roster entry that users can be matched against.
type Person struct {
	Name      string   `json:"name"`
	School    string   `json:"school"`
	Interests []string `json:"interests"`
	Avatar    string   `json:"avatar"`

	// BaseScore is the starting compatibility score before interest
	// overlap bonuses are applied.
	BaseScore int `json:"base_score"`
}

// MatchResult pairs a roster person with their computed score.
type MatchResult struct {
	Person Person `json:"person"`
	Score  int    `json:"score"`
}
