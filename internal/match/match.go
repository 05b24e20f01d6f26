// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package match scores the fixed roster against a user profile.
//
// Scoring: each roster person starts from their base score and gains 5
// points per profile trait that overlaps at least one of their interests,
// where overlap means either string contains the other. Scores are clamped
// to 100. Results are ordered by score descending with a stable sort, so
// equal scores keep roster order, and at most three results are returned.
package match

import (
	"sort"
	"strings"

	"github.com/jeranaias/flowos-tui/internal/model"
)

// Scoring constants.
const (
	// interestBonus is added once per trait that overlaps an interest.
	interestBonus = 5
	// maxScore caps the final compatibility score.
	maxScore = 100
	// maxResults limits how many matches are surfaced.
	maxResults = 3
)

// Roster returns the built-in candidate roster.
// A fresh slice is returned so callers cannot mutate the shared data.
func Roster() []model.Person {
	return []model.Person{
		{
			Name:      "李小雨",
			School:    "清华大学",
			Interests: []string{"编程", "跑步", "摄影", "旅行"},
			Avatar:    "👩‍💻",
			BaseScore: 95,
		},
		{
			Name:      "张明轩",
			School:    "北京大学",
			Interests: []string{"篮球", "音乐", "读书", "健身"},
			Avatar:    "👨‍🎓",
			BaseScore: 88,
		},
		{
			Name:      "王思涵",
			School:    "复旦大学",
			Interests: []string{"绘画", "瑜伽", "咖啡", "电影"},
			Avatar:    "👩‍🎨",
			BaseScore: 92,
		},
	}
}

// FindMatches scores the roster against the profile and returns the top
// matches in descending score order.
func FindMatches(p model.UserProfile) []model.MatchResult {
	return findIn(Roster(), p)
}

// findIn is the scoring core, separated so tests can use a custom roster.
func findIn(roster []model.Person, p model.UserProfile) []model.MatchResult {
	results := make([]model.MatchResult, 0, len(roster))
	for _, person := range roster {
		results = append(results, model.MatchResult{
			Person: person,
			Score:  score(person, p),
		})
	}

	// Stable keeps roster order for equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// score computes base plus interest-overlap bonuses, clamped to maxScore.
// A trait earns its bonus at most once per person, no matter how many of
// that person's interests it overlaps.
func score(person model.Person, p model.UserProfile) int {
	s := person.BaseScore
	for _, trait := range p.Traits {
		for _, interest := range person.Interests {
			if overlaps(trait, interest) {
				s += interestBonus
				break
			}
		}
	}
	if s > maxScore {
		s = maxScore
	}
	return s
}

// overlaps reports whether either string contains the other.
// Empty strings never overlap.
func overlaps(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
