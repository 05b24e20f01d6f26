// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/flowos-tui/internal/model"
)

func TestRosterIsolation(t *testing.T) {
	a := Roster()
	a[0].Name = "mutated"
	b := Roster()
	assert.Equal(t, "李小雨", b[0].Name)
}

func TestFindMatchesEmptyProfile(t *testing.T) {
	results := FindMatches(model.UserProfile{})
	require.Len(t, results, 3)

	// Base scores only, descending
	assert.Equal(t, "李小雨", results[0].Person.Name)
	assert.Equal(t, 95, results[0].Score)
	assert.Equal(t, "王思涵", results[1].Person.Name)
	assert.Equal(t, 92, results[1].Score)
	assert.Equal(t, "张明轩", results[2].Person.Name)
	assert.Equal(t, 88, results[2].Score)
}

func TestFindMatchesInterestBonus(t *testing.T) {
	// 运动 overlaps nothing directly, but 跑步 is an interest of 李小雨.
	// The trait "运动" contains no interest and vice versa, so only exact
	// substring pairs count.
	p := model.UserProfile{Traits: []string{"跑步"}}
	results := FindMatches(p)

	require.Len(t, results, 3)
	assert.Equal(t, "李小雨", results[0].Person.Name)
	assert.Equal(t, 100, results[0].Score) // 95 + 5
}

func TestFindMatchesClamp(t *testing.T) {
	// Three of 张明轩's interests hit, but 李小雨 at 95+5 still clamps at 100.
	p := model.UserProfile{Traits: []string{"跑步", "音乐", "读书", "健身"}}
	results := FindMatches(p)

	for _, r := range results {
		assert.LessOrEqual(t, r.Score, 100)
	}

	// 张明轩: 88 + 3*5 = 103 -> clamped to 100
	var zhang model.MatchResult
	for _, r := range results {
		if r.Person.Name == "张明轩" {
			zhang = r
		}
	}
	assert.Equal(t, 100, zhang.Score)
}

func TestBonusOncePerTrait(t *testing.T) {
	roster := []model.Person{
		{Name: "multi", BaseScore: 60, Interests: []string{"音乐", "读书"}},
	}

	// The trait contains both interests; the bonus still applies once.
	p := model.UserProfile{Traits: []string{"音乐读书"}}
	results := findIn(roster, p)
	require.Len(t, results, 1)
	assert.Equal(t, 65, results[0].Score)

	// Two distinct traits earn two bonuses.
	p = model.UserProfile{Traits: []string{"音乐", "读书"}}
	results = findIn(roster, p)
	assert.Equal(t, 70, results[0].Score)
}

func TestFindMatchesStableOrderOnTies(t *testing.T) {
	roster := []model.Person{
		{Name: "first", BaseScore: 90},
		{Name: "second", BaseScore: 90},
		{Name: "third", BaseScore: 90},
	}
	results := findIn(roster, model.UserProfile{})
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].Person.Name)
	assert.Equal(t, "second", results[1].Person.Name)
	assert.Equal(t, "third", results[2].Person.Name)
}

func TestFindMatchesTopThree(t *testing.T) {
	roster := []model.Person{
		{Name: "a", BaseScore: 10},
		{Name: "b", BaseScore: 20},
		{Name: "c", BaseScore: 30},
		{Name: "d", BaseScore: 40},
		{Name: "e", BaseScore: 50},
	}
	results := findIn(roster, model.UserProfile{})
	require.Len(t, results, 3)
	assert.Equal(t, "e", results[0].Person.Name)
	assert.Equal(t, "c", results[2].Person.Name)
}

func TestOverlapsBidirectional(t *testing.T) {
	assert.True(t, overlaps("运动健身", "健身"))
	assert.True(t, overlaps("健身", "运动健身"))
	assert.False(t, overlaps("音乐", "绘画"))
	assert.False(t, overlaps("", "绘画"))
	assert.False(t, overlaps("音乐", ""))
}
