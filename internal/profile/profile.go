// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package profile extracts user traits from free-form chat text.
//
// The analyzer is a simple keyword-containment pass: each rule maps a set
// of trigger substrings to a canonical trait. Rules fire independently, so
// one message can add several traits. Analysis is idempotent because the
// profile is a set.
package profile

import (
	"strings"

	"github.com/jeranaias/flowos-tui/internal/model"
)

// rule maps trigger substrings to the canonical trait they produce.
type rule struct {
	triggers []string
	trait    string
}

// Keyword vocabulary. Order matters only for the resulting trait order in a
// fresh profile.
var rules = []rule{
	{triggers: []string{"运动", "跑步", "健身"}, trait: "运动"},
	{triggers: []string{"音乐", "唱歌"}, trait: "音乐"},
	{triggers: []string{"读书", "学习"}, trait: "学习"},
	{triggers: []string{"开朗", "外向"}, trait: "开朗外向"},
	{triggers: []string{"安静", "内向"}, trait: "安静内向"},
}

// Analyze merges the traits found in text into profile and returns the
// updated copy. The input profile is not modified.
func Analyze(p model.UserProfile, text string) model.UserProfile {
	out := p.Clone()
	for _, r := range rules {
		for _, trigger := range r.triggers {
			if strings.Contains(text, trigger) {
				out.Add(r.trait)
				break
			}
		}
	}
	return out
}
