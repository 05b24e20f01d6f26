// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package canned provides the local response pools used when the remote
// assistant is unavailable, plus the keyword-driven stage transitions.
//
// Responses are picked uniformly at random from a per-stage pool. The
// random source is injected so tests can pin the choice.
package canned

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/flowos-tui/internal/model"
)

// =============================================================================
// RESPONSE POOLS
// =============================================================================

// WelcomeText greets the user on first start and after a reset.
const WelcomeText = "你好！我是你的搭子匹配助手 🤝 告诉我你想找什么样的搭子吧！比如一起运动、学习、听音乐的朋友～"

// ErrorText is shown when neither the remote assistant nor local handling
// produced a reply.
const ErrorText = "抱歉，处理您的消息时出现了问题，请稍后重试。"

var initialPool = []string{
	"听起来不错！能再说说你平时的兴趣爱好吗？这样我能帮你找到更合拍的搭子～",
	"好的，我记下了！你希望搭子的性格是什么样的呢？",
	"明白！你更喜欢线上交流还是线下一起活动呢？",
}

var refiningPool = []string{
	"收到！还有其他想补充的要求吗？如果觉得差不多了，回复\"满意\"我就开始匹配～",
	"好的，我再完善一下你的画像。还有什么希望搭子具备的特点吗？",
	"记下啦！如果描述得差不多了，告诉我\"可以\"，我马上为你匹配～",
}

var finalPool = []string{
	"太好了！正在根据你的描述匹配最合适的搭子，请稍等片刻～",
	"收到确认！马上为你呈现匹配结果 ✨",
}

// =============================================================================
// RESPONDER
// =============================================================================

// Responder picks canned responses from the per-stage pools.
// Safe for concurrent use.
type Responder struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewResponder creates a Responder seeded from the current time.
func NewResponder() *Responder {
	return NewResponderWithSeed(time.Now().UnixNano())
}

// NewResponderWithSeed creates a Responder with a fixed seed for tests.
func NewResponderWithSeed(seed int64) *Responder {
	return &Responder{rng: rand.New(rand.NewSource(seed))}
}

// Response returns a canned reply appropriate for the stage.
func (r *Responder) Response(stage model.ChatStage) string {
	pool := initialPool
	switch stage {
	case model.StageRefining:
		pool = refiningPool
	case model.StageFinal:
		pool = finalPool
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return pool[r.rng.Intn(len(pool))]
}

// =============================================================================
// STAGE TRANSITIONS
// =============================================================================

// confirmKeywords move the conversation from refining to final.
var confirmKeywords = []string{"满意", "可以", "就这样", "确定"}

// NextStage returns the stage the conversation should be in after the user
// sent input while in current. Transitions only ever move forward.
func NextStage(current model.ChatStage, input string) model.ChatStage {
	switch current {
	case model.StageInitial:
		// Any first description moves into refining.
		return model.StageRefining
	case model.StageRefining:
		if IsConfirmation(input) {
			return model.StageFinal
		}
		return model.StageRefining
	default:
		return current
	}
}

// IsConfirmation reports whether the input contains a confirmation keyword.
func IsConfirmation(input string) bool {
	for _, kw := range confirmKeywords {
		if strings.Contains(input, kw) {
			return true
		}
	}
	return false
}
