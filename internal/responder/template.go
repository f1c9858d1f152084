// Package responder renders canned assistant replies from the site owner's
// profile when no model completion is available.
package responder

import (
	"math/rand/v2"

	"github.com/portfolio/portfolio-assistant/internal/model"
)

// Input 渲染模板所需的上下文
type Input struct {
	Message     string              // 用户原始消息
	Profile     *model.Profile      // 作品集资料（只读）
	AskedTopics map[string]struct{} // 本会话已问过的主题，可为 nil
	rand        *rand.Rand
}

// pick 从固定候选中均匀随机选一个
func (in Input) pick(variants []string) string {
	if in.rand == nil {
		return variants[rand.IntN(len(variants))]
	}
	return variants[in.rand.IntN(len(variants))]
}

// asked 是否问过某主题
func (in Input) asked(topic string) bool {
	_, ok := in.AskedTopics[topic]
	return ok
}

// RenderFunc 模板生成函数
type RenderFunc func(in Input) string

// Template 主题回复模板
type Template struct {
	Topic  string     `json:"topic"`
	Label  string     `json:"label"` // 推荐话题时展示的名称
	Render RenderFunc `json:"-"`
}
