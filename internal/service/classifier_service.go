package service

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/portfolio/portfolio-assistant/internal/model"
	"go.uber.org/zap"
)

// partialMatchFactor 关键词只作为子串出现时的得分折扣
const partialMatchFactor = 0.7

// TopicInfo 主题关键词配置
type TopicInfo struct {
	Name     string
	Keywords []string
	Weight   float64
}

// DefaultTopics 默认关键词表，顺序决定同分时的排名
var DefaultTopics = []TopicInfo{
	{
		Name:     model.TopicSkills,
		Keywords: []string{"skill", "technical", "programming", "language", "technology", "tech", "proficiency", "expertise", "capability", "knowledge", "competency"},
		Weight:   1.0,
	},
	{
		Name:     model.TopicProjects,
		Keywords: []string{"project", "work", "portfolio", "built", "created", "developed", "application", "app", "system", "website", "code"},
		Weight:   1.0,
	},
	{
		Name:     model.TopicEducation,
		Keywords: []string{"education", "background", "study", "student", "university", "college", "degree", "bca", "academic", "learning", "course"},
		Weight:   1.0,
	},
	{
		Name:     model.TopicContact,
		Keywords: []string{"contact", "hire", "available", "email", "phone", "reach", "connect", "touch", "availability", "freelance", "internship", "opportunity"},
		Weight:   1.0,
	},
	{
		Name:     model.TopicExperience,
		Keywords: []string{"experience", "journey", "background", "history", "worked", "career", "professional", "worked on"},
		Weight:   0.9,
	},
	{
		Name:     model.TopicAchievements,
		Keywords: []string{"achievement", "accomplish", "success", "award", "recognition", "milestone", "competitive", "won"},
		Weight:   0.8,
	},
	{
		Name:     model.TopicTools,
		Keywords: []string{"tool", "framework", "library", "ide", "software", "environment", "platform"},
		Weight:   0.7,
	},
	{
		Name:     model.TopicPersonal,
		Keywords: []string{"who", "about", "yourself", "introduce", "tell me", "describe", "personality", "interest", "hobby"},
		Weight:   0.9,
	},
	{
		Name:     model.TopicSpecificTech,
		Keywords: []string{"java", "c++", "javascript", "html", "css", "algorithm", "data structure", "oop", "programming"},
		Weight:   1.1,
	},
}

type keyword struct {
	word  string
	exact *regexp.Regexp
}

type compiledTopic struct {
	name     string
	weight   float64
	keywords []keyword
}

// ClassifierService 关键词意图分类
type ClassifierService struct {
	topics []compiledTopic
	logger *zap.Logger
}

// NewClassifierService 使用默认关键词表创建分类服务
func NewClassifierService(logger *zap.Logger) *ClassifierService {
	return NewClassifierServiceWithTopics(DefaultTopics, logger)
}

// NewClassifierServiceWithTopics 使用自定义关键词表创建分类服务
func NewClassifierServiceWithTopics(topics []TopicInfo, logger *zap.Logger) *ClassifierService {
	compiled := make([]compiledTopic, 0, len(topics))
	for _, t := range topics {
		ct := compiledTopic{name: t.Name, weight: t.Weight}
		for _, kw := range t.Keywords {
			kw = strings.ToLower(kw)
			ct.keywords = append(ct.keywords, keyword{
				word:  kw,
				exact: regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`),
			})
		}
		compiled = append(compiled, ct)
	}

	return &ClassifierService{
		topics: compiled,
		logger: logger,
	}
}

// Classify 对消息打分，按置信度降序返回命中的主题；没有命中时返回空
func (s *ClassifierService) Classify(message string) []model.IntentScore {
	normalized := strings.ToLower(message)
	wordCount := len(strings.Fields(normalized))
	if wordCount == 0 {
		return nil
	}

	scores := make([]model.IntentScore, 0, len(s.topics))
	for _, t := range s.topics {
		score := 0.0
		matchCount := 0

		for _, kw := range t.keywords {
			if !strings.Contains(normalized, kw.word) {
				continue
			}
			matchCount++
			if kw.exact.MatchString(normalized) {
				score += t.weight
			} else {
				score += t.weight * partialMatchFactor
			}
		}

		if score > 0 {
			// 长消息降权，多个关键词命中加权
			confidence := score / math.Sqrt(float64(wordCount)) * float64(matchCount)
			scores = append(scores, model.IntentScore{Topic: t.name, Confidence: confidence})
		}
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Confidence > scores[j].Confidence
	})

	if len(scores) > 0 {
		s.logger.Debug("意图识别完成",
			zap.String("topic", scores[0].Topic),
			zap.Float64("confidence", scores[0].Confidence),
			zap.Int("candidates", len(scores)))
	}
	return scores
}

// Topics 返回关键词表中的主题（按表顺序）
func (s *ClassifierService) Topics() []string {
	names := make([]string, len(s.topics))
	for i, t := range s.topics {
		names[i] = t.name
	}
	return names
}
