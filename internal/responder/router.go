package responder

import (
	"regexp"

	"github.com/portfolio/portfolio-assistant/internal/model"
)

var (
	greetingPattern = regexp.MustCompile(`(?i)^(hi|hello|hey|greetings|good morning|good afternoon|good evening)\b`)
	thanksPattern   = regexp.MustCompile(`(?i)(thank|thanks|appreciate|grateful)`)
	techPattern     = regexp.MustCompile(`(?i)(java|c\+\+|javascript|html|css)`)
)

// Route 根据消息和意图得分选择回复模板的主题
func Route(message string, intents []model.IntentScore) string {
	switch {
	case greetingPattern.MatchString(message):
		return model.TopicGreeting
	case thanksPattern.MatchString(message):
		return model.TopicThanks
	case techPattern.MatchString(message):
		return model.TopicSpecificTech
	}

	if len(intents) == 0 {
		return model.TopicDefault
	}

	switch top := intents[0].Topic; top {
	case model.TopicSkills, model.TopicSpecificTech:
		// 没点名具体技术时给总览
		return model.TopicSkills
	case model.TopicProjects, model.TopicEducation, model.TopicContact, model.TopicExperience,
		model.TopicAchievements, model.TopicPersonal, model.TopicTools:
		return top
	default:
		return model.TopicDefault
	}
}
