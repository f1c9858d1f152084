package model

// 助手能识别的主题
const (
	TopicSkills       = "skills"
	TopicProjects     = "projects"
	TopicEducation    = "education"
	TopicContact      = "contact"
	TopicExperience   = "experience"
	TopicAchievements = "achievements"
	TopicTools        = "tools"
	TopicPersonal     = "personal"
	TopicSpecificTech = "specific_tech"

	// 以下主题只由路由规则产生，不在关键词表中
	TopicGreeting = "greeting"
	TopicThanks   = "thanks"
	TopicDefault  = "default"
)
