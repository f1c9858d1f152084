package responder

import (
	"fmt"
	"strings"

	"github.com/portfolio/portfolio-assistant/internal/model"
)

// QuickResponses 聊天窗口的快捷问题，答案从资料生成
func QuickResponses(p *model.Profile) []model.QuickResponse {
	if p == nil {
		return nil
	}
	info := p.PersonalInfo

	var top []string
	for _, id := range []string{"java", "cpp", "web"} {
		if s, ok := p.Skill(id); ok {
			top = append(top, fmt.Sprintf("%s (%d%%)", s.Name, s.Proficiency))
		}
	}

	featured := make([]string, 0, 3)
	for _, pr := range p.FeaturedProjects() {
		featured = append(featured, pr.Title)
	}

	var java string
	if s, ok := p.Skill("java"); ok {
		java = fmt.Sprintf("%s is the strongest skill at %d%% proficiency! %s", s.Name, s.Proficiency, s.Description)
	} else {
		java = "Java isn't listed in the published skills yet."
	}

	return []model.QuickResponse{
		{
			Category: model.TopicSkills,
			Question: "What are your main technical skills?",
			Response: fmt.Sprintf("Specializes in %s. Strong foundation in data structures, algorithms, and problem-solving!", joinOr(top, "a range of programming technologies")),
		},
		{
			Category: model.TopicProjects,
			Question: "Tell me about your best projects",
			Response: fmt.Sprintf("Featured projects include %s. Each showcases practical programming skills!", joinOr(featured, "a growing set of applications")),
		},
		{
			Category: model.TopicEducation,
			Question: "What's your educational background?",
			Response: joinOr(p.Education, "Education details haven't been published yet."),
		},
		{
			Category: model.TopicContact,
			Question: "How can I contact you?",
			Response: contactLine(info, p.Availability),
		},
		{
			Category: model.TopicExperience,
			Question: "What's your development experience?",
			Response: strings.TrimSpace(fmt.Sprintf("%d+ years of programming with %d+ completed projects. %s", p.Stats.YearsOfStudy, p.Stats.ProjectsCompleted, strings.Join(p.Experience, ". "))),
		},
		{
			Category: "specific",
			Question: "Tell me about your Java expertise",
			Response: java,
		},
	}
}

func contactLine(info model.PersonalInfo, availability string) string {
	parts := []string{"Feel free to reach out!"}
	if info.Email != "" {
		parts = append(parts, "Email: "+info.Email)
	}
	if info.Phone != "" {
		parts = append(parts, "Phone: "+info.Phone)
	}
	line := strings.Join(parts, " | ")
	if availability != "" {
		line += ". " + availability + "!"
	}
	return line
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

var suggestedQuestions = map[string][]string{
	model.TopicSkills: {
		"Which programming language are you most proficient in?",
		"What web technologies do you know?",
		"Tell me about your Java expertise",
	},
	model.TopicProjects: {
		"What was your most challenging project?",
		"Do you have any web development projects?",
		"What technologies did you use in your projects?",
	},
	model.TopicEducation: {
		"What are you currently learning?",
		"What's your specialization?",
		"When will you graduate?",
	},
	model.TopicContact: {
		"What type of opportunities are you looking for?",
		"Are you available for freelance work?",
		"What's the best way to reach you?",
	},
}

var defaultSuggestedQuestions = []string{
	"What are your technical skills?",
	"Tell me about your projects",
	"How can I contact you?",
	"What's your educational background?",
}

// SuggestedQuestions 针对上一个主题的追问建议
func SuggestedQuestions(lastTopic string) []string {
	qs, ok := suggestedQuestions[lastTopic]
	if !ok {
		qs = defaultSuggestedQuestions
	}
	out := make([]string, len(qs))
	copy(out, qs)
	return out
}
