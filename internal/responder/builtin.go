package responder

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/portfolio/portfolio-assistant/internal/model"
)

// RegisterBuiltinTemplates 注册所有内置模板
func RegisterBuiltinTemplates(b *Bank) error {
	templates := []*Template{
		{Topic: model.TopicGreeting, Label: "👋 Greeting", Render: renderGreeting},
		{Topic: model.TopicThanks, Label: "🙏 Thanks", Render: renderThanks},
		{Topic: model.TopicSkills, Label: "💻 Technical Skills", Render: renderSkills},
		{Topic: model.TopicSpecificTech, Label: "🧩 Specific Technologies", Render: renderSpecificTech},
		{Topic: model.TopicProjects, Label: "🚀 Projects", Render: renderProjects},
		{Topic: model.TopicEducation, Label: "🎓 Education", Render: renderEducation},
		{Topic: model.TopicContact, Label: "📬 Contact Info", Render: renderContact},
		{Topic: model.TopicExperience, Label: "💼 Experience", Render: renderExperience},
		{Topic: model.TopicAchievements, Label: "🏆 Achievements", Render: renderAchievements},
		{Topic: model.TopicPersonal, Label: "👤 About", Render: renderPersonal},
		{Topic: model.TopicTools, Label: "🛠️ Tools", Render: renderTools},
		{Topic: model.TopicDefault, Label: "💬 Overview", Render: renderDefault},
	}

	for _, t := range templates {
		if err := b.Register(t); err != nil {
			return err
		}
	}
	return nil
}

// suggestionTopics 默认回复里可推荐的主题，按顺序取前 3 个没问过的
var suggestionTopics = []string{
	model.TopicSkills,
	model.TopicProjects,
	model.TopicEducation,
	model.TopicContact,
	model.TopicExperience,
}

var suggestionLabels = map[string]string{
	model.TopicSkills:     "💻 Technical Skills",
	model.TopicProjects:   "🚀 Projects",
	model.TopicEducation:  "🎓 Education",
	model.TopicContact:    "📬 Contact Info",
	model.TopicExperience: "💼 Experience",
}

const maxSuggestions = 3

var (
	javaPattern = regexp.MustCompile(`(?i)java`)
	cppPattern  = regexp.MustCompile(`(?i)c\+\+|cpp`)
	webPattern  = regexp.MustCompile(`(?i)web|html|css|javascript`)
)

func ownerName(p *model.Profile) string {
	if p == nil {
		return "the site owner"
	}
	if name := strings.TrimSpace(p.PersonalInfo.Name); name != "" {
		return name
	}
	return "the site owner"
}

// firstName 资料里没有名字时退回 ownerName
func firstName(p *model.Profile) string {
	if p == nil {
		return ownerName(p)
	}
	if fields := strings.Fields(p.PersonalInfo.Name); len(fields) > 0 {
		return fields[0]
	}
	return ownerName(p)
}

func renderGreeting(in Input) string {
	name, first := ownerName(in.Profile), firstName(in.Profile)
	return in.pick([]string{
		fmt.Sprintf("👋 Hello! I'm %s's AI assistant. I'm here to help you explore the portfolio, skills, and projects. What would you like to know?", name),
		fmt.Sprintf("Hi there! 😊 Thanks for your interest in %s's portfolio. I can tell you about technical skills, projects, education, or how to get in touch. What interests you most?", first),
		fmt.Sprintf("Hey! Welcome! I'm here to share all about %s's journey as a developer. Feel free to ask me anything about skills, projects, or background!", first),
	})
}

func renderThanks(in Input) string {
	first := firstName(in.Profile)
	return in.pick([]string{
		fmt.Sprintf("You're welcome! 😊 Is there anything else you'd like to know about %s's work or skills?", first),
		fmt.Sprintf("Happy to help! Feel free to ask if you have any other questions about %s's portfolio or projects.", first),
		"My pleasure! Let me know if you'd like to learn more about the technical expertise or recent projects.",
	})
}

func renderSkills(in Input) string {
	var sb strings.Builder
	sb.WriteString("💻 **Technical Skills & Expertise**\n")

	var core, other []model.Skill
	if in.Profile != nil {
		for _, s := range in.Profile.Skills {
			switch s.Category {
			case "programming", "web":
				core = append(core, s)
			default:
				other = append(other, s)
			}
		}
	}

	if len(core) > 0 {
		sb.WriteString("\n**Programming Languages & Web:**\n")
		writeSkills(&sb, core)
	}
	if len(other) > 0 {
		sb.WriteString("\n**Other Strengths:**\n")
		writeSkills(&sb, other)
	}
	if len(core)+len(other) == 0 {
		sb.WriteString("\nThe skills list hasn't been published yet.\n")
	}

	sb.WriteString("\n**Development Approach:**\n")
	sb.WriteString("✨ Clean, maintainable code\n")
	sb.WriteString("✨ Continuous learning mindset\n")
	sb.WriteString("\nWant to know more about any specific technology?")
	return sb.String()
}

func writeSkills(sb *strings.Builder, skills []model.Skill) {
	for _, s := range skills {
		fmt.Fprintf(sb, "• **%s** (%d%% proficiency) - %s\n", s.Name, s.Proficiency, s.Description)
	}
}

// techSection 具体技术子模板
type techSection struct {
	skillID   string
	icon      string
	title     string
	techs     []string
	strengths []string
	closing   string
}

var (
	javaSection = techSection{
		skillID: "java",
		icon:    "☕",
		title:   "Java Expertise",
		techs:   []string{"Java"},
		strengths: []string{
			"Object-Oriented Programming (OOP)",
			"Collections Framework",
			"Exception Handling",
			"File I/O Operations",
		},
		closing: "Java's \"write once, run anywhere\" philosophy and its robust ecosystem make it a favourite!",
	}
	cppSection = techSection{
		skillID: "cpp",
		icon:    "⚡",
		title:   "C++ Proficiency",
		techs:   []string{"C++", "C"},
		strengths: []string{
			"Memory management & pointers",
			"OOP concepts in C++",
			"STL (Standard Template Library)",
			"File handling & data persistence",
		},
		closing: "C++ gives power and control over system resources, great for efficient, high-performance applications.",
	}
	webSection = techSection{
		skillID: "web",
		icon:    "🌐",
		title:   "Web Development Skills",
		techs:   []string{"HTML", "HTML5", "CSS", "CSS3", "JavaScript"},
		strengths: []string{
			"Semantic HTML5 markup and accessibility",
			"Responsive CSS3 layouts with flexbox and grid",
			"JavaScript DOM manipulation and ES6+",
		},
		closing: "Creating visually appealing and functional web experiences is a big part of the work!",
	}
)

func renderSpecificTech(in Input) string {
	var section techSection
	switch {
	case javaPattern.MatchString(in.Message):
		section = javaSection
	case cppPattern.MatchString(in.Message):
		section = cppSection
	case webPattern.MatchString(in.Message):
		section = webSection
	default:
		return renderSkills(in)
	}

	if in.Profile == nil {
		return renderSkills(in)
	}
	skill, ok := in.Profile.Skill(section.skillID)
	if !ok {
		return renderSkills(in)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s **%s**\n\n", section.icon, section.title)
	fmt.Fprintf(&sb, "%s is a core skill with **%d%% proficiency**! %s\n", skill.Name, skill.Proficiency, skill.Description)

	if projects := in.Profile.ProjectsUsing(section.techs...); len(projects) > 0 {
		sb.WriteString("\n**Projects Built:**\n")
		for _, p := range projects {
			fmt.Fprintf(&sb, "• %s - %s\n", p.Title, p.Description)
		}
	}

	sb.WriteString("\n**Strengths:**\n")
	for _, s := range section.strengths {
		fmt.Fprintf(&sb, "✓ %s\n", s)
	}
	sb.WriteString("\n")
	sb.WriteString(section.closing)
	return sb.String()
}

func renderProjects(in Input) string {
	var sb strings.Builder
	sb.WriteString("🚀 **Projects Portfolio**\n")

	if in.Profile == nil || len(in.Profile.Projects) == 0 {
		sb.WriteString("\nNo projects have been published yet. Check back soon!")
		return sb.String()
	}

	sb.WriteString("\nHere are some projects worth a look:\n")
	for i, p := range in.Profile.Projects {
		fmt.Fprintf(&sb, "\n**%d. %s**", i+1, p.Title)
		if p.Featured {
			sb.WriteString(" ⭐")
		}
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "→ %s\n", p.Description)
		if len(p.Technologies) > 0 {
			fmt.Fprintf(&sb, "→ Tech: %s\n", strings.Join(p.Technologies, ", "))
		}
		if p.Status != "" {
			fmt.Fprintf(&sb, "→ Status: %s\n", p.Status)
		}
		if p.DemoURL != "" {
			fmt.Fprintf(&sb, "→ Demo: %s\n", p.DemoURL)
		}
		if p.GithubURL != "" {
			fmt.Fprintf(&sb, "→ Code: %s\n", p.GithubURL)
		}
	}

	sb.WriteString("\nEach project demonstrates practical application of programming concepts. Want to know more about any specific project?")
	return sb.String()
}

func renderEducation(in Input) string {
	var sb strings.Builder
	sb.WriteString("🎓 **Educational Background**\n")

	if in.Profile != nil && len(in.Profile.Education) > 0 {
		sb.WriteString("\n")
		writeBullets(&sb, "•", in.Profile.Education)
	} else {
		sb.WriteString("\nEducation details haven't been published yet.\n")
	}

	sb.WriteString("\n**Learning Philosophy:**\n")
	sb.WriteString("✨ Hands-on, project-based learning\n")
	sb.WriteString("✨ Practical application of theory\n")
	sb.WriteString("\nLearning by doing: every project is an opportunity to grow! 🌱")
	return sb.String()
}

func renderContact(in Input) string {
	var sb strings.Builder
	sb.WriteString("📬 **Let's Connect!**\n\n")
	sb.WriteString("Always excited to discuss new opportunities and collaborations!\n")

	if in.Profile == nil {
		sb.WriteString("\nUse the contact form on this site to get in touch.")
		return sb.String()
	}

	info := in.Profile.PersonalInfo
	sb.WriteString("\n**Contact Information:**\n")
	if info.Email != "" {
		fmt.Fprintf(&sb, "📧 **Email:** %s\n", info.Email)
	}
	if info.Phone != "" {
		fmt.Fprintf(&sb, "📱 **Phone:** %s\n", info.Phone)
	}
	if info.Location != "" {
		fmt.Fprintf(&sb, "📍 **Location:** %s\n", info.Location)
	}

	if in.Profile.Availability != "" {
		fmt.Fprintf(&sb, "\n**Availability:**\n✅ %s\n", in.Profile.Availability)
	}

	var links []string
	for _, l := range in.Profile.SocialLinks {
		if l.ID == "email" || l.ID == "phone" {
			continue
		}
		links = append(links, fmt.Sprintf("🔗 **%s:** %s", l.Name, l.URL))
	}
	if len(links) > 0 {
		sb.WriteString("\n**Find me online:**\n")
		sb.WriteString(strings.Join(links, "\n"))
		sb.WriteString("\n")
	}

	sb.WriteString("\nEmail is best for detailed discussions, or use the contact form on this site. Looking forward to connecting with you! 🤝")
	return sb.String()
}

func renderExperience(in Input) string {
	var sb strings.Builder
	sb.WriteString("💼 **Experience & Journey**\n")

	if in.Profile == nil {
		sb.WriteString("\nExperience details haven't been published yet.")
		return sb.String()
	}

	if len(in.Profile.Experience) > 0 {
		sb.WriteString("\n")
		writeBullets(&sb, "✨", in.Profile.Experience)
	}

	stats := in.Profile.Stats
	if stats.ProjectsCompleted > 0 || stats.YearsOfStudy > 0 {
		sb.WriteString("\n**By the numbers:**\n")
		if stats.YearsOfStudy > 0 {
			fmt.Fprintf(&sb, "📅 **%d+ years** of programming experience\n", stats.YearsOfStudy)
		}
		if stats.ProjectsCompleted > 0 {
			fmt.Fprintf(&sb, "📅 Completed **%d+ projects**\n", stats.ProjectsCompleted)
		}
		if stats.TechnologiesLearned > 0 {
			fmt.Fprintf(&sb, "📅 **%d** technologies learned\n", stats.TechnologiesLearned)
		}
	}

	sb.WriteString("\nWant to know about any specific aspect of the journey?")
	return sb.String()
}

func renderAchievements(in Input) string {
	var sb strings.Builder
	sb.WriteString("🏆 **Achievements & Milestones**\n")

	if in.Profile == nil || len(in.Profile.Achievements) == 0 {
		sb.WriteString("\nMilestones are on the way!")
		return sb.String()
	}

	sb.WriteString("\n")
	writeBullets(&sb, "✨", in.Profile.Achievements)

	if stats := in.Profile.Stats; stats.CertificationsEarned > 0 {
		fmt.Fprintf(&sb, "🎯 **%d** certifications earned\n", stats.CertificationsEarned)
	}

	sb.WriteString("\nThe journey is ongoing, and there's a lot more ahead! 🚀")
	return sb.String()
}

func renderPersonal(in Input) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "👨‍💻 **About %s**\n", ownerName(in.Profile))

	if in.Profile == nil {
		return sb.String()
	}

	info := in.Profile.PersonalInfo
	if info.Title != "" {
		fmt.Fprintf(&sb, "\n**%s**", info.Title)
		if info.Location != "" {
			fmt.Fprintf(&sb, " from %s", info.Location)
		}
		sb.WriteString("\n")
	}
	if info.Bio != "" {
		fmt.Fprintf(&sb, "\n%s\n", info.Bio)
	}
	if info.Tagline != "" {
		fmt.Fprintf(&sb, "\n**Philosophy:** \"%s\" 💫\n", info.Tagline)
	}

	sb.WriteString("\nWhat would you like to know next?")
	return sb.String()
}

func renderTools(in Input) string {
	var sb strings.Builder
	sb.WriteString("🛠️ **Tools & Platforms**\n")

	if in.Profile == nil {
		return sb.String()
	}

	techs := make([]string, 0)
	seen := make(map[string]struct{})
	for _, p := range in.Profile.Projects {
		for _, t := range p.Technologies {
			key := strings.ToLower(t)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			techs = append(techs, t)
		}
	}

	if len(techs) > 0 {
		sb.WriteString("\nTechnologies used across the projects:\n")
		writeBullets(&sb, "•", techs)
	}

	sb.WriteString("\nAsk about a specific project to see how these were put together!")
	return sb.String()
}

func renderDefault(in Input) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "👋 **Hello! I'm %s's Portfolio Assistant**\n\n", ownerName(in.Profile))
	sb.WriteString("I can help you discover:\n\n")
	sb.WriteString("💻 **Technical Skills** - Programming languages, frameworks, and proficiencies\n")
	sb.WriteString("🚀 **Projects** - Completed work and practical applications\n")
	sb.WriteString("🎓 **Education** - Academic background and specializations\n")
	sb.WriteString("💼 **Experience** - Development journey and achievements\n")
	sb.WriteString("📬 **Contact** - How to reach out for opportunities\n")

	if in.Profile != nil && in.Profile.PersonalInfo.Bio != "" {
		fmt.Fprintf(&sb, "\n**About %s:**\n%s\n", firstName(in.Profile), in.Profile.PersonalInfo.Bio)
	}

	sb.WriteString("\nWhat would you like to explore? Feel free to ask specific questions!")

	var suggestions []string
	for _, topic := range suggestionTopics {
		if in.asked(topic) {
			continue
		}
		suggestions = append(suggestions, suggestionLabels[topic])
		if len(suggestions) == maxSuggestions {
			break
		}
	}
	if len(suggestions) > 0 {
		sb.WriteString("\n\n**You might also want to know about:**\n")
		sb.WriteString(strings.Join(suggestions, "\n"))
	}
	return sb.String()
}

func writeBullets(sb *strings.Builder, bullet string, items []string) {
	for _, item := range items {
		fmt.Fprintf(sb, "%s %s\n", bullet, item)
	}
}
