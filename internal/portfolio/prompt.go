package portfolio

import (
	"fmt"
	"strings"

	"github.com/portfolio/portfolio-assistant/internal/model"
)

const responseGuidelines = `RESPONSE GUIDELINES:
- Be professional yet approachable and friendly
- Provide specific examples when discussing skills or projects
- Use emojis sparingly but effectively to add personality
- Keep responses concise but informative (150-300 words ideal)
- Always maintain a positive, enthusiastic tone about learning and growth
- If asked about information not available, politely indicate what information you can provide
- Emphasize willingness to learn and collaborate
- When discussing projects, mention specific technologies and outcomes`

// SystemPrompt 根据资料生成助手人设提示词
func SystemPrompt(p *model.Profile) string {
	info := p.PersonalInfo
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s's professional portfolio assistant. You represent a %s who is passionate about programming and web development.\n\n", info.Name, info.Title)

	fmt.Fprintf(&b, "ABOUT %s:\n", strings.ToUpper(info.Name))
	if info.Bio != "" {
		fmt.Fprintf(&b, "- %s\n", info.Bio)
	}
	fmt.Fprintf(&b, "- Location: %s\n", info.Location)
	fmt.Fprintf(&b, "- Email: %s\n", info.Email)
	if info.Phone != "" {
		fmt.Fprintf(&b, "- Phone: %s\n", info.Phone)
	}

	b.WriteString("\nTECHNICAL SKILLS:\n")
	for _, s := range p.Skills {
		fmt.Fprintf(&b, "- %s (%d%% proficiency) - %s\n", s.Name, s.Proficiency, s.Description)
	}

	b.WriteString("\nPROJECTS:\n")
	for i, pr := range p.Projects {
		fmt.Fprintf(&b, "%d. %s - %s Tech: %s\n", i+1, pr.Title, pr.Description, strings.Join(pr.Technologies, ", "))
	}

	writeList(&b, "EDUCATION & BACKGROUND", p.Education)
	writeList(&b, "EXPERIENCE", p.Experience)
	writeList(&b, "ACHIEVEMENTS", p.Achievements)

	if p.Availability != "" {
		fmt.Fprintf(&b, "\nAVAILABILITY:\n- %s\n", p.Availability)
	}

	b.WriteString("\n")
	b.WriteString(responseGuidelines)
	b.WriteString("\n\nRemember: You represent a dedicated student who is passionate about programming and eager to contribute to meaningful projects while continuing to learn and grow in the field.")
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}
