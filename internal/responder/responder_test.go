package responder

import (
	"math/rand/v2"
	"testing"

	"github.com/portfolio/portfolio-assistant/internal/model"
	"github.com/portfolio/portfolio-assistant/internal/portfolio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestBank() *Bank {
	return NewDefaultBank(zap.NewNop(), WithRand(rand.New(rand.NewPCG(1, 2))))
}

func TestBankRegistry(t *testing.T) {
	b := NewBank(zap.NewNop())

	assert.Error(t, b.Register(&Template{Topic: "", Render: renderDefault}))
	assert.Error(t, b.Register(&Template{Topic: "x"}))

	require.NoError(t, b.Register(&Template{Topic: "x", Render: func(Input) string { return "x" }}))
	assert.Error(t, b.Register(&Template{Topic: "x", Render: func(Input) string { return "y" }}))
	assert.Equal(t, 1, b.Count())

	_, err := b.Get("missing")
	assert.Error(t, err)

	// 没有默认模板时也要能回复
	assert.NotEmpty(t, b.Render("missing", "hello", nil))
}

func TestDefaultBankTopics(t *testing.T) {
	b := newTestBank()
	assert.Equal(t, 12, b.Count())

	topics := make([]string, 0, b.Count())
	for _, tpl := range b.List() {
		topics = append(topics, tpl.Topic)
	}
	assert.Equal(t, model.TopicGreeting, topics[0])
	assert.Equal(t, model.TopicDefault, topics[len(topics)-1])
	assert.Equal(t, "🚀 Projects", b.Label(model.TopicProjects))
	assert.Equal(t, "nope", b.Label("nope"))
}

func TestRender_GreetingAndThanksVariants(t *testing.T) {
	b := newTestBank()
	p := portfolio.Default()

	// 独立随机源选出的变体也必须在集合内
	other := renderGreeting(Input{Profile: p, rand: rand.New(rand.NewPCG(7, 7))})

	seen := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		seen[b.Render(model.TopicGreeting, "hi", p)] = struct{}{}
	}
	assert.Len(t, seen, 3)
	assert.Contains(t, seen, other)
	for g := range seen {
		assert.Contains(t, g, "Ajnish")
	}

	thanks := map[string]struct{}{}
	for i := 0; i < 200; i++ {
		thanks[b.Render(model.TopicThanks, "thanks", p)] = struct{}{}
	}
	assert.Len(t, thanks, 3)
}

func TestRender_SkillsTemplate(t *testing.T) {
	b := newTestBank()
	out := b.Render(model.TopicSkills, "What programming languages do you know?", portfolio.Default())

	assert.Contains(t, out, "Java")
	assert.Contains(t, out, "C")
	assert.Contains(t, out, "Web")
	assert.Contains(t, out, "Java Programming** (85% proficiency)")
}

func TestRender_SpecificTechPriority(t *testing.T) {
	b := newTestBank()
	p := portfolio.Default()

	java := b.Render(model.TopicSpecificTech, "Do you know Java and C++?", p)
	assert.Contains(t, java, "Java Expertise")
	assert.Contains(t, java, "85% proficiency")
	assert.Contains(t, java, "Programming Practice Solutions")

	cpp := b.Render(model.TopicSpecificTech, "what about cpp", p)
	assert.Contains(t, cpp, "C++ Proficiency")
	assert.Contains(t, cpp, "Monthly Item List Management System")

	web := b.Render(model.TopicSpecificTech, "any CSS work?", p)
	assert.Contains(t, web, "Web Development Skills")
	assert.Contains(t, web, "Personal Portfolio Website")

	// javascript 先命中 java
	js := b.Render(model.TopicSpecificTech, "javascript", p)
	assert.Contains(t, js, "Java Expertise")

	general := b.Render(model.TopicSpecificTech, "algorithms", p)
	assert.Contains(t, general, "Technical Skills & Expertise")
}

func TestRender_ContactIncludesEmail(t *testing.T) {
	b := newTestBank()
	out := b.Render(model.TopicContact, "How can I reach you?", portfolio.Default())

	assert.Contains(t, out, "ajnishkumar7070@gmail.com")
	assert.Contains(t, out, "+91 9608415521")
	assert.Contains(t, out, "https://github.com/ajnish-kumar-sahu")
	assert.Contains(t, out, "internships")
}

func TestRender_DefaultIsTotal(t *testing.T) {
	b := newTestBank()

	assert.NotEmpty(t, b.Render(model.TopicDefault, "", nil))
	assert.NotEmpty(t, b.Render("unknown-topic", "", &model.Profile{}))

	for _, tpl := range b.List() {
		assert.NotEmpty(t, b.Render(tpl.Topic, "", nil), tpl.Topic)
		assert.NotEmpty(t, b.Render(tpl.Topic, "", &model.Profile{}), tpl.Topic)
	}
}

func TestRender_BlankOwnerName(t *testing.T) {
	b := newTestBank()
	p := &model.Profile{PersonalInfo: model.PersonalInfo{Name: "   ", Bio: "bio"}}

	for _, tpl := range b.List() {
		assert.NotPanics(t, func() { b.Render(tpl.Topic, "hello", p) }, tpl.Topic)
	}
	assert.Contains(t, b.Render(model.TopicDefault, "", p), "the site owner")
	assert.Equal(t, "the site owner", firstName(p))
	assert.Equal(t, "Ada", firstName(&model.Profile{PersonalInfo: model.PersonalInfo{Name: " Ada Lovelace "}}))
}

func TestRender_DefaultSuggestsUnaskedTopics(t *testing.T) {
	b := newTestBank()
	p := portfolio.Default()

	fresh := b.Render(model.TopicDefault, "", p)
	assert.Contains(t, fresh, "You might also want to know about:**\n💻 Technical Skills\n🚀 Projects\n🎓 Education")
	assert.NotContains(t, fresh, "📬 Contact Info")

	out := b.RenderInput(model.TopicDefault, Input{
		Profile: p,
		AskedTopics: map[string]struct{}{
			model.TopicSkills:   {},
			model.TopicProjects: {},
		},
	})
	assert.Contains(t, out, "🎓 Education\n📬 Contact Info\n💼 Experience")

	all := map[string]struct{}{}
	for _, topic := range suggestionTopics {
		all[topic] = struct{}{}
	}
	none := b.RenderInput(model.TopicDefault, Input{Profile: p, AskedTopics: all})
	assert.NotContains(t, none, "You might also want to know about")
}

func TestRoute(t *testing.T) {
	intents := func(topic string) []model.IntentScore {
		return []model.IntentScore{{Topic: topic, Confidence: 1}}
	}

	assert.Equal(t, model.TopicGreeting, Route("Hello there", intents(model.TopicProjects)))
	assert.Equal(t, model.TopicGreeting, Route("good morning!", nil))
	assert.NotEqual(t, model.TopicGreeting, Route("hire me", intents(model.TopicContact)))
	assert.Equal(t, model.TopicThanks, Route("thanks a lot for the java info", nil))
	assert.Equal(t, model.TopicSpecificTech, Route("Tell me about HTML", intents(model.TopicSkills)))
	assert.Equal(t, model.TopicSkills, Route("What programming languages do you know?", intents(model.TopicSkills)))
	assert.Equal(t, model.TopicSkills, Route("algorithm", intents(model.TopicSpecificTech)))
	assert.Equal(t, model.TopicContact, Route("How can I reach you?", intents(model.TopicContact)))
	assert.Equal(t, model.TopicTools, Route("library", intents(model.TopicTools)))
	assert.Equal(t, model.TopicDefault, Route("zzz", nil))
	assert.Equal(t, model.TopicDefault, Route("zzz", intents("unknown")))
}

func TestQuickResponses(t *testing.T) {
	qs := QuickResponses(portfolio.Default())
	require.Len(t, qs, 6)

	categories := make([]string, len(qs))
	for i, q := range qs {
		categories[i] = q.Category
		assert.NotEmpty(t, q.Question)
		assert.NotEmpty(t, q.Response)
	}
	assert.Equal(t, []string{"skills", "projects", "education", "contact", "experience", "specific"}, categories)
	assert.Contains(t, qs[0].Response, "Java Programming (85%)")
	assert.Contains(t, qs[3].Response, "ajnishkumar7070@gmail.com")

	assert.Nil(t, QuickResponses(nil))
}

func TestSuggestedQuestions(t *testing.T) {
	assert.Len(t, SuggestedQuestions(model.TopicSkills), 3)
	assert.Contains(t, SuggestedQuestions(model.TopicContact), "Are you available for freelance work?")
	assert.Len(t, SuggestedQuestions(""), 4)
	assert.Equal(t, SuggestedQuestions("nope"), SuggestedQuestions(model.TopicExperience))

	qs := SuggestedQuestions(model.TopicSkills)
	qs[0] = "mutated"
	assert.NotEqual(t, "mutated", SuggestedQuestions(model.TopicSkills)[0])
}
