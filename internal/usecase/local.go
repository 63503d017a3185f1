package usecase

import (
	"strings"

	"github.com/cespare/xxhash/v2"

	"portfolio-chat/internal/calc"
)

var jokes = []string{
	"Why do programmers prefer dark mode? Because light attracts bugs! 🐛",
	"How many programmers does it take to change a light bulb? None, that's a hardware problem! 💡",
	"Why do Java developers wear glasses? Because they don't C#! 👓",
	"What's a programmer's favorite hangout place? Foo Bar! 🍺",
	"Why did the programmer quit his job? He didn't get arrays! 📊",
}

var defaultReplies = []string{
	"That's an interesting question! I can help with programming topics, math, general knowledge, jokes, and information about Youssef's portfolio. What would you like to explore? 🤔",
	"I'm here to help! I can answer questions about software development, technology, basic calculations, tell jokes, and share details about this portfolio. What catches your interest? 💡",
	"Great question! I'm best at discussing programming, technology, math problems, general knowledge, and portfolio information. I can even tell jokes! What would you like to know? 🎈",
}

const (
	ageReply        = "I'm a digital AI assistant, so I don't have an age in the traditional sense! I was created to help visitors learn about Youssef's portfolio. How can I assist you today? 🤖"
	locationReply   = "I exist in the digital realm! I'm hosted on this portfolio website to help visitors learn about Youssef Rajeh's skills and projects. He's located in London, Ontario, Canada. 🌐"
	assistantReply  = "I'm Youssef's AI assistant! I'm here to help visitors learn about his skills, projects, and experience. Think of me as his digital portfolio guide! 🤖"
	userNameReply   = "I don't know your name, but I'd love to help you learn about Youssef Rajeh's portfolio! Feel free to ask me about his programming skills, projects, or experience. 😊"
	greetingReply   = "Hello! I'm an AI assistant that can help answer questions about programming, technology, math, and more. I can also tell you about Youssef's portfolio and experience. What would you like to know? 👋"
	skillsReply     = "Youssef has expertise in C++ (90%), Java (80%), JavaScript (80%), HTML (85%), CSS (85%), SQL (75%), C# (70%), and Kotlin (75%). He's also skilled in Cisco Networking (85%). His strongest area is C++ programming! 💪"
	experienceReply = "Youssef has 15+ years of professional experience spanning chemistry, quality control, and production management across Syria and Cameroon. He's currently pursuing Computer Programming at Fanshawe College with a 3.9 GPA and seeking software development opportunities! 🌟"
	projectsReply   = "Youssef has developed several impressive C++ projects including an Emergency Room Triage system using priority queues, a Breast Cancer Decision Tree for medical AI, and various data analysis tools. Check out his GitHub for more details! 🚀"
	contactReply    = "You can reach Youssef at youssefrrajeh@gmail.com or +1 (548) 388-4360. He's located in London, Ontario, Canada and is actively seeking software development opportunities! 📧📞"
	mathHelpReply   = "I can help with basic math calculations. Try asking something like '5 + 3' or 'calculate 10 * 2'. 📊"
)

// rule maps keyword substrings of the lower-cased message to a reply. Rules
// are evaluated in slice order and the first match wins.
type rule struct {
	category string
	keywords []string
	reply    func(message, lower string) string
}

var localRules = []rule{
	{category: "joke", keywords: []string{"joke", "funny", "laugh"}, reply: pick(jokes)},
	{category: "assistant_age", keywords: []string{"how old", "your age", "age are you"}, reply: fixed(ageReply)},
	{category: "assistant_location", keywords: []string{"where are you", "your location", "located"}, reply: fixed(locationReply)},
	{category: "assistant_name", keywords: []string{"your name", "who are you", "what are you"}, reply: fixed(assistantReply)},
	{category: "user_name", keywords: []string{"what is my name", "my name", "who am i"}, reply: fixed(userNameReply)},
	{category: "greeting", keywords: []string{"hello", "hi", "hey"}, reply: fixed(greetingReply)},
	{category: "skills", keywords: []string{"skill", "programming", "language"}, reply: fixed(skillsReply)},
	{category: "experience", keywords: []string{"experience", "work", "job"}, reply: fixed(experienceReply)},
	{category: "projects", keywords: []string{"project", "github", "code"}, reply: fixed(projectsReply)},
	{category: "contact", keywords: []string{"contact", "email", "phone", "hire"}, reply: fixed(contactReply)},
	{category: "arithmetic", keywords: []string{"+", "-", "*", "/", "calculate"}, reply: arithmeticReply},
}

// localReply classifies message with the keyword rules and returns the reply
// together with the matched category ("default" when nothing matched).
func localReply(message string) (reply, category string) {
	lower := strings.ToLower(message)
	for _, r := range localRules {
		if containsAny(lower, r.keywords) {
			return r.reply(message, lower), r.category
		}
	}
	return selectFor(message, defaultReplies), "default"
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// selectFor deterministically picks one candidate for message.
func selectFor(message string, candidates []string) string {
	return candidates[xxhash.Sum64String(message)%uint64(len(candidates))]
}

func pick(candidates []string) func(message, lower string) string {
	return func(message, _ string) string {
		return selectFor(message, candidates)
	}
}

func fixed(reply string) func(message, lower string) string {
	return func(_, _ string) string {
		return reply
	}
}

func arithmeticReply(_, lower string) string {
	expr := calc.Extract(lower)
	if expr == "" {
		return mathHelpReply
	}
	v, err := calc.Evaluate(expr)
	if err != nil {
		return mathHelpReply
	}
	return "The answer is: " + calc.Format(v)
}
