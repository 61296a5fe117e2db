package enrichment

import (
	"fmt"
	"strings"

	"github.com/heartmarshall/signalflow-backend/internal/domain"
	"github.com/heartmarshall/signalflow-backend/internal/textgen"
)

const (
	insightsMaxTokens   = 500
	insightsTemperature = 0.3
	replyMaxTokens      = 300
	replyTemperature    = 0.7
	actionMaxTokens     = 200
	actionTemperature   = 0.3
)

const assistantSystem = "You are an assistant that helps a sports coach follow up on the athletes they train."

// renderHistory formats messages oldest-first as "athlete:" / "coach:" lines.
func renderHistory(history []domain.Message) string {
	var b strings.Builder
	for i := range history {
		body := strings.TrimSpace(history[i].Body())
		if body == "" {
			continue
		}
		role := "athlete"
		if history[i].Direction == domain.DirectionOut {
			role = "coach"
		}
		fmt.Fprintf(&b, "%s: %s\n", role, body)
	}
	return b.String()
}

func renderSubject(s *domain.Subject) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Athlete: %s\n", s.DisplayName())
	if s != nil && s.Sport != nil {
		fmt.Fprintf(&b, "Sport: %s\n", *s.Sport)
	}
	if s != nil && s.Level != nil {
		fmt.Fprintf(&b, "Level: %s\n", *s.Level)
	}
	return b.String()
}

func categoryList() string {
	names := make([]string, len(domain.InsightCategories))
	for i, c := range domain.InsightCategories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}

func insightsRequest(pc processContext, limit int) textgen.Request {
	return textgen.Request{
		System: assistantSystem,
		Context: renderSubject(pc.subject) + "\nConversation:\n" + renderHistory(pc.history) +
			"\nMessage to analyze:\n" + pc.message.Body(),
		Instructions: fmt.Sprintf(`Extract at most %d key highlights from the message to analyze.
Each highlight is an object with:
- "text": one short sentence a coach can act on
- "category": one of %s
- "score": relevance between 0 and 1
Return an empty array when nothing is worth noting.`, limit, categoryList()),
		Shape:       textgen.ShapeJSONList,
		MaxTokens:   insightsMaxTokens,
		Temperature: insightsTemperature,
	}
}

func replyRequest(pc processContext, tone string, words int) textgen.Request {
	sport, level := "", ""
	if pc.subject != nil && pc.subject.Sport != nil {
		sport = *pc.subject.Sport + " "
	}
	if pc.subject != nil && pc.subject.Level != nil {
		level = *pc.subject.Level + " "
	}
	return textgen.Request{
		System: fmt.Sprintf("You are a professional sports coach responding to %s, a %s%sathlete.",
			pc.subject.DisplayName(), level, sport),
		Context: "Conversation:\n" + renderHistory(pc.history) +
			"\nLatest message from the athlete:\n" + pc.message.Body(),
		Instructions: fmt.Sprintf(`Write a reply to the latest message.
Guidelines:
- Be %s
- Address any concern, pain or injury mentioned
- Give concrete, practical advice when it helps
- Keep it under %d words
Return only the reply text.`, tone, words),
		Shape:       textgen.ShapeText,
		MaxTokens:   replyMaxTokens,
		Temperature: replyTemperature,
	}
}

func actionRequest(pc processContext, today string) textgen.Request {
	return textgen.Request{
		System:  assistantSystem,
		Context: renderSubject(pc.subject) + "\nMessage:\n" + pc.message.Body(),
		Instructions: fmt.Sprintf(`Decide whether the message asks the coach to do something
(send a plan, schedule a session, review a document, call back...).
Today is %s.
Return an object with:
- "has_request": true or false
- "title": short task title, empty when there is no request
- "details": extra detail, may be empty
- "due_at": "YYYY-MM-DD" when a date is implied, otherwise null`, today),
		Shape:       textgen.ShapeJSONObject,
		MaxTokens:   actionMaxTokens,
		Temperature: actionTemperature,
	}
}
