package generator

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are Pawfessor, an instructional designer.
You write short, practical courses for busy professionals.
Answer with a single JSON object and nothing else, shaped like:
{
  "title": "...",
  "description": "...",
  "level": "beginner|intermediate|advanced",
  "modules": [
    {"title": "...", "summary": "...", "lessons": [
      {"title": "...", "body": "Markdown lesson text", "kind": "lesson|quiz|homework"}
    ]}
  ]
}
Use 2 to 5 modules with 2 to 4 lessons each. End every module with a quiz or a homework.`

func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a course about: %s\nLevel: %s\n", req.Topic, req.Level)

	if src := strings.TrimSpace(req.SourceText); src != "" {
		if r := []rune(src); len(r) > maxSourceText {
			src = string(r[:maxSourceText])
		}
		b.WriteString("\nBase the course on this material:\n<<<\n")
		b.WriteString(src)
		b.WriteString("\n>>>\n")
	}
	if p := strings.TrimSpace(req.Personalization); p != "" {
		b.WriteString("\nWhat we know about the learner (tailor examples to it):\n")
		b.WriteString(p)
		b.WriteString("\n")
	}
	return b.String()
}
