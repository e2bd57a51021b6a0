package generator

import (
	"strings"
)

// Request describes the course to generate.
type Request struct {
	Topic      string `json:"topic" validate:"required,notblank"`
	SourceText string `json:"source_text"`
	Level      string `json:"level" validate:"omitempty,level"`
	// Personalization is free text about the learner (eg. a memory summary) the course should be tailored to.
	Personalization string `json:"-"`
}

type Outline struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Level       string   `json:"level"`
	Topic       string   `json:"topic,omitempty"` // set from the Request
	Modules     []Module `json:"modules"`
}

type Module struct {
	Title   string   `json:"title"`
	Summary string   `json:"summary"`
	Lessons []Lesson `json:"lessons"`
}

type Lesson struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Kind  string `json:"kind"`
}

// LessonCount returns the number of lessons across all modules.
func (o Outline) LessonCount() int {
	var n int
	for _, m := range o.Modules {
		n += len(m.Lessons)
	}
	return n
}

// OutlineError lists why a provider response is not a usable outline.
type OutlineError struct {
	Problems []string
}

func (e *OutlineError) Error() string {
	return "invalid course outline: " + strings.Join(e.Problems, "; ")
}
