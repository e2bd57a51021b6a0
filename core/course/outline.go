package course

import (
	"context"
	"strings"

	"github.com/flowlearn/pawfessor/core"
	"github.com/flowlearn/pawfessor/core/generator"
)

// CreateFromOutline stores a generated outline as an unpublished course with one content per lesson,
// positioned in outline order.
func (svc *Service) CreateFromOutline(ctx context.Context, outline generator.Outline, createdBy string) (Course, []Content, error) {
	level := strings.ToLower(outline.Level)
	switch level {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
	default:
		level = LevelBeginner
	}

	now := NowFunc().UTC()
	c := Course{
		Title:       core.CleanString(outline.Title),
		Description: core.CleanString(outline.Description),
		Topic:       core.CleanString(outline.Topic),
		Level:       level,
		IsGenerated: true,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if c.Title == "" {
		return Course{}, nil, blankFieldError("title")
	}

	contents := make([]Content, 0, outline.LessonCount())
	for _, m := range outline.Modules {
		for _, l := range m.Lessons {
			kind := l.Kind
			if kind != KindQuiz && kind != KindHomework {
				kind = KindLesson
			}
			contents = append(contents, Content{
				Title:     core.CleanString(l.Title),
				Body:      l.Body,
				Kind:      kind,
				Position:  len(contents),
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
	}
	return svc.repo.CreateCourseWithContent(ctx, c, contents)
}
