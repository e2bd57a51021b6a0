package course

import (
	"context"

	"github.com/flowlearn/pawfessor/core"
)

// AddContent appends content to an existing course, or inserts it at NewContent.Position.
func (svc *Service) AddContent(ctx context.Context, courseID string, nc NewContent) (Content, error) {
	nc.Title = core.CleanString(nc.Title)
	nc.Kind = core.CleanString(nc.Kind, true /* lower */)
	if err := svc.validate.Struct(nc); err != nil {
		return Content{}, err
	}
	if nc.Kind == "" {
		nc.Kind = KindLesson
	}

	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return Content{}, err
	}

	var pos int
	if nc.Position != nil {
		pos = *nc.Position
	} else {
		existing, err := svc.repo.QueryContent(ctx, courseID)
		if err != nil {
			return Content{}, err
		}
		if n := len(existing); n > 0 {
			pos = existing[n-1].Position + 1
		}
	}

	now := NowFunc().UTC()
	return svc.repo.CreateContent(ctx, Content{
		CourseID:  courseID,
		Title:     nc.Title,
		Body:      nc.Body,
		Kind:      nc.Kind,
		Position:  pos,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// ListContent returns the course content ordered by position.
func (svc *Service) ListContent(ctx context.Context, courseID string) ([]Content, error) {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return nil, err
	}
	return svc.repo.QueryContent(ctx, courseID)
}

func (svc *Service) GetContent(ctx context.Context, id string) (Content, error) {
	return svc.repo.GetContentByID(ctx, id)
}

func (svc *Service) UpdateContent(ctx context.Context, id string, uc UpdateContent) (Content, error) {
	if err := svc.validate.Struct(uc); err != nil {
		return Content{}, err
	}
	c, err := svc.repo.GetContentByID(ctx, id)
	if err != nil {
		return Content{}, err
	}

	if uc.Title != nil {
		c.Title = core.CleanString(*uc.Title)
	}
	if uc.Body != nil {
		c.Body = *uc.Body
	}
	if uc.Kind != nil && *uc.Kind != "" {
		c.Kind = *uc.Kind
	}
	if uc.Position != nil {
		c.Position = *uc.Position
	}
	c.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateContent(ctx, c)
}

func (svc *Service) DeleteContent(ctx context.Context, id string) error {
	return svc.repo.DeleteContent(ctx, id)
}
