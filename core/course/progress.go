package course

import (
	"context"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// RecordProgress upserts the user's progress on a content of a course they are enrolled in.
// Once every content of the course is completed, the enrollment is marked completed.
func (svc *Service) RecordProgress(ctx context.Context, userID, contentID string, rp RecordProgress) (Progress, error) {
	if err := svc.validate.Struct(rp); err != nil {
		return Progress{}, err
	}
	content, err := svc.repo.GetContentByID(ctx, contentID)
	if err != nil {
		return Progress{}, err
	}
	enrollment, err := svc.repo.GetEnrollment(ctx, userID, content.CourseID)
	if err != nil {
		return Progress{}, err
	}

	p, err := svc.repo.UpsertProgress(ctx, Progress{
		UserID:    userID,
		CourseID:  content.CourseID,
		ContentID: contentID,
		Completed: rp.Completed,
		Score:     rp.Score,
		UpdatedAt: NowFunc().UTC(),
	})
	if err != nil {
		return Progress{}, err
	}

	if p.Completed && enrollment.Status == StatusActive {
		if err = svc.completeIfDone(ctx, enrollment); err != nil {
			return Progress{}, pkgerrors.Wrap(err, "completing enrollment")
		}
	}
	return p, nil
}

func (svc *Service) completeIfDone(ctx context.Context, e Enrollment) error {
	cp, err := svc.courseProgress(ctx, e.UserID, e.CourseID)
	if err != nil {
		return err
	}
	if cp.Total == 0 || cp.Completed < cp.Total {
		return nil
	}

	e.Status = StatusCompleted
	e.CompletedAt = NowFunc().UTC()
	if _, err = svc.repo.UpdateEnrollment(ctx, e); err != nil {
		return err
	}
	svc.logger.Info(fmt.Sprintf("course %s completed by %s", e.CourseID, e.UserID))
	return nil
}

// CourseProgress counts the completed content of the course for an enrolled user.
func (svc *Service) CourseProgress(ctx context.Context, userID, courseID string) (CourseProgress, error) {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return CourseProgress{}, err
	}
	e, err := svc.repo.GetEnrollment(ctx, userID, courseID)
	if err != nil {
		return CourseProgress{}, err
	}

	cp, err := svc.courseProgress(ctx, userID, courseID)
	if err != nil {
		return CourseProgress{}, err
	}
	cp.Status = e.Status
	return cp, nil
}

func (svc *Service) courseProgress(ctx context.Context, userID, courseID string) (CourseProgress, error) {
	contents, err := svc.repo.QueryContent(ctx, courseID)
	if err != nil {
		return CourseProgress{}, err
	}
	rows, err := svc.repo.QueryProgress(ctx, userID, courseID)
	if err != nil {
		return CourseProgress{}, err
	}

	done := make(map[string]bool, len(rows))
	for _, p := range rows {
		done[p.ContentID] = p.Completed
	}
	cp := CourseProgress{CourseID: courseID, Total: len(contents)}
	for _, c := range contents {
		if done[c.ID] {
			cp.Completed++
		}
	}
	if cp.Total > 0 {
		cp.Percent = cp.Completed * 100 / cp.Total
	}
	return cp, nil
}
