package course

import (
	"context"
)

// Enroll enrolls the user in an existing course. A dropped enrollment is reactivated.
func (svc *Service) Enroll(ctx context.Context, userID, courseID string) (Enrollment, error) {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return Enrollment{}, err
	}

	e, err := svc.repo.GetEnrollment(ctx, userID, courseID)
	switch err {
	case nil:
		if e.Status != StatusDropped {
			return Enrollment{}, ErrAlreadyEnrolled
		}
		e.Status = StatusActive
		e.EnrolledAt = NowFunc().UTC()
		return svc.repo.UpdateEnrollment(ctx, e)
	case ErrNotEnrolled:
		return svc.repo.CreateEnrollment(ctx, Enrollment{
			UserID:     userID,
			CourseID:   courseID,
			Status:     StatusActive,
			EnrolledAt: NowFunc().UTC(),
		})
	default:
		return Enrollment{}, err
	}
}

// Unenroll removes the enrollment. Progress and submissions are kept.
func (svc *Service) Unenroll(ctx context.Context, userID, courseID string) error {
	return svc.repo.DeleteEnrollment(ctx, userID, courseID)
}

func (svc *Service) UserCourses(ctx context.Context, userID string) ([]UserCourse, error) {
	return svc.repo.QueryUserCourses(ctx, userID)
}

func (svc *Service) GetEnrollment(ctx context.Context, userID, courseID string) (Enrollment, error) {
	return svc.repo.GetEnrollment(ctx, userID, courseID)
}
