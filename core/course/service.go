// Package course implements courses, their content, enrollments, progress tracking and homework.
package course

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/flowlearn/pawfessor/core"
	"github.com/flowlearn/pawfessor/core/profile"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound           = errors.New("course not found")
	ErrContentNotFound    = errors.New("content not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAlreadyEnrolled    = errors.New("already enrolled in this course")
	ErrNotEnrolled        = errors.New("not enrolled in this course")
	ErrNotHomework        = errors.New("content is not a homework")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		// CreateCourseWithContent stores c and its contents atomically.
		CreateCourseWithContent(ctx context.Context, c Course, contents []Content) (Course, []Content, error)
		// QueryCourses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on Course.Title, Course.Topic or Course.Description.
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCourse(ctx context.Context, id string) error

		// CreateEnrollment returns ErrAlreadyEnrolled when (UserID, CourseID) exists.
		CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		// GetEnrollment returns ErrNotEnrolled when absent.
		GetEnrollment(ctx context.Context, userID, courseID string) (Enrollment, error)
		UpdateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		DeleteEnrollment(ctx context.Context, userID, courseID string) error
		// QueryUserCourses returns the user's courses, most recent enrollment first.
		QueryUserCourses(ctx context.Context, userID string) ([]UserCourse, error)

		CreateContent(ctx context.Context, c Content) (Content, error)
		// QueryContent returns the course content ordered by position.
		QueryContent(ctx context.Context, courseID string) ([]Content, error)
		GetContentByID(ctx context.Context, id string) (Content, error)
		UpdateContent(ctx context.Context, c Content) (Content, error)
		DeleteContent(ctx context.Context, id string) error

		// UpsertProgress creates or replaces the (UserID, ContentID) row.
		UpsertProgress(ctx context.Context, p Progress) (Progress, error)
		QueryProgress(ctx context.Context, userID, courseID string) ([]Progress, error)

		CreateSubmission(ctx context.Context, s Submission) (Submission, error)
		// QuerySubmissions returns the matching submissions, most recent first.
		QuerySubmissions(ctx context.Context, filter *SubmissionFilter) ([]Submission, error)
		GetSubmissionByID(ctx context.Context, id string) (Submission, error)
		UpdateSubmission(ctx context.Context, s Submission) (Submission, error)
	}

	// ProfileGetter finds the students to notify.
	ProfileGetter interface {
		GetProfileByID(ctx context.Context, id string) (profile.Profile, error)
	}

	Service struct {
		repo     Repository
		profiles ProfileGetter
		mailSvc  core.EmailService
		validate *validator.Validate
		logger   core.Logger
	}
)

func NewService(
	repo Repository,
	profiles ProfileGetter,
	mailSvc core.EmailService,
	validate *validator.Validate,
	logger core.Logger,
) *Service {
	return &Service{
		repo:     repo,
		profiles: profiles,
		mailSvc:  mailSvc,
		validate: validate,
		logger:   logger,
	}
}

func blankFieldError(field string) error {
	return core.NewValidationError(nil, core.FieldError{Field: field, Error: "this field cannot be blank"})
}

// Courses

func (svc *Service) CreateCourse(ctx context.Context, nc NewCourse, createdBy string) (Course, error) {
	nc.clean()
	if err := svc.validate.Struct(nc); err != nil {
		return Course{}, err
	}

	now := NowFunc().UTC()
	return svc.repo.CreateCourse(ctx, Course{
		Title:       nc.Title,
		Description: nc.Description,
		Topic:       nc.Topic,
		Level:       nc.Level,
		IsPublished: nc.IsPublished,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) GetCourse(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *Service) QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

func (svc *Service) UpdateCourse(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	if err := svc.validate.Struct(uc); err != nil {
		return Course{}, err
	}
	c, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}

	if uc.Title != nil {
		c.Title = core.CleanString(*uc.Title)
	}
	if uc.Description != nil {
		c.Description = core.CleanString(*uc.Description)
	}
	if uc.Topic != nil {
		c.Topic = core.CleanString(*uc.Topic)
	}
	if uc.Level != nil && *uc.Level != "" {
		c.Level = *uc.Level
	}
	if uc.IsPublished != nil {
		c.IsPublished = *uc.IsPublished
	}
	c.UpdatedAt = NowFunc().UTC()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *Service) DeleteCourse(ctx context.Context, id string) error {
	return svc.repo.DeleteCourse(ctx, id)
}
