package course

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/flowlearn/pawfessor/core"
)

const submissionGradedTmpl = "submission_graded"

// Submit hands in a homework on behalf of an enrolled user.
func (svc *Service) Submit(ctx context.Context, userID, contentID string, ns NewSubmission) (Submission, error) {
	if err := svc.validate.Struct(ns); err != nil {
		return Submission{}, err
	}
	content, err := svc.repo.GetContentByID(ctx, contentID)
	if err != nil {
		return Submission{}, err
	}
	if content.Kind != KindHomework {
		return Submission{}, ErrNotHomework
	}
	if _, err = svc.repo.GetEnrollment(ctx, userID, content.CourseID); err != nil {
		return Submission{}, err
	}

	return svc.repo.CreateSubmission(ctx, Submission{
		UserID:      userID,
		CourseID:    content.CourseID,
		ContentID:   contentID,
		Body:        ns.Body,
		SubmittedAt: NowFunc().UTC(),
	})
}

func (svc *Service) QuerySubmissions(ctx context.Context, filter *SubmissionFilter) ([]Submission, error) {
	return svc.repo.QuerySubmissions(ctx, filter)
}

func (svc *Service) GetSubmission(ctx context.Context, id string) (Submission, error) {
	return svc.repo.GetSubmissionByID(ctx, id)
}

// Grade grades (or re-grades) a submission and emails the student.
func (svc *Service) Grade(ctx context.Context, id string, gs GradeSubmission) (Submission, error) {
	if err := svc.validate.Struct(gs); err != nil {
		return Submission{}, err
	}
	s, err := svc.repo.GetSubmissionByID(ctx, id)
	if err != nil {
		return Submission{}, err
	}

	s.Grade = gs.Grade
	s.Feedback = core.CleanString(gs.Feedback)
	s.GradedAt = NowFunc().UTC()
	if s, err = svc.repo.UpdateSubmission(ctx, s); err != nil {
		return Submission{}, err
	}

	svc.notifyGraded(ctx, s)
	return s, nil
}

// notifyGraded emails the student; failures are logged, the grade stands.
func (svc *Service) notifyGraded(ctx context.Context, s Submission) {
	student, err := svc.profiles.GetProfileByID(ctx, s.UserID)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("grading notification: finding student %s: %v", s.UserID, err), err)
		return
	}
	data := gradedEmailData{
		StudentName: student.Name,
		CourseID:    s.CourseID,
		Grade:       *s.Grade,
		Feedback:    s.Feedback,
	}
	if c, err := svc.repo.GetCourseByID(ctx, s.CourseID); err == nil {
		data.CourseTitle = c.Title
	}
	if c, err := svc.repo.GetContentByID(ctx, s.ContentID); err == nil {
		data.ContentTitle = c.Title
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject:      "Your homework has been graded",
		TemplateName: submissionGradedTmpl,
		TemplateData: data,
	})
}

type gradedEmailData struct {
	StudentName  string
	ContentTitle string
	CourseTitle  string
	CourseID     string
	Grade        float64
	Feedback     string
}
