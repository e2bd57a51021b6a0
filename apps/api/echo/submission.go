package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/flowlearn/pawfessor/core/course"
)

type submissionApi struct {
	svc *course.Service
}

func registerSubmissionAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := submissionApi{svc: deps.CourseSvc}

	sg := g.Group("/submissions", jwt)
	sg.GET("", api.query)
	sg.POST("/:id/grade", api.grade)
}

// Handlers

// query shows students their own submissions only.
// Teachers see the submissions to their courses and admins see everything.
func (api *submissionApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	filter := &course.SubmissionFilter{
		CourseID:  ctx.QueryParam("course_id"),
		UserID:    ctx.QueryParam("user_id"),
		ContentID: ctx.QueryParam("content_id"),
		Graded:    queryBool(ctx, "graded"),
	}
	if !claims.CanAuthor() {
		filter.UserID = claims.Subject
	}

	submissions, err := api.svc.QuerySubmissions(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}

	if claims.CanAuthor() && !claims.IsAdmin() {
		submissions = api.visibleToAuthor(ctx, claims, submissions)
	}
	if submissions == nil {
		submissions = []course.Submission{}
	}
	return ctx.JSON(http.StatusOK, submissions)
}

// visibleToAuthor keeps the submissions to the author's courses and their own.
func (api *submissionApi) visibleToAuthor(ctx echo.Context, claims Claims, submissions []course.Submission) []course.Submission {
	owned := make(map[string]bool) // {courseID: owned}
	visible := make([]course.Submission, 0, len(submissions))
	for _, s := range submissions {
		mine, seen := owned[s.CourseID]
		if !seen {
			c, err := api.svc.GetCourse(ctx.Request().Context(), s.CourseID)
			mine = err == nil && canEdit(claims, c)
			owned[s.CourseID] = mine
		}
		if mine || s.UserID == claims.Subject {
			visible = append(visible, s)
		}
	}
	return visible
}

// grade is allowed to the author of the submission's course and admins.
func (api *submissionApi) grade(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	s, err := api.svc.GetSubmission(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding submission by ID")
	}
	c, err := api.svc.GetCourse(ctx.Request().Context(), s.CourseID)
	if err != nil {
		return errors.Wrap(err, "finding submission course")
	}
	if !canEdit(claims, c) {
		return errHttpForbidden
	}

	var data course.GradeSubmission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GradeSubmission")
	}

	if s, err = api.svc.Grade(ctx.Request().Context(), s.ID, data); err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, s)
}
