package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/flowlearn/pawfessor/core"
	"github.com/flowlearn/pawfessor/core/course"
)

const (
	courseColumns     = "id, title, description, topic, level, is_published, is_generated, created_by, created_at, updated_at"
	enrollmentColumns = "id, user_id, course_id, status, enrolled_at, completed_at"
	contentColumns    = "id, course_id, title, body, kind, position, created_at, updated_at"
	progressColumns   = "id, user_id, course_id, content_id, completed, score, updated_at"
	submissionColumns = "id, user_id, course_id, content_id, body, grade, feedback, submitted_at, graded_at"
)

type (
	courseRow struct {
		ID          string    `db:"id"`
		Title       string    `db:"title"`
		Description string    `db:"description"`
		Topic       string    `db:"topic"`
		Level       string    `db:"level"`
		IsPublished bool      `db:"is_published"`
		IsGenerated bool      `db:"is_generated"`
		CreatedBy   string    `db:"created_by"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	enrollmentRow struct {
		ID          string    `db:"id"`
		UserID      string    `db:"user_id"`
		CourseID    string    `db:"course_id"`
		Status      string    `db:"status"`
		EnrolledAt  time.Time `db:"enrolled_at"`
		CompletedAt null.Time `db:"completed_at"`
	}

	userCourseRow struct {
		courseRow
		Status      string    `db:"status"`
		EnrolledAt  time.Time `db:"enrolled_at"`
		CompletedAt null.Time `db:"completed_at"`
	}

	contentRow struct {
		ID        string    `db:"id"`
		CourseID  string    `db:"course_id"`
		Title     string    `db:"title"`
		Body      string    `db:"body"`
		Kind      string    `db:"kind"`
		Position  int       `db:"position"`
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}

	progressRow struct {
		ID        string       `db:"id"`
		UserID    string       `db:"user_id"`
		CourseID  string       `db:"course_id"`
		ContentID string       `db:"content_id"`
		Completed bool         `db:"completed"`
		Score     null.Float64 `db:"score"`
		UpdatedAt time.Time    `db:"updated_at"`
	}

	submissionRow struct {
		ID          string       `db:"id"`
		UserID      string       `db:"user_id"`
		CourseID    string       `db:"course_id"`
		ContentID   string       `db:"content_id"`
		Body        string       `db:"body"`
		Grade       null.Float64 `db:"grade"`
		Feedback    null.String  `db:"feedback"`
		SubmittedAt time.Time    `db:"submitted_at"`
		GradedAt    null.Time    `db:"graded_at"`
	}
)

func toCourseRow(c course.Course) courseRow {
	return courseRow{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Topic:       c.Topic,
		Level:       c.Level,
		IsPublished: c.IsPublished,
		IsGenerated: c.IsGenerated,
		CreatedBy:   c.CreatedBy,
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
}

func (r courseRow) course() course.Course {
	return course.Course{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Topic:       r.Topic,
		Level:       r.Level,
		IsPublished: r.IsPublished,
		IsGenerated: r.IsGenerated,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func toEnrollmentRow(e course.Enrollment) enrollmentRow {
	return enrollmentRow{
		ID:          e.ID,
		UserID:      e.UserID,
		CourseID:    e.CourseID,
		Status:      e.Status,
		EnrolledAt:  e.EnrolledAt.UTC(),
		CompletedAt: nullTime(e.CompletedAt),
	}
}

func (r enrollmentRow) enrollment() course.Enrollment {
	return course.Enrollment{
		ID:          r.ID,
		UserID:      r.UserID,
		CourseID:    r.CourseID,
		Status:      r.Status,
		EnrolledAt:  r.EnrolledAt.UTC(),
		CompletedAt: fromNullTime(r.CompletedAt),
	}
}

func toContentRow(c course.Content) contentRow {
	return contentRow{
		ID:        c.ID,
		CourseID:  c.CourseID,
		Title:     c.Title,
		Body:      c.Body,
		Kind:      c.Kind,
		Position:  c.Position,
		CreatedAt: c.CreatedAt.UTC(),
		UpdatedAt: c.UpdatedAt.UTC(),
	}
}

func (r contentRow) content() course.Content {
	return course.Content{
		ID:        r.ID,
		CourseID:  r.CourseID,
		Title:     r.Title,
		Body:      r.Body,
		Kind:      r.Kind,
		Position:  r.Position,
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func toSubmissionRow(s course.Submission) submissionRow {
	return submissionRow{
		ID:          s.ID,
		UserID:      s.UserID,
		CourseID:    s.CourseID,
		ContentID:   s.ContentID,
		Body:        s.Body,
		Grade:       null.Float64FromPtr(s.Grade),
		Feedback:    null.NewString(s.Feedback, s.Feedback != ""),
		SubmittedAt: s.SubmittedAt.UTC(),
		GradedAt:    nullTime(s.GradedAt),
	}
}

func (r submissionRow) submission() course.Submission {
	return course.Submission{
		ID:          r.ID,
		UserID:      r.UserID,
		CourseID:    r.CourseID,
		ContentID:   r.ContentID,
		Body:        r.Body,
		Grade:       r.Grade.Ptr(),
		Feedback:    r.Feedback.String,
		SubmittedAt: r.SubmittedAt.UTC(),
		GradedAt:    fromNullTime(r.GradedAt),
	}
}

type courseRepository struct {
	db core.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db core.DB) *courseRepository {
	return &courseRepository{db: db}
}

// getRow binds the named query to arg and scans the returned row into dest.
func getRow(ctx context.Context, exec core.DBExecutor, dest interface{}, query string, arg interface{}) error {
	q, args, err := exec.BindNamed(query, arg)
	if err != nil {
		return err
	}
	return exec.GetContext(ctx, dest, q, args...)
}

// Courses

func insertCourse(ctx context.Context, exec core.DBExecutor, c course.Course) (course.Course, error) {
	c.ID = newIDFunc()
	var row courseRow
	err := getRow(ctx, exec, &row,
		"INSERT INTO courses ("+courseColumns+") VALUES (:id, :title, :description, :topic, :level, "+
			":is_published, :is_generated, :created_by, :created_at, :updated_at) RETURNING "+courseColumns,
		toCourseRow(c),
	)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return row.course(), nil
}

func insertContent(ctx context.Context, exec core.DBExecutor, c course.Content) (course.Content, error) {
	if !validIDs(c.CourseID) {
		return course.Content{}, course.ErrNotFound
	}
	c.ID = newIDFunc()
	var row contentRow
	err := getRow(ctx, exec, &row,
		"INSERT INTO content ("+contentColumns+") VALUES (:id, :course_id, :title, :body, :kind, :position, "+
			":created_at, :updated_at) RETURNING "+contentColumns,
		toContentRow(c),
	)
	if err != nil {
		if pqCode(err) == foreignKeyViolation {
			return course.Content{}, course.ErrNotFound
		}
		return course.Content{}, errors.Wrap(err, "inserting content")
	}
	return row.content(), nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	return insertCourse(ctx, repo.db, c)
}

func (repo *courseRepository) CreateCourseWithContent(ctx context.Context, c course.Course, contents []course.Content) (_ course.Course, _ []course.Content, err error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return course.Course{}, nil, errors.Wrap(err, "starting transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if c, err = insertCourse(ctx, tx, c); err != nil {
		return course.Course{}, nil, err
	}
	created := make([]course.Content, 0, len(contents))
	for _, ct := range contents {
		ct.CourseID = c.ID
		if ct, err = insertContent(ctx, tx, ct); err != nil {
			return course.Course{}, nil, err
		}
		created = append(created, ct)
	}

	if err = tx.Commit(); err != nil {
		return course.Course{}, nil, errors.Wrap(err, "committing course")
	}
	return c, created, nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	q := "SELECT " + courseColumns + " FROM courses WHERE TRUE"
	var args []interface{}

	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			q += " AND (title ILIKE ? OR topic ILIKE ? OR description ILIKE ?)"
			args = append(args, val, val, val)
		}
		if filter.Level != "" {
			q += " AND level = ?"
			args = append(args, filter.Level)
		}
		if filter.CreatedBy != "" {
			if !validIDs(filter.CreatedBy) {
				return []course.Course{}, nil
			}
			q += " AND created_by = ?"
			args = append(args, filter.CreatedBy)
		}
		if filter.IsPublished != nil {
			q += " AND is_published = ?"
			args = append(args, *filter.IsPublished)
		}
	}
	q += core.OrderByClause(ordering, "created_at DESC", "title", "level", "created_at", "updated_at")

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.course())
	}
	return courses, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	if !validIDs(id) {
		return course.Course{}, course.ErrNotFound
	}
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+courseColumns+" FROM courses WHERE id = $1", id); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course by ID")
	}
	return row.course(), nil
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	if !validIDs(c.ID) {
		return course.Course{}, course.ErrNotFound
	}
	var row courseRow
	err := getRow(ctx, repo.db, &row,
		"UPDATE courses SET title = :title, description = :description, topic = :topic, level = :level, "+
			"is_published = :is_published, updated_at = :updated_at WHERE id = :id RETURNING "+courseColumns,
		toCourseRow(c),
	)
	if err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "updating course")
	}
	return row.course(), nil
}

// DeleteCourse relies on ON DELETE CASCADE for enrollments, content, progress and submissions.
func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	if !validIDs(id) {
		return course.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM courses WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return checkAffected(res, course.ErrNotFound, "deleting course")
}

// Enrollments

func (repo *courseRepository) CreateEnrollment(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	if !validIDs(e.UserID, e.CourseID) {
		return course.Enrollment{}, course.ErrNotFound
	}
	e.ID = newIDFunc()
	var row enrollmentRow
	err := getRow(ctx, repo.db, &row,
		"INSERT INTO user_courses ("+enrollmentColumns+") VALUES (:id, :user_id, :course_id, :status, "+
			":enrolled_at, :completed_at) RETURNING "+enrollmentColumns,
		toEnrollmentRow(e),
	)
	if err != nil {
		switch pqCode(err) {
		case uniqueViolation:
			return course.Enrollment{}, course.ErrAlreadyEnrolled
		case foreignKeyViolation:
			return course.Enrollment{}, course.ErrNotFound
		}
		return course.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return row.enrollment(), nil
}

func (repo *courseRepository) GetEnrollment(ctx context.Context, userID, courseID string) (course.Enrollment, error) {
	if !validIDs(userID, courseID) {
		return course.Enrollment{}, course.ErrNotEnrolled
	}
	var row enrollmentRow
	err := repo.db.GetContext(ctx, &row,
		"SELECT "+enrollmentColumns+" FROM user_courses WHERE user_id = $1 AND course_id = $2", userID, courseID)
	if err != nil {
		return course.Enrollment{}, trapNoRowsErr(err, course.ErrNotEnrolled, "finding enrollment")
	}
	return row.enrollment(), nil
}

func (repo *courseRepository) UpdateEnrollment(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	if !validIDs(e.UserID, e.CourseID) {
		return course.Enrollment{}, course.ErrNotEnrolled
	}
	var row enrollmentRow
	err := getRow(ctx, repo.db, &row,
		"UPDATE user_courses SET status = :status, enrolled_at = :enrolled_at, completed_at = :completed_at "+
			"WHERE user_id = :user_id AND course_id = :course_id RETURNING "+enrollmentColumns,
		toEnrollmentRow(e),
	)
	if err != nil {
		return course.Enrollment{}, trapNoRowsErr(err, course.ErrNotEnrolled, "updating enrollment")
	}
	return row.enrollment(), nil
}

func (repo *courseRepository) DeleteEnrollment(ctx context.Context, userID, courseID string) error {
	if !validIDs(userID, courseID) {
		return course.ErrNotEnrolled
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM user_courses WHERE user_id = $1 AND course_id = $2", userID, courseID)
	if err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	return checkAffected(res, course.ErrNotEnrolled, "deleting enrollment")
}

func (repo *courseRepository) QueryUserCourses(ctx context.Context, userID string) ([]course.UserCourse, error) {
	if !validIDs(userID) {
		return []course.UserCourse{}, nil
	}
	var rows []userCourseRow
	err := repo.db.SelectContext(ctx, &rows,
		"SELECT c.id, c.title, c.description, c.topic, c.level, c.is_published, c.is_generated, c.created_by, "+
			"c.created_at, c.updated_at, uc.status, uc.enrolled_at, uc.completed_at "+
			"FROM user_courses uc JOIN courses c ON c.id = uc.course_id "+
			"WHERE uc.user_id = $1 ORDER BY uc.enrolled_at DESC", userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying user courses")
	}

	ucs := make([]course.UserCourse, 0, len(rows))
	for _, r := range rows {
		ucs = append(ucs, course.UserCourse{
			Course:      r.course(),
			Status:      r.Status,
			EnrolledAt:  r.EnrolledAt.UTC(),
			CompletedAt: fromNullTime(r.CompletedAt),
		})
	}
	return ucs, nil
}

// Content

func (repo *courseRepository) CreateContent(ctx context.Context, c course.Content) (course.Content, error) {
	return insertContent(ctx, repo.db, c)
}

func (repo *courseRepository) QueryContent(ctx context.Context, courseID string) ([]course.Content, error) {
	if !validIDs(courseID) {
		return []course.Content{}, nil
	}
	var rows []contentRow
	err := repo.db.SelectContext(ctx, &rows,
		"SELECT "+contentColumns+" FROM content WHERE course_id = $1 ORDER BY position, created_at", courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying content")
	}
	contents := make([]course.Content, 0, len(rows))
	for _, r := range rows {
		contents = append(contents, r.content())
	}
	return contents, nil
}

func (repo *courseRepository) GetContentByID(ctx context.Context, id string) (course.Content, error) {
	if !validIDs(id) {
		return course.Content{}, course.ErrContentNotFound
	}
	var row contentRow
	if err := repo.db.GetContext(ctx, &row, "SELECT "+contentColumns+" FROM content WHERE id = $1", id); err != nil {
		return course.Content{}, trapNoRowsErr(err, course.ErrContentNotFound, "finding content by ID")
	}
	return row.content(), nil
}

func (repo *courseRepository) UpdateContent(ctx context.Context, c course.Content) (course.Content, error) {
	if !validIDs(c.ID) {
		return course.Content{}, course.ErrContentNotFound
	}
	var row contentRow
	err := getRow(ctx, repo.db, &row,
		"UPDATE content SET title = :title, body = :body, kind = :kind, position = :position, "+
			"updated_at = :updated_at WHERE id = :id RETURNING "+contentColumns,
		toContentRow(c),
	)
	if err != nil {
		return course.Content{}, trapNoRowsErr(err, course.ErrContentNotFound, "updating content")
	}
	return row.content(), nil
}

func (repo *courseRepository) DeleteContent(ctx context.Context, id string) error {
	if !validIDs(id) {
		return course.ErrContentNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM content WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting content")
	}
	return checkAffected(res, course.ErrContentNotFound, "deleting content")
}

// Progress

func (repo *courseRepository) UpsertProgress(ctx context.Context, p course.Progress) (course.Progress, error) {
	p.ID = newIDFunc()
	row := progressRow{
		ID:        p.ID,
		UserID:    p.UserID,
		CourseID:  p.CourseID,
		ContentID: p.ContentID,
		Completed: p.Completed,
		Score:     null.Float64FromPtr(p.Score),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
	err := getRow(ctx, repo.db, &row,
		"INSERT INTO user_progress ("+progressColumns+") VALUES (:id, :user_id, :course_id, :content_id, "+
			":completed, :score, :updated_at) ON CONFLICT (user_id, content_id) DO UPDATE SET "+
			"completed = EXCLUDED.completed, score = EXCLUDED.score, updated_at = EXCLUDED.updated_at "+
			"RETURNING "+progressColumns,
		row,
	)
	if err != nil {
		return course.Progress{}, errors.Wrap(err, "upserting progress")
	}
	return row.progress(), nil
}

func (r progressRow) progress() course.Progress {
	return course.Progress{
		ID:        r.ID,
		UserID:    r.UserID,
		CourseID:  r.CourseID,
		ContentID: r.ContentID,
		Completed: r.Completed,
		Score:     r.Score.Ptr(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

func (repo *courseRepository) QueryProgress(ctx context.Context, userID, courseID string) ([]course.Progress, error) {
	if !validIDs(userID, courseID) {
		return nil, nil
	}
	var rows []progressRow
	err := repo.db.SelectContext(ctx, &rows,
		"SELECT "+progressColumns+" FROM user_progress WHERE user_id = $1 AND course_id = $2", userID, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying progress")
	}
	progress := make([]course.Progress, 0, len(rows))
	for _, r := range rows {
		progress = append(progress, r.progress())
	}
	return progress, nil
}

// Submissions

func (repo *courseRepository) CreateSubmission(ctx context.Context, s course.Submission) (course.Submission, error) {
	s.ID = newIDFunc()
	var row submissionRow
	err := getRow(ctx, repo.db, &row,
		"INSERT INTO homework_submissions ("+submissionColumns+") VALUES (:id, :user_id, :course_id, :content_id, "+
			":body, :grade, :feedback, :submitted_at, :graded_at) RETURNING "+submissionColumns,
		toSubmissionRow(s),
	)
	if err != nil {
		if pqCode(err) == foreignKeyViolation {
			return course.Submission{}, course.ErrContentNotFound
		}
		return course.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return row.submission(), nil
}

func (repo *courseRepository) QuerySubmissions(ctx context.Context, filter *course.SubmissionFilter) ([]course.Submission, error) {
	q := "SELECT " + submissionColumns + " FROM homework_submissions WHERE TRUE"
	var args []interface{}

	if filter != nil {
		for _, cond := range []struct{ col, val string }{
			{"course_id", filter.CourseID},
			{"user_id", filter.UserID},
			{"content_id", filter.ContentID},
		} {
			if cond.val == "" {
				continue
			}
			if !validIDs(cond.val) {
				return []course.Submission{}, nil
			}
			q += " AND " + cond.col + " = ?"
			args = append(args, cond.val)
		}
		if filter.Graded != nil {
			if *filter.Graded {
				q += " AND grade IS NOT NULL"
			} else {
				q += " AND grade IS NULL"
			}
		}
	}
	q += " ORDER BY submitted_at DESC"

	var rows []submissionRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	subs := make([]course.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.submission())
	}
	return subs, nil
}

func (repo *courseRepository) GetSubmissionByID(ctx context.Context, id string) (course.Submission, error) {
	if !validIDs(id) {
		return course.Submission{}, course.ErrSubmissionNotFound
	}
	var row submissionRow
	err := repo.db.GetContext(ctx, &row, "SELECT "+submissionColumns+" FROM homework_submissions WHERE id = $1", id)
	if err != nil {
		return course.Submission{}, trapNoRowsErr(err, course.ErrSubmissionNotFound, "finding submission by ID")
	}
	return row.submission(), nil
}

func (repo *courseRepository) UpdateSubmission(ctx context.Context, s course.Submission) (course.Submission, error) {
	if !validIDs(s.ID) {
		return course.Submission{}, course.ErrSubmissionNotFound
	}
	var row submissionRow
	err := getRow(ctx, repo.db, &row,
		"UPDATE homework_submissions SET body = :body, grade = :grade, feedback = :feedback, graded_at = :graded_at "+
			"WHERE id = :id RETURNING "+submissionColumns,
		toSubmissionRow(s),
	)
	if err != nil {
		return course.Submission{}, trapNoRowsErr(err, course.ErrSubmissionNotFound, "updating submission")
	}
	return row.submission(), nil
}
