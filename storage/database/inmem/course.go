package inmemdb

import (
	"context"
	"sort"

	"github.com/flowlearn/pawfessor/core"
	"github.com/flowlearn/pawfessor/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

// Courses

func (repo *courseRepository) courseIndex(id string) int {
	for i, c := range repo.db.courses {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	c.ID = newIDFunc()
	repo.db.courses = append(repo.db.courses, c)
	return c, nil
}

func (repo *courseRepository) CreateCourseWithContent(_ context.Context, c course.Course, contents []course.Content) (course.Course, []course.Content, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	c.ID = newIDFunc()
	repo.db.courses = append(repo.db.courses, c)

	created := make([]course.Content, 0, len(contents))
	for _, ct := range contents {
		ct.ID = newIDFunc()
		ct.CourseID = c.ID
		repo.db.contents = append(repo.db.contents, ct)
		created = append(created, ct)
	}
	return c, created, nil
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		if filter != nil && !matchCourse(c, filter) {
			continue
		}
		courses = append(courses, c)
	}

	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "created_at"}}
	}
	sortBy(len(courses), func(i, j int) { courses[i], courses[j] = courses[j], courses[i] }, ordering,
		func(i, j int, field string) (bool, bool) {
			a, b := courses[i], courses[j]
			switch field {
			case "title":
				return a.Title < b.Title, true
			case "level":
				return a.Level < b.Level, true
			case "created_at":
				return a.CreatedAt.Before(b.CreatedAt), true
			case "updated_at":
				return a.UpdatedAt.Before(b.UpdatedAt), true
			}
			return false, false
		})
	return courses, nil
}

func matchCourse(c course.Course, filter *course.QueryFilter) bool {
	if s := filter.Search; s != "" && !(containsFold(c.Title, s) || containsFold(c.Topic, s) || containsFold(c.Description, s)) {
		return false
	}
	if filter.Level != "" && c.Level != filter.Level {
		return false
	}
	if filter.CreatedBy != "" && c.CreatedBy != filter.CreatedBy {
		return false
	}
	if filter.IsPublished != nil && c.IsPublished != *filter.IsPublished {
		return false
	}
	return true
}

func (repo *courseRepository) GetCourseByID(_ context.Context, id string) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if i := repo.courseIndex(id); i >= 0 {
		return repo.db.courses[i], nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.courseIndex(c.ID)
	if i < 0 {
		return course.Course{}, course.ErrNotFound
	}
	repo.db.courses[i] = c
	return c, nil
}

// DeleteCourse also removes everything that references the course, like the database cascade does.
func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.courseIndex(id)
	if i < 0 {
		return course.ErrNotFound
	}
	repo.db.courses = append(repo.db.courses[:i], repo.db.courses[i+1:]...)

	enrollments := repo.db.enrollments[:0]
	for _, e := range repo.db.enrollments {
		if e.CourseID != id {
			enrollments = append(enrollments, e)
		}
	}
	repo.db.enrollments = enrollments

	contents := repo.db.contents[:0]
	for _, c := range repo.db.contents {
		if c.CourseID != id {
			contents = append(contents, c)
		}
	}
	repo.db.contents = contents

	progress := repo.db.progress[:0]
	for _, p := range repo.db.progress {
		if p.CourseID != id {
			progress = append(progress, p)
		}
	}
	repo.db.progress = progress

	submissions := repo.db.submissions[:0]
	for _, s := range repo.db.submissions {
		if s.CourseID != id {
			submissions = append(submissions, s)
		}
	}
	repo.db.submissions = submissions
	return nil
}

// Enrollments

func (repo *courseRepository) enrollmentIndex(userID, courseID string) int {
	for i, e := range repo.db.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			return i
		}
	}
	return -1
}

func (repo *courseRepository) CreateEnrollment(_ context.Context, e course.Enrollment) (course.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if repo.enrollmentIndex(e.UserID, e.CourseID) >= 0 {
		return course.Enrollment{}, course.ErrAlreadyEnrolled
	}
	e.ID = newIDFunc()
	repo.db.enrollments = append(repo.db.enrollments, e)
	return e, nil
}

func (repo *courseRepository) GetEnrollment(_ context.Context, userID, courseID string) (course.Enrollment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if i := repo.enrollmentIndex(userID, courseID); i >= 0 {
		return repo.db.enrollments[i], nil
	}
	return course.Enrollment{}, course.ErrNotEnrolled
}

func (repo *courseRepository) UpdateEnrollment(_ context.Context, e course.Enrollment) (course.Enrollment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.enrollmentIndex(e.UserID, e.CourseID)
	if i < 0 {
		return course.Enrollment{}, course.ErrNotEnrolled
	}
	repo.db.enrollments[i] = e
	return e, nil
}

func (repo *courseRepository) DeleteEnrollment(_ context.Context, userID, courseID string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.enrollmentIndex(userID, courseID)
	if i < 0 {
		return course.ErrNotEnrolled
	}
	repo.db.enrollments = append(repo.db.enrollments[:i], repo.db.enrollments[i+1:]...)
	return nil
}

func (repo *courseRepository) QueryUserCourses(_ context.Context, userID string) ([]course.UserCourse, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	ucs := make([]course.UserCourse, 0)
	for _, e := range repo.db.enrollments {
		if e.UserID != userID {
			continue
		}
		if i := repo.courseIndex(e.CourseID); i >= 0 {
			ucs = append(ucs, course.UserCourse{
				Course:      repo.db.courses[i],
				Status:      e.Status,
				EnrolledAt:  e.EnrolledAt,
				CompletedAt: e.CompletedAt,
			})
		}
	}
	sort.SliceStable(ucs, func(i, j int) bool { return ucs[i].EnrolledAt.After(ucs[j].EnrolledAt) })
	return ucs, nil
}

// Content

func (repo *courseRepository) contentIndex(id string) int {
	for i, c := range repo.db.contents {
		if c.ID == id {
			return i
		}
	}
	return -1
}

func (repo *courseRepository) CreateContent(_ context.Context, c course.Content) (course.Content, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if repo.courseIndex(c.CourseID) < 0 {
		return course.Content{}, course.ErrNotFound
	}
	c.ID = newIDFunc()
	repo.db.contents = append(repo.db.contents, c)
	return c, nil
}

func (repo *courseRepository) QueryContent(_ context.Context, courseID string) ([]course.Content, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	contents := make([]course.Content, 0)
	for _, c := range repo.db.contents {
		if c.CourseID == courseID {
			contents = append(contents, c)
		}
	}
	sort.SliceStable(contents, func(i, j int) bool { return contents[i].Position < contents[j].Position })
	return contents, nil
}

func (repo *courseRepository) GetContentByID(_ context.Context, id string) (course.Content, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if i := repo.contentIndex(id); i >= 0 {
		return repo.db.contents[i], nil
	}
	return course.Content{}, course.ErrContentNotFound
}

func (repo *courseRepository) UpdateContent(_ context.Context, c course.Content) (course.Content, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.contentIndex(c.ID)
	if i < 0 {
		return course.Content{}, course.ErrContentNotFound
	}
	repo.db.contents[i] = c
	return c, nil
}

func (repo *courseRepository) DeleteContent(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.contentIndex(id)
	if i < 0 {
		return course.ErrContentNotFound
	}
	repo.db.contents = append(repo.db.contents[:i], repo.db.contents[i+1:]...)

	progress := repo.db.progress[:0]
	for _, p := range repo.db.progress {
		if p.ContentID != id {
			progress = append(progress, p)
		}
	}
	repo.db.progress = progress

	submissions := repo.db.submissions[:0]
	for _, s := range repo.db.submissions {
		if s.ContentID != id {
			submissions = append(submissions, s)
		}
	}
	repo.db.submissions = submissions
	return nil
}

// Progress

func (repo *courseRepository) UpsertProgress(_ context.Context, p course.Progress) (course.Progress, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for i, existing := range repo.db.progress {
		if existing.UserID == p.UserID && existing.ContentID == p.ContentID {
			p.ID = existing.ID
			repo.db.progress[i] = p
			return p, nil
		}
	}
	p.ID = newIDFunc()
	repo.db.progress = append(repo.db.progress, p)
	return p, nil
}

func (repo *courseRepository) QueryProgress(_ context.Context, userID, courseID string) ([]course.Progress, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var rows []course.Progress
	for _, p := range repo.db.progress {
		if p.UserID == userID && p.CourseID == courseID {
			rows = append(rows, p)
		}
	}
	return rows, nil
}

// Submissions

func (repo *courseRepository) submissionIndex(id string) int {
	for i, s := range repo.db.submissions {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (repo *courseRepository) CreateSubmission(_ context.Context, s course.Submission) (course.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	s.ID = newIDFunc()
	repo.db.submissions = append(repo.db.submissions, s)
	return s, nil
}

func (repo *courseRepository) QuerySubmissions(_ context.Context, filter *course.SubmissionFilter) ([]course.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	subs := make([]course.Submission, 0)
	for _, s := range repo.db.submissions {
		if filter != nil {
			if (filter.CourseID != "" && s.CourseID != filter.CourseID) ||
				(filter.UserID != "" && s.UserID != filter.UserID) ||
				(filter.ContentID != "" && s.ContentID != filter.ContentID) ||
				(filter.Graded != nil && s.IsGraded() != *filter.Graded) {
				continue
			}
		}
		subs = append(subs, s)
	}
	sort.SliceStable(subs, func(i, j int) bool { return subs[i].SubmittedAt.After(subs[j].SubmittedAt) })
	return subs, nil
}

func (repo *courseRepository) GetSubmissionByID(_ context.Context, id string) (course.Submission, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if i := repo.submissionIndex(id); i >= 0 {
		return repo.db.submissions[i], nil
	}
	return course.Submission{}, course.ErrSubmissionNotFound
}

func (repo *courseRepository) UpdateSubmission(_ context.Context, s course.Submission) (course.Submission, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	i := repo.submissionIndex(s.ID)
	if i < 0 {
		return course.Submission{}, course.ErrSubmissionNotFound
	}
	repo.db.submissions[i] = s
	return s, nil
}
