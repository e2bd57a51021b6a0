package course

import (
	"time"

	"github.com/flowlearn/pawfessor/core"
)

// Levels
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

// Content kinds
const (
	KindLesson   = "lesson"
	KindQuiz     = "quiz"
	KindHomework = "homework"
)

// Enrollment statuses
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusDropped   = "dropped"
)

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Topic       string    `json:"topic"`
	Level       string    `json:"level"`
	IsPublished bool      `json:"is_published"`
	IsGenerated bool      `json:"is_generated"`
	CreatedBy   string    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

type NewCourse struct {
	Title       string `json:"title" validate:"required,notblank"`
	Description string `json:"description"`
	Topic       string `json:"topic"`
	Level       string `json:"level" validate:"omitempty,level"`
	IsPublished bool   `json:"is_published"`
}

func (nc *NewCourse) clean() {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Topic = core.CleanString(nc.Topic)
	nc.Level = core.CleanString(nc.Level, true /* lower */)
	if nc.Level == "" {
		nc.Level = LevelBeginner
	}
}

// UpdateCourse defines what may be changed on a Course. Nil fields are left untouched.
type UpdateCourse struct {
	Title       *string `json:"title" validate:"omitempty,notblank"`
	Description *string `json:"description"`
	Topic       *string `json:"topic"`
	Level       *string `json:"level" validate:"omitempty,level"`
	IsPublished *bool   `json:"is_published"`
}

type QueryFilter struct {
	Search      string `query:"search"`
	Level       string `query:"level"`
	CreatedBy   string `query:"created_by"`
	IsPublished *bool  `query:"is_published"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Level = core.CleanString(qf.Level, true /* lower */)
	qf.CreatedBy = core.CleanString(qf.CreatedBy)
}

// Enrollment is a row of user_courses.
type Enrollment struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CourseID    string    `json:"course_id"`
	Status      string    `json:"status"`
	EnrolledAt  time.Time `json:"enrolled_at"`  // UTC
	CompletedAt time.Time `json:"completed_at"` // UTC, zero until completed
}

// UserCourse is a course the user is enrolled in.
type UserCourse struct {
	Course
	Status      string    `json:"status"`
	EnrolledAt  time.Time `json:"enrolled_at"`
	CompletedAt time.Time `json:"completed_at"`
}

type Content struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Kind      string    `json:"kind"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type NewContent struct {
	Title string `json:"title" validate:"required,notblank"`
	Body  string `json:"body"`
	Kind  string `json:"kind" validate:"omitempty,oneof=lesson quiz homework"`
	// Position defaults to the end of the course.
	Position *int `json:"position" validate:"omitempty,min=0"`
}

type UpdateContent struct {
	Title    *string `json:"title" validate:"omitempty,notblank"`
	Body     *string `json:"body"`
	Kind     *string `json:"kind" validate:"omitempty,oneof=lesson quiz homework"`
	Position *int    `json:"position" validate:"omitempty,min=0"`
}

// Progress is a row of user_progress: one per (user, content).
type Progress struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CourseID  string    `json:"course_id"`
	ContentID string    `json:"content_id"`
	Completed bool      `json:"completed"`
	Score     *float64  `json:"score"`
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type RecordProgress struct {
	Completed bool     `json:"completed"`
	Score     *float64 `json:"score" validate:"omitempty,gte=0,lte=100"`
}

type CourseProgress struct {
	CourseID  string `json:"course_id"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Percent   int    `json:"percent"`
	Status    string `json:"status"`
}

type Submission struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	CourseID    string    `json:"course_id"`
	ContentID   string    `json:"content_id"`
	Body        string    `json:"body"`
	Grade       *float64  `json:"grade"`
	Feedback    string    `json:"feedback"`
	SubmittedAt time.Time `json:"submitted_at"` // UTC
	GradedAt    time.Time `json:"graded_at"`    // UTC, zero until graded
}

func (s Submission) IsGraded() bool { return s.Grade != nil }

type NewSubmission struct {
	Body string `json:"body" validate:"required,notblank"`
}

type GradeSubmission struct {
	Grade    *float64 `json:"grade" validate:"required,gte=0,lte=100"`
	Feedback string   `json:"feedback"`
}

type SubmissionFilter struct {
	CourseID  string `query:"course_id"`
	UserID    string `query:"user_id"`
	ContentID string `query:"content_id"`
	Graded    *bool  `query:"graded"`
}
