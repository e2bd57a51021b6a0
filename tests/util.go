// Package testutil holds fixtures shared by the test suites.
package testutil

import (
	"context"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/flowlearn/pawfessor/core"
	"github.com/flowlearn/pawfessor/core/course"
	"github.com/flowlearn/pawfessor/core/profile"
)

// NewConfig returns a TEST configuration that does not read the environment.
func NewConfig(t testing.TB) *core.Config {
	return &core.Config{
		AppName:         "Pawfessor",
		Env:             "TEST",
		Build:           "test",
		Debug:           true,
		TestMode:        true,
		WorkDir:         t.TempDir(),
		SecretKey:       "test-secret-key",
		FrontendBaseURL: "http://localhost:3000",
		FromEmail:       "noreply@pawfessor.test",
		Server: core.ServerConfig{
			Address:                   ":0",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 10 * time.Minute,
		},
		Memory: core.MemoryConfig{Dir: t.TempDir()},
	}
}

// NewValidator returns a validator with every package's validations registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	profile.InitValidators(validate, translator)
	return validate, translator
}

func CreateProfile(
	t testing.TB,
	repo profile.Repository,
	name, email, pwd, role string,
	createdAt ...time.Time,
) profile.Profile {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	p := profile.Profile{
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := p.SetPassword(pwd); err != nil {
			t.Fatalf("CreateProfile() failed: %v", err)
		}
	}
	p, err := repo.CreateProfile(context.Background(), p)
	if err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}
	return p
}

func CreateCourse(t testing.TB, repo course.Repository, title, level, createdBy string, published bool) course.Course {
	t.Helper()

	now := time.Now().UTC()
	c, err := repo.CreateCourse(context.Background(), course.Course{
		Title:       title,
		Topic:       title,
		Level:       level,
		IsPublished: published,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

func CreateContent(t testing.TB, repo course.Repository, courseID, title, kind string, position int) course.Content {
	t.Helper()

	now := time.Now().UTC()
	c, err := repo.CreateContent(context.Background(), course.Content{
		CourseID:  courseID,
		Title:     title,
		Body:      title + " body",
		Kind:      kind,
		Position:  position,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateContent() failed: %v", err)
	}
	return c
}

func Enroll(t testing.TB, repo course.Repository, userID, courseID string) course.Enrollment {
	t.Helper()

	e, err := repo.CreateEnrollment(context.Background(), course.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		Status:     course.StatusActive,
		EnrolledAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	return e
}
