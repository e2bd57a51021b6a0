package profile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowlearn/pawfessor/core"
	"github.com/flowlearn/pawfessor/core/profile"
	inmemdb "github.com/flowlearn/pawfessor/storage/database/inmem"
	testutil "github.com/flowlearn/pawfessor/tests"
)

const pwd = "Tr0ub4dor&3"

func newTestService(t *testing.T) (*profile.Service, profile.Repository) {
	validate, _ := testutil.NewValidator()
	repo := inmemdb.NewProfileRepository(inmemdb.NewDB())
	return profile.NewService(repo, validate), repo
}

func fieldTags(t *testing.T, err error) map[string]string {
	t.Helper()
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs), "want validator.ValidationErrors, got %T: %v", err, err)
	tags := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		tags[fe.Field()] = fe.Tag()
	}
	return tags
}

func TestService_Create(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, profile.NewProfile{
		Name:            "  Ada Lovelace ",
		Email:           " Ada@Example.COM",
		Password:        pwd,
		PasswordConfirm: pwd,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Ada Lovelace", p.Name)
	assert.Equal(t, "ada@example.com", p.Email)
	assert.Equal(t, profile.RoleStudent, p.Role)
	assert.NoError(t, p.CheckPassword(pwd))
	assert.False(t, p.CreatedAt.IsZero())

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Create(ctx, profile.NewProfile{
			Name:            "Other",
			Email:           "ADA@example.com",
			Password:        pwd,
			PasswordConfirm: pwd,
		})
		var verr *core.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, profile.ErrEmailExists.Error(), verr.FieldMap()["email"])
	})

	t.Run("invalid", func(t *testing.T) {
		tests := []struct {
			name     string
			np       profile.NewProfile
			wantTags map[string]string
		}{
			{
				name:     "missing fields",
				np:       profile.NewProfile{},
				wantTags: map[string]string{"name": "required", "email": "required", "password": "required", "password_confirm": "required"},
			},
			{
				name:     "bad email and role",
				np:       profile.NewProfile{Name: "Bob", Email: "bob", Role: "king", Password: pwd, PasswordConfirm: pwd},
				wantTags: map[string]string{"email": "email", "role": "oneof"},
			},
			{
				name:     "password mismatch",
				np:       profile.NewProfile{Name: "Bob", Email: "bob@mail.io", Password: pwd, PasswordConfirm: pwd + "x"},
				wantTags: map[string]string{"password_confirm": "eqfield"},
			},
			{
				name:     "weak password",
				np:       profile.NewProfile{Name: "Bob", Email: "bob@mail.io", Password: "12345678", PasswordConfirm: "12345678"},
				wantTags: map[string]string{"password": "pwdnotallnum"},
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Create(ctx, tt.np)
				assert.Equal(t, tt.wantTags, fieldTags(t, err))
			})
		}
	})
}

func TestService_Authenticate(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	p := testutil.CreateProfile(t, repo, "Ada", "ada@example.com", pwd, profile.RoleTeacher)

	tests := []struct {
		name    string
		email   string
		pwd     string
		wantErr error
	}{
		{name: "ok", email: "ada@example.com", pwd: pwd},
		{name: "email is cleaned", email: "  ADA@example.com ", pwd: pwd},
		{name: "wrong password", email: "ada@example.com", pwd: "nope", wantErr: profile.ErrInvalidCredentials},
		{name: "unknown email", email: "bob@example.com", pwd: pwd, wantErr: profile.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Authenticate(ctx, tt.email, tt.pwd)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, p.ID, got.ID)
		})
	}
}

func TestService_Update(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	ada := testutil.CreateProfile(t, repo, "Ada", "ada@example.com", pwd, profile.RoleStudent)
	testutil.CreateProfile(t, repo, "Bob", "bob@example.com", pwd, profile.RoleStudent)

	t.Run("empty fields keep their value", func(t *testing.T) {
		got, err := svc.Update(ctx, ada.ID, profile.UpdateProfile{Name: "Ada L."})
		require.NoError(t, err)
		assert.Equal(t, "Ada L.", got.Name)
		assert.Equal(t, "ada@example.com", got.Email)
		assert.NoError(t, got.CheckPassword(pwd))
	})

	t.Run("same email", func(t *testing.T) {
		_, err := svc.Update(ctx, ada.ID, profile.UpdateProfile{Email: "ADA@example.com"})
		assert.NoError(t, err)
	})

	t.Run("email taken", func(t *testing.T) {
		_, err := svc.Update(ctx, ada.ID, profile.UpdateProfile{Email: "bob@example.com"})
		var verr *core.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.FieldMap(), "email")
	})

	t.Run("password without confirmation", func(t *testing.T) {
		_, err := svc.Update(ctx, ada.ID, profile.UpdateProfile{Password: "N3wPassw0rd!"})
		assert.Equal(t, "required_with", fieldTags(t, err)["password_confirm"])
	})

	t.Run("password change", func(t *testing.T) {
		got, err := svc.Update(ctx, ada.ID, profile.UpdateProfile{Password: "N3wPassw0rd!", PasswordConfirm: "N3wPassw0rd!"})
		require.NoError(t, err)
		assert.NoError(t, got.CheckPassword("N3wPassw0rd!"))
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Update(ctx, "missing", profile.UpdateProfile{Name: "X"})
		assert.Equal(t, profile.ErrNotFound, err)
	})
}

func TestService_SetPassword(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	testutil.CreateProfile(t, repo, "Ada", "ada@example.com", pwd, profile.RoleAdmin)

	err := svc.SetPassword(ctx, "ada@example.com", "short")
	assert.Equal(t, "pwdminlen", fieldTags(t, err)["password"])

	require.NoError(t, svc.SetPassword(ctx, "ada@example.com", "An0therOne!"))
	_, err = svc.Authenticate(ctx, "ada@example.com", "An0therOne!")
	assert.NoError(t, err)

	assert.Equal(t, profile.ErrNotFound, svc.SetPassword(ctx, "nobody@example.com", "An0therOne!"))
}

func TestService_Query(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()
	ada := testutil.CreateProfile(t, repo, "Ada", "ada@example.com", "", profile.RoleTeacher, now.Add(-2*time.Hour))
	bob := testutil.CreateProfile(t, repo, "Bob", "bob@school.io", "", profile.RoleStudent, now.Add(-time.Hour))
	cat := testutil.CreateProfile(t, repo, "Cat", "cat@example.com", "", profile.RoleStudent, now)

	ids := func(ps []profile.Profile) []string {
		res := make([]string, 0, len(ps))
		for _, p := range ps {
			res = append(res, p.ID)
		}
		return res
	}

	tests := []struct {
		name     string
		filter   *profile.QueryFilter
		ordering []core.DBOrdering
		want     []string
	}{
		{name: "all, newest first", want: []string{cat.ID, bob.ID, ada.ID}},
		{name: "by name", ordering: []core.DBOrdering{{Field: "name", Ascending: true}}, want: []string{ada.ID, bob.ID, cat.ID}},
		{name: "search", filter: &profile.QueryFilter{Search: " EXAMPLE "}, want: []string{cat.ID, ada.ID}},
		{name: "role", filter: &profile.QueryFilter{Roles: []string{profile.RoleStudent}}, want: []string{cat.ID, bob.ID}},
		{name: "created from", filter: &profile.QueryFilter{CreatedFrom: now.Add(-90 * time.Minute)}, want: []string{cat.ID, bob.ID}},
		{name: "no match", filter: &profile.QueryFilter{Search: "zed"}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Query(ctx, tt.filter, tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestService_SetLastLoginAndDelete(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	ada := testutil.CreateProfile(t, repo, "Ada", "ada@example.com", pwd, profile.RoleStudent)
	bob := testutil.CreateProfile(t, repo, "Bob", "bob@example.com", pwd, profile.RoleStudent)

	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	profile.NowFunc = func() time.Time { return fixed }
	defer func() { profile.NowFunc = time.Now }()

	got, err := svc.SetLastLogin(ctx, ada)
	require.NoError(t, err)
	assert.Equal(t, fixed, got.LastLogin)

	n, err := svc.Delete(ctx, ada.ID, bob.ID, "missing")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = svc.GetByID(ctx, ada.ID)
	assert.Equal(t, profile.ErrNotFound, err)
}
