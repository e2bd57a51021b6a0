package tests

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/flowlearn/pawfessor/apps/api/echo"
	"github.com/flowlearn/pawfessor/core/profile"
	"github.com/flowlearn/pawfessor/tests"
)

const pwd = "Tr0ub4dor&3"

func TestServer_home(t *testing.T) {
	env := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Pawfessor API!", rec.Body.String())
}

func Test_profileApi_login(t *testing.T) {
	env := setup(t)
	testutil.CreateProfile(t, env.profiles, "Ada", "ada@test.cd", pwd, profile.RoleStudent)

	tests := []httpTest{
		{
			name: "missing fields", method: http.MethodPost, path: "/v1/auth/login", body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "this field is required", "password": "this field is required"}),
		},
		{
			name: "unknown email", method: http.MethodPost, path: "/v1/auth/login",
			body:     marchallObj(t, echoapi.LoginRequest{Email: "bob@test.cd", Password: pwd}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: profile.ErrInvalidCredentials.Error()}),
		},
		{
			name: "wrong password", method: http.MethodPost, path: "/v1/auth/login",
			body:     marchallObj(t, echoapi.LoginRequest{Email: "ada@test.cd", Password: "wrong-pass"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: profile.ErrInvalidCredentials.Error()}),
		},
	}
	runHTTPTests(t, env, tests)

	t.Run("success", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/auth/login", "",
			marchallObj(t, echoapi.LoginRequest{Email: " ADA@test.cd ", Password: pwd}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp echoapi.LoginResponse
		unmarshal(t, rec, &resp)
		require.NotEmpty(t, resp.Token)

		rec = env.do(http.MethodGet, "/v1/profiles/me", resp.Token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var me profile.Profile
		unmarshal(t, rec, &me)
		assert.Equal(t, "ada@test.cd", me.Email)
		assert.False(t, me.LastLogin.IsZero(), "last login is set")
	})
}

func Test_profileApi_tokenRefresh(t *testing.T) {
	env := setup(t)
	p, token := env.createProfile(t, "Ada", "ada@test.cd", profile.RoleStudent)

	t.Run("auth required", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/auth/token-refresh", "")
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("refreshed", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/auth/token-refresh", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp echoapi.LoginResponse
		unmarshal(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)
	})

	t.Run("refresh expired", func(t *testing.T) {
		claims := echoapi.GetProfileClaims(p, env.conf, time.Now().Add(-time.Hour).Unix())
		old, err := echoapi.GenerateToken(claims, env.conf.SecretKey)
		require.NoError(t, err)

		rec := env.do(http.MethodPost, "/v1/auth/token-refresh", old)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		}, rec)
	})

	t.Run("invalid signature", func(t *testing.T) {
		forged, err := echoapi.GenerateToken(echoapi.GetProfileClaims(p, env.conf), "not-the-secret")
		require.NoError(t, err)
		rec := env.do(http.MethodPost, "/v1/auth/token-refresh", forged)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("deleted profile", func(t *testing.T) {
		_, err := env.profiles.DeleteProfilesByID(context.Background(), []string{p.ID})
		require.NoError(t, err)
		rec := env.do(http.MethodPost, "/v1/auth/token-refresh", token)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "user not authenticated"})}, rec)
	})
}

func Test_profileApi_register(t *testing.T) {
	env := setup(t)

	t.Run("invalid", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/profiles", "", []byte(`{"name": "Bob", "email": "bob", "password": "12345678", "password_confirm": "12345678"}`))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var errs map[string]string
		unmarshal(t, rec, &errs)
		assert.Contains(t, errs, "email")
	})

	t.Run("created as a student", func(t *testing.T) {
		body := marchallObj(t, profile.NewProfile{
			Name:            "Bob",
			Email:           "bob@test.cd",
			Role:            profile.RoleAdmin,
			Password:        pwd,
			PasswordConfirm: pwd,
		})
		rec := env.do(http.MethodPost, "/v1/profiles", "", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var p profile.Profile
		unmarshal(t, rec, &p)
		assert.NotEmpty(t, p.ID)
		assert.Equal(t, profile.RoleStudent, p.Role, "role cannot be chosen on sign up")
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("duplicate email", func(t *testing.T) {
		body := marchallObj(t, profile.NewProfile{Name: "Bobby", Email: "BOB@test.cd", Password: pwd, PasswordConfirm: pwd})
		rec := env.do(http.MethodPost, "/v1/profiles", "", body)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": profile.ErrEmailExists.Error()}),
		}, rec)
	})
}

func Test_profileApi_me(t *testing.T) {
	env := setup(t)
	p, token := env.createProfile(t, "Ada", "ada@test.cd", profile.RoleStudent)
	testutil.CreateProfile(t, env.profiles, "Bob", "bob@test.cd", "", profile.RoleStudent)

	tests := []httpTest{
		{name: "auth required", path: "/v1/profiles/me", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "retrieve", path: "/v1/profiles/me", token: token, wantCode: http.StatusOK, wantData: marchallObj(t, p)},
		{
			name: "email taken", method: http.MethodPut, path: "/v1/profiles/me", token: token,
			body:     []byte(`{"email": "bob@test.cd"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"email": profile.ErrEmailExists.Error()}),
		},
	}
	runHTTPTests(t, env, tests)

	t.Run("update", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/v1/profiles/me", token, []byte(`{"name": "Ada Lovelace"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got profile.Profile
		unmarshal(t, rec, &got)
		assert.Equal(t, p.ID, got.ID)
		assert.Equal(t, "Ada Lovelace", got.Name)
		assert.Equal(t, "ada@test.cd", got.Email)
	})
}

func Test_profileApi_deleteMe(t *testing.T) {
	env := setup(t)
	p, token := env.createProfile(t, "Ada", "ada@test.cd", profile.RoleStudent)
	_, otherToken := env.createProfile(t, "Bob", "bob@test.cd", profile.RoleStudent)
	env.memories.For(p.ID).Add("Role", "Sales lead")

	rec := env.do(http.MethodDelete, "/v1/profiles/me", "")
	checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)

	rec = env.do(http.MethodDelete, "/v1/profiles/me", token)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	assert.Empty(t, env.memories.For(p.ID).Memories())

	// the token outlives the profile
	rec = env.do(http.MethodGet, "/v1/profiles/me", token)
	checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "user not authenticated"})}, rec)

	rec = env.do(http.MethodGet, "/v1/profiles/me", otherToken)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_profileApi_query(t *testing.T) {
	env := setup(t)
	now := time.Now()
	admin, adminToken := env.createProfile(t, "Admin", "admin@test.cd", profile.RoleAdmin)
	student := testutil.CreateProfile(t, env.profiles, "Hero", "hero@test.cd", "", profile.RoleStudent, now.Add(time.Hour))
	teacher := testutil.CreateProfile(t, env.profiles, "Teacher", "teacher@test.cd", "", profile.RoleTeacher, now.Add(2*time.Hour))
	studentToken := getToken(t, env.conf, student)

	tests := []httpTest{
		{name: "auth required", path: "/v1/profiles", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "admin required", path: "/v1/profiles", token: studentToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{name: "all", path: "/v1/profiles", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, teacher, student, admin)},
		{name: "search", path: "/v1/profiles?search=HERO", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t, student)},
		{name: "search (unknown)", path: "/v1/profiles?search=lol", token: adminToken, wantCode: http.StatusOK, wantData: marchallList(t)},
		{
			name: "roles", path: "/v1/profiles?role=teacher&role=admin", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, teacher, admin),
		},
		{
			name: "order by name", path: "/v1/profiles?ordering=name", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, admin, student, teacher),
		},
	}
	runHTTPTests(t, env, tests)
}
