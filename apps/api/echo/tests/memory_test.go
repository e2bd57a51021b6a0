package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/flowlearn/pawfessor/apps/api/echo"
	"github.com/flowlearn/pawfessor/core/memory"
	"github.com/flowlearn/pawfessor/core/profile"
)

func Test_memoryApi(t *testing.T) {
	env := setup(t)
	ada, token := env.createProfile(t, "Ada", "ada@test.cd", profile.RoleStudent)
	_, otherToken := env.createProfile(t, "Bob", "bob@test.cd", profile.RoleStudent)

	list := func(t *testing.T, token string) echoapi.MemoriesResponse {
		rec := env.do(http.MethodGet, "/v1/memories", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp echoapi.MemoriesResponse
		unmarshal(t, rec, &resp)
		return resp
	}

	tests := []httpTest{
		{name: "auth required", path: "/v1/memories", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "empty", path: "/v1/memories", token: token,
			wantCode: http.StatusOK, wantData: marchallObj(t, echoapi.MemoriesResponse{Memories: []memory.Item{}, IsReady: true}),
		},
		{
			name: "key required", method: http.MethodPost, path: "/v1/memories", token: token, body: []byte(`{"key": " ", "value": "x"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"key": "this field is required"}),
		},
		{
			name: "lookup (absent)", path: "/v1/memories/lookup?key=role", token: token,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	runHTTPTests(t, env, tests)

	var role memory.Item
	t.Run("add", func(t *testing.T) {
		rec := env.do(http.MethodPost, "/v1/memories", token, []byte(`{"key": "Role", "value": "Account Manager"}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshal(t, rec, &role)
		assert.NotEmpty(t, role.ID)
		assert.Equal(t, memory.CategoryProfessional, role.Category, "default category")

		rec = env.do(http.MethodPost, "/v1/memories", token, []byte(`{"key": "Hobby", "value": "Chess", "category": "Personal"}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var hobby memory.Item
		unmarshal(t, rec, &hobby)
		assert.Equal(t, memory.CategoryPersonal, hobby.Category)

		rec = env.do(http.MethodPost, "/v1/memories", token, []byte(`{"key": "Team", "value": "EMEA", "category": "work"}`))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"category": "category must be one of [professional personal preference]"}),
		}, rec)

		rec = env.do(http.MethodPost, "/v1/memories", token, []byte(`{"key": "Team", "value": "EMEA", "category": ""}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var team memory.Item
		unmarshal(t, rec, &team)
		assert.Equal(t, memory.CategoryProfessional, team.Category)

		resp := list(t, token)
		assert.True(t, resp.IsReady)
		require.Len(t, resp.Memories, 3)
		assert.Equal(t, []string{"Role", "Hobby", "Team"},
			[]string{resp.Memories[0].Key, resp.Memories[1].Key, resp.Memories[2].Key}, "insertion order")
	})

	t.Run("lookup ignores case", func(t *testing.T) {
		rec := env.do(http.MethodGet, "/v1/memories/lookup?key=ROLE", token)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, echoapi.LookupResponse{Key: "Role", Value: "Account Manager"}),
		}, rec)
	})

	t.Run("memories are per profile", func(t *testing.T) {
		assert.Empty(t, list(t, otherToken).Memories)
		rec := env.do(http.MethodGet, "/v1/memories/lookup?key=role", otherToken)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("upsert", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/v1/memories/upsert", token, []byte(`{"key": "role", "value": "Sales Director", "category": "preference"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got memory.Item
		unmarshal(t, rec, &got)
		assert.Equal(t, role.ID, got.ID, "same item")
		assert.Equal(t, "Sales Director", got.Value)
		assert.Equal(t, memory.CategoryProfessional, got.Category, "category is kept")

		rec = env.do(http.MethodPut, "/v1/memories/upsert", token, []byte(`{"key": "Goal", "value": "Close more deals"}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Len(t, list(t, token).Memories, 4)
	})

	t.Run("update", func(t *testing.T) {
		rec := env.do(http.MethodPut, "/v1/memories/"+role.ID, token, []byte(`{"value": "VP Sales"}`))
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
		v, ok := env.memories.For(ada.ID).Get("role")
		require.True(t, ok)
		assert.Equal(t, "VP Sales", v)

		rec = env.do(http.MethodPut, "/v1/memories/nope", token, []byte(`{"value": "x"}`))
		assert.Equal(t, http.StatusNoContent, rec.Code, "unknown ids are a no-op")
		assert.Len(t, list(t, token).Memories, 4)
	})

	t.Run("delete", func(t *testing.T) {
		rec := env.do(http.MethodDelete, "/v1/memories/"+role.ID, token)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = env.do(http.MethodDelete, "/v1/memories/"+role.ID, token)
		assert.Equal(t, http.StatusNoContent, rec.Code, "unknown ids are a no-op")

		memories := list(t, token).Memories
		require.Len(t, memories, 3)
		for _, it := range memories {
			assert.NotEqual(t, role.ID, it.ID)
		}
	})

	t.Run("clear", func(t *testing.T) {
		rec := env.do(http.MethodDelete, "/v1/memories", token)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		resp := list(t, token)
		assert.Empty(t, resp.Memories)
		assert.True(t, resp.IsReady)
	})
}

func Test_memoryApi_deletedProfile(t *testing.T) {
	env := setup(t)
	ada, token := env.createProfile(t, "Ada", "ada@test.cd", profile.RoleStudent)
	env.memories.For(ada.ID).Add("Role", "Sales lead")

	rec := env.do(http.MethodDelete, "/v1/profiles/me", token)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	unauthorized := marchallObj(t, httpErr{Error: "user not authenticated"})
	tests := []httpTest{
		{name: "list", path: "/v1/memories", token: token, wantCode: http.StatusUnauthorized, wantData: unauthorized},
		{
			name: "add", method: http.MethodPost, path: "/v1/memories", token: token, body: []byte(`{"key": "Role", "value": "AE"}`),
			wantCode: http.StatusUnauthorized, wantData: unauthorized,
		},
		{
			name: "upsert", method: http.MethodPut, path: "/v1/memories/upsert", token: token, body: []byte(`{"key": "Role", "value": "AE"}`),
			wantCode: http.StatusUnauthorized, wantData: unauthorized,
		},
	}
	runHTTPTests(t, env, tests)
	assert.Empty(t, env.memories.For(ada.ID).Memories(), "no memories come back after the account is gone")
}
