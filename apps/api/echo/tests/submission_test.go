package tests

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowlearn/pawfessor/core/course"
	"github.com/flowlearn/pawfessor/core/profile"
	"github.com/flowlearn/pawfessor/tests"
)

func Test_submissionApi(t *testing.T) {
	env := setup(t)
	ada, adaToken := env.createProfile(t, "Ada", "ada@test.cd", profile.RoleStudent)
	bob, bobToken := env.createProfile(t, "Bob", "bob@test.cd", profile.RoleStudent)
	teacher, teacherToken := env.createProfile(t, "Tea", "tea@test.cd", profile.RoleTeacher)
	other, otherToken := env.createProfile(t, "Other", "other@test.cd", profile.RoleTeacher)
	_, adminToken := env.createProfile(t, "Adm", "adm@test.cd", profile.RoleAdmin)

	c := testutil.CreateCourse(t, env.courses, "Writing", course.LevelBeginner, teacher.ID, true)
	lesson := testutil.CreateContent(t, env.courses, c.ID, "Intro", course.KindLesson, 0)
	essay := testutil.CreateContent(t, env.courses, c.ID, "Essay", course.KindHomework, 1)
	otherCourse := testutil.CreateCourse(t, env.courses, "Poetry", course.LevelBeginner, other.ID, true)
	poem := testutil.CreateContent(t, env.courses, otherCourse.ID, "Poem", course.KindHomework, 0)
	testutil.Enroll(t, env.courses, ada.ID, c.ID)
	testutil.Enroll(t, env.courses, bob.ID, c.ID)
	testutil.Enroll(t, env.courses, bob.ID, otherCourse.ID)

	submit := func(t *testing.T, token, contentID, body string) course.Submission {
		rec := env.do(http.MethodPost, "/v1/content/"+contentID+"/submissions", token, []byte(`{"body": "`+body+`"}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var s course.Submission
		unmarshal(t, rec, &s)
		return s
	}
	query := func(t *testing.T, token, params string) []course.Submission {
		rec := env.do(http.MethodGet, "/v1/submissions"+params, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var subs []course.Submission
		unmarshal(t, rec, &subs)
		return subs
	}
	ids := func(subs []course.Submission) []string {
		out := make([]string, 0, len(subs))
		for _, s := range subs {
			out = append(out, s.ID)
		}
		return out
	}

	tests := []httpTest{
		{
			name: "not a homework", method: http.MethodPost, path: "/v1/content/" + lesson.ID + "/submissions", token: adaToken,
			body: []byte(`{"body": "done"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: course.ErrNotHomework.Error()}),
		},
		{
			name: "not enrolled", method: http.MethodPost, path: "/v1/content/" + poem.ID + "/submissions", token: adaToken,
			body: []byte(`{"body": "roses"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: course.ErrNotEnrolled.Error()}),
		},
		{
			name: "blank body", method: http.MethodPost, path: "/v1/content/" + essay.ID + "/submissions", token: adaToken,
			body: []byte(`{"body": "  "}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"body": "this field cannot be blank"}),
		},
		{
			name: "unknown content", method: http.MethodPost, path: "/v1/content/nope/submissions", token: adaToken,
			body: []byte(`{"body": "x"}`), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: course.ErrContentNotFound.Error()}),
		},
	}
	runHTTPTests(t, env, tests)

	adaEssay := submit(t, adaToken, essay.ID, "My essay")
	bobEssay := submit(t, bobToken, essay.ID, "Bob's essay")
	bobPoem := submit(t, bobToken, poem.ID, "Roses are red")

	t.Run("query", func(t *testing.T) {
		assert.Equal(t, []string{adaEssay.ID}, ids(query(t, adaToken, "")), "students see their own")
		assert.Equal(t, []string{adaEssay.ID}, ids(query(t, adaToken, "?user_id="+bob.ID)), "even when asking for others")
		assert.ElementsMatch(t, []string{adaEssay.ID, bobEssay.ID}, ids(query(t, teacherToken, "")), "teachers see their courses")
		assert.Equal(t, []string{bobEssay.ID}, ids(query(t, teacherToken, "?user_id="+bob.ID)))
		assert.Equal(t, []string{bobPoem.ID}, ids(query(t, otherToken, "")))
		assert.ElementsMatch(t, []string{adaEssay.ID, bobEssay.ID, bobPoem.ID}, ids(query(t, adminToken, "")))
		assert.ElementsMatch(t, []string{bobPoem.ID}, ids(query(t, adminToken, "?course_id="+otherCourse.ID)))
		assert.Empty(t, query(t, adminToken, "?graded=true"))
	})

	t.Run("grade", func(t *testing.T) {
		path := "/v1/submissions/" + adaEssay.ID + "/grade"

		rec := env.do(http.MethodPost, path, adaToken, []byte(`{"grade": 100}`))
		assert.Equal(t, http.StatusForbidden, rec.Code, "students cannot grade")
		rec = env.do(http.MethodPost, path, otherToken, []byte(`{"grade": 100}`))
		assert.Equal(t, http.StatusForbidden, rec.Code, "only the course author")
		rec = env.do(http.MethodPost, "/v1/submissions/nope/grade", teacherToken, []byte(`{"grade": 100}`))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		rec = env.do(http.MethodPost, path, teacherToken, []byte(`{"feedback": "nice"}`))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"grade": "this field is required"}),
		}, rec)
		assert.Empty(t, env.mailer.SentMessages())

		rec = env.do(http.MethodPost, path, teacherToken, []byte(`{"grade": 85, "feedback": " Well argued. "}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got course.Submission
		unmarshal(t, rec, &got)
		require.NotNil(t, got.Grade)
		assert.Equal(t, 85.0, *got.Grade)
		assert.Equal(t, "Well argued.", got.Feedback)
		assert.False(t, got.GradedAt.IsZero())

		msgs := env.mailer.SentMessages()
		require.Len(t, msgs, 1)
		assert.Equal(t, ada.Email, msgs[0].To[0].Address)
		assert.True(t, strings.Contains(msgs[0].TextContent, "Well argued."), msgs[0].TextContent)

		assert.Equal(t, []string{adaEssay.ID}, ids(query(t, teacherToken, "?graded=true")))
	})
}
