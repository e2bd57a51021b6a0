package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/flowlearn/pawfessor/apps/api/echo"
	"github.com/flowlearn/pawfessor/core"
	"github.com/flowlearn/pawfessor/core/course"
	"github.com/flowlearn/pawfessor/core/generator"
	"github.com/flowlearn/pawfessor/core/memory"
	"github.com/flowlearn/pawfessor/core/profile"
	"github.com/flowlearn/pawfessor/services/email"
	"github.com/flowlearn/pawfessor/storage/database/inmem"
	"github.com/flowlearn/pawfessor/tests"
)

const outlineResp = `{
  "title": "Negotiation 101",
  "description": "Close better deals",
  "level": "intermediate",
  "modules": [
    {"title": "Basics", "summary": "Why it matters", "lessons": [
      {"title": "BATNA", "body": "Know your alternative."},
      {"title": "Check", "body": "3 questions", "kind": "quiz"},
      {"title": "Practice", "body": "Negotiate a raise.", "kind": "homework"}
    ]}
  ]
}`

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type fakeProvider struct {
	resp   string
	err    error
	prompt string
	calls  int
}

func (p *fakeProvider) Complete(_ context.Context, _, prompt string) (string, error) {
	p.calls++
	p.prompt = prompt
	return p.resp, p.err
}

type testEnv struct {
	app      *echoapi.Server
	conf     *core.Config
	profiles profile.Repository
	courses  course.Repository
	memories *memory.Registry
	mailer   *emailsvc.ConsoleServiceMock
	provider *fakeProvider
	logger   *testutil.Logger
}

// setup builds a server over in-memory storage. opts may tweak the deps before the server is built.
func setup(t *testing.T, opts ...func(*echoapi.ServerDeps)) *testEnv {
	conf := testutil.NewConfig(t)
	logger := testutil.NewLogger(t)
	validate, translator := testutil.NewValidator()

	db := inmemdb.NewDB()
	env := &testEnv{
		conf:     conf,
		profiles: inmemdb.NewProfileRepository(db),
		courses:  inmemdb.NewCourseRepository(db),
		memories: memory.NewVolatileRegistry(logger),
		mailer:   emailsvc.NewConsoleServiceMock(conf, logger),
		provider: &fakeProvider{resp: outlineResp},
		logger:   logger,
	}

	deps := echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		ProfileSvc:     profile.NewService(env.profiles, validate),
		CourseSvc:      course.NewService(env.courses, env.profiles, env.mailer, validate, logger),
		GeneratorSvc:   generator.NewService(env.provider, validate),
		Memories:       env.memories,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	env.app = echoapi.NewServer(deps)
	return env
}

// do serves the request and returns the recorder.
func (env *testEnv) do(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	env.app.ServeHTTP(rec, req)
	return rec
}

// upload serves a multipart form request with fields and a "source" file.
func (env *testEnv) upload(t *testing.T, path, token string, fields map[string]string, filename, content string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	fw, err := w.CreateFormFile("source", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.app.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) createProfile(t *testing.T, name, email, role string) (profile.Profile, string) {
	p := testutil.CreateProfile(t, env.profiles, name, email, "", role)
	return p, getToken(t, env.conf, p)
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, conf *core.Config, p profile.Profile) string {
	claims := echoapi.GetProfileClaims(p, conf)
	token, err := echoapi.GenerateToken(claims, conf.SecretKey)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("json.Unmarshal(%s) failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "code; body %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// runHTTPTests runs table tests against env.
func runHTTPTests(t *testing.T, env *testEnv, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			rec := env.do(method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}
