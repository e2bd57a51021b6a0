package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/flowlearn/pawfessor/core"
	"github.com/flowlearn/pawfessor/core/course"
	"github.com/flowlearn/pawfessor/core/generator"
	"github.com/flowlearn/pawfessor/tests"
)

func TestAppHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name         string
		method       string
		err          error
		wantCode     int
		wantBody     string
		wantShutdown bool
	}{
		{
			name: "http error", err: errHttpForbidden,
			wantCode: http.StatusForbidden, wantBody: `{"error":"permission denied"}`,
		},
		{
			name: "wrapped domain error", err: errors.Wrap(course.ErrNotFound, "finding course by ID"),
			wantCode: http.StatusNotFound, wantBody: `{"error":"course not found"}`,
		},
		{
			name: "conflict", err: course.ErrAlreadyEnrolled,
			wantCode: http.StatusConflict, wantBody: `{"error":"already enrolled in this course"}`,
		},
		{
			name: "validation error", err: core.NewValidationError(nil, core.FieldError{Field: "title", Error: "bad"}),
			wantCode: http.StatusBadRequest, wantBody: `{"title":"bad"}`,
		},
		{
			name: "validation message", err: core.NewValidationError(errors.New("nope")),
			wantCode: http.StatusBadRequest, wantBody: `{"error":"nope"}`,
		},
		{
			name: "bad outline", err: &generator.OutlineError{Problems: []string{"modules: required"}},
			wantCode: http.StatusBadGateway, wantBody: `{"error":"invalid course outline: modules: required"}`,
		},
		{
			name: "server error", err: errors.New("boom"),
			wantCode: http.StatusInternalServerError, wantBody: `{"error":"Internal Server Error"}`,
		},
		{
			name: "shutdown", err: errors.Wrap(core.NewShutdownError("integrity compromised"), "saving"),
			wantCode: http.StatusInternalServerError, wantBody: `{"error":"Internal Server Error"}`, wantShutdown: true,
		},
		{name: "HEAD", method: http.MethodHead, err: errHttpNotFound, wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := testutil.NewLogger(t)
			var shutdown bool
			handler := newAppHTTPErrorHandler(logger, core.NewTranslator(), func() { shutdown = true })

			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			e := echo.New()
			rec := httptest.NewRecorder()
			ctx := e.NewContext(httptest.NewRequest(method, "/", nil), rec)

			handler(tt.err, ctx)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			} else {
				assert.Empty(t, rec.Body.String())
			}
			assert.Equal(t, tt.wantShutdown, shutdown)
			assert.Equal(t, tt.wantCode == http.StatusInternalServerError, logger.Contains("ERROR", "Internal Server Error"))
		})
	}
}

func TestOrdering_Bind(t *testing.T) {
	tests := []struct {
		query string
		want  []core.DBOrdering
	}{
		{query: "", want: nil},
		{query: "?ordering=", want: nil},
		{query: "?ordering=title", want: []core.DBOrdering{{Field: "title", Ascending: true}}},
		{
			query: "?ordering=-created_at,%20title,-",
			want:  []core.DBOrdering{{Field: "created_at"}, {Field: "title", Ascending: true}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			e := echo.New()
			ctx := e.NewContext(httptest.NewRequest(http.MethodGet, "/"+tt.query, nil), httptest.NewRecorder())

			ord := new(Ordering)
			ord.Bind(ctx)
			assert.Equal(t, tt.want, ord.Orderings)
		})
	}
}
