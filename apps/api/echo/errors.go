package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/flowlearn/pawfessor/core"
	"github.com/flowlearn/pawfessor/core/course"
	"github.com/flowlearn/pawfessor/core/generator"
	"github.com/flowlearn/pawfessor/core/profile"
)

var (
	errUnauthorized      = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errRefreshExpired    = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden     = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound      = echo.NewHTTPError(http.StatusNotFound, "not found")
	errGeneratorDisabled = echo.NewHTTPError(http.StatusServiceUnavailable, "course generation is not available")
)

// domainErrorCode maps the domain sentinel errors to their HTTP status.
func domainErrorCode(err error) (int, bool) {
	switch err {
	case profile.ErrNotFound, course.ErrNotFound, course.ErrContentNotFound, course.ErrSubmissionNotFound:
		return http.StatusNotFound, true
	case course.ErrAlreadyEnrolled:
		return http.StatusConflict, true
	case course.ErrNotEnrolled, course.ErrNotHomework, profile.ErrInvalidCredentials:
		return http.StatusBadRequest, true
	case generator.ErrEmptyResponse:
		return http.StatusBadGateway, true
	}
	return 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				message = origErr.FieldMap()
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *generator.OutlineError:
			code = http.StatusBadGateway
			message = origErr.Error()
		default:
			if c, ok := domainErrorCode(origErr); ok {
				code = c
				message = origErr.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var p profile.Profile
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				p.ID = claims.Subject
				p.Name = claims.Name
				p.Email = claims.Email
				p.Role = claims.Role
			}
			logger.Error(msg, errors.Wrap(err, msg), p)

			if ctx.Echo().Debug {
				message = err.Error()
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
