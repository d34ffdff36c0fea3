package echoapi

import (
	"net/http"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/application"
	"github.com/likelion-sch/recruit/core/project"
	"github.com/likelion-sch/recruit/core/session"
	"github.com/likelion-sch/recruit/core/user"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAccountDeactivated = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired     = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound       = echo.NewHTTPError(http.StatusNotFound, "not found")
	errTooManyRequests    = echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
)

// codeStatus maps the business error codes that are not plain 400s.
var codeStatus = map[string]int{
	application.CodeLocked:                http.StatusConflict,
	user.ErrEmailExists.Code:              http.StatusConflict,
	user.ErrEmailNotVerified.Code:         http.StatusForbidden,
	user.ErrEmailVerificationExpired.Code: http.StatusForbidden,
	user.ErrInvalidCredentials.Code:       http.StatusUnauthorized,
	user.ErrAccountDisabled.Code:          http.StatusForbidden,
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	OK     bool              `json:"ok"`
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors,omitempty"`
}

func detail(msg string) map[string]string {
	return map[string]string{"detail": msg}
}

func isNotFound(err error) bool {
	switch errors.Cause(err) {
	case user.ErrNotFound, application.ErrNotFound, session.ErrNotFound, project.ErrNotFound:
		return true
	}
	return false
}

// httpErrorCode turns a status into an error code, e.g. 404 -> NOT_FOUND.
func httpErrorCode(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}
		code := http.StatusBadRequest
		res := errorResponse{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				origErr = echo.NewHTTPError(http.StatusUnauthorized, origErr.Message)
			} else if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
			}
			code = origErr.Code
			res.Error = httpErrorCode(code)
			if msg, ok := origErr.Message.(string); ok {
				res.Errors = detail(msg)
			}
		case validator.ValidationErrors:
			res.Error = "VALIDATION_ERROR"
			res.Errors = core.TranslateErrors(origErr, translator)
		case *core.ValidationError:
			res.Error = "VALIDATION_ERROR"
			if len(origErr.Fields) > 0 {
				res.Errors = make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					res.Errors[fErr.Field] = fErr.Error
				}
			} else {
				res.Errors = detail(origErr.Error())
			}
		case *core.Error:
			if status, ok := codeStatus[origErr.Code]; ok {
				code = status
			}
			res.Error = origErr.Code
			res.Errors = detail(origErr.Message)
		default:
			if isNotFound(err) {
				code = http.StatusNotFound
				res.Error = httpErrorCode(code)
				res.Errors = detail("not found")
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(code)
			res.Error = httpErrorCode(code)
			res.Errors = detail(msg)
			if ctx.Echo().Debug {
				res.Errors = detail(err.Error())
			}

			usr, _ := getContextUser(ctx)
			logger.Error(msg, errors.Wrap(err, msg), usr, map[string]interface{}{
				"method": ctx.Request().Method,
				"path":   ctx.Path(),
			})

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, res)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
