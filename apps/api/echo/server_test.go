package echoapi_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_server_health(t *testing.T) {
	app := setup(t)

	runHTTPTests(t, app, []httpTest{
		{name: "health", path: "/api/health", wantData: []byte(`{"ok":true}`)},
		{name: "trailing slash", path: "/api/health/", wantData: []byte(`{"ok":true}`)},
		{
			name: "unknown route", path: "/api/nope", wantCode: http.StatusNotFound,
			wantData: marshalObj(t, errDetail("NOT_FOUND", "Not Found")),
		},
	})

	rec := app.do(t, http.MethodGet, "/api/health", "", nil)
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)
}

func Test_server_metrics(t *testing.T) {
	app := setup(t)

	for i := 0; i < 3; i++ {
		rec := app.do(t, http.MethodGet, "/api/projects", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := app.do(t, http.MethodGet, "/api/sessions/quizzes", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body,
		`recruit_http_request_duration_seconds_count{code="200",method="GET",route="/api/projects"} 3`), body)
	assert.True(t, strings.Contains(body,
		`recruit_http_request_duration_seconds_count{code="401",method="GET",route="/api/sessions/quizzes"} 1`), body)
}
