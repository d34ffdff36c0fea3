package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/likelion-sch/recruit/apps/api/echo"
	"github.com/likelion-sch/recruit/core"
	"github.com/likelion-sch/recruit/core/user"
	"github.com/likelion-sch/recruit/testutil"
)

var errMissingToken = httpErr{Error: "UNAUTHORIZED", Errors: map[string]string{"detail": "missing or malformed jwt"}}

type testApp struct {
	*testutil.Env
	srv  Server
	auth *Auth
}

func setup(t *testing.T, configure ...func(*core.Config)) *testApp {
	env := testutil.NewEnv(t)
	for _, fn := range configure {
		fn(env.Conf)
	}
	srv := NewServer(ServerDeps{
		Conf:       env.Conf,
		Logger:     env.Logger,
		UserSvc:    env.UserSvc,
		AppSvc:     env.AppSvc,
		SessionSvc: env.SessionSvc,
		ProjectSvc: env.ProjectSvc,
		Validate:   env.Validate,
		Translator: env.Translator,
		Metrics:    env.Metrics,
	})
	return &testApp{Env: env, srv: srv, auth: NewAuth(env.Conf)}
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	token, err := app.auth.Token(usr)
	if err != nil {
		t.Fatalf("token(): %v", err)
	}
	return token
}

// do serves one request. body is marshalled to JSON unless it already is a []byte.
func (app *testApp) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, marshalBody(t, body))
	app.srv.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	OK     bool              `json:"ok"`
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors,omitempty"`
}

func errDetail(code, msg string) httpErr {
	return httpErr{Error: code, Errors: map[string]string{"detail": msg}}
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     interface{}
	token    string
	wantCode int
	wantData []byte
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

func marshalBody(t *testing.T, body interface{}) []byte {
	switch b := body.(type) {
	case nil:
		return nil
	case []byte:
		return b
	case string:
		return []byte(b)
	}
	return marshalObj(t, body)
}

func marshalObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshalObj(): %v", err)
	}
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
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
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v (body %s)", rec.Code, tt.wantCode, rec.Body.String())
	}
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

func runHTTPTests(t *testing.T, app *testApp, tests []httpTest) {
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}
