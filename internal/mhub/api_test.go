package mhub

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	auth "kyri56xcaesar/taskhub/internal/authmw"
	"kyri56xcaesar/taskhub/internal/contract"
)

// newTestAPI wires the routes over a fresh MemStore and a local token
// service. Package state is rebuilt per test.
func newTestAPI(t *testing.T) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	config = Config{BasePath: "/api/v1", Profile: "memory", ApiGinMode: "test"}
	store = NewMemStore()
	tokens = auth.NewTokenService([]byte("test-secret"), "taskhub-test")
	authn = auth.NewLocal(tokens)
	kc = nil

	engine = gin.New()
	setRoutes()
}

// seedUser creates an account straight in the store and hands back a
// valid bearer token for it.
func seedUser(t *testing.T, email string, role contract.SystemRole) (*contract.User, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	u := &contract.User{Email: email, Name: "Test " + email, Role: role}
	require.NoError(t, store.CreateUser(context.Background(), u, string(hash)))

	pair, jti, err := tokens.IssuePair(u)
	require.NoError(t, err)
	require.NoError(t, store.SaveSession(context.Background(), jti, u.ID, time.Now().Add(time.Hour)))

	return u, pair.AccessToken
}

func doJSON(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) testEnvelope {
	t.Helper()

	var env testEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	env := decodeEnvelope(t, w)
	require.True(t, env.Success, "expected success envelope, got error %q: %s", env.Error, env.Message)

	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}
