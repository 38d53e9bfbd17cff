package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyri56xcaesar/taskhub/internal/contract"
)

func writeEnvelope(w http.ResponseWriter, status int, env contract.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func TestClientLoginSetsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)

		var req contract.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ada@example.com", req.Email)

		writeEnvelope(w, http.StatusOK, contract.OK(map[string]any{
			"tokens": contract.TokenPair{AccessToken: "acc-1", RefreshToken: "ref-1"},
			"user":   contract.User{ID: "u-1", Email: req.Email},
		}, ""))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/api/v1"})
	pair, err := c.Login(context.Background(), contract.LoginRequest{
		Email:    "ada@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, "acc-1", pair.AccessToken)
	assert.Equal(t, "acc-1", c.Bearer)
}

func TestClientPathEncoding(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		writeEnvelope(w, http.StatusOK, contract.OK(contract.Task{ID: "we ird/id"}, ""))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/api/v1"})
	_, err := c.GetTask(context.Background(), "we ird/id")
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/tasks/we%20ird%2Fid", gotPath)
}

func TestClientSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusForbidden,
			contract.Fail(contract.CodeForbidden, "not a member"))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/api/v1"})
	c.Bearer = "whatever"

	_, err := c.GetProject(context.Background(), "p-1")
	require.Error(t, err)

	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, contract.CodeForbidden, ae.Code)
	assert.Equal(t, http.StatusForbidden, ae.StatusCode)
	assert.Equal(t, "not a member", ae.Message)
}

func TestClientRetriesGetsOn5xx(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			writeEnvelope(w, http.StatusInternalServerError,
				contract.Fail(contract.CodeInternal, "transient"))
			return
		}
		writeEnvelope(w, http.StatusOK,
			contract.OK(contract.Task{ID: "t-1", Title: "eventually"}, ""))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/api/v1", RetryCount: 3, RetryWait: time.Millisecond})
	task, err := c.GetTask(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, "eventually", task.Title)
	assert.Equal(t, int32(3), hits.Load())
}

func TestClientDoesNotRetryWrites(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeEnvelope(w, http.StatusInternalServerError,
			contract.Fail(contract.CodeInternal, "boom"))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/api/v1", RetryCount: 3, RetryWait: time.Millisecond})
	_, err := c.CreateTask(context.Background(), contract.CreateTaskRequest{Title: "once"})
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClientNoRetryOn4xx(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeEnvelope(w, http.StatusNotFound,
			contract.Fail(contract.CodeNotFound, "no such task"))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/api/v1", RetryCount: 5, RetryWait: time.Millisecond})
	_, err := c.GetTask(context.Background(), "t-missing")
	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClientListTasksQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "p-1", q.Get("projectId"))
		assert.Equal(t, "IN_PROGRESS", q.Get("status"))
		assert.Equal(t, "2", q.Get("page"))
		writeEnvelope(w, http.StatusOK,
			contract.OK(contract.NewPage([]contract.Task{}, 2, 20, 0), ""))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL + "/api/v1"})
	page, err := c.ListTasks(context.Background(), contract.TaskFilter{
		ProjectID: "p-1",
		Status:    contract.StatusInProgress,
		Page:      2,
		Limit:     20,
	})
	require.NoError(t, err)
	assert.NotNil(t, page.Data)
}
