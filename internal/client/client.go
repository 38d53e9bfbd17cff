package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"kyri56xcaesar/taskhub/internal/contract"
)

// Config is passed to New explicitly; there is no package-level default
// client, so tests can inject whatever they need.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
}

// Client talks to the API through the endpoint registry; paths are
// instantiated from the templates, never concatenated by hand.
type Client struct {
	cfg  Config
	http *http.Client

	// Bearer is attached to every request when set.
	Bearer string
}

func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RetryWait == 0 {
		cfg.RetryWait = 250 * time.Millisecond
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// APIError surfaces the envelope's stable error code to callers.
type APIError struct {
	Code       contract.ErrorCode
	Message    string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

type rawEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

func (c *Client) do(ctx context.Context, op contract.Operation, params map[string]string, query url.Values, body, out any) error {
	ep, ok := contract.Lookup(op)
	if !ok {
		return fmt.Errorf("unknown operation %q", op)
	}

	path, err := ep.URL(params)
	if err != nil {
		return err
	}
	full := c.cfg.BaseURL + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	// retry idempotent reads only
	attempts := 1
	if ep.Method == http.MethodGet {
		attempts += c.cfg.RetryCount
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.cfg.RetryWait):
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, ep.Method, full, reader)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.Bearer != "" {
			req.Header.Set("Authorization", "Bearer "+c.Bearer)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		lastErr = decodeEnvelope(resp, out)
		if lastErr == nil {
			return nil
		}
		// only 5xx api errors are worth retrying
		var ae *APIError
		if errors.As(lastErr, &ae) && ae.StatusCode < 500 {
			return lastErr
		}
	}
	return lastErr
}

func decodeEnvelope(resp *http.Response, out any) error {
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env rawEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return fmt.Errorf("malformed response (%d): %w", resp.StatusCode, err)
	}

	if !env.Success {
		return &APIError{
			Code:       contract.ErrorCode(env.Error),
			Message:    env.Message,
			StatusCode: resp.StatusCode,
		}
	}

	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func pageQuery(page, limit int) url.Values {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

// --- auth ---

func (c *Client) Login(ctx context.Context, req contract.LoginRequest) (contract.TokenPair, error) {
	var out struct {
		Tokens contract.TokenPair `json:"tokens"`
		User   contract.User      `json:"user"`
	}
	err := c.do(ctx, contract.OpLogin, nil, nil, req, &out)
	if err == nil {
		c.Bearer = out.Tokens.AccessToken
	}
	return out.Tokens, err
}

func (c *Client) Register(ctx context.Context, req contract.RegisterRequest) (contract.User, error) {
	var u contract.User
	err := c.do(ctx, contract.OpRegister, nil, nil, req, &u)
	return u, err
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (contract.TokenPair, error) {
	var pair contract.TokenPair
	err := c.do(ctx, contract.OpRefresh, nil, nil, contract.RefreshRequest{RefreshToken: refreshToken}, &pair)
	if err == nil {
		c.Bearer = pair.AccessToken
	}
	return pair, err
}

func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.do(ctx, contract.OpLogout, nil, nil, contract.RefreshRequest{RefreshToken: refreshToken}, nil)
}

func (c *Client) Profile(ctx context.Context) (contract.User, error) {
	var u contract.User
	err := c.do(ctx, contract.OpProfile, nil, nil, nil, &u)
	return u, err
}

// --- projects ---

func (c *Client) ListProjects(ctx context.Context, page, limit int) (contract.Page[contract.Project], error) {
	var out contract.Page[contract.Project]
	err := c.do(ctx, contract.OpListProjects, nil, pageQuery(page, limit), nil, &out)
	return out, err
}

func (c *Client) CreateProject(ctx context.Context, req contract.CreateProjectRequest) (contract.Project, error) {
	var p contract.Project
	err := c.do(ctx, contract.OpCreateProject, nil, nil, req, &p)
	return p, err
}

func (c *Client) GetProject(ctx context.Context, id string) (contract.Project, error) {
	var p contract.Project
	err := c.do(ctx, contract.OpViewProject, map[string]string{"id": id}, nil, nil, &p)
	return p, err
}

func (c *Client) UpdateProject(ctx context.Context, id string, req contract.UpdateProjectRequest) (contract.Project, error) {
	var p contract.Project
	err := c.do(ctx, contract.OpUpdateProject, map[string]string{"id": id}, nil, req, &p)
	return p, err
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, contract.OpDeleteProject, map[string]string{"id": id}, nil, nil, nil)
}

// --- members ---

func (c *Client) ListMembers(ctx context.Context, projectID string) ([]contract.ProjectMember, error) {
	var out []contract.ProjectMember
	err := c.do(ctx, contract.OpListMembers, map[string]string{"id": projectID}, nil, nil, &out)
	return out, err
}

func (c *Client) AddMember(ctx context.Context, projectID string, req contract.AddMemberRequest) (contract.ProjectMember, error) {
	var m contract.ProjectMember
	err := c.do(ctx, contract.OpAddMember, map[string]string{"id": projectID}, nil, req, &m)
	return m, err
}

func (c *Client) UpdateMemberRole(ctx context.Context, projectID, userID string, role contract.ProjectRole) (contract.ProjectMember, error) {
	var m contract.ProjectMember
	err := c.do(ctx, contract.OpUpdateMemberRole,
		map[string]string{"id": projectID, "userId": userID}, nil,
		contract.UpdateMemberRoleRequest{Role: role}, &m)
	return m, err
}

func (c *Client) RemoveMember(ctx context.Context, projectID, userID string) error {
	return c.do(ctx, contract.OpRemoveMember,
		map[string]string{"id": projectID, "userId": userID}, nil, nil, nil)
}

// --- tasks ---

func (c *Client) ListTasks(ctx context.Context, f contract.TaskFilter) (contract.Page[contract.Task], error) {
	q := pageQuery(f.Page, f.Limit)
	if f.ProjectID != "" {
		q.Set("projectId", f.ProjectID)
	}
	if f.AssigneeID != "" {
		q.Set("assigneeId", f.AssigneeID)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Priority != "" {
		q.Set("priority", string(f.Priority))
	}
	if f.DueDateFrom != nil {
		q.Set("dueDateFrom", f.DueDateFrom.Format(time.RFC3339))
	}
	if f.DueDateTo != nil {
		q.Set("dueDateTo", f.DueDateTo.Format(time.RFC3339))
	}

	var out contract.Page[contract.Task]
	err := c.do(ctx, contract.OpListTasks, nil, q, nil, &out)
	return out, err
}

func (c *Client) CreateTask(ctx context.Context, req contract.CreateTaskRequest) (contract.Task, error) {
	var t contract.Task
	err := c.do(ctx, contract.OpCreateTask, nil, nil, req, &t)
	return t, err
}

func (c *Client) GetTask(ctx context.Context, id string) (contract.Task, error) {
	var t contract.Task
	err := c.do(ctx, contract.OpViewTask, map[string]string{"id": id}, nil, nil, &t)
	return t, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, req contract.UpdateTaskRequest) (contract.Task, error) {
	var t contract.Task
	err := c.do(ctx, contract.OpUpdateTask, map[string]string{"id": id}, nil, req, &t)
	return t, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, contract.OpDeleteTask, map[string]string{"id": id}, nil, nil, nil)
}

// --- users ---

func (c *Client) ListUsers(ctx context.Context, page, limit int) (contract.Page[contract.User], error) {
	var out contract.Page[contract.User]
	err := c.do(ctx, contract.OpListUsers, nil, pageQuery(page, limit), nil, &out)
	return out, err
}

func (c *Client) GetUser(ctx context.Context, id string) (contract.User, error) {
	var u contract.User
	err := c.do(ctx, contract.OpGetUser, map[string]string{"id": id}, nil, nil, &u)
	return u, err
}

func (c *Client) UpdateUser(ctx context.Context, id string, req contract.UpdateUserRequest) (contract.User, error) {
	var u contract.User
	err := c.do(ctx, contract.OpUpdateUser, map[string]string{"id": id}, nil, req, &u)
	return u, err
}
