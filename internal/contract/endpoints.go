package contract

import (
	"fmt"
	"net/url"
	"strings"
)

// Logical operations, the keys of the endpoint registry.
type Operation string

const (
	OpLogin    Operation = "auth.login"
	OpRegister Operation = "auth.register"
	OpRefresh  Operation = "auth.refresh"
	OpLogout   Operation = "auth.logout"
	OpProfile  Operation = "auth.profile"

	OpListProjects  Operation = "projects.list"
	OpCreateProject Operation = "projects.create"
	OpViewProject   Operation = "projects.view"
	OpUpdateProject Operation = "projects.update"
	OpDeleteProject Operation = "projects.delete"

	OpListMembers      Operation = "projects.members.list"
	OpAddMember        Operation = "projects.members.add"
	OpUpdateMemberRole Operation = "projects.members.update"
	OpRemoveMember     Operation = "projects.members.remove"

	OpListTasks  Operation = "tasks.list"
	OpCreateTask Operation = "tasks.create"
	OpViewTask   Operation = "tasks.view"
	OpUpdateTask Operation = "tasks.update"
	OpDeleteTask Operation = "tasks.delete"

	OpListUsers  Operation = "users.list"
	OpGetUser    Operation = "users.get"
	OpUpdateUser Operation = "users.update"

	OpHealth   Operation = "health"
	OpHealthDB Operation = "health.db"
)

// Endpoint pairs an HTTP method with a path template. Parameters appear
// as :name segments and are filled in by URL, never by concatenation.
type Endpoint struct {
	Method      string
	Path        string
	Description string
}

// Endpoints is the single source of truth for the HTTP surface, consumed
// by the client request builder and enumerable by doc generators. Never
// mutated at runtime.
var Endpoints = map[Operation]Endpoint{
	OpLogin:    {Method: "POST", Path: "/auth/login", Description: "authenticate with email and password"},
	OpRegister: {Method: "POST", Path: "/auth/register", Description: "create an account"},
	OpRefresh:  {Method: "POST", Path: "/auth/refresh", Description: "rotate the token pair"},
	OpLogout:   {Method: "POST", Path: "/auth/logout", Description: "invalidate the session"},
	OpProfile:  {Method: "GET", Path: "/auth/profile", Description: "fetch own profile"},

	OpListProjects:  {Method: "GET", Path: "/projects", Description: "list visible projects"},
	OpCreateProject: {Method: "POST", Path: "/projects", Description: "create a project"},
	OpViewProject:   {Method: "GET", Path: "/projects/:id", Description: "fetch one project with members"},
	OpUpdateProject: {Method: "PUT", Path: "/projects/:id", Description: "update a project"},
	OpDeleteProject: {Method: "DELETE", Path: "/projects/:id", Description: "delete a project and its members"},

	OpListMembers:      {Method: "GET", Path: "/projects/:id/members", Description: "list project members"},
	OpAddMember:        {Method: "POST", Path: "/projects/:id/members", Description: "add a member"},
	OpUpdateMemberRole: {Method: "PUT", Path: "/projects/:id/members/:userId", Description: "change a member's role"},
	OpRemoveMember:     {Method: "DELETE", Path: "/projects/:id/members/:userId", Description: "remove a member"},

	OpListTasks:  {Method: "GET", Path: "/tasks", Description: "list tasks, filterable and paginated"},
	OpCreateTask: {Method: "POST", Path: "/tasks", Description: "create a task"},
	OpViewTask:   {Method: "GET", Path: "/tasks/:id", Description: "fetch one task"},
	OpUpdateTask: {Method: "PUT", Path: "/tasks/:id", Description: "update a task"},
	OpDeleteTask: {Method: "DELETE", Path: "/tasks/:id", Description: "delete a task"},

	OpListUsers:  {Method: "GET", Path: "/users", Description: "list users (admin)"},
	OpGetUser:    {Method: "GET", Path: "/users/:id", Description: "fetch one user"},
	OpUpdateUser: {Method: "PUT", Path: "/users/:id", Description: "update a user"},

	OpHealth:   {Method: "GET", Path: "/health", Description: "liveness"},
	OpHealthDB: {Method: "GET", Path: "/health/test-db", Description: "database dependency check"},
}

// URL instantiates the path template, percent-encoding every substituted
// segment. Returns an error when a template parameter has no value.
func (e Endpoint) URL(params map[string]string) (string, error) {
	segs := strings.Split(e.Path, "/")
	for i, seg := range segs {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		name := seg[1:]
		val, ok := params[name]
		if !ok || val == "" {
			return "", fmt.Errorf("missing path parameter %q for %s", name, e.Path)
		}
		segs[i] = url.PathEscape(val)
	}
	return strings.Join(segs, "/"), nil
}

// Lookup fetches the endpoint for op; false when the operation is not
// registered.
func Lookup(op Operation) (Endpoint, bool) {
	e, ok := Endpoints[op]
	return e, ok
}
