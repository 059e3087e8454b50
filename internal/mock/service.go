// Package mock serves a small canned REST API that the bundled Mock API
// document describes, so requests copied from the viewer have something to
// hit. The same routes are available on gin, chi, echo and fiber.
package mock

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// User is a canned user record.
type User struct {
	ID    int64   `json:"id"`
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

// Tree is a tree summary in the list response.
type Tree struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Nodes int    `json:"nodes"`
}

// CreatedTree is returned by tree creation.
type CreatedTree struct {
	ID          int64   `json:"id"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Nodes       int     `json:"nodes"`
}

// TreeNode is one node of a tree.
type TreeNode struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// TreeDetail is a single tree. ID is null when the path id has no leading
// digits.
type TreeDetail struct {
	ID          *int64     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Nodes       []TreeNode `json:"nodes"`
}

// Message is the hello response.
type Message struct {
	Message string `json:"message"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// CreateTreeRequest is the body of POST /api/trees.
type CreateTreeRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

const (
	PathHello = "/api/hello"
	PathUsers = "/api/users"
	PathTrees = "/api/trees"
	PathTree  = "/api/trees/{id}"

	HelloMessage = "Hello from Forest API Docs server!"
)

var errInvalidBody = errors.New("request body is not valid JSON")

// Service produces the canned payloads. Created records take their id from
// Now in milliseconds.
type Service struct {
	Now func() time.Time
}

func NewService() *Service {
	return &Service{Now: time.Now}
}

func (s *Service) nextID() int64 {
	return s.Now().UnixMilli()
}

func (s *Service) Hello() Message {
	return Message{Message: HelloMessage}
}

func (s *Service) Users() []User {
	return []User{
		{ID: 1, Name: ptr("John Doe"), Email: ptr("john@example.com")},
		{ID: 2, Name: ptr("Jane Smith"), Email: ptr("jane@example.com")},
	}
}

func (s *Service) CreateUser(req CreateUserRequest) User {
	return User{ID: s.nextID(), Name: req.Name, Email: req.Email}
}

func (s *Service) Trees() []Tree {
	return []Tree{
		{ID: 1, Name: "Project Planning", Nodes: 15},
		{ID: 2, Name: "Research Notes", Nodes: 8},
		{ID: 3, Name: "Meeting Minutes", Nodes: 12},
	}
}

func (s *Service) CreateTree(req CreateTreeRequest) CreatedTree {
	return CreatedTree{ID: s.nextID(), Name: req.Name, Description: req.Description}
}

func (s *Service) Tree(id string) TreeDetail {
	return TreeDetail{
		ID:          leadingInt(id),
		Name:        "Sample Tree",
		Description: "A sample tree structure",
		Nodes: []TreeNode{
			{ID: 1, Title: "Root Node", Content: "This is the root"},
			{ID: 2, Title: "Child Node", Content: "This is a child"},
		},
	}
}

// decodeBody decodes a JSON request body into out. An empty body leaves out
// untouched.
func decodeBody(data []byte, out any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errInvalidBody
	}
	return nil
}

// leadingInt parses the optional sign and leading decimal digits of s,
// ignoring surrounding text, e.g. "12abc" is 12.
func leadingInt(s string) *int64 {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	start := i
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	digits := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == digits {
		return nil
	}
	n, err := strconv.ParseInt(s[start:i], 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func ptr[T any](v T) *T { return &v }

func badRequest(err error) ErrorResponse {
	return ErrorResponse{Error: "Bad Request", Message: err.Error(), Code: 400}
}
