// Package session is the client of the authentication collaborator. It
// resolves the User once per session; everything downstream receives the
// resolved user explicitly and treats an absent user as "no data, do
// nothing" rather than an error.
package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/taskpad/taskpad/internal/config"
	"github.com/taskpad/taskpad/internal/model"
)

// Session holds the persisted login state
type Session struct {
	ServerURL string `json:"server_url"`
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
}

// Client manages login state against the taskpad server
type Client struct {
	session     *Session
	sessionPath string
	httpClient  *http.Client
}

// NewClient creates a session client, loading any persisted login.
func NewClient(serverURL string) (*Client, error) {
	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}

	c := &Client{
		sessionPath: filepath.Join(dir, "session.json"),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
	c.load(serverURL)
	return c, nil
}

func (c *Client) load(serverURL string) {
	data, err := os.ReadFile(c.sessionPath)
	if err != nil {
		c.session = &Session{ServerURL: serverURL}
		return
	}

	c.session = &Session{}
	json.Unmarshal(data, c.session)
	if c.session.ServerURL == "" {
		c.session.ServerURL = serverURL
	}
}

func (c *Client) save() error {
	if err := os.MkdirAll(filepath.Dir(c.sessionPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c.session, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.sessionPath, data, 0600)
}

// ServerURL returns the server the session talks to.
func (c *Client) ServerURL() string {
	return c.session.ServerURL
}

// Token returns the bearer token for store requests.
func (c *Client) Token() string {
	return c.session.Token
}

// IsLoggedIn returns true if a token is present
func (c *Client) IsLoggedIn() bool {
	return c.session.Token != ""
}

type authResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

func (c *Client) postAuth(path string, body map[string]string) (*authResponse, error) {
	data, _ := json.Marshal(body)

	resp, err := c.httpClient.Post(
		c.session.ServerURL+path,
		"application/json",
		bytes.NewReader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("request failed: %s", string(respBody))
	}

	var result authResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates a new account and logs in
func (c *Client) Register(email, password string) error {
	result, err := c.postAuth("/api/v1/register", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}

	c.session.Token = result.Token
	c.session.UserID = result.UserID
	c.session.Email = email
	return c.save()
}

// Login authenticates with email and password
func (c *Client) Login(email, password string) error {
	result, err := c.postAuth("/api/v1/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return err
	}

	c.session.Token = result.Token
	c.session.UserID = result.UserID
	c.session.Email = email
	return c.save()
}

// Logout clears the session
func (c *Client) Logout() error {
	c.session.Token = ""
	c.session.UserID = ""
	c.session.Email = ""
	return c.save()
}

// CurrentUser resolves the logged-in user from the server. An absent or
// rejected session yields the zero User, not an error.
func (c *Client) CurrentUser() (model.User, error) {
	if !c.IsLoggedIn() {
		return model.User{}, nil
	}

	req, err := http.NewRequest("GET", c.session.ServerURL+"/api/v1/me", nil)
	if err != nil {
		return model.User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.session.Token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return model.User{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return model.User{}, fmt.Errorf("request failed: %s", string(respBody))
	}

	var user model.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return model.User{}, err
	}
	return user, nil
}
