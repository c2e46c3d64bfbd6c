// Package client provides typed access to the OKR API for interactive tools,
// together with a list controller that keeps local collections consistent
// with the server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client provides typed access to the OKR API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option customises client instantiation.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New constructs a Client pointing at the provided API base URL.
func New(base string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		trimmed = "http://localhost:4000"
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}
	cli := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(cli)
	}
	return cli, nil
}

// APIError represents an error response from the API.
type APIError struct {
	Status  int
	Message string
}

func (e APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return fmt.Sprintf("api request failed (%d): %s", e.Status, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body any, token string, v any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	endpoint := c.baseURL + path
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(token))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg := extractError(resp.Body)
		return APIError{Status: resp.StatusCode, Message: msg}
	}

	if v == nil {
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractError(body io.Reader) string {
	if body == nil {
		return ""
	}
	var payload struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(body)
	if err != nil || len(data) == 0 {
		return ""
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	return strings.TrimSpace(payload.Error)
}

// User reflects API user payloads.
type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id"`
	TeamID         string `json:"team_id"`
}

// TokenPair includes access and refresh tokens.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    time.Duration `json:"expires_in"`
}

// LoginResponse captures the token payload emitted by the API.
type LoginResponse struct {
	User   User      `json:"user"`
	Tokens TokenPair `json:"tokens"`
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, "", &resp); err != nil {
		return LoginResponse{}, err
	}
	return resp, nil
}

// TeamRef identifies a team on flattened records.
type TeamRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Objective is a flattened objective record.
type Objective struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Team            TeamRef   `json:"team"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	Progress        float64   `json:"progress"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	KeyResultsCount int       `json:"key_results_count"`
}

// ListObjectives returns the objectives visible to the caller.
func (c *Client) ListObjectives(ctx context.Context, token string) ([]Objective, error) {
	var objectives []Objective
	if err := c.do(ctx, http.MethodGet, "/objectives", nil, token, &objectives); err != nil {
		return nil, err
	}
	return objectives, nil
}

// CreateObjectiveInput captures the payload for objective creation. Dates are
// YYYY-MM-DD strings.
type CreateObjectiveInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	TeamID      string `json:"team_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
}

// CreateObjective registers a new objective.
func (c *Client) CreateObjective(ctx context.Context, token string, input CreateObjectiveInput) (Objective, error) {
	var objective Objective
	if err := c.do(ctx, http.MethodPost, "/objectives", input, token, &objective); err != nil {
		return Objective{}, err
	}
	return objective, nil
}

// Team is a plain team record.
type Team struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Name           string    `json:"name"`
	LeadID         *string   `json:"lead_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// LeadRef identifies a team lead.
type LeadRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TeamView is the aggregated team record.
type TeamView struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	TeamLead        *LeadRef `json:"team_lead"`
	MembersCount    int      `json:"members_count"`
	ActiveOKRsCount int      `json:"active_okrs_count"`
	AverageProgress float64  `json:"average_progress"`
	Status          string   `json:"status"`
}

// ListTeams returns the aggregated teams of the organization.
func (c *Client) ListTeams(ctx context.Context, token, orgID string) ([]TeamView, error) {
	path := fmt.Sprintf("/teams-by-org/%s", url.PathEscape(orgID))
	var teams []TeamView
	if err := c.do(ctx, http.MethodGet, path, nil, token, &teams); err != nil {
		return nil, err
	}
	return teams, nil
}

// CreateTeam provisions a team with no lead assigned.
func (c *Client) CreateTeam(ctx context.Context, token, name string) (Team, error) {
	var team Team
	if err := c.do(ctx, http.MethodPost, "/teams", map[string]string{"name": name}, token, &team); err != nil {
		return Team{}, err
	}
	return team, nil
}

// UpdateTeamInput renames a team and optionally moves the lead assignment.
type UpdateTeamInput struct {
	Name   string  `json:"name"`
	LeadID *string `json:"lead_id,omitempty"`
}

// UpdateTeam applies a team update.
func (c *Client) UpdateTeam(ctx context.Context, token, teamID string, input UpdateTeamInput) (Team, error) {
	path := fmt.Sprintf("/teams/%s", url.PathEscape(teamID))
	var team Team
	if err := c.do(ctx, http.MethodPut, path, input, token, &team); err != nil {
		return Team{}, err
	}
	return team, nil
}

// DeleteTeam removes a team.
func (c *Client) DeleteTeam(ctx context.Context, token, teamID string) error {
	path := fmt.Sprintf("/teams/%s", url.PathEscape(teamID))
	return c.do(ctx, http.MethodDelete, path, nil, token, nil)
}

// MemberIdentity carries member display fields.
type MemberIdentity struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// MemberView is the aggregated member record.
type MemberView struct {
	ID         string         `json:"id"`
	Email      string         `json:"email"`
	Member     MemberIdentity `json:"member"`
	Team       *TeamRef       `json:"team"`
	OKRs       int            `json:"okrs"`
	Progress   float64        `json:"progress"`
	Status     string         `json:"status"`
	LastActive time.Time      `json:"last_active"`
}

// ListOrganizationMembers returns every member of the organization.
func (c *Client) ListOrganizationMembers(ctx context.Context, token, orgID string) ([]MemberView, error) {
	path := fmt.Sprintf("/organizations/%s/members", url.PathEscape(orgID))
	var members []MemberView
	if err := c.do(ctx, http.MethodGet, path, nil, token, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// ListTeamMembers returns the members of one team.
func (c *Client) ListTeamMembers(ctx context.Context, token, teamID string) ([]MemberView, error) {
	path := fmt.Sprintf("/teams/%s/members", url.PathEscape(teamID))
	var members []MemberView
	if err := c.do(ctx, http.MethodGet, path, nil, token, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// CreateUserInput captures the payload for user creation.
type CreateUserInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	TeamID   string `json:"team_id,omitempty"`
	Title    string `json:"title,omitempty"`
}

// CreatedUser is the user-creation response.
type CreatedUser struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	TeamID         *string   `json:"team_id"`
	TeamName       string    `json:"team_name"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Title          string    `json:"title"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreateUser registers an account.
func (c *Client) CreateUser(ctx context.Context, token string, input CreateUserInput) (CreatedUser, error) {
	var created CreatedUser
	if err := c.do(ctx, http.MethodPost, "/users", input, token, &created); err != nil {
		return CreatedUser{}, err
	}
	return created, nil
}

// DeleteUser removes an account.
func (c *Client) DeleteUser(ctx context.Context, token, userID string) error {
	path := fmt.Sprintf("/users/%s", url.PathEscape(userID))
	return c.do(ctx, http.MethodDelete, path, nil, token, nil)
}
