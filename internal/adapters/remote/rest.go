package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/checkboard/internal/domain/types"
)

// Default REST client configuration constants.
const (
	defaultTimeout  = 5 * time.Second
	maxErrorBodyLen = 512

	userPath        = "/auth/v1/user"
	submissionsPath = "/rest/v1/submissions"
	leaderboardPath = "/rest/v1/rpc/get_leaderboard"
)

// RESTClient talks to the hosted backend's auth and REST endpoints.
type RESTClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
	timeout time.Duration
}

var _ Client = (*RESTClient)(nil)

// NewRESTClient creates a client for the backend at baseURL. apiKey is the
// project's public key; it is sent on every request.
func NewRESTClient(baseURL, apiKey string, opts ...Option) *RESTClient {
	c := &RESTClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{},
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type userResponse struct {
	ID           string `json:"id"`
	UserMetadata struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
}

type submissionRow struct {
	Name        string `json:"name"`
	RedChecked  bool   `json:"red_checked"`
	BlueChecked bool   `json:"blue_checked"`
}

// GetSession resolves the user behind accessToken. A token the backend
// rejects is reported as no session.
func (c *RESTClient) GetSession(ctx context.Context, accessToken string) (*types.Session, error) {
	const op = "get_session"
	if accessToken == "" {
		return nil, nil
	}

	resp, err := c.do(ctx, http.MethodGet, userPath, accessToken, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrService, op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, statusError(op, resp)
	}

	var u userResponse
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("%w: %s: decode: %w", ErrService, op, err)
	}
	if u.ID == "" {
		return nil, nil
	}
	return &types.Session{UserID: u.ID, DisplayName: u.UserMetadata.FullName}, nil
}

// InsertSubmission inserts one row into the submissions table.
func (c *RESTClient) InsertSubmission(ctx context.Context, s types.Submission) error {
	const op = "insert_submission"
	body := []submissionRow{{Name: s.Name, RedChecked: s.RedSelected, BlueChecked: s.BlueSelected}}

	resp, err := c.do(ctx, http.MethodPost, submissionsPath, "", body)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrService, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return statusError(op, resp)
	}
	return nil
}

// GetLeaderboard calls the get_leaderboard procedure.
func (c *RESTClient) GetLeaderboard(ctx context.Context) ([]types.LeaderboardEntry, error) {
	const op = "get_leaderboard"

	resp, err := c.do(ctx, http.MethodPost, leaderboardPath, "", struct{}{})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrService, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(op, resp)
	}

	var entries []types.LeaderboardEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("%w: %s: decode: %w", ErrService, op, err)
	}
	if entries == nil {
		entries = []types.LeaderboardEntry{}
	}
	return entries, nil
}

// do sends a request. bearer defaults to the API key when empty.
func (c *RESTClient) do(ctx context.Context, method, path, bearer string, body any) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)

	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("build request: %w", err)
	}
	if bearer == "" {
		bearer = c.apiKey
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=minimal")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelOnClose releases the request context once the body is consumed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func statusError(op string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %w: %s: status %d: %s", ErrService, ErrUnauthorized, op, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return fmt.Errorf("%w: %s: status %d: %s", ErrService, op, resp.StatusCode, strings.TrimSpace(string(snippet)))
}
