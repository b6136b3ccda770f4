package sheets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var (
	// ErrTimeout: the values fetch exceeded the hard deadline.
	ErrTimeout = errors.New("sheets fetch: request timed out")
	// ErrBadStatus: the Sheets API answered with a non-2xx status.
	ErrBadStatus = errors.New("sheets fetch: unexpected status")
)

// Client fetches a spreadsheet range through the Sheets values API.
// It does not retry; retry policy belongs to the caller.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	apiKey        string
	spreadsheetID string
	readRange     string
	timeout       time.Duration
}

func NewClient(apiKey, spreadsheetID, readRange string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		httpClient:    &http.Client{},
		baseURL:       "https://sheets.googleapis.com",
		apiKey:        apiKey,
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
		timeout:       timeout,
	}
}

// SetBaseURL points the client at a test server.
func (c *Client) SetBaseURL(base string) {
	c.baseURL = base
}

type valuesResponse struct {
	Values [][]interface{} `json:"values"`
}

// FetchValues returns the raw value grid of the configured range, the
// first row being headers. Timeout, bad status, and transport failure
// surface as distinct errors.
func (c *Client) FetchValues(ctx context.Context) ([][]interface{}, error) {
	if c.apiKey == "" || c.spreadsheetID == "" {
		return nil, fmt.Errorf("sheets fetch: api key and spreadsheet id are required")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?key=%s",
		c.baseURL,
		url.PathEscape(c.spreadsheetID),
		url.PathEscape(c.readRange),
		url.QueryEscape(c.apiKey),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("sheets fetch: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("sheets fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrBadStatus, resp.StatusCode)
	}

	var body valuesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("sheets fetch: decode response: %w", err)
	}

	return body.Values, nil
}
