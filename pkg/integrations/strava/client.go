// Package strava is an API client for the Strava API v3 activity endpoints.
package strava

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fitglue/strava-janitor/pkg/infrastructure/httputil"
)

const defaultBaseURL = "https://www.strava.com/api/v3"

// Client talks to the Strava API. Authentication is the responsibility of
// the injected http.Client (see oauth.NewHTTPClient).
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewClient creates a Strava API client. httpClient should carry an OAuth
// transport; a zero timeout gets the standard 10s applied.
func NewClient(httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient.Timeout == 0 {
		httpClient.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL: defaultBaseURL,
		client:  httpClient,
		logger:  logger.With("component", "strava"),
	}
}

// SetBaseURL overrides the API base URL. Used by tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// ListActivities fetches one page of the authenticated athlete's activities,
// most recent first, preserving the order returned by the API.
// page is 1-indexed; perPage is capped at 200 by Strava.
func (c *Client) ListActivities(ctx context.Context, page, perPage int) ([]ActivitySummary, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))
	endpoint := fmt.Sprintf("%s/athlete/activities?%s", c.baseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.logger.Debug("Listing activities", "page", page, "per_page", perPage)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckResponse(resp); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	var activities []ActivitySummary
	if err := json.NewDecoder(resp.Body).Decode(&activities); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}

	c.logger.Info("Retrieved activities", "page", page, "count", len(activities))
	return activities, nil
}

// UpdateActivity applies a sparse update to a single activity and returns
// the updated summary. A non-success response is logged and returned as an
// error; the caller must treat the activity as not updated.
func (c *Client) UpdateActivity(ctx context.Context, activityID int64, params UpdateActivityParams) (*ActivitySummary, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal update params: %w", err)
	}

	endpoint := fmt.Sprintf("%s/activities/%d", c.baseURL, activityID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("update activity %d: %w", activityID, err)
	}
	defer resp.Body.Close()

	if err := httputil.CheckResponse(resp); err != nil {
		c.logger.Error("Activity update failed", "activity_id", activityID, "status", resp.StatusCode, "error", err)
		return nil, fmt.Errorf("update activity %d: %w", activityID, err)
	}

	var activity ActivitySummary
	if err := json.NewDecoder(resp.Body).Decode(&activity); err != nil {
		return nil, fmt.Errorf("decode updated activity %d: %w", activityID, err)
	}

	c.logger.Info("Activity updated", "activity_id", activityID)
	return &activity, nil
}
