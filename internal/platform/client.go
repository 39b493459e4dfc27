package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"admin-gateway-service/internal/models"
)

// Client calls the platform REST API on behalf of admin sessions. It
// propagates the tenant and the caller's session cookie on every request and
// rate-limits outbound calls.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	cookieName  string
	rateLimiter *rate.Limiter
	retrier     *Retrier
}

// Credentials carries the per-request identity forwarded upstream.
type Credentials struct {
	TenantID string
	Session  string
}

// ListQuery is the paging query of one list call.
type ListQuery struct {
	Page   int
	Limit  int
	Search string
}

// NewClient creates a platform API client.
func NewClient(baseURL, cookieName string, ratePerSecond float64, timeout time.Duration) *Client {
	if ratePerSecond <= 0 {
		ratePerSecond = 10
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		cookieName:  cookieName,
		rateLimiter: rate.NewLimiter(rate.Limit(ratePerSecond), int(ratePerSecond)),
		retrier:     NewRetrier(DefaultRetryConfig()),
	}
}

// List fetches one page of a resource collection.
func (c *Client) List(ctx context.Context, path string, q ListQuery, creds Credentials) (*models.PageEnvelope, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("limit", strconv.Itoa(q.Limit))
	if q.Search != "" {
		params.Set("search", q.Search)
	}

	var envelope models.PageEnvelope
	err := c.retrier.Do(ctx, "list "+path, func(ctx context.Context) (int, time.Duration, error) {
		body, status, retryAfter, err := c.doRequest(ctx, http.MethodGet, path, params, nil, creds)
		if err != nil {
			return status, retryAfter, err
		}
		var response struct {
			Data models.PageEnvelope `json:"data"`
		}
		if err := json.Unmarshal(body, &response); err != nil {
			return status, 0, parseError(err)
		}
		envelope = response.Data
		return status, 0, nil
	})
	if err != nil {
		return nil, err
	}
	return &envelope, nil
}

// Update issues the real mutation behind one inline edit.
func (c *Client) Update(ctx context.Context, path, id string, fields map[string]interface{}, creds Credentials) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return parseError(err)
	}
	_, _, _, reqErr := c.doRequest(ctx, http.MethodPut, path+"/"+id, nil, payload, creds)
	return reqErr
}

// BulkDelete removes the given records from a collection.
func (c *Client) BulkDelete(ctx context.Context, path string, ids []string, creds Credentials) error {
	payload, err := json.Marshal(models.BulkDeleteRequest{IDs: ids})
	if err != nil {
		return parseError(err)
	}
	_, _, _, reqErr := c.doRequest(ctx, http.MethodDelete, path, nil, payload, creds)
	return reqErr
}

// doRequest performs one HTTP call, returning the body, status, and any
// Retry-After hint. Non-2xx responses come back as a RequestError carrying
// the server's message when the body has one.
func (c *Client) doRequest(ctx context.Context, method, path string, params url.Values, body []byte, creds Credentials) ([]byte, int, time.Duration, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, 0, 0, networkError(err)
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, 0, 0, networkError(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if creds.TenantID != "" {
		req.Header.Set("X-Tenant-ID", creds.TenantID)
	}
	if creds.Session != "" {
		req.AddCookie(&http.Cookie{Name: c.cookieName, Value: creds.Session})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, 0, networkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, 0, networkError(err)
	}

	if resp.StatusCode >= 400 {
		return nil, resp.StatusCode, ParseRetryAfter(resp), httpError(resp.StatusCode, extractMessage(respBody))
	}

	return respBody, resp.StatusCode, 0, nil
}

// extractMessage pulls the server's error message out of a failure body.
func extractMessage(body []byte) string {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return envelope.Message
}
