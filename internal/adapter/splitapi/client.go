// Package splitapi is the HTTP client for the Split-Expense Service:
// bearer auth without refresh, updated-after timestamp fetch, and
// marker-prepend processed marking. Every call goes through the error
// classifier.
package splitapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/splitsync/internal/apierror"
)

// Client talks to the Split-Expense API for one user.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	logger      zerolog.Logger

	maxRetries      int
	initialInterval time.Duration
}

// Config holds Client construction parameters.
type Config struct {
	HTTPClient  *http.Client
	BaseURL     string
	AccessToken string
	Logger      zerolog.Logger
}

// New creates a Client. There is no refresh capability on this side: a
// 401 is always fatal and requires user action.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		httpClient:      httpClient,
		baseURL:         cfg.BaseURL,
		accessToken:     cfg.AccessToken,
		logger:          cfg.Logger,
		maxRetries:      3,
		initialInterval: 200 * time.Millisecond,
	}
}

// FetchUnprocessed returns the group's expenses updated after since,
// excluding soft-deleted expenses and ones already carrying the sync
// marker in their description.
func (c *Client) FetchUnprocessed(ctx context.Context, groupID string, since time.Time, marker string) ([]Expense, error) {
	query := url.Values{}
	query.Set("group_id", groupID)
	query.Set("updated_after", since.UTC().Format(time.RFC3339))
	query.Set("limit", "0")

	body, err := c.do(ctx, "split.fetch", http.MethodGet, "/get_expenses", query, nil)
	if err != nil {
		return nil, err
	}

	var resp expensesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, apierror.FromTransport("split.fetch", err)
	}

	matched := make([]Expense, 0, len(resp.Expenses))
	for _, e := range resp.Expenses {
		if e.DeletedAt != nil {
			continue
		}
		if marker != "" && strings.Contains(e.Description, marker) {
			continue
		}
		matched = append(matched, e)
	}

	c.logger.Debug().
		Int("updated", len(resp.Expenses)).
		Int("unprocessed", len(matched)).
		Time("since", since).
		Msg("fetched split expenses")

	return matched, nil
}

// Push creates an expense and returns its external id.
func (c *Client) Push(ctx context.Context, expense NewExpense) (string, error) {
	payload, err := json.Marshal(expense)
	if err != nil {
		return "", err
	}

	body, err := c.do(ctx, "split.push", http.MethodPost, "/create_expense", nil, payload)
	if err != nil {
		return "", err
	}

	var resp expenseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", apierror.FromTransport("split.push", err)
	}

	if len(resp.Expenses) == 0 {
		return "", apierror.Classify("split.push", http.StatusBadRequest, "no expense returned")
	}

	return resp.Expenses[0].ID, nil
}

// MarkProcessed prepends the sync marker to the expense description,
// mutating the record in place. Marker presence is itself the
// idempotency check, so a duplicate prepend on retry is harmless.
func (c *Client) MarkProcessed(ctx context.Context, expenseID, description, marker string) error {
	payload, err := json.Marshal(map[string]string{
		"description": marker + " " + description,
	})
	if err != nil {
		return err
	}

	path := fmt.Sprintf("/update_expense/%s", url.PathEscape(expenseID))
	_, err = c.do(ctx, "split.mark", http.MethodPost, path, nil, payload)
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload []byte) ([]byte, error) {
	var body []byte

	operation := func() error {
		u := c.baseURL + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return backoff.Permanent(err)
		}

		req.Header.Set("Authorization", "Bearer "+c.accessToken)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		if resp.StatusCode >= 400 {
			classified := apierror.Classify(op, resp.StatusCode, string(respBody))
			if apierror.RetryableStatus(resp.StatusCode) {
				return classified
			}
			return backoff.Permanent(classified)
		}

		body = respBody
		return nil
	}

	if err := c.retry(ctx, op, operation); err != nil {
		var apiErr *apierror.APIError
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		return nil, apierror.FromTransport(op, err)
	}

	return body, nil
}

func (c *Client) retry(ctx context.Context, op string, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialInterval
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = 15 * time.Second

	attempts := 0

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}

		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			return err
		}

		attempts++
		if attempts > c.maxRetries {
			return backoff.Permanent(err)
		}

		c.logger.Warn().Err(err).Str("op", op).Int("attempt", attempts).Msg("retrying split call")

		return err
	}, backoff.WithContext(b, ctx))
}
