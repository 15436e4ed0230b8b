// Package ledgerapi is the HTTP client for the Ledger Service: bearer
// auth with one-shot refresh-token rotation, incremental fetch via the
// server-knowledge token, and flag-based processed marking. Every call
// goes through the error classifier.
package ledgerapi

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

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/splitsync/internal/apierror"
)

// TokenStore persists rotated credentials after a refresh.
type TokenStore interface {
	SaveLedgerTokens(ctx context.Context, userID, accessToken, refreshToken string) error
}

// Client talks to the Ledger API for one user.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	userID       string
	budgetID     string
	accessToken  string
	refreshToken string
	tokens       TokenStore
	logger       zerolog.Logger

	maxRetries      int
	initialInterval time.Duration
}

// Config holds Client construction parameters.
type Config struct {
	HTTPClient   *http.Client
	BaseURL      string
	UserID       string
	BudgetID     string
	AccessToken  string
	RefreshToken string
	Tokens       TokenStore
	Logger       zerolog.Logger
}

// New creates a Client. The HTTP client is injected; no process-wide
// singletons.
func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		httpClient:      httpClient,
		baseURL:         cfg.BaseURL,
		userID:          cfg.UserID,
		budgetID:        cfg.BudgetID,
		accessToken:     cfg.AccessToken,
		refreshToken:    cfg.RefreshToken,
		tokens:          cfg.Tokens,
		logger:          cfg.Logger,
		maxRetries:      3,
		initialInterval: 200 * time.Millisecond,
	}
}

// FetchUnprocessed returns transactions changed since serverKnowledge
// that pass the unprocessed filter, plus the new server knowledge. The
// new knowledge is returned even when individual items later fail.
func (c *Client) FetchUnprocessed(ctx context.Context, serverKnowledge int64, filter FetchFilter) ([]Transaction, int64, error) {
	path := fmt.Sprintf("/budgets/%s/transactions", url.PathEscape(c.budgetID))
	query := url.Values{}
	if serverKnowledge > 0 {
		query.Set("last_knowledge_of_server", strconv.FormatInt(serverKnowledge, 10))
	}

	body, err := c.do(ctx, "ledger.fetch", http.MethodGet, path, query, nil)
	if err != nil {
		return nil, 0, err
	}

	var resp transactionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, 0, apierror.FromTransport("ledger.fetch", err)
	}

	matched := make([]Transaction, 0, len(resp.Data.Transactions))
	for _, tx := range resp.Data.Transactions {
		if filter.Matches(tx) {
			matched = append(matched, tx)
		}
	}

	c.logger.Debug().
		Int("changed", len(resp.Data.Transactions)).
		Int("unprocessed", len(matched)).
		Int64("server_knowledge", resp.Data.ServerKnowledge).
		Msg("fetched ledger transactions")

	return matched, resp.Data.ServerKnowledge, nil
}

// Push creates a transaction and returns its external id.
func (c *Client) Push(ctx context.Context, tx NewTransaction) (string, error) {
	path := fmt.Sprintf("/budgets/%s/transactions", url.PathEscape(c.budgetID))
	payload, err := json.Marshal(map[string]NewTransaction{"transaction": tx})
	if err != nil {
		return "", err
	}

	body, err := c.do(ctx, "ledger.push", http.MethodPost, path, nil, payload)
	if err != nil {
		return "", err
	}

	var resp transactionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", apierror.FromTransport("ledger.push", err)
	}

	return resp.Data.Transaction.ID, nil
}

// MarkProcessed replaces the transaction's flag with the synced flag.
func (c *Client) MarkProcessed(ctx context.Context, transactionID, syncedFlag string) error {
	path := fmt.Sprintf("/budgets/%s/transactions/%s",
		url.PathEscape(c.budgetID), url.PathEscape(transactionID))

	payload, err := json.Marshal(map[string]map[string]string{
		"transaction": {"flag_color": syncedFlag},
	})
	if err != nil {
		return err
	}

	_, err = c.do(ctx, "ledger.mark", http.MethodPut, path, nil, payload)
	return err
}

// do performs one API call with bounded backoff on transient failures
// and a single refresh-token rotation on 401.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload []byte) ([]byte, error) {
	refreshed := false

	var body []byte

	operation := func() error {
		status, respBody, err := c.roundTrip(ctx, method, path, query, payload)
		if err != nil {
			return err // transport, retryable
		}

		if status == http.StatusUnauthorized && !refreshed {
			refreshed = true
			if refreshErr := c.refresh(ctx, op); refreshErr != nil {
				return backoff.Permanent(refreshErr)
			}
			return fmt.Errorf("%s: retrying after token refresh", op)
		}

		if status >= 400 {
			classified := apierror.Classify(op, status, string(respBody))
			if apierror.RetryableStatus(status) {
				return classified
			}
			return backoff.Permanent(classified)
		}

		body = respBody
		return nil
	}

	if err := c.retry(ctx, op, operation); err != nil {
		return nil, c.finalize(op, err)
	}

	return body, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, payload []byte) (int, []byte, error) {
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
		return 0, nil, backoff.Permanent(err)
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}

	return resp.StatusCode, respBody, nil
}

// refresh rotates the access token using the stored refresh credential.
// Attempted exactly once per call; a failure is fatal requires-action.
func (c *Client) refresh(ctx context.Context, op string) error {
	c.logger.Info().Str("op", op).Msg("refreshing ledger access token")

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", c.refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/oauth/token", bytes.NewBufferString(form.Encode()))
	if err != nil {
		return apierror.FromTransport(op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apierror.FromTransport(op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierror.FromTransport(op, err)
	}

	if resp.StatusCode != http.StatusOK {
		return apierror.Classify(op, http.StatusUnauthorized, string(respBody))
	}

	var tokens tokenResponse
	if err := json.Unmarshal(respBody, &tokens); err != nil {
		return apierror.FromTransport(op, err)
	}

	c.accessToken = tokens.AccessToken
	c.refreshToken = tokens.RefreshToken

	if c.tokens != nil {
		if err := c.tokens.SaveLedgerTokens(ctx, c.userID, tokens.AccessToken, tokens.RefreshToken); err != nil {
			c.logger.Warn().Err(err).Msg("failed to persist rotated ledger tokens")
		}
	}

	return nil
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

		c.logger.Warn().Err(err).Str("op", op).Int("attempt", attempts).Msg("retrying ledger call")

		return err
	}, backoff.WithContext(b, ctx))
}

// finalize ensures everything leaving the client is classified.
func (c *Client) finalize(op string, err error) error {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return apierror.FromTransport(op, err)
}
