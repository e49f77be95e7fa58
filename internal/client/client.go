// Package client fetches history envelopes over HTTP and keeps them fresh
// through a poller.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"finhistory/internal/models"

	"github.com/gofiber/fiber/v2"
)

// HistoryPath is the endpoint served by the history handler.
const HistoryPath = "/api/transaction"

// DefaultTimeout bounds a request when New is given no timeout.
const DefaultTimeout = 10 * time.Second

var ErrTransport = errors.New("history request failed")

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("failed to load transactions: %d - %s", e.Status, e.Body)
}

// HistoryKey is the request key for a user's history; it doubles as the
// path appended to the client's base URL.
func HistoryKey(userID int64) string {
	return HistoryPath + "?userId=" + strconv.FormatInt(userID, 10)
}

type Client struct {
	baseURL string
	timeout time.Duration
}

// New returns a client for baseURL. A timeout <= 0 means DefaultTimeout; the
// request keeps running until it expires even after Fetch's ctx is done.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

type response struct {
	status int
	body   []byte
	errs   []error
}

// Fetch requests baseURL+key and returns the normalized snapshot.
func (c *Client) Fetch(ctx context.Context, key string) (models.HistorySnapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.HistorySnapshot{}, err
	}

	done := make(chan response, 1)
	go func() {
		agent := fiber.Get(c.baseURL + key)
		agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
		agent.Timeout(c.timeout)
		status, body, errs := agent.Bytes()
		done <- response{status: status, body: body, errs: errs}
	}()

	var resp response
	select {
	case <-ctx.Done():
		return models.HistorySnapshot{}, ctx.Err()
	case resp = <-done:
	}

	if len(resp.errs) > 0 {
		return models.HistorySnapshot{}, fmt.Errorf("%w: %w", ErrTransport, errors.Join(resp.errs...))
	}
	if resp.status < fiber.StatusOK || resp.status >= fiber.StatusMultipleChoices {
		return models.HistorySnapshot{}, &StatusError{Status: resp.status, Body: string(resp.body)}
	}

	var raw models.HistorySnapshot
	if err := json.Unmarshal(resp.body, &raw); err != nil {
		return models.HistorySnapshot{}, fmt.Errorf("failed to decode history: %w", err)
	}
	return Normalize(raw), nil
}

// Normalize replaces missing arrays with empty ones.
func Normalize(raw models.HistorySnapshot) models.HistorySnapshot {
	if raw.DepositHistory == nil {
		raw.DepositHistory = []models.Transaction{}
	}
	if raw.WithdrawalHistory == nil {
		raw.WithdrawalHistory = []models.Transaction{}
	}
	if raw.InvestmentHistory == nil {
		raw.InvestmentHistory = []models.InvestmentRecord{}
	}
	return raw
}
