package bookkeeping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/josh-kwaku/settlement-ledger/internal/logging"
	"github.com/josh-kwaku/settlement-ledger/internal/money"
)

// Client posts expense entries to the cashbook service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type allocationPayload struct {
	Bucket string `json:"bucket"`
	Amount string `json:"amount"`
}

type expensePayload struct {
	Date        string              `json:"date"`
	Reference   string              `json:"reference"`
	Description string              `json:"description"`
	Allocations []allocationPayload `json:"allocations"`
}

func (c *Client) PostExpense(ctx context.Context, entry Entry) error {
	log := logging.FromContext(ctx)

	payload := expensePayload{
		Date:        entry.Date.Format("2006-01-02"),
		Reference:   entry.Reference,
		Description: entry.Description,
		Allocations: make([]allocationPayload, 0, len(entry.Allocations)),
	}
	for _, a := range entry.Allocations {
		payload.Allocations = append(payload.Allocations, allocationPayload{
			Bucket: a.Bucket,
			Amount: money.String(a.Amount),
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("PostExpense: marshal: %w", err)
	}

	url := c.baseURL + "/expenses"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("PostExpense: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	log.Info("cashbook request sent", "reference", entry.Reference, "allocations", len(entry.Allocations))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("PostExpense: send: %w", err)
	}
	defer resp.Body.Close()

	log.Info("cashbook response received",
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("PostExpense: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
