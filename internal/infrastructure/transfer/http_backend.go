// Package transfer is a thin JSON client for the external transfer
// executor (the ephemeral-wallet subsystem). The executor owns key
// management and the at-most-once guarantee per wallet.
package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"sweepDeskApp/internal/domain/model"
	"sweepDeskApp/internal/domain/repository"
)

type HTTPBackend struct {
	baseURL string
	client  *http.Client
}

func NewHTTPBackend(baseURL string, timeout time.Duration) *HTTPBackend {
	return &HTTPBackend{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Ensure HTTPBackend implements the TransferBackend interface
var _ repository.TransferBackend = (*HTTPBackend)(nil)

type transferRequest struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

type transferResponse struct {
	Signature string `json:"signature"`
	Error     string `json:"error,omitempty"`
}

// Transfer submits one transfer to the executor and returns the transaction
// signature. Connectivity failures surface as model.ErrUnavailable; a
// rejected transfer comes back as a plain error with the executor's reason.
func (b *HTTPBackend) Transfer(ctx context.Context, from, to string, amount float64) (string, error) {
	payload, err := json.Marshal(transferRequest{From: from, To: to, Amount: amount})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/transfers", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", model.ErrUnavailable, resp.StatusCode, body)
	}

	var out transferResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode transfer response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || out.Error != "" {
		return "", fmt.Errorf("transfer rejected: %s", out.Error)
	}
	return out.Signature, nil
}
