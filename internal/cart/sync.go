package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

// SyncItem is the minimal projection of a line item submitted to the remote
// cart endpoint.
type SyncItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type syncRequest struct {
	Items []SyncItem `json:"items"`
}

// SyncResponse is the remote endpoint's success/failure envelope.
type SyncResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// SyncerConfig configures the remote endpoint and the circuit breaker around it.
type SyncerConfig struct {
	Endpoint            string
	Timeout             time.Duration
	ConsecutiveFailures uint32
	BreakerTimeout      time.Duration
}

// Syncer pushes cart projections to the remote endpoint. Every failure mode
// (transport error, non-2xx status, parse failure, open breaker) comes back
// as a *SyncError; nothing is raised to the caller.
type Syncer struct {
	endpoint string
	client   *http.Client
	cb       *gobreaker.CircuitBreaker[*SyncResponse]
}

// NewSyncer creates a Syncer with a circuit breaker that trips after the
// configured number of consecutive failures.
func NewSyncer(cfg SyncerConfig) *Syncer {
	st := gobreaker.Settings{
		Name:    "cart-sync",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
	}
	return &Syncer{
		endpoint: cfg.Endpoint,
		client:   &http.Client{Timeout: cfg.Timeout},
		cb:       gobreaker.NewCircuitBreaker[*SyncResponse](st),
	}
}

// Push submits the item projection. There is no retry and no idempotency key;
// an error simply means the caller may try again later.
func (s *Syncer) Push(ctx context.Context, items []SyncItem) (*SyncResponse, error) {
	resp, err := s.cb.Execute(func() (*SyncResponse, error) {
		return s.push(ctx, items)
	})
	if err != nil {
		return nil, &SyncError{Cause: err}
	}
	return resp, nil
}

func (s *Syncer) push(ctx context.Context, items []SyncItem) (*SyncResponse, error) {
	if items == nil {
		items = []SyncItem{}
	}
	body, err := json.Marshal(syncRequest{Items: items})
	if err != nil {
		return nil, fmt.Errorf("marshal sync request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build sync request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post cart sync: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, fmt.Errorf("cart sync endpoint returned status %d", httpResp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read sync response: %w", err)
	}
	var envelope SyncResponse
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("decode sync response: %w", err)
	}
	return &envelope, nil
}
