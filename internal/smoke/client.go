package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// client wraps http.Client with the caller identity header.
type client struct {
	http   *http.Client
	base   string
	caller string
}

func newClient(base, caller string, timeout time.Duration) *client {
	return &client{
		http:   &http.Client{Timeout: timeout},
		base:   base,
		caller: caller,
	}
}

// postTransition submits one Out or Back transition and decodes the result.
func (c *client) postTransition(ctx context.Context, t transition) (transitionResult, int, error) {
	var res transitionResult

	body, err := json.Marshal(t)
	if err != nil {
		return res, 0, fmt.Errorf("failed to marshal transition: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/transitions", bytes.NewBuffer(body))
	if err != nil {
		return res, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.caller != "" {
		req.Header.Set("X-Caller", c.caller)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return res, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return res, resp.StatusCode, err
	}
	if resp.StatusCode != http.StatusOK {
		return res, resp.StatusCode, fmt.Errorf("transition rejected: status %d: %s", resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return res, resp.StatusCode, fmt.Errorf("failed to decode transition result: %w", err)
	}
	return res, resp.StatusCode, nil
}

// postMigrate triggers an archive migration.
func (c *client) postMigrate(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/migrate", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("migration rejected: status %d: %s", resp.StatusCode, raw)
	}

	var res migrateResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return 0, fmt.Errorf("failed to decode migration result: %w", err)
	}
	return res.Migrated, nil
}

// getEvents lists a partition's rows.
func (c *client) getEvents(ctx context.Context, partition string, limit int) (eventsResult, error) {
	var res eventsResult

	url := fmt.Sprintf("%s/events?partition=%s&limit=%d", c.base, partition, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return res, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return res, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return res, err
	}
	if resp.StatusCode != http.StatusOK {
		return res, fmt.Errorf("listing rejected: status %d: %s", resp.StatusCode, raw)
	}
	if err := json.Unmarshal(raw, &res); err != nil {
		return res, fmt.Errorf("failed to decode events: %w", err)
	}
	return res, nil
}

// waitHealthy polls /healthz until the service answers or the deadline passes.
func (c *client) waitHealthy(ctx context.Context, attempts int, delay time.Duration) error {
	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/healthz", nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("service at %s never became healthy", c.base)
}
