package reverse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WriteBackClient records derived moods over HTTP, best effort.
type WriteBackClient struct {
	baseURL string
	http    *http.Client
}

func NewWriteBackClient(baseURL string) *WriteBackClient {
	return &WriteBackClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *WriteBackClient) RecordMood(ctx context.Context, demozone string, bookingID int64, mood int) error {
	body, err := json.Marshal(map[string]int{"mood": mood})
	if err != nil {
		return fmt.Errorf("encoding mood payload: %w", err)
	}

	url := fmt.Sprintf("%s/demozone/%s/booking/%d/mood", c.baseURL, demozone, bookingID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building write-back request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("posting mood: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mood write-back rejected: status %d", resp.StatusCode)
	}
	return nil
}
