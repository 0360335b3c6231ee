package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// RelaySender posts submissions as JSON to a third-party form relay
// (Formspree, Getform and the like). Any 2xx response counts as delivered.
type RelaySender struct {
	Endpoint string
	Client   *http.Client
}

func NewRelaySender(endpoint string, timeout time.Duration) *RelaySender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RelaySender{Endpoint: endpoint, Client: &http.Client{Timeout: timeout}}
}

func (r *RelaySender) Send(ctx context.Context, f Fields) error {
	body, err := json.Marshal(f)
	if err != nil {
		return errors.Wrap(err, "encode submission")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build relay request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post to relay")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Errorf("relay responded %d", resp.StatusCode)
	}
	return nil
}
