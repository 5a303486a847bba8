package render

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gatefeed/gatefeed/internal/logger"
)

// RemoteClient renders targets through a remote fetch-and-render service.
// The service performs the browser navigation and challenge wait on its side
// and answers a GET with `url` and `selector` query parameters by returning
// rendered snapshots as {"data": ["<html>...", ...]}; the first snapshot is
// the result.
//
// Remote failures are deliberately soft: transport errors, timeouts, bad
// status codes and empty snapshot arrays all yield the empty-markup sentinel
// rather than an error, so one flaky detail fetch never aborts a whole run.
type RemoteClient struct {
	baseURL    string
	httpClient *http.Client
}

// DefaultRemoteTimeout is the hard deadline for one remote render call.
const DefaultRemoteTimeout = 60 * time.Second

// NewRemoteClient creates a client for the rendering service at baseURL.
func NewRemoteClient(baseURL string) *RemoteClient {
	return &RemoteClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultRemoteTimeout,
		},
	}
}

type remoteResponse struct {
	Data []string `json:"data"`
}

// Render asks the remote service to render the target. An empty string with
// a nil error means the service had nothing usable.
func (r *RemoteClient) Render(ctx context.Context, target Target, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultRemoteTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	reqURL, err := url.Parse(r.baseURL)
	if err != nil {
		return "", err
	}
	q := reqURL.Query()
	q.Set("url", target.URL)
	q.Set("selector", target.ReadySelector)
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return "", err
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		logger.Warn("remote render request failed", "url", target.URL, "error", err)
		return "", nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn("remote render bad status", "url", target.URL, "status", resp.StatusCode)
		return "", nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.Warn("remote render body read failed", "url", target.URL, "error", err)
		return "", nil
	}

	var parsed remoteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		logger.Warn("remote render invalid response", "url", target.URL, "error", err)
		return "", nil
	}

	if len(parsed.Data) == 0 {
		logger.Debug("remote render returned no snapshots", "url", target.URL)
		return "", nil
	}

	logger.Debug("remote render complete",
		"url", target.URL,
		"snapshots", len(parsed.Data),
		"html_size", len(parsed.Data[0]))
	return parsed.Data[0], nil
}

// Close is a no-op; the client holds no persistent resources.
func (r *RemoteClient) Close() error {
	return nil
}

// Type returns the renderer type.
func (r *RemoteClient) Type() string {
	return "remote"
}
