package utils

import (
	"github.com/go-resty/resty/v2"
)

// HTTPClient wraps resty.Client for talking to the sync server. Embedding
// *resty.Client exposes its request builder directly while leaving room for
// sync-specific behavior on top.
//
// Example usage:
//
//	client := utils.NewHTTPClient()
//	resp, err := client.R().Get("http://sync-server/api/version")
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient returns an HTTPClient over a fresh resty.Client. Every call
// produces an independent client with its own connection pool and state, so
// concurrent replica agents never share transport configuration.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{Client: resty.New()}
}
