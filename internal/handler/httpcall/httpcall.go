// Package httpcall implements the HTTP handler (SPEC_FULL.md §4.G): a tool
// backed by a single outbound HTTP exchange per invocation, with
// manifest-declared headers/auth and a per-call query/body. Grounded on
// original_source/.../pforge-runtime/src/handlers/http.rs (reqwest-based
// Bearer/Basic/ApiKey auth rendering), translated onto net/http in the style
// of runtime/mcp/caller.go's transport-agnostic Caller interface.
package httpcall

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/paiml/forge-go/internal/config"
	"github.com/paiml/forge-go/internal/forgerr"
)

// Handler performs one HTTP request per invocation against a fixed
// endpoint/method/headers/auth, all declared on the manifest tool.
type Handler struct {
	Endpoint string
	Method   config.HTTPMethod
	Headers  map[string]string
	Auth     *config.Auth

	// Client defaults to http.DefaultClient when nil.
	Client *http.Client
}

// Input is the per-call payload: an optional JSON body and query
// parameters appended to Endpoint.
type Input struct {
	Body  json.RawMessage   `json:"body,omitempty"`
	Query map[string]string `json:"query,omitempty"`
}

// Output mirrors the upstream response: status code, parsed JSON body (or an
// empty object if the body isn't valid JSON), and response headers.
type Output struct {
	Status  int               `json:"status"`
	Body    json.RawMessage   `json:"body"`
	Headers map[string]string `json:"headers"`
}

// Handle implements handler.Handler[Input, Output]. Only transport-level
// failures (DNS, connection refused, context deadline) surface as
// forgerr.KindUpstreamHTTPFailure; a non-2xx status is returned as ordinary
// data in Output.
func (h Handler) Handle(ctx context.Context, in Input) (Output, error) {
	endpoint := h.Endpoint
	if len(in.Query) > 0 {
		u, err := url.Parse(endpoint)
		if err != nil {
			return Output{}, forgerr.Wrap(forgerr.KindUpstreamHTTPFailure, "invalid endpoint", err)
		}
		q := u.Query()
		for k, v := range in.Query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
		endpoint = u.String()
	}

	var body io.Reader
	if len(in.Body) > 0 {
		body = bytes.NewReader(in.Body)
	}

	req, err := http.NewRequestWithContext(ctx, string(h.Method), endpoint, body)
	if err != nil {
		return Output{}, forgerr.Wrap(forgerr.KindUpstreamHTTPFailure, "build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range h.Headers {
		req.Header.Set(k, v)
	}
	applyAuth(req, h.Auth)

	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return Output{}, forgerr.Wrap(forgerr.KindUpstreamHTTPFailure, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Output{}, forgerr.Wrap(forgerr.KindUpstreamHTTPFailure, "read response body", err)
	}

	respBody := json.RawMessage(raw)
	if !json.Valid(raw) || len(raw) == 0 {
		respBody = json.RawMessage(`{}`)
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	return Output{Status: resp.StatusCode, Body: respBody, Headers: headers}, nil
}

func applyAuth(req *http.Request, auth *config.Auth) {
	if auth == nil {
		return
	}
	switch auth.Type {
	case config.AuthBearer:
		req.Header.Set("Authorization", "Bearer "+auth.Token)
	case config.AuthBasic:
		creds := base64.StdEncoding.EncodeToString([]byte(auth.Username + ":" + auth.Password))
		req.Header.Set("Authorization", "Basic "+creds)
	case config.AuthAPIKey:
		req.Header.Set(auth.Header, auth.Key)
	}
}
