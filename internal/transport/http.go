// Package transport provides the concrete wire implementation of
// ring.Transport: request/response over HTTP with form-encoded bodies
// or query parameters and JSON responses, per the external interface
// table. It is the only package in this repository that issues
// outbound HTTP requests.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/common/log"

	"github.com/ringoverlay/ringchat/internal/types"
)

// HTTPTransport implements ring.Transport over plain net/http. It holds
// no protocol state of its own; every call is a single short-lived
// round trip to the target identity.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport builds a transport using a client with a bounded
// per-request timeout fallback on top of whatever deadline the caller's
// context already carries.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func baseURL(target types.Identity) string {
	return fmt.Sprintf("http://%s:%d", target.Host, target.Port)
}

func (t *HTTPTransport) do(req *http.Request) (*http.Response, error) {
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Join sends JOIN(self.host, self.port) to target via query parameters
// and decodes the JSON {host, port, success} response.
func (t *HTTPTransport) Join(ctx context.Context, target, self types.Identity) (types.JoinResponse, error) {
	u := fmt.Sprintf("%s/ring/join?ip=%s&port=%d&version=%s", baseURL(target), url.QueryEscape(self.Host), self.Port, url.QueryEscape(types.ProtocolVersion))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return types.JoinResponse{}, err
	}

	resp, err := t.do(req)
	if err != nil {
		return types.JoinResponse{}, err
	}
	defer resp.Body.Close()

	var out types.JoinResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Errorf("failed decoding join response from %s: %v", target, err)
		return types.JoinResponse{}, err
	}
	return out, nil
}

// Quit sends QUIT(departing, departingNext) to target as a form POST.
func (t *HTTPTransport) Quit(ctx context.Context, target, departing, departingNext types.Identity) error {
	form := url.Values{}
	form.Set("host", departing.Host)
	form.Set("port", strconv.Itoa(int(departing.Port)))
	form.Set("next_host", departingNext.Host)
	form.Set("next_port", strconv.Itoa(int(departingNext.Port)))
	return t.postForm(ctx, target, "/ring/quit", form)
}

// Election forwards an ELECTION(tokenID) token one hop.
func (t *HTTPTransport) Election(ctx context.Context, target types.Identity, tokenID uint64) error {
	form := url.Values{}
	form.Set("node_id", strconv.FormatUint(tokenID, 10))
	return t.postForm(ctx, target, "/ring/le/election", form)
}

// Elected forwards an ELECTED(tokenID) token one hop.
func (t *HTTPTransport) Elected(ctx context.Context, target types.Identity, tokenID uint64) error {
	form := url.Values{}
	form.Set("node_id", strconv.FormatUint(tokenID, 10))
	return t.postForm(ctx, target, "/ring/le/elected", form)
}

// MessagePost is the phase 1 uplink hop.
func (t *HTTPTransport) MessagePost(ctx context.Context, target types.Identity, text string, sender uint64) error {
	return t.messageRequest(ctx, http.MethodPost, target, text, sender)
}

// MessagePut is the phase 2 broadcast hop.
func (t *HTTPTransport) MessagePut(ctx context.Context, target types.Identity, text string, sender uint64) error {
	return t.messageRequest(ctx, http.MethodPut, target, text, sender)
}

func (t *HTTPTransport) messageRequest(ctx context.Context, method string, target types.Identity, text string, sender uint64) error {
	form := url.Values{}
	form.Set("message", text)
	form.Set("sender", strconv.FormatUint(sender, 10))

	req, err := http.NewRequestWithContext(ctx, method, baseURL(target)+"/ring/message", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// Heartbeat emits a liveness beat with no body.
func (t *HTTPTransport) Heartbeat(ctx context.Context, target types.Identity) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL(target)+"/heartbeat", nil)
	if err != nil {
		return err
	}
	resp, err := t.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// Panic forwards the orphan announcement one hop.
func (t *HTTPTransport) Panic(ctx context.Context, target types.Identity, orphan types.Identity) error {
	form := url.Values{}
	form.Set("host", orphan.Host)
	form.Set("port", strconv.Itoa(int(orphan.Port)))
	return t.postForm(ctx, target, "/panic", form)
}

// Serialize fetches the target's current GET /serialize snapshot, used
// by the ring-walking GET /serialize/all handler.
func (t *HTTPTransport) Serialize(ctx context.Context, target types.Identity) (types.SerializeResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL(target)+"/serialize", nil)
	if err != nil {
		return types.SerializeResponse{}, err
	}
	resp, err := t.do(req)
	if err != nil {
		return types.SerializeResponse{}, err
	}
	defer resp.Body.Close()

	var out types.SerializeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		log.Errorf("failed decoding serialize response from %s: %v", target, err)
		return types.SerializeResponse{}, err
	}
	return out, nil
}

func (t *HTTPTransport) postForm(ctx context.Context, target types.Identity, path string, form url.Values) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL(target)+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}
