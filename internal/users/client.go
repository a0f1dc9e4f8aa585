package users

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultURL is the public placeholder endpoint the app was built against.
const DefaultURL = "https://jsonplaceholder.typicode.com/users"

// maxBody caps how much of a response is read.
const maxBody = 8 << 20

var utf8BOM = []byte("\xef\xbb\xbf")

// Client fetches the user list over HTTP.
type Client struct {
	url  string
	http *http.Client
}

// NewClient builds a client for url. A zero timeout leaves requests bounded
// only by their context.
func NewClient(url string, timeout time.Duration) *Client {
	if strings.TrimSpace(url) == "" {
		url = DefaultURL
	}
	return &Client{url: strings.TrimSpace(url), http: &http.Client{Timeout: timeout}}
}

// WithHTTPClient swaps the underlying http.Client (tests, custom transports).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// URL returns the endpoint the client talks to.
func (c *Client) URL() string { return c.url }

// FetchUsers issues one GET against the endpoint and decodes the body.
func (c *Client) FetchUsers(ctx context.Context) ([]User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &TransportError{Op: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ErrCanceled
		}
		return nil, &TransportError{Op: "fetch", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, &RequestError{StatusCode: resp.StatusCode, StatusText: statusText(resp)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ErrCanceled
		}
		return nil, &TransportError{Op: "read body", Err: err}
	}
	if len(body) > maxBody {
		return nil, &TransportError{Op: "read body", Err: fmt.Errorf("body exceeds %d bytes", maxBody)}
	}
	return Decode(body)
}

// Decode parses a users response body. Anything that is not a JSON array is
// rejected; elements are read leniently. A leading byte order mark is ignored.
func Decode(body []byte) ([]User, error) {
	body = bytes.TrimPrefix(body, utf8BOM)
	if !gjson.ValidBytes(body) {
		return nil, &TransportError{Op: "parse body", Err: fmt.Errorf("invalid JSON (%d bytes)", len(body))}
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		return nil, &FormatError{Kind: jsonKind(root)}
	}
	out := make([]User, 0, len(root.Array()))
	root.ForEach(func(_, item gjson.Result) bool {
		out = append(out, decodeUser(item))
		return true
	})
	return out, nil
}

func decodeUser(item gjson.Result) User {
	if !item.IsObject() {
		return User{}
	}
	u := User{
		Name:     text(item.Get("name")),
		Username: text(item.Get("username")),
		Email:    text(item.Get("email")),
	}
	if c := item.Get("company"); c.IsObject() {
		u.Company = &Company{Name: text(c.Get("name"))}
	}
	if a := item.Get("address"); a.IsObject() {
		u.Address = &Address{City: text(a.Get("city"))}
	}
	return u
}

// text renders scalars as their JSON text and nulls as empty.
func text(r gjson.Result) string {
	switch r.Type {
	case gjson.Null:
		return ""
	case gjson.String:
		return r.Str
	default:
		return r.Raw
	}
}

func jsonKind(r gjson.Result) string {
	switch {
	case r.IsObject():
		return "object"
	case r.Type == gjson.String:
		return "string"
	case r.Type == gjson.Number:
		return "number"
	case r.Type == gjson.True, r.Type == gjson.False:
		return "boolean"
	default:
		return "null"
	}
}

func statusText(resp *http.Response) string {
	// resp.Status is "500 Internal Server Error"; keep whatever the server sent.
	if _, after, ok := strings.Cut(resp.Status, " "); ok && after != "" {
		return after
	}
	return http.StatusText(resp.StatusCode)
}
