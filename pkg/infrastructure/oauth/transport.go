package oauth

import (
	"fmt"
	"net/http"
)

// Transport is an http.RoundTripper that authenticates all requests
// using the provided TokenSource. The proactive expiry check happens
// inside TokenSource.Token; failed requests are never retried here.
type Transport struct {
	// Source supplies the token to be used.
	Source TokenSource

	// Base is the base RoundTripper used to make the actual HTTP requests.
	// If nil, http.DefaultTransport is used.
	Base http.RoundTripper
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	token, err := t.Source.Token(req.Context())
	if err != nil {
		return nil, fmt.Errorf("oauth: cannot get token: %w", err)
	}

	req2 := cloneRequest(req)
	req2.Header.Set("Authorization", "Bearer "+token.AccessToken)

	return base.RoundTrip(req2)
}

// cloneRequest returns a clone of the provided *http.Request.
// The clone is a shallow copy of the struct and its Header map.
func cloneRequest(r *http.Request) *http.Request {
	r2 := new(http.Request)
	*r2 = *r
	r2.Header = make(http.Header, len(r.Header))
	for k, s := range r.Header {
		r2.Header[k] = append([]string(nil), s...)
	}
	return r2
}

// NewHTTPClient returns an http.Client whose requests carry a bearer token
// from source.
func NewHTTPClient(source TokenSource) *http.Client {
	return &http.Client{Transport: &Transport{Source: source}}
}
