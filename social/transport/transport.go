// Package transport issues the authenticated HTTP requests adapters need,
// and owns the process-wide connection budget. Adapters describe a call as
// a Request value; a Sender executes it and hands back a ReadResult with
// the raw body and lazily-parsed JSON. The mock Sender in this package is
// a first-class collaborator, not just a test aid: rate-limit-aware
// schedulers substitute it to observe traffic.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Reserved form field names for media uploads. A form carrying
// MediaPartURIKey is sent as multipart, with the named part read from
// the URI and the remaining fields as ordinary parts.
const (
	MediaPartNameKey = "media_part_name"
	MediaPartURIKey  = "media_part_uri"
)

const maxResponseBytes = 2 << 20

// One bounded client shared by every transport in the process. Keeping
// the totals small avoids tripping host-side throttling; retries and
// backoff belong to the external scheduler, so there are none here.
var sharedClient = &http.Client{
	Timeout: 30 * time.Second,
	Transport: &http.Transport{
		MaxIdleConns:        16,
		MaxConnsPerHost:     4,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	},
}

// Request describes one API call. Exactly one of JSON or Form should be
// set for a POST; a GET sets neither.
type Request struct {
	Method      string
	URL         string
	JSON        any        // marshaled as the request body when set
	Form        url.Values // form-encoded (or multipart, see media keys)
	ContentType string     // content type for JSON bodies, default application/json
	Accept      string
}

// Sender executes requests. HTTPTransport is the real one; MockTransport
// is the canned one.
type Sender interface {
	Execute(ctx context.Context, req *Request) (*ReadResult, error)
}

// HTTPTransport speaks to one host with one auth strategy.
type HTTPTransport struct {
	Host      string
	UserAgent string
	Auth      Authorizer

	client *http.Client
}

func New(host string, auth Authorizer) *HTTPTransport {
	if auth == nil {
		auth = Anonymous{}
	}
	t := &HTTPTransport{
		Host:      host,
		UserAgent: "fedsync",
		Auth:      auth,
		client:    sharedClient,
	}
	if p, ok := auth.(clientProvider); ok {
		t.client = p.httpClient(sharedClient)
	}
	return t
}

func (t *HTTPTransport) Execute(ctx context.Context, req *Request) (*ReadResult, error) {
	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	r, err := http.NewRequestWithContext(ctx, method, req.URL, reader)
	if err != nil {
		return nil, err
	}
	r.Header.Set("User-Agent", t.UserAgent)
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	if req.Accept != "" {
		r.Header.Set("Accept", req.Accept)
	}
	if err := t.Auth.Apply(r, body); err != nil {
		return nil, err
	}

	resp, err := t.client.Do(r)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", req.URL, err)
	}
	return &ReadResult{
		URL:        req.URL,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       respBody,
	}, nil
}

func encodeBody(req *Request) (body []byte, contentType string, err error) {
	switch {
	case req.JSON != nil:
		body, err = json.Marshal(req.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("marshaling request body: %w", err)
		}
		contentType = req.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
	case req.Form != nil && req.Form.Get(MediaPartURIKey) != "":
		return encodeMultipart(req.Form)
	case req.Form != nil:
		body = []byte(req.Form.Encode())
		contentType = "application/x-www-form-urlencoded"
	}
	return body, contentType, nil
}

// encodeMultipart builds a multipart body with the media part streamed
// from its URI and the remaining form fields as plain parts.
func encodeMultipart(form url.Values) ([]byte, string, error) {
	partName := form.Get(MediaPartNameKey)
	if partName == "" {
		partName = "media"
	}
	uri := form.Get(MediaPartURIKey)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for key, values := range form {
		if key == MediaPartNameKey || key == MediaPartURIKey {
			continue
		}
		for _, v := range values {
			if err := w.WriteField(key, v); err != nil {
				return nil, "", err
			}
		}
	}

	f, err := os.Open(strings.TrimPrefix(uri, "file://"))
	if err != nil {
		return nil, "", fmt.Errorf("opening media %s: %w", uri, err)
	}
	defer f.Close()
	part, err := w.CreateFormFile(partName, f.Name())
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
