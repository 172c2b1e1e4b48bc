package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"EPESPO-inventario/internal/platform/session"
)

// IdempotencyHeader is sent with saga steps so a retried POST is not
// recorded twice.
const IdempotencyHeader = "Idempotency-Key"

const maxErrorBody = 64 << 10

// Client talks JSON to the upstream inventory REST API. Each request uses
// the session found in its context, or the client's own session when the
// context carries none (CLI use). The gateway builds it with a nil session.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Session
	log     logrus.FieldLogger
}

func New(baseURL string, timeout time.Duration, sess *session.Session, log logrus.FieldLogger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		session: sess,
		log:     log,
	}
}

type request struct {
	method string
	path   string
	body   any
	header http.Header

	// raw bodies bypass JSON encoding (multipart uploads)
	raw         io.Reader
	contentType string
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, request{method: http.MethodGet, path: path}, out)
}

func (c *Client) send(ctx context.Context, method, path string, body, out any) error {
	return c.do(ctx, request{method: method, path: path, body: body}, out)
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	var body io.Reader
	contentType := r.contentType
	switch {
	case r.raw != nil:
		body = r.raw
	case r.body != nil:
		buf, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", r.method, r.path, err)
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	sess := c.sessionFor(ctx)
	token := ""
	if sess != nil {
		token = sess.Token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{"method": r.method, "path": r.path}).Warn("backend unreachable")
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	c.log.WithFields(logrus.Fields{
		"method":   r.method,
		"path":     r.path,
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	}).Debug("backend call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		buf, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		re := decodeRemoteError(resp.StatusCode, buf)
		c.checkExpiry(sess, token, r.path, re)
		return re
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", r.method, r.path, err)
	}
	return nil
}

// checkExpiry ends the session when the backend says the token is no longer
// good. Login failures never count.
func (c *Client) checkExpiry(sess *session.Session, token, path string, re *RemoteError) {
	if token == "" || strings.Contains(path, "/login") {
		return
	}
	if re.Status == http.StatusUnauthorized || re.Status == 419 ||
		re.Message == "Token has expired" || re.Message == "Unauthenticated." {
		if sess.Expire() {
			c.log.WithField("status", re.Status).Warn(session.ExpiredMessage)
		}
	}
}

func (c *Client) sessionFor(ctx context.Context) *session.Session {
	if s, ok := session.FromContext(ctx); ok {
		return s
	}
	return c.session
}

// list decodes either a bare JSON array or a {"data": [...]} envelope.
type list[T any] []T

func (l *list[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var env struct {
			Data []T `json:"data"`
		}
		if err := json.Unmarshal(b, &env); err != nil {
			return err
		}
		*l = env.Data
		return nil
	}
	var items []T
	if err := json.Unmarshal(b, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

func getList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var out list[T]
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return []T{}, nil
	}
	return out, nil
}
