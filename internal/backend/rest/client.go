// Package rest implements backend.Client over the safeguard HTTP API.
package rest

import (
	"context"
	"net/http"
	"sync"
	"time"

	"safeguard-go/internal/backend"
	"safeguard-go/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

type Client struct {
	baseURL    string
	httpClient *resty.Client
	store      TokenStore
	logger     *zap.Logger

	mu        sync.RWMutex
	session   *backend.Session
	listeners map[int]func(backend.SessionChange)
	nextID    int
}

var _ backend.Client = (*Client)(nil)

type errorBody struct {
	Message string `json:"message"`
}

// New builds a client and restores any session saved in store.
func New(baseURL string, store TokenStore, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	session, err := store.Load()
	if err != nil {
		logger.Warn("stored session unreadable, starting signed out", zap.Error(err))
		session = nil
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		store:      store,
		logger:     logger,
		session:    session,
		listeners:  map[int]func(backend.SessionChange){},
	}, nil
}

func (c *Client) currentSession() *backend.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	cp := *c.session
	return &cp
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.httpClient.R().
		SetContext(ctx).
		SetError(&errorBody{})
	if session := c.currentSession(); session != nil {
		req.SetAuthToken(session.AccessToken)
	}
	return req
}

// send executes req and converts transport failures and non-2xx answers
// into errors. result may be nil.
func (c *Client) send(req *resty.Request, method, path string, result interface{}) error {
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Debug("backend call failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return err
	}
	if resp.IsError() {
		status := &backend.StatusError{Status: resp.StatusCode()}
		if body, ok := resp.Error().(*errorBody); ok && body != nil {
			status.Message = body.Message
		}
		c.logger.Debug("backend call rejected",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status.Status),
			zap.String("message", status.Message))
		return status
	}
	return nil
}

func (c *Client) call(ctx context.Context, method, path string, body, result interface{}) error {
	req := c.request(ctx)
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	return c.send(req, method, path, result)
}

// OnSessionChange registers fn for session changes made by this client and,
// while WatchSessionEvents runs, by other clients of the same user.
func (c *Client) OnSessionChange(fn func(backend.SessionChange)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Client) notify(event models.SessionEventType) {
	c.mu.RLock()
	fns := make([]func(backend.SessionChange), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	var session *backend.Session
	if c.session != nil {
		cp := *c.session
		session = &cp
	}
	c.mu.RUnlock()
	for _, fn := range fns {
		fn(backend.SessionChange{Event: event, Session: session})
	}
}

func (c *Client) setSession(session *backend.Session) {
	c.mu.Lock()
	c.session = session
	c.mu.Unlock()
	var err error
	if session == nil {
		err = c.store.Clear()
	} else {
		err = c.store.Save(session)
	}
	if err != nil {
		c.logger.Warn("session not persisted", zap.Error(err))
	}
}

func isUnauthorized(err error) bool {
	status, ok := err.(*backend.StatusError)
	return ok && status.Status == http.StatusUnauthorized
}
