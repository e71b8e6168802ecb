package bootstrap

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3/log"
	"golang.org/x/sync/singleflight"

	"github.com/lborres/coupons/core"
	"github.com/lborres/coupons/services"
)

// Client pairs a client's session with the controller driven by it.
type Client struct {
	Session    *services.ClientSession
	Controller *Controller
}

func (c *Client) Close() {
	c.Controller.Close()
	c.Session.Close()
}

type RegistryConfig struct {
	// TTL bounds how long an idle client is kept; an evicted client is
	// rebuilt from its token on the next request.
	TTL     time.Duration
	MaxSize int
}

// Registry keeps one Client per session token for the server process.
type Registry struct {
	auth    *services.AuthService
	loader  *ProfileLoader
	clients *core.MemoryCache[*Client]
	group   singleflight.Group
}

func NewRegistry(auth *services.AuthService, loader *ProfileLoader, cfg RegistryConfig) *Registry {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Minute
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 10000
	}
	clients := core.NewMemoryCache[*Client](core.CacheConfig{TTL: cfg.TTL, MaxSize: cfg.MaxSize})
	clients.OnEvict(func(_ string, c *Client) {
		go c.Close()
	})
	return &Registry{auth: auth, loader: loader, clients: clients}
}

// NewClient builds a signed-out client that is not registered yet. Sign-in
// and sign-up start from one and Adopt it on success.
func (r *Registry) NewClient(ipAddress, userAgent string) *Client {
	return r.newClient("", ipAddress, userAgent)
}

func (r *Registry) newClient(token, ipAddress, userAgent string) *Client {
	session := services.NewClientSession(r.auth, token, ipAddress, userAgent)
	return &Client{Session: session, Controller: NewController(session, r.loader)}
}

// Resolve returns the client for token, building and initializing it on
// first use. Concurrent first requests share one client. A kept client is
// only handed out while its session is still live; once the session expired
// or was revoked elsewhere the client is dropped and rebuilt, which leaves
// it signed out.
func (r *Registry) Resolve(ctx context.Context, token, ipAddress, userAgent string) (*Client, error) {
	if token == "" {
		return nil, core.ErrMissingAuthHeader
	}
	if c, err := r.clients.Get(token); err == nil {
		if c.Controller.Closed() {
			r.drop(token, c)
		} else if _, err := r.auth.VerifySession(ctx, token); err != nil {
			log.Debugw("dropping client of a dead session", "error", err)
			r.drop(token, c)
		} else {
			return c, nil
		}
	}

	v, err, _ := r.group.Do(token, func() (any, error) {
		if c, err := r.clients.Get(token); err == nil && !c.Controller.Closed() {
			return c, nil
		}
		c := r.newClient(token, ipAddress, userAgent)
		c.Controller.Initialize(ctx)
		if !c.Controller.State().Authenticated() {
			// unknown tokens are not kept
			c.Close()
			return c, nil
		}
		_ = r.clients.Set(token, c)
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Client), nil
}

// Adopt registers c under the token it now holds.
func (r *Registry) Adopt(c *Client) {
	if token := c.Session.Token(); token != "" {
		_ = r.clients.Set(token, c)
	}
}

// Rekey moves c from a rotated token to its current one.
func (r *Registry) Rekey(oldToken string, c *Client) {
	_ = r.clients.Delete(oldToken)
	r.Adopt(c)
}

// Forget drops and closes the client registered under token.
func (r *Registry) Forget(token string) {
	c, err := r.clients.Get(token)
	if err != nil {
		return
	}
	_ = r.clients.Delete(token)
	c.Close()
}

// drop closes c and unregisters it unless token already names another client.
func (r *Registry) drop(token string, c *Client) {
	if cur, err := r.clients.Get(token); err == nil && cur == c {
		_ = r.clients.Delete(token)
	}
	c.Close()
}

func (r *Registry) Len() int {
	return r.clients.Len()
}

// Sweep closes clients idle past the TTL.
func (r *Registry) Sweep() int {
	return r.clients.Sweep()
}
