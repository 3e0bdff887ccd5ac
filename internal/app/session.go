package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/lu-zhengda/mailboard/internal/domain"
	"github.com/lu-zhengda/mailboard/internal/provider"
)

// Defaults for the offline demo identity.
const (
	DefaultDisplayName = "Sarah Johnson"
	DefaultAvatar      = "https://images.unsplash.com/photo-1494790108755-2616b332ad5c?w=64&h=64&fit=crop&crop=face"
	DefaultMockDelay   = 800 * time.Millisecond

	MockUserID      = "user-123"
	MockTokenPrefix = "mock-jwt-token-"
	RoleUser        = "user"

	demoUnreadMessages      = 5
	demoUnreadNotifications = 2
)

// IsDemoSession reports whether s is the offline demo identity.
func IsDemoSession(s *domain.Session) bool {
	return s != nil && strings.HasPrefix(s.Token, MockTokenPrefix)
}

// SessionState is where the controller is in the sign-in lifecycle.
type SessionState int

const (
	StateAnonymous SessionState = iota
	StateAuthenticating
	StateAuthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

// SessionStore persists a session across restarts.
type SessionStore interface {
	Load(ctx context.Context) (*domain.Session, error)
	Save(ctx context.Context, sess *domain.Session) error
	Clear(ctx context.Context) error
}

// SessionOptions configures the demo identity used when the remote service
// cannot sign the user in.
type SessionOptions struct {
	DisplayName string
	Avatar      string
	MockDelay   time.Duration
}

func (o SessionOptions) withDefaults() SessionOptions {
	if o.DisplayName == "" {
		o.DisplayName = DefaultDisplayName
	}
	if o.Avatar == "" {
		o.Avatar = DefaultAvatar
	}
	if o.MockDelay < 0 {
		o.MockDelay = 0
	}
	return o
}

// SessionController owns the signed-in identity. It implements
// provider.Credentials so the remote gateway can read the token and report
// rejected sessions.
type SessionController struct {
	mu      sync.Mutex
	store   SessionStore
	auth    provider.Authenticator
	opts    SessionOptions
	state   SessionState
	session *domain.Session
	hooks   map[int]func()
	nextID  int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewSessionController creates a controller in the Anonymous state. auth may
// be set later with SetAuthenticator when the gateway needs the controller
// as its credentials.
func NewSessionController(store SessionStore, auth provider.Authenticator, opts SessionOptions) *SessionController {
	return &SessionController{
		store: store,
		auth:  auth,
		opts:  opts.withDefaults(),
		now:   time.Now,
		sleep: sleepContext,
	}
}

// SetAuthenticator replaces the remote authenticator.
func (c *SessionController) SetAuthenticator(auth provider.Authenticator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = auth
}

// OnExpire registers fn to run after the remote service rejects the session.
// The returned func removes the registration.
func (c *SessionController) OnExpire(fn func()) (unregister func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hooks == nil {
		c.hooks = make(map[int]func())
	}
	id := c.nextID
	c.nextID++
	c.hooks[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.hooks, id)
	}
}

// Restore loads a previously saved session.
func (c *SessionController) Restore(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}
	if sess.Authenticated() {
		c.session = sess
		c.state = StateAuthenticated
		log.Printf("[session] restored session for %s", sess.User.Email)
	} else {
		c.session = nil
		c.state = StateAnonymous
	}
	return nil
}

// Login signs the user in. It registers the address first (best effort) and
// then logs in remotely. If the remote service cannot produce a session an
// offline demo identity is created for the submitted address instead. Login
// only fails if that cannot complete: ctx is cancelled or the session cannot
// be saved. A failed Login leaves any earlier session in place.
func (c *SessionController) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	c.mu.Lock()
	prev := c.session
	c.state = StateAuthenticating
	auth := c.auth
	c.mu.Unlock()

	if sess := c.remoteLogin(ctx, auth, email, password); sess != nil {
		err := c.commit(ctx, sess)
		if err == nil {
			log.Printf("[session] signed in %s against the remote service", email)
			return sess, nil
		}
		log.Printf("[session] failed to save remote session: %v", err)
	}

	if err := c.sleep(ctx, c.opts.MockDelay); err != nil {
		c.rollback(prev)
		return nil, fmt.Errorf("failed to log in: %w", err)
	}

	sess := &domain.Session{
		Token: fmt.Sprintf("%s%d", MockTokenPrefix, c.now().UnixMilli()),
		User: &domain.User{
			ID:                  MockUserID,
			Name:                c.opts.DisplayName,
			Email:               email,
			Role:                RoleUser,
			Avatar:              c.opts.Avatar,
			UnreadMessages:      demoUnreadMessages,
			UnreadNotifications: demoUnreadNotifications,
		},
	}
	if err := c.commit(ctx, sess); err != nil {
		c.rollback(prev)
		return nil, fmt.Errorf("failed to log in: %w", err)
	}
	log.Printf("[session] remote sign-in unavailable; using offline demo identity for %s", email)
	return sess, nil
}

func (c *SessionController) remoteLogin(ctx context.Context, auth provider.Authenticator, email, password string) *domain.Session {
	if auth == nil {
		return nil
	}
	err := auth.Register(ctx, provider.RegisterRequest{
		Email:    email,
		Password: password,
		Name:     c.opts.DisplayName,
		Role:     RoleUser,
	})
	if err != nil {
		log.Printf("[session] registration skipped (account may already exist): %v", err)
	}

	sess, err := auth.Login(ctx, email, password)
	if err != nil {
		log.Printf("[session] remote login failed: %v", err)
		return nil
	}
	if !sess.Authenticated() {
		log.Printf("[session] remote login returned an incomplete session")
		return nil
	}

	user := *sess.User
	if user.Avatar == "" {
		user.Avatar = c.opts.Avatar
	}
	user.UnreadMessages = demoUnreadMessages
	user.UnreadNotifications = demoUnreadNotifications
	return &domain.Session{Token: sess.Token, User: &user}
}

func (c *SessionController) commit(ctx context.Context, sess *domain.Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.store.Save(ctx, sess); err != nil {
		return err
	}
	c.session = sess
	c.state = StateAuthenticated
	return nil
}

// rollback reinstates prev, which is still what the store holds because
// nothing was saved since it was committed.
func (c *SessionController) rollback(prev *domain.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = prev
	if prev.Authenticated() {
		c.state = StateAuthenticated
	} else {
		c.state = StateAnonymous
	}
}

// Logout clears the stored and in-memory session.
func (c *SessionController) Logout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
	c.state = StateAnonymous
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Expire tears the session down after the remote service rejected it and
// notifies the OnExpire hooks.
func (c *SessionController) Expire() {
	if err := c.Logout(context.Background()); err != nil {
		log.Printf("[session] %v", err)
	}
	log.Printf("[session] session expired")

	c.mu.Lock()
	hooks := make([]func(), 0, len(c.hooks))
	for _, fn := range c.hooks {
		hooks = append(hooks, fn)
	}
	c.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// Token returns the current bearer token, or "".
func (c *SessionController) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.Token
}

// Session returns a copy of the current session, or nil.
func (c *SessionController) Session() *domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	user := *c.session.User
	return &domain.Session{Token: c.session.Token, User: &user}
}

func (c *SessionController) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ provider.Credentials = (*SessionController)(nil)
