package auth

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/foomo/guestbook/pkg/metrics"
)

const (
	// DefaultPassword is the insecure local fallback. Deployments must
	// override it via configuration before going anywhere near production.
	DefaultPassword = "admin123"

	// DefaultDelay is the fixed pause before answering a failed password
	// check. A policy constant to slow brute forcing, not a rate limiter:
	// there is no counter, no lockout and no per-IP state.
	DefaultDelay = time.Second

	// DefaultTokenTTL is how long issued session tokens stay valid.
	DefaultTokenTTL = 24 * time.Hour
)

var (
	// ErrInvalidPassword is returned after the configured delay on mismatch.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrInvalidToken is returned for structurally bad or stale tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)

type (
	// Gate performs the password check guarding write access and issues
	// session tokens. A token is an opaque random body followed by its
	// base36-encoded issue instant as the last dot-separated segment;
	// Verify relies on that trailing segment only.
	Gate struct {
		l      *zap.Logger
		secret string
		delay  time.Duration
		ttl    time.Duration
		now    func() time.Time
	}
	Option func(*Gate)
)

// ------------------------------------------------------------------------------------------------
// ~ Constructor
// ------------------------------------------------------------------------------------------------

func New(l *zap.Logger, opts ...Option) *Gate {
	inst := &Gate{
		l:      l.Named("auth"),
		secret: DefaultPassword,
		delay:  DefaultDelay,
		ttl:    DefaultTokenTTL,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(inst)
	}

	return inst
}

// ------------------------------------------------------------------------------------------------
// ~ Options
// ------------------------------------------------------------------------------------------------

// WithSecret overrides the expected password.
func WithSecret(v string) Option {
	return func(o *Gate) {
		o.secret = v
	}
}

// WithDelay overrides the pause before a mismatch is answered.
func WithDelay(v time.Duration) Option {
	return func(o *Gate) {
		o.delay = v
	}
}

// WithTokenTTL overrides how long issued tokens stay valid.
func WithTokenTTL(v time.Duration) Option {
	return func(o *Gate) {
		o.ttl = v
	}
}

// WithNow overrides the clock, for tests.
func WithNow(v func() time.Time) Option {
	return func(o *Gate) {
		o.now = v
	}
}

// ------------------------------------------------------------------------------------------------
// ~ Public methods
// ------------------------------------------------------------------------------------------------

// Authenticate checks the given password and returns a fresh session token.
// On mismatch it blocks for the configured delay before failing.
func (g *Gate) Authenticate(ctx context.Context, password string) (string, error) {
	if password == g.secret {
		return g.token(), nil
	}

	g.l.Info("rejected password attempt")
	metrics.AuthFailedCounter.WithLabelValues().Inc()

	select {
	case <-time.After(g.delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return "", ErrInvalidPassword
}

// Verify reports whether the token was issued within the configured TTL.
func (g *Gate) Verify(token string) error {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return ErrInvalidToken
	}
	issued, err := strconv.ParseInt(parts[len(parts)-1], 36, 64)
	if err != nil {
		return ErrInvalidToken
	}
	// Future-dated instants pass, matching the clients already out there.
	if g.now().UnixMilli()-issued < g.ttl.Milliseconds() {
		return nil
	}
	return ErrInvalidToken
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (g *Gate) token() string {
	body := strings.ReplaceAll(uuid.NewString(), "-", "")
	return body + "." + strconv.FormatInt(g.now().UnixMilli(), 36)
}
