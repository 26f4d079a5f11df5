package auth

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/project-portal/internal/config"
	"github.com/spec-kit/project-portal/internal/domain"
	"github.com/spec-kit/project-portal/internal/observability"
)

const identityKey = "auth_identity"

// CallbackParam carries the originally requested path through the login page.
const CallbackParam = "callbackUrl"

// RouteClass is how the session middleware treats a path.
type RouteClass int

const (
	RouteProtected RouteClass = iota
	RoutePublic
	RouteBypass
)

func (r RouteClass) String() string {
	switch r {
	case RoutePublic:
		return "public"
	case RouteBypass:
		return "bypass"
	default:
		return "protected"
	}
}

// DefaultBypassPrefixes are never intercepted; their handlers authenticate on their own.
var DefaultBypassPrefixes = []string{"/api/auth", "/health", "/favicon.ico", "/static"}

// SessionMiddleware gates every non-bypassed route on a valid session cookie.
// It performs no I/O: the token alone decides.
type SessionMiddleware struct {
	codec   *TokenCodec
	cookie  SessionCookie
	session config.SessionConfig
	bypass  []string
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewSessionMiddleware wires the middleware.
func NewSessionMiddleware(codec *TokenCodec, cookie SessionCookie, session config.SessionConfig, logger *zap.Logger, metrics *observability.Metrics) *SessionMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionMiddleware{
		codec:   codec,
		cookie:  cookie,
		session: session,
		bypass:  DefaultBypassPrefixes,
		logger:  logger,
		metrics: metrics,
	}
}

// Classify returns the route class of path.
func (m *SessionMiddleware) Classify(path string) RouteClass {
	for _, prefix := range m.bypass {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return RouteBypass
		}
	}
	if path == m.session.LoginPath || path == m.session.RegisterPath {
		return RoutePublic
	}
	return RouteProtected
}

// Handle implements the session state table.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	path := c.Path()
	class := m.Classify(path)
	if class == RouteBypass {
		return c.Next()
	}

	var identity *domain.Identity
	if raw := m.cookie.Read(c); raw != "" {
		claims, err := m.codec.Verify(raw)
		if err != nil {
			m.logger.Debug("discarding session cookie", zap.String("path", path), zap.Error(err))
			m.metrics.RecordAuthFailure("invalid_token")
			m.cookie.Clear(c)
		} else {
			id := claims.Identity()
			identity = &id
		}
	}

	switch class {
	case RoutePublic:
		if identity != nil {
			return c.Redirect(m.session.LandingPath, fiber.StatusTemporaryRedirect)
		}
		return c.Next()
	default:
		if identity == nil {
			return c.Redirect(m.loginRedirect(path), fiber.StatusTemporaryRedirect)
		}
		c.Locals(identityKey, identity)
		return c.Next()
	}
}

func (m *SessionMiddleware) loginRedirect(path string) string {
	target := url.URL{
		Path:     m.session.LoginPath,
		RawQuery: url.Values{CallbackParam: []string{path}}.Encode(),
	}
	return target.String()
}

// IdentityFromContext returns the identity stored by the middleware.
func IdentityFromContext(c *fiber.Ctx) (*domain.Identity, bool) {
	val := c.Locals(identityKey)
	if val == nil {
		return nil, false
	}
	identity, ok := val.(*domain.Identity)
	return identity, ok
}
