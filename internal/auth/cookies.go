package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie reads and writes the session token cookie.
type SessionCookie struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// Read returns the raw token, or "" when the cookie is absent.
func (s SessionCookie) Read(c *fiber.Ctx) string {
	return c.Cookies(s.Name)
}

// Present reports whether the request carries the cookie at all.
func (s SessionCookie) Present(c *fiber.Ctx) bool {
	return len(c.Request().Header.Cookie(s.Name)) > 0
}

// Write stores token with HttpOnly and SameSite=Lax, valid until expiresAt.
func (s SessionCookie) Write(c *fiber.Ctx, token string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     s.Name,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		MaxAge:   int(s.TTL / time.Second),
		HTTPOnly: true,
		Secure:   s.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// Clear instructs the client to drop the cookie.
func (s SessionCookie) Clear(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     s.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   s.Secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
