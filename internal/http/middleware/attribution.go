package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/OpenSundsvall/api-service-case-data/internal/platform/ctxutil"
)

const (
	HeaderJWTAssertion = "x-jwt-assertion"
	HeaderADUser       = "ad-user"
)

// AttachAttribution stores the calling client and acting user on the request
// context. The gateway has already verified the assertion, so only its
// subject is read here.
func AttachAttribution() gin.HandlerFunc {
	return func(c *gin.Context) {
		a := ctxutil.NewAttribution(
			subscriberFromAssertion(c.GetHeader(HeaderJWTAssertion)),
			c.GetHeader(HeaderADUser),
		)
		c.Request = c.Request.WithContext(ctxutil.WithAttribution(c.Request.Context(), a))
		c.Next()
	}
}

func subscriberFromAssertion(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return ""
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return ""
	}
	return sub
}
