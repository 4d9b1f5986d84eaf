package ctxutil

import (
	"context"
	"strings"
)

// UnknownActor is used for both the client and the user when a request
// carries no identifying headers.
const UnknownActor = "UNKNOWN"

type attributionKey struct{}

// Attribution identifies who performs a mutation: the calling API client
// (the subscriber of the gateway token) and the acting end user.
type Attribution struct {
	Client string
	User   string
}

// NewAttribution trims both values and substitutes UnknownActor for blanks.
func NewAttribution(client, user string) Attribution {
	client = strings.TrimSpace(client)
	user = strings.TrimSpace(user)
	if client == "" {
		client = UnknownActor
	}
	if user == "" {
		user = UnknownActor
	}
	return Attribution{Client: client, User: user}
}

func WithAttribution(ctx context.Context, a Attribution) context.Context {
	return context.WithValue(ctx, attributionKey{}, a)
}

// GetAttribution never fails; a context without attribution yields UNKNOWN/UNKNOWN.
func GetAttribution(ctx context.Context) Attribution {
	if ctx != nil {
		if a, ok := ctx.Value(attributionKey{}).(Attribution); ok {
			return a
		}
	}
	return NewAttribution("", "")
}
