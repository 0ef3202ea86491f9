package feed

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwantia/feedtree/data"
)

// SafetyLevel is the server-side restriction tier applied to a query.
type SafetyLevel string

const (
	SafetyStrict   SafetyLevel = "strict"
	SafetyModerate SafetyLevel = "moderate"
	SafetyNone     SafetyLevel = "none"
)

// ParseSafetyLevel converts a configured tier name into a SafetyLevel.
func ParseSafetyLevel(level string) (SafetyLevel, error) {
	switch SafetyLevel(strings.ToLower(strings.TrimSpace(level))) {
	case "", SafetyStrict:
		return SafetyStrict, nil
	case SafetyModerate:
		return SafetyModerate, nil
	case SafetyNone:
		return SafetyNone, nil
	default:
		return SafetyStrict, fmt.Errorf("invalid safety level '%s'", level)
	}
}

// Query is an author scoped request for a single bounded page of entries.
type Query struct {
	Author     string
	MaxResults int
	Safety     SafetyLevel
}

// Client is the transport to the remote feed service.
type Client interface {
	// Query returns the entries of a single result page in feed order.
	Query(ctx context.Context, query Query) ([]*data.RemoteEntry, error)
}

// ClientFunc adapts a function to the Client interface.
type ClientFunc func(ctx context.Context, query Query) ([]*data.RemoteEntry, error)

func (f ClientFunc) Query(ctx context.Context, query Query) ([]*data.RemoteEntry, error) {
	return f(ctx, query)
}
