package session

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Session is the wallet connection state of one browser. It is passed
// explicitly to every read and write; a zero Session is disconnected.
type Session struct {
	ID      string
	Address *common.Address
}

// Connected reports whether a wallet address is bound to the session
func (s Session) Connected() bool {
	return s.Address != nil
}

// AddressHex returns the connected address, or "" when disconnected
func (s Session) AddressHex() string {
	if s.Address == nil {
		return ""
	}
	return s.Address.Hex()
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying s
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx, or a disconnected one
func FromContext(ctx context.Context) Session {
	s, _ := ctx.Value(contextKey{}).(Session)
	return s
}
