// Package stream turns catalog files into playable, access-controlled stream descriptors.
package stream

import (
	"fmt"
	"strings"
)

// Trust is the network placement of a request.
type Trust int

const (
	// TrustInternal is a request from the trusted network; no token is needed.
	TrustInternal Trust = iota
	// TrustExternal is a request from outside; it needs a valid stream token.
	TrustExternal
)

func (t Trust) String() string {
	switch t {
	case TrustInternal:
		return "internal"
	case TrustExternal:
		return "external"
	default:
		return fmt.Sprintf("trust(%d)", int(t))
	}
}

// ParseTrust maps a route prefix ("internal" or "external") to a Trust.
func ParseTrust(prefix string) (Trust, bool) {
	switch prefix {
	case "internal":
		return TrustInternal, true
	case "external":
		return TrustExternal, true
	default:
		return 0, false
	}
}

// Gate holds the stream token set. It is fixed at construction.
type Gate struct {
	tokens map[string]struct{}
}

// NewGate builds a gate from tokens. Blank tokens are ignored; an empty set
// denies every external request.
func NewGate(tokens []string) *Gate {
	g := &Gate{tokens: make(map[string]struct{}, len(tokens))}
	for _, tok := range tokens {
		if tok = strings.TrimSpace(tok); tok != "" {
			g.tokens[tok] = struct{}{}
		}
	}
	return g
}

// ParseTokens splits a comma-separated token list.
func ParseTokens(raw string) []string {
	var out []string
	for _, tok := range strings.Split(raw, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}

// Valid reports whether token is in the set.
func (g *Gate) Valid(token string) bool {
	if g == nil || token == "" {
		return false
	}
	_, ok := g.tokens[token]
	return ok
}

// Allow reports whether a request at the given trust level may see streams.
func (g *Gate) Allow(trust Trust, token string) bool {
	if trust == TrustInternal {
		return true
	}
	return g.Valid(token)
}

// Len returns the number of configured tokens.
func (g *Gate) Len() int {
	if g == nil {
		return 0
	}
	return len(g.tokens)
}
