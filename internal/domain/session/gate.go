// Package session holds the session gate state machine.
package session

import "github.com/okian/checkboard/internal/domain/types"

// DefaultDisplayName is used when the profile carries no name.
const DefaultDisplayName = "User"

// Phase is the gate's progress.
type Phase int

const (
	Loading Phase = iota
	SignedIn
	SignedOut
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case SignedIn:
		return "signed_in"
	case SignedOut:
		return "signed_out"
	}
	return "unknown"
}

// Gate is the result of checking for an existing session on page load.
type Gate struct {
	Phase   Phase
	Session *types.Session
}

// Resolve settles a loading gate from the session lookup result. A lookup
// error is indistinguishable from having no session. A gate that already
// left Loading is returned unchanged.
func Resolve(g Gate, s *types.Session, err error) Gate {
	if g.Phase != Loading {
		return g
	}
	if err != nil || s == nil {
		return Gate{Phase: SignedOut}
	}
	sess := *s
	return Gate{Phase: SignedIn, Session: &sess}
}

// DisplayName returns the greeting name for the gate's session, or fallback.
func (g Gate) DisplayName(fallback string) string {
	if g.Session != nil && g.Session.DisplayName != "" {
		return g.Session.DisplayName
	}
	if fallback == "" {
		return DefaultDisplayName
	}
	return fallback
}
