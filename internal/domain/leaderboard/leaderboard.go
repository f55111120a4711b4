// Package leaderboard holds the displayed leaderboard and its refresh rule.
package leaderboard

import (
	"errors"

	"github.com/okian/checkboard/internal/domain/types"
)

// ErrLeaderboardFetch marks a failed refresh. The previous board stays on screen.
var ErrLeaderboardFetch = errors.New("leaderboard fetch failed")

// Board is the leaderboard as currently displayed.
type Board struct {
	Entries []types.LeaderboardEntry
	// Loaded is false until the first successful refresh.
	Loaded bool
}

// Apply returns the board after a refresh. On success the entries replace
// the board wholesale, in the order given; a nil result displays as empty.
// On failure the board is returned unchanged.
func Apply(b Board, entries []types.LeaderboardEntry, err error) Board {
	if err != nil {
		return b
	}
	next := make([]types.LeaderboardEntry, len(entries))
	copy(next, entries)
	return Board{Entries: next, Loaded: true}
}
