package checkpoint

import (
	"context"
	"errors"
	"strings"

	"github.com/leofalp/agentloop/providers/ai"
)

var (
	// ErrNotAppendOnly is returned by Save when the new state does not start
	// with the stored messages.
	ErrNotAppendOnly = errors.New("checkpoint: state does not extend stored state")

	// ErrEmptyThreadID is returned when a thread identifier is empty.
	ErrEmptyThreadID = errors.New("checkpoint: empty thread id")
)

// State is the persisted conversation of one thread.
type State struct {
	Messages []ai.Message `json:"messages"`
}

// Clone returns a deep copy of the state. Messages is never nil.
func (s State) Clone() State {
	return State{Messages: ai.CloneMessages(s.Messages)}
}

// Store persists State by thread identifier.
type Store interface {
	// Save replaces the stored state of threadID with state, which must
	// extend it.
	Save(ctx context.Context, threadID string, state State) error

	// Load returns the stored state. An unknown thread yields an empty state,
	// found=false and no error. A thread only counts as found once it holds
	// a message, so saving an empty state does not create it.
	Load(ctx context.Context, threadID string) (state State, found bool, err error)
}

// ThreadLocker is implemented by stores that can serialize runs on a thread.
type ThreadLocker interface {
	Lock(threadID string) (unlock func())
}

// ThreadKey builds a thread identifier from its parts, for applications that
// scope conversations per user and session.
//
//	checkpoint.ThreadKey("weather_app", "user_1", "session_001") // "weather_app/user_1/session_001"
func ThreadKey(app, user, session string) string {
	return strings.Join([]string{app, user, session}, "/")
}

// Extends reports whether next starts with every message of stored, in order.
func Extends(stored, next []ai.Message) bool {
	if len(next) < len(stored) {
		return false
	}
	for i := range stored {
		if !stored[i].Equal(next[i]) {
			return false
		}
	}
	return true
}
