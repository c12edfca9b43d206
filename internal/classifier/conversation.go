package classifier

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/danielolaszy/jassist/pkg/models"
)

// Turn is one handled request.
type Turn struct {
	ID        ulid.ULID
	Utterance string
	// Summary is the Describe text of the action the request produced
	Summary string
	At      time.Time
}

// Conversation keeps the most recent turns of a session. It lives in memory
// only and is not safe for concurrent use.
type Conversation struct {
	turns []Turn
	limit int
}

// NewConversation keeps at most limit turns.
func NewConversation(limit int) *Conversation {
	return &Conversation{limit: max(limit, 0)}
}

// Add records a turn, dropping the oldest once the limit is reached.
func (c *Conversation) Add(utterance string, action models.Action) Turn {
	turn := Turn{
		ID:        ulid.Make(),
		Utterance: utterance,
		Summary:   action.Describe(),
		At:        time.Now(),
	}
	if c.limit == 0 {
		return turn
	}
	c.turns = append(c.turns, turn)
	if over := len(c.turns) - c.limit; over > 0 {
		c.turns = append(c.turns[:0:0], c.turns[over:]...)
	}
	return turn
}

// Recent returns up to n turns, most recent first. A nil Conversation has
// no turns.
func (c *Conversation) Recent(n int) []Turn {
	if c == nil || n <= 0 {
		return nil
	}
	n = min(n, len(c.turns))
	out := make([]Turn, 0, n)
	for i := len(c.turns) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, c.turns[i])
	}
	return out
}

// Len returns the number of stored turns.
func (c *Conversation) Len() int {
	if c == nil {
		return 0
	}
	return len(c.turns)
}

// Reset forgets all turns.
func (c *Conversation) Reset() {
	c.turns = nil
}
