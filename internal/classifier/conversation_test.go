package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielolaszy/jassist/pkg/models"
)

func TestConversationWindow(t *testing.T) {
	conv := NewConversation(2)
	first := conv.Add("one", models.Unknown{Reason: "x"})
	conv.Add("two", models.Unknown{Reason: "x"})
	third := conv.Add("three", models.Unknown{Reason: "x"})

	assert.Equal(t, 2, conv.Len())
	recent := conv.Recent(5)
	require.Len(t, recent, 2)
	assert.Equal(t, "three", recent[0].Utterance)
	assert.Equal(t, "two", recent[1].Utterance)
	assert.Equal(t, third.ID, recent[0].ID)
	assert.NotEqual(t, first.ID, third.ID)

	assert.Len(t, conv.Recent(1), 1)
	assert.Empty(t, conv.Recent(0))

	conv.Reset()
	assert.Zero(t, conv.Len())
}

func TestConversationNil(t *testing.T) {
	var conv *Conversation
	assert.Empty(t, conv.Recent(3))
	assert.Zero(t, conv.Len())
}

func TestConversationDisabled(t *testing.T) {
	conv := NewConversation(0)
	conv.Add("one", models.Unknown{})
	assert.Zero(t, conv.Len())
}
