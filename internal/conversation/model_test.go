package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContext_Restore(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	records := []Record{
		{Role: RoleUser, Message: "shirts", SessionID: "aaaa1111", CreatedAt: at},
		{Role: RoleAssistant, Message: "Any style?", SessionID: "aaaa1111", CreatedAt: at.Add(time.Second)},
		{Role: RoleUser, Message: "hi", SessionID: "bbbb2222", CreatedAt: at.Add(time.Minute)},
		{Role: RoleAssistant, Message: "Hello!", SessionID: "bbbb2222", CreatedAt: at.Add(time.Minute + time.Second)},
	}

	c := NewContext("u1")
	c.Restore(records)

	assert.Equal(t, "bbbb2222", c.SessionID)
	require.Len(t, c.Messages, 2)
	assert.Equal(t, Message{Role: RoleUser, Text: "hi", Timestamp: at.Add(time.Minute)}, c.Messages[0])
	assert.Equal(t, RoleAssistant, c.Messages[1].Role)
}

func TestContext_RestoreNothing(t *testing.T) {
	c := NewContext("u1")
	session := c.SessionID

	c.Restore(nil)
	assert.Equal(t, session, c.SessionID)
	assert.Empty(t, c.Messages)
}
