package model

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPairKeyIsOrderIndependent(t *testing.T) {
	require.Equal(t, PairKey("u1", "u2"), PairKey("u2", "u1"))
	require.Equal(t, "2:u1:u2", PairKey("u2", "u1"))
	require.NotEqual(t, PairKey("u1", "u2"), PairKey("u1", "u3"))
}

func TestPairKeyDistinguishesSeparatorsInIds(t *testing.T) {
	require.NotEqual(t, PairKey("a:b", "c"), PairKey("a", "b:c"))
	require.NotEqual(t, PairKey("1:a", "b"), PairKey("1", "a:b"))
	require.Equal(t, PairKey("a:b", "c"), PairKey("c", "a:b"))
}

func TestChatOther(t *testing.T) {
	c := &Chat{
		ParticipantOne: Participant{UserId: "u1", Username: "alice"},
		ParticipantTwo: Participant{UserId: "u2", Username: "bob"},
	}
	require.Equal(t, "bob", c.Other("u1").Username)
	require.Equal(t, "alice", c.Other("u2").Username)
	require.True(t, c.HasParticipant("u2"))
	require.False(t, c.HasParticipant("u3"))
}

func TestReadByUser(t *testing.T) {
	m := &ChatMessage{ReadBy: []ChatMessageRead{{UserId: "u2"}}}
	require.True(t, m.ReadByUser("u2"))
	require.False(t, m.ReadByUser("u1"))
}
