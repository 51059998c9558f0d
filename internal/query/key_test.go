package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyHasPrefix(t *testing.T) {
	tests := []struct {
		key, prefix Key
		want        bool
	}{
		{K("events", "1", "6"), K("events"), true},
		{K("events", "1", "6"), K("events", "1"), true},
		{K("events", "1", "6"), K("events", "2"), false},
		{K("event", "1"), K("events"), false},
		{K("users"), K("users", "2"), false},
		{K("users"), K(), true},
	}
	for _, tt := range tests {
		t.Run(tt.key.String()+"~"+tt.prefix.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.key.HasPrefix(tt.prefix))
		})
	}
}

func TestKeyEqualAndClass(t *testing.T) {
	assert.True(t, K("event", "1").Equal(K("event", "1")))
	assert.False(t, K("event", "1").Equal(K("event")))
	assert.Equal(t, "event", K("event", "1").Class())
	assert.Empty(t, K().Class())
	assert.Equal(t, "events/1/6", K("events", "1", "6").String())
}

func TestKeyIDDistinguishesParts(t *testing.T) {
	assert.NotEqual(t, K("a/b").id(), K("a", "b").id())
}
