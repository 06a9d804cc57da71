package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyBuilder(t *testing.T) {
	kb := NewKeyBuilder("attd")
	assert.Equal(t, "attd:refresh:42", kb.Key("refresh", "42"))
	assert.Equal(t, "attd:lock:backfill", kb.Key("lock", "", "backfill"))

	assert.Equal(t, "attd:x", NewKeyBuilder("").Key("x"))
}
