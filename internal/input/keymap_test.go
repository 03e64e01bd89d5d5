package input

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roman-kulish/drone-console/internal/command"
)

func TestLookup(t *testing.T) {
	tests := map[rune]command.Command{
		't': command.TakeOff,
		'T': command.TakeOff,
		'е': command.TakeOff,
		'Е': command.TakeOff,
		'l': command.Land,
		'д': command.Land,
		'л': command.Land,
		'Л': command.Land,
		'r': command.ReturnHome,
		'h': command.ReturnHome,
		'к': command.ReturnHome,
		'р': command.ReturnHome,
		'g': command.GoTo,
		'П': command.GoTo,
		'q': command.Quit,
		'й': command.Quit,
		ctrlC: command.Quit,
	}

	for key, want := range tests {
		got, ok := Lookup(key)
		assert.True(t, ok, "key %q", key)
		assert.Equal(t, want, got, "key %q", key)
	}

	for _, key := range []rune{'x', ' ', '1', 'p', 'ж'} {
		_, ok := Lookup(key)
		assert.False(t, ok, "key %q", key)
	}
}
