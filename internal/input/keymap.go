package input

import (
	"unicode"

	"github.com/roman-kulish/drone-console/internal/command"
)

const ctrlC = '\x03'

// keymap binds keys to commands. The Cyrillic keys sit where the Latin ones do on the
// Russian ЙЦУКЕН layout, so the console works without switching layouts. 'л' is the
// phonetic land key and is kept alongside the layout one.
var keymap = map[rune]command.Command{
	't': command.TakeOff,
	'е': command.TakeOff,
	'l': command.Land,
	'д': command.Land,
	'л': command.Land,
	'r': command.ReturnHome,
	'к': command.ReturnHome,
	'h': command.ReturnHome,
	'р': command.ReturnHome,
	'g': command.GoTo,
	'п': command.GoTo,
	'q': command.Quit,
	'й': command.Quit,

	// raw mode swallows SIGINT
	ctrlC: command.Quit,
}

// Lookup maps a key to its command, ignoring case.
func Lookup(key rune) (command.Command, bool) {
	cmd, ok := keymap[unicode.ToLower(key)]
	return cmd, ok
}
