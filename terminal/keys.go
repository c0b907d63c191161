// Package terminal hosts a round in a tcell screen.
package terminal

import (
	"unicode"

	"github.com/gdamore/tcell/v2"
)

var specialKeys = map[tcell.Key]string{
	tcell.KeyLeft:   "ArrowLeft",
	tcell.KeyRight:  "ArrowRight",
	tcell.KeyUp:     "ArrowUp",
	tcell.KeyDown:   "ArrowDown",
	tcell.KeyEscape: "Escape",
	tcell.KeyEnter:  "Enter",
	tcell.KeyTab:    "Tab",
}

// KeyCode converts a tcell key event to the DOM key code the input router
// binds against.
func KeyCode(ev *tcell.EventKey) (string, bool) {
	if code, ok := specialKeys[ev.Key()]; ok {
		return code, true
	}
	if ev.Key() != tcell.KeyRune {
		return "", false
	}
	r := ev.Rune()
	switch {
	case r == ' ':
		return "Space", true
	case r >= '0' && r <= '9':
		return "Digit" + string(r), true
	case unicode.IsLetter(r) && r < unicode.MaxASCII:
		return "Key" + string(unicode.ToUpper(r)), true
	}
	return "", false
}

// isQuit reports Ctrl+C and Ctrl+Q.
func isQuit(ev *tcell.EventKey) bool {
	return ev.Key() == tcell.KeyCtrlC || ev.Key() == tcell.KeyCtrlQ
}
