package term

import (
	"github.com/nsf/termbox-go"
	"github.com/playmatatu/arcade/internal/game"
)

// KeyFromEvent converts a termbox event into a game key name. quit is true for
// Esc, Ctrl-C and interrupts. An event with no game meaning yields an empty
// key.
func KeyFromEvent(ev termbox.Event) (key game.KeyEvent, quit bool) {
	switch ev.Type {
	case termbox.EventInterrupt, termbox.EventError:
		return game.KeyEvent{}, true
	case termbox.EventKey:
	default:
		return game.KeyEvent{}, false
	}

	switch ev.Key {
	case termbox.KeyEsc, termbox.KeyCtrlC:
		return game.KeyEvent{}, true
	case termbox.KeyArrowUp:
		return game.KeyEvent{Key: "ArrowUp"}, false
	case termbox.KeyArrowDown:
		return game.KeyEvent{Key: "ArrowDown"}, false
	}
	if ev.Ch != 0 {
		return game.KeyEvent{Key: string(ev.Ch)}, false
	}
	return game.KeyEvent{}, false
}

// PollKeys feeds terminal key presses to in until the user quits or the event
// stream fails, then calls onQuit. It blocks; run it on its own goroutine.
func PollKeys(in *game.InputAdapter, onQuit func()) {
	for {
		key, quit := KeyFromEvent(termbox.PollEvent())
		if quit {
			onQuit()
			return
		}
		if key.Key != "" {
			in.HandleKey(key)
		}
	}
}
