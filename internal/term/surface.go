// Package term draws a Pong court on a character terminal with termbox.
package term

import (
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/nsf/termbox-go"
	"github.com/playmatatu/arcade/internal/game"
)

const (
	ballRune   = 'O'
	paddleRune = '█'
	borderRune = '·'
)

// Screen is the subset of termbox the surface draws through.
type Screen interface {
	Size() (int, int)
	Clear(fg, bg termbox.Attribute) error
	SetCell(x, y int, ch rune, fg, bg termbox.Attribute)
	Flush() error
}

type termboxScreen struct{}

func (termboxScreen) Size() (int, int) { return termbox.Size() }

func (termboxScreen) Clear(fg, bg termbox.Attribute) error { return termbox.Clear(fg, bg) }

func (termboxScreen) SetCell(x, y int, ch rune, fg, bg termbox.Attribute) {
	termbox.SetCell(x, y, ch, fg, bg)
}

func (termboxScreen) Flush() error { return termbox.Flush() }

// Init takes over the terminal. A terminal that cannot be initialised is
// reported as game.ErrNoSurface.
func Init() (Screen, error) {
	if err := termbox.Init(); err != nil {
		return nil, fmt.Errorf("%w: %v", game.ErrNoSurface, err)
	}
	termbox.SetInputMode(termbox.InputEsc)
	termbox.HideCursor()
	return termboxScreen{}, nil
}

// Close restores the terminal.
func Close() {
	termbox.Close()
}

// Surface implements game.Surface and game.Flusher on a Screen, scaling court
// coordinates to character cells. The top row is kept for the court border.
type Surface struct {
	screen Screen
	court  game.Constraints
	cols   int
	rows   int
	fg, bg termbox.Attribute
}

func NewSurface(screen Screen, court game.Constraints) *Surface {
	s := &Surface{screen: screen, court: court, fg: termbox.ColorWhite, bg: termbox.ColorBlack}
	s.resize()
	return s
}

func (s *Surface) resize() {
	s.cols, s.rows = s.screen.Size()
	if s.cols < 1 {
		s.cols = 1
	}
	if s.rows < 2 {
		s.rows = 2
	}
}

// cellX maps a court x coordinate to a column.
func (s *Surface) cellX(x float64) int {
	return clamp(int((x-s.court.X1)/s.court.Width()*float64(s.cols)), 0, s.cols-1)
}

// cellY maps a court y coordinate to a row below the border.
func (s *Surface) cellY(y float64) int {
	rows := s.rows - 1
	return 1 + clamp(int((y-s.court.Y1)/s.court.Height()*float64(rows)), 0, rows-1)
}

// Clear wipes the screen, picks up terminal resizes and draws the border.
func (s *Surface) Clear(x1, y1, x2, y2 float64) {
	s.resize()
	s.screen.Clear(s.fg, s.bg)
	for x := 0; x < s.cols; x++ {
		s.screen.SetCell(x, 0, borderRune, s.fg, s.bg)
	}
}

func (s *Surface) DrawRect(x, y, w, h float64) {
	x0, y0 := s.cellX(x), s.cellY(y)
	x1, y1 := s.cellX(x+w), s.cellY(y+h)
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			s.screen.SetCell(cx, cy, paddleRune, s.fg, s.bg)
		}
	}
}

func (s *Surface) DrawCircle(x, y, r float64) {
	s.screen.SetCell(s.cellX(x), s.cellY(y), ballRune, s.fg, s.bg)
}

// DrawText writes s starting at the cell of (x, y), advancing by each rune's
// display width and cutting off at the right edge.
func (s *Surface) DrawText(text string, x, y float64) {
	cx, cy := s.cellX(x), s.cellY(y)
	for _, r := range text {
		if cx >= s.cols {
			return
		}
		s.screen.SetCell(cx, cy, r, s.fg, s.bg)
		cx += runewidth.RuneWidth(r)
	}
}

func (s *Surface) Flush() error {
	return s.screen.Flush()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
