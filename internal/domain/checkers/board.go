package checkers

import (
	"fmt"
	"sort"

	"tabletop/internal/domain"
)

// Size is the number of columns and rows of the board.
const Size = 8

// Colour is the side a checker belongs to.
type Colour int

const (
	// White starts on rows 1-3 and moves towards row 8.
	White Colour = iota
	// Black starts on rows 6-8 and moves towards row 1.
	Black
)

func (c Colour) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// ColourOf maps a seat onto its side: the first seat plays White.
func ColourOf(seat domain.Seat) Colour { return Colour(seat) }

// forward is the row delta a man of this colour may move along.
func (c Colour) forward() int {
	if c == White {
		return 1
	}
	return -1
}

// CrownRow is the farthest row from the colour's start.
func (c Colour) CrownRow() int {
	if c == White {
		return Size
	}
	return 1
}

// Pos is a square, 1-based on both axes.
type Pos struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

func (p Pos) String() string { return fmt.Sprintf("(%d,%d)", p.Col, p.Row) }

// OnBoard reports whether p lies within the 8x8 grid.
func (p Pos) OnBoard() bool {
	return p.Col >= 1 && p.Col <= Size && p.Row >= 1 && p.Row <= Size
}

// Playable reports whether p is one of the squares checkers may occupy.
func (p Pos) Playable() bool { return p.OnBoard() && (p.Col+p.Row)%2 == 0 }

// IsJump reports whether a move from one square to another skips a square, as captures do.
func IsJump(from, to Pos) bool { return abs(to.Col-from.Col) == 2 }

// Checker is a live piece on the board.
type Checker struct {
	Pos
	Colour   Colour `json:"colour"`
	Promoted bool   `json:"promoted"`
}

type square struct {
	occupied bool
	colour   Colour
	promoted bool
}

// Board is an 8x8 grid holding at most one checker per square.
type Board struct {
	squares [Size][Size]square
}

// NewBoard returns the standard opening: twelve checkers per side on the
// playable squares of the three rows nearest each player.
func NewBoard() Board {
	var b Board
	for row := 1; row <= Size; row++ {
		var colour Colour
		switch {
		case row <= 3:
			colour = White
		case row >= Size-2:
			colour = Black
		default:
			continue
		}
		for col := 1; col <= Size; col++ {
			p := Pos{Col: col, Row: row}
			if p.Playable() {
				b.put(Checker{Pos: p, Colour: colour})
			}
		}
	}
	return b
}

// BoardOf builds a board from an explicit set of checkers.
func BoardOf(checkers ...Checker) (Board, error) {
	var b Board
	for _, c := range checkers {
		if !c.Playable() {
			return Board{}, fmt.Errorf("checker at %s is not on a playable square", c.Pos)
		}
		if _, ok := b.At(c.Pos); ok {
			return Board{}, fmt.Errorf("square %s is occupied twice", c.Pos)
		}
		b.put(c)
	}
	return b, nil
}

// At returns the checker on p, if any.
func (b *Board) At(p Pos) (Checker, bool) {
	if !p.OnBoard() {
		return Checker{}, false
	}
	sq := b.squares[p.Col-1][p.Row-1]
	if !sq.occupied {
		return Checker{}, false
	}
	return Checker{Pos: p, Colour: sq.colour, Promoted: sq.promoted}, true
}

func (b *Board) empty(p Pos) bool {
	if !p.Playable() {
		return false
	}
	return !b.squares[p.Col-1][p.Row-1].occupied
}

func (b *Board) put(c Checker) {
	b.squares[c.Col-1][c.Row-1] = square{occupied: true, colour: c.Colour, promoted: c.Promoted}
}

func (b *Board) clear(p Pos) {
	b.squares[p.Col-1][p.Row-1] = square{}
}

// Checkers returns every live checker ordered by row then column.
func (b *Board) Checkers() []Checker {
	var out []Checker
	for col := 1; col <= Size; col++ {
		for row := 1; row <= Size; row++ {
			if c, ok := b.At(Pos{Col: col, Row: row}); ok {
				out = append(out, c)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

// Count returns how many checkers of colour remain.
func (b *Board) Count(colour Colour) int {
	n := 0
	for _, c := range b.Checkers() {
		if c.Colour == colour {
			n++
		}
	}
	return n
}

var diagonals = [4][2]int{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}

// directions returns the diagonals c may travel along.
func directions(c Checker) [][2]int {
	if c.Promoted {
		return diagonals[:]
	}
	dy := c.Colour.forward()
	return [][2]int{{1, dy}, {-1, dy}}
}

// steps lists simple one-square moves for c.
func (b *Board) steps(c Checker) []Pos {
	var out []Pos
	for _, d := range directions(c) {
		to := Pos{Col: c.Col + d[0], Row: c.Row + d[1]}
		if b.empty(to) {
			out = append(out, to)
		}
	}
	return out
}

// jumps lists landing squares of captures available to c.
func (b *Board) jumps(c Checker) []Pos {
	var out []Pos
	for _, d := range directions(c) {
		over := Pos{Col: c.Col + d[0], Row: c.Row + d[1]}
		to := Pos{Col: c.Col + 2*d[0], Row: c.Row + 2*d[1]}
		victim, ok := b.At(over)
		if !ok || victim.Colour == c.Colour {
			continue
		}
		if b.empty(to) {
			out = append(out, to)
		}
	}
	return out
}

// canCapture reports whether any checker of colour has a jump.
func (b *Board) canCapture(colour Colour) bool {
	for _, c := range b.Checkers() {
		if c.Colour == colour && len(b.jumps(c)) > 0 {
			return true
		}
	}
	return false
}
