package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"punchcard.org/core/calendar"
)

var ErrDateOutOfRange = errors.New("date out of range")

// MonthNames is the header row of a punchcard grid, in calendar order.
var MonthNames = [12]string{
	"jan", "feb", "mar", "apr", "may", "jun",
	"jul", "aug", "sep", "oct", "nov", "dec",
}

// Mark is a single completed day on a punchcard.
type Mark struct {
	Month int
	Day   int
}

// Punchcard tracks a set of marked calendar days for one year. The mark
// set is kept private: every insertion goes through Punch, which
// validates against the calendar, so invalid dates are never stored.
type Punchcard struct {
	Id    string
	Year  int
	Label string

	marks map[Mark]struct{}
}

// NewPunchcard creates a card with a fresh identifier and no marks.
func NewPunchcard(year int, label string) *Punchcard {
	return &Punchcard{
		Id:    uuid.New().String(),
		Year:  year,
		Label: label,
		marks: make(map[Mark]struct{}),
	}
}

// Punch sets or clears the mark for (month, day). Both directions are
// idempotent. The card is left untouched when the date is not a real
// calendar date for the card's year.
func (c *Punchcard) Punch(month, day int, set bool) (bool, error) {
	if month < 1 || month > 12 {
		return false, fmt.Errorf("%w: month %d", ErrDateOutOfRange, month)
	}
	if day < 1 || day > calendar.DaysInMonth(c.Year, month) {
		return false, fmt.Errorf("%w: day %d of month %d", ErrDateOutOfRange, day, month)
	}

	if c.marks == nil {
		c.marks = make(map[Mark]struct{})
	}

	m := Mark{Month: month, Day: day}
	if set {
		c.marks[m] = struct{}{}
	} else {
		delete(c.marks, m)
	}
	return set, nil
}

// Marked reports whether (month, day) carries a mark.
func (c *Punchcard) Marked(month, day int) bool {
	_, ok := c.marks[Mark{Month: month, Day: day}]
	return ok
}

// Marks returns the mark set as a slice in unspecified order.
func (c *Punchcard) Marks() []Mark {
	out := make([]Mark, 0, len(c.marks))
	for m := range c.marks {
		out = append(out, m)
	}
	return out
}

func (c *Punchcard) MarkCount() int {
	return len(c.marks)
}

// Cell is one day slot in a grid column. Day is -1 for slots that do
// not exist on the calendar, like feb 30.
type Cell struct {
	Day    int
	Marked bool
}

// Grid is the display projection of a punchcard: a header row of month
// names and a 31×12 table of day cells.
type Grid struct {
	Months [12]string
	Days   [31][12]Cell
}

// Grid materializes the full projection for the card's year. It never
// mutates the card and is deterministic for a given card state.
func (c *Punchcard) Grid() Grid {
	g := Grid{Months: MonthNames}
	for day := 1; day <= 31; day++ {
		for month := 1; month <= 12; month++ {
			cell := Cell{Day: -1}
			if day <= calendar.DaysInMonth(c.Year, month) {
				cell = Cell{Day: day, Marked: c.Marked(month, day)}
			}
			g.Days[day-1][month-1] = cell
		}
	}
	return g
}
