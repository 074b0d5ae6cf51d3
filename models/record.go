package models

import "encoding/json"

// Record is the JSON shape a punchcard is persisted as. The punches
// list carries (month, day) pairs in unspecified order; consumers must
// treat it as a set.
type Record struct {
	Id      string   `json:"id"`
	Year    int      `json:"year"`
	Label   string   `json:"label"`
	Punches [][2]int `json:"punches"`
}

// AsRecord projects the card into its storage shape.
func (c *Punchcard) AsRecord() Record {
	punches := make([][2]int, 0, len(c.marks))
	for m := range c.marks {
		punches = append(punches, [2]int{m.Month, m.Day})
	}
	return Record{
		Id:      c.Id,
		Year:    c.Year,
		Label:   c.Label,
		Punches: punches,
	}
}

// ToJSON encodes the card's record form.
func (c *Punchcard) ToJSON() ([]byte, error) {
	return json.Marshal(c.AsRecord())
}

// FromRecord rebuilds a card from its storage shape. The identifier is
// kept verbatim and the punch list is folded back into a set, dropping
// duplicates. Marks are not re-validated against the calendar: the
// record is trusted to hold previously valid data.
func FromRecord(rec Record) *Punchcard {
	marks := make(map[Mark]struct{}, len(rec.Punches))
	for _, p := range rec.Punches {
		marks[Mark{Month: p[0], Day: p[1]}] = struct{}{}
	}
	return &Punchcard{
		Id:    rec.Id,
		Year:  rec.Year,
		Label: rec.Label,
		marks: marks,
	}
}

// FromJSON decodes a card from its record form.
func FromJSON(data []byte) (*Punchcard, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	return FromRecord(rec), nil
}
