package db

import (
	"database/sql"
	"errors"
	"fmt"

	"punchcard.org/core/models"
)

var ErrNotFound = errors.New("punchcard not found")

// PutPunchcard upserts a card by id: insert when absent, otherwise
// overwrite year, label and the encoded blob in place. A single
// statement, so the write is atomic.
func PutPunchcard(e Execer, card *models.Punchcard) error {
	blob, err := card.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to encode punchcard: %w", err)
	}

	_, err = e.Exec(`
		insert into punchcards (id, year, label, punches)
		values (?, ?, ?, ?)
			on conflict(id) do update set
			year = excluded.year,
			label = excluded.label,
			punches = excluded.punches;
	`, card.Id, card.Year, card.Label, string(blob))
	return err
}

// GetPunchcard loads a card by id, decoding it from the punches blob.
func GetPunchcard(e Execer, id string) (*models.Punchcard, error) {
	var blob string
	err := e.QueryRow(`select punches from punchcards where id = ?`, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return models.FromJSON([]byte(blob))
}

// DeletePunchcard removes a card by id. Deleting an unknown id is not
// an error.
func DeletePunchcard(e Execer, id string) error {
	_, err := e.Exec(`delete from punchcards where id = ?`, id)
	return err
}

// ListYears returns the distinct years with at least one card, newest
// first.
func ListYears(e Execer) ([]int, error) {
	rows, err := e.Query(`select distinct(year) from punchcards order by year desc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var year int
		if err := rows.Scan(&year); err != nil {
			return nil, err
		}
		years = append(years, year)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return years, nil
}

// ListPunchcards returns all cards for a year, ordered by label.
func ListPunchcards(e Execer, year int) ([]*models.Punchcard, error) {
	rows, err := e.Query(`select punches from punchcards where year = ? order by label asc`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []*models.Punchcard
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}

		card, err := models.FromJSON([]byte(blob))
		if err != nil {
			return nil, fmt.Errorf("failed to decode punchcard: %w", err)
		}
		all = append(all, card)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return all, nil
}
