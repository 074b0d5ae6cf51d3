// Dev tool: fills a punchcard database with a year of random punches,
// handy for eyeballing the grid rendering.
package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"punchcard.org/core/calendar"
	"punchcard.org/core/models"
	"punchcard.org/core/server/db"
)

func main() {
	d, err := db.Setup("./punchcard.db")
	if err != nil {
		log.Fatal("failed to open database:", err)
	}
	defer d.Close()

	year := time.Now().Year()
	labels := []string{"reading", "running", "writing"}

	for _, label := range labels {
		card := models.NewPunchcard(year, label)

		for month := 1; month <= 12; month++ {
			for day := 1; day <= calendar.DaysInMonth(year, month); day++ {
				if rand.Intn(3) == 0 {
					if _, err := card.Punch(month, day, true); err != nil {
						log.Fatalf("failed to punch %d-%d: %v", month, day, err)
					}
				}
			}
		}

		if err := db.PutPunchcard(d, card); err != nil {
			log.Fatalf("failed to save %q: %v", label, err)
		}
		fmt.Printf("seeded %q (%d) with %d punches\n", label, year, card.MarkCount())
	}
}
