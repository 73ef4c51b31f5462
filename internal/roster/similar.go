package roster

import (
	"time"

	"cricket-roster/internal/domain"
)

const DefaultSimilarLimit = 5

// FindSimilar returns up to maxResults players sharing focal's category, in
// roster order, never including focal itself.
func FindSimilar(players []domain.Player, focal domain.Player, maxResults int) []domain.Player {
	out := []domain.Player{}
	if maxResults <= 0 {
		return out
	}
	for _, p := range players {
		if p.Category != focal.Category || p.ID == focal.ID {
			continue
		}
		out = append(out, p)
		if len(out) == maxResults {
			break
		}
	}
	return out
}

func FindByID(players []domain.Player, id string) (domain.Player, bool) {
	for _, p := range players {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Player{}, false
}

// Age is the difference in calendar years between now and dob, ignoring
// whether the birthday has passed. Years are taken in now's location. A
// missing dob yields 0.
func Age(dob *time.Time, now time.Time) int {
	if dob == nil {
		return 0
	}
	return now.Year() - dob.In(now.Location()).Year()
}
