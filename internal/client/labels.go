package client

import (
	"time"

	"github.com/gurkanbulca/dailytasks/internal/models"
)

// DueLabel names due relative to now's calendar day: Today, Tomorrow,
// Yesterday, or a date like "Mar 1, 2024".
func DueLabel(due models.Date, now time.Time) string {
	today := models.DateOf(now)
	switch due {
	case today:
		return "Today"
	case today.AddDays(1):
		return "Tomorrow"
	case today.AddDays(-1):
		return "Yesterday"
	}
	return due.Time().Format("Jan 2, 2006")
}
