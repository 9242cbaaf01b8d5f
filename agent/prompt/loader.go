package prompt

import (
	_ "embed"
	"strings"
	"time"
)

//go:embed template/system.txt
var systemRaw string

// System returns the system instruction with the current date substituted,
// so the model can resolve relative dates like "last month" into absolute
// ones before building tool parameters.
func System(now time.Time) string {
	return strings.ReplaceAll(
		strings.TrimSpace(systemRaw),
		"{current_date}",
		now.Format("2006-01-02"),
	)
}
