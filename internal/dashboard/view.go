package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/smileynet/eventadmin/internal/query"
)

// CursorMarker is the prefix shown on the selected row.
const CursorMarker = "▸ "

// Time layouts used for display and form input.
const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// placeholder renders the loading or error state of an entry that has no
// value yet. It reports false when e has a value to render.
func placeholder(e query.Entry, spin, loading, failed string) (string, bool) {
	if e.HasValue {
		return "", false
	}
	if e.Status == query.StatusError {
		var b strings.Builder
		b.WriteString(errorText.Render(failed))
		if e.Err != nil {
			b.WriteString("\n\n" + mutedText.Render(e.Err.Error()))
		}
		b.WriteString("\n\nPress r to retry")
		return b.String(), true
	}
	return fmt.Sprintf("%s %s", spin, loading), true
}

// freshness renders a one-line note for an entry that has a value but is
// being refreshed or failed to refresh.
func freshness(e query.Entry) string {
	switch {
	case e.Fetching:
		return mutedText.Render("↻ refreshing")
	case e.Status == query.StatusError && e.Err != nil:
		return errorText.Render("Refresh failed: " + e.Err.Error())
	}
	return ""
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateLayout)
}

func formatClock(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

// truncate shortens s to n runes with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
