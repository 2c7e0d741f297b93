// Package timecodec converts H:MM:SS clock text to whole seconds and back.
package timecodec

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/okian/splits/internal/domain/model"
)

const (
	secondsPerMinute = 60
	minutesPerHour   = 60
)

// Each group is any non-negative integer; minutes and seconds are not capped at 59.
var clockPattern = regexp.MustCompile(`^(\d+):(\d+):(\d+)$`)

// Parse converts "h:m:s" to seconds as ((h*60)+m)*60+s.
func Parse(text string) (int, error) {
	m := clockPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrFormat, text)
	}
	total := 0
	for _, group := range m[1:] {
		n, err := strconv.Atoi(group)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrFormat, text, err)
		}
		if total > (math.MaxInt-n)/secondsPerMinute {
			return 0, fmt.Errorf("%w: %q overflows", ErrFormat, text)
		}
		total = total*secondsPerMinute + n
	}
	return total, nil
}

// Format renders seconds as H:MM:SS. Hours are not padded or capped, so
// Parse(Format(n)) == n for every n >= 0.
func Format(seconds int) string {
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	s := seconds % secondsPerMinute
	m := (seconds / secondsPerMinute) % minutesPerHour
	h := seconds / (secondsPerMinute * minutesPerHour)
	return fmt.Sprintf("%s%d:%02d:%02d", sign, h, m, s)
}

// ParseRow returns a copy of row with every layout column that holds text
// replaced by its parsed duration. Other columns pass through unchanged.
func ParseRow(row model.Row, layout model.Layout) (model.Row, error) {
	updates := make(map[string]model.Value, len(layout.Segments)+1)
	for _, col := range layout.Columns() {
		v, ok := row.Get(col)
		if !ok || v.IsSeconds() {
			continue
		}
		secs, err := Parse(v.Text())
		if err != nil {
			return model.Row{}, fmt.Errorf("column %q: %w", col, err)
		}
		updates[col] = model.Seconds(secs)
	}
	return row.Patch(updates), nil
}
