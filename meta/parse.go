package meta

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/xraph/courseprice/schedule"
	"github.com/xraph/courseprice/types"
)

// parseSessions reads a non-negative session count. Unparseable values and
// counts above schedule.MaxSessions yield ok=false and are treated as unset.
func parseSessions(raw string) (n int, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n > schedule.MaxSessions {
		return 0, false
	}
	return max(0, n), true
}

// parseHolidays accepts a JSON array of dates or dates separated by commas,
// semicolons or newlines. Blank entries are skipped.
func parseHolidays(raw string) ([]types.Date, string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, "", nil
	}

	var parts []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &parts); err != nil {
			return nil, raw, fmt.Errorf("%w: holiday list: %w", types.ErrInvalidDate, err)
		}
	} else {
		parts = strings.FieldsFunc(raw, func(r rune) bool {
			return r == ',' || r == ';' || r == '\n' || r == '\r'
		})
	}

	dates := make([]types.Date, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		d, err := types.ParseDate(p)
		if err != nil {
			return nil, p, err
		}
		dates = append(dates, d)
	}
	return dates, "", nil
}
