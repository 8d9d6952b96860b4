package blacklist

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"versize/internal/models"
)

var durationPattern = regexp.MustCompile(`^(\d+)([hd])$`)

// maxDurationUnits keeps computed expiries well inside int64 milliseconds.
const maxDurationUnits = 100000

// ParseDuration turns "permanent", "" or "<n>h"/"<n>d" into an expiry instant.
// A nil result means permanent. Zero and unrecognized forms are rejected.
func ParseDuration(raw string, now time.Time) (*time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || s == "permanent" {
		return nil, nil
	}

	m := durationPattern.FindStringSubmatch(s)
	if m == nil {
		return nil, models.NewValidationError("duration must be \"permanent\", <n>h or <n>d", "duration: "+raw)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 || n > maxDurationUnits {
		return nil, models.NewValidationError("duration must be a positive number of hours or days", "duration: "+raw)
	}

	unit := time.Hour
	if m[2] == "d" {
		unit = 24 * time.Hour
	}
	until := now.Add(time.Duration(n) * unit)
	return &until, nil
}

// NewEntry builds an entry from an already parsed expiry.
func NewEntry(id, static, reason, addedBy string, now time.Time, until *time.Time) models.BlacklistEntry {
	e := models.BlacklistEntry{
		ID:         id,
		StaticName: strings.TrimSpace(static),
		Reason:     strings.TrimSpace(reason),
		AddedBy:    addedBy,
		CreatedAt:  now.UnixMilli(),
	}
	if until != nil {
		ms := until.UnixMilli()
		e.Until = &ms
	}
	return e
}
