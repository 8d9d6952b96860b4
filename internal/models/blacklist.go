package models

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// BlacklistEntry is a banned identity. Timestamps are epoch milliseconds so the
// file layout stays compatible with existing blacklist.json files.
type BlacklistEntry struct {
	ID         string `json:"id"`
	StaticName string `json:"static"`
	Reason     string `json:"reason"`
	AddedBy    string `json:"addedBy"`
	CreatedAt  int64  `json:"createdAt"`
	// Until is nil for permanent entries.
	Until *int64 `json:"until"`
}

// BlacklistDocument is the persisted collection.
type BlacklistDocument struct {
	Items []BlacklistEntry `json:"items"`
}

// IsPermanent reports whether the entry never expires.
func (e BlacklistEntry) IsPermanent() bool {
	return e.Until == nil
}

// IsExpired reports whether now is at or past the entry's expiry.
func (e BlacklistEntry) IsExpired(now time.Time) bool {
	return e.Until != nil && *e.Until <= now.UnixMilli()
}

// ExpiresAt returns the expiry instant, or nil when permanent.
func (e BlacklistEntry) ExpiresAt() *time.Time {
	if e.Until == nil {
		return nil
	}
	t := time.UnixMilli(*e.Until).UTC()
	return &t
}

// Created returns CreatedAt as a time.
func (e BlacklistEntry) Created() time.Time {
	return time.UnixMilli(e.CreatedAt).UTC()
}

// MatchesStatic compares static names case-insensitively after trimming.
func (e BlacklistEntry) MatchesStatic(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && strings.EqualFold(strings.TrimSpace(e.StaticName), name)
}

// MatchesIdentity reports whether the static appears in an IC identity such as
// "Tony Marino #1234" as a whole word run, ignoring case. "Al" does not match "Alba".
func (e BlacklistEntry) MatchesIdentity(identity string) bool {
	static := strings.ToLower(strings.TrimSpace(e.StaticName))
	if static == "" {
		return false
	}
	identity = strings.ToLower(identity)
	for offset := 0; offset < len(identity); {
		i := strings.Index(identity[offset:], static)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(static)
		if boundary(identity, start, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(identity[start:])
		offset = start + size
	}
	return false
}

// boundary reports whether s[start:end] is not glued to a letter or digit on either side.
func boundary(s string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s[:start]); isWordRune(r) {
			return false
		}
	}
	if end < len(s) {
		if r, _ := utf8.DecodeRuneInString(s[end:]); isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// UntilLabel is the human form of the expiry used in listings.
func (e BlacklistEntry) UntilLabel() string {
	if at := e.ExpiresAt(); at != nil {
		return at.Format("2006-01-02 15:04 MST")
	}
	return "Forever"
}
