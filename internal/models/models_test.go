package models

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseApplicationKind(t *testing.T) {
	tests := []struct {
		in   string
		want ApplicationKind
		ok   bool
	}{
		{"membership", ApplicationKindMembership, true},
		{"", ApplicationKindMembership, true},
		{"  Family ", ApplicationKindMembership, true},
		{"restore", ApplicationKindRestoration, true},
		{"unblack", ApplicationKindBlacklistLift, true},
		{"BLACKLIST_LIFT", ApplicationKindBlacklistLift, true},
		{"vip", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseApplicationKind(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormsAskFiveQuestionsInOrder(t *testing.T) {
	want := []string{FieldOOCName, FieldContact, FieldICIdentity, FieldHistory, FieldMotivation}
	for _, k := range ApplicationKinds() {
		form, ok := k.Form()
		require.True(t, ok, k)
		keys := make([]string, 0, len(form.Questions))
		for _, q := range form.Questions {
			keys = append(keys, q.Key)
		}
		assert.Equal(t, want, keys, k)
		assert.NotEmpty(t, form.EmbedTitle)
	}
	assert.False(t, ApplicationKind("vip").Valid())
}

func TestCaseCloneIsIndependent(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := &ApplicationCase{ID: "a", Fields: map[string]string{FieldOOCName: "Ann"}, DecidedAt: &at}

	clone := c.Clone()
	clone.Fields[FieldOOCName] = "Bob"
	*clone.DecidedAt = at.Add(time.Hour)

	assert.Equal(t, "Ann", c.Fields[FieldOOCName])
	assert.Equal(t, at, *c.DecidedAt)
	assert.False(t, c.IsTerminal())
}

func TestActorMention(t *testing.T) {
	assert.Equal(t, "<@42>", Actor{ID: "42", Name: "ann"}.Mention())
	assert.Equal(t, "web form", Actor{Name: "web form"}.Mention())
}

func TestParseControlID(t *testing.T) {
	action, id, ok := ParseControlID(ControlID(ControlAccept, "case-1"))
	require.True(t, ok)
	assert.Equal(t, ControlAccept, action)
	assert.Equal(t, "case-1", id)

	for _, bad := range []string{"accept", "accept:", ":case-1", ""} {
		_, _, ok := ParseControlID(bad)
		assert.False(t, ok, bad)
	}
}

func TestBlacklistEntryExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	until := now.UnixMilli()

	permanent := BlacklistEntry{StaticName: "Vinewood 12"}
	timed := BlacklistEntry{StaticName: "Vinewood 12", Until: &until}

	assert.True(t, permanent.IsPermanent())
	assert.False(t, permanent.IsExpired(now.Add(100*365*24*time.Hour)))
	assert.Equal(t, "Forever", permanent.UntilLabel())

	assert.False(t, timed.IsExpired(now.Add(-time.Millisecond)))
	assert.True(t, timed.IsExpired(now), "expiry is inclusive")
	assert.Equal(t, "2026-03-01 12:00 UTC", timed.UntilLabel())
}

func TestBlacklistEntryMatchesStatic(t *testing.T) {
	e := BlacklistEntry{StaticName: " John Doe 1234 "}
	assert.True(t, e.MatchesStatic("john doe 1234"))
	assert.False(t, e.MatchesStatic("   "))
	assert.False(t, e.MatchesStatic("john doe"))
}

func TestParseAuditAction(t *testing.T) {
	a, ok := ParseAuditAction(" Fire ")
	require.True(t, ok)
	assert.Equal(t, AuditActionFire, a)
	assert.Equal(t, "⛔ Dismissal", a.Title())

	_, ok = ParseAuditAction("ban")
	assert.False(t, ok)
	assert.Equal(t, "ban", AuditAction("ban").Title())
}

func TestMessageAddFieldDash(t *testing.T) {
	var m Message
	m.AddField("Reason", "", false)
	assert.Equal(t, "—", m.Fields[0].Value)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{NewValidationError("bad"), http.StatusBadRequest},
		{NewUnauthorizedError("no"), http.StatusForbidden},
		{NewNotFoundError("Application", "x"), http.StatusNotFound},
		{NewInvalidStateError("done"), http.StatusConflict},
		{NewCollaboratorError("posting", errors.New("boom")), http.StatusBadGateway},
		{fmt.Errorf("wrapped: %w", NewValidationError("bad")), http.StatusBadRequest},
		{errors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
	assert.True(t, IsCode(NewInternalError(errors.New("x")), CodeInternal))
}

func TestBlacklistEntryMatchesIdentity(t *testing.T) {
	tests := []struct {
		static   string
		identity string
		want     bool
	}{
		{"Al", "Alba Rossi 2201", false},
		{"Al", "Tony Al Marino", true},
		{"John Doe#1234", "john doe#1234", true},
		{"1234", "Tony Marino #1234", true},
		{"1234", "Tony Marino #12345", false},
		{"Marino", "Tony Marinov 1234", false},
		{"Жан", "Жан Петров 77", true},
		{"  ", "anything", false},
	}
	for _, tt := range tests {
		t.Run(tt.static+"/"+tt.identity, func(t *testing.T) {
			assert.Equal(t, tt.want, BlacklistEntry{StaticName: tt.static}.MatchesIdentity(tt.identity))
		})
	}
}
