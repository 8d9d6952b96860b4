// Package validation holds input rules for application submissions.
package validation

import (
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"versize/internal/models"
)

// MaxFieldLength is the longest answer accepted for any question.
const MaxFieldLength = 1024

type fieldRule struct {
	key      string
	label    string
	minRunes int
	shape    func(string) error
}

// Rules run in question order so problems come back in form order.
var applicationRules = []fieldRule{
	{key: models.FieldOOCName, label: "name", minRunes: 2},
	{key: models.FieldContact, label: "discord", shape: ValidateContact},
	{key: models.FieldICIdentity, label: "IC name", minRunes: 3},
	{key: models.FieldHistory, label: "history", minRunes: 10},
	{key: models.FieldMotivation, label: "motivation", minRunes: 10},
}

// ValidateContact requires something that looks like a Discord handle or tag.
func ValidateContact(contact string) error {
	if !strings.ContainsAny(contact, "#@") {
		return fmt.Errorf("discord must contain @ or #")
	}
	return nil
}

// OptionalFields lists the answers a source may leave blank.
// The external web form never asked about history.
func OptionalFields(source models.ApplicationSource) []string {
	if source == models.ApplicationSourceWebhook {
		return []string{models.FieldHistory}
	}
	return nil
}

// ValidateApplication checks every field and returns all problems in form order.
// Keys in optional may be blank but are still checked when answered.
// An empty result means the submission may proceed.
func ValidateApplication(fields map[string]string, optional ...string) []string {
	var problems []string
	for _, rule := range applicationRules {
		value := strings.TrimSpace(fields[rule.key])
		n := utf8.RuneCountInString(value)

		switch {
		case value == "" && slices.Contains(optional, rule.key):
		case value == "":
			problems = append(problems, fmt.Sprintf("%s is required", rule.label))
		case n < rule.minRunes:
			problems = append(problems, fmt.Sprintf("%s must be at least %d characters", rule.label, rule.minRunes))
		case n > MaxFieldLength:
			problems = append(problems, fmt.Sprintf("%s must be at most %d characters", rule.label, MaxFieldLength))
		case rule.shape != nil:
			if err := rule.shape(value); err != nil {
				problems = append(problems, err.Error())
			}
		}
	}
	return problems
}

// NormalizeFields trims every known answer and drops unknown keys.
func NormalizeFields(fields map[string]string) map[string]string {
	out := make(map[string]string, len(applicationRules))
	for _, rule := range applicationRules {
		out[rule.key] = strings.TrimSpace(fields[rule.key])
	}
	return out
}
