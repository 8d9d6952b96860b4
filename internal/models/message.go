package models

import "strings"

// Message colors.
const (
	ColorInfo    = 0x5865F2
	ColorSuccess = 0x2ECC71
	ColorDanger  = 0xE74C3C
	ColorWarning = 0xF1C40F
	ColorMuted   = 0x95A5A6
)

// MessageField is one name/value row of a Message.
type MessageField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Message is a platform-neutral notification. The Discord adapter renders it as an embed.
type Message struct {
	// Content is plain text sent alongside the card, used for mentions.
	Content     string         `json:"content,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Fields      []MessageField `json:"fields,omitempty"`
	Color       int            `json:"color,omitempty"`
	Footer      string         `json:"footer,omitempty"`
}

// AddField appends a row, substituting a dash for empty values.
func (m *Message) AddField(name, value string, inline bool) {
	if value == "" {
		value = "—"
	}
	m.Fields = append(m.Fields, MessageField{Name: name, Value: value, Inline: inline})
}

// ControlStyle is the visual weight of a Control.
type ControlStyle string

const (
	ControlStylePrimary ControlStyle = "primary"
	ControlStyleSuccess ControlStyle = "success"
	ControlStyleDanger  ControlStyle = "danger"
)

// Control is an actionable button attached to a message.
type Control struct {
	ID    string       `json:"id"`
	Label string       `json:"label"`
	Style ControlStyle `json:"style"`
}

// Control actions carried in control ids as "<action>:<case id>".
const (
	ControlAccept = "accept"
	ControlDeny   = "deny"
)

// ControlID builds the id of a case decision control.
func ControlID(action, caseID string) string {
	return action + ":" + caseID
}

// ParseControlID splits a control id built by ControlID.
func ParseControlID(id string) (action, caseID string, ok bool) {
	action, caseID, ok = strings.Cut(id, ":")
	if !ok || action == "" || caseID == "" {
		return "", "", false
	}
	return action, caseID, true
}
