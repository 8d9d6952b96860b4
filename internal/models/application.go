package models

import (
	"strings"
	"time"
)

// ApplicationKind selects the question labels and titles for an application.
type ApplicationKind string

const (
	// ApplicationKindMembership is a request to join the family.
	ApplicationKindMembership ApplicationKind = "membership"
	// ApplicationKindRestoration is a request from a former member to return.
	ApplicationKindRestoration ApplicationKind = "restoration"
	// ApplicationKindBlacklistLift is a request to be removed from the blacklist.
	ApplicationKindBlacklistLift ApplicationKind = "blacklist_lift"
)

// ApplicationStatus defines lifecycle states for an application case.
type ApplicationStatus string

const (
	// ApplicationStatusPending indicates the case is awaiting a reviewer decision.
	ApplicationStatusPending ApplicationStatus = "pending"
	// ApplicationStatusAccepted indicates a reviewer accepted the case.
	ApplicationStatusAccepted ApplicationStatus = "accepted"
	// ApplicationStatusDenied indicates a reviewer denied the case.
	ApplicationStatusDenied ApplicationStatus = "denied"
)

// ApplicationSource records how a submission reached the engine.
type ApplicationSource string

const (
	ApplicationSourceForm    ApplicationSource = "form"
	ApplicationSourceWebhook ApplicationSource = "webhook"
)

// Application field keys. Every kind asks the same five questions with its own wording.
const (
	FieldOOCName    = "ooc_name"
	FieldContact    = "contact"
	FieldICIdentity = "ic_identity"
	FieldHistory    = "history"
	FieldMotivation = "motivation"
)

// Question is one prompt of an application form.
type Question struct {
	Key       string
	Label     string
	Paragraph bool
}

// FormSpec is the presentation of one application kind.
type FormSpec struct {
	FormTitle  string
	EmbedTitle string
	Questions  []Question
}

var forms = map[ApplicationKind]FormSpec{
	ApplicationKindMembership: {
		FormTitle:  "Family application",
		EmbedTitle: "📥 New family application",
		Questions: []Question{
			{Key: FieldOOCName, Label: "Your name (OOC)"},
			{Key: FieldContact, Label: "Discord (@handle or tag)"},
			{Key: FieldICIdentity, Label: "IC name and static"},
			{Key: FieldHistory, Label: "Previous families and experience", Paragraph: true},
			{Key: FieldMotivation, Label: "Why do you want to join?", Paragraph: true},
		},
	},
	ApplicationKindRestoration: {
		FormTitle:  "Restoration request",
		EmbedTitle: "♻️ Restoration request",
		Questions: []Question{
			{Key: FieldOOCName, Label: "Your name (OOC)"},
			{Key: FieldContact, Label: "Discord (@handle or tag)"},
			{Key: FieldICIdentity, Label: "IC name and static"},
			{Key: FieldHistory, Label: "When and why did you leave?", Paragraph: true},
			{Key: FieldMotivation, Label: "Why should you be restored?", Paragraph: true},
		},
	},
	ApplicationKindBlacklistLift: {
		FormTitle:  "Blacklist appeal",
		EmbedTitle: "⚖️ Blacklist lift request",
		Questions: []Question{
			{Key: FieldOOCName, Label: "Your name (OOC)"},
			{Key: FieldContact, Label: "Discord (@handle or tag)"},
			{Key: FieldICIdentity, Label: "IC name and static"},
			{Key: FieldHistory, Label: "Why were you blacklisted?", Paragraph: true},
			{Key: FieldMotivation, Label: "Why should it be lifted?", Paragraph: true},
		},
	},
}

// ParseApplicationKind accepts the canonical kind names plus the short aliases used by the web form.
func ParseApplicationKind(s string) (ApplicationKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "membership", "family", "":
		return ApplicationKindMembership, true
	case "restoration", "restore":
		return ApplicationKindRestoration, true
	case "blacklist_lift", "unblack", "appeal":
		return ApplicationKindBlacklistLift, true
	default:
		return "", false
	}
}

// Form returns the presentation for the kind.
func (k ApplicationKind) Form() (FormSpec, bool) {
	f, ok := forms[k]
	return f, ok
}

// Valid reports whether k is a known kind.
func (k ApplicationKind) Valid() bool {
	_, ok := forms[k]
	return ok
}

// ApplicationKinds lists kinds in panel order.
func ApplicationKinds() []ApplicationKind {
	return []ApplicationKind{ApplicationKindMembership, ApplicationKindRestoration, ApplicationKindBlacklistLift}
}

// ThreadRef identifies the discussion thread a case owns.
type ThreadRef struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	Name      string `json:"name"`
}

// Actor is a platform identity acting on the engine.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Mention renders the actor the way Discord highlights a user.
func (a Actor) Mention() string {
	if a.ID == "" {
		return a.Name
	}
	return "<@" + a.ID + ">"
}

// ApplicationCase is one submitted application and its review outcome.
type ApplicationCase struct {
	ID             string            `json:"id"`
	Kind           ApplicationKind   `json:"kind"`
	Source         ApplicationSource `json:"source"`
	ApplicantID    string            `json:"applicant_id,omitempty"`
	SubmittedBy    string            `json:"submitted_by"`
	Fields         map[string]string `json:"fields"`
	Thread         ThreadRef         `json:"thread"`
	Status         ApplicationStatus `json:"status"`
	DecidedBy      string            `json:"decided_by,omitempty"`
	DecisionReason string            `json:"decision_reason,omitempty"`
	DecidedAt      *time.Time        `json:"decided_at,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// IsTerminal reports whether the case was already decided.
func (c *ApplicationCase) IsTerminal() bool {
	return c.Status == ApplicationStatusAccepted || c.Status == ApplicationStatusDenied
}

// Clone returns a copy safe to hand out of a repository lock.
func (c *ApplicationCase) Clone() *ApplicationCase {
	out := *c
	out.Fields = make(map[string]string, len(c.Fields))
	for k, v := range c.Fields {
		out.Fields[k] = v
	}
	if c.DecidedAt != nil {
		t := *c.DecidedAt
		out.DecidedAt = &t
	}
	return &out
}

// Submission is an application before it becomes a case.
type Submission struct {
	Kind      ApplicationKind
	Fields    map[string]string
	Submitter Actor
	Source    ApplicationSource
}
