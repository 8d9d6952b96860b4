package service

import (
	"fmt"
	"strings"

	"versize/internal/models"
)

func roleMentions(roleIDs []string) string {
	mentions := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		mentions = append(mentions, "<@&"+id+">")
	}
	return strings.Join(mentions, " ")
}

func applicantLabel(c *models.ApplicationCase) string {
	if c.ApplicantID != "" {
		return "<@" + c.ApplicantID + ">"
	}
	if contact := c.Fields[models.FieldContact]; contact != "" {
		return contact
	}
	return c.SubmittedBy
}

func applicationMessage(form models.FormSpec, c *models.ApplicationCase, reviewerRoles []string) models.Message {
	msg := models.Message{
		Content:     roleMentions(reviewerRoles),
		Title:       form.EmbedTitle,
		Description: "Applicant: " + applicantLabel(c),
		Color:       models.ColorInfo,
		Footer:      fmt.Sprintf("Application %s · via %s", c.ID, c.Source),
	}
	for _, q := range form.Questions {
		msg.AddField(q.Label, c.Fields[q.Key], !q.Paragraph)
	}
	return msg
}

func decisionControls(caseID string) []models.Control {
	return []models.Control{
		{ID: models.ControlID(models.ControlAccept, caseID), Label: "Accept", Style: models.ControlStyleSuccess},
		{ID: models.ControlID(models.ControlDeny, caseID), Label: "Deny", Style: models.ControlStyleDanger},
	}
}

func decisionNotice(c *models.ApplicationCase, reviewer models.Actor) models.Message {
	if c.Status == models.ApplicationStatusAccepted {
		return models.Message{
			Title:       "✅ Application accepted",
			Description: fmt.Sprintf("%s, welcome to the family. Accepted by %s.", applicantLabel(c), reviewer.Mention()),
			Color:       models.ColorSuccess,
		}
	}
	msg := models.Message{
		Title:       "❌ Application denied",
		Description: fmt.Sprintf("Denied by %s.", reviewer.Mention()),
		Color:       models.ColorDanger,
	}
	msg.AddField("Reason", c.DecisionReason, false)
	return msg
}

func decisionLog(c *models.ApplicationCase, reviewer models.Actor) models.Message {
	msg := models.Message{Title: "📗 Application accepted", Color: models.ColorSuccess}
	if c.Status == models.ApplicationStatusDenied {
		msg = models.Message{Title: "📕 Application denied", Color: models.ColorDanger}
	}
	msg.AddField("Thread", c.Thread.Name, true)
	msg.AddField("Applicant", applicantLabel(c), true)
	msg.AddField("Reviewer", reviewer.Mention(), true)
	if c.Status == models.ApplicationStatusDenied {
		msg.AddField("Reason", c.DecisionReason, false)
	}
	msg.Footer = "Application " + c.ID
	return msg
}

func blacklistAddedMessage(e models.BlacklistEntry) models.Message {
	msg := models.Message{Title: "⛔ Added to blacklist", Color: models.ColorDanger}
	msg.AddField("Static", e.StaticName, true)
	msg.AddField("Until", e.UntilLabel(), true)
	msg.AddField("Added by", "<@"+e.AddedBy+">", true)
	msg.AddField("Reason", e.Reason, false)
	return msg
}

func blacklistRemovedMessage(key string, actor models.Actor) models.Message {
	msg := models.Message{Title: "✅ Removed from blacklist", Color: models.ColorSuccess}
	msg.AddField("Static", key, true)
	msg.AddField("Removed by", actor.Mention(), true)
	return msg
}

func blacklistExpiredMessage(e models.BlacklistEntry) models.Message {
	msg := models.Message{Title: "⌛ Blacklist expired", Color: models.ColorMuted}
	msg.AddField("Static", e.StaticName, true)
	msg.AddField("Added by", "<@"+e.AddedBy+">", true)
	msg.AddField("Reason", e.Reason, false)
	return msg
}

func auditMessage(e models.AuditEntry) models.Message {
	msg := models.Message{Title: e.Action.Title(), Color: models.ColorWarning}
	if e.Action == models.AuditActionFire {
		msg.Color = models.ColorDanger
	}
	msg.AddField("Actor", e.Actor.Mention(), true)
	msg.AddField("Target", e.Target.Mention(), true)
	if e.FromRank != "" || e.ToRank != "" {
		msg.AddField("From rank", e.FromRank, true)
		msg.AddField("To rank", e.ToRank, true)
	}
	msg.AddField("Reason", e.Reason, false)
	msg.Footer = e.Timestamp.UTC().Format("2006-01-02 15:04 MST")
	return msg
}

// FormatBlacklist renders up to limit entries, one per line.
func FormatBlacklist(entries []models.BlacklistEntry, limit int) string {
	if len(entries) == 0 {
		return "The blacklist is empty."
	}
	var b strings.Builder
	for i, e := range entries {
		if limit > 0 && i == limit {
			fmt.Fprintf(&b, "…and %d more", len(entries)-limit)
			break
		}
		fmt.Fprintf(&b, "• %s — %s — <@%s> — %s\n", e.StaticName, e.Reason, e.AddedBy, e.UntilLabel())
	}
	return strings.TrimRight(b.String(), "\n")
}
