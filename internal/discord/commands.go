package discord

import (
	"versize/internal/models"

	"github.com/bwmarrin/discordgo"
)

var reviewerOnly = int64(discordgo.PermissionManageMessages)

func stringOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func auditChoices() []*discordgo.ApplicationCommandOptionChoice {
	actions := []models.AuditAction{
		models.AuditActionPromote,
		models.AuditActionDemote,
		models.AuditActionWarn,
		models.AuditActionFire,
		models.AuditActionGiveRank,
	}
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(actions))
	for _, a := range actions {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: a.Title(), Value: string(a)})
	}
	return choices
}

// Commands is the guild command set the router handles.
// Discord hides them from members without Manage Messages; the router still checks reviewer roles.
func Commands() []*discordgo.ApplicationCommand {
	action := stringOption("action", "What happened", true)
	action.Choices = auditChoices()

	return []*discordgo.ApplicationCommand{
		{
			Name:                     CommandApplyPanel,
			Description:              "Post the application panel in this channel",
			DefaultMemberPermissions: &reviewerOnly,
		},
		{
			Name:                     CommandAudit,
			Description:              "Record a staff action",
			DefaultMemberPermissions: &reviewerOnly,
			Options: []*discordgo.ApplicationCommandOption{
				action,
				{Type: discordgo.ApplicationCommandOptionUser, Name: "target", Description: "Member the action applies to", Required: true},
				stringOption("reason", "Why", false),
				stringOption("from_rank", "Previous rank", false),
				stringOption("to_rank", "New rank", false),
			},
		},
		{
			Name:                     CommandBlacklistAdd,
			Description:              "Blacklist a static",
			DefaultMemberPermissions: &reviewerOnly,
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("static", "IC name and static", true),
				stringOption("reason", "Why", true),
				stringOption("duration", "permanent, or a number of hours or days such as 12h or 7d", false),
			},
		},
		{
			Name:                     CommandBlacklistRemove,
			Description:              "Remove a blacklist entry",
			DefaultMemberPermissions: &reviewerOnly,
			Options: []*discordgo.ApplicationCommandOption{
				stringOption("key", "Entry id or static", true),
			},
		},
		{
			Name:                     CommandBlacklistList,
			Description:              "Show active blacklist entries",
			DefaultMemberPermissions: &reviewerOnly,
		},
	}
}

// RegisterCommands replaces the guild's commands with Commands().
func RegisterCommands(s *discordgo.Session, appID, guildID string) error {
	_, err := s.ApplicationCommandBulkOverwrite(appID, guildID, Commands())
	return err
}
