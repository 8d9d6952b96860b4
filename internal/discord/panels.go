package discord

import (
	"versize/internal/models"
	"versize/internal/validation"

	"github.com/bwmarrin/discordgo"
)

var kindButtons = map[models.ApplicationKind]struct {
	label string
	style discordgo.ButtonStyle
}{
	models.ApplicationKindMembership:    {label: "Join the family", style: discordgo.SuccessButton},
	models.ApplicationKindRestoration:   {label: "Return to the family", style: discordgo.PrimaryButton},
	models.ApplicationKindBlacklistLift: {label: "Appeal a blacklist", style: discordgo.SecondaryButton},
}

func applyPanel() *discordgo.InteractionResponseData {
	row := discordgo.ActionsRow{}
	for _, kind := range models.ApplicationKinds() {
		b := kindButtons[kind]
		row.Components = append(row.Components, discordgo.Button{
			Label:    b.label,
			Style:    b.style,
			CustomID: prefixApply + ":" + string(kind),
		})
	}
	return &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{{
			Title:       "📋 Applications",
			Description: "Pick the form that matches your request. A reviewer will answer in a private thread.",
			Color:       models.ColorInfo,
		}},
		Components: []discordgo.MessageComponent{row},
	}
}

func applicationModal(kind models.ApplicationKind, form models.FormSpec) *discordgo.InteractionResponseData {
	rows := make([]discordgo.MessageComponent, 0, len(form.Questions))
	for _, q := range form.Questions {
		style := discordgo.TextInputShort
		if q.Paragraph {
			style = discordgo.TextInputParagraph
		}
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.TextInput{
				CustomID:  q.Key,
				Label:     clip(q.Label, 45),
				Style:     style,
				Required:  true,
				MaxLength: validation.MaxFieldLength,
			},
		}})
	}
	return &discordgo.InteractionResponseData{
		CustomID:   prefixApplyModal + ":" + string(kind),
		Title:      clip(form.FormTitle, 45),
		Components: rows,
	}
}

func denyModal(caseID string) *discordgo.InteractionResponseData {
	return &discordgo.InteractionResponseData{
		CustomID: prefixDenyModal + ":" + caseID,
		Title:    "Deny application",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:  fieldDenyReason,
					Label:     "Reason",
					Style:     discordgo.TextInputParagraph,
					Required:  true,
					MaxLength: validation.MaxFieldLength,
				},
			}},
		},
	}
}
