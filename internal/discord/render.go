package discord

import (
	"unicode/utf8"

	"versize/internal/models"

	"github.com/bwmarrin/discordgo"
)

// Discord embed limits.
const (
	maxTitle       = 256
	maxDescription = 4096
	maxFieldName   = 256
	maxFieldValue  = 1024
	maxFooter      = 2048
	maxThreadName  = 100
	maxContent     = 2000
)

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

// Embed renders a message as a Discord embed.
func Embed(msg models.Message) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       clip(msg.Title, maxTitle),
		Description: clip(msg.Description, maxDescription),
		Color:       msg.Color,
	}
	for _, f := range msg.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{
			Name:   clip(f.Name, maxFieldName),
			Value:  clip(f.Value, maxFieldValue),
			Inline: f.Inline,
		})
	}
	if msg.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: clip(msg.Footer, maxFooter)}
	}
	return e
}

var buttonStyles = map[models.ControlStyle]discordgo.ButtonStyle{
	models.ControlStylePrimary: discordgo.PrimaryButton,
	models.ControlStyleSuccess: discordgo.SuccessButton,
	models.ControlStyleDanger:  discordgo.DangerButton,
}

// Components renders controls as one row of buttons.
func Components(controls []models.Control) []discordgo.MessageComponent {
	if len(controls) == 0 {
		return nil
	}
	row := discordgo.ActionsRow{}
	for _, c := range controls {
		style, ok := buttonStyles[c.Style]
		if !ok {
			style = discordgo.SecondaryButton
		}
		row.Components = append(row.Components, discordgo.Button{
			Label:    c.Label,
			Style:    style,
			CustomID: c.ID,
		})
	}
	return []discordgo.MessageComponent{row}
}

func messageSend(msg models.Message, controls []models.Control) *discordgo.MessageSend {
	return &discordgo.MessageSend{
		Content:    clip(msg.Content, maxContent),
		Embeds:     []*discordgo.MessageEmbed{Embed(msg)},
		Components: Components(controls),
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeRoles, discordgo.AllowedMentionTypeUsers},
		},
	}
}
