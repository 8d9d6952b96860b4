package discord

import (
	"context"
	"fmt"

	"versize/internal/models"

	"github.com/bwmarrin/discordgo"
)

// archiveAfterMinutes is the longest auto-archive window Discord offers (one week).
const archiveAfterMinutes = 10080

// Gateway implements the engine's Discussion, Members and Sink ports against one guild.
type Gateway struct {
	session            Session
	guildID            string
	applicationChannel string
	reviewerRoles      map[string]struct{}
}

// NewGateway returns a Gateway that opens review threads in applicationChannel,
// which may be a forum or a text channel.
func NewGateway(session Session, guildID, applicationChannel string, reviewerRoles []string) *Gateway {
	roles := make(map[string]struct{}, len(reviewerRoles))
	for _, r := range reviewerRoles {
		roles[r] = struct{}{}
	}
	return &Gateway{
		session:            session,
		guildID:            guildID,
		applicationChannel: applicationChannel,
		reviewerRoles:      roles,
	}
}

// OpenThread posts the application and binds a thread to it. Forum channels get a post,
// text channels get a message with a thread started from it.
func (g *Gateway) OpenThread(ctx context.Context, title string, msg models.Message, controls []models.Control) (models.ThreadRef, error) {
	ch, err := g.session.Channel(g.applicationChannel, discordgo.WithContext(ctx))
	if err != nil {
		return models.ThreadRef{}, fmt.Errorf("fetch application channel: %w", err)
	}

	name := clip(title, maxThreadName)
	start := &discordgo.ThreadStart{Name: name, AutoArchiveDuration: archiveAfterMinutes}
	send := messageSend(msg, controls)

	var thread *discordgo.Channel
	if ch.Type == discordgo.ChannelTypeGuildForum {
		thread, err = g.session.ForumThreadStartComplex(ch.ID, start, send, discordgo.WithContext(ctx))
		if err != nil {
			return models.ThreadRef{}, fmt.Errorf("start forum post: %w", err)
		}
	} else {
		m, err := g.session.ChannelMessageSendComplex(ch.ID, send, discordgo.WithContext(ctx))
		if err != nil {
			return models.ThreadRef{}, fmt.Errorf("send application message: %w", err)
		}
		start.Type = discordgo.ChannelTypeGuildPublicThread
		thread, err = g.session.MessageThreadStartComplex(ch.ID, m.ID, start, discordgo.WithContext(ctx))
		if err != nil {
			return models.ThreadRef{}, fmt.Errorf("start thread: %w", err)
		}
	}

	return models.ThreadRef{ID: thread.ID, ChannelID: ch.ID, Name: thread.Name}, nil
}

// PostMessage sends msg into the thread.
func (g *Gateway) PostMessage(ctx context.Context, thread models.ThreadRef, msg models.Message) error {
	_, err := g.session.ChannelMessageSendComplex(thread.ID, messageSend(msg, nil), discordgo.WithContext(ctx))
	return err
}

// IsArchived reports the thread's archive flag.
func (g *Gateway) IsArchived(ctx context.Context, thread models.ThreadRef) (bool, error) {
	ch, err := g.session.Channel(thread.ID, discordgo.WithContext(ctx))
	if err != nil {
		return false, err
	}
	return ch.ThreadMetadata != nil && ch.ThreadMetadata.Archived, nil
}

// Reactivate unarchives the thread so messages can be posted.
func (g *Gateway) Reactivate(ctx context.Context, thread models.ThreadRef) error {
	return g.setArchived(ctx, thread, false)
}

// Archive closes the thread, keeping it as the record of the decision.
func (g *Gateway) Archive(ctx context.Context, thread models.ThreadRef) error {
	return g.setArchived(ctx, thread, true)
}

func (g *Gateway) setArchived(ctx context.Context, thread models.ThreadRef, archived bool) error {
	_, err := g.session.ChannelEditComplex(thread.ID, &discordgo.ChannelEdit{Archived: &archived}, discordgo.WithContext(ctx))
	return err
}

// HasReviewCapability reports whether the member holds any reviewer role.
func (g *Gateway) HasReviewCapability(ctx context.Context, userID string) (bool, error) {
	member, err := g.session.GuildMember(g.guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return false, err
	}
	return g.hasReviewerRole(member.Roles), nil
}

func (g *Gateway) hasReviewerRole(roles []string) bool {
	for _, r := range roles {
		if _, ok := g.reviewerRoles[r]; ok {
			return true
		}
	}
	return false
}

func (g *Gateway) GrantRole(ctx context.Context, userID, roleID string) error {
	return g.session.GuildMemberRoleAdd(g.guildID, userID, roleID, discordgo.WithContext(ctx))
}

func (g *Gateway) Kick(ctx context.Context, userID, reason string) error {
	return g.session.GuildMemberDeleteWithReason(g.guildID, userID, clip(reason, 512), discordgo.WithContext(ctx))
}

// Notify sends msg to a channel.
func (g *Gateway) Notify(ctx context.Context, channelID string, msg models.Message) error {
	_, err := g.session.ChannelMessageSendComplex(channelID, messageSend(msg, nil), discordgo.WithContext(ctx))
	return err
}
