package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"versize/internal/middleware"
	"versize/internal/models"
	"versize/internal/service"

	"github.com/bwmarrin/discordgo"
)

// Interaction ids. Buttons and modals carry their argument after the colon.
const (
	CommandApplyPanel      = "apply-panel"
	CommandAudit           = "audit"
	CommandBlacklistAdd    = "blacklist-add"
	CommandBlacklistRemove = "blacklist-remove"
	CommandBlacklistList   = "blacklist-list"

	prefixApply      = "apply"
	prefixApplyModal = "apply_modal"
	prefixDenyModal  = "deny_modal"
	fieldDenyReason  = "reason"

	blacklistListLimit = 20
)

// Router answers slash commands, button presses and modal submits.
type Router struct {
	session   Session
	reviews   *service.ReviewService
	blacklist *service.BlacklistService
	audit     *service.AuditService
}

// NewRouter returns a Router replying through session.
func NewRouter(session Session, reviews *service.ReviewService, blacklist *service.BlacklistService, audit *service.AuditService) *Router {
	return &Router{session: session, reviews: reviews, blacklist: blacklist, audit: audit}
}

// Handler adapts the router to discordgo's event handler signature.
func (r *Router) Handler() func(*discordgo.Session, *discordgo.InteractionCreate) {
	return func(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
		r.Handle(context.Background(), ic.Interaction)
	}
}

// Handle dispatches one interaction. Failures are reported to the user and logged.
func (r *Router) Handle(ctx context.Context, i *discordgo.Interaction) {
	ctx = middleware.WithInteraction(ctx, i.ID, actorOf(i).ID)
	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "interaction handler panicked", "panic", rec, "interaction_id", i.ID)
		}
	}()

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		r.handleCommand(ctx, i)
	case discordgo.InteractionMessageComponent:
		r.handleComponent(ctx, i)
	case discordgo.InteractionModalSubmit:
		r.handleModal(ctx, i)
	}
}

func (r *Router) handleCommand(ctx context.Context, i *discordgo.Interaction) {
	data := i.ApplicationCommandData()
	actor := actorOf(i)
	opts := optionMap(data.Options)

	switch data.Name {
	case CommandApplyPanel:
		if err := r.reviews.Authorize(ctx, actor); err != nil {
			r.replyEphemeral(ctx, i, userMessage(err))
			return
		}
		r.respond(ctx, i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: applyPanel(),
		})

	case CommandAudit:
		r.deferEphemeral(ctx, i)
		entry, err := r.audit.RecordAuthorized(ctx, models.AuditEntry{
			Action:   models.AuditAction(opts.str("action")),
			Actor:    actor,
			Target:   opts.user(data.Resolved, "target"),
			FromRank: opts.str("from_rank"),
			ToRank:   opts.str("to_rank"),
			Reason:   opts.str("reason"),
		})
		if err != nil {
			r.editReply(ctx, i, userMessage(err))
			return
		}
		r.editReply(ctx, i, fmt.Sprintf("%s recorded for %s.", entry.Action.Title(), entry.Target.Mention()))

	case CommandBlacklistAdd:
		r.deferEphemeral(ctx, i)
		entry, err := r.blacklist.Add(ctx, actor, opts.str("static"), opts.str("reason"), opts.str("duration"))
		if err != nil {
			r.editReply(ctx, i, userMessage(err))
			return
		}
		r.editReply(ctx, i, fmt.Sprintf("Added **%s** to the blacklist until %s.", entry.StaticName, entry.UntilLabel()))

	case CommandBlacklistRemove:
		r.deferEphemeral(ctx, i)
		key := opts.str("key")
		removed, err := r.blacklist.Remove(ctx, actor, key)
		switch {
		case err != nil:
			r.editReply(ctx, i, userMessage(err))
		case removed:
			r.editReply(ctx, i, fmt.Sprintf("Removed **%s** from the blacklist.", key))
		default:
			r.editReply(ctx, i, fmt.Sprintf("No blacklist entry matches **%s**.", key))
		}

	case CommandBlacklistList:
		if err := r.reviews.Authorize(ctx, actor); err != nil {
			r.replyEphemeral(ctx, i, userMessage(err))
			return
		}
		r.replyEphemeral(ctx, i, service.FormatBlacklist(r.blacklist.ListActive(ctx), blacklistListLimit))

	default:
		slog.WarnContext(ctx, "unknown command", "command", data.Name)
		r.replyEphemeral(ctx, i, "Unknown command.")
	}
}

func (r *Router) handleComponent(ctx context.Context, i *discordgo.Interaction) {
	prefix, arg, ok := strings.Cut(i.MessageComponentData().CustomID, ":")
	if !ok {
		return
	}
	actor := actorOf(i)

	switch prefix {
	case prefixApply:
		kind, ok := models.ParseApplicationKind(arg)
		if !ok {
			r.replyEphemeral(ctx, i, "This application form is no longer available.")
			return
		}
		form, _ := kind.Form()
		r.respond(ctx, i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseModal,
			Data: applicationModal(kind, form),
		})

	case models.ControlAccept:
		r.deferEphemeral(ctx, i)
		if _, err := r.reviews.Accept(ctx, arg, actor); err != nil {
			r.editReply(ctx, i, userMessage(err))
			return
		}
		r.editReply(ctx, i, "Application accepted.")

	case models.ControlDeny:
		if err := r.reviews.Authorize(ctx, actor); err != nil {
			r.replyEphemeral(ctx, i, userMessage(err))
			return
		}
		r.respond(ctx, i, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseModal,
			Data: denyModal(arg),
		})
	}
}

func (r *Router) handleModal(ctx context.Context, i *discordgo.Interaction) {
	data := i.ModalSubmitData()
	prefix, arg, ok := strings.Cut(data.CustomID, ":")
	if !ok {
		return
	}
	values := modalValues(data.Components)
	actor := actorOf(i)

	switch prefix {
	case prefixApplyModal:
		r.deferEphemeral(ctx, i)
		kind, _ := models.ParseApplicationKind(arg)
		c, err := r.reviews.Submit(ctx, models.Submission{
			Kind:      kind,
			Fields:    values,
			Submitter: actor,
			Source:    models.ApplicationSourceForm,
		})
		if err != nil {
			r.editReply(ctx, i, userMessage(err))
			return
		}
		r.editReply(ctx, i, fmt.Sprintf("Your application was submitted: <#%s>", c.Thread.ID))

	case prefixDenyModal:
		r.deferEphemeral(ctx, i)
		if _, err := r.reviews.Deny(ctx, arg, actor, values[fieldDenyReason]); err != nil {
			r.editReply(ctx, i, userMessage(err))
			return
		}
		r.editReply(ctx, i, "Application denied.")
	}
}

func (r *Router) respond(ctx context.Context, i *discordgo.Interaction, resp *discordgo.InteractionResponse) {
	if err := r.session.InteractionRespond(i, resp, discordgo.WithContext(ctx)); err != nil {
		slog.ErrorContext(ctx, "interaction response failed", "error", err, "interaction_id", i.ID)
	}
}

func (r *Router) replyEphemeral(ctx context.Context, i *discordgo.Interaction, content string) {
	r.respond(ctx, i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: clip(content, maxContent), Flags: discordgo.MessageFlagsEphemeral},
	})
}

func (r *Router) deferEphemeral(ctx context.Context, i *discordgo.Interaction) {
	r.respond(ctx, i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
}

func (r *Router) editReply(ctx context.Context, i *discordgo.Interaction, content string) {
	content = clip(content, maxContent)
	if _, err := r.session.InteractionResponseEdit(i, &discordgo.WebhookEdit{Content: &content}, discordgo.WithContext(ctx)); err != nil {
		slog.ErrorContext(ctx, "interaction reply failed", "error", err, "interaction_id", i.ID)
	}
}

// userMessage turns an engine error into a short reply.
func userMessage(err error) string {
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code == models.CodeInternal {
		return "Something went wrong, please try again later."
	}
	if len(appErr.Problems) == 0 {
		return appErr.Message
	}
	var b strings.Builder
	b.WriteString(appErr.Message)
	for _, p := range appErr.Problems {
		b.WriteString("\n• ")
		b.WriteString(p)
	}
	return b.String()
}

func actorOf(i *discordgo.Interaction) models.Actor {
	var u *discordgo.User
	var nick string
	if i.Member != nil {
		u = i.Member.User
		nick = i.Member.Nick
	}
	if u == nil {
		u = i.User
	}
	if u == nil {
		return models.Actor{}
	}
	return models.Actor{ID: u.ID, Name: displayName(u, nick)}
}

func displayName(u *discordgo.User, nick string) string {
	switch {
	case nick != "":
		return nick
	case u.GlobalName != "":
		return u.GlobalName
	default:
		return u.Username
	}
}

type options map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionMap(opts []*discordgo.ApplicationCommandInteractionDataOption) options {
	m := make(options, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

func (o options) str(name string) string {
	opt, ok := o[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionString {
		return ""
	}
	return strings.TrimSpace(opt.StringValue())
}

func (o options) user(resolved *discordgo.ApplicationCommandInteractionDataResolved, name string) models.Actor {
	opt, ok := o[name]
	if !ok || opt.Type != discordgo.ApplicationCommandOptionUser {
		return models.Actor{}
	}
	u := opt.UserValue(nil)
	if resolved != nil {
		if full, ok := resolved.Users[u.ID]; ok {
			nick := ""
			if m, ok := resolved.Members[u.ID]; ok {
				nick = m.Nick
			}
			return models.Actor{ID: full.ID, Name: displayName(full, nick)}
		}
	}
	return models.Actor{ID: u.ID}
}

// modalValues flattens submitted text inputs into custom id → value.
func modalValues(rows []discordgo.MessageComponent) map[string]string {
	out := make(map[string]string)
	for _, c := range rows {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, inner := range row.Components {
			if ti, ok := inner.(*discordgo.TextInput); ok {
				out[ti.CustomID] = ti.Value
			}
		}
	}
	return out
}
