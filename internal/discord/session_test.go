package discord

import (
	"errors"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// fakeSession is an in-memory guild: channels, members and interaction replies.
type fakeSession struct {
	mu       sync.Mutex
	channels map[string]*discordgo.Channel
	members  map[string]*discordgo.Member
	nextID   int

	sent      map[string][]*discordgo.MessageSend
	edits     map[string][]bool
	roleAdds  []string
	kicks     []string
	responses []*discordgo.InteractionResponse
	replies   []string

	sendErr error
	kickErr error
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		channels: map[string]*discordgo.Channel{},
		members:  map[string]*discordgo.Member{},
		sent:     map[string][]*discordgo.MessageSend{},
		edits:    map[string][]bool{},
	}
}

func (f *fakeSession) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeSession) Channel(channelID string, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, errors.New("unknown channel")
	}
	cp := *ch
	return &cp, nil
}

func (f *fakeSession) ChannelEditComplex(channelID string, data *discordgo.ChannelEdit, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, errors.New("unknown channel")
	}
	if data.Archived != nil {
		if ch.ThreadMetadata == nil {
			ch.ThreadMetadata = &discordgo.ThreadMetadata{}
		}
		ch.ThreadMetadata.Archived = *data.Archived
		f.edits[channelID] = append(f.edits[channelID], *data.Archived)
	}
	return ch, nil
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.sent[channelID] = append(f.sent[channelID], data)
	return &discordgo.Message{ID: f.id("msg"), ChannelID: channelID}, nil
}

func (f *fakeSession) ForumThreadStartComplex(channelID string, threadData *discordgo.ThreadStart, messageData *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	th := &discordgo.Channel{ID: f.id("post"), ParentID: channelID, Name: threadData.Name, Type: discordgo.ChannelTypeGuildPublicThread, ThreadMetadata: &discordgo.ThreadMetadata{}}
	f.channels[th.ID] = th
	f.sent[th.ID] = append(f.sent[th.ID], messageData)
	return th, nil
}

func (f *fakeSession) MessageThreadStartComplex(channelID, _ string, data *discordgo.ThreadStart, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	th := &discordgo.Channel{ID: f.id("thread"), ParentID: channelID, Name: data.Name, Type: data.Type, ThreadMetadata: &discordgo.ThreadMetadata{}}
	f.channels[th.ID] = th
	return th, nil
}

func (f *fakeSession) GuildMember(_, userID string, _ ...discordgo.RequestOption) (*discordgo.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[userID]
	if !ok {
		return nil, errors.New("unknown member")
	}
	return m, nil
}

func (f *fakeSession) GuildMemberRoleAdd(_, userID, roleID string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roleAdds = append(f.roleAdds, userID+":"+roleID)
	return nil
}

func (f *fakeSession) GuildMemberDeleteWithReason(_, userID, reason string, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kicks = append(f.kicks, userID+":"+reason)
	return f.kickErr
}

func (f *fakeSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeSession) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if edit.Content != nil {
		f.replies = append(f.replies, *edit.Content)
	}
	return &discordgo.Message{}, nil
}

func (f *fakeSession) lastResponse() *discordgo.InteractionResponse {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.responses) == 0 {
		return nil
	}
	return f.responses[len(f.responses)-1]
}

func (f *fakeSession) lastReply() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.replies) == 0 {
		return ""
	}
	return f.replies[len(f.replies)-1]
}
