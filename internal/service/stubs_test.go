package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"versize/internal/models"
)

// callLog records collaborator calls in order. Stubs share one log per test.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, name)
}

func (l *callLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *callLog) count(name string) int {
	n := 0
	for _, c := range l.snapshot() {
		if c == name {
			n++
		}
	}
	return n
}

type discussionStub struct {
	log           *callLog
	openThreadFn  func(context.Context, string, models.Message, []models.Control) (models.ThreadRef, error)
	postMessageFn func(context.Context, models.ThreadRef, models.Message) error
	isArchivedFn  func(context.Context, models.ThreadRef) (bool, error)
	reactivateFn  func(context.Context, models.ThreadRef) error
	archiveFn     func(context.Context, models.ThreadRef) error
}

func (s *discussionStub) OpenThread(ctx context.Context, title string, msg models.Message, controls []models.Control) (models.ThreadRef, error) {
	s.log.add("open_thread")
	return s.openThreadFn(ctx, title, msg, controls)
}
func (s *discussionStub) PostMessage(ctx context.Context, thread models.ThreadRef, msg models.Message) error {
	s.log.add("post_message")
	return s.postMessageFn(ctx, thread, msg)
}
func (s *discussionStub) IsArchived(ctx context.Context, thread models.ThreadRef) (bool, error) {
	s.log.add("is_archived")
	return s.isArchivedFn(ctx, thread)
}
func (s *discussionStub) Reactivate(ctx context.Context, thread models.ThreadRef) error {
	s.log.add("reactivate")
	return s.reactivateFn(ctx, thread)
}
func (s *discussionStub) Archive(ctx context.Context, thread models.ThreadRef) error {
	s.log.add("archive")
	return s.archiveFn(ctx, thread)
}

type membersStub struct {
	log         *callLog
	hasReviewFn func(context.Context, string) (bool, error)
	grantRoleFn func(context.Context, string, string) error
	kickFn      func(context.Context, string, string) error
}

func (s *membersStub) HasReviewCapability(ctx context.Context, userID string) (bool, error) {
	return s.hasReviewFn(ctx, userID)
}
func (s *membersStub) GrantRole(ctx context.Context, userID, roleID string) error {
	s.log.add("grant_role")
	return s.grantRoleFn(ctx, userID, roleID)
}
func (s *membersStub) Kick(ctx context.Context, userID, reason string) error {
	s.log.add("kick")
	return s.kickFn(ctx, userID, reason)
}

type sentMessage struct {
	channelID string
	msg       models.Message
}

type sinkStub struct {
	log      *callLog
	mu       sync.Mutex
	sent     []sentMessage
	notifyFn func(context.Context, string, models.Message) error
}

func (s *sinkStub) Notify(ctx context.Context, channelID string, msg models.Message) error {
	s.log.add("notify")
	s.mu.Lock()
	s.sent = append(s.sent, sentMessage{channelID: channelID, msg: msg})
	s.mu.Unlock()
	return s.notifyFn(ctx, channelID, msg)
}

func (s *sinkStub) messages() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.sent...)
}

type eventsStub struct {
	mu     sync.Mutex
	events []models.Event
}

func (s *eventsStub) Publish(_ context.Context, event models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *eventsStub) types() []models.EventType {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.EventType, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Type)
	}
	return out
}

func noopDiscussion(log *callLog) *discussionStub {
	return &discussionStub{
		log: log,
		openThreadFn: func(_ context.Context, title string, _ models.Message, _ []models.Control) (models.ThreadRef, error) {
			return models.ThreadRef{ID: "thread-1", ChannelID: "forum-1", Name: title}, nil
		},
		postMessageFn: func(context.Context, models.ThreadRef, models.Message) error { return nil },
		isArchivedFn:  func(context.Context, models.ThreadRef) (bool, error) { return false, nil },
		reactivateFn:  func(context.Context, models.ThreadRef) error { return nil },
		archiveFn:     func(context.Context, models.ThreadRef) error { return nil },
	}
}

// reviewersOnly grants the review capability to the listed ids.
func reviewersOnly(log *callLog, ids ...string) *membersStub {
	allowed := make(map[string]bool, len(ids))
	for _, id := range ids {
		allowed[id] = true
	}
	return &membersStub{
		log:         log,
		hasReviewFn: func(_ context.Context, id string) (bool, error) { return allowed[id], nil },
		grantRoleFn: func(context.Context, string, string) error { return nil },
		kickFn:      func(context.Context, string, string) error { return nil },
	}
}

func noopSink(log *callLog) *sinkStub {
	return &sinkStub{
		log:      log,
		notifyFn: func(context.Context, string, models.Message) error { return nil },
	}
}

// fixedClock returns a clock that can be moved forward by the test.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFixedClock() *fixedClock {
	return &fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testHarness struct {
	log        *callLog
	discussion *discussionStub
	members    *membersStub
	sink       *sinkStub
	events     *eventsStub
	clock      *fixedClock
	ids        int
	mu         sync.Mutex
}

func newHarness() *testHarness {
	log := &callLog{}
	return &testHarness{
		log:        log,
		discussion: noopDiscussion(log),
		members:    reviewersOnly(log, "reviewer-1", "reviewer-2"),
		sink:       noopSink(log),
		events:     &eventsStub{},
		clock:      newFixedClock(),
	}
}

func (h *testHarness) nextID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ids++
	return fmt.Sprintf("id-%d", h.ids)
}

func (h *testHarness) collaborators() Collaborators {
	return Collaborators{
		Discussion: h.discussion,
		Members:    h.members,
		Sink:       h.sink,
		Events:     h.events,
		Timeout:    time.Second,
		Now:        h.clock.Now,
		NewID:      h.nextID,
	}
}
