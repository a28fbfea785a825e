package message

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatline/internal/apperr"
	"chatline/internal/realtime"
	"chatline/internal/user"
)

type fakeRepo struct {
	messages map[string]*Message
	nextID   int

	unreadIDs     []string
	markedRead    []string
	deleted       []string
	deletedChats  []string
	summaryResult []*UnreadChat
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{messages: make(map[string]*Message)}
}

func (r *fakeRepo) Create(_ context.Context, m *Message) error {
	r.nextID++
	m.ID = fmt.Sprintf("m%d", r.nextID)
	m.CreatedAt = time.Now()
	stored := *m
	r.messages[m.ID] = &stored
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*Message, error) {
	m, ok := r.messages[id]
	if !ok {
		return nil, nil
	}
	copied := *m
	return &copied, nil
}

func (r *fakeRepo) UpdateText(_ context.Context, id, text string) error {
	m, ok := r.messages[id]
	if !ok {
		return apperr.NotFound("message not found")
	}
	m.Text = text
	m.IsEdited = true
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	delete(r.messages, id)
	r.deleted = append(r.deleted, id)
	return nil
}

func (r *fakeRepo) FindUnreadIDs(_ context.Context, _, _ string) ([]string, error) {
	return r.unreadIDs, nil
}

func (r *fakeRepo) MarkRead(_ context.Context, ids []string) (int64, error) {
	r.markedRead = append(r.markedRead, ids...)
	return int64(len(ids)), nil
}

func (r *fakeRepo) UnreadSummary(_ context.Context, _ string, _ []string) ([]*UnreadChat, error) {
	return r.summaryResult, nil
}

func (r *fakeRepo) FindByChat(_ context.Context, chatID string, page, limit int64) ([]*Message, int64, error) {
	var all []*Message
	for _, m := range r.messages {
		if m.ChatID == chatID {
			copied := *m
			all = append(all, &copied)
		}
	}
	return all, int64(len(all)), nil
}

func (r *fakeRepo) LastMessageAt(_ context.Context, _ string) (time.Time, error) {
	return time.Time{}, nil
}

func (r *fakeRepo) AttachmentKeys(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (r *fakeRepo) DeleteByChat(_ context.Context, chatID string) error {
	r.deletedChats = append(r.deletedChats, chatID)
	return nil
}

type fakeDirectory struct {
	participants map[string][]string
	chatIDs      []string
}

func (d *fakeDirectory) ChatMembers(_ context.Context, chatID string) ([]string, bool, error) {
	return d.participants[chatID], false, nil
}

func (d *fakeDirectory) ChatIDsFor(_ context.Context, _ string) ([]string, error) {
	return d.chatIDs, nil
}

type fakeUsers struct{}

func (fakeUsers) FindByID(_ context.Context, id string) (*user.User, error) {
	return &user.User{ID: id, FullName: "User " + id}, nil
}

type fakeStore struct {
	deleted []string
	err     error
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, key)
	return nil
}

type recordedEvent struct {
	room  string
	event realtime.Event
}

type recordingEmitter struct {
	events []recordedEvent
}

func (e *recordingEmitter) Emit(roomID string, event realtime.Event) {
	e.events = append(e.events, recordedEvent{room: roomID, event: event})
}

func (e *recordingEmitter) ofType(t realtime.EventType) []recordedEvent {
	var out []recordedEvent
	for _, ev := range e.events {
		if ev.event.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func newTestService(repo *fakeRepo, dir *fakeDirectory, store *fakeStore, emitter *recordingEmitter) Service {
	return NewService(repo, dir, fakeUsers{}, store, emitter)
}

func TestSendBroadcastsOnceAndNotifiesOthers(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{participants: map[string][]string{
		"chat1": {"alice", "bob", "carol"},
	}}
	emitter := &recordingEmitter{}
	svc := newTestService(repo, dir, &fakeStore{}, emitter)

	msg, err := svc.Send(context.Background(), "alice", "chat1", "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, TypeText, msg.Type)
	assert.NotNil(t, msg.Sender)

	received := emitter.ofType(realtime.EventMessageReceived)
	require.Len(t, received, 1)
	assert.Equal(t, "chat1", received[0].room)

	unread := emitter.ofType(realtime.EventUnreadCountUpdate)
	require.Len(t, unread, 2)
	rooms := []string{unread[0].room, unread[1].room}
	assert.ElementsMatch(t, []string{"bob", "carol"}, rooms)
}

func TestSendRejectsEmpty(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeDirectory{}, &fakeStore{}, &recordingEmitter{})

	_, err := svc.Send(context.Background(), "alice", "chat1", "   ", nil)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestSendRejectsUnknownChat(t *testing.T) {
	emitter := &recordingEmitter{}
	svc := newTestService(newFakeRepo(), &fakeDirectory{participants: map[string][]string{}}, &fakeStore{}, emitter)

	_, err := svc.Send(context.Background(), "alice", "missing", "hi", nil)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Empty(t, emitter.events)
}

func TestSendRejectsNonParticipant(t *testing.T) {
	dir := &fakeDirectory{participants: map[string][]string{"chat1": {"bob", "carol"}}}
	svc := newTestService(newFakeRepo(), dir, &fakeStore{}, &recordingEmitter{})

	_, err := svc.Send(context.Background(), "alice", "chat1", "hi", nil)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestSendDerivesTypeFromMime(t *testing.T) {
	dir := &fakeDirectory{participants: map[string][]string{"chat1": {"alice", "bob"}}}
	svc := newTestService(newFakeRepo(), dir, &fakeStore{}, &recordingEmitter{})

	msg, err := svc.Send(context.Background(), "alice", "chat1", "", &Attachment{
		URL: "https://bucket/pic.png", Key: "pic.png", MimeType: "image/png",
	})
	require.NoError(t, err)
	assert.Equal(t, TypeImage, msg.Type)
	assert.Equal(t, "https://bucket/pic.png", msg.FileURL)
}

func TestEditOwnMessage(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{participants: map[string][]string{"chat1": {"alice", "bob"}}}
	emitter := &recordingEmitter{}
	svc := newTestService(repo, dir, &fakeStore{}, emitter)

	sent, err := svc.Send(context.Background(), "alice", "chat1", "first", nil)
	require.NoError(t, err)

	edited, err := svc.Edit(context.Background(), "alice", sent.ID, "second")
	require.NoError(t, err)
	assert.Equal(t, "second", edited.Text)
	assert.True(t, edited.IsEdited)

	events := emitter.ofType(realtime.EventMessageEdited)
	require.Len(t, events, 1)
	assert.Equal(t, "chat1", events[0].room)
}

func TestEditRejectsOtherSender(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{participants: map[string][]string{"chat1": {"alice", "bob"}}}
	svc := newTestService(repo, dir, &fakeStore{}, &recordingEmitter{})

	sent, err := svc.Send(context.Background(), "alice", "chat1", "mine", nil)
	require.NoError(t, err)

	_, err = svc.Edit(context.Background(), "bob", sent.ID, "stolen")
	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
}

func TestEditMissingMessage(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeDirectory{}, &fakeStore{}, &recordingEmitter{})

	_, err := svc.Edit(context.Background(), "alice", "nope", "text")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestDeleteRemovesAttachmentAndMessage(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{participants: map[string][]string{"chat1": {"alice", "bob"}}}
	store := &fakeStore{}
	emitter := &recordingEmitter{}
	svc := newTestService(repo, dir, store, emitter)

	sent, err := svc.Send(context.Background(), "alice", "chat1", "", &Attachment{
		URL: "https://bucket/doc.pdf", Key: "doc.pdf", MimeType: "application/pdf",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "alice", sent.ID))
	assert.Equal(t, []string{"doc.pdf"}, store.deleted)
	assert.Equal(t, []string{sent.ID}, repo.deleted)

	events := emitter.ofType(realtime.EventMessageDeleted)
	require.Len(t, events, 1)
}

func TestDeleteSurvivesStoreFailure(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{participants: map[string][]string{"chat1": {"alice", "bob"}}}
	store := &fakeStore{err: errors.New("s3 down")}
	emitter := &recordingEmitter{}
	svc := newTestService(repo, dir, store, emitter)

	sent, err := svc.Send(context.Background(), "alice", "chat1", "", &Attachment{
		URL: "https://bucket/doc.pdf", Key: "doc.pdf", MimeType: "application/pdf",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "alice", sent.ID))
	assert.Equal(t, []string{sent.ID}, repo.deleted)
	assert.Len(t, emitter.ofType(realtime.EventMessageDeleted), 1)
}

func TestDeleteRejectsOtherSender(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{participants: map[string][]string{"chat1": {"alice", "bob"}}}
	svc := newTestService(repo, dir, &fakeStore{}, &recordingEmitter{})

	sent, err := svc.Send(context.Background(), "alice", "chat1", "mine", nil)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), "bob", sent.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindAuthorization))
}

func TestMarkReadEmitsOnlyWhenSomethingChanged(t *testing.T) {
	repo := newFakeRepo()
	repo.unreadIDs = []string{"m1", "m2"}
	emitter := &recordingEmitter{}
	svc := newTestService(repo, &fakeDirectory{}, &fakeStore{}, emitter)

	affected, err := svc.MarkRead(context.Background(), "bob", "chat1", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)
	require.Len(t, emitter.ofType(realtime.EventMessagesRead), 1)
}

func TestMarkReadNothingUnreadIsSilent(t *testing.T) {
	repo := newFakeRepo()
	emitter := &recordingEmitter{}
	svc := newTestService(repo, &fakeDirectory{}, &fakeStore{}, emitter)

	affected, err := svc.MarkRead(context.Background(), "bob", "chat1", "alice")
	require.NoError(t, err)
	assert.Zero(t, affected)
	assert.Empty(t, emitter.events)
}

func TestUnreadSummaryNoChats(t *testing.T) {
	svc := newTestService(newFakeRepo(), &fakeDirectory{}, &fakeStore{}, &recordingEmitter{})

	summary, err := svc.UnreadSummary(context.Background(), "alice")
	require.NoError(t, err)
	assert.Nil(t, summary)
}

func TestHistoryPagination(t *testing.T) {
	repo := newFakeRepo()
	dir := &fakeDirectory{participants: map[string][]string{"chat1": {"alice", "bob"}}}
	svc := newTestService(repo, dir, &fakeStore{}, &recordingEmitter{})

	for i := 0; i < 3; i++ {
		_, err := svc.Send(context.Background(), "alice", "chat1", fmt.Sprintf("msg %d", i), nil)
		require.NoError(t, err)
	}

	page, err := svc.History(context.Background(), "chat1", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Pagination.TotalMessages)
	assert.Equal(t, int64(1), page.Pagination.CurrentPage)
	assert.Equal(t, int64(15), page.Pagination.Limit)
	assert.False(t, page.Pagination.HasMore)
	assert.Len(t, page.Messages, 3)
	for _, m := range page.Messages {
		assert.NotNil(t, m.Sender)
	}
}

func TestMessagePreview(t *testing.T) {
	long := &Message{Text: "0123456789012345678901234567890123456789012345678901234567"}
	assert.Len(t, long.Preview(), 50)

	media := &Message{FileURL: "https://bucket/x.png"}
	assert.Equal(t, "[Media]", media.Preview())
}
