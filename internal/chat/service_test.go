package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatline/internal/apperr"
	"chatline/internal/user"
)

type fakeRepo struct {
	chats  map[string]*Chat
	nextID int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{chats: make(map[string]*Chat)}
}

func (r *fakeRepo) Create(_ context.Context, c *Chat) error {
	r.nextID++
	c.ID = fmt.Sprintf("chat%d", r.nextID)
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	stored := *c
	r.chats[c.ID] = &stored
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*Chat, error) {
	c, ok := r.chats[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (r *fakeRepo) FindOneToOne(_ context.Context, a, b string) (*Chat, error) {
	for _, c := range r.chats {
		if !c.IsGroup && c.HasParticipant(a) && c.HasParticipant(b) {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRepo) FindForParticipant(_ context.Context, userID string) ([]*Chat, error) {
	var out []*Chat
	for _, c := range r.chats {
		if c.HasParticipant(userID) {
			copied := *c
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	delete(r.chats, id)
	return nil
}

func (r *fakeRepo) AddInactive(_ context.Context, chatID string, userIDs []string) error {
	c, ok := r.chats[chatID]
	if !ok {
		return apperr.NotFound("chat not found")
	}
	for _, id := range userIDs {
		if !c.IsInactiveFor(id) {
			c.InactiveFor = append(c.InactiveFor, id)
		}
	}
	return nil
}

func (r *fakeRepo) RemoveInactive(_ context.Context, chatID string, userIDs []string) error {
	c, ok := r.chats[chatID]
	if !ok {
		return apperr.NotFound("chat not found")
	}
	var kept []string
	for _, id := range c.InactiveFor {
		drop := false
		for _, rm := range userIDs {
			if id == rm {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, id)
		}
	}
	c.InactiveFor = kept
	return nil
}

type fakeMessages struct {
	lastAt       map[string]time.Time
	keys         map[string][]string
	deletedChats []string
}

func (m *fakeMessages) LastMessageAt(_ context.Context, chatID string) (time.Time, error) {
	return m.lastAt[chatID], nil
}

func (m *fakeMessages) AttachmentKeys(_ context.Context, chatID string) ([]string, error) {
	return m.keys[chatID], nil
}

func (m *fakeMessages) DeleteByChat(_ context.Context, chatID string) error {
	m.deletedChats = append(m.deletedChats, chatID)
	return nil
}

type fakeUsers struct{}

func (fakeUsers) FindByID(_ context.Context, id string) (*user.User, error) {
	return &user.User{ID: id, FullName: "User " + id}, nil
}

func (fakeUsers) FindByIDs(_ context.Context, ids []string) ([]*user.User, error) {
	out := make([]*user.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, &user.User{ID: id, FullName: "User " + id})
	}
	return out, nil
}

func (fakeUsers) Search(_ context.Context, _, _ string, _ int64) ([]*user.User, error) {
	return nil, nil
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

func newTestService(repo *fakeRepo, messages *fakeMessages, store *fakeStore) Service {
	if messages == nil {
		messages = &fakeMessages{lastAt: map[string]time.Time{}, keys: map[string][]string{}}
	}
	if store == nil {
		store = &fakeStore{}
	}
	return NewService(repo, messages, fakeUsers{}, store)
}

func TestCreateOneToOneReturnsExisting(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil, nil)

	first, err := svc.CreateOneToOne(context.Background(), "alice", "bob")
	require.NoError(t, err)

	second, err := svc.CreateOneToOne(context.Background(), "bob", "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.chats, 1)
}

func TestFindOneToOneMissing(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)

	_, err := svc.FindOneToOne(context.Background(), "alice", "bob")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestCreateGroupDeduplicatesAndLeadsWithAdmin(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)

	c, err := svc.CreateGroup(context.Background(), "team", []string{"bob", "alice", "bob", "carol"}, "alice")
	require.NoError(t, err)
	assert.True(t, c.IsGroup)
	assert.Equal(t, "alice", c.Admin)
	assert.Equal(t, []string{"alice", "bob", "carol"}, c.Participants)
}

func TestCreateGroupRequiresNameAndParticipants(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)

	_, err := svc.CreateGroup(context.Background(), "", []string{"bob"}, "alice")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = svc.CreateGroup(context.Background(), "team", nil, "alice")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestGetGroupRejectsDirectChat(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil, nil)

	direct, err := svc.CreateOneToOne(context.Background(), "alice", "bob")
	require.NoError(t, err)

	_, err = svc.GetGroup(context.Background(), direct.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestRecentChatsOrderedByActivity(t *testing.T) {
	repo := newFakeRepo()
	messages := &fakeMessages{lastAt: map[string]time.Time{}, keys: map[string][]string{}}
	svc := newTestService(repo, messages, nil)

	older, err := svc.CreateOneToOne(context.Background(), "alice", "bob")
	require.NoError(t, err)
	newer, err := svc.CreateOneToOne(context.Background(), "alice", "carol")
	require.NoError(t, err)

	now := time.Now()
	messages.lastAt[older.ID] = now.Add(-time.Hour)
	messages.lastAt[newer.ID] = now

	recent, err := svc.RecentChats(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, newer.ID, recent[0].ID)
	assert.Equal(t, older.ID, recent[1].ID)

	// direct chats carry the counterpart's summary
	require.NotNil(t, recent[0].Friend)
	assert.Equal(t, "carol", recent[0].Friend.ID)
}

func TestDeleteCascadesAndSurvivesStoreFailure(t *testing.T) {
	repo := newFakeRepo()
	svc0 := newTestService(repo, nil, nil)
	c, err := svc0.CreateOneToOne(context.Background(), "alice", "bob")
	require.NoError(t, err)

	messages := &fakeMessages{
		lastAt: map[string]time.Time{},
		keys:   map[string][]string{c.ID: {"a.png", "b.png"}},
	}
	store := &fakeStore{err: errors.New("s3 down")}
	svc := newTestService(repo, messages, store)

	require.NoError(t, svc.Delete(context.Background(), c.ID))
	assert.Equal(t, []string{c.ID}, messages.deletedChats)
	assert.Empty(t, repo.chats)
}

func TestDeleteMissingChat(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)

	err := svc.Delete(context.Background(), "missing")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestPairActivationRoundtrip(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, nil, nil)

	c, err := svc.CreateOneToOne(context.Background(), "alice", "bob")
	require.NoError(t, err)

	require.NoError(t, svc.DeactivatePair(context.Background(), "alice", "bob"))
	stored := repo.chats[c.ID]
	assert.True(t, stored.IsInactiveFor("alice"))
	assert.True(t, stored.IsInactiveFor("bob"))

	require.NoError(t, svc.ReactivatePair(context.Background(), "alice", "bob"))
	assert.False(t, repo.chats[c.ID].IsInactiveFor("alice"))
}

func TestPairActivationMissingChatIsNoop(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)

	assert.NoError(t, svc.ReactivatePair(context.Background(), "alice", "bob"))
	assert.NoError(t, svc.DeactivatePair(context.Background(), "alice", "bob"))
}

func TestChatMembersAbsence(t *testing.T) {
	svc := newTestService(newFakeRepo(), nil, nil)

	participants, isGroup, err := svc.ChatMembers(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, participants)
	assert.False(t, isGroup)
}
