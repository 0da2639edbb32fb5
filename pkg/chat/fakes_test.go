package chat

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mahaj/chatcore/pkg/errs"
	"github.com/mahaj/chatcore/pkg/model"
	"github.com/mahaj/chatcore/pkg/snowflake"
)

// In-memory stores mirroring the ScyllaDB semantics: strict compound
// (created_at, id) ordering, one read position per pair, cascade
// deletes as a unit.

func olderThan(at time.Time, id int64, boundAt time.Time, boundID int64) bool {
	if at.Before(boundAt) {
		return true
	}
	return at.Equal(boundAt) && id < boundID
}

type fakeMessages struct {
	byChannel   map[uuid.UUID][]model.Message
	attachments *fakeAttachments
}

func newFakeMessages(attachments *fakeAttachments) *fakeMessages {
	return &fakeMessages{
		byChannel:   make(map[uuid.UUID][]model.Message),
		attachments: attachments,
	}
}

func (f *fakeMessages) sortChannel(channelID uuid.UUID) {
	msgs := f.byChannel[channelID]
	sort.Slice(msgs, func(i, j int) bool {
		// Newest first.
		return olderThan(msgs[j].CreatedAt, msgs[j].ID, msgs[i].CreatedAt, msgs[i].ID)
	})
}

// Insert mirrors the store's batch: message row plus attachment
// metadata rows land together.
func (f *fakeMessages) Insert(ctx context.Context, m *model.Message, attachments []model.Attachment) error {
	for i := range attachments {
		if err := f.attachments.Insert(ctx, &attachments[i]); err != nil {
			return err
		}
	}
	f.byChannel[m.ChannelID] = append(f.byChannel[m.ChannelID], *m)
	f.sortChannel(m.ChannelID)
	return nil
}

func (f *fakeMessages) FindByID(_ context.Context, id int64) (*model.Message, error) {
	for _, msgs := range f.byChannel {
		for _, m := range msgs {
			if m.ID == id {
				out := m
				return &out, nil
			}
		}
	}
	return nil, errs.NotFound("message", id)
}

func (f *fakeMessages) Page(_ context.Context, channelID uuid.UUID, beforeAt time.Time, beforeID int64, limit int) ([]model.Message, error) {
	var out []model.Message
	for _, m := range f.byChannel[channelID] {
		if olderThan(m.CreatedAt, m.ID, beforeAt, beforeID) {
			out = append(out, m)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeMessages) ExistsBefore(_ context.Context, channelID uuid.UUID, beforeAt time.Time, beforeID int64) (bool, error) {
	for _, m := range f.byChannel[channelID] {
		if olderThan(m.CreatedAt, m.ID, beforeAt, beforeID) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMessages) LastCreatedAt(_ context.Context, channelID uuid.UUID) (time.Time, bool, error) {
	msgs := f.byChannel[channelID]
	if len(msgs) == 0 {
		return time.Time{}, false, nil
	}
	return msgs[0].CreatedAt, true, nil
}

func (f *fakeMessages) UpdateContent(_ context.Context, m *model.Message, newContent string, at time.Time) error {
	msgs := f.byChannel[m.ChannelID]
	for i := range msgs {
		if msgs[i].ID == m.ID {
			msgs[i].Content = newContent
			msgs[i].UpdatedAt = at
			return nil
		}
	}
	return errs.NotFound("message", m.ID)
}

func (f *fakeMessages) Delete(_ context.Context, m *model.Message) error {
	msgs := f.byChannel[m.ChannelID]
	for i := range msgs {
		if msgs[i].ID == m.ID {
			f.byChannel[m.ChannelID] = append(msgs[:i], msgs[i+1:]...)
			return nil
		}
	}
	return errs.NotFound("message", m.ID)
}

func (f *fakeMessages) count(channelID uuid.UUID) int {
	return len(f.byChannel[channelID])
}

type pairKey struct {
	userID    uuid.UUID
	channelID uuid.UUID
}

type fakeReadPositions struct {
	m map[pairKey]model.ReadPosition
}

func newFakeReadPositions() *fakeReadPositions {
	return &fakeReadPositions{m: make(map[pairKey]model.ReadPosition)}
}

// Insert is a claim, same as the store's LWT: the first writer wins
// and the pair never silently overwrites.
func (f *fakeReadPositions) Insert(_ context.Context, rp *model.ReadPosition) error {
	key := pairKey{rp.UserID, rp.ChannelID}
	if _, ok := f.m[key]; ok {
		return errs.Conflict("read position already exists")
	}
	f.m[key] = *rp
	return nil
}

func (f *fakeReadPositions) Find(_ context.Context, userID, channelID uuid.UUID) (*model.ReadPosition, error) {
	rp, ok := f.m[pairKey{userID, channelID}]
	if !ok {
		return nil, errs.NotFound("read position", userID.String()+"/"+channelID.String())
	}
	out := rp
	return &out, nil
}

func (f *fakeReadPositions) UpdateLastReadAt(_ context.Context, userID, channelID uuid.UUID, lastReadAt time.Time) error {
	key := pairKey{userID, channelID}
	rp, ok := f.m[key]
	if !ok {
		return errs.NotFound("read position", userID.String()+"/"+channelID.String())
	}
	rp.LastReadAt = lastReadAt
	f.m[key] = rp
	return nil
}

func (f *fakeReadPositions) Delete(_ context.Context, userID, channelID uuid.UUID) error {
	delete(f.m, pairKey{userID, channelID})
	return nil
}

func (f *fakeReadPositions) AllByUser(_ context.Context, userID uuid.UUID) ([]model.ReadPosition, error) {
	var out []model.ReadPosition
	for key, rp := range f.m {
		if key.userID == userID {
			out = append(out, rp)
		}
	}
	return out, nil
}

func (f *fakeReadPositions) AllByChannel(_ context.Context, channelID uuid.UUID) ([]model.ReadPosition, error) {
	var out []model.ReadPosition
	for key, rp := range f.m {
		if key.channelID == channelID {
			out = append(out, rp)
		}
	}
	return out, nil
}

type fakeChannels struct {
	m             map[uuid.UUID]model.Channel
	messages      *fakeMessages
	readPositions *fakeReadPositions
}

func newFakeChannels(messages *fakeMessages, readPositions *fakeReadPositions) *fakeChannels {
	return &fakeChannels{
		m:             make(map[uuid.UUID]model.Channel),
		messages:      messages,
		readPositions: readPositions,
	}
}

func (f *fakeChannels) Insert(_ context.Context, ch *model.Channel) error {
	f.m[ch.ID] = *ch
	return nil
}

func (f *fakeChannels) InsertPrivate(ctx context.Context, ch *model.Channel, positions []model.ReadPosition) error {
	f.m[ch.ID] = *ch
	for i := range positions {
		if err := f.readPositions.Insert(ctx, &positions[i]); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeChannels) FindByID(_ context.Context, id uuid.UUID) (*model.Channel, error) {
	ch, ok := f.m[id]
	if !ok {
		return nil, errs.NotFound("channel", id)
	}
	out := ch
	return &out, nil
}

func (f *fakeChannels) UpdateInfo(_ context.Context, id uuid.UUID, name, description string) error {
	ch, ok := f.m[id]
	if !ok {
		return errs.NotFound("channel", id)
	}
	ch.Name = name
	ch.Description = description
	f.m[id] = ch
	return nil
}

func (f *fakeChannels) All(_ context.Context) ([]model.Channel, error) {
	out := make([]model.Channel, 0, len(f.m))
	for _, ch := range f.m {
		out = append(out, ch)
	}
	return out, nil
}

func (f *fakeChannels) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	delete(f.messages.byChannel, id)
	positions, _ := f.readPositions.AllByChannel(ctx, id)
	for _, rp := range positions {
		_ = f.readPositions.Delete(ctx, rp.UserID, id)
	}
	delete(f.m, id)
	return nil
}

type fakeUsers struct {
	m map[uuid.UUID]model.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{m: make(map[uuid.UUID]model.User)}
}

func (f *fakeUsers) Insert(_ context.Context, u *model.User) error {
	for _, existing := range f.m {
		if existing.Username == u.Username {
			return errs.Conflict("username already exists")
		}
		if existing.Email == u.Email {
			return errs.Conflict("email already exists")
		}
	}
	f.m[u.ID] = *u
	return nil
}

func (f *fakeUsers) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := f.m[id]
	if !ok {
		return nil, errs.NotFound("user", id)
	}
	out := u
	return &out, nil
}

func (f *fakeUsers) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.User, error) {
	out := make(map[uuid.UUID]model.User, len(ids))
	for _, id := range ids {
		if u, ok := f.m[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (f *fakeUsers) All(_ context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(f.m))
	for _, u := range f.m {
		out = append(out, u)
	}
	return out, nil
}

// Update mirrors the store's claim tables: a changed username or email
// conflicts when another user holds it, and the old value frees up.
func (f *fakeUsers) Update(_ context.Context, u *model.User, prevUsername, prevEmail string) error {
	if _, ok := f.m[u.ID]; !ok {
		return errs.NotFound("user", u.ID)
	}
	for id, existing := range f.m {
		if id == u.ID {
			continue
		}
		if u.Username != prevUsername && existing.Username == u.Username {
			return errs.Conflict("username already exists")
		}
		if u.Email != prevEmail && existing.Email == u.Email {
			return errs.Conflict("email already exists")
		}
	}
	f.m[u.ID] = *u
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, u *model.User) error {
	delete(f.m, u.ID)
	return nil
}

type fakeAttachments struct {
	m map[uuid.UUID]model.Attachment
}

func newFakeAttachments() *fakeAttachments {
	return &fakeAttachments{m: make(map[uuid.UUID]model.Attachment)}
}

func (f *fakeAttachments) Insert(_ context.Context, att *model.Attachment) error {
	f.m[att.ID] = *att
	return nil
}

func (f *fakeAttachments) FindByID(_ context.Context, id uuid.UUID) (*model.Attachment, error) {
	att, ok := f.m[id]
	if !ok {
		return nil, errs.NotFound("attachment", id)
	}
	out := att
	return &out, nil
}

func (f *fakeAttachments) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Attachment, error) {
	out := make(map[uuid.UUID]model.Attachment, len(ids))
	for _, id := range ids {
		if att, ok := f.m[id]; ok {
			out[id] = att
		}
	}
	return out, nil
}

func (f *fakeAttachments) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.m, id)
	return nil
}

type fakePresence struct {
	m map[uuid.UUID]time.Time
}

func newFakePresence() *fakePresence {
	return &fakePresence{m: make(map[uuid.UUID]time.Time)}
}

func (f *fakePresence) Touch(_ context.Context, userID uuid.UUID, at time.Time) error {
	f.m[userID] = at
	return nil
}

func (f *fakePresence) LastActive(_ context.Context, userIDs []uuid.UUID) (map[uuid.UUID]time.Time, error) {
	out := make(map[uuid.UUID]time.Time, len(userIDs))
	for _, id := range userIDs {
		if at, ok := f.m[id]; ok {
			out[id] = at
		}
	}
	return out, nil
}

type fakeBlob struct {
	m       map[uuid.UUID][]byte
	putErr  error
	putSeen int
}

func newFakeBlob() *fakeBlob {
	return &fakeBlob{m: make(map[uuid.UUID][]byte)}
}

func (f *fakeBlob) Put(_ context.Context, id uuid.UUID, data []byte) error {
	f.putSeen++
	if f.putErr != nil {
		return f.putErr
	}
	f.m[id] = data
	return nil
}

func (f *fakeBlob) Get(_ context.Context, id uuid.UUID) (io.ReadCloser, error) {
	data, ok := f.m[id]
	if !ok {
		return nil, errs.NotFound("attachment", id)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeBlob) Download(w http.ResponseWriter, r *http.Request, att model.Attachment) error {
	rc, err := f.Get(r.Context(), att.ID)
	if err != nil {
		return err
	}
	defer rc.Close()
	_, err = io.Copy(w, rc)
	return err
}

// env wires every service against the in-memory stores.
type env struct {
	messages      *fakeMessages
	channels      *fakeChannels
	readPositions *fakeReadPositions
	users         *fakeUsers
	attachments   *fakeAttachments
	presence      *fakePresence
	blob          *fakeBlob

	pager       *Pager
	channelSvc  *Channels
	readTracker *ReadTracker
	messageSvc  *Messages
	userSvc     *Users
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		readPositions: newFakeReadPositions(),
		users:         newFakeUsers(),
		attachments:   newFakeAttachments(),
		presence:      newFakePresence(),
		blob:          newFakeBlob(),
	}
	e.messages = newFakeMessages(e.attachments)
	e.channels = newFakeChannels(e.messages, e.readPositions)

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	e.pager = NewPager(e.channels, e.messages, e.users, e.attachments, e.presence)
	e.channelSvc = NewChannels(e.channels, e.readPositions, e.messages, e.users, e.attachments, e.presence)
	e.readTracker = NewReadTracker(e.readPositions, e.channels, e.users)
	e.messageSvc = NewMessages(e.messages, e.channels, e.users, e.attachments, e.presence, e.blob, node)
	e.userSvc = NewUsers(e.users, e.attachments, e.presence, e.blob)
	return e
}

func (e *env) seedUser(t *testing.T, username string) uuid.UUID {
	t.Helper()
	u := model.User{
		ID:        uuid.New(),
		Username:  username,
		Email:     username + "@example.com",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := e.users.Insert(context.Background(), &u); err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u.ID
}

func (e *env) seedPublicChannel(t *testing.T, name string) uuid.UUID {
	t.Helper()
	ch := model.Channel{ID: uuid.New(), Kind: model.KindPublic, Name: name, CreatedAt: time.Now()}
	if err := e.channels.Insert(context.Background(), &ch); err != nil {
		t.Fatalf("seed channel %s: %v", name, err)
	}
	return ch.ID
}

// seedMessage inserts directly with a chosen timestamp so ordering and
// boundary cases are deterministic.
func (e *env) seedMessage(t *testing.T, channelID, authorID uuid.UUID, id int64, createdAt time.Time) {
	t.Helper()
	m := model.Message{
		ID:        id,
		ChannelID: channelID,
		AuthorID:  authorID,
		Content:   "message " + strconv.FormatInt(id, 10),
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := e.messages.Insert(context.Background(), &m, nil); err != nil {
		t.Fatalf("seed message %d: %v", id, err)
	}
}
