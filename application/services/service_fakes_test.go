package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"lumina-backend/domain/entities"
	"lumina-backend/domain/events"
	"lumina-backend/infrastructure/persistence/dynamodb"
	"lumina-backend/pkg/common"
	apperrors "lumina-backend/pkg/errors"
)

func pageOf(limit int) common.PageParams {
	return common.PageParams{Limit: limit}
}

// In-memory port implementations for service tests. They mirror the
// store's error contract (NotFound, AlreadyExists, conflicts) without
// the marshalling layer.

type fakeAlbums struct {
	mu     sync.Mutex
	albums map[string]entities.Album
}

func newFakeAlbums() *fakeAlbums {
	return &fakeAlbums{albums: make(map[string]entities.Album)}
}

func (f *fakeAlbums) Create(ctx context.Context, album *entities.Album) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.albums[album.ID]; ok {
		return apperrors.NewAlreadyExistsError("album")
	}
	f.albums[album.ID] = *album
	return nil
}

func (f *fakeAlbums) Get(ctx context.Context, albumID string) (*entities.Album, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	album, ok := f.albums[albumID]
	if !ok {
		return nil, apperrors.NewNotFoundError("album")
	}
	return &album, nil
}

func (f *fakeAlbums) Update(ctx context.Context, albumID string, patch entities.AlbumPatch) (*entities.Album, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	album, ok := f.albums[albumID]
	if !ok {
		return nil, apperrors.NewNotFoundError("album")
	}
	if patch.Title != nil {
		album.Title = *patch.Title
	}
	if patch.IsPublic != nil {
		album.IsPublic = *patch.IsPublic
	}
	album.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	f.albums[albumID] = album
	return &album, nil
}

func (f *fakeAlbums) Delete(ctx context.Context, albumID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.albums[albumID]; !ok {
		return apperrors.NewNotFoundError("album")
	}
	delete(f.albums, albumID)
	return nil
}

func (f *fakeAlbums) List(ctx context.Context, cursor string, limit int, descending bool) ([]*entities.Album, string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.Album
	for id := range f.albums {
		album := f.albums[id]
		out = append(out, &album)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, "", false, nil
}

func (f *fakeAlbums) ListByCreator(ctx context.Context, createdBy, cursor string, limit int, descending bool) ([]*entities.Album, string, bool, error) {
	all, _, _, _ := f.List(ctx, cursor, limit, descending)
	var out []*entities.Album
	for _, album := range all {
		if album.CreatedBy == createdBy {
			out = append(out, album)
		}
	}
	return out, "", false, nil
}

type fakeMedia struct {
	mu    sync.Mutex
	media map[string]entities.Media
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{media: make(map[string]entities.Media)}
}

func (f *fakeMedia) Create(ctx context.Context, m *entities.Media) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.media[m.ID]; ok {
		return apperrors.NewAlreadyExistsError("media")
	}
	f.media[m.ID] = *m
	return nil
}

func (f *fakeMedia) GetByID(ctx context.Context, mediaID string) (*entities.Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.media[mediaID]
	if !ok {
		return nil, apperrors.NewNotFoundError("media")
	}
	return &m, nil
}

func (f *fakeMedia) ListByAlbum(ctx context.Context, albumID, cursor string, limit int, descending bool) ([]*entities.Media, string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.Media
	for id := range f.media {
		m := f.media[id]
		if m.AlbumID == albumID {
			out = append(out, &m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, "", false, nil
}

func (f *fakeMedia) ListByCreator(ctx context.Context, createdBy, cursor string, limit int, descending bool) ([]*entities.Media, string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.Media
	for id := range f.media {
		m := f.media[id]
		if m.CreatedBy == createdBy {
			out = append(out, &m)
		}
	}
	return out, "", false, nil
}

func (f *fakeMedia) Update(ctx context.Context, mediaID string, patch entities.MediaPatch) (*entities.Media, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.media[mediaID]
	if !ok {
		return nil, apperrors.NewNotFoundError("media")
	}
	if patch.Status != nil {
		m.Status = *patch.Status
	}
	if patch.Filename != nil {
		m.Filename = *patch.Filename
	}
	f.media[mediaID] = m
	return &m, nil
}

func (f *fakeMedia) Delete(ctx context.Context, mediaID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.media[mediaID]; !ok {
		return apperrors.NewNotFoundError("media")
	}
	delete(f.media, mediaID)
	return nil
}

func (f *fakeMedia) Detach(ctx context.Context, m *entities.Media) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.media[m.ID]
	if !ok {
		return apperrors.NewNotFoundError("media")
	}
	stored.AlbumID = entities.AlbumUnsorted
	f.media[m.ID] = stored
	return nil
}

type fakeComments struct {
	mu       sync.Mutex
	comments map[string]entities.Comment
}

func newFakeComments() *fakeComments {
	return &fakeComments{comments: make(map[string]entities.Comment)}
}

func (f *fakeComments) Create(ctx context.Context, comment *entities.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.comments[comment.ID]; ok {
		return apperrors.NewAlreadyExistsError("comment")
	}
	f.comments[comment.ID] = *comment
	return nil
}

func (f *fakeComments) Get(ctx context.Context, commentID string) (*entities.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	comment, ok := f.comments[commentID]
	if !ok {
		return nil, apperrors.NewNotFoundError("comment")
	}
	return &comment, nil
}

func (f *fakeComments) UpdateContent(ctx context.Context, commentID, content string) (*entities.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	comment, ok := f.comments[commentID]
	if !ok {
		return nil, apperrors.NewNotFoundError("comment")
	}
	comment.Content = content
	comment.IsEdited = true
	comment.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	f.comments[commentID] = comment
	return &comment, nil
}

func (f *fakeComments) Delete(ctx context.Context, commentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.comments[commentID]; !ok {
		return apperrors.NewNotFoundError("comment")
	}
	delete(f.comments, commentID)
	return nil
}

func (f *fakeComments) ListByTarget(ctx context.Context, tt entities.TargetType, targetID, cursor string, limit int, descending bool) ([]*entities.Comment, string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.Comment
	for id := range f.comments {
		comment := f.comments[id]
		if comment.TargetType == tt && comment.TargetID == targetID {
			out = append(out, &comment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt < out[j].CreatedAt })
	return out, "", false, nil
}

type fakeInteractions struct {
	mu   sync.Mutex
	rows map[string]entities.Interaction
}

func newFakeInteractions() *fakeInteractions {
	return &fakeInteractions{rows: make(map[string]entities.Interaction)}
}

func interactionKey(userID string, t entities.InteractionType, tt entities.TargetType, targetID string) string {
	return strings.Join([]string{userID, string(t), string(tt), targetID}, "|")
}

func (f *fakeInteractions) Add(ctx context.Context, in *entities.Interaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := interactionKey(in.UserID, in.Type, in.TargetType, in.TargetID)
	if _, ok := f.rows[key]; ok {
		return apperrors.NewAlreadyLikedError(string(in.Type))
	}
	f.rows[key] = *in
	return nil
}

func (f *fakeInteractions) Remove(ctx context.Context, userID string, t entities.InteractionType, tt entities.TargetType, targetID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := interactionKey(userID, t, tt, targetID)
	_, ok := f.rows[key]
	delete(f.rows, key)
	return ok, nil
}

func (f *fakeInteractions) Exists(ctx context.Context, userID string, t entities.InteractionType, tt entities.TargetType, targetID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[interactionKey(userID, t, tt, targetID)]
	return ok, nil
}

func (f *fakeInteractions) ListByUser(ctx context.Context, userID string, t entities.InteractionType, cursor string, limit int, descending bool) ([]*entities.Interaction, string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.Interaction
	for key := range f.rows {
		in := f.rows[key]
		if in.UserID == userID && in.Type == t {
			out = append(out, &in)
		}
	}
	return out, "", false, nil
}

func (f *fakeInteractions) ListByTarget(ctx context.Context, tt entities.TargetType, targetID string, t entities.InteractionType, cursor string, limit int, descending bool) ([]*entities.Interaction, string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entities.Interaction
	for key := range f.rows {
		in := f.rows[key]
		if in.TargetType == tt && in.TargetID == targetID && in.Type == t {
			out = append(out, &in)
		}
	}
	return out, "", false, nil
}

func (f *fakeInteractions) CountByTarget(ctx context.Context, tt entities.TargetType, targetID string, t entities.InteractionType) (int, error) {
	rows, _, _, _ := f.ListByTarget(ctx, tt, targetID, t, "", 0, false)
	return len(rows), nil
}

// fakeCounters records adjustments instead of applying them, so tests
// assert on exactly which counters moved.
type counterOp struct {
	Key     dynamodb.Key
	Counter string
	Delta   int
	Value   int
	IsSet   bool
}

type fakeCounters struct {
	mu   sync.Mutex
	ops  []counterOp
	fail bool
}

func (f *fakeCounters) Adjust(ctx context.Context, key dynamodb.Key, counterName string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return apperrors.NewStorageUnavailableError("counters.adjust", nil)
	}
	f.ops = append(f.ops, counterOp{Key: key, Counter: counterName, Delta: delta})
	return nil
}

func (f *fakeCounters) Set(ctx context.Context, key dynamodb.Key, counterName string, value int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return apperrors.NewStorageUnavailableError("counters.set", nil)
	}
	f.ops = append(f.ops, counterOp{Key: key, Counter: counterName, Value: value, IsSet: true})
	return nil
}

func (f *fakeCounters) recorded() []counterOp {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]counterOp(nil), f.ops...)
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]entities.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[string]entities.User)}
}

func (f *fakeUsers) Create(ctx context.Context, user *entities.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, user.Email) || strings.EqualFold(existing.Username, user.Username) {
			return apperrors.NewAlreadyExistsError("user")
		}
	}
	f.users[user.UserID] = *user
	return nil
}

func (f *fakeUsers) Get(ctx context.Context, userID string) (*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, apperrors.NewNotFoundError("user")
	}
	return &user, nil
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := range f.users {
		user := f.users[id]
		if strings.EqualFold(user.Email, email) {
			return &user, nil
		}
	}
	return nil, apperrors.NewNotFoundError("user")
}

func (f *fakeUsers) FindByUsername(ctx context.Context, username string) (*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := range f.users {
		user := f.users[id]
		if strings.EqualFold(user.Username, username) {
			return &user, nil
		}
	}
	return nil, apperrors.NewNotFoundError("user")
}

func (f *fakeUsers) Update(ctx context.Context, userID string, patch entities.UserPatch) (*entities.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return nil, apperrors.NewNotFoundError("user")
	}
	if patch.PasswordHash != nil {
		user.PasswordHash = *patch.PasswordHash
	}
	if patch.Role != nil {
		user.Role = *patch.Role
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}
	f.users[userID] = user
	return &user, nil
}

func (f *fakeUsers) TouchLastActive(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return apperrors.NewNotFoundError("user")
	}
	user.LastActive = time.Now().UTC().Format(time.RFC3339)
	f.users[userID] = user
	return nil
}

func (f *fakeUsers) SoftDelete(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	user, ok := f.users[userID]
	if !ok {
		return apperrors.NewNotFoundError("user")
	}
	anon := user.Anonymized()
	f.users[userID] = anon
	return nil
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]entities.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{sessions: make(map[string]entities.Session)}
}

func (f *fakeSessions) Create(ctx context.Context, session *entities.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[session.SessionID] = *session
	return nil
}

func (f *fakeSessions) Get(ctx context.Context, sessionID string) (*entities.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, apperrors.NewNotFoundError("session")
	}
	expires, err := time.Parse(time.RFC3339, session.ExpiresAt)
	if err != nil || !expires.After(time.Now().UTC()) {
		return nil, apperrors.NewNotFoundError("session")
	}
	return &session, nil
}

func (f *fakeSessions) Delete(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, sessionID)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.EntityChanged
}

func (f *fakePublisher) PublishEntityChanged(ctx context.Context, event events.EntityChanged) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) published() []events.EntityChanged {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.EntityChanged(nil), f.events...)
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
