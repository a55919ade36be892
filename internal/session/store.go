// Package session keeps the signed-in state of a browser: the bearer token
// and the user record, always written and cleared together, plus one-shot
// flash messages.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"postboard/internal/cache"
	"postboard/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	fieldToken = "token"
	fieldUser  = "user"

	flashTTL = 10 * time.Minute

	sweepInterval = time.Minute
)

// Flash kinds.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// Flash is a one-shot notification shown on the next page render.
type Flash struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Data is what a session holds. Token and User are both set or both empty.
type Data struct {
	Token string
	User  *models.SessionUser
}

// LoggedIn reports whether both halves of the credential are present.
func (d Data) LoggedIn() bool {
	return d.Token != "" && d.User != nil && d.User.Name != ""
}

// Store persists sessions.
type Store interface {
	Get(ctx context.Context, id string) (Data, error)
	Save(ctx context.Context, id string, data Data, ttl time.Duration) error
	Clear(ctx context.Context, id string) error
	PushFlash(ctx context.Context, id string, f Flash) error
	PopFlashes(ctx context.Context, id string) ([]Flash, error)
}

// NewStore returns a Redis store when rdb is set, otherwise an in-process one.
func NewStore(rdb *redis.Client) Store {
	if rdb == nil {
		return NewMemoryStore()
	}
	return NewRedisStore(rdb)
}

// RedisStore keeps each session in a hash "session:<id>" with the fields
// token and user, and its flashes in the list "session:<id>:flash".
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Get(ctx context.Context, id string) (Data, error) {
	fields, err := s.rdb.HGetAll(ctx, cache.SessionKey(id)).Result()
	if err != nil {
		return Data{}, fmt.Errorf("load session: %w", err)
	}
	return decode(fields[fieldToken], fields[fieldUser])
}

func (s *RedisStore) Save(ctx context.Context, id string, data Data, ttl time.Duration) error {
	user, err := json.Marshal(data.User)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}

	key := cache.SessionKey(id)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldToken, data.Token, fieldUser, string(user))
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, id string) error {
	if err := s.rdb.HDel(ctx, cache.SessionKey(id), fieldToken, fieldUser).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func (s *RedisStore) PushFlash(ctx context.Context, id string, f Flash) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	key := cache.FlashKey(id)
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, b)
		pipe.Expire(ctx, key, flashTTL)
		return nil
	})
	return err
}

func (s *RedisStore) PopFlashes(ctx context.Context, id string) ([]Flash, error) {
	key := cache.FlashKey(id)

	var rng *redis.StringSliceCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		rng = pipe.LRange(ctx, key, 0, -1)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var out []Flash
	for _, raw := range rng.Val() {
		var f Flash
		if err := json.Unmarshal([]byte(raw), &f); err == nil {
			out = append(out, f)
		}
	}
	return out, nil
}

func decode(token, user string) (Data, error) {
	if token == "" || user == "" {
		return Data{}, nil
	}
	var u models.SessionUser
	if err := json.Unmarshal([]byte(user), &u); err != nil {
		return Data{}, fmt.Errorf("decode session user: %w", err)
	}
	return Data{Token: token, User: &u}, nil
}

type memEntry struct {
	token   string
	user    string
	expires time.Time
	flashes []Flash
}

// MemoryStore is the in-process fallback used when Redis is unavailable.
// Sessions do not survive a restart and are not shared between instances.
type MemoryStore struct {
	mu        sync.Mutex
	items     map[string]*memEntry
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]*memEntry), now: time.Now}
}

func (s *MemoryStore) entryLocked(id string) *memEntry {
	e, ok := s.items[id]
	if !ok {
		return nil
	}
	if !e.expires.IsZero() && s.now().After(e.expires) {
		delete(s.items, id)
		return nil
	}
	return e
}

// sweepLocked drops every expired entry, at most once per sweepInterval.
func (s *MemoryStore) sweepLocked() {
	now := s.now()
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now
	for id, e := range s.items {
		if !e.expires.IsZero() && now.After(e.expires) {
			delete(s.items, id)
		}
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (Data, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entryLocked(id)
	if e == nil {
		return Data{}, nil
	}
	return decode(e.token, e.user)
}

func (s *MemoryStore) Save(_ context.Context, id string, data Data, ttl time.Duration) error {
	user, err := json.Marshal(data.User)
	if err != nil {
		return fmt.Errorf("encode session user: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	e := s.entryLocked(id)
	if e == nil {
		e = &memEntry{}
		s.items[id] = e
	}
	e.token = data.Token
	e.user = string(user)
	if ttl > 0 {
		e.expires = s.now().Add(ttl)
	}
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.entryLocked(id); e != nil {
		e.token, e.user = "", ""
	}
	return nil
}

func (s *MemoryStore) PushFlash(_ context.Context, id string, f Flash) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	e := s.entryLocked(id)
	if e == nil {
		e = &memEntry{expires: s.now().Add(flashTTL)}
		s.items[id] = e
	}
	e.flashes = append(e.flashes, f)
	return nil
}

func (s *MemoryStore) PopFlashes(_ context.Context, id string) ([]Flash, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entryLocked(id)
	if e == nil {
		return nil, nil
	}
	out := e.flashes
	e.flashes = nil
	return out, nil
}
