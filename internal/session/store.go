// Package session holds the gateway's authentication tokens and the user id
// derived from them. It replaces the original process-wide token module
// with an explicitly owned store: service clients read the access token
// through the TokenSource interface, and observers subscribe to changes.
package session

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/cassiomorais/qrpay/internal/kv"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const snapshotKey = "session:tokens"

// TokenSource exposes the current access token to outgoing requests.
type TokenSource interface {
	AccessToken() string
}

// snapshot is the persisted part of a session: the refresh token and user id
// survive a restart, the access token does not.
type snapshot struct {
	RefreshToken string `json:"refreshToken"`
	UserID       int64  `json:"userId"`
}

// Store is the session store. Listeners are notified on every Set/Clear.
type Store struct {
	mu        sync.Mutex
	access    string
	refresh   string
	userID    int64
	listeners map[int]func()
	nextID    int

	snap kv.Store
	log  zerolog.Logger
}

// New creates a Store, restoring the persisted refresh token and user id if
// a snapshot exists.
func New(ctx context.Context, snap kv.Store, log zerolog.Logger) *Store {
	s := &Store{
		listeners: make(map[int]func()),
		snap:      snap,
		log:       log.With().Str("component", "session").Logger(),
	}
	doc, err := snap.Read(ctx, snapshotKey)
	if err == nil {
		var restored snapshot
		if json.Unmarshal(doc, &restored) == nil {
			s.refresh = restored.RefreshToken
			s.userID = restored.UserID
		}
	} else if err != kv.ErrNotFound {
		s.log.Warn().Err(err).Msg("Could not restore session snapshot")
	}
	return s
}

// SetTokens stores a token pair. When userID is zero it is derived from the
// access token's JWT subject claim.
func (s *Store) SetTokens(ctx context.Context, access, refresh string, userID int64) {
	if userID == 0 {
		userID = decodeUserID(access)
	}
	s.mu.Lock()
	s.access = access
	s.refresh = refresh
	s.userID = userID
	s.mu.Unlock()

	s.persist(ctx, snapshot{RefreshToken: refresh, UserID: userID})
	s.notify()
}

// Clear drops the tokens and the persisted snapshot.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	s.access = ""
	s.refresh = ""
	s.userID = 0
	s.mu.Unlock()

	if err := s.snap.Delete(ctx, snapshotKey); err != nil {
		s.log.Warn().Err(err).Msg("Could not delete session snapshot")
	}
	s.notify()
}

// AccessToken implements TokenSource.
func (s *Store) AccessToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access
}

// RefreshToken returns the stored refresh token.
func (s *Store) RefreshToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh
}

// UserID returns the derived user id, zero when unauthenticated.
func (s *Store) UserID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// IsAuthenticated reports whether both tokens are present.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.access != "" && s.refresh != ""
}

// Subscribe registers a change listener and returns its unsubscribe func.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify() {
	s.mu.Lock()
	fns := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (s *Store) persist(ctx context.Context, snap snapshot) {
	doc, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := s.snap.Write(ctx, snapshotKey, doc); err != nil {
		s.log.Warn().Err(err).Msg("Could not persist session snapshot")
	}
}

// decodeUserID pulls the numeric subject out of the token's claims. The
// token is parsed without signature verification; that belongs to the user
// service, the gateway only derives display identity from it.
func decodeUserID(token string) int64 {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0
	}
	switch v := claims["sub"].(type) {
	case float64:
		return int64(v)
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0
		}
		return id
	default:
		return 0
	}
}
