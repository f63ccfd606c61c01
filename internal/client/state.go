package client

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"grameen_connect/internal/models"
)

// ErrNotSignedIn is returned by operations that need a session when there is none.
var ErrNotSignedIn = errors.New("not signed in")

// State is the client-side application state: the session and the request-list cache.
// Every write made through State drops the whole cache; Watch drops it on server events too.
type State struct {
	client *Client
	store  SessionStore

	mu         sync.RWMutex
	session    *Session
	cache      map[models.RequestStatus][]models.RequestView
	generation uint64
}

func NewState(c *Client, store SessionStore) *State {
	return &State{
		client: c,
		store:  store,
		cache:  make(map[models.RequestStatus][]models.RequestView),
	}
}

// Client exposes the underlying API client for calls that do not touch state.
func (s *State) Client() *Client { return s.client }

// Restore rehydrates the session from the store.
func (s *State) Restore() error {
	if s.store == nil {
		return nil
	}
	sess, err := s.store.Load()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
	return nil
}

// Session returns a copy of the current session.
func (s *State) Session() (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return Session{}, false
	}
	return *s.session, true
}

func (s *State) IsAuthenticated() bool {
	_, ok := s.Session()
	return ok
}

func (s *State) token() (string, error) {
	sess, ok := s.Session()
	if !ok {
		return "", ErrNotSignedIn
	}
	return sess.Token, nil
}

func (s *State) setSession(sess *Session) error {
	s.mu.Lock()
	s.session = sess
	s.invalidateLocked()
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	if sess == nil {
		return s.store.Clear()
	}
	return s.store.Save(sess)
}

func (s *State) Login(ctx context.Context, email, password string) (*models.User, error) {
	res, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.setSession(&Session{User: res.User, Token: res.Token}); err != nil {
		return nil, err
	}
	return &res.User, nil
}

func (s *State) Register(ctx context.Context, in RegisterRequest) (*models.User, error) {
	res, err := s.client.Register(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.setSession(&Session{User: res.User, Token: res.Token}); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// Logout revokes the token on the server when possible and always forgets the local session.
func (s *State) Logout(ctx context.Context) error {
	if tok, err := s.token(); err == nil {
		if err := s.client.Logout(ctx, tok); err != nil {
			logrus.WithError(err).Debug("server-side logout failed, clearing local session anyway")
		}
	}
	return s.setSession(nil)
}

// SetUser replaces the stored user, keeping the token.
func (s *State) SetUser(u models.User) error {
	sess, ok := s.Session()
	if !ok {
		return ErrNotSignedIn
	}
	sess.User = u
	return s.setSession(&sess)
}

func (s *State) UpdateProfile(ctx context.Context, in ProfileUpdate) (*models.User, error) {
	tok, err := s.token()
	if err != nil {
		return nil, err
	}
	u, err := s.client.UpdateProfile(ctx, tok, in)
	if err != nil {
		return nil, err
	}
	if err := s.SetUser(*u); err != nil {
		return nil, err
	}
	return u, nil
}

// Requests returns the cached list for status, fetching it on a miss.
func (s *State) Requests(ctx context.Context, status models.RequestStatus) ([]models.RequestView, error) {
	s.mu.RLock()
	cached, ok := s.cache[status]
	gen := s.generation
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	list, err := s.client.ListRequests(ctx, status, 0)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	// An invalidation while fetching means the result may already be stale.
	if s.generation == gen {
		s.cache[status] = list.Requests
	}
	s.mu.Unlock()
	return list.Requests, nil
}

// MyRequests is always fetched fresh.
func (s *State) MyRequests(ctx context.Context) ([]models.RequestView, error) {
	tok, err := s.token()
	if err != nil {
		return nil, err
	}
	list, err := s.client.MyRequests(ctx, tok)
	if err != nil {
		return nil, err
	}
	return list.Requests, nil
}

func (s *State) CreateRequest(ctx context.Context, in NewRequest) (*models.ServiceRequest, error) {
	tok, err := s.token()
	if err != nil {
		return nil, err
	}
	res, err := s.client.CreateRequest(ctx, tok, in)
	if err != nil {
		return nil, err
	}
	s.InvalidateRequests()
	return &res.Request, nil
}

func (s *State) UpdateStatus(ctx context.Context, id uint, status models.RequestStatus, volunteerID uint) (*models.ServiceRequest, error) {
	tok, err := s.token()
	if err != nil {
		return nil, err
	}
	res, err := s.client.UpdateStatus(ctx, tok, id, status, volunteerID)
	if err != nil {
		return nil, err
	}
	s.InvalidateRequests()
	return &res.Request, nil
}

// InvalidateRequests drops every cached request list.
func (s *State) InvalidateRequests() {
	s.mu.Lock()
	s.invalidateLocked()
	s.mu.Unlock()
}

func (s *State) invalidateLocked() {
	s.cache = make(map[models.RequestStatus][]models.RequestView)
	s.generation++
}

func (s *State) cached(status models.RequestStatus) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.cache[status]
	return ok
}
