package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"identity-coach-be/internal/entity"
	"identity-coach-be/internal/repository/contract"
	"identity-coach-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// Store is an in-process backing store for coaching data. It is used by tests and by the
// "memory" store driver; data is lost on restart.
type Store struct {
	mu         sync.Mutex
	sessions   map[uuid.UUID]*entity.CoachingSession // keyed by user id
	identities map[uuid.UUID]*storedIdentity
	logs       []*entity.ActionLog
	seq        int64
}

type storedIdentity struct {
	identity *entity.Identity
	seq      int64
}

func NewStore() *Store {
	return &Store{
		sessions:   make(map[uuid.UUID]*entity.CoachingSession),
		identities: make(map[uuid.UUID]*storedIdentity),
	}
}

// ActionLogs returns a copy of every stored audit row, oldest first.
func (s *Store) ActionLogs() []*entity.ActionLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*entity.ActionLog(nil), s.logs...)
}

type RepositoryFactory struct {
	store *Store
}

func NewRepositoryFactory(store *Store) unitofwork.RepositoryFactory {
	return &RepositoryFactory{store: store}
}

func (f *RepositoryFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &UnitOfWork{store: f.store}
}

// UnitOfWork writes through to the store immediately. Inside Begin/Commit it keeps an undo
// journal so Rollback restores exactly the rows this unit of work touched.
type UnitOfWork struct {
	store   *Store
	active  bool
	journal []func()
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	if u.active {
		return fmt.Errorf("transaction already started")
	}
	u.active = true
	u.journal = nil
	return nil
}

func (u *UnitOfWork) Commit() error {
	if !u.active {
		return fmt.Errorf("no transaction to commit")
	}
	u.active = false
	u.journal = nil
	return nil
}

func (u *UnitOfWork) Rollback() error {
	if !u.active {
		return fmt.Errorf("no transaction to rollback")
	}
	u.store.mu.Lock()
	for i := len(u.journal) - 1; i >= 0; i-- {
		u.journal[i]()
	}
	u.store.mu.Unlock()
	u.active = false
	u.journal = nil
	return nil
}

// record must be called with the store lock held.
func (u *UnitOfWork) record(undo func()) {
	if u.active {
		u.journal = append(u.journal, undo)
	}
}

func (u *UnitOfWork) CoachingSessionRepository() contract.CoachingSessionRepository {
	return &sessionRepository{uow: u}
}

func (u *UnitOfWork) IdentityRepository() contract.IdentityRepository {
	return &identityRepository{uow: u}
}

func (u *UnitOfWork) ActionLogRepository() contract.ActionLogRepository {
	return &actionLogRepository{uow: u}
}

// Session repository

type sessionRepository struct {
	uow *UnitOfWork
}

func (r *sessionRepository) Create(ctx context.Context, session *entity.CoachingSession) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.UserId]; exists {
		return fmt.Errorf("%w: user %s", contract.ErrSessionExists, session.UserId)
	}
	if session.Id == uuid.Nil {
		session.Id = uuid.New()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	s.sessions[session.UserId] = session.Clone()
	userId := session.UserId
	r.uow.record(func() { delete(s.sessions, userId) })
	return nil
}

func (r *sessionRepository) Update(ctx context.Context, session *entity.CoachingSession) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, exists := s.sessions[session.UserId]
	if !exists {
		return fmt.Errorf("coaching session for user %s not found", session.UserId)
	}
	now := time.Now()
	session.UpdatedAt = &now
	s.sessions[session.UserId] = session.Clone()
	userId := session.UserId
	r.uow.record(func() { s.sessions[userId] = previous })
	return nil
}

func (r *sessionRepository) FindByUserId(ctx context.Context, userId uuid.UUID) (*entity.CoachingSession, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[userId]
	if !exists {
		return nil, nil
	}
	return session.Clone(), nil
}

func (r *sessionRepository) DeleteByUserId(ctx context.Context, userId uuid.UUID) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, exists := s.sessions[userId]
	if !exists {
		return nil
	}
	delete(s.sessions, userId)
	r.uow.record(func() { s.sessions[userId] = previous })
	return nil
}

// Identity repository

type identityRepository struct {
	uow *UnitOfWork
}

func (r *identityRepository) Create(ctx context.Context, identity *entity.Identity) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if identity.Id == uuid.Nil {
		identity.Id = uuid.New()
	}
	if _, exists := s.identities[identity.Id]; exists {
		return fmt.Errorf("identity %s already exists", identity.Id)
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now()
	}
	s.seq++
	s.identities[identity.Id] = &storedIdentity{identity: identity.Clone(), seq: s.seq}
	id := identity.Id
	r.uow.record(func() { delete(s.identities, id) })
	return nil
}

func (r *identityRepository) Update(ctx context.Context, identity *entity.Identity) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, exists := s.identities[identity.Id]
	if !exists || previous.identity.UserId != identity.UserId {
		return fmt.Errorf("identity %s not found", identity.Id)
	}
	now := time.Now()
	identity.UpdatedAt = &now
	s.identities[identity.Id] = &storedIdentity{identity: identity.Clone(), seq: previous.seq}
	id := identity.Id
	r.uow.record(func() { s.identities[id] = previous })
	return nil
}

func (r *identityRepository) Delete(ctx context.Context, userId, id uuid.UUID) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	previous, exists := s.identities[id]
	if !exists || previous.identity.UserId != userId {
		return nil
	}
	delete(s.identities, id)
	r.uow.record(func() { s.identities[id] = previous })
	return nil
}

func (r *identityRepository) DeleteAllByUserId(ctx context.Context, userId uuid.UUID) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, stored := range s.identities {
		if stored.identity.UserId != userId {
			continue
		}
		delete(s.identities, id)
		id, stored := id, stored
		r.uow.record(func() { s.identities[id] = stored })
	}
	return nil
}

func (r *identityRepository) FindById(ctx context.Context, userId, id uuid.UUID) (*entity.Identity, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, exists := s.identities[id]
	if !exists || stored.identity.UserId != userId {
		return nil, nil
	}
	return stored.identity.Clone(), nil
}

func (r *identityRepository) FindAllByUserId(ctx context.Context, userId uuid.UUID) ([]*entity.Identity, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	owned := make([]*storedIdentity, 0)
	for _, stored := range s.identities {
		if stored.identity.UserId == userId {
			owned = append(owned, stored)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].identity.CreatedAt.Equal(owned[j].identity.CreatedAt) {
			return owned[i].identity.CreatedAt.Before(owned[j].identity.CreatedAt)
		}
		return owned[i].seq < owned[j].seq
	})

	identities := make([]*entity.Identity, len(owned))
	for i, stored := range owned {
		identities[i] = stored.identity.Clone()
	}
	return identities, nil
}

// Action log repository

type actionLogRepository struct {
	uow *UnitOfWork
}

func (r *actionLogRepository) Create(ctx context.Context, log *entity.ActionLog) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if log.Id == uuid.Nil {
		log.Id = uuid.New()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	stored := *log
	s.logs = append(s.logs, &stored)
	id := stored.Id
	r.uow.record(func() {
		for i, l := range s.logs {
			if l.Id == id {
				s.logs = append(s.logs[:i:i], s.logs[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (r *actionLogRepository) FindAllByUserId(ctx context.Context, userId uuid.UUID, limit int) ([]*entity.ActionLog, error) {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	logs := make([]*entity.ActionLog, 0)
	for i := len(s.logs) - 1; i >= 0; i-- {
		if s.logs[i].UserId != userId {
			continue
		}
		c := *s.logs[i]
		logs = append(logs, &c)
		if limit > 0 && len(logs) == limit {
			break
		}
	}
	return logs, nil
}

func (r *actionLogRepository) DeleteAllByUserId(ctx context.Context, userId uuid.UUID) error {
	s := r.uow.store
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.logs
	kept := make([]*entity.ActionLog, 0, len(s.logs))
	for _, l := range s.logs {
		if l.UserId != userId {
			kept = append(kept, l)
		}
	}
	s.logs = kept
	r.uow.record(func() { s.logs = previous })
	return nil
}
