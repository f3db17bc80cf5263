package contract

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"freework/internal/apperr"
	"freework/internal/model"
	"freework/internal/repository"
	"freework/pkg/rbac"
)

type fakeStore struct {
	mu        sync.Mutex
	contracts map[int]*model.Contract
	completes int
}

func newFakeStore() *fakeStore {
	return &fakeStore{contracts: make(map[int]*model.Contract)}
}

func (f *fakeStore) add(id, companyID, freelancerID int, completed bool) *model.Contract {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := &model.Contract{
		ID:           id,
		ProjectID:    id * 10,
		CompanyID:    companyID,
		FreelancerID: freelancerID,
		ProjectTitle: "Build a marketplace",
		Budget:       4000,
		IsCompleted:  completed,
		StartDate:    time.Now(),
	}
	f.contracts[id] = c
	return c
}

func (f *fakeStore) GetByID(ctx context.Context, id int) (*model.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contracts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ListByParty(ctx context.Context, userID, limit int) ([]model.Contract, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []model.Contract{}
	for _, c := range f.contracts {
		if c.CompanyID == userID || c.FreelancerID == userID {
			result = append(result, *c)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (f *fakeStore) Complete(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contracts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if c.IsCompleted {
		return repository.ErrAlreadyCompleted
	}
	now := time.Now()
	c.IsCompleted = true
	c.EndDate = &now
	f.completes++
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (f *fakePublisher) Publish(routingKey string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, routingKey)
	return nil
}

type fakeCache struct{}

func (fakeCache) Del(ctx context.Context, keys ...string) error { return nil }

func newTestService(store *fakeStore) (*Service, *fakePublisher) {
	pub := &fakePublisher{}
	return NewService(store, pub, fakeCache{}, zap.NewNop()), pub
}

var (
	companyIdent    = model.Identity{UserID: 10, Role: rbac.RoleCompany}
	freelancerIdent = model.Identity{UserID: 20, Role: rbac.RoleFreelancer}
	adminIdent      = model.Identity{UserID: 1, Role: rbac.RoleAdmin}
)

func TestGetHidesContractsFromStrangers(t *testing.T) {
	store := newFakeStore()
	store.add(1, 10, 20, false)
	svc, _ := newTestService(store)

	got, err := svc.Get(context.Background(), freelancerIdent, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ID)

	_, err = svc.Get(context.Background(), model.Identity{UserID: 99, Role: rbac.RoleFreelancer}, 1)
	var notFound *apperr.NotFoundError
	require.True(t, errors.As(err, &notFound), "strangers must see not-found, not forbidden")

	got, err = svc.Get(context.Background(), adminIdent, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ID)
}

func TestCompleteSucceedsOnceThenConflicts(t *testing.T) {
	store := newFakeStore()
	store.add(1, 10, 20, false)
	svc, pub := newTestService(store)

	done, err := svc.Complete(context.Background(), freelancerIdent, 1)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
	require.NotNil(t, done.EndDate)
	assert.Contains(t, pub.events, "contract.completed")

	_, err = svc.Complete(context.Background(), freelancerIdent, 1)
	var conflict *apperr.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, 1, store.completes)
	assert.Len(t, pub.events, 1, "a failed completion must not publish")
}

func TestCompleteFlowPartyChecks(t *testing.T) {
	store := newFakeStore()
	store.add(1, 10, 20, false)
	svc, _ := newTestService(store)

	var forbidden *apperr.ForbiddenError

	// The freelancer flow rejects companies outright.
	_, err := svc.Complete(context.Background(), companyIdent, 1)
	require.True(t, errors.As(err, &forbidden))

	// And rejects a freelancer who is not the contracted party.
	_, err = svc.Complete(context.Background(), model.Identity{UserID: 99, Role: rbac.RoleFreelancer}, 1)
	require.True(t, errors.As(err, &forbidden))

	// The company flow mirrors both checks.
	_, err = svc.CompleteByCompany(context.Background(), freelancerIdent, 1)
	require.True(t, errors.As(err, &forbidden))
	_, err = svc.CompleteByCompany(context.Background(), model.Identity{UserID: 99, Role: rbac.RoleCompany}, 1)
	require.True(t, errors.As(err, &forbidden))

	// The right company completes fine.
	done, err := svc.CompleteByCompany(context.Background(), companyIdent, 1)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
}

func TestAdminMayCompleteEitherFlow(t *testing.T) {
	store := newFakeStore()
	store.add(1, 10, 20, false)
	svc, _ := newTestService(store)

	done, err := svc.Complete(context.Background(), adminIdent, 1)
	require.NoError(t, err)
	assert.True(t, done.IsCompleted)
}

func TestCompleteMissingContract(t *testing.T) {
	svc, _ := newTestService(newFakeStore())

	_, err := svc.Complete(context.Background(), freelancerIdent, 42)
	var notFound *apperr.NotFoundError
	require.True(t, errors.As(err, &notFound))
}

func TestListScopesToCaller(t *testing.T) {
	store := newFakeStore()
	store.add(1, 10, 20, false)
	store.add(2, 10, 21, true)
	store.add(3, 11, 20, false)
	svc, _ := newTestService(store)

	got, err := svc.List(context.Background(), freelancerIdent, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = svc.List(context.Background(), companyIdent, 0)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
