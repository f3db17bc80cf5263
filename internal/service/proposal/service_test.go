package proposal

import (
	"context"
	"errors"
	"sort"
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

// fakeStore implements ProjectStore, Store, and Cache over in-memory
// maps, with the same conditional-update semantics the SQL layer has.
type fakeStore struct {
	mu        sync.Mutex
	projects  map[int]*model.Project
	proposals map[int]*model.Proposal
	contracts map[int]float64 // contract id -> budget
	nextID    int
	writes    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		projects:  make(map[int]*model.Project),
		proposals: make(map[int]*model.Proposal),
		contracts: make(map[int]float64),
		nextID:    1,
	}
}

func (f *fakeStore) addProject(companyID int, status string) *model.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &model.Project{
		ID:        f.nextID,
		CompanyID: companyID,
		Title:     "Build a marketplace",
		Status:    status,
	}
	f.nextID++
	f.projects[p.ID] = p
	return p
}

func (f *fakeStore) addProposal(projectID, freelancerID int, budget float64) *model.Proposal {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &model.Proposal{
		ID:             f.nextID,
		ProjectID:      projectID,
		FreelancerID:   freelancerID,
		Message:        "I can build this for you",
		ProposedBudget: budget,
		Status:         model.ProposalStatusPending,
		CreatedAt:      time.Now().Add(time.Duration(f.nextID) * time.Second),
	}
	f.nextID++
	f.proposals[p.ID] = p
	return p
}

func (f *fakeStore) GetByID(ctx context.Context, id int) (*model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) getProposal(id int) (*model.Proposal, error) {
	p, ok := f.proposals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	if proj, ok := f.projects[p.ProjectID]; ok {
		cp.ProjectTitle = proj.Title
	}
	return &cp, nil
}

func (f *fakeStore) Insert(ctx context.Context, p *model.Proposal) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.proposals {
		if existing.ProjectID == p.ProjectID && existing.FreelancerID == p.FreelancerID {
			return repository.ErrDuplicate
		}
	}
	p.ID = f.nextID
	f.nextID++
	p.Status = model.ProposalStatusPending
	p.CreatedAt = time.Now()
	cp := *p
	f.proposals[p.ID] = &cp
	f.writes++
	return nil
}

func (f *fakeStore) GetProposalByID(ctx context.Context, id int) (*model.Proposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getProposal(id)
}

func (f *fakeStore) FindByProjectAndFreelancer(ctx context.Context, projectID, freelancerID int) (*model.Proposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.proposals {
		if p.ProjectID == projectID && p.FreelancerID == freelancerID {
			return f.getProposal(p.ID)
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) List(ctx context.Context, filter repository.ProposalFilter) ([]model.Proposal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	result := []model.Proposal{}
	for _, p := range f.proposals {
		if filter.ProjectID != 0 && p.ProjectID != filter.ProjectID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.FreelancerID != 0 && p.FreelancerID != filter.FreelancerID {
			continue
		}
		if filter.CompanyID != 0 {
			proj, ok := f.projects[p.ProjectID]
			if !ok || proj.CompanyID != filter.CompanyID {
				continue
			}
		}
		detail, _ := f.getProposal(p.ID)
		result = append(result, *detail)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (f *fakeStore) Reject(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.proposals[id]
	if !ok || p.Status != model.ProposalStatusPending {
		return repository.ErrProposalNotPending
	}
	p.Status = model.ProposalStatusRejected
	f.writes++
	return nil
}

func (f *fakeStore) Accept(ctx context.Context, id int, terms string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.proposals[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	proj, ok := f.projects[p.ProjectID]
	if !ok {
		return 0, repository.ErrNotFound
	}

	// The conditional-update gates: zero rows affected unless the
	// project is still open and the proposal still pending.
	if proj.Status != model.ProjectStatusOpen {
		return 0, repository.ErrProjectNotOpen
	}
	if p.Status != model.ProposalStatusPending {
		return 0, repository.ErrProposalNotPending
	}

	freelancerID := p.FreelancerID
	proj.FreelancerID = &freelancerID
	proj.Status = model.ProjectStatusInProgress
	f.writes++

	for _, other := range f.proposals {
		if other.ProjectID == p.ProjectID && other.ID != id && other.Status == model.ProposalStatusPending {
			other.Status = model.ProposalStatusRejected
			f.writes++
		}
	}

	contractID := f.nextID
	f.nextID++
	f.contracts[contractID] = p.ProposedBudget
	f.writes++

	p.Status = model.ProposalStatusAccepted
	f.writes++
	return contractID, nil
}

// storeAdapter exposes the fake under the Store interface, which names
// GetByID for proposals while fakeStore.GetByID serves projects.
type storeAdapter struct {
	*fakeStore
}

func (a storeAdapter) GetByID(ctx context.Context, id int) (*model.Proposal, error) {
	return a.GetProposalByID(ctx, id)
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
	svc := NewService(store, storeAdapter{store}, pub, fakeCache{}, zap.NewNop())
	return svc, pub
}

var (
	companyIdent    = model.Identity{UserID: 10, Role: rbac.RoleCompany}
	freelancerIdent = model.Identity{UserID: 20, Role: rbac.RoleFreelancer}
	adminIdent      = model.Identity{UserID: 1, Role: rbac.RoleAdmin}
)

func TestSubmitValidationListsEveryField(t *testing.T) {
	svc, _ := newTestService(newFakeStore())

	_, err := svc.Submit(context.Background(), freelancerIdent, SubmitInput{
		ProjectID:      0,
		Message:        "too short",
		ProposedBudget: -5,
	})
	require.Error(t, err)

	var v *apperr.ValidationError
	require.True(t, errors.As(err, &v))
	assert.Contains(t, v.Fields, "project_id")
	assert.Contains(t, v.Fields, "message")
	assert.Contains(t, v.Fields, "proposed_budget")
}

func TestSubmitProjectMissingOrClosed(t *testing.T) {
	store := newFakeStore()
	closed := store.addProject(10, model.ProjectStatusInProgress)
	svc, _ := newTestService(store)

	_, err := svc.Submit(context.Background(), freelancerIdent, SubmitInput{
		ProjectID:      999,
		Message:        "happy to take this project on",
		ProposedBudget: 4000,
	})
	var notFound *apperr.NotFoundError
	require.True(t, errors.As(err, &notFound))

	_, err = svc.Submit(context.Background(), freelancerIdent, SubmitInput{
		ProjectID:      closed.ID,
		Message:        "happy to take this project on",
		ProposedBudget: 4000,
	})
	require.True(t, errors.As(err, &notFound))
}

func TestSubmitDuplicateProposalConflicts(t *testing.T) {
	store := newFakeStore()
	proj := store.addProject(10, model.ProjectStatusOpen)
	svc, _ := newTestService(store)

	in := SubmitInput{
		ProjectID:      proj.ID,
		Message:        "happy to take this project on",
		ProposedBudget: 4000,
	}
	first, err := svc.Submit(context.Background(), freelancerIdent, in)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalStatusPending, first.Status)
	assert.Equal(t, proj.Title, first.ProjectTitle)

	writesBefore := store.writes
	_, err = svc.Submit(context.Background(), freelancerIdent, in)
	var conflict *apperr.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, writesBefore, store.writes, "conflicting submit must not write")
}

func TestSubmitRequiresFreelancerRole(t *testing.T) {
	store := newFakeStore()
	proj := store.addProject(10, model.ProjectStatusOpen)
	svc, _ := newTestService(store)

	_, err := svc.Submit(context.Background(), companyIdent, SubmitInput{
		ProjectID:      proj.ID,
		Message:        "happy to take this project on",
		ProposedBudget: 4000,
	})
	var forbidden *apperr.ForbiddenError
	require.True(t, errors.As(err, &forbidden))
}

func TestListVisibilityIsMandatory(t *testing.T) {
	store := newFakeStore()
	p1 := store.addProject(10, model.ProjectStatusOpen)
	p2 := store.addProject(11, model.ProjectStatusOpen)
	store.addProposal(p1.ID, 20, 4000)
	store.addProposal(p1.ID, 21, 4500)
	store.addProposal(p2.ID, 20, 1000)
	svc, _ := newTestService(store)

	// Freelancer 20 sees only their own, even across projects.
	got, err := svc.List(context.Background(), freelancerIdent, ListInput{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, p := range got {
		assert.Equal(t, 20, p.FreelancerID)
	}

	// Company 10 only sees proposals on its own project.
	got, err = svc.List(context.Background(), companyIdent, ListInput{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, p := range got {
		assert.Equal(t, p1.ID, p.ProjectID)
	}

	// The project filter cannot widen company visibility.
	got, err = svc.List(context.Background(), companyIdent, ListInput{ProjectID: p2.ID})
	require.NoError(t, err)
	assert.Empty(t, got)

	// Admin sees everything.
	got, err = svc.List(context.Background(), adminIdent, ListInput{})
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestListOrderedNewestFirst(t *testing.T) {
	store := newFakeStore()
	p1 := store.addProject(10, model.ProjectStatusOpen)
	older := store.addProposal(p1.ID, 20, 4000)
	newer := store.addProposal(p1.ID, 21, 4500)
	svc, _ := newTestService(store)

	got, err := svc.List(context.Background(), adminIdent, ListInput{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, older.ID, got[1].ID)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	svc, _ := newTestService(newFakeStore())

	_, err := svc.List(context.Background(), adminIdent, ListInput{Status: "bogus"})
	var v *apperr.ValidationError
	require.True(t, errors.As(err, &v))
	assert.Contains(t, v.Fields, "status")
}

func TestTransitionAuthorization(t *testing.T) {
	store := newFakeStore()
	p1 := store.addProject(10, model.ProjectStatusOpen)
	prop := store.addProposal(p1.ID, 20, 4000)
	svc, _ := newTestService(store)

	var forbidden *apperr.ForbiddenError

	// Freelancers may not decide proposals at all.
	_, _, err := svc.Transition(context.Background(), freelancerIdent, prop.ID, model.ProposalStatusAccepted)
	require.True(t, errors.As(err, &forbidden))

	// Another company may not decide on someone else's project.
	otherCompany := model.Identity{UserID: 99, Role: rbac.RoleCompany}
	_, _, err = svc.Transition(context.Background(), otherCompany, prop.ID, model.ProposalStatusAccepted)
	require.True(t, errors.As(err, &forbidden))
}

func TestTransitionRejectsBadTarget(t *testing.T) {
	store := newFakeStore()
	p1 := store.addProject(10, model.ProjectStatusOpen)
	prop := store.addProposal(p1.ID, 20, 4000)
	svc, _ := newTestService(store)

	_, _, err := svc.Transition(context.Background(), companyIdent, prop.ID, "pending")
	var v *apperr.ValidationError
	require.True(t, errors.As(err, &v))
	assert.Contains(t, v.Fields, "status")
}

func TestAcceptCascade(t *testing.T) {
	store := newFakeStore()
	p1 := store.addProject(10, model.ProjectStatusOpen)
	propA := store.addProposal(p1.ID, 20, 4000)
	propB := store.addProposal(p1.ID, 21, 4500)
	svc, pub := newTestService(store)

	accepted, message, err := svc.Transition(context.Background(), companyIdent, propA.ID, model.ProposalStatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalStatusAccepted, accepted.Status)
	assert.Contains(t, message, "accepted")

	// Project assigned and moved on.
	proj, err := store.GetByID(context.Background(), p1.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProjectStatusInProgress, proj.Status)
	require.NotNil(t, proj.FreelancerID)
	assert.Equal(t, 20, *proj.FreelancerID)

	// Competing proposal rejected.
	other, err := store.GetProposalByID(context.Background(), propB.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalStatusRejected, other.Status)

	// Exactly one contract, carrying the accepted budget.
	require.Len(t, store.contracts, 1)
	for _, budget := range store.contracts {
		assert.Equal(t, 4000.0, budget)
	}

	assert.Contains(t, pub.events, "proposal.accepted")

	// Accepting the rejected competitor now conflicts.
	writesBefore := store.writes
	_, _, err = svc.Transition(context.Background(), companyIdent, propB.ID, model.ProposalStatusAccepted)
	var conflict *apperr.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, writesBefore, store.writes, "failed accept must not write")
	assert.Len(t, store.contracts, 1)
}

func TestRejectHasNoCascade(t *testing.T) {
	store := newFakeStore()
	p1 := store.addProject(10, model.ProjectStatusOpen)
	propA := store.addProposal(p1.ID, 20, 4000)
	propB := store.addProposal(p1.ID, 21, 4500)
	svc, pub := newTestService(store)

	rejected, _, err := svc.Transition(context.Background(), companyIdent, propA.ID, model.ProposalStatusRejected)
	require.NoError(t, err)
	assert.Equal(t, model.ProposalStatusRejected, rejected.Status)

	// Nothing else moved.
	proj, _ := store.GetByID(context.Background(), p1.ID)
	assert.Equal(t, model.ProjectStatusOpen, proj.Status)
	other, _ := store.GetProposalByID(context.Background(), propB.ID)
	assert.Equal(t, model.ProposalStatusPending, other.Status)
	assert.Empty(t, store.contracts)
	assert.Contains(t, pub.events, "proposal.rejected")
}

func TestTransitionOnClosedProjectConflicts(t *testing.T) {
	store := newFakeStore()
	p1 := store.addProject(10, model.ProjectStatusInProgress)
	freelancerID := 20
	p1.FreelancerID = &freelancerID
	prop := store.addProposal(p1.ID, 21, 4500)
	svc, _ := newTestService(store)

	writesBefore := store.writes
	_, _, err := svc.Transition(context.Background(), companyIdent, prop.ID, model.ProposalStatusAccepted)
	var conflict *apperr.ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, writesBefore, store.writes)
}

func TestConcurrentAcceptsOnlyOneWins(t *testing.T) {
	store := newFakeStore()
	p1 := store.addProject(10, model.ProjectStatusOpen)
	propA := store.addProposal(p1.ID, 20, 4000)
	propB := store.addProposal(p1.ID, 21, 4500)
	svc, _ := newTestService(store)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i, id := range []int{propA.ID, propB.ID} {
		wg.Add(1)
		go func(slot, proposalID int) {
			defer wg.Done()
			_, _, err := svc.Transition(context.Background(), companyIdent, proposalID, model.ProposalStatusAccepted)
			results[slot] = err
		}(i, id)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, err := range results {
		if err == nil {
			successes++
			continue
		}
		var conflict *apperr.ConflictError
		if errors.As(err, &conflict) {
			conflicts++
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent accept must win")
	assert.Equal(t, 1, conflicts, "the loser must see a conflict")
	assert.Len(t, store.contracts, 1, "exactly one contract must exist")

	accepted := 0
	for _, p := range store.proposals {
		if p.Status == model.ProposalStatusAccepted {
			accepted++
		}
	}
	assert.Equal(t, 1, accepted)
}

func TestBuildTerms(t *testing.T) {
	duration := "3 weeks"
	p := &model.Proposal{
		ProjectTitle:      "Build a marketplace",
		ProposedBudget:    4000,
		EstimatedDuration: &duration,
	}
	terms := BuildTerms(p)
	assert.Contains(t, terms, "4000.00")
	assert.Contains(t, terms, "3 weeks")

	p.EstimatedDuration = nil
	assert.Contains(t, BuildTerms(p), "not specified")
}
