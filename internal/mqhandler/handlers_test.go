package mqhandler

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"freework/internal/events"
	"freework/internal/model"
)

type fakeNotificationStore struct {
	inserted []model.Notification
}

func (f *fakeNotificationStore) Insert(ctx context.Context, n *model.Notification) error {
	n.ID = len(f.inserted) + 1
	f.inserted = append(f.inserted, *n)
	return nil
}

// fakeDeduper mirrors redis SETNX: true the first time a key is seen.
type fakeDeduper struct {
	seen map[string]bool
}

func newFakeDeduper() *fakeDeduper {
	return &fakeDeduper{seen: make(map[string]bool)}
}

func (f *fakeDeduper) SetNX(ctx context.Context, key string, ttl time.Duration) bool {
	if f.seen[key] {
		return false
	}
	f.seen[key] = true
	return true
}

func marshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestProposalSubmittedNotifiesCompany(t *testing.T) {
	store := &fakeNotificationStore{}
	h := NewProposalSubmittedHandler(store, newFakeDeduper(), zap.NewNop())

	raw := marshal(t, events.ProposalSubmittedPayload{
		ProposalID:    7,
		ProjectID:     3,
		ProjectTitle:  "Build a marketplace",
		CompanyUserID: 10,
		FreelancerID:  20,
	})
	require.NoError(t, h.Handle(context.Background(), raw))

	require.Len(t, store.inserted, 1)
	n := store.inserted[0]
	assert.Equal(t, 10, n.UserID)
	assert.Equal(t, "proposal_submitted", n.Type)
	assert.Contains(t, n.Content, "Build a marketplace")
}

func TestProposalSubmittedDedupesRedelivery(t *testing.T) {
	store := &fakeNotificationStore{}
	h := NewProposalSubmittedHandler(store, newFakeDeduper(), zap.NewNop())

	raw := marshal(t, events.ProposalSubmittedPayload{ProposalID: 7, CompanyUserID: 10})
	require.NoError(t, h.Handle(context.Background(), raw))
	require.NoError(t, h.Handle(context.Background(), raw))

	assert.Len(t, store.inserted, 1, "a redelivered event must notify once")
}

func TestProposalDecidedNotifiesFreelancer(t *testing.T) {
	store := &fakeNotificationStore{}
	h := NewProposalDecidedHandler(store, newFakeDeduper(), zap.NewNop())

	raw := marshal(t, events.ProposalDecidedPayload{
		ProposalID:   7,
		ProjectTitle: "Build a marketplace",
		FreelancerID: 20,
		Status:       model.ProposalStatusAccepted,
	})
	require.NoError(t, h.Handle(context.Background(), raw))

	require.Len(t, store.inserted, 1)
	assert.Equal(t, 20, store.inserted[0].UserID)
	assert.Equal(t, "proposal_accepted", store.inserted[0].Type)
	assert.Contains(t, store.inserted[0].Content, "accepted")
}

func TestProposalDecidedAcceptAndRejectDedupeSeparately(t *testing.T) {
	store := &fakeNotificationStore{}
	deduper := newFakeDeduper()
	h := NewProposalDecidedHandler(store, deduper, zap.NewNop())

	// Two different proposals on the same project get distinct keys.
	accepted := marshal(t, events.ProposalDecidedPayload{
		ProposalID: 7, FreelancerID: 20, Status: model.ProposalStatusAccepted,
	})
	rejected := marshal(t, events.ProposalDecidedPayload{
		ProposalID: 8, FreelancerID: 21, Status: model.ProposalStatusRejected,
	})
	require.NoError(t, h.Handle(context.Background(), accepted))
	require.NoError(t, h.Handle(context.Background(), rejected))
	require.NoError(t, h.Handle(context.Background(), rejected))

	require.Len(t, store.inserted, 2)
	assert.Equal(t, "proposal_rejected", store.inserted[1].Type)
	assert.Contains(t, store.inserted[1].Content, "rejected")
}

func TestContractCompletedNotifiesCompany(t *testing.T) {
	store := &fakeNotificationStore{}
	h := NewContractCompletedHandler(store, newFakeDeduper(), zap.NewNop())

	raw := marshal(t, events.ContractCompletedPayload{
		ContractID:    5,
		ProjectTitle:  "Build a marketplace",
		CompanyUserID: 10,
		FreelancerID:  20,
	})
	require.NoError(t, h.Handle(context.Background(), raw))

	require.Len(t, store.inserted, 1)
	assert.Equal(t, 10, store.inserted[0].UserID)
	assert.Equal(t, "contract_completed", store.inserted[0].Type)
	assert.Contains(t, store.inserted[0].Content, "Build a marketplace")

	// Redelivery does not notify again.
	require.NoError(t, h.Handle(context.Background(), raw))
	assert.Len(t, store.inserted, 1)
}

func TestReviewCreatedNotifiesReviewed(t *testing.T) {
	store := &fakeNotificationStore{}
	h := NewReviewCreatedHandler(store, newFakeDeduper(), zap.NewNop())

	raw := marshal(t, events.ReviewCreatedPayload{
		ReviewID:   3,
		ContractID: 5,
		ReviewerID: 10,
		ReviewedID: 20,
		Rating:     4,
	})
	require.NoError(t, h.Handle(context.Background(), raw))

	require.Len(t, store.inserted, 1)
	assert.Equal(t, 20, store.inserted[0].UserID)
	assert.Equal(t, "review_created", store.inserted[0].Type)
}

func TestMessageSentNotifiesRecipient(t *testing.T) {
	store := &fakeNotificationStore{}
	h := NewMessageSentHandler(store, newFakeDeduper(), zap.NewNop())

	raw := marshal(t, events.MessageSentPayload{
		MessageID:   9,
		SenderID:    20,
		RecipientID: 10,
	})
	require.NoError(t, h.Handle(context.Background(), raw))

	require.Len(t, store.inserted, 1)
	assert.Equal(t, 10, store.inserted[0].UserID)
	assert.Equal(t, "message_sent", store.inserted[0].Type)
}

func TestHandlersRejectMalformedPayloads(t *testing.T) {
	store := &fakeNotificationStore{}
	h := NewProposalSubmittedHandler(store, newFakeDeduper(), zap.NewNop())

	err := h.Handle(context.Background(), json.RawMessage(`{bad json`))
	assert.Error(t, err)
	assert.Empty(t, store.inserted)
}
