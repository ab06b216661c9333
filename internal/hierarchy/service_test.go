package hierarchy

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashbet-backoffice/internal/api"
	"cashbet-backoffice/internal/model"
	"cashbet-backoffice/internal/session"
)

// fakeDirectory implements DirectoryAPI against a canned payload.
type fakeDirectory struct {
	payload     model.UserNode
	fetchCalls  int
	updateCalls int
	deleteCalls int
	updateErr   error
	deleteErr   error
}

func (f *fakeDirectory) UsersByCreatorID(_ context.Context, _ string) (*model.UserNode, error) {
	f.fetchCalls++
	payload := f.payload
	return &payload, nil
}

// Update merges non-empty request fields over the stored record, the way
// the backend applies partial updates, and returns the merged record.
func (f *fakeDirectory) Update(_ context.Context, req api.UpdateRequest) (*model.UserNode, error) {
	f.updateCalls++
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	record := f.lookup(f.payload, req.UserID)
	if req.Username != "" {
		record.Username = req.Username
	}
	if req.Role != "" {
		record.Role = req.Role
	}
	return &record, nil
}

func (f *fakeDirectory) lookup(node model.UserNode, id string) model.UserNode {
	if node.ID == id {
		return node
	}
	for _, child := range node.Children {
		if found := f.lookup(child, id); found.ID == id {
			return found
		}
	}
	return model.UserNode{}
}

func (f *fakeDirectory) DeleteByID(_ context.Context, _ string) error {
	f.deleteCalls++
	return f.deleteErr
}

// fakeLedger implements LedgerAPI and counts calls.
type fakeLedger struct {
	calls int
	err   error
}

func (f *fakeLedger) Transfer(_ context.Context, _, _ string, _ float64, _, _ string) (*api.TransferResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &api.TransferResult{}, nil
}

// newTestService builds a hydrated service over the sample payload, with
// the operator logged in as the root node.
func newTestService(t *testing.T) (*Service, *fakeDirectory, *fakeLedger, *session.Store) {
	t.Helper()

	dir := &fakeDirectory{payload: samplePayload()}
	ledger := &fakeLedger{}
	sess := session.NewStore()
	sess.Init(session.Identity{ID: "R", Username: "root", Role: model.RoleOwner}, "tok")

	svc := NewService(dir, ledger, sess)
	require.NoError(t, svc.Hydrate(context.Background()))
	return svc, dir, ledger, sess
}

// TestServiceHydrate replaces the whole tree from the directory payload.
func TestServiceHydrate(t *testing.T) {
	svc, dir, _, _ := newTestService(t)
	assert.Equal(t, 1, dir.fetchCalls)
	assert.Equal(t, 5, svc.Count())

	node := svc.Select("C")
	require.NotNil(t, node)
	assert.Equal(t, "carol", node.Username)
}

// TestServiceHydrateWithoutSession fails before any network call.
func TestServiceHydrateWithoutSession(t *testing.T) {
	dir := &fakeDirectory{payload: samplePayload()}
	svc := NewService(dir, &fakeLedger{}, session.NewStore())

	err := svc.Hydrate(context.Background())
	assert.ErrorIs(t, err, session.ErrNoSession)
	assert.Equal(t, 0, dir.fetchCalls)
}

// TestServiceHydrateCancelled discards a payload that arrives after the
// caller navigated away; the previous tree is retained.
func TestServiceHydrateCancelled(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.Hydrate(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 5, svc.Count())
}

// TestServiceSelectMiss returns nil for ids not in the tree.
func TestServiceSelectMiss(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	assert.Nil(t, svc.Select("nope"))
	assert.Nil(t, svc.Selected())
}

// TestServiceRename patches exactly the renamed node on success.
func TestServiceRename(t *testing.T) {
	svc, dir, _, _ := newTestService(t)

	require.NoError(t, svc.Rename(context.Background(), "B", "bobby", model.RoleSuperAgent, ""))
	assert.Equal(t, 1, dir.updateCalls)

	node := svc.Select("B")
	require.NotNil(t, node)
	assert.Equal(t, "bobby", node.Username)
	assert.Equal(t, model.RoleSuperAgent, node.Role)

	// Siblings untouched.
	other := svc.Select("A")
	require.NotNil(t, other)
	assert.Equal(t, "alice", other.Username)
}

// TestServiceRenameFailureLeavesTreeUntouched: on a backend rejection the
// local tree keeps its prior state.
func TestServiceRenameFailureLeavesTreeUntouched(t *testing.T) {
	svc, dir, _, _ := newTestService(t)
	dir.updateErr = errors.New("conflict")

	before, ok := svc.Snapshot()
	require.True(t, ok)

	err := svc.Rename(context.Background(), "B", "taken", model.RolePartner, "")
	assert.Error(t, err)

	after, ok := svc.Snapshot()
	require.True(t, ok)
	assert.Equal(t, before, after)
}

// TestServiceRenamePasswordOnly: an update that carries only a new password
// leaves the node's username and role as the backend kept them, rather than
// blanking them locally.
func TestServiceRenamePasswordOnly(t *testing.T) {
	svc, dir, _, _ := newTestService(t)

	require.NoError(t, svc.Rename(context.Background(), "B", "", "", "hunter2"))
	assert.Equal(t, 1, dir.updateCalls)

	node := svc.Select("B")
	require.NotNil(t, node)
	assert.Equal(t, "bob", node.Username)
	assert.Equal(t, model.RolePartner, node.Role)
}

// TestServiceRenameSelfUpdatesSession: renaming the authenticated operator
// also patches the cached identity.
func TestServiceRenameSelfUpdatesSession(t *testing.T) {
	svc, _, _, sess := newTestService(t)

	require.NoError(t, svc.Rename(context.Background(), "R", "root2", model.RoleOwner, ""))

	identity, err := sess.Identity()
	require.NoError(t, err)
	assert.Equal(t, "root2", identity.Username)
}

// TestServiceRenameUnknownNode fails fast with no backend call.
func TestServiceRenameUnknownNode(t *testing.T) {
	svc, dir, _, _ := newTestService(t)

	err := svc.Rename(context.Background(), "ghost", "x", model.RoleUser, "")
	assert.ErrorIs(t, err, ErrNodeNotFound)
	assert.Equal(t, 0, dir.updateCalls)
}

// TestServiceRemove excises the subtree and clears a selection inside it.
func TestServiceRemove(t *testing.T) {
	svc, dir, _, _ := newTestService(t)
	require.NotNil(t, svc.Select("C"))

	require.NoError(t, svc.Remove(context.Background(), "A"))
	assert.Equal(t, 1, dir.deleteCalls)
	assert.Equal(t, 2, svc.Count())
	assert.Nil(t, svc.Selected())
	assert.Nil(t, svc.Select("C"))
}

// TestServiceRemoveFailureLeavesTreeUntouched mirrors the rename contract.
func TestServiceRemoveFailureLeavesTreeUntouched(t *testing.T) {
	svc, dir, _, _ := newTestService(t)
	dir.deleteErr = errors.New("forbidden")

	err := svc.Remove(context.Background(), "A")
	assert.Error(t, err)
	assert.Equal(t, 5, svc.Count())
}

// TestServiceRemoveRoot empties the tree; both ids go.
func TestServiceRemoveRoot(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	require.NoError(t, svc.Remove(context.Background(), "R"))
	assert.Equal(t, 0, svc.Count())
	_, ok := svc.Snapshot()
	assert.False(t, ok)
}

// TestServiceTransferInvalidAmount never issues a network call.
func TestServiceTransferInvalidAmount(t *testing.T) {
	svc, _, ledger, _ := newTestService(t)

	for _, amount := range []float64{0, -1, -0.01} {
		_, err := svc.Transfer(context.Background(), "R", "A", amount, model.TransferDeposit, "")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
	assert.Equal(t, 0, ledger.calls)
}

// TestServiceTransferInvalidDirection rejects anything but deposit/withdraw.
func TestServiceTransferInvalidDirection(t *testing.T) {
	svc, _, ledger, _ := newTestService(t)

	_, err := svc.Transfer(context.Background(), "R", "A", 50, "sideways", "")
	assert.ErrorIs(t, err, ErrInvalidDirection)
	assert.Equal(t, 0, ledger.calls)
}

// TestServiceTransfer forwards valid transfers to the ledger and leaves
// local balances alone; the server is authoritative.
func TestServiceTransfer(t *testing.T) {
	svc, _, ledger, _ := newTestService(t)

	balanceBefore := svc.Select("A").Balance

	_, err := svc.Transfer(context.Background(), "R", "A", 100, model.TransferWithdraw, "note")
	require.NoError(t, err)
	assert.Equal(t, 1, ledger.calls)
	assert.Equal(t, balanceBefore, svc.Select("A").Balance)
}
