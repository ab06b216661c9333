package hierarchy

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"cashbet-backoffice/internal/api"
	"cashbet-backoffice/internal/model"
	"cashbet-backoffice/internal/pkg/lock"
	"cashbet-backoffice/internal/session"
)

// Mutation errors surfaced by the service.
var (
	ErrNotHydrated      = errors.New("hierarchy not hydrated")
	ErrNodeNotFound     = errors.New("node not found in hierarchy")
	ErrInvalidAmount    = errors.New("invalid amount: must be positive")
	ErrInvalidDirection = errors.New("invalid transfer direction")
	ErrMutationInFlight = errors.New("another mutation for this node is in flight")
)

// DirectoryAPI is the slice of the directory client the service needs.
type DirectoryAPI interface {
	UsersByCreatorID(ctx context.Context, creatorID string) (*model.UserNode, error)
	Update(ctx context.Context, req api.UpdateRequest) (*model.UserNode, error)
	DeleteByID(ctx context.Context, id string) error
}

// LedgerAPI is the slice of the ledger client the service needs.
type LedgerAPI interface {
	Transfer(ctx context.Context, senderID, receiverID string, amount float64, transferType, note string) (*api.TransferResult, error)
}

// Service owns the hierarchy tree and its mutation protocol. The server is
// authoritative for every mutation: the local tree is patched only after a
// successful backend call, and left untouched on failure.
//
// A whole-tree mutex serializes readers and writers; a per-node lock on top
// guarantees a node observes at most one in-flight mutation.
type Service struct {
	mu       sync.Mutex
	tree     *Tree
	selected string

	directory DirectoryAPI
	ledger    LedgerAPI
	session   *session.Store
	locks     *lock.NodeLock
}

// NewService creates a hierarchy service. The tree starts empty; call
// Hydrate before anything else.
func NewService(directory DirectoryAPI, ledger LedgerAPI, sess *session.Store) *Service {
	return &Service{
		directory: directory,
		ledger:    ledger,
		session:   sess,
		locks:     lock.NewNodeLock(),
	}
}

// Hydrate fetches the subtree rooted at the operator's own node and
// replaces the local tree wholesale. A root with no children is a valid
// single-node tree, not an error. If ctx is cancelled while the response
// is in flight, the stale payload is discarded and the tree keeps its
// previous state.
func (s *Service) Hydrate(ctx context.Context) error {
	identity, err := s.session.Identity()
	if err != nil {
		return err
	}

	root, err := s.directory.UsersByCreatorID(ctx, identity.ID)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tree, err := Build(*root)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree = tree
	if _, ok := tree.Node(s.selected); !ok {
		s.selected = ""
	}
	log.Info().
		Str("root_id", tree.RootID()).
		Int("node_count", tree.Len()).
		Msg("Hierarchy hydrated")
	return nil
}

// Select looks up a node and records it as the current selection.
// Returns nil when the id is not in the tree; the tree itself is never
// mutated by selection.
func (s *Service) Select(nodeID string) *model.UserNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		return nil
	}
	node, ok := s.tree.Node(nodeID)
	if !ok {
		return nil
	}
	s.selected = nodeID
	return &node
}

// Selected returns the currently selected node, or nil when none is.
func (s *Service) Selected() *model.UserNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil || s.selected == "" {
		return nil
	}
	node, ok := s.tree.Node(s.selected)
	if !ok {
		return nil
	}
	return &node
}

// Rename submits an account update and, on success, patches exactly that
// node in place, preserving its children and position. The patch applies
// the record the backend returns, so fields the update left out (an empty
// username on a password-only change) keep their server-side values. A
// failed call leaves the tree untouched. When the renamed node is the
// authenticated operator, the session identity is updated too. Empty
// newPassword means the password is unchanged.
func (s *Service) Rename(ctx context.Context, nodeID, newUsername string, newRole model.Role, newPassword string) error {
	if !s.locks.TryLock(nodeID) {
		return ErrMutationInFlight
	}
	defer s.locks.Unlock(nodeID)

	if err := s.exists(nodeID); err != nil {
		return err
	}

	updated, err := s.directory.Update(ctx, api.UpdateRequest{
		UserID:   nodeID,
		Username: newUsername,
		Password: newPassword,
		Role:     newRole,
	})
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil || !s.tree.Patch(nodeID, updated.Username, updated.Role) {
		// The tree was replaced or the node vanished while the call was in
		// flight; the next hydrate reconciles.
		return nil
	}

	if identity, err := s.session.Identity(); err == nil && identity.ID == nodeID {
		s.session.UpdateIdentity(updated.Username, updated.Role)
	}
	log.Info().Str("node_id", nodeID).Str("role", string(updated.Role)).Msg("Node renamed")
	return nil
}

// Remove submits a delete and, on success, excises the node and its entire
// subtree locally, with no re-parenting. A failed call leaves the tree
// untouched. A selection inside the removed subtree is cleared.
func (s *Service) Remove(ctx context.Context, nodeID string) error {
	if !s.locks.TryLock(nodeID) {
		return ErrMutationInFlight
	}
	defer s.locks.Unlock(nodeID)

	if err := s.exists(nodeID); err != nil {
		return err
	}

	if err := s.directory.DeleteByID(ctx, nodeID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		return nil
	}
	removed := s.tree.RemoveSubtree(nodeID)
	if _, gone := removed[s.selected]; gone {
		s.selected = ""
	}
	log.Info().Str("node_id", nodeID).Int("removed", len(removed)).Msg("Subtree removed")
	return nil
}

// Transfer moves balance between the operator and a target node.
// Direction deposit credits the target, withdraw debits it. A non-positive
// amount fails fast with ErrInvalidAmount and never touches the network.
// Balances are not patched locally; the server is authoritative and the
// caller may re-hydrate.
func (s *Service) Transfer(ctx context.Context, fromID, toID string, amount float64, direction, note string) (*api.TransferResult, error) {
	if !(amount > 0) {
		return nil, ErrInvalidAmount
	}
	if direction != model.TransferDeposit && direction != model.TransferWithdraw {
		return nil, ErrInvalidDirection
	}

	if !s.locks.TryLock(toID) {
		return nil, ErrMutationInFlight
	}
	defer s.locks.Unlock(toID)

	return s.ledger.Transfer(ctx, fromID, toID, amount, direction, note)
}

// Snapshot exports the current tree in its nested payload shape.
// The second return is false before the first hydrate or after the root
// was removed.
func (s *Service) Snapshot() (model.UserNode, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		return model.UserNode{}, false
	}
	return s.tree.Export()
}

// Count returns the number of nodes in the tree.
func (s *Service) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		return 0
	}
	return s.tree.Len()
}

// exists checks hydration and node presence under the tree mutex.
func (s *Service) exists(nodeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		return ErrNotHydrated
	}
	if _, ok := s.tree.Node(nodeID); !ok {
		return ErrNodeNotFound
	}
	return nil
}
