// Package session owns the thread list: which threads exist, which is
// selected, and how an outgoing message turns into a backend call and
// a merged-in reply. All state flows through the Manager so the
// presentation layer and the CLI commands see the same rules.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/desklinehq/deskline/internal/core"
	"github.com/desklinehq/deskline/internal/gateway"
	"github.com/desklinehq/deskline/internal/history"
	"github.com/desklinehq/deskline/internal/store"
	"github.com/desklinehq/deskline/internal/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrOutOfRange reports a stale or invalid thread index. It indicates
// a caller bug, not a runtime condition.
var ErrOutOfRange = errors.New("thread index out of range")

// ErrSendInFlight reports a second send on a thread whose previous
// send has not resolved. Sends are serialized per thread.
var ErrSendInFlight = errors.New("send already in flight for this thread")

// Gateway is what the manager needs from the backend client.
type Gateway interface {
	History(ctx context.Context, email string) ([]types.HistoryRecord, error)
	SendMessage(ctx context.Context, req gateway.SendRequest) (*types.PipelineResult, error)
	SendPipelineMessage(ctx context.Context, req gateway.SendRequest) (*types.PipelineResult, error)
}

// Manager holds the authoritative thread state. Every public method
// is safe for concurrent use; reads return copies so a render never
// observes a half-applied mutation.
type Manager struct {
	mu       sync.Mutex
	gw       Gateway
	store    store.Store
	email    string
	logger   *zap.Logger
	threads  []types.Thread
	active   int
	inflight map[string]bool
}

// NewManager wires the manager to its gateway and durable store. gw
// may be nil for offline commands that only read local state.
func NewManager(gw Gateway, st store.Store, email string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		gw:       gw,
		store:    st,
		email:    email,
		logger:   logger,
		inflight: make(map[string]bool),
	}
}

// Bootstrap establishes the initial thread set: the local snapshot if
// one exists, otherwise the server history reconciled into threads,
// otherwise a single fresh thread. It never fails; every anomaly
// degrades to the fresh-thread fallback.
func (m *Manager) Bootstrap(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, err := m.store.LoadSnapshot()
	if err != nil {
		m.logger.Warn("load snapshot", zap.Error(err))
	}
	if snap != nil && len(snap.Threads) > 0 {
		m.threads = snap.Threads
		m.active = clamp(snap.Active, len(m.threads))
		m.normalizeLocked()
		return
	}

	if m.gw != nil && m.email != "" {
		m.restoreFromServerLocked(ctx)
	}

	if len(m.threads) == 0 {
		m.createThreadLocked()
	}
	m.persistLocked()
}

// RestoreFromServer discards local threads and rebuilds them from the
// backend transcript. Used at login so a returning user sees every
// conversation the server remembers.
func (m *Manager) RestoreFromServer(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	records, err := m.gw.History(ctx, m.email)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}

	m.threads, m.active = history.Reconcile(records)
	if len(m.threads) == 0 {
		m.createThreadLocked()
	}
	m.persistLocked()
	return nil
}

func (m *Manager) restoreFromServerLocked(ctx context.Context) {
	records, err := m.gw.History(ctx, m.email)
	if err != nil {
		m.logger.Warn("fetch history", zap.Error(err))
		return
	}
	m.threads, m.active = history.Reconcile(records)
}

// CreateThread appends a blank thread, selects it, and returns its
// conversation id. It always succeeds.
func (m *Manager) CreateThread() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.createThreadLocked()
	m.persistLocked()
	return id
}

func (m *Manager) createThreadLocked() string {
	id := uuid.New().String()
	m.threads = append(m.threads, types.Thread{
		ConversationID: id,
		Title:          core.PlaceholderTitle(len(m.threads) + 1),
		Messages:       []types.Message{},
		Status:         types.StatusActive,
		CreatedAt:      time.Now().UnixMilli(),
	})
	m.active = len(m.threads) - 1
	return id
}

// SelectThread makes the thread at index the active one.
func (m *Manager) SelectThread(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.threads) {
		return ErrOutOfRange
	}
	m.active = index
	m.persistLocked()
	return nil
}

// DeleteThread removes the thread at index. Deleting the last thread
// refills the set with a fresh blank one so there is always at least
// one thread. A send still in flight for the removed thread is
// detached: its response is dropped when it lands.
func (m *Manager) DeleteThread(index int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.threads) {
		return ErrOutOfRange
	}

	removed := m.threads[index]
	m.threads = append(m.threads[:index], m.threads[index+1:]...)
	delete(m.inflight, removed.ConversationID)

	if len(m.threads) == 0 {
		m.createThreadLocked()
	} else {
		m.active = max(0, index-1)
	}
	m.persistLocked()
	return nil
}

// SendMessage appends the user turn, routes it to the backend
// operation the thread's status selects, and merges the reply into
// the originating thread. The user message is visible and persisted
// before the network call starts; the lock is released during the
// round trip so other threads stay interactive.
func (m *Manager) SendMessage(ctx context.Context, index int, content string) error {
	m.mu.Lock()
	if index < 0 || index >= len(m.threads) {
		m.mu.Unlock()
		return ErrOutOfRange
	}
	thread := &m.threads[index]
	conversationID := thread.ConversationID
	if m.inflight[conversationID] {
		m.mu.Unlock()
		return ErrSendInFlight
	}

	thread.Messages = append(thread.Messages, types.Message{
		Role:    types.RoleUser,
		Content: content,
		TS:      time.Now().UnixMilli(),
	})
	// Routing is decided from the status at call time, before the
	// response can overwrite it.
	useBasic := thread.Status == types.StatusAwaitingConfirmation
	m.inflight[conversationID] = true
	m.persistLocked()
	m.mu.Unlock()

	req := gateway.SendRequest{
		ConversationID: conversationID,
		Message:        content,
		UserEmail:      m.email,
	}
	var result *types.PipelineResult
	var sendErr error
	if useBasic {
		result, sendErr = m.gw.SendMessage(ctx, req)
	} else {
		result, sendErr = m.gw.SendPipelineMessage(ctx, req)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inflight, conversationID)

	idx := m.findLocked(conversationID)
	if idx < 0 {
		// Thread deleted mid-flight; the response has nowhere to go.
		m.logger.Info("dropping response for deleted thread",
			zap.String("conversation_id", conversationID))
		return nil
	}
	thread = &m.threads[idx]

	if sendErr != nil {
		m.logger.Warn("send failed",
			zap.String("conversation_id", conversationID),
			zap.Error(sendErr))
		thread.Messages = append(thread.Messages, types.Message{
			Role:    types.RoleAssistant,
			Content: types.SendFailureReply,
			TS:      time.Now().UnixMilli(),
		})
		m.deriveTitleLocked(thread, content)
		m.persistLocked()
		return fmt.Errorf("send message: %w", sendErr)
	}

	thread.Messages = append(thread.Messages, types.Message{
		Role:     types.RoleAssistant,
		Content:  result.ReplyText(),
		TS:       time.Now().UnixMilli(),
		Pipeline: result,
	})
	if result.Status != "" {
		thread.Status = result.Status
	} else {
		thread.Status = types.StatusActive
	}
	m.deriveTitleLocked(thread, content)
	m.persistLocked()
	return nil
}

// deriveTitleLocked names the thread after its opening user message
// once the first exchange completes. Exactly two messages means this
// is that moment; the count only grows afterwards, so the title can
// never change again.
func (m *Manager) deriveTitleLocked(thread *types.Thread, userContent string) {
	if len(thread.Messages) == 2 {
		thread.Title = core.DeriveThreadTitle(userContent)
	}
}

func (m *Manager) findLocked(conversationID string) int {
	for i := range m.threads {
		if m.threads[i].ConversationID == conversationID {
			return i
		}
	}
	return -1
}

// persistLocked saves the snapshot, logging failures instead of
// surfacing them: in-memory state stays authoritative until the next
// successful save.
func (m *Manager) persistLocked() {
	snap := types.Snapshot{Threads: m.threads, Active: m.active}
	if err := m.store.SaveSnapshot(&snap); err != nil {
		m.logger.Warn("persist snapshot", zap.Error(err))
	}
}

func (m *Manager) normalizeLocked() {
	for i := range m.threads {
		if m.threads[i].Messages == nil {
			m.threads[i].Messages = []types.Message{}
		}
	}
}

// Threads returns a deep copy of the thread list.
func (m *Manager) Threads() []types.Thread {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]types.Thread, len(m.threads))
	for i, t := range m.threads {
		out[i] = t.Clone()
	}
	return out
}

// ActiveIndex returns the selected thread's position.
func (m *Manager) ActiveIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// ActiveThread returns a copy of the selected thread.
func (m *Manager) ActiveThread() (types.Thread, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active < 0 || m.active >= len(m.threads) {
		return types.Thread{}, false
	}
	return m.threads[m.active].Clone(), true
}

// ThreadCount returns how many threads exist.
func (m *Manager) ThreadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.threads)
}

// InFlight reports whether a send is outstanding for the thread.
func (m *Manager) InFlight(conversationID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inflight[conversationID]
}

// Snapshot returns a deep copy of the full state.
func (m *Manager) Snapshot() types.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := types.Snapshot{Threads: m.threads, Active: m.active}
	return snap.Clone()
}

func clamp(index, length int) int {
	if index < 0 {
		return 0
	}
	if index >= length {
		return length - 1
	}
	return index
}
