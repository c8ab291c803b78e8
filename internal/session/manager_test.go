package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/desklinehq/deskline/internal/gateway"
	"github.com/desklinehq/deskline/internal/store"
	"github.com/desklinehq/deskline/internal/types"
)

type fakeGateway struct {
	mu             sync.Mutex
	historyRecords []types.HistoryRecord
	historyErr     error
	result         *types.PipelineResult
	sendErr        error
	basic          []gateway.SendRequest
	pipeline       []gateway.SendRequest
	started        chan string
	release        chan struct{}
}

func (f *fakeGateway) History(ctx context.Context, email string) ([]types.HistoryRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.historyRecords, nil
}

func (f *fakeGateway) SendMessage(ctx context.Context, req gateway.SendRequest) (*types.PipelineResult, error) {
	return f.send(req, true)
}

func (f *fakeGateway) SendPipelineMessage(ctx context.Context, req gateway.SendRequest) (*types.PipelineResult, error) {
	return f.send(req, false)
}

func (f *fakeGateway) send(req gateway.SendRequest, basic bool) (*types.PipelineResult, error) {
	f.mu.Lock()
	if basic {
		f.basic = append(f.basic, req)
	} else {
		f.pipeline = append(f.pipeline, req)
	}
	started, release := f.started, f.release
	result, err := f.result, f.sendErr
	f.mu.Unlock()

	if started != nil {
		started <- req.ConversationID
	}
	if release != nil {
		<-release
	}
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = &types.PipelineResult{ConversationID: req.ConversationID, Reply: "ok", Status: types.StatusActive}
	}
	return result, nil
}

func (f *fakeGateway) setResult(result *types.PipelineResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = result
}

func (f *fakeGateway) calls() (basic, pipeline int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.basic), len(f.pipeline)
}

type failingStore struct {
	saveErr error
	loadErr error
}

func (f *failingStore) SaveSnapshot(*types.Snapshot) error { return f.saveErr }
func (f *failingStore) LoadSnapshot() (*types.Snapshot, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return nil, nil
}
func (f *failingStore) ClearSnapshot() error { return nil }

func newTestManager(t *testing.T) (*Manager, *fakeGateway, *store.Memory) {
	t.Helper()
	gw := &fakeGateway{}
	mem := store.NewMemory()
	return NewManager(gw, mem, "sam@example.com", nil), gw, mem
}

func TestCreateThreadOnEmptySession(t *testing.T) {
	m, _, _ := newTestManager(t)

	id := m.CreateThread()
	if id == "" {
		t.Fatalf("expected conversation id")
	}

	threads := m.Threads()
	if len(threads) != 1 {
		t.Fatalf("expected 1 thread, got %d", len(threads))
	}
	th := threads[0]
	if th.Status != types.StatusActive {
		t.Fatalf("unexpected status %s", th.Status)
	}
	if len(th.Messages) != 0 {
		t.Fatalf("expected no messages, got %d", len(th.Messages))
	}
	if th.Title != "Chat 1" {
		t.Fatalf("unexpected title %q", th.Title)
	}
	if m.ActiveIndex() != 0 {
		t.Fatalf("expected active 0, got %d", m.ActiveIndex())
	}
}

func TestCreateThreadSelectsAndNumbers(t *testing.T) {
	m, _, _ := newTestManager(t)

	first := m.CreateThread()
	second := m.CreateThread()
	if first == second {
		t.Fatalf("conversation ids must be unique")
	}
	if m.ActiveIndex() != 1 {
		t.Fatalf("expected new thread selected, active %d", m.ActiveIndex())
	}
	threads := m.Threads()
	if threads[0].Title != "Chat 1" || threads[1].Title != "Chat 2" {
		t.Fatalf("unexpected titles %q %q", threads[0].Title, threads[1].Title)
	}
}

func TestSelectThreadOutOfRange(t *testing.T) {
	m, _, _ := newTestManager(t)
	m.CreateThread()

	if err := m.SelectThread(-1); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := m.SelectThread(1); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
	if err := m.SelectThread(0); err != nil {
		t.Fatalf("select: %v", err)
	}
}

func TestDeleteThreadReclampsActive(t *testing.T) {
	m, _, _ := newTestManager(t)
	m.CreateThread()
	m.CreateThread()
	m.CreateThread()

	if err := m.DeleteThread(1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := m.ThreadCount(); got != 2 {
		t.Fatalf("expected 2 threads, got %d", got)
	}
	if m.ActiveIndex() != 0 {
		t.Fatalf("expected active 0 after deleting index 1, got %d", m.ActiveIndex())
	}

	if err := m.DeleteThread(0); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if m.ActiveIndex() != 0 {
		t.Fatalf("expected active 0, got %d", m.ActiveIndex())
	}

	if err := m.DeleteThread(5); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestDeleteOnlyThreadRefills(t *testing.T) {
	m, _, _ := newTestManager(t)
	oldID := m.CreateThread()
	if err := m.SendMessage(context.Background(), 0, "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := m.DeleteThread(0); err != nil {
		t.Fatalf("delete: %v", err)
	}
	threads := m.Threads()
	if len(threads) != 1 {
		t.Fatalf("expected refill thread, got %d threads", len(threads))
	}
	if threads[0].ConversationID == oldID {
		t.Fatalf("refill thread must be new")
	}
	if len(threads[0].Messages) != 0 {
		t.Fatalf("refill thread must be blank, has %d messages", len(threads[0].Messages))
	}
	if m.ActiveIndex() != 0 {
		t.Fatalf("expected active 0, got %d", m.ActiveIndex())
	}
}

func TestThreadSetNeverEmpty(t *testing.T) {
	m, _, _ := newTestManager(t)
	m.CreateThread()

	ops := []func(){
		func() { m.CreateThread() },
		func() { _ = m.DeleteThread(0) },
		func() { _ = m.DeleteThread(m.ThreadCount() - 1) },
		func() { m.CreateThread() },
		func() { _ = m.DeleteThread(0) },
		func() { _ = m.DeleteThread(0) },
		func() { _ = m.DeleteThread(0) },
	}
	for i, op := range ops {
		op()
		if m.ThreadCount() < 1 {
			t.Fatalf("thread set empty after op %d", i)
		}
		if active := m.ActiveIndex(); active < 0 || active >= m.ThreadCount() {
			t.Fatalf("active index %d out of range after op %d", active, i)
		}
	}
}

func TestSendMessagePipelineFlow(t *testing.T) {
	m, gw, mem := newTestManager(t)
	m.CreateThread()
	gw.setResult(&types.PipelineResult{
		Reply:  "Let me check that order.",
		Status: types.StatusAwaitingConfirmation,
		Intent: "return",
	})

	if err := m.SendMessage(context.Background(), 0, "I want to return order 11111"); err != nil {
		t.Fatalf("send: %v", err)
	}

	basic, pipeline := gw.calls()
	if basic != 0 || pipeline != 1 {
		t.Fatalf("expected pipeline routing, got basic=%d pipeline=%d", basic, pipeline)
	}

	th := m.Threads()[0]
	if len(th.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(th.Messages))
	}
	if th.Messages[0].Role != types.RoleUser || th.Messages[0].Content != "I want to return order 11111" {
		t.Fatalf("unexpected user message %+v", th.Messages[0])
	}
	if th.Messages[1].Role != types.RoleAssistant || th.Messages[1].Content != "Let me check that order." {
		t.Fatalf("unexpected assistant message %+v", th.Messages[1])
	}
	if th.Messages[1].Pipeline == nil || th.Messages[1].Pipeline.Intent != "return" {
		t.Fatalf("pipeline payload not attached: %+v", th.Messages[1].Pipeline)
	}
	if th.Status != types.StatusAwaitingConfirmation {
		t.Fatalf("status not overwritten: %s", th.Status)
	}
	if th.Title != "I want to return order 11111" {
		t.Fatalf("unexpected title %q", th.Title)
	}

	persisted, err := mem.LoadSnapshot()
	if err != nil {
		t.Fatalf("load persisted: %v", err)
	}
	if persisted == nil || len(persisted.Threads[0].Messages) != 2 {
		t.Fatalf("snapshot not persisted after send")
	}

	// The user email rides along on the send.
	gw.mu.Lock()
	sent := gw.pipeline[0]
	gw.mu.Unlock()
	if sent.UserEmail != "sam@example.com" {
		t.Fatalf("unexpected user email %q", sent.UserEmail)
	}
}

func TestStatusRouting(t *testing.T) {
	cases := []struct {
		status    types.ThreadStatus
		wantBasic bool
	}{
		{types.StatusAwaitingConfirmation, true},
		{types.StatusActive, false},
		{types.StatusInProgress, false},
		{types.StatusAwaitingInput, false},
		{types.StatusCompleted, false},
		{types.StatusHandoff, false},
		{types.ThreadStatus("some_future_status"), false},
	}

	for _, tc := range cases {
		gw := &fakeGateway{}
		mem := store.NewMemory()
		seed := &types.Snapshot{Threads: []types.Thread{{
			ConversationID: "c1",
			Title:          "seeded",
			Status:         tc.status,
			Messages: []types.Message{
				{Role: types.RoleUser, Content: "earlier"},
				{Role: types.RoleAssistant, Content: "earlier reply"},
			},
		}}}
		if err := mem.SaveSnapshot(seed); err != nil {
			t.Fatalf("seed: %v", err)
		}
		m := NewManager(gw, mem, "sam@example.com", nil)
		m.Bootstrap(context.Background())

		if err := m.SendMessage(context.Background(), 0, "yes"); err != nil {
			t.Fatalf("%s: send: %v", tc.status, err)
		}
		basic, pipeline := gw.calls()
		if tc.wantBasic && (basic != 1 || pipeline != 0) {
			t.Fatalf("%s: expected basic op, got basic=%d pipeline=%d", tc.status, basic, pipeline)
		}
		if !tc.wantBasic && (basic != 0 || pipeline != 1) {
			t.Fatalf("%s: expected pipeline op, got basic=%d pipeline=%d", tc.status, basic, pipeline)
		}
	}
}

func TestSendFailureAppendsErrorMessage(t *testing.T) {
	gw := &fakeGateway{sendErr: errors.New("connection refused")}
	mem := store.NewMemory()
	seed := &types.Snapshot{Threads: []types.Thread{{
		ConversationID: "c1",
		Title:          "I want to return order 11111",
		Status:         types.StatusActive,
		Messages: []types.Message{
			{Role: types.RoleUser, Content: "I want to return order 11111"},
			{Role: types.RoleAssistant, Content: "Sure."},
		},
	}}}
	if err := mem.SaveSnapshot(seed); err != nil {
		t.Fatalf("seed: %v", err)
	}
	m := NewManager(gw, mem, "sam@example.com", nil)
	m.Bootstrap(context.Background())

	err := m.SendMessage(context.Background(), 0, "and order 22222 as well")
	if err == nil {
		t.Fatalf("expected send error")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("cause not preserved: %v", err)
	}

	th := m.Threads()[0]
	if len(th.Messages) != 4 {
		t.Fatalf("expected user + error messages appended, got %d", len(th.Messages))
	}
	last := th.Messages[3]
	if last.Role != types.RoleAssistant || last.Content != types.SendFailureReply {
		t.Fatalf("unexpected failure message %+v", last)
	}
	if th.Status != types.StatusActive {
		t.Fatalf("status must not change on failure, got %s", th.Status)
	}
	if th.Title != "I want to return order 11111" {
		t.Fatalf("title must not change on failure, got %q", th.Title)
	}

	// No automatic retry happened.
	basic, pipeline := gw.calls()
	if basic+pipeline != 1 {
		t.Fatalf("expected exactly one send attempt, got %d", basic+pipeline)
	}
}

func TestTitleDerivedExactlyOnce(t *testing.T) {
	m, gw, _ := newTestManager(t)
	m.CreateThread()

	if err := m.SendMessage(context.Background(), 0, "first message that names the thread"); err != nil {
		t.Fatalf("send: %v", err)
	}
	titled := m.Threads()[0].Title
	if titled == "Chat 1" {
		t.Fatalf("expected derived title after first exchange")
	}

	gw.setResult(&types.PipelineResult{Reply: "again", Status: types.StatusActive})
	if err := m.SendMessage(context.Background(), 0, "second message must not retitle"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got := m.Threads()[0].Title; got != titled {
		t.Fatalf("title changed on later send: %q -> %q", titled, got)
	}
}

func TestSendOutOfRange(t *testing.T) {
	m, _, _ := newTestManager(t)
	m.CreateThread()
	if err := m.SendMessage(context.Background(), 3, "hello"); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestSendSerializedPerThread(t *testing.T) {
	m, gw, _ := newTestManager(t)
	id := m.CreateThread()

	gw.started = make(chan string, 2)
	gw.release = make(chan struct{})

	errCh := make(chan error, 1)
	go func() {
		errCh <- m.SendMessage(context.Background(), 0, "slow one")
	}()
	<-gw.started

	if !m.InFlight(id) {
		t.Fatalf("expected in-flight flag while send outstanding")
	}
	if err := m.SendMessage(context.Background(), 0, "too eager"); !errors.Is(err, ErrSendInFlight) {
		t.Fatalf("expected ErrSendInFlight, got %v", err)
	}

	close(gw.release)
	if err := <-errCh; err != nil {
		t.Fatalf("first send: %v", err)
	}
	if m.InFlight(id) {
		t.Fatalf("in-flight flag not cleared")
	}

	// The rejected send appended nothing.
	if got := len(m.Threads()[0].Messages); got != 2 {
		t.Fatalf("expected 2 messages, got %d", got)
	}
}

func TestSendsOnDifferentThreadsRunConcurrently(t *testing.T) {
	m, gw, _ := newTestManager(t)
	m.CreateThread()
	m.CreateThread()

	gw.started = make(chan string, 2)
	gw.release = make(chan struct{})

	errs := make(chan error, 2)
	go func() { errs <- m.SendMessage(context.Background(), 0, "to thread one") }()
	<-gw.started
	go func() { errs <- m.SendMessage(context.Background(), 1, "to thread two") }()
	<-gw.started

	// Both sends are now outstanding at once.
	close(gw.release)
	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	threads := m.Threads()
	if len(threads[0].Messages) != 2 || len(threads[1].Messages) != 2 {
		t.Fatalf("expected both threads to complete, got %d and %d messages",
			len(threads[0].Messages), len(threads[1].Messages))
	}
}

func TestDeleteThreadDetachesInFlightSend(t *testing.T) {
	m, gw, _ := newTestManager(t)
	doomed := m.CreateThread()
	m.CreateThread()

	gw.started = make(chan string, 1)
	gw.release = make(chan struct{})

	errCh := make(chan error, 1)
	go func() { errCh <- m.SendMessage(context.Background(), 0, "into the void") }()
	<-gw.started

	if err := m.DeleteThread(0); err != nil {
		t.Fatalf("delete: %v", err)
	}
	close(gw.release)
	if err := <-errCh; err != nil {
		t.Fatalf("detached send must not error, got %v", err)
	}

	threads := m.Threads()
	if len(threads) != 1 {
		t.Fatalf("expected 1 thread, got %d", len(threads))
	}
	if threads[0].ConversationID == doomed {
		t.Fatalf("deleted thread came back")
	}
	if len(threads[0].Messages) != 0 {
		t.Fatalf("response leaked into surviving thread: %+v", threads[0].Messages)
	}
	if m.InFlight(doomed) {
		t.Fatalf("in-flight flag survived delete")
	}
}

func TestBootstrapPrefersLocalSnapshot(t *testing.T) {
	gw := &fakeGateway{historyRecords: []types.HistoryRecord{
		{ConversationID: "server", Role: "user", Content: "should not be used"},
	}}
	mem := store.NewMemory()
	seed := &types.Snapshot{
		Active: 9,
		Threads: []types.Thread{
			{ConversationID: "local-1", Title: "Chat 1", Messages: []types.Message{}},
			{ConversationID: "local-2", Title: "Chat 2", Messages: []types.Message{}},
		},
	}
	if err := mem.SaveSnapshot(seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	m := NewManager(gw, mem, "sam@example.com", nil)
	m.Bootstrap(context.Background())

	threads := m.Threads()
	if len(threads) != 2 || threads[0].ConversationID != "local-1" {
		t.Fatalf("expected local snapshot, got %+v", threads)
	}
	// A stale active index from disk is clamped into range.
	if m.ActiveIndex() != 1 {
		t.Fatalf("expected clamped active 1, got %d", m.ActiveIndex())
	}
}

func TestBootstrapRestoresFromServer(t *testing.T) {
	gw := &fakeGateway{historyRecords: []types.HistoryRecord{
		{ConversationID: "c1", Role: "user", Content: "first conversation"},
		{ConversationID: "c2", Role: "user", Content: "second conversation"},
	}}
	mem := store.NewMemory()
	m := NewManager(gw, mem, "sam@example.com", nil)
	m.Bootstrap(context.Background())

	threads := m.Threads()
	if len(threads) != 2 {
		t.Fatalf("expected reconciled threads, got %d", len(threads))
	}
	if m.ActiveIndex() != 1 {
		t.Fatalf("expected last thread active, got %d", m.ActiveIndex())
	}

	persisted, err := mem.LoadSnapshot()
	if err != nil || persisted == nil {
		t.Fatalf("restored threads not persisted: %v", err)
	}
}

func TestBootstrapFallsBackToFreshThread(t *testing.T) {
	gw := &fakeGateway{historyErr: errors.New("server down")}
	m := NewManager(gw, store.NewMemory(), "sam@example.com", nil)
	m.Bootstrap(context.Background())

	threads := m.Threads()
	if len(threads) != 1 || len(threads[0].Messages) != 0 {
		t.Fatalf("expected single fresh thread, got %+v", threads)
	}
	if threads[0].Title != "Chat 1" {
		t.Fatalf("unexpected title %q", threads[0].Title)
	}
}

func TestPersistenceFailuresStaySilent(t *testing.T) {
	gw := &fakeGateway{}
	st := &failingStore{saveErr: errors.New("disk full"), loadErr: errors.New("corrupt")}
	m := NewManager(gw, st, "sam@example.com", nil)
	m.Bootstrap(context.Background())

	if m.ThreadCount() != 1 {
		t.Fatalf("bootstrap must survive storage failure")
	}
	if err := m.SendMessage(context.Background(), 0, "still works"); err != nil {
		t.Fatalf("send must not surface persistence errors: %v", err)
	}
	if got := len(m.Threads()[0].Messages); got != 2 {
		t.Fatalf("in-memory state must stay authoritative, got %d messages", got)
	}
}

func TestRestoreFromServerSurfacesError(t *testing.T) {
	gw := &fakeGateway{historyErr: errors.New("boom")}
	m := NewManager(gw, store.NewMemory(), "sam@example.com", nil)
	if err := m.RestoreFromServer(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRestoreFromServerEmptyHistoryCreatesThread(t *testing.T) {
	gw := &fakeGateway{}
	m := NewManager(gw, store.NewMemory(), "sam@example.com", nil)
	if err := m.RestoreFromServer(context.Background()); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if m.ThreadCount() != 1 {
		t.Fatalf("expected fresh thread for empty history, got %d", m.ThreadCount())
	}
}
