package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/vantran/ferry/pkg/browser"
	"github.com/vantran/ferry/pkg/config"
	"github.com/vantran/ferry/pkg/remote/remotetest"
	"github.com/vantran/ferry/pkg/transfer"
	"github.com/vantran/ferry/pkg/watcher"
)

type fakeTerm struct {
	rawEnabled  int
	rawDisabled int
	cleared     int
}

func (t *fakeTerm) EnableRawMode() error  { t.rawEnabled++; return nil }
func (t *fakeTerm) DisableRawMode() error { t.rawDisabled++; return nil }
func (t *fakeTerm) ClearScreen() error    { t.cleared++; return nil }

// newTestActivity builds an activity over a temp local directory and an
// in-memory remote. The remote starts disconnected so tests drive the
// connection through Tick the way the real loop does.
func newTestActivity(t *testing.T) (*Activity, *remotetest.Mem, *fakeTerm, string) {
	t.Helper()
	dataDir := t.TempDir()
	localDir := t.TempDir()
	settings := fmt.Sprintf(`{"localEntryDir": %q}`, localDir)
	if err := os.WriteFile(filepath.Join(dataDir, "settings.json"), []byte(settings), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	cfg, err := config.Load(dataDir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	client := remotetest.New()
	client.Connected = false
	term := &fakeTerm{}
	return New(cfg, term, client, nil), client, term, localDir
}

// connect runs create plus one tick so the activity reaches the
// connected state with both panes listed
func connect(t *testing.T, a *Activity) {
	t.Helper()
	ctx := context.Background()
	a.OnCreate(ctx)
	a.Tick(ctx)
	if a.ConnState() != StateConnected {
		t.Fatalf("expected connected state, got %v", a.ConnState())
	}
}

// selectEntry positions the local cursor on the named entry
func selectEntry(t *testing.T, a *Activity, name string) {
	t.Helper()
	pane := a.Browser().Local()
	for i, e := range pane.Entries() {
		if e.Name == name {
			pane.SetCursor(i)
			return
		}
	}
	t.Fatalf("entry %s not listed in %s", name, pane.Wd())
}

func TestLogRing(t *testing.T) {
	t.Run("Core Functionality: records are kept in insertion order", func(t *testing.T) {
		ring := NewLogRing()
		ring.Push(LevelInfo, "first")
		ring.Push(LevelError, "second")

		records := ring.Records()
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}
		if records[0].Message != "first" || records[1].Message != "second" {
			t.Errorf("unexpected order: %q, %q", records[0].Message, records[1].Message)
		}
		if records[1].Level != LevelError {
			t.Errorf("expected error level, got %v", records[1].Level)
		}
	})

	t.Run("Edge Case: oldest records are evicted at capacity", func(t *testing.T) {
		ring := NewLogRing()
		for i := 0; i < logRingCapacity+10; i++ {
			ring.Push(LevelInfo, fmt.Sprintf("line %d", i))
		}
		if ring.Len() != logRingCapacity {
			t.Fatalf("expected %d records, got %d", logRingCapacity, ring.Len())
		}
		if got := ring.Records()[0].Message; got != "line 10" {
			t.Errorf("expected oldest record to be line 10, got %q", got)
		}
	})
}

func TestPendingQueue(t *testing.T) {
	t.Run("Core Functionality: actions pop in FIFO order", func(t *testing.T) {
		q := NewPendingQueue()
		chain := q.NewChain()
		q.Push(Action{Kind: MakeDirectoryThen, Chain: chain})
		q.Push(Action{Kind: AwaitConflictResolutionThen, Chain: chain})

		first, ok := q.Pop()
		if !ok || first.Kind != MakeDirectoryThen {
			t.Fatalf("expected make-directory head, got %+v", first)
		}
		second, ok := q.Pop()
		if !ok || second.Kind != AwaitConflictResolutionThen {
			t.Fatalf("expected conflict-resolution action, got %+v", second)
		}
		if _, ok := q.Pop(); ok {
			t.Error("expected empty queue")
		}
	})

	t.Run("Error Handling: dropping a chain spares unrelated actions", func(t *testing.T) {
		q := NewPendingQueue()
		doomed := q.NewChain()
		kept := q.NewChain()
		q.Push(Action{Kind: MakeDirectoryThen, Chain: doomed})
		q.Push(Action{Kind: AwaitConflictResolutionThen, Chain: kept})
		q.Push(Action{Kind: AwaitConflictResolutionThen, Chain: doomed})

		if dropped := q.DropChain(doomed); dropped != 2 {
			t.Fatalf("expected 2 dropped, got %d", dropped)
		}
		head, ok := q.Head()
		if !ok || head.Chain != kept {
			t.Errorf("expected surviving action from other chain, got %+v", head)
		}
	})
}

func TestConnManager(t *testing.T) {
	t.Run("Core Functionality: connect attempt promotes to connected", func(t *testing.T) {
		client := remotetest.New()
		client.Connected = false
		m := NewConnManager(client, nil)

		if m.State() != StateDisconnected {
			t.Fatalf("expected disconnected start, got %v", m.State())
		}
		if err := m.TickConnect(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.State() != StateConnected {
			t.Errorf("expected connected, got %v", m.State())
		}
	})

	t.Run("Error Handling: failed attempt returns to disconnected", func(t *testing.T) {
		client := remotetest.New()
		client.Connected = false
		client.ConnectErr = errors.New("refused")
		m := NewConnManager(client, nil)

		if err := m.TickConnect(context.Background()); err == nil {
			t.Fatal("expected error")
		}
		if m.State() != StateDisconnected {
			t.Errorf("expected disconnected after failure, got %v", m.State())
		}
	})

	t.Run("Error Handling: build error is fatal and never retried", func(t *testing.T) {
		m := NewConnManager(nil, errors.New("bad address"))
		if m.State() != StateFatal {
			t.Fatalf("expected fatal state, got %v", m.State())
		}
		if err := m.TickConnect(context.Background()); err != nil {
			t.Fatalf("fatal state must not attempt connection: %v", err)
		}
		if m.State() != StateFatal {
			t.Errorf("state left fatal: %v", m.State())
		}
	})

	t.Run("Side Effects: disconnect is idempotent", func(t *testing.T) {
		client := remotetest.New()
		m := NewConnManager(client, nil)
		m.state = StateConnected

		if err := m.Disconnect(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := m.Disconnect(); err != nil {
			t.Fatalf("second disconnect must be a no-op: %v", err)
		}
		if client.DisconnectCalls != 1 {
			t.Errorf("expected 1 transport disconnect, got %d", client.DisconnectCalls)
		}
	})

	t.Run("Core Functionality: lost link demotes state for the next tick", func(t *testing.T) {
		client := remotetest.New()
		m := NewConnManager(client, nil)
		m.state = StateConnected

		m.MarkLost()
		if m.State() != StateDisconnected {
			t.Errorf("expected disconnected, got %v", m.State())
		}
	})
}

func TestActivityLifecycle(t *testing.T) {
	t.Run("Core Functionality: create lists local and first tick connects", func(t *testing.T) {
		a, client, term, localDir := newTestActivity(t)
		if err := os.WriteFile(filepath.Join(localDir, "hello.txt"), []byte("hi"), 0o644); err != nil {
			t.Fatal(err)
		}
		connect(t, a)

		if term.cleared == 0 || term.rawEnabled == 0 {
			t.Error("expected screen cleared and raw mode enabled")
		}
		if got := a.Browser().Local().Wd(); got != localDir {
			t.Errorf("local wd = %q, want %q", got, localDir)
		}
		if len(a.Browser().Local().Entries()) != 1 {
			t.Errorf("expected 1 local entry, got %d", len(a.Browser().Local().Entries()))
		}
		if client.ConnectCalls != 1 {
			t.Errorf("expected 1 connect call, got %d", client.ConnectCalls)
		}
		if got := a.Browser().Remote().Wd(); got != "/" {
			t.Errorf("remote wd = %q, want /", got)
		}
	})

	t.Run("Error Handling: failed connection retries on the next tick", func(t *testing.T) {
		a, client, _, _ := newTestActivity(t)
		client.ConnectErr = errors.New("refused")
		ctx := context.Background()
		a.OnCreate(ctx)

		a.Tick(ctx)
		if a.ConnState() != StateDisconnected {
			t.Fatalf("expected disconnected, got %v", a.ConnState())
		}
		client.ConnectErr = nil
		a.Tick(ctx)
		if a.ConnState() != StateConnected {
			t.Errorf("expected connected after retry, got %v", a.ConnState())
		}
		if client.ConnectCalls != 2 {
			t.Errorf("expected 2 attempts, got %d", client.ConnectCalls)
		}
	})

	t.Run("Edge Case: reconnect indicator never covers an open prompt", func(t *testing.T) {
		a, client, _, localDir := newTestActivity(t)
		if err := os.WriteFile(filepath.Join(localDir, "notes.txt"), []byte("new"), 0o644); err != nil {
			t.Fatal(err)
		}
		connect(t, a)
		ctx := context.Background()
		client.Files["/notes.txt"] = []byte("old")
		selectEntry(t, a, "notes.txt")
		a.HandleMessage(ctx, TransferCurrent{})
		if a.Popup().Kind != PopupReplace {
			t.Fatalf("expected replace popup, got %v", a.Popup().Kind)
		}

		a.conn.MarkLost()
		client.Connected = false
		client.ConnectErr = errors.New("down")
		a.Tick(ctx)

		if a.Popup().Kind != PopupReplace {
			t.Fatalf("replace popup clobbered while reconnecting, got %v", a.Popup().Kind)
		}
		if a.pending.Len() != 1 {
			t.Fatalf("pending decision dropped, %d left", a.pending.Len())
		}

		client.ConnectErr = nil
		a.Tick(ctx)
		a.HandleMessage(ctx, CloseReplacePopups{Decision: transfer.ReplaceThis})
		if got := string(client.Files["/notes.txt"]); got != "new" {
			t.Errorf("remote content = %q, want %q", got, "new")
		}
	})

	t.Run("Error Handling: build failure surfaces the fatal popup", func(t *testing.T) {
		dataDir := t.TempDir()
		cfg, err := config.Load(dataDir)
		if err != nil {
			t.Fatal(err)
		}
		a := New(cfg, &fakeTerm{}, nil, errors.New("unsupported protocol scp"))
		a.OnCreate(context.Background())

		if a.Popup().Kind != PopupFatal {
			t.Fatalf("expected fatal popup, got %v", a.Popup().Kind)
		}
		a.HandleMessage(context.Background(), ClosePopup{})
		if a.WillTerminate() != ExitDisconnect {
			t.Errorf("closing the fatal popup must end the session")
		}
	})

	t.Run("Side Effects: destroy releases terminal, cache and connection", func(t *testing.T) {
		a, client, term, _ := newTestActivity(t)
		connect(t, a)
		cache := a.cacheDir
		if cache == "" {
			t.Fatal("expected a cache directory")
		}

		a.OnDestroy()

		if term.rawDisabled != 1 {
			t.Errorf("expected raw mode restored once, got %d", term.rawDisabled)
		}
		if client.DisconnectCalls != 1 {
			t.Errorf("expected 1 disconnect, got %d", client.DisconnectCalls)
		}
		if _, err := os.Stat(cache); !os.IsNotExist(err) {
			t.Errorf("cache directory %s not removed", cache)
		}
	})
}

func TestActivityTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("Core Functionality: selection uploads to the remote wd", func(t *testing.T) {
		a, client, _, localDir := newTestActivity(t)
		if err := os.WriteFile(filepath.Join(localDir, "report.txt"), []byte("quarterly"), 0o644); err != nil {
			t.Fatal(err)
		}
		connect(t, a)
		selectEntry(t, a, "report.txt")

		a.HandleMessage(ctx, TransferCurrent{})

		if got := string(client.Files["/report.txt"]); got != "quarterly" {
			t.Errorf("remote content = %q, want %q", got, "quarterly")
		}
		if st := a.Queue().States(); st.FileDone != 1 {
			t.Errorf("expected 1 file done, got %d", st.FileDone)
		}
	})

	t.Run("Core Functionality: save-as renames the destination", func(t *testing.T) {
		a, client, _, localDir := newTestActivity(t)
		if err := os.WriteFile(filepath.Join(localDir, "draft.txt"), []byte("v1"), 0o644); err != nil {
			t.Fatal(err)
		}
		connect(t, a)
		selectEntry(t, a, "draft.txt")

		a.HandleMessage(ctx, SaveFileAs{Name: "final.txt"})

		if _, ok := client.Files["/final.txt"]; !ok {
			t.Error("expected remote file under the new name")
		}
		if _, ok := client.Files["/draft.txt"]; ok {
			t.Error("original name must not be used")
		}
	})

	t.Run("Core Functionality: marked entries transfer together", func(t *testing.T) {
		a, client, _, localDir := newTestActivity(t)
		for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
			if err := os.WriteFile(filepath.Join(localDir, name), []byte(name), 0o644); err != nil {
				t.Fatal(err)
			}
		}
		connect(t, a)
		selectEntry(t, a, "a.txt")

		a.HandleMessage(ctx, ToggleMark{})
		a.HandleMessage(ctx, ToggleMark{})
		a.HandleMessage(ctx, TransferCurrent{})

		if _, ok := client.Files["/a.txt"]; !ok {
			t.Error("expected /a.txt uploaded")
		}
		if _, ok := client.Files["/b.txt"]; !ok {
			t.Error("expected /b.txt uploaded")
		}
		if _, ok := client.Files["/c.txt"]; ok {
			t.Error("unmarked /c.txt must not upload")
		}
		if marked := a.Browser().Local().Marked(); len(marked) != 0 {
			t.Errorf("marks not cleared after transfer, %d left", len(marked))
		}
	})

	t.Run("Core Functionality: conflict waits for a decision before executing", func(t *testing.T) {
		a, client, _, localDir := newTestActivity(t)
		if err := os.WriteFile(filepath.Join(localDir, "notes.txt"), []byte("new"), 0o644); err != nil {
			t.Fatal(err)
		}
		connect(t, a)
		client.Files["/notes.txt"] = []byte("old")
		selectEntry(t, a, "notes.txt")

		a.HandleMessage(ctx, TransferCurrent{})

		if a.Popup().Kind != PopupReplace {
			t.Fatalf("expected replace popup, got %v", a.Popup().Kind)
		}
		if got := string(client.Files["/notes.txt"]); got != "old" {
			t.Fatalf("transfer must not start before the decision, content %q", got)
		}

		a.HandleMessage(ctx, CloseReplacePopups{Decision: transfer.ReplaceThis})

		if a.Popup().Kind == PopupReplace {
			t.Error("replace popup still mounted after the last decision")
		}
		if got := string(client.Files["/notes.txt"]); got != "new" {
			t.Errorf("remote content = %q, want %q", got, "new")
		}
		if a.pending.Len() != 0 {
			t.Errorf("pending queue not drained, %d left", a.pending.Len())
		}
	})

	t.Run("Error Handling: abort decision discards the queued execution", func(t *testing.T) {
		a, client, _, localDir := newTestActivity(t)
		if err := os.WriteFile(filepath.Join(localDir, "notes.txt"), []byte("new"), 0o644); err != nil {
			t.Fatal(err)
		}
		connect(t, a)
		client.Files["/notes.txt"] = []byte("old")
		selectEntry(t, a, "notes.txt")

		a.HandleMessage(ctx, TransferCurrent{})
		a.HandleMessage(ctx, CloseReplacePopups{Decision: transfer.AbortQueue})

		if got := string(client.Files["/notes.txt"]); got != "old" {
			t.Errorf("aborted transfer must not touch the destination, content %q", got)
		}
		if !a.Queue().States().Aborted() {
			t.Error("expected queue marked aborted")
		}
		if a.pending.Len() != 0 {
			t.Errorf("pending chain not dropped, %d left", a.pending.Len())
		}
	})

	t.Run("Side Effects: listings refresh after execution", func(t *testing.T) {
		a, _, _, localDir := newTestActivity(t)
		if err := os.WriteFile(filepath.Join(localDir, "a.txt"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		connect(t, a)
		selectEntry(t, a, "a.txt")

		a.HandleMessage(ctx, TransferCurrent{})

		var found bool
		for _, e := range a.Browser().Remote().Entries() {
			if e.Name == "a.txt" {
				found = true
			}
		}
		if !found {
			t.Error("remote pane not refreshed with the transferred file")
		}
	})
}

func TestActivityFileOperations(t *testing.T) {
	ctx := context.Background()

	t.Run("Core Functionality: mkdir on the remote side", func(t *testing.T) {
		a, client, _, _ := newTestActivity(t)
		connect(t, a)

		a.HandleMessage(ctx, ChangeFocus{})
		a.HandleMessage(ctx, Mkdir{Name: "backups"})

		if !client.Dirs["/backups"] {
			t.Error("expected /backups on the remote")
		}
	})

	t.Run("Core Functionality: new empty file on the local side", func(t *testing.T) {
		a, _, _, localDir := newTestActivity(t)
		connect(t, a)

		a.HandleMessage(ctx, NewFile{Name: "todo.md"})

		if _, err := os.Stat(filepath.Join(localDir, "todo.md")); err != nil {
			t.Errorf("expected local file created: %v", err)
		}
	})

	t.Run("Error Handling: new file refuses to clobber an existing one", func(t *testing.T) {
		a, _, _, localDir := newTestActivity(t)
		if err := os.WriteFile(filepath.Join(localDir, "todo.md"), []byte("keep"), 0o644); err != nil {
			t.Fatal(err)
		}
		connect(t, a)

		a.HandleMessage(ctx, NewFile{Name: "todo.md"})

		if a.Popup().Kind != PopupError {
			t.Errorf("expected error popup, got %v", a.Popup().Kind)
		}
		data, _ := os.ReadFile(filepath.Join(localDir, "todo.md"))
		if string(data) != "keep" {
			t.Errorf("existing file overwritten: %q", data)
		}
	})

	t.Run("Core Functionality: delete removes the remote selection", func(t *testing.T) {
		a, client, _, _ := newTestActivity(t)
		connect(t, a)
		client.Files["/stale.log"] = []byte("x")
		if err := a.Browser().List(ctx, browser.SideRemote); err != nil {
			t.Fatal(err)
		}
		a.HandleMessage(ctx, ChangeFocus{})
		a.Browser().Remote().SetCursor(0)

		a.HandleMessage(ctx, DeleteFile{})

		if _, ok := client.Files["/stale.log"]; ok {
			t.Error("expected remote file removed")
		}
	})

	t.Run("Core Functionality: rename moves the local selection", func(t *testing.T) {
		a, _, _, localDir := newTestActivity(t)
		if err := os.WriteFile(filepath.Join(localDir, "old.txt"), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		connect(t, a)
		selectEntry(t, a, "old.txt")

		a.HandleMessage(ctx, RenameFile{Name: "new.txt"})

		if _, err := os.Stat(filepath.Join(localDir, "new.txt")); err != nil {
			t.Errorf("expected renamed file: %v", err)
		}
	})
}

func TestActivitySyncBrowsing(t *testing.T) {
	ctx := context.Background()

	t.Run("Core Functionality: diverging wds prompt before creating the mirror", func(t *testing.T) {
		a, client, _, localDir := newTestActivity(t)
		connect(t, a)
		client.Dirs["/srv"] = true
		if err := a.Browser().ChangeDirectory(ctx, browser.SideRemote, "/srv"); err != nil {
			t.Fatal(err)
		}

		a.HandleMessage(ctx, ToggleSyncBrowsing{})

		if a.Popup().Kind != PopupSyncBrowsingMkdir {
			t.Fatalf("expected mkdir confirmation popup, got %v", a.Popup().Kind)
		}
		mirrored := "/srv/" + filepath.Base(localDir)
		if a.Popup().Message != mirrored {
			t.Errorf("proposed path = %q, want %q", a.Popup().Message, mirrored)
		}

		a.HandleMessage(ctx, CloseSyncBrowsingMkdirPopup{Confirmed: true})

		if !client.Dirs[mirrored] {
			t.Errorf("expected %s created on the remote", mirrored)
		}
		if got := a.Browser().Remote().Wd(); got != mirrored {
			t.Errorf("remote wd = %q, want %q", got, mirrored)
		}
	})

	t.Run("Edge Case: declining the prompt drops the queued creation", func(t *testing.T) {
		a, client, _, _ := newTestActivity(t)
		connect(t, a)
		client.Dirs["/srv"] = true
		if err := a.Browser().ChangeDirectory(ctx, browser.SideRemote, "/srv"); err != nil {
			t.Fatal(err)
		}

		a.HandleMessage(ctx, ToggleSyncBrowsing{})
		a.HandleMessage(ctx, CloseSyncBrowsingMkdirPopup{Confirmed: false})

		if a.pending.Len() != 0 {
			t.Errorf("pending queue not drained, %d left", a.pending.Len())
		}
		if got := a.Browser().Remote().Wd(); got != "/srv" {
			t.Errorf("remote wd moved to %q without confirmation", got)
		}
	})
}

func TestActivityWatcherMirror(t *testing.T) {
	ctx := context.Background()

	t.Run("Core Functionality: created file uploads to the mirrored root", func(t *testing.T) {
		a, client, _, _ := newTestActivity(t)
		connect(t, a)
		watched := t.TempDir()
		client.Dirs["/mirror"] = true
		a.mirrors[watched] = "/mirror"

		local := filepath.Join(watched, "sync.txt")
		if err := os.WriteFile(local, []byte("payload"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := a.mirrorEvent(ctx, watcher.Event{Kind: watcher.Created, Path: local}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := string(client.Files["/mirror/sync.txt"]); got != "payload" {
			t.Errorf("mirrored content = %q, want %q", got, "payload")
		}
	})

	t.Run("Core Functionality: removal deletes the mirrored object", func(t *testing.T) {
		a, client, _, _ := newTestActivity(t)
		connect(t, a)
		watched := t.TempDir()
		client.Dirs["/mirror"] = true
		client.Files["/mirror/gone.txt"] = []byte("x")
		a.mirrors[watched] = "/mirror"

		ev := watcher.Event{Kind: watcher.Removed, Path: filepath.Join(watched, "gone.txt")}
		if err := a.mirrorEvent(ctx, ev); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, ok := client.Files["/mirror/gone.txt"]; ok {
			t.Error("expected mirrored file removed")
		}
	})

	t.Run("Core Functionality: mirror replaces an existing remote copy without asking", func(t *testing.T) {
		a, client, _, _ := newTestActivity(t)
		connect(t, a)
		watched := t.TempDir()
		client.Dirs["/mirror"] = true
		client.Files["/mirror/sync.txt"] = []byte("stale")
		a.mirrors[watched] = "/mirror"

		local := filepath.Join(watched, "sync.txt")
		if err := os.WriteFile(local, []byte("fresh"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := a.mirrorEvent(ctx, watcher.Event{Kind: watcher.Modified, Path: local}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := string(client.Files["/mirror/sync.txt"]); got != "fresh" {
			t.Errorf("mirrored content = %q, want %q", got, "fresh")
		}
		if a.Popup().Kind != PopupNone {
			t.Errorf("mirror must not prompt, popup %v", a.Popup().Kind)
		}
	})

	t.Run("Error Handling: mirror uploads still run after an aborted manual transfer", func(t *testing.T) {
		a, client, _, localDir := newTestActivity(t)
		if err := os.WriteFile(filepath.Join(localDir, "notes.txt"), []byte("new"), 0o644); err != nil {
			t.Fatal(err)
		}
		connect(t, a)
		client.Files["/notes.txt"] = []byte("old")
		selectEntry(t, a, "notes.txt")
		a.HandleMessage(ctx, TransferCurrent{})
		a.HandleMessage(ctx, CloseReplacePopups{Decision: transfer.AbortQueue})
		if !a.Queue().States().Aborted() {
			t.Fatal("expected the manual queue marked aborted")
		}

		watched := t.TempDir()
		client.Dirs["/mirror"] = true
		a.mirrors[watched] = "/mirror"
		local := filepath.Join(watched, "sync.txt")
		if err := os.WriteFile(local, []byte("payload"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := a.mirrorEvent(ctx, watcher.Event{Kind: watcher.Created, Path: local}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := string(client.Files["/mirror/sync.txt"]); got != "payload" {
			t.Errorf("mirrored content = %q, want %q", got, "payload")
		}
	})

	t.Run("Edge Case: mirror upload leaves a pending replace decision untouched", func(t *testing.T) {
		a, client, _, localDir := newTestActivity(t)
		if err := os.WriteFile(filepath.Join(localDir, "notes.txt"), []byte("new"), 0o644); err != nil {
			t.Fatal(err)
		}
		connect(t, a)
		client.Files["/notes.txt"] = []byte("old")
		selectEntry(t, a, "notes.txt")
		a.HandleMessage(ctx, TransferCurrent{})
		if a.Popup().Kind != PopupReplace {
			t.Fatalf("expected replace popup, got %v", a.Popup().Kind)
		}

		watched := t.TempDir()
		client.Dirs["/mirror"] = true
		a.mirrors[watched] = "/mirror"
		local := filepath.Join(watched, "auto.txt")
		if err := os.WriteFile(local, []byte("auto"), 0o644); err != nil {
			t.Fatal(err)
		}
		if err := a.mirrorEvent(ctx, watcher.Event{Kind: watcher.Created, Path: local}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := string(client.Files["/mirror/auto.txt"]); got != "auto" {
			t.Errorf("mirrored content = %q, want %q", got, "auto")
		}
		if a.Popup().Kind != PopupReplace {
			t.Fatalf("replace popup clobbered, got %v", a.Popup().Kind)
		}
		if a.pending.Len() != 1 {
			t.Fatalf("pending decision dropped, %d left", a.pending.Len())
		}

		a.HandleMessage(ctx, CloseReplacePopups{Decision: transfer.ReplaceThis})
		if got := string(client.Files["/notes.txt"]); got != "new" {
			t.Errorf("manual transfer after decision = %q, want %q", got, "new")
		}
	})

	t.Run("Edge Case: events outside every watched root are ignored", func(t *testing.T) {
		a, _, _, _ := newTestActivity(t)
		connect(t, a)

		err := a.mirrorEvent(ctx, watcher.Event{Kind: watcher.Created, Path: "/elsewhere/x"})
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
