package store

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nguyentantai21042004/chart-flow/internal/models"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestStore(t *testing.T) (Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)}
	s, err := New(context.Background(), Options{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "test.db"),
		Now:    clock.Now,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, clock
}

func newTestSession(t *testing.T, s Store) models.SessionKey {
	t.Helper()
	ctx := context.Background()
	p, err := s.CreatePatient(ctx, "owner-1", "Jane Doe")
	if err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	sess, err := s.CreateSession(ctx, "owner-1", p.ID)
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	return sess.Key()
}

func TestCreateSessionTimes(t *testing.T) {
	s, clock := newTestStore(t)
	key := newTestSession(t, s)

	sess, err := s.GetSession(context.Background(), key)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	want := clock.Now()
	if !sess.CreatedAt.Equal(want) || !sess.StartedAt.Equal(want) || !sess.LastUsedAt.Equal(want) {
		t.Errorf("times = %v/%v/%v, want all %v", sess.CreatedAt, sess.StartedAt, sess.LastUsedAt, want)
	}
	if sess.GeneratedAt != nil {
		t.Errorf("GeneratedAt = %v, want nil", sess.GeneratedAt)
	}
}

func TestCreateSessionUnknownPatient(t *testing.T) {
	s, _ := newTestStore(t)
	if _, err := s.CreateSession(context.Background(), "owner-1", "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestWrongOwnerIsNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	key := newTestSession(t, s)
	ctx := context.Background()

	wrongOwner := key
	wrongOwner.OwnerID = "owner-2"
	wrongPatient := key
	wrongPatient.PatientID = "other"

	for _, k := range []models.SessionKey{wrongOwner, wrongPatient} {
		if _, err := s.GetSession(ctx, k); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetSession(%+v) err = %v, want ErrNotFound", k, err)
		}
		if _, err := s.AppendMessage(ctx, k, "nurse hi"); !errors.Is(err, ErrNotFound) {
			t.Errorf("AppendMessage(%+v) err = %v, want ErrNotFound", k, err)
		}
		if _, err := s.ListMessages(ctx, k); !errors.Is(err, ErrNotFound) {
			t.Errorf("ListMessages(%+v) err = %v, want ErrNotFound", k, err)
		}
	}
	if _, err := s.GetPatient(ctx, "owner-2", key.PatientID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetPatient under wrong owner err = %v, want ErrNotFound", err)
	}
}

func TestAppendMessage(t *testing.T) {
	s, clock := newTestStore(t)
	key := newTestSession(t, s)
	ctx := context.Background()

	clock.Advance(5 * time.Second)
	msg, err := s.AppendMessage(ctx, key, "  Nurse: how are you  ")
	if err != nil {
		t.Fatalf("AppendMessage: %v", err)
	}
	if want := "[2024-03-01 09:30:05 UTC] Nurse: how are you"; msg.Text != want {
		t.Errorf("text = %q, want %q", msg.Text, want)
	}

	sess, err := s.GetSession(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if !sess.LastUsedAt.Equal(clock.Now()) {
		t.Errorf("LastUsedAt = %v, want %v", sess.LastUsedAt, clock.Now())
	}
	if sess.Revision != 1 {
		t.Errorf("Revision = %d, want 1", sess.Revision)
	}
}

func TestAppendEmptyMessage(t *testing.T) {
	s, _ := newTestStore(t)
	key := newTestSession(t, s)

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := s.AppendMessage(context.Background(), key, text); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("AppendMessage(%q) err = %v, want ErrEmptyMessage", text, err)
		}
	}
}

func TestTimestampsStrictlyIncrease(t *testing.T) {
	s, _ := newTestStore(t)
	key := newTestSession(t, s)
	ctx := context.Background()

	// the clock never moves, so every commit collides
	for i := 0; i < 5; i++ {
		if _, err := s.AppendMessage(ctx, key, "Patient: line"); err != nil {
			t.Fatal(err)
		}
	}
	msgs, err := s.ListMessages(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 5 {
		t.Fatalf("got %d messages, want 5", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if !msgs[i].Timestamp.After(msgs[i-1].Timestamp) {
			t.Errorf("message %d timestamp %v not after %v", i, msgs[i].Timestamp, msgs[i-1].Timestamp)
		}
	}
}

func TestEditKeepsOrder(t *testing.T) {
	s, clock := newTestStore(t)
	key := newTestSession(t, s)
	ctx := context.Background()

	var ids []string
	for _, text := range []string{"Nurse: one", "Patient: two", "Nurse: three"} {
		clock.Advance(time.Second)
		m, err := s.AppendMessage(ctx, key, text)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, m.ID)
	}

	clock.Advance(time.Minute)
	edited, err := s.EditMessage(ctx, key, ids[0], "Nurse: one, corrected")
	if err != nil {
		t.Fatalf("EditMessage: %v", err)
	}
	if edited.Text != "Nurse: one, corrected" {
		t.Errorf("edited text = %q", edited.Text)
	}

	msgs, err := s.ListMessages(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	for i, m := range msgs {
		if m.ID != ids[i] {
			t.Errorf("position %d holds %s, want %s", i, m.ID, ids[i])
		}
	}
	if msgs[0].Text != "Nurse: one, corrected" {
		t.Errorf("first message text = %q", msgs[0].Text)
	}
	if !msgs[0].Timestamp.Equal(edited.Timestamp) {
		t.Errorf("edit moved timestamp to %v", msgs[0].Timestamp)
	}

	sess, err := s.GetSession(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if !sess.LastUsedAt.Equal(clock.Now()) {
		t.Errorf("LastUsedAt = %v, want %v", sess.LastUsedAt, clock.Now())
	}
}

func TestEditErrors(t *testing.T) {
	s, _ := newTestStore(t)
	key := newTestSession(t, s)
	ctx := context.Background()

	m, err := s.AppendMessage(ctx, key, "Nurse: hi")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.EditMessage(ctx, key, "missing", "text"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown id err = %v, want ErrNotFound", err)
	}
	if _, err := s.EditMessage(ctx, key, m.ID, " "); !errors.Is(err, ErrEmptyMessage) {
		t.Errorf("empty text err = %v, want ErrEmptyMessage", err)
	}

	other := newTestSession(t, s)
	if _, err := s.EditMessage(ctx, other, m.ID, "moved"); !errors.Is(err, ErrNotFound) {
		t.Errorf("edit through another session err = %v, want ErrNotFound", err)
	}
}

func TestListMessagesEmpty(t *testing.T) {
	s, _ := newTestStore(t)
	key := newTestSession(t, s)

	msgs, err := s.ListMessages(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	if msgs == nil || len(msgs) != 0 {
		t.Errorf("ListMessages = %#v, want empty non-nil slice", msgs)
	}
}

func TestListSessionsNewestFirst(t *testing.T) {
	s, clock := newTestStore(t)
	ctx := context.Background()

	p, err := s.CreatePatient(ctx, "owner-1", "John")
	if err != nil {
		t.Fatal(err)
	}
	first, _ := s.CreateSession(ctx, "owner-1", p.ID)
	clock.Advance(time.Hour)
	second, _ := s.CreateSession(ctx, "owner-1", p.ID)

	list, err := s.ListSessions(ctx, "owner-1", p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Errorf("ListSessions order wrong: %+v", list)
	}

	none, err := s.ListSessions(ctx, "owner-2", p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Errorf("other owner sees %d sessions", len(none))
	}
}

func TestUpdateNotes(t *testing.T) {
	s, _ := newTestStore(t)
	key := newTestSession(t, s)
	ctx := context.Background()

	sess, err := s.UpdateNotes(ctx, key, "allergic to penicillin", nil)
	if err != nil {
		t.Fatalf("UpdateNotes: %v", err)
	}
	if sess.Notes != "allergic to penicillin" || sess.Revision != 1 {
		t.Errorf("session = %+v", sess)
	}

	stale := int64(0)
	if _, err := s.UpdateNotes(ctx, key, "overwrite", &stale); !errors.Is(err, ErrConflict) {
		t.Errorf("stale revision err = %v, want ErrConflict", err)
	}

	current := sess.Revision
	sess, err = s.UpdateNotes(ctx, key, "second note", &current)
	if err != nil {
		t.Fatalf("UpdateNotes with current revision: %v", err)
	}
	if sess.Notes != "second note" {
		t.Errorf("notes = %q", sess.Notes)
	}

	missing := key
	missing.SessionID = "missing"
	if _, err := s.UpdateNotes(ctx, missing, "x", &current); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing session err = %v, want ErrNotFound", err)
	}
}

func TestSaveGeneration(t *testing.T) {
	s, clock := newTestStore(t)
	key := newTestSession(t, s)
	ctx := context.Background()

	before, err := s.GetSession(ctx, key)
	if err != nil {
		t.Fatal(err)
	}

	clock.Advance(time.Minute)
	gen := models.Generation{Summary: "S", NursingChart: "**Plan:** P", GeneratedAt: clock.Now()}
	if err := s.SaveGeneration(ctx, key, gen); err != nil {
		t.Fatalf("SaveGeneration: %v", err)
	}

	sess, err := s.GetSession(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Summary != "S" || sess.NursingChart != "**Plan:** P" {
		t.Errorf("session = %+v", sess)
	}
	if !sess.LastUsedAt.Equal(clock.Now()) || !sess.LastUsedAt.After(before.LastUsedAt) {
		t.Errorf("LastUsedAt = %v, want refreshed to %v (was %v)", sess.LastUsedAt, clock.Now(), before.LastUsedAt)
	}
	if sess.Revision != before.Revision+1 {
		t.Errorf("Revision = %d, want %d", sess.Revision, before.Revision+1)
	}
	if sess.GeneratedAt == nil || !sess.GeneratedAt.Equal(gen.GeneratedAt) {
		t.Errorf("GeneratedAt = %v, want %v", sess.GeneratedAt, gen.GeneratedAt)
	}

	missing := key
	missing.OwnerID = "x"
	if err := s.SaveGeneration(ctx, missing, gen); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func receive(t *testing.T, ch <-chan []models.Message) []models.Message {
	t.Helper()
	select {
	case msgs, ok := <-ch:
		if !ok {
			t.Fatal("subscription closed")
		}
		return msgs
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for log")
		return nil
	}
}

func TestSubscribe(t *testing.T) {
	s, clock := newTestStore(t)
	key := newTestSession(t, s)
	ctx := context.Background()

	if _, err := s.AppendMessage(ctx, key, "Nurse: first"); err != nil {
		t.Fatal(err)
	}

	ch, cancel, err := s.Subscribe(ctx, key)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	if got := receive(t, ch); len(got) != 1 {
		t.Fatalf("initial delivery has %d messages, want 1", len(got))
	}

	clock.Advance(time.Second)
	m, err := s.AppendMessage(ctx, key, "Patient: second")
	if err != nil {
		t.Fatal(err)
	}
	got := receive(t, ch)
	if len(got) != 2 || got[1].ID != m.ID {
		t.Fatalf("after append got %+v", got)
	}

	if _, err := s.EditMessage(ctx, key, m.ID, "Patient: edited"); err != nil {
		t.Fatal(err)
	}
	got = receive(t, ch)
	if len(got) != 2 || got[1].Text != "Patient: edited" {
		t.Fatalf("after edit got %+v", got)
	}
}

func TestSubscribeSlowReaderSeesLatest(t *testing.T) {
	s, _ := newTestStore(t)
	key := newTestSession(t, s)
	ctx := context.Background()

	ch, cancel, err := s.Subscribe(ctx, key)
	if err != nil {
		t.Fatal(err)
	}
	defer cancel()

	for i := 0; i < 10; i++ {
		if _, err := s.AppendMessage(ctx, key, "Nurse: line "+strings.Repeat("x", i)); err != nil {
			t.Fatal(err)
		}
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case msgs := <-ch:
			if len(msgs) == 10 {
				return
			}
		case <-deadline:
			t.Fatal("never observed the full log")
		}
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	s, _ := newTestStore(t)
	key := newTestSession(t, s)

	ch, cancel, err := s.Subscribe(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	receive(t, ch)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			// a delivery raced the cancel; the close follows
			if _, ok := <-ch; ok {
				t.Error("channel still open after cancel")
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestSubscribeUnknownSession(t *testing.T) {
	s, _ := newTestStore(t)
	_, _, err := s.Subscribe(context.Background(), models.SessionKey{OwnerID: "o", PatientID: "p", SessionID: "s"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestRebind(t *testing.T) {
	tests := []struct {
		driver string
		in     string
		want   string
	}{
		{DriverSQLite, "SELECT ? , ?", "SELECT ? , ?"},
		{DriverPostgres, "SELECT ? , ?", "SELECT $1 , $2"},
		{DriverPostgres, "UPDATE t SET a = ? WHERE id = ? AND r = ?", "UPDATE t SET a = $1 WHERE id = $2 AND r = $3"},
		{DriverPostgres, "SELECT 1", "SELECT 1"},
	}
	for _, tt := range tests {
		if got := (dialect{driver: tt.driver}).rebind(tt.in); got != tt.want {
			t.Errorf("rebind(%s, %q) = %q, want %q", tt.driver, tt.in, got, tt.want)
		}
	}
}

func TestStampText(t *testing.T) {
	ts := time.Date(2024, 12, 31, 23, 59, 58, 999, time.FixedZone("X", 3600))
	if got, want := StampText(ts, "Nurse: hi"), "[2024-12-31 22:59:58 UTC] Nurse: hi"; got != want {
		t.Errorf("StampText = %q, want %q", got, want)
	}
}
