package recognizer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nguyentantai21042004/chart-flow/internal/capture"
	"github.com/nguyentantai21042004/chart-flow/internal/config"
	"github.com/nguyentantai21042004/chart-flow/internal/logger"
)

type call struct {
	dir  string
	name string
	args []string
}

// fakeExecutor answers whisper with canned stdout and records every call.
// With block set, whisper waits for cancellation after signalling started.
type fakeExecutor struct {
	mu         sync.Mutex
	calls      []call
	whisperOut string
	whisperErr error
	missing    map[string]bool
	block      bool
	started    chan struct{}
}

func (f *fakeExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	return f.ExecuteInDir(ctx, "", name, args...)
}

func (f *fakeExecutor) ExecuteInDir(ctx context.Context, dir, name string, args ...string) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{dir: dir, name: name, args: args})
	f.mu.Unlock()

	if name != "whisper-cli" {
		return "", nil
	}
	if f.block {
		if f.started != nil {
			close(f.started)
		}
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.whisperOut, f.whisperErr
}

func (f *fakeExecutor) LookPath(name string) (string, error) {
	if f.missing[name] {
		return "", errors.New("not found")
	}
	return "/usr/bin/" + name, nil
}

func (f *fakeExecutor) called() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func testConfig(t *testing.T) config.RecognizerConfig {
	t.Helper()
	dir := t.TempDir()
	model := filepath.Join(dir, "ggml-base.en.bin")
	if err := os.WriteFile(model, []byte("model"), 0o644); err != nil {
		t.Fatal(err)
	}
	return config.RecognizerConfig{
		Backend:        BackendInbox,
		InboxDir:       filepath.Join(dir, "inbox"),
		WhisperBinary:  "whisper-cli",
		WhisperModel:   model,
		Language:       "en",
		Threads:        4,
		FFmpegBinary:   "ffmpeg",
		SilenceTimeout: 2 * time.Second,
	}
}

func newTestInbox(t *testing.T, cfg config.RecognizerConfig, exec *fakeExecutor) *implInbox {
	t.Helper()
	factory, err := NewFactory(cfg, 1, exec, logger.NewNop())
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	rec, err := factory("s1")
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	inbox := rec.(*implInbox)
	inbox.settle = 10 * time.Millisecond
	return inbox
}

func collect(t *testing.T, ch <-chan capture.Result) []capture.Result {
	t.Helper()
	var out []capture.Result
	timeout := time.After(5 * time.Second)
	for {
		select {
		case r, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, r)
		case <-timeout:
			t.Fatal("run did not end")
		}
	}
}

func TestInboxPendingWav(t *testing.T) {
	cfg := testConfig(t)
	exec := &fakeExecutor{whisperOut: " nurse how is your pain \n\n patient about a six\n"}
	inbox := newTestInbox(t, cfg, exec)

	if err := os.MkdirAll(inbox.dir, 0o755); err != nil {
		t.Fatal(err)
	}
	audio := filepath.Join(inbox.dir, "001.wav")
	if err := os.WriteFile(audio, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	ch, err := inbox.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	got := collect(t, ch)

	want := []string{"nurse how is your pain", "patient about a six"}
	if len(got) != len(want) {
		t.Fatalf("got %d results %+v, want %d", len(got), got, len(want))
	}
	for i, r := range got {
		if !r.Final || r.Text != want[i] || r.Err != nil {
			t.Errorf("result %d = %+v, want final %q", i, r, want[i])
		}
	}

	calls := exec.called()
	if len(calls) != 1 || calls[0].name != "whisper-cli" {
		t.Fatalf("calls = %+v, want a single whisper call", calls)
	}
	if calls[0].dir != inbox.dir {
		t.Errorf("whisper ran in %q, want %q", calls[0].dir, inbox.dir)
	}
	if !containsPair(calls[0].args, "-f", "001.wav") {
		t.Errorf("whisper args = %v, want -f 001.wav", calls[0].args)
	}
	if !containsPair(calls[0].args, "-m", cfg.WhisperModel) {
		t.Errorf("whisper args = %v, want absolute model path", calls[0].args)
	}
	if _, err := os.Stat(filepath.Join(inbox.dir, "done", "001.wav")); err != nil {
		t.Errorf("processed file not archived: %v", err)
	}
}

func TestInboxConvertsNonWav(t *testing.T) {
	cfg := testConfig(t)
	exec := &fakeExecutor{whisperOut: "hello\n"}
	inbox := newTestInbox(t, cfg, exec)

	if err := os.MkdirAll(inbox.dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inbox.dir, "clip.m4a"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	ch, err := inbox.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	collect(t, ch)

	calls := exec.called()
	if len(calls) != 2 {
		t.Fatalf("calls = %+v, want ffmpeg then whisper", calls)
	}
	if calls[0].name != "ffmpeg" || calls[1].name != "whisper-cli" {
		t.Errorf("call order = %s, %s", calls[0].name, calls[1].name)
	}
	for _, c := range calls {
		if c.dir != inbox.dir {
			t.Errorf("%s ran in %q, want %q", c.name, c.dir, inbox.dir)
		}
	}
	if !containsPair(calls[0].args, "-i", "clip.m4a") {
		t.Errorf("ffmpeg args = %v, want -i clip.m4a", calls[0].args)
	}
	wantWav := "clip" + tempSuffix
	if last := calls[0].args[len(calls[0].args)-1]; last != wantWav {
		t.Errorf("ffmpeg output = %q, want %q", last, wantWav)
	}
	if !containsPair(calls[1].args, "-f", wantWav) {
		t.Errorf("whisper args = %v, want -f %s", calls[1].args, wantWav)
	}
	if _, err := os.Stat(filepath.Join(inbox.dir, wantWav)); !os.IsNotExist(err) {
		t.Errorf("temporary wav left behind: %v", err)
	}
}

func containsPair(args []string, flag, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func TestInboxWatchesForNewFile(t *testing.T) {
	cfg := testConfig(t)
	exec := &fakeExecutor{whisperOut: "patient feeling dizzy\n"}
	inbox := newTestInbox(t, cfg, exec)

	ch, err := inbox.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := os.WriteFile(filepath.Join(inbox.dir, "late.wav"), []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	got := collect(t, ch)
	if len(got) != 1 || got[0].Text != "patient feeling dizzy" {
		t.Errorf("results = %+v", got)
	}
}

func TestInboxSilenceTimeout(t *testing.T) {
	cfg := testConfig(t)
	cfg.SilenceTimeout = 50 * time.Millisecond
	exec := &fakeExecutor{}
	inbox := newTestInbox(t, cfg, exec)

	ch, err := inbox.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := collect(t, ch); len(got) != 0 {
		t.Errorf("silent run produced %+v", got)
	}
}

func TestInboxCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.SilenceTimeout = 0
	inbox := newTestInbox(t, cfg, &fakeExecutor{})

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := inbox.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	cancel()
	if got := collect(t, ch); len(got) != 0 {
		t.Errorf("cancelled run produced %+v", got)
	}
}

func TestInboxCancelDuringTranscriptionKeepsFile(t *testing.T) {
	cfg := testConfig(t)
	exec := &fakeExecutor{block: true, started: make(chan struct{})}
	inbox := newTestInbox(t, cfg, exec)

	if err := os.MkdirAll(inbox.dir, 0o755); err != nil {
		t.Fatal(err)
	}
	audio := filepath.Join(inbox.dir, "late.wav")
	if err := os.WriteFile(audio, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := inbox.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	select {
	case <-exec.started:
	case <-time.After(5 * time.Second):
		t.Fatal("whisper never started")
	}
	cancel()

	if got := collect(t, ch); len(got) != 0 {
		t.Errorf("interrupted run produced %+v", got)
	}
	if _, err := os.Stat(audio); err != nil {
		t.Errorf("interrupted file left the inbox: %v", err)
	}
	if _, err := os.Stat(filepath.Join(inbox.dir, "done", "late.wav")); !os.IsNotExist(err) {
		t.Errorf("interrupted file was archived: %v", err)
	}

	// The next run picks the file up again.
	exec.block = false
	exec.whisperOut = "patient short of breath\n"
	ch, err = inbox.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	got := collect(t, ch)
	if len(got) != 1 || got[0].Text != "patient short of breath" {
		t.Errorf("retry results = %+v", got)
	}
}

func TestInboxWhisperErrorReported(t *testing.T) {
	cfg := testConfig(t)
	exec := &fakeExecutor{whisperErr: errors.New("model load failed")}
	inbox := newTestInbox(t, cfg, exec)

	if err := os.MkdirAll(inbox.dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(inbox.dir, "a.wav"), []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	ch, err := inbox.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	got := collect(t, ch)
	if len(got) != 1 || got[0].Err == nil {
		t.Errorf("results = %+v, want one error result", got)
	}
}

func TestInboxAvailable(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.RecognizerConfig, *fakeExecutor)
		wantErr bool
	}{
		{name: "installed", mutate: func(*config.RecognizerConfig, *fakeExecutor) {}},
		{
			name:    "missing binary",
			mutate:  func(_ *config.RecognizerConfig, e *fakeExecutor) { e.missing = map[string]bool{"whisper-cli": true} },
			wantErr: true,
		},
		{
			name:    "missing model",
			mutate:  func(c *config.RecognizerConfig, _ *fakeExecutor) { c.WhisperModel = "/nonexistent/model.bin" },
			wantErr: true,
		},
		{
			name:    "model not configured",
			mutate:  func(c *config.RecognizerConfig, _ *fakeExecutor) { c.WhisperModel = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			exec := &fakeExecutor{}
			tt.mutate(&cfg, exec)
			inbox := newTestInbox(t, cfg, exec)
			if err := inbox.Available(); (err != nil) != tt.wantErr {
				t.Errorf("Available() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestFactory(t *testing.T) {
	cfg := testConfig(t)

	if _, err := NewFactory(config.RecognizerConfig{Backend: "mic"}, 1, &fakeExecutor{}, logger.NewNop()); err == nil {
		t.Error("unknown backend should fail")
	}

	factory, err := NewFactory(cfg, 1, &fakeExecutor{}, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"", "..", "a/b"} {
		if _, err := factory(id); err == nil {
			t.Errorf("factory(%q) should reject the session id", id)
		}
	}

	relative := cfg
	relative.WhisperModel = filepath.Join("models", "ggml-base.en.bin")
	factory, err = NewFactory(relative, 1, &fakeExecutor{}, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	rec, err := factory("s1")
	if err != nil {
		t.Fatal(err)
	}
	if model := rec.(*implInbox).cfg.WhisperModel; !filepath.IsAbs(model) {
		t.Errorf("model path %q not resolved to absolute", model)
	}

	cfg.Backend = BackendNone
	factory, err = NewFactory(cfg, 1, &fakeExecutor{}, logger.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	rec, err = factory("s1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Available() == nil {
		t.Error("none backend must be unavailable")
	}
}

func TestScripted(t *testing.T) {
	s := NewScripted(
		[]capture.Result{{Text: "nurse hi", Final: true}},
		[]capture.Result{{Text: "pa"}, {Text: "patient hello", Final: true}},
	)

	first, _ := s.Start(context.Background())
	if got := collect(t, first); len(got) != 1 || got[0].Text != "nurse hi" {
		t.Errorf("first run = %+v", got)
	}
	second, _ := s.Start(context.Background())
	if got := collect(t, second); len(got) != 2 {
		t.Errorf("second run = %+v", got)
	}
	if s.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", s.Remaining())
	}

	ctx, cancel := context.WithCancel(context.Background())
	idle, _ := s.Start(ctx)
	select {
	case r := <-idle:
		t.Fatalf("exhausted script produced %+v", r)
	case <-time.After(20 * time.Millisecond):
	}
	cancel()
	collect(t, idle)
}

func TestScriptedDrivesController(t *testing.T) {
	s := NewScripted(
		[]capture.Result{{Text: "nurse any pain", Final: true}, {Text: "today", Final: true}},
		[]capture.Result{{Text: "patient yes", Final: true}},
	)
	com := &recordingCommitter{appended: make(chan string, 4)}
	c := capture.New(testKey, s, com, logger.NewNop(), time.Millisecond)

	if err := c.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	var got []string
	for i := 0; i < 2; i++ {
		select {
		case text := <-com.appended:
			got = append(got, text)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for commit")
		}
	}
	c.Stop()

	want := []string{"Nurse: any pain today", "Patient: yes"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %q, want %q", i, got[i], want[i])
		}
	}
}
