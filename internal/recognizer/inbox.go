package recognizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nguyentantai21042004/chart-flow/internal/capture"
	"github.com/nguyentantai21042004/chart-flow/internal/config"
	"github.com/nguyentantai21042004/chart-flow/internal/logger"
	"github.com/nguyentantai21042004/chart-flow/pkg/executor"
)

var audioFormats = []string{".wav", ".mp3", ".m4a", ".ogg", ".webm", ".flac"}

// implInbox recognizes audio files dropped into a session's inbox directory.
// One run transcribes one file, or ends silently after the silence timeout.
type implInbox struct {
	dir      string
	cfg      config.RecognizerConfig
	executor executor.Executor
	logger   logger.Logger
	sem      *semaphore
	settle   time.Duration
}

// Available checks that whisper and its model are installed.
func (r *implInbox) Available() error {
	if _, err := r.executor.LookPath(r.cfg.WhisperBinary); err != nil {
		return err
	}
	if r.cfg.WhisperModel == "" {
		return errors.New("whisper model path is not configured")
	}
	if _, err := os.Stat(r.cfg.WhisperModel); err != nil {
		return fmt.Errorf("whisper model: %w", err)
	}
	return nil
}

func (r *implInbox) Start(ctx context.Context) (<-chan capture.Result, error) {
	if err := os.MkdirAll(filepath.Join(r.dir, "done"), 0o755); err != nil {
		return nil, fmt.Errorf("create inbox: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(r.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	out := make(chan capture.Result)
	go func() {
		defer close(out)
		defer watcher.Close()

		path, ok := r.next(ctx, watcher)
		if !ok {
			return
		}
		r.process(ctx, path, out)
	}()
	return out, nil
}

// next returns the oldest pending audio file, waiting for one to arrive when
// the inbox is empty. It gives up on silence timeout or cancellation.
func (r *implInbox) next(ctx context.Context, watcher *fsnotify.Watcher) (string, bool) {
	if path, ok := r.pending(); ok {
		return path, true
	}

	var timeout <-chan time.Time
	if r.cfg.SilenceTimeout > 0 {
		timer := time.NewTimer(r.cfg.SilenceTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return "", false

		case <-timeout:
			r.logger.Debug(ctx, "No audio within %s in %s", r.cfg.SilenceTimeout, r.dir)
			return "", false

		case event, ok := <-watcher.Events:
			if !ok {
				return "", false
			}
			if !event.Has(fsnotify.Create) || !isAudioFile(event.Name) || strings.HasSuffix(event.Name, tempSuffix) {
				continue
			}
			r.logger.Info(ctx, "New audio detected: %s", event.Name)

			select {
			case <-time.After(r.settle):
			case <-ctx.Done():
				return "", false
			}
			return event.Name, true

		case err, ok := <-watcher.Errors:
			if !ok {
				return "", false
			}
			r.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

func (r *implInbox) pending() (string, bool) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return "", false
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && isAudioFile(e.Name()) && !strings.HasSuffix(e.Name(), tempSuffix) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return "", false
	}
	sort.Strings(names)
	return filepath.Join(r.dir, names[0]), true
}

// process transcribes one file and emits each segment as a final result.
func (r *implInbox) process(ctx context.Context, path string, out chan<- capture.Result) {
	emit := func(res capture.Result) bool {
		select {
		case out <- res:
			return true
		case <-ctx.Done():
			return false
		}
	}

	if err := r.sem.acquire(ctx); err != nil {
		return
	}
	segments, err := r.transcribe(ctx, path)
	r.sem.release()

	// A run stopped mid-transcription leaves the file pending for the next run.
	if ctx.Err() != nil {
		r.logger.Info(ctx, "Transcription of %s interrupted, keeping it in the inbox", path)
		return
	}
	r.archive(ctx, path)

	if err != nil {
		emit(capture.Result{Err: err})
		return
	}
	for _, s := range segments {
		if !emit(capture.Result{Text: s, Final: true}) {
			return
		}
	}
}

const tempSuffix = "_temp.wav"

func (r *implInbox) transcribe(ctx context.Context, path string) ([]string, error) {
	wav := path
	if strings.ToLower(filepath.Ext(path)) != ".wav" {
		converted, err := r.convert(ctx, path)
		if err != nil {
			return nil, err
		}
		defer os.Remove(converted)
		wav = converted
	}

	// -nt prints plain text without timestamps, one segment per line
	args := []string{
		"-m", r.cfg.WhisperModel,
		"-f", filepath.Base(wav),
		"-nt",
		"-l", r.cfg.Language,
		"-t", strconv.Itoa(r.cfg.Threads),
	}
	if r.cfg.Prompt != "" {
		args = append(args, "--prompt", r.cfg.Prompt)
	}

	r.logger.Info(ctx, "Transcribing %s with %d threads", wav, r.cfg.Threads)
	stdout, err := r.executor.ExecuteInDir(ctx, r.dir, r.cfg.WhisperBinary, args...)
	if err != nil {
		return nil, fmt.Errorf("whisper transcribe: %w", err)
	}
	return segments(stdout), nil
}

// convert resamples input audio to 16kHz mono PCM, the format whisper expects.
// Tools run inside the inbox, so file arguments are relative to it.
func (r *implInbox) convert(ctx context.Context, path string) (string, error) {
	wav := strings.TrimSuffix(path, filepath.Ext(path)) + tempSuffix
	args := []string{
		"-i", filepath.Base(path),
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-c:a", "pcm_s16le",
		"-y",
		filepath.Base(wav),
	}
	if _, err := r.executor.ExecuteInDir(ctx, r.dir, r.cfg.FFmpegBinary, args...); err != nil {
		return "", fmt.Errorf("ffmpeg convert audio: %w", err)
	}
	return wav, nil
}

func (r *implInbox) archive(ctx context.Context, path string) {
	dst := filepath.Join(r.dir, "done", filepath.Base(path))
	if err := os.Rename(path, dst); err != nil {
		r.logger.Warn(ctx, "Failed to archive %s: %v", path, err)
	}
}

func segments(stdout string) []string {
	var out []string
	for _, line := range strings.Split(stdout, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func isAudioFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range audioFormats {
		if ext == format {
			return true
		}
	}
	return false
}
