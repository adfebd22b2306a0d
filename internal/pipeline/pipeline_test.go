package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nguyentantai21042004/wordcut/internal/compiler"
	"github.com/nguyentantai21042004/wordcut/internal/logger"
	"github.com/nguyentantai21042004/wordcut/internal/media"
	"github.com/nguyentantai21042004/wordcut/internal/state"
	"github.com/nguyentantai21042004/wordcut/internal/transcribe"
	"github.com/nguyentantai21042004/wordcut/internal/wordindex"
)

// fakeMedia writes placeholder files instead of running ffmpeg.
type fakeMedia struct {
	mu           sync.Mutex
	ops          []string
	transcode    int
	trim         int
	audio        int
	inFlight     int
	peak         int
	trimDelay    time.Duration
	audioStopped bool
	// audioHangs makes audio streams wait on Close until their ctx ends,
	// like an encoder that is still working through a long video
	audioHangs bool
	// failures maps a src or dst base name to the error returned for it
	failures map[string]error
}

func (f *fakeMedia) record(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, op)
	switch op {
	case "transcode":
		f.transcode++
	case "trim":
		f.trim++
	case "audio":
		f.audio++
	}
}

func (f *fakeMedia) failure(names ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range names {
		if err, ok := f.failures[filepath.Base(n)]; ok {
			return err
		}
	}
	return nil
}

func (f *fakeMedia) Transcode(_ context.Context, src, dst string, _ media.Profile) error {
	f.record("transcode")
	if err := f.failure(src); err != nil {
		_ = os.WriteFile(dst, []byte("partial"), 0644)
		return &media.OpError{Op: "transcode", Src: src, Dst: dst, Partial: []string{dst}, Err: err}
	}
	return os.WriteFile(dst, []byte("normalized "+filepath.Base(src)), 0644)
}

func (f *fakeMedia) Trim(_ context.Context, src, dst string, _, _ float64) error {
	f.record("trim")

	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.peak {
		f.peak = f.inFlight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	time.Sleep(f.trimDelay)
	if err := f.failure(dst); err != nil {
		_ = os.WriteFile(dst, []byte("partial"), 0644)
		return &media.OpError{Op: "trim", Src: src, Dst: dst, Partial: []string{dst}, Err: err}
	}
	return os.WriteFile(dst, []byte("clip"), 0644)
}

func (f *fakeMedia) Concat(context.Context, []string, string) error {
	f.record("concat")
	return nil
}

func (f *fakeMedia) AudioStream(ctx context.Context, src string) (io.ReadCloser, error) {
	f.record("audio")
	r := strings.NewReader(filepath.Base(src))
	if f.audioHangs {
		return &hangingAudio{Reader: r, ctx: ctx, media: f}, nil
	}
	return io.NopCloser(r), nil
}

type hangingAudio struct {
	*strings.Reader
	ctx   context.Context
	media *fakeMedia
}

func (a *hangingAudio) Close() error {
	select {
	case <-a.ctx.Done():
		a.media.mu.Lock()
		a.media.audioStopped = true
		a.media.mu.Unlock()
		return a.ctx.Err()
	case <-time.After(2 * time.Second):
		return errors.New("encoder still running")
	}
}

// fakeRecognizer answers with canned events keyed by the audio content,
// which fakeMedia sets to the video file name.
type fakeRecognizer struct {
	mu     sync.Mutex
	opens  int
	events map[string][]transcribe.Event
	errs   map[string]error
	opts   transcribe.StreamOptions
}

func (r *fakeRecognizer) Open(_ context.Context, audio io.Reader, opts transcribe.StreamOptions) (transcribe.Stream, error) {
	data, err := io.ReadAll(audio)
	if err != nil {
		return nil, err
	}
	video := string(data)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.opens++
	r.opts = opts
	return &errStream{SliceStream: transcribe.NewSliceStream(r.events[video]), err: r.errs[video]}, nil
}

type errStream struct {
	*transcribe.SliceStream
	err error
}

func (s *errStream) Recv() (transcribe.Event, error) {
	ev, err := s.SliceStream.Recv()
	if errors.Is(err, io.EOF) && s.err != nil {
		return ev, s.err
	}
	return ev, err
}

type memState struct {
	mu        sync.Mutex
	processed map[string]string
}

func newMemState() *memState {
	return &memState{processed: map[string]string{}}
}

func (s *memState) Processed(context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]string{}
	for k, v := range s.processed {
		out[k] = v
	}
	return out, nil
}

func (s *memState) MarkProcessed(_ context.Context, name, output, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed[name] = output
	return nil
}

func (s *memState) BeginRun(context.Context, string, string) error { return nil }

func (s *memState) FinishRun(context.Context, string, state.RunStatus, string) error { return nil }

func (s *memState) Runs(context.Context, int) ([]state.Run, error) { return nil, nil }

func (s *memState) Close() error { return nil }

type fakeCompiler struct {
	sentences []string
	err       error
}

func (c *fakeCompiler) Compile(_ context.Context, sentence, outputName string) (compiler.Compilation, error) {
	c.sentences = append(c.sentences, sentence)
	if c.err != nil {
		return compiler.Compilation{}, c.err
	}
	return compiler.Compilation{Output: outputName + ".mp4"}, nil
}

type fixture struct {
	root       string
	paths      Paths
	media      *fakeMedia
	recognizer *fakeRecognizer
	state      *memState
	words      wordindex.Store
	compiler   *fakeCompiler
	interim    []string
}

func newFixture(t *testing.T, videos ...string) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		root: root,
		paths: Paths{
			Videos:     filepath.Join(root, "videos"),
			Normalized: filepath.Join(root, "normalized"),
			Trimmed:    filepath.Join(root, "trimmed"),
		},
		media:      &fakeMedia{failures: map[string]error{}},
		recognizer: &fakeRecognizer{events: map[string][]transcribe.Event{}, errs: map[string]error{}},
		state:      newMemState(),
		words:      wordindex.New(filepath.Join(root, "words"), logger.Nop()),
		compiler:   &fakeCompiler{},
	}
	if err := os.MkdirAll(f.paths.Videos, 0755); err != nil {
		t.Fatal(err)
	}
	for _, v := range videos {
		writeFile(t, filepath.Join(f.paths.Videos, v))
	}
	return f
}

func (f *fixture) pipeline(maxConcurrent int) *implPipeline {
	return New(Options{
		Paths:          f.paths,
		Model:          "en-US_BroadbandModel",
		InterimResults: true,
		MaxConcurrent:  maxConcurrent,
	}, Deps{
		Media:      f.media,
		Recognizer: f.recognizer,
		Words:      f.words,
		State:      f.state,
		Compiler:   f.compiler,
		Logger:     logger.Nop(),
		OnInterim: func(video, transcript string) {
			f.interim = append(f.interim, video+": "+transcript)
		},
	}).(*implPipeline)
}

func (f *fixture) say(video string, words ...transcribe.WordTiming) {
	f.recognizer.events[video] = append(f.recognizer.events[video], transcribe.Event{Kind: transcribe.EventFinal, Words: words})
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
}

func w(word string, start, end float64) transcribe.WordTiming {
	return transcribe.WordTiming{Word: word, Start: start, End: end}
}

func TestRunIsIdempotent(t *testing.T) {
	f := newFixture(t, "a.mov", "b.mp4")
	f.say("a.mp4", w("hello", 0, 0.5), w("world", 0.6, 1))
	f.say("b.mp4", w("again", 0, 0.4))

	ctx := context.Background()
	for run := 1; run <= 3; run++ {
		report, err := f.pipeline(4).Run(ctx, Request{})
		if err != nil {
			t.Fatalf("run %d: Run() error = %v", run, err)
		}
		if report.Words != 3 {
			t.Fatalf("run %d: Words = %d, want 3", run, report.Words)
		}
		if run > 1 {
			if n := report.Count(StageTrim, Cached); n != 3 {
				t.Errorf("run %d: cached clips = %d, want 3", run, n)
			}
			if n := report.Count(StageTranscribe, Cached); n != 2 {
				t.Errorf("run %d: cached indexes = %d, want 2", run, n)
			}
		}
	}

	if f.media.transcode != 2 {
		t.Errorf("transcode calls = %d, want 2", f.media.transcode)
	}
	if f.recognizer.opens != 2 {
		t.Errorf("recognizer opens = %d, want 2", f.recognizer.opens)
	}
	if f.media.trim != 3 {
		t.Errorf("trim calls = %d, want 3", f.media.trim)
	}
	for _, word := range []string{"hello", "world", "again"} {
		if _, err := os.Stat(filepath.Join(f.paths.Trimmed, word+".mp4")); err != nil {
			t.Errorf("clip for %q missing: %v", word, err)
		}
	}
}

func TestRunStagesDoNotOverlap(t *testing.T) {
	f := newFixture(t, "a.mp4", "b.mp4", "c.mp4")
	f.say("a.mp4", w("one", 0, 1))
	f.say("b.mp4", w("two", 0, 1))
	f.say("c.mp4", w("three", 0, 1))

	if _, err := f.pipeline(2).Run(context.Background(), Request{}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	rank := map[string]int{"transcode": 0, "audio": 1, "trim": 2}
	last := 0
	for i, op := range f.media.ops {
		if rank[op] < last {
			t.Fatalf("op %d (%s) ran after a later stage started: %v", i, op, f.media.ops)
		}
		last = rank[op]
	}
}

func TestTranscribeMergeOrder(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.paths.Normalized, "b.mp4"))
	writeFile(t, filepath.Join(f.paths.Normalized, "a.mp4"))
	f.say("a.mp4", w("hello", 1, 2), w("only", 2, 3))
	f.say("b.mp4", w("hello", 3, 4))
	// within one video the last occurrence wins
	f.say("b.mp4", w("twice", 1, 2), w("twice", 5, 6))

	idx, results, err := f.pipeline(4).Transcribe(context.Background())
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}

	tests := []struct {
		word   string
		start  float64
		source string
	}{
		{"hello", 3, "b.mp4"},
		{"only", 2, "a.mp4"},
		{"twice", 5, "b.mp4"},
	}
	for _, tt := range tests {
		e, ok := idx[tt.word]
		if !ok {
			t.Errorf("word %q missing", tt.word)
			continue
		}
		if e.StartTime != tt.start || e.SourceFile != tt.source {
			t.Errorf("%q = %+v, want start %v from %s", tt.word, e, tt.start, tt.source)
		}
	}

	if _, ok := f.words.Load("a.mp4"); !ok {
		t.Error("index of a.mp4 not persisted")
	}
	if f.recognizer.opts.Model != "en-US_BroadbandModel" || !f.recognizer.opts.Timestamps {
		t.Errorf("stream options = %+v", f.recognizer.opts)
	}
}

func TestTranscribeDropsUnusableWords(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.paths.Normalized, "a.mp4"))
	f.say("a.mp4", w("ok", 0, 1), w("../x", 1, 2), w("zero", 2, 2), w("", 3, 4))

	idx, _, err := f.pipeline(1).Transcribe(context.Background())
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if len(idx) != 1 {
		t.Fatalf("index = %v, want only ok", idx.Words())
	}
}

func TestTranscribeSavesEmptyIndex(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.paths.Normalized, "silent.mp4"))

	p := f.pipeline(1)
	if _, _, err := p.Transcribe(context.Background()); err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if _, _, err := p.Transcribe(context.Background()); err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if f.recognizer.opens != 1 {
		t.Errorf("recognizer opens = %d, want 1 (empty index cached)", f.recognizer.opens)
	}
}

func TestTranscribeInterimObserver(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.paths.Normalized, "a.mp4"))
	f.recognizer.events["a.mp4"] = []transcribe.Event{
		{Kind: transcribe.EventInterim, Transcript: "hel"},
		{Kind: transcribe.EventFinal, Transcript: "hello", Words: []transcribe.WordTiming{w("hello", 0, 1)}},
	}

	if _, _, err := f.pipeline(1).Transcribe(context.Background()); err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if len(f.interim) != 1 || f.interim[0] != "a.mp4: hel" {
		t.Errorf("interim = %v", f.interim)
	}
}

func TestTranscribeErrorStopsEncoder(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.paths.Normalized, "long.mp4"))
	f.media.audioHangs = true
	f.recognizer.errs["long.mp4"] = errors.New("websocket: close 1006")

	done := make(chan error, 1)
	go func() {
		_, _, err := f.pipeline(1).Transcribe(context.Background())
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Transcribe() error = nil")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Transcribe() blocked on the audio encoder")
	}

	f.media.mu.Lock()
	defer f.media.mu.Unlock()
	if !f.media.audioStopped {
		t.Error("audio encoder was waited on instead of stopped")
	}
}

func TestTranscribeErrorHaltsRun(t *testing.T) {
	f := newFixture(t, "a.mp4", "b.mp4")
	f.say("a.mp4", w("fine", 0, 1))
	f.say("b.mp4", w("lost", 0, 1))
	f.recognizer.errs["b.mp4"] = errors.New("websocket: close 1011")

	report, err := f.pipeline(2).Run(context.Background(), Request{Sentence: "fine"})
	if err == nil {
		t.Fatal("Run() error = nil, want transcription failure")
	}
	if !strings.Contains(err.Error(), "b.mp4") {
		t.Errorf("error %q does not name the video", err)
	}
	if f.media.trim != 0 {
		t.Errorf("trim ran %d times after transcription failed", f.media.trim)
	}
	if len(f.compiler.sentences) != 0 {
		t.Error("compile ran after transcription failed")
	}
	if _, ok := f.words.Load("b.mp4"); ok {
		t.Error("failed video has a persisted index")
	}
	if _, ok := f.words.Load("a.mp4"); !ok {
		t.Error("earlier video lost its index")
	}
	if report.Count(StageTranscribe, Failed) != 1 {
		t.Errorf("results = %+v", report.Results)
	}
}

func TestNormalizeBestEffort(t *testing.T) {
	f := newFixture(t, "bad.mov", "good.mov", "notes.txt", "_done.mp4", ".hidden.mp4")
	f.media.failures["bad.mov"] = errors.New("invalid data found")

	p := f.pipeline(2)
	results, err := p.Normalize(context.Background())
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v, want bad.mov and good.mov only", results)
	}
	if results[0].Unit != "bad.mov" || results[0].Outcome != Failed {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Unit != "good.mov" || results[1].Outcome != Succeeded {
		t.Errorf("results[1] = %+v", results[1])
	}
	if _, err := os.Stat(filepath.Join(f.paths.Normalized, "bad.mp4")); !os.IsNotExist(err) {
		t.Errorf("partial output of bad.mov left behind: %v", err)
	}
	if _, ok := f.state.processed["bad.mov"]; ok {
		t.Error("failed video marked processed")
	}
	if f.state.processed["good.mov"] != "good.mp4" {
		t.Errorf("processed = %v", f.state.processed)
	}

	// the failed video is retried, the good one is not
	delete(f.media.failures, "bad.mov")
	results, err = p.Normalize(context.Background())
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(results) != 1 || results[0].Unit != "bad.mov" || results[0].Outcome != Succeeded {
		t.Errorf("retry results = %+v", results)
	}

	report := Report{Results: []Result{{Outcome: Succeeded}, {Outcome: Failed}}}
	if !report.Partial() {
		t.Error("Partial() = false with a failed unit")
	}
}

func TestNormalizeDuplicateOutputName(t *testing.T) {
	f := newFixture(t, "clip.mov", "clip.mp4")

	results, err := f.pipeline(2).Normalize(context.Background())
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %+v, want one", results)
	}
}

func TestNormalizeKeepsEarlierOwnerOfOutput(t *testing.T) {
	f := newFixture(t, "clip.mov")
	f.say("clip.mp4", w("first", 0, 1))

	ctx := context.Background()
	if _, err := f.pipeline(2).Run(ctx, Request{}); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	// a different video arrives that would overwrite normalized/clip.mp4
	writeFile(t, filepath.Join(f.paths.Videos, "clip.mp4"))

	report, err := f.pipeline(2).Run(ctx, Request{})
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if f.media.transcode != 1 {
		t.Errorf("transcode calls = %d, want 1", f.media.transcode)
	}
	if n := report.Count(StageNormalize, Succeeded) + report.Count(StageNormalize, Failed); n != 0 {
		t.Errorf("second run normalized %d videos, want 0", n)
	}
	data, err := os.ReadFile(filepath.Join(f.paths.Normalized, "clip.mp4"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "normalized clip.mov" {
		t.Errorf("normalized/clip.mp4 = %q, want the output of clip.mov", data)
	}
	if _, ok := f.state.processed["clip.mp4"]; ok {
		t.Error("skipped video marked processed")
	}
}

func TestNormalizeMissingInputDir(t *testing.T) {
	f := newFixture(t)
	if err := os.RemoveAll(f.paths.Videos); err != nil {
		t.Fatal(err)
	}
	if _, err := f.pipeline(1).Normalize(context.Background()); err == nil {
		t.Fatal("Normalize() error = nil for missing input dir")
	}
}

func TestTrimConcurrencyBound(t *testing.T) {
	f := newFixture(t)
	f.media.trimDelay = 5 * time.Millisecond

	idx := wordindex.Index{}
	for i := 0; i < 20; i++ {
		idx.Upsert(fmt.Sprintf("w%02d", i), 0, 1, "a.mp4")
	}

	p := f.pipeline(4)
	results, err := p.Trim(context.Background(), idx)
	if err != nil {
		t.Fatalf("Trim() error = %v", err)
	}
	if len(results) != 20 {
		t.Fatalf("results = %d, want 20", len(results))
	}
	if f.media.peak > 4 {
		t.Errorf("peak concurrent trims = %d, want <= 4", f.media.peak)
	}
	if p.limiter.Peak() > 4 {
		t.Errorf("limiter peak = %d", p.limiter.Peak())
	}
}

func TestTrimSkipsCachedClips(t *testing.T) {
	f := newFixture(t)
	writeFile(t, filepath.Join(f.paths.Trimmed, "cached.mp4"))

	idx := wordindex.Index{}
	idx.Upsert("cached", 0, 1, "a.mp4")
	idx.Upsert("fresh", 1, 2, "a.mp4")

	results, err := f.pipeline(2).Trim(context.Background(), idx)
	if err != nil {
		t.Fatalf("Trim() error = %v", err)
	}
	if f.media.trim != 1 {
		t.Errorf("trim calls = %d, want 1", f.media.trim)
	}
	if results[0].Unit != "cached" || results[0].Outcome != Cached {
		t.Errorf("results[0] = %+v", results[0])
	}
}

func TestTrimFailureWaitsForSiblings(t *testing.T) {
	f := newFixture(t)
	f.media.failures["b.mp4"] = errors.New("exit status 1")

	idx := wordindex.Index{}
	for _, word := range []string{"a", "b", "c", "d"} {
		idx.Upsert(word, 0, 1, "src.mp4")
	}

	results, err := f.pipeline(2).Trim(context.Background(), idx)
	if err == nil {
		t.Fatal("Trim() error = nil")
	}
	var opErr *media.OpError
	if !errors.As(err, &opErr) {
		t.Errorf("error %v does not wrap *media.OpError", err)
	}
	if f.media.trim != 4 {
		t.Errorf("trim calls = %d, want all 4 units attempted", f.media.trim)
	}
	if len(results) != 4 || results[1].Outcome != Failed {
		t.Errorf("results = %+v", results)
	}
	if _, err := os.Stat(filepath.Join(f.paths.Trimmed, "b.mp4")); !os.IsNotExist(err) {
		t.Errorf("partial clip left in cache: %v", err)
	}
}

func TestRunCompilesSentence(t *testing.T) {
	f := newFixture(t, "a.mp4")
	f.say("a.mp4", w("hi", 0, 1))

	report, err := f.pipeline(2).Run(context.Background(), Request{Sentence: "hi there", OutputName: "greeting"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Compilation == nil || report.Compilation.Output != "greeting.mp4" {
		t.Fatalf("Compilation = %+v", report.Compilation)
	}
	if len(f.compiler.sentences) != 1 || f.compiler.sentences[0] != "hi there" {
		t.Errorf("compiled = %v", f.compiler.sentences)
	}
	if report.Partial() {
		t.Error("Partial() = true for a clean run")
	}
}

func TestRunCompileFailure(t *testing.T) {
	f := newFixture(t)
	f.compiler.err = compiler.ErrFallbackMissing

	_, err := f.pipeline(1).Run(context.Background(), Request{Sentence: "x", OutputName: "out"})
	if !errors.Is(err, compiler.ErrFallbackMissing) {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t, "a.mp4")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.pipeline(1).Run(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if f.media.transcode != 0 {
		t.Errorf("transcode ran %d times after cancel", f.media.transcode)
	}
	if report.Count(StageNormalize, Failed) != 1 {
		t.Errorf("results = %+v", report.Results)
	}
}
