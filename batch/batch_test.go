package batch

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"colorizer/colorize"
	"colorizer/imageio"

	"go.uber.org/zap"
)

// neutralInfer predicts zero chrominance at the input resolution.
var neutralInfer = colorize.InferFunc(func(l colorize.Plane) (colorize.Plane, colorize.Plane, error) {
	return colorize.NewPlane(l.Width, l.Height), colorize.NewPlane(l.Width, l.Height), nil
})

var failingInfer = colorize.InferFunc(func(l colorize.Plane) (colorize.Plane, colorize.Plane, error) {
	return colorize.Plane{}, colorize.Plane{}, errors.New("model offline")
})

func writeImage(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 90, 120, 150, 255
	}
	if err := imageio.Save(path, img, 90); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestOutputDirName(t *testing.T) {
	now := time.Date(2024, 3, 7, 9, 5, 2, 0, time.UTC)
	if got := OutputDirName(now); got != "colorized_batch_20240307_090502" {
		t.Errorf("OutputDirName() = %s", got)
	}
}

func TestOutputName(t *testing.T) {
	if got := OutputName("/in/photo.jpg"); got != "colorized_photo.jpg" {
		t.Errorf("OutputName() = %s", got)
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.png", "a.jpg", "c.TIFF", "notes.txt", "colorized_a.jpg"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "sub.png"), 0755); err != nil {
		t.Fatal(err)
	}

	files, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	var names []string
	for _, f := range files {
		names = append(names, filepath.Base(f))
	}
	if got := strings.Join(names, ","); got != "a.jpg,b.png,c.TIFF" {
		t.Errorf("Scan() = %s, want a.jpg,b.png,c.TIFF", got)
	}
}

func TestScan_Empty(t *testing.T) {
	if _, err := Scan(t.TempDir()); !errors.Is(err, ErrNoInputs) {
		t.Errorf("Scan() error = %v, want ErrNoInputs", err)
	}
	if _, err := Scan(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Scan(missing) should fail")
	}
}

func TestRunner_OneCorruptFile(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), OutputDirName(time.Now()))
	for _, name := range []string{"1.png", "2.jpg", "4.bmp", "5.png"} {
		writeImage(t, filepath.Join(in, name), 12, 8)
	}
	if err := os.WriteFile(filepath.Join(in, "3.png"), []byte("definitely not a png"), 0644); err != nil {
		t.Fatal(err)
	}

	paths, err := Scan(in)
	if err != nil {
		t.Fatal(err)
	}

	var progress []Progress
	var mu sync.Mutex
	r := NewRunner(neutralInfer, Config{Workers: 3}, zap.NewNop())
	r.OnProgress = func(p Progress) {
		mu.Lock()
		progress = append(progress, p)
		mu.Unlock()
	}

	report, err := r.Run(context.Background(), paths, out)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.ProcessedCount != 4 || report.TotalCount != 5 || report.FailedCount() != 1 {
		t.Errorf("processed %d/%d, failed %d", report.ProcessedCount, report.TotalCount, report.FailedCount())
	}

	bad := report.Items[2]
	if bad.Success || !errors.Is(bad.Err, imageio.ErrUnsupportedFormat) || bad.Error == "" {
		t.Errorf("corrupt item = %+v", bad)
	}

	for _, item := range report.Items {
		if !item.Success {
			continue
		}
		if !strings.HasPrefix(filepath.Base(item.Output), OutputPrefix) {
			t.Errorf("output %s lacks prefix", item.Output)
		}
		img, _, err := imageio.Load(item.Output)
		if err != nil {
			t.Errorf("output %s unreadable: %v", item.Output, err)
			continue
		}
		if img.Bounds().Dx() != 12 || img.Bounds().Dy() != 8 {
			t.Errorf("output %s is %v, want 12x8", item.Output, img.Bounds())
		}
	}

	if len(progress) != 5 {
		t.Fatalf("progress events = %d, want 5", len(progress))
	}
	if last := progress[4]; last.Completed != 5 || last.Total != 5 {
		t.Errorf("last progress = %+v", last)
	}
}

func TestRunner_DegradedStillWritten(t *testing.T) {
	in := t.TempDir()
	writeImage(t, filepath.Join(in, "photo.png"), 6, 6)

	r := NewRunner(failingInfer, Config{}, nil)
	report, err := r.Run(context.Background(), []string{filepath.Join(in, "photo.png")}, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	item := report.Items[0]
	if !item.Success || !item.Degraded || report.DegradedCount != 1 {
		t.Fatalf("item = %+v", item)
	}

	img, _, err := imageio.Load(item.Output)
	if err != nil {
		t.Fatal(err)
	}
	r8, g8, b8, _ := img.At(0, 0).RGBA()
	if r8 != g8 || g8 != b8 {
		t.Errorf("degraded output not gray: %d %d %d", r8>>8, g8>>8, b8>>8)
	}
}

func TestRunner_JobName(t *testing.T) {
	in := t.TempDir()
	upload := filepath.Join(in, "3f2a_portrait.png")
	writeImage(t, upload, 4, 4)
	out := t.TempDir()

	r := NewRunner(neutralInfer, Config{}, nil)
	report, err := r.RunJobs(context.Background(), []Job{{Input: upload, Name: "portrait.png"}}, out)
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(out, "colorized_portrait.png"); report.Items[0].Output != want {
		t.Errorf("Output = %s, want %s", report.Items[0].Output, want)
	}
}

func TestRunner_InvalidSettings(t *testing.T) {
	r := NewRunner(neutralInfer, Config{Settings: colorize.Settings{Intensity: 9}}, nil)
	if _, err := r.Run(context.Background(), nil, t.TempDir()); !errors.Is(err, colorize.ErrInvalidSettings) {
		t.Errorf("Run() error = %v, want ErrInvalidSettings", err)
	}
}

func TestRunner_Cancelled(t *testing.T) {
	in := t.TempDir()
	var paths []string
	for _, name := range []string{"a.png", "b.png", "c.png", "d.png"} {
		p := filepath.Join(in, name)
		writeImage(t, p, 4, 4)
		paths = append(paths, p)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner(neutralInfer, Config{Workers: 1}, nil)
	report, err := r.Run(ctx, paths, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	skipped := 0
	for _, item := range report.Items {
		switch {
		case item.Success:
		case errors.Is(item.Err, ErrSkipped):
			skipped++
		default:
			t.Errorf("unexpected item %+v", item)
		}
	}
	if report.ProcessedCount+skipped != 4 {
		t.Errorf("processed %d + skipped %d != 4", report.ProcessedCount, skipped)
	}
}

func TestRunner_UnsupportedExtension(t *testing.T) {
	r := NewRunner(neutralInfer, Config{}, nil)
	item := r.Process("/in/doc.pdf", "/out/colorized_doc.pdf")
	if item.Success || !errors.Is(item.Err, ErrUnsupported) {
		t.Errorf("item = %+v", item)
	}
}

func TestWatcher_ProcessesNewFile(t *testing.T) {
	inbox := t.TempDir()
	out := t.TempDir()

	r := NewRunner(neutralInfer, Config{}, zap.NewNop())
	w := NewWatcher(r, inbox, out, zap.NewNop())
	w.SetSettle(20 * time.Millisecond)

	results := make(chan ItemResult, 4)
	w.OnResult = func(item ItemResult) { results <- item }

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- w.Run(ctx) }()
	defer func() {
		cancel()
		if err := <-errc; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	}()

	// Give the watcher time to register the inbox.
	time.Sleep(100 * time.Millisecond)

	tmp := filepath.Join(inbox, ".incoming.png")
	writeImage(t, tmp, 5, 5)
	if err := os.WriteFile(filepath.Join(inbox, "notes.txt"), []byte("skip"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(tmp, filepath.Join(inbox, "scan.png")); err != nil {
		t.Fatal(err)
	}

	select {
	case item := <-results:
		if !item.Success || item.Output != filepath.Join(out, "colorized_scan.png") {
			t.Errorf("result = %+v", item)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not process the new file")
	}
}

func TestWatcher_Accepts(t *testing.T) {
	w := NewWatcher(NewRunner(neutralInfer, Config{}, nil), "/in", "/out", nil)
	tests := map[string]bool{
		"/in/photo.jpg":           true,
		"/in/colorized_photo.jpg": false,
		"/in/.partial.png":        false,
		"/in/readme.md":           false,
	}
	for path, want := range tests {
		if got := w.accepts(path); got != want {
			t.Errorf("accepts(%s) = %v, want %v", path, got, want)
		}
	}
}

func TestWatcher_RescheduleAfterTimerFired(t *testing.T) {
	w := NewWatcher(NewRunner(neutralInfer, Config{}, nil), "/in", "/out", nil)
	w.SetSettle(time.Millisecond)
	ready := make(chan string, 4)
	done := make(chan struct{})
	defer close(done)

	w.schedule("/in/photo.jpg", ready, done)

	// Hold the lock until the first callback has fired and is waiting on
	// it, then report another write for the same file.
	w.mu.Lock()
	time.Sleep(30 * time.Millisecond)
	w.scheduleLocked("/in/photo.jpg", ready, done)
	w.mu.Unlock()

	time.Sleep(100 * time.Millisecond)
	if got := len(ready); got != 1 {
		t.Fatalf("expected 1 ready path, got %d", got)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.pending) != 0 {
		t.Errorf("expected no pending timers, got %d", len(w.pending))
	}
}
