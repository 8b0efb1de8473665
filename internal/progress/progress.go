// Package progress reports download progress in bytes.
//
// On a terminal each download gets a uiprogress bar. Anywhere else (CI logs,
// redirected output) progress is written as plain lines at fixed steps.
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/gosuri/uiprogress"
	"golang.org/x/term"
)

// plainSteps is how many lines a download with known size prints.
const plainSteps = 10

// plainUnknownStep is the byte interval between lines when the size is unknown.
const plainUnknownStep = 64 << 20

// Tracker counts bytes written through it. Finish must be called once the
// transfer ends, successfully or not.
type Tracker interface {
	io.Writer
	Finish()
}

// Reporter creates a Tracker per transfer.
type Reporter struct {
	out         io.Writer
	interactive bool
}

// NewReporter writes progress to out. Bars are used only when out is a terminal.
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out, interactive: isTerminal(out)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Track starts reporting a transfer of total bytes; total <= 0 means unknown.
func (r *Reporter) Track(label string, total int64) Tracker {
	if r.interactive && total > 0 {
		return newBarTracker(r.out, label, total)
	}
	return &lineTracker{out: r.out, label: label, total: total, next: firstStep(total)}
}

type barTracker struct {
	mu       sync.Mutex
	progress *uiprogress.Progress
	bar      *uiprogress.Bar
	written  int64
	label    string
}

func newBarTracker(out io.Writer, label string, total int64) *barTracker {
	p := uiprogress.New()
	p.SetOut(out)
	t := &barTracker{progress: p, label: label}
	t.bar = p.AddBar(int(total)).AppendCompleted().PrependElapsed()
	t.bar.PrependFunc(func(*uiprogress.Bar) string {
		t.mu.Lock()
		defer t.mu.Unlock()
		return fmt.Sprintf("%-10s %10s", t.label, FormatBytes(t.written))
	})
	p.Start()
	return t
}

func (t *barTracker) Write(p []byte) (int, error) {
	t.mu.Lock()
	t.written += int64(len(p))
	n := t.written
	t.mu.Unlock()
	_ = t.bar.Set(int(n))
	return len(p), nil
}

func (t *barTracker) Finish() {
	t.progress.Stop()
}

type lineTracker struct {
	out     io.Writer
	label   string
	total   int64
	written int64
	next    int64
}

func firstStep(total int64) int64 {
	if total > 0 {
		return total / plainSteps
	}
	return plainUnknownStep
}

func (t *lineTracker) Write(p []byte) (int, error) {
	t.written += int64(len(p))
	if t.written >= t.next {
		t.report()
		if t.total > 0 {
			t.next = t.written + t.total/plainSteps
		} else {
			t.next = t.written + plainUnknownStep
		}
	}
	return len(p), nil
}

func (t *lineTracker) Finish() {
	t.report()
}

func (t *lineTracker) report() {
	if t.total > 0 {
		fmt.Fprintf(t.out, "%s: %s / %s (%d%%)\n", t.label, FormatBytes(t.written), FormatBytes(t.total), t.written*100/t.total)
		return
	}
	fmt.Fprintf(t.out, "%s: %s\n", t.label, FormatBytes(t.written))
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
