package cli

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
)

// consoleNotifier prints watch lifecycle events as one-line status messages
type consoleNotifier struct {
	out io.Writer
	mu  sync.Mutex
	// last progress decile printed per directory
	lastDecile map[string]int
}

func newConsoleNotifier(out io.Writer) *consoleNotifier {
	return &consoleNotifier{out: out, lastDecile: make(map[string]int)}
}

func (n *consoleNotifier) printf(format string, args ...any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.out, "%s %s\n", color.HiBlackString(time.Now().Format("15:04:05")), fmt.Sprintf(format, args...))
}

func label(dir string) string {
	return color.CyanString(filepath.Base(dir))
}

func (n *consoleNotifier) Scheduled(dir string, delay time.Duration) {
	n.printf("%s changes detected, analysis scheduled in %s", label(dir), formatDelay(delay))
}

func (n *consoleNotifier) Analyzing(dir string) {
	n.mu.Lock()
	n.lastDecile[dir] = -1
	n.mu.Unlock()
	n.printf("%s %s", label(dir), color.YellowString("analyzing..."))
}

// Progress prints at most once per 10% of the pass
func (n *consoleNotifier) Progress(dir string, current, total int, fileName string) {
	if total <= 0 {
		return
	}
	decile := current * 10 / total
	n.mu.Lock()
	if decile <= n.lastDecile[dir] {
		n.mu.Unlock()
		return
	}
	n.lastDecile[dir] = decile
	n.mu.Unlock()
	n.printf("%s %d/%d %s", label(dir), current, total, color.HiBlackString(fileName))
}

func (n *consoleNotifier) Completed(dir string, files int) {
	n.printf("%s %s %d files", label(dir), color.GreenString("✓"), files)
}

func (n *consoleNotifier) Failed(dir string, err error) {
	n.printf("%s %s %v", label(dir), color.RedString("✗ analysis failed:"), err)
}

func formatDelay(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int(d/time.Second))
	}
	return d.String()
}
