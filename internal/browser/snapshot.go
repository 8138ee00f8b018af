package browser

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// snapshotter saves what a tab rendered while a profile was applied, so a
// mismatch can be checked against the page itself.
type snapshotter struct {
	dir string
}

// newSnapshotter places captures for targetURL under base. An empty base
// disables capturing.
func newSnapshotter(base, targetURL string) snapshotter {
	if base == "" {
		return snapshotter{}
	}
	return snapshotter{dir: filepath.Join(base, sanitize(targetURL))}
}

// enabled reports whether captures are written: a directory is set and
// debug logging is on.
func (s snapshotter) enabled(ctx context.Context) bool {
	return s.dir != "" && slog.Default().Enabled(ctx, slog.LevelDebug)
}

// capture writes a screenshot and the page HTML named after stage.
// Failures are logged and never interrupt the run.
func (s snapshotter) capture(ctx context.Context, stage string) {
	if !s.enabled(ctx) {
		return
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		slog.DebugContext(ctx, "snapshot directory unavailable", "dir", s.dir, "error", err)
		return
	}

	base := filepath.Join(s.dir, fmt.Sprintf("%s_%d", stage, time.Now().UnixMilli()))

	var png []byte
	var html string
	s.save(ctx, base+".png", chromedp.FullScreenshot(&png, 90), func() []byte { return png })
	s.save(ctx, base+".html", chromedp.OuterHTML("html", &html), func() []byte { return []byte(html) })
}

func (s snapshotter) save(ctx context.Context, path string, action chromedp.Action, data func() []byte) {
	if err := chromedp.Run(ctx, action); err != nil {
		slog.DebugContext(ctx, "snapshot capture failed", "path", path, "error", err)
		return
	}
	if err := os.WriteFile(path, data(), 0o644); err != nil {
		slog.DebugContext(ctx, "snapshot write failed", "path", path, "error", err)
		return
	}
	slog.DebugContext(ctx, "snapshot saved", "path", path)
}

// sanitize turns a URL into a safe directory name.
func sanitize(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	s := strings.NewReplacer("/", "_", ":", "_").Replace(u.Host + u.Path)
	s = strings.TrimRight(s, "_")
	if len(s) > 80 {
		s = s[:80]
	}
	return s
}
