package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"
)

// LogEntry is one decoded line of the JSON log. Lines that are not valid
// JSON keep their text in Raw with IsValid false so the viewer can still
// show them.
type LogEntry struct {
	Time    time.Time
	Level   string
	Msg     string
	Attrs   map[string]any
	Raw     string
	IsValid bool
}

// ViewerConfig narrows and styles viewer output.
type ViewerConfig struct {
	Level   string         // minimum level to show, empty for all
	Pattern *regexp.Regexp // only lines matching this pattern, nil for all
	NoColor bool
}

// Viewer reads, filters and renders JSON log files for codescope-logs.
type Viewer struct {
	cfg ViewerConfig
	out io.Writer
}

// NewViewer creates a viewer writing formatted entries to out.
func NewViewer(cfg ViewerConfig, out io.Writer) *Viewer {
	return &Viewer{cfg: cfg, out: out}
}

// Tail returns the filtered entries among the last n lines of the file.
func (v *Viewer) Tail(path string, n int) ([]LogEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if n <= 0 {
		return nil, nil
	}

	// Ring of the most recent n lines; the whole file never has to sit in
	// memory at once.
	ring := make([]string, n)
	total := 0

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		ring[total%n] = sc.Text()
		total++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read log file: %w", err)
	}

	count := total
	if count > n {
		count = n
	}

	var entries []LogEntry
	for i := 0; i < count; i++ {
		line := ring[(total-count+i)%n]
		if entry := v.decode(line); v.allow(entry) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Follow streams entries appended to the file after the call, polling for
// new data until the context is cancelled. A line split across polls is
// held back until its newline arrives.
func (v *Viewer) Follow(ctx context.Context, path string, entries chan<- LogEntry) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("seek log file: %w", err)
	}

	r := bufio.NewReader(f)
	var partial strings.Builder
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
		}

		for {
			chunk, err := r.ReadString('\n')
			if err != nil {
				// Incomplete line; keep it for the next poll.
				partial.WriteString(chunk)
				break
			}

			line := strings.TrimSuffix(chunk, "\n")
			if partial.Len() > 0 {
				line = partial.String() + line
				partial.Reset()
			}
			if line == "" {
				continue
			}

			entry := v.decode(line)
			if !v.allow(entry) {
				continue
			}
			select {
			case entries <- entry:
			case <-ctx.Done():
				return nil
			}
		}
	}
}

// FormatEntry renders one entry as "HH:MM:SS.mmm LEVEL msg k=v ...".
// Attributes are sorted so repeated runs line up.
func (v *Viewer) FormatEntry(entry LogEntry) string {
	if !entry.IsValid {
		return entry.Raw
	}

	var b strings.Builder
	b.WriteString(entry.Time.Format("15:04:05.000"))
	b.WriteByte(' ')
	b.WriteString(v.paintLevel(entry.Level))
	b.WriteByte(' ')
	b.WriteString(entry.Msg)

	keys := make([]string, 0, len(entry.Attrs))
	for k := range entry.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, entry.Attrs[k])
	}
	return b.String()
}

// Print writes formatted entries to the viewer output.
func (v *Viewer) Print(entries []LogEntry) {
	for _, e := range entries {
		_, _ = fmt.Fprintln(v.out, v.FormatEntry(e))
	}
}

// decode parses a JSON log line. The slog handler emits time, level and msg
// as top-level keys; everything else becomes an attribute.
func (v *Viewer) decode(line string) LogEntry {
	entry := LogEntry{Raw: line}

	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return entry
	}
	entry.IsValid = true

	if s, ok := fields["time"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			entry.Time = t
		}
	}
	entry.Level, _ = fields["level"].(string)
	entry.Msg, _ = fields["msg"].(string)

	delete(fields, "time")
	delete(fields, "level")
	delete(fields, "msg")
	entry.Attrs = fields
	return entry
}

// allow reports whether the entry passes the level and pattern filters. The
// pattern runs against the raw line so attribute values are searchable too.
func (v *Viewer) allow(entry LogEntry) bool {
	if v.cfg.Level != "" && LevelFromString(entry.Level) < LevelFromString(v.cfg.Level) {
		return false
	}
	if v.cfg.Pattern != nil && !v.cfg.Pattern.MatchString(entry.Raw) {
		return false
	}
	return true
}

const (
	ansiGray   = "\033[90m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiReset  = "\033[0m"
)

var levelColors = map[string]string{
	"debug":   ansiGray,
	"info":    ansiGreen,
	"warn":    ansiYellow,
	"warning": ansiYellow,
	"error":   ansiRed,
}

// paintLevel renders the level as a fixed-width, optionally colored, tag.
func (v *Viewer) paintLevel(level string) string {
	tag := strings.ToUpper(level)
	if len(tag) > 5 {
		tag = tag[:5]
	}
	tag = fmt.Sprintf("%-5s", tag)

	color := levelColors[strings.ToLower(level)]
	if v.cfg.NoColor || color == "" {
		return tag
	}
	return color + tag + ansiReset
}
