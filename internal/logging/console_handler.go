package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// consoleSink is shared by every handler derived through WithAttrs or WithGroup.
type consoleSink struct {
	mu        sync.Mutex
	w         io.Writer
	level     *slog.LevelVar
	addSource bool
}

// consoleHandler renders one header line per record followed by indented fields.
type consoleHandler struct {
	sink   *consoleSink
	attrs  []slog.Attr
	groups []string
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{sink: &consoleSink{w: w, level: lvl, addSource: addSource}}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.sink.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}

	kvs := make([]kv, 0, len(h.attrs)+record.NumAttrs())
	for _, attr := range h.attrs {
		flattenAttr(&kvs, h.groups, attr)
	}
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&kvs, h.groups, attr)
		return true
	})
	kvs = dedupeKVsByKey(kvs)

	var sb strings.Builder
	h.writeHeader(&sb, record, kvs)
	fields, hidden := selectInfoFields(kvs, infoAttrLimit, record.Level < slog.LevelInfo)
	for _, f := range fields {
		fmt.Fprintf(&sb, "    - %s: %s\n", f.label, f.value)
	}
	switch {
	case hidden == 1:
		sb.WriteString("    + 1 more field hidden\n")
	case hidden > 1:
		fmt.Fprintf(&sb, "    + %d more fields hidden\n", hidden)
	}

	h.sink.mu.Lock()
	defer h.sink.mu.Unlock()
	_, err := io.WriteString(h.sink.w, sb.String())
	return err
}

func (h *consoleHandler) writeHeader(sb *strings.Builder, record slog.Record, kvs []kv) {
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var component, runID, stage string
	for _, field := range kvs {
		switch field.key {
		case FieldComponent:
			component = attrString(field.value)
		case FieldRunID:
			runID = attrString(field.value)
		case FieldStage:
			stage = attrString(field.value)
		}
	}

	sb.WriteString(formatTimestamp(ts))
	sb.WriteByte(' ')
	sb.WriteString(levelLabel(record.Level))
	if component != "" {
		fmt.Fprintf(sb, " [%s]", component)
	}
	if subject := composeSubject(runID, stage); subject != "" {
		sb.WriteByte(' ')
		sb.WriteString(subject)
	}
	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}
	sb.WriteString(" – ")
	sb.WriteString(message)
	if h.sink.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			fmt.Fprintf(sb, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	sb.WriteByte('\n')
}

// composeSubject renders "Run 1a2b3c4d (stage)" with the run id cut to eight characters.
func composeSubject(runID, stage string) string {
	runID = strings.TrimSpace(runID)
	stage = strings.TrimSpace(stage)
	if len(runID) > 8 {
		runID = runID[:8]
	}
	if runID == "" {
		return stage
	}
	if stage == "" {
		return "Run " + runID
	}
	return "Run " + runID + " (" + stage + ")"
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &consoleHandler{
		sink:   h.sink,
		attrs:  append(append([]slog.Attr(nil), h.attrs...), attrs...),
		groups: h.groups,
	}
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	return &consoleHandler{
		sink:   h.sink,
		attrs:  h.attrs,
		groups: append(append([]string(nil), h.groups...), name),
	}
}

type kv struct {
	key   string
	value slog.Value
}

// dedupeKVsByKey keeps the first position of each key and the last value written to it.
func dedupeKVsByKey(in []kv) []kv {
	out := make([]kv, 0, len(in))
	index := make(map[string]int, len(in))
	for _, field := range in {
		if field.key == "" {
			continue
		}
		if i, seen := index[field.key]; seen {
			out[i].value = field.value
			continue
		}
		index[field.key] = len(out)
		out = append(out, field)
	}
	return out
}

func flattenAttr(dst *[]kv, prefix []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	value := attr.Value.Resolve()
	path := prefix
	if attr.Key != "" {
		path = append(append([]string(nil), prefix...), attr.Key)
	}
	if value.Kind() == slog.KindGroup {
		for _, child := range value.Group() {
			flattenAttr(dst, path, child)
		}
		return
	}
	*dst = append(*dst, kv{key: strings.Join(path, "."), value: value})
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
