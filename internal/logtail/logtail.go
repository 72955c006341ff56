package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Entry is one decoded zap JSON log line.
type Entry struct {
	Time    time.Time
	Level   string
	Message string
	Fields  map[string]any
	// Raw holds the original line when it was not JSON.
	Raw string
}

// Read returns at most maxLines from the end of the file at path.
// A non-positive maxLines returns every line. A missing file is empty.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := range count {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Tail reads the last maxLines entries of a zap JSON log, dropping entries
// below minLevel. An empty minLevel keeps everything.
func Tail(path string, maxLines int, minLevel string) ([]Entry, error) {
	lines, err := Read(path, maxLines)
	if err != nil {
		return nil, err
	}
	floor := levelRank(minLevel)
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		e := Parse(line)
		if e.Raw == "" && levelRank(e.Level) < floor {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Parse decodes a zap JSON line. Lines that are not JSON come back with only Raw set.
func Parse(line string) Entry {
	var fields map[string]any
	if err := json.Unmarshal([]byte(line), &fields); err != nil {
		return Entry{Raw: line}
	}
	e := Entry{Fields: fields}
	if v, ok := fields["level"].(string); ok {
		e.Level = v
		delete(fields, "level")
	}
	if v, ok := fields["msg"].(string); ok {
		e.Message = v
		delete(fields, "msg")
	}
	if v, ok := fields["ts"].(string); ok {
		if ts, err := time.Parse("2006-01-02T15:04:05.000Z0700", v); err == nil {
			e.Time = ts
		} else if ts, err := time.Parse(time.RFC3339Nano, v); err == nil {
			e.Time = ts
		}
		delete(fields, "ts")
	}
	delete(fields, "caller")
	return e
}

// Format renders an entry as a single human-readable line.
func (e Entry) Format() string {
	if e.Raw != "" {
		return e.Raw
	}
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s %s", strings.ToUpper(e.Level), e.Message)

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%v", k, e.Fields[k])
	}
	return b.String()
}

func levelRank(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return 0
	case "", "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	default:
		return 4
	}
}
