// Package log persists session activity as hourly-rotated,
// zstd-compressed JSONL files: one stream for chat/mission log events,
// one for fleet telemetry samples.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"fleetmind.ai/internal/protocol"
)

type JSONLZstdWriter struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

func NewJSONLZstdWriter(baseDir, prefix string) *JSONLZstdWriter {
	return &JSONLZstdWriter{baseDir: baseDir, prefix: prefix}
}

func (w *JSONLZstdWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *JSONLZstdWriter) Write(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

func (w *JSONLZstdWriter) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	return nil
}

func (w *JSONLZstdWriter) closeLocked() error {
	var err1 error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err1 = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return err1
}

// EventEntry is one persisted session log event.
type EventEntry struct {
	TS    string            `json:"ts"`
	Room  string            `json:"room"`
	Event protocol.LogEvent `json:"event"`
}

// TelemetrySample is one persisted fleet health sample.
type TelemetrySample struct {
	TS         string  `json:"ts"`
	Room       string  `json:"room"`
	Robots     int     `json:"robots"`
	AvgBattery float64 `json:"avg_battery"`
}

// EventLogger writes session log events (compressed JSONL).
type EventLogger struct{ w *JSONLZstdWriter }

func NewEventLogger(dataDir, room string) *EventLogger {
	return &EventLogger{w: NewJSONLZstdWriter(filepath.Join(dataDir, "rooms", room, "events"), "events")}
}

func (l *EventLogger) WriteEvent(room string, ev protocol.LogEvent) error {
	return l.w.Write(EventEntry{TS: time.Now().UTC().Format(time.RFC3339Nano), Room: room, Event: ev})
}
func (l *EventLogger) Close() error { return l.w.Close() }

// TelemetryLogger writes fleet telemetry samples (compressed JSONL).
type TelemetryLogger struct{ w *JSONLZstdWriter }

func NewTelemetryLogger(dataDir, room string) *TelemetryLogger {
	return &TelemetryLogger{w: NewJSONLZstdWriter(filepath.Join(dataDir, "rooms", room, "telemetry"), "telemetry")}
}

func (l *TelemetryLogger) WriteSample(s TelemetrySample) error { return l.w.Write(s) }
func (l *TelemetryLogger) Close() error                        { return l.w.Close() }
