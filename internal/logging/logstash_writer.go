package logging

import (
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

// LogstashConfig tunes a LogstashWriter. Zero durations take the defaults.
type LogstashConfig struct {
	Addr         string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
	// Cooldown is how long the writer discards entries after a failed dial
	// or write before it reconnects.
	Cooldown time.Duration
}

func (c LogstashConfig) withDefaults() LogstashConfig {
	if c.DialTimeout <= 0 {
		c.DialTimeout = 2 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = time.Second
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 5 * time.Second
	}
	return c
}

// LogstashWriter is a zapcore.WriteSyncer that ships one JSON entry per line
// to a Logstash TCP input. Entries written while the input is unreachable
// are counted and discarded.
type LogstashWriter struct {
	cfg  LogstashConfig
	dial func(network, addr string, timeout time.Duration) (net.Conn, error)
	now  func() time.Time

	mu      sync.Mutex
	conn    net.Conn
	retryAt time.Time
	dropped uint64
	closed  bool
}

func NewLogstashWriter(cfg LogstashConfig) (*LogstashWriter, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	if cfg.Addr == "" {
		return nil, errors.New("logstash: address is required")
	}
	return &LogstashWriter{
		cfg:  cfg.withDefaults(),
		dial: net.DialTimeout,
		now:  time.Now,
	}, nil
}

func (w *LogstashWriter) Write(entry []byte) (int, error) {
	if len(entry) == 0 {
		return 0, nil
	}
	line := terminated(entry)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return 0, io.ErrClosedPipe
	}
	if !w.send(line) {
		w.dropped++
	}
	return len(entry), nil
}

// send reports whether line reached the socket. Callers hold mu.
func (w *LogstashWriter) send(line []byte) bool {
	if w.conn == nil {
		if w.now().Before(w.retryAt) {
			return false
		}
		conn, err := w.dial("tcp", w.cfg.Addr, w.cfg.DialTimeout)
		if err != nil {
			w.retryAt = w.now().Add(w.cfg.Cooldown)
			return false
		}
		w.conn = conn
	}

	_ = w.conn.SetWriteDeadline(w.now().Add(w.cfg.WriteTimeout))
	if _, err := w.conn.Write(line); err != nil {
		_ = w.conn.Close()
		w.conn = nil
		w.retryAt = w.now().Add(w.cfg.Cooldown)
		return false
	}
	return true
}

func (w *LogstashWriter) Sync() error {
	return nil
}

func (w *LogstashWriter) Dropped() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dropped
}

func (w *LogstashWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	return err
}

// terminated returns entry with a trailing newline, copying only when one
// has to be added.
func terminated(entry []byte) []byte {
	if entry[len(entry)-1] == '\n' {
		return entry
	}
	line := make([]byte, len(entry)+1)
	copy(line, entry)
	line[len(entry)] = '\n'
	return line
}
