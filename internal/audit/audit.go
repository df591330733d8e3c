// Package audit appends one CSV record per generate-execute attempt.
package audit

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

const header = "timestamp,question,sql_query,error,rows_returned,model_used,llm_time\n"

type Attempt struct {
	Timestamp time.Time
	Question  string
	SQL       string
	Error     string
	RowCount  int
	Model     string
	Latency   time.Duration
}

// FileLog is an open-once append log. The header is written only when the
// file is new or empty. Records are serialized by a mutex; the log is never
// written concurrently by design, the lock just keeps that an invariant.
type FileLog struct {
	mu   sync.Mutex
	file *os.File
}

func Open(path string) (*FileLog, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat audit log: %w", err)
	}
	if info.Size() == 0 {
		if _, err := file.WriteString(header); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("write audit header: %w", err)
		}
	}
	return &FileLog{file: file}, nil
}

func (l *FileLog) Record(attempt Attempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := attempt.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	line := fmt.Sprintf("%s,%s,%s,%s,%d,%s,%.2f\n",
		timestamp.Format(time.RFC3339),
		attempt.Question,
		escapeField(attempt.SQL),
		escapeField(attempt.Error),
		attempt.RowCount,
		attempt.Model,
		attempt.Latency.Seconds(),
	)
	if _, err := l.file.WriteString(line); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

func escapeField(value string) string {
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.ReplaceAll(value, ",", ";")
}
