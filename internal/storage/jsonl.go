package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gridScope/internal/model"
)

// JsonlStorage appends snapshots and transaction records to JSONL files.
// An empty path disables that stream.
type JsonlStorage struct {
	snapshotPath string
	txPath       string
	mu           sync.Mutex
}

func NewJsonlStorage(snapshotPath, txPath string) *JsonlStorage {
	return &JsonlStorage{snapshotPath: snapshotPath, txPath: txPath}
}

// PutSnapshot appends one snapshot line.
func (s *JsonlStorage) PutSnapshot(_ context.Context, snap model.Snapshot) error {
	return s.appendLine(s.snapshotPath, snap)
}

// PutTxRecord appends one transaction line.
func (s *JsonlStorage) PutTxRecord(_ context.Context, rec model.TxRecord) error {
	return s.appendLine(s.txPath, rec)
}

func (s *JsonlStorage) appendLine(path string, value interface{}) error {
	if path == "" {
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	line, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if _, err := writer.Write(line); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
