package node

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// journal is an append-only JSONL file. Rows written before a restart
// come back from openJournal so the owner can replay them.
type journal[T any] struct {
	mu   sync.Mutex
	path string
}

func openJournal[T any](path string) ([]T, *journal[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("node: journal dir: %w", err)
	}
	j := &journal[T]{path: path}
	rows, err := j.load()
	if err != nil {
		return nil, nil, err
	}
	return rows, j, nil
}

func (j *journal[T]) load() ([]T, error) {
	f, err := os.Open(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("node: open journal %s: %w", j.path, err)
	}
	defer f.Close()

	var rows []T
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var row T
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("node: journal %s: %w", j.path, err)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("node: read journal %s: %w", j.path, err)
	}
	return rows, nil
}

// Append persists one row.
func (j *journal[T]) Append(row T) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	data, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("node: marshal journal row: %w", err)
	}
	f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("node: open journal %s: %w", j.path, err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("node: write journal %s: %w", j.path, err)
	}
	return nil
}
