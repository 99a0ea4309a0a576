package audit

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"emperror.dev/errors"

	"portfolio/api/models"
)

// Store persists audit entries and replays them in write order.
type Store interface {
	Append(entry models.AuditEntry) error
	Scan(fn func(models.AuditEntry)) error
}

const maxLineSize = 1 << 20

// FileStore keeps one JSON object per line in an append-only file. There is no rotation.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Append(entry models.AuditEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "failed to encode audit entry")
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapIf(err, "failed to create audit log directory")
		}
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.WrapIf(err, "failed to open audit log")
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.WrapIf(err, "failed to write audit log")
	}

	return errors.WrapIf(f.Close(), "failed to close audit log")
}

// Scan calls fn for every decodable line. A missing file has no entries; malformed lines are skipped.
func (s *FileStore) Scan(fn func(models.AuditEntry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.WrapIf(err, "failed to open audit log")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry models.AuditEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		fn(entry)
	}

	return errors.WrapIf(scanner.Err(), "failed to read audit log")
}
