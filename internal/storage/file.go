package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "fxnewsbot/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.notices.jsonl  (append-only JSON Lines, replayed on open)
//   - <prefix>.suppress.jsonl (append-only journal, compacted periodically)
//
// Notices are tiny (a few hundred per day at most), so an append-only log
// with full replay on open is plenty.
type fileStore struct {
	log logx.Logger

	mu sync.Mutex

	noticesFile  *os.File
	notices      map[string]int64 // key -> unix milli
	suppressPath string
	suppressFile *os.File
	suppress     map[string]int64 // key -> unix milli (expiry)

	suppressWrites int
}

type noticeRecord struct {
	Key string `json:"key"`
	At  int64  `json:"at"`
}

type suppressRecord struct {
	Key   string `json:"key"`
	Until int64  `json:"until"`
}

const suppressCompactEvery = 200

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	dir := filepath.Dir(path)
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(filepath.Base(path)))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	noticesPath := prefix + ".notices.jsonl"
	suppressPath := prefix + ".suppress.jsonl"

	notices := map[string]int64{}
	if err := replayJSONL(noticesPath, func(line []byte) {
		var r noticeRecord
		if json.Unmarshal(line, &r) == nil && r.Key != "" {
			notices[r.Key] = r.At
		}
	}); err != nil {
		return nil, err
	}

	suppress := map[string]int64{}
	if err := replayJSONL(suppressPath, func(line []byte) {
		var r suppressRecord
		if json.Unmarshal(line, &r) == nil && r.Key != "" {
			suppress[r.Key] = r.Until
		}
	}); err != nil {
		return nil, err
	}
	pruneExpired(suppress)

	nf, err := os.OpenFile(noticesPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	sf, err := os.OpenFile(suppressPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		_ = nf.Close()
		return nil, err
	}

	return &fileStore{
		log:          log,
		noticesFile:  nf,
		notices:      notices,
		suppressPath: suppressPath,
		suppressFile: sf,
		suppress:     suppress,
	}, nil
}

func replayJSONL(path string, apply func(line []byte)) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		apply([]byte(line))
	}
	return sc.Err()
}

func pruneExpired(m map[string]int64) {
	now := time.Now().UnixMilli()
	for k, until := range m {
		if until < now {
			delete(m, k)
		}
	}
}

func (s *fileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var err1, err2 error
	if s.noticesFile != nil {
		err1 = s.noticesFile.Close()
		s.noticesFile = nil
	}
	if s.suppressFile != nil {
		err2 = s.suppressFile.Close()
		s.suppressFile = nil
	}
	if err1 != nil {
		return err1
	}
	return err2
}

func (s *fileStore) PutNotice(ctx context.Context, key string, at time.Time) error {
	_ = ctx
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.noticesFile == nil {
		return errors.New("notices file closed")
	}
	if _, ok := s.notices[key]; ok {
		return nil
	}
	rec := noticeRecord{Key: key, At: at.UnixMilli()}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := s.noticesFile.Write(append(b, '\n')); err != nil {
		return err
	}
	s.notices[key] = rec.At
	return nil
}

func (s *fileStore) ListNotices(ctx context.Context) ([]string, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.notices))
	for k := range s.notices {
		out = append(out, k)
	}
	return out, nil
}

func (s *fileStore) PutSuppress(ctx context.Context, key string, until time.Time) error {
	_ = ctx
	if key == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.suppressFile == nil {
		return errors.New("suppress file closed")
	}
	rec := suppressRecord{Key: key, Until: until.UnixMilli()}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if _, err := s.suppressFile.Write(append(b, '\n')); err != nil {
		return err
	}
	s.suppress[key] = rec.Until

	s.suppressWrites++
	if s.suppressWrites >= suppressCompactEvery {
		s.suppressWrites = 0
		if err := s.compactSuppressLocked(); err != nil {
			s.log.Warn("suppress journal compaction failed", logx.Err(err))
		}
	}
	return nil
}

func (s *fileStore) GetSuppress(ctx context.Context, key string) (time.Time, bool, error) {
	_ = ctx
	s.mu.Lock()
	until, ok := s.suppress[key]
	s.mu.Unlock()
	if !ok {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(until), true, nil
}

// compactSuppressLocked rewrites the journal with only the live entries.
func (s *fileStore) compactSuppressLocked() error {
	pruneExpired(s.suppress)

	tmp := s.suppressPath + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	for k, until := range s.suppress {
		if err := enc.Encode(suppressRecord{Key: k, Until: until}); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return err
		}
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	if s.suppressFile != nil {
		_ = s.suppressFile.Close()
		s.suppressFile = nil
	}
	if err := os.Rename(tmp, s.suppressPath); err != nil {
		return err
	}
	nf, err := os.OpenFile(s.suppressPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	s.suppressFile = nf
	return nil
}
