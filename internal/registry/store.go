package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"syscall"
	"time"
)

const (
	lockTimeout = 5 * time.Second
	fileMode    = 0644
	dirMode     = 0755
)

// registryFile represents the on-disk registry format.
type registryFile struct {
	Version   int        `json:"version"`
	Instances []Instance `json:"instances"`
}

type jsonStore struct {
	path string
	mu   sync.RWMutex
}

// NewStore creates a new JSON-backed registry store.
func NewStore(path string) *jsonStore {
	return &jsonStore{path: path}
}

func (s *jsonStore) Get(ctx context.Context, name string) (*Instance, error) {
	var result *Instance

	err := s.withSharedLock(ctx, func(rf *registryFile) error {
		for i := range rf.Instances {
			if rf.Instances[i].Name == name {
				inst := rf.Instances[i]
				result = &inst
				return nil
			}
		}
		return ErrNotFound
	})

	return result, err
}

func (s *jsonStore) Upsert(ctx context.Context, inst Instance) error {
	return s.withExclusiveLock(ctx, func(rf *registryFile) error {
		for i := range rf.Instances {
			if rf.Instances[i].Name == inst.Name {
				rf.Instances[i] = inst
				return nil
			}
		}
		rf.Instances = append(rf.Instances, inst)
		return nil
	})
}

func (s *jsonStore) Remove(ctx context.Context, name string) error {
	return s.withExclusiveLock(ctx, func(rf *registryFile) error {
		for i := range rf.Instances {
			if rf.Instances[i].Name == name {
				rf.Instances = append(rf.Instances[:i], rf.Instances[i+1:]...)
				return nil
			}
		}
		return ErrNotFound
	})
}

func (s *jsonStore) List(ctx context.Context) ([]Instance, error) {
	var result []Instance

	err := s.withSharedLock(ctx, func(rf *registryFile) error {
		result = append(result, rf.Instances...)
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result, nil
}

// withSharedLock executes fn with a shared (read) lock.
func (s *jsonStore) withSharedLock(ctx context.Context, fn func(*registryFile) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rf, file, err := s.openAndLock(ctx, false)
	if err != nil {
		return err
	}
	defer s.unlockAndClose(file)

	return fn(rf)
}

// withExclusiveLock executes fn with an exclusive (write) lock.
// Changes made by fn are persisted to disk.
func (s *jsonStore) withExclusiveLock(ctx context.Context, fn func(*registryFile) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rf, file, err := s.openAndLock(ctx, true)
	if err != nil {
		return err
	}
	defer s.unlockAndClose(file)

	if err := fn(rf); err != nil {
		return err
	}

	return s.save(rf)
}

// openAndLock opens the registry file and acquires a lock.
func (s *jsonStore) openAndLock(ctx context.Context, exclusive bool) (*registryFile, *os.File, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(s.path), dirMode); err != nil {
		return nil, nil, fmt.Errorf("create registry directory: %w", err)
	}

	// Open or create file
	file, err := os.OpenFile(s.path, os.O_RDWR|os.O_CREATE, fileMode)
	if err != nil {
		return nil, nil, fmt.Errorf("open registry file: %w", err)
	}

	lockType := syscall.LOCK_SH
	if exclusive {
		lockType = syscall.LOCK_EX
	}

	if err := s.acquireLock(ctx, file, lockType); err != nil {
		file.Close()
		return nil, nil, err
	}

	rf, err := s.load(file)
	if err != nil {
		s.unlockAndClose(file)
		return nil, nil, err
	}

	return rf, file, nil
}

// acquireLock attempts to acquire a file lock with timeout.
func (s *jsonStore) acquireLock(ctx context.Context, file *os.File, lockType int) error {
	deadline := time.Now().Add(lockTimeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Try non-blocking lock
		err := syscall.Flock(int(file.Fd()), lockType|syscall.LOCK_NB)
		if err == nil {
			return nil
		}

		if err != syscall.EWOULDBLOCK {
			return fmt.Errorf("acquire file lock: %w", err)
		}

		if time.Now().After(deadline) {
			return ErrLockTimeout
		}

		time.Sleep(10 * time.Millisecond)
	}
}

// unlockAndClose releases the lock and closes the file.
func (s *jsonStore) unlockAndClose(file *os.File) {
	syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
	file.Close()
}

// load reads and parses the registry file.
func (s *jsonStore) load(file *os.File) (*registryFile, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat registry file: %w", err)
	}

	// Empty file - return default
	if info.Size() == 0 {
		return &registryFile{Version: 1, Instances: []Instance{}}, nil
	}

	if _, err := file.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("seek registry file: %w", err)
	}

	var rf registryFile
	if err := json.NewDecoder(file).Decode(&rf); err != nil {
		return nil, fmt.Errorf("decode registry file: %w", err)
	}

	return &rf, nil
}

// save writes the registry to disk atomically.
func (s *jsonStore) save(rf *registryFile) error {
	rf.Version = 1

	// Write to temp file
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "registry-*.json.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	// Clean up on error
	defer func() {
		if tmpPath != "" {
			os.Remove(tmpPath)
		}
	}()

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(rf); err != nil {
		tmp.Close()
		return fmt.Errorf("encode registry: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("rename registry file: %w", err)
	}

	tmpPath = "" // Prevent cleanup
	return nil
}
