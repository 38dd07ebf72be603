package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/i474232898/weather-session/internal/common"
)

const fileMode = 0o644

// FileStore keeps preferences in a JSON object file. Writes are atomic
// (temp file, fsync, rename). With Watch enabled, writes made by other
// processes are picked up and re-emitted to subscribers.
type FileStore struct {
	path string
	log  *zap.SugaredLogger

	// mu serializes writes and reloads; values mirrors the file contents.
	mu     sync.Mutex
	values map[string]string

	hub *common.Broadcaster[City]

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
}

var _ Store = (*FileStore)(nil)

// NewFileStore opens the store at path, creating the parent directory when
// needed. An unreadable or corrupt file is logged and treated as empty.
func NewFileStore(path string, log *zap.SugaredLogger) (*FileStore, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &StorageError{Op: "open", Path: path, Err: err}
	}

	values, err := readValues(path)
	if err != nil {
		log.Warnw("preference file unreadable, starting empty", "path", path, "error", err)
		values = map[string]string{}
	}

	return &FileStore{
		path:   path,
		log:    log,
		values: values,
		hub:    common.NewBroadcaster(cityFrom(values)),
	}, nil
}

// Path returns the preference file location.
func (s *FileStore) Path() string {
	return s.path
}

// ObserveCity subscribes to city changes.
func (s *FileStore) ObserveCity(ctx context.Context) <-chan City {
	return s.hub.Subscribe(ctx)
}

// SaveCity persists the city and notifies subscribers, even when the value is
// unchanged.
func (s *FileStore) SaveCity(ctx context.Context, city string) error {
	if err := ctx.Err(); err != nil {
		return &StorageError{Op: "save", Path: s.path, Err: err}
	}
	city = strings.TrimSpace(city)
	if city == "" {
		return ErrEmptyCity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]string, len(s.values)+1)
	for k, v := range s.values {
		next[k] = v
	}
	next[KeyCity] = city

	if err := writeValues(s.path, next); err != nil {
		return &StorageError{Op: "save", Path: s.path, Err: err}
	}
	s.values = next

	// Published under mu so concurrent saves reach subscribers in file order.
	s.hub.Publish(City{Name: city, Valid: true})
	return nil
}

// Reload re-reads the file and emits the city if it changed since the last
// read or write. On a read error the last known value is kept.
func (s *FileStore) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := readValues(s.path)
	if err != nil {
		return &StorageError{Op: "reload", Path: s.path, Err: err}
	}

	prev, next := cityFrom(s.values), cityFrom(values)
	s.values = values
	if prev != next {
		s.log.Infow("preference file changed externally", "path", s.path, "city", next.Name, "present", next.Valid)
		s.hub.Publish(next)
	}
	return nil
}

// Watch starts an fsnotify watch on the file's directory. Call Close to stop it.
func (s *FileStore) Watch() error {
	if s.watcher != nil {
		return errors.New("preference store is already watched")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return &StorageError{Op: "watch", Path: s.path, Err: err}
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return &StorageError{Op: "watch", Path: s.path, Err: err}
	}

	s.watcher = watcher
	s.done = make(chan struct{})
	s.wg.Add(1)
	go s.watchLoop()
	return nil
}

func (s *FileStore) watchLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != s.path {
				continue
			}
			if err := s.Reload(); err != nil {
				s.log.Warnw("preference reload failed", "path", s.path, "op", ev.Op.String(), "error", err)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warnw("preference watcher error", "path", s.path, "error", err)
		}
	}
}

// Close stops the watcher, if any.
func (s *FileStore) Close() error {
	if s.watcher == nil {
		return nil
	}
	close(s.done)
	err := s.watcher.Close()
	s.wg.Wait()
	s.watcher = nil
	return err
}

func readValues(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	values := map[string]string{}
	if len(strings.TrimSpace(string(data))) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}

func writeValues(path string, values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}

	tmpFile := path + ".tmp"
	file, err := os.OpenFile(tmpFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fileMode)
	if err != nil {
		return err
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, path)
}
