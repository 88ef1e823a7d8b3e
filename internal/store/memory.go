package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"coursehub/internal/model"
)

// Memory is an in-process notification repository. With a StateFile it keeps
// an atomically replaced JSON snapshot on disk and reloads it on start.
type Memory struct {
	mu            sync.RWMutex
	notifications []model.Notification

	stateFile string
	persistMu sync.Mutex
	log       *zap.Logger
}

type Options struct {
	StateFile string
	Logger    *zap.Logger
}

func NewMemory() *Memory {
	m, _ := NewMemoryWithOptions(Options{})
	return m
}

func NewMemoryWithOptions(opts Options) (*Memory, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Memory{stateFile: opts.StateFile, log: logger}

	if m.stateFile != "" {
		if err := m.loadFromFile(m.stateFile); err != nil {
			return nil, dbError("load state", err)
		}
		m.log.Info("notifications loaded", zap.String("file", m.stateFile), zap.Int("count", len(m.notifications)))
	}
	return m, nil
}

type persistedFile struct {
	Version       int                  `json:"version"`
	Notifications []model.Notification `json:"notifications"`
	SavedAt       int64                `json:"savedAt"`
}

func (m *Memory) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if len(data) == 0 {
		return nil
	}

	var file persistedFile
	if err := json.Unmarshal(data, &file); err != nil {
		return err
	}
	if file.Version != 1 {
		return errors.New("unsupported notifications state version")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range file.Notifications {
		if n.ID == uuid.Nil || n.Title == "" {
			continue
		}
		m.notifications = append(m.notifications, n)
	}
	return nil
}

func (m *Memory) Insert(ctx context.Context, n model.Notification) (model.Notification, error) {
	if err := ctx.Err(); err != nil {
		return model.Notification{}, dbError("insert notification", err)
	}

	// Snapshots are taken and written under persistMu so the file never goes
	// back in time when inserts race.
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	m.notifications = append(m.notifications, n)
	var snapshot []model.Notification
	if m.stateFile != "" {
		snapshot = append(snapshot, m.notifications...)
	}
	m.mu.Unlock()

	if err := m.writeFile(snapshot); err != nil {
		m.remove(n.ID)
		return model.Notification{}, dbError("insert notification", err)
	}
	return n, nil
}

func (m *Memory) remove(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.notifications {
		if m.notifications[i].ID == id {
			m.notifications = append(m.notifications[:i], m.notifications[i+1:]...)
			return
		}
	}
}

// List returns the notifications visible to userID, newest first.
func (m *Memory) List(ctx context.Context, userID string, offset, limit int) (model.Page, error) {
	if err := ctx.Err(); err != nil {
		return model.Page{}, dbError("list notifications", err)
	}
	offset, limit = NormalizePage(offset, limit)

	m.mu.RLock()
	visible := make([]model.Notification, 0, len(m.notifications))
	for i := len(m.notifications) - 1; i >= 0; i-- {
		if n := m.notifications[i]; n.VisibleTo(userID) {
			visible = append(visible, n)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(visible, func(i, j int) bool { return visible[i].CreatedAt.After(visible[j].CreatedAt) })

	page := model.Page{Items: []model.Notification{}, Total: int64(len(visible)), Offset: offset, Limit: limit}
	if offset < len(visible) {
		end := offset + limit
		if end > len(visible) {
			end = len(visible)
		}
		page.Items = visible[offset:end]
	}
	return page, nil
}

func (m *Memory) Count(ctx context.Context, userID string) (int64, error) {
	page, err := m.List(ctx, userID, 0, 1)
	if err != nil {
		return 0, err
	}
	return page.Total, nil
}

func (m *Memory) writeFile(notifications []model.Notification) error {
	path := m.stateFile
	if path == "" {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	file := persistedFile{Version: 1, Notifications: notifications, SavedAt: time.Now().UnixMilli()}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
