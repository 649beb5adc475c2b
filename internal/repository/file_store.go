package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/digkill/PresetStore/internal/models"
)

type snapshot struct {
	Version      int
	Users        map[string]*models.User
	Transactions []models.Transaction
	Stock        []models.StockItem
	Settings     map[string]json.RawMessage
	UpdatedAt    time.Time
}

func emptySnapshot() *snapshot {
	return &snapshot{
		Version:  1,
		Users:    map[string]*models.User{},
		Settings: map[string]json.RawMessage{},
	}
}

// storedUser mirrors models.User with the password kept, since the public shape hides it.
type storedUser struct {
	Username  string      `json:"username"`
	Password  string      `json:"password"`
	Balance   int64       `json:"balance"`
	Role      models.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

// FileStore keeps the whole store in memory and, when a path is given, rewrites a JSON
// snapshot after every committed unit that wrote something. Read-write units are
// serialised by one lock; views share it.
type FileStore struct {
	mu   sync.RWMutex
	path string
	snap *snapshot
}

// OpenFileStore loads the snapshot at path, creating it when missing. An empty path
// yields a purely in-memory store.
func OpenFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, snap: emptySnapshot()}
	if path == "" {
		return s, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, s.flush(s.snap)
	case err != nil:
		return nil, fmt.Errorf("read store file: %w", err)
	case len(data) == 0:
		return s, nil
	}
	snap, err := decodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("decode store file: %w", err)
	}
	s.snap = snap
	return s, nil
}

func (s *FileStore) InTx(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work, err := cloneSnapshot(s.snap)
	if err != nil {
		return err
	}
	tx := &fileTx{snap: work}
	if err := fn(tx); err != nil {
		return err
	}
	if !tx.dirty {
		return nil
	}
	work.UpdatedAt = time.Now()
	if err := s.flush(work); err != nil {
		return err
	}
	s.snap = work
	return nil
}

// View runs fn directly against the committed snapshot. Committed snapshots are
// replaced, never mutated, so no clone is needed.
func (s *FileStore) View(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&fileTx{snap: s.snap, readOnly: true})
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) flush(snap *snapshot) error {
	if s.path == "" {
		return nil
	}
	data, err := encodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}

type snapshotFile struct {
	Version      int                        `json:"version"`
	Users        map[string]storedUser      `json:"users"`
	Transactions []models.Transaction       `json:"transactions"`
	Stock        []models.StockItem         `json:"stock"`
	Settings     map[string]json.RawMessage `json:"settings"`
	UpdatedAt    time.Time                  `json:"updated_at"`
}

func encodeSnapshot(snap *snapshot) ([]byte, error) {
	file := snapshotFile{
		Version:      snap.Version,
		Users:        make(map[string]storedUser, len(snap.Users)),
		Transactions: snap.Transactions,
		Stock:        snap.Stock,
		Settings:     snap.Settings,
		UpdatedAt:    snap.UpdatedAt,
	}
	for key, u := range snap.Users {
		file.Users[key] = storedUser{Username: u.Username, Password: u.Password, Balance: u.Balance, Role: u.Role, CreatedAt: u.CreatedAt}
	}
	return json.MarshalIndent(file, "", "  ")
}

func decodeSnapshot(data []byte) (*snapshot, error) {
	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	snap := emptySnapshot()
	snap.Version = file.Version
	snap.Transactions = file.Transactions
	snap.Stock = file.Stock
	snap.UpdatedAt = file.UpdatedAt
	for key, u := range file.Users {
		snap.Users[key] = &models.User{Username: u.Username, Password: u.Password, Balance: u.Balance, Role: u.Role, CreatedAt: u.CreatedAt}
	}
	for key, raw := range file.Settings {
		snap.Settings[key] = raw
	}
	return snap, nil
}

func cloneSnapshot(snap *snapshot) (*snapshot, error) {
	data, err := encodeSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("clone store: %w", err)
	}
	return decodeSnapshot(data)
}

type fileTx struct {
	snap     *snapshot
	readOnly bool
	dirty    bool
}

// write marks the unit as modified, or refuses when the unit is a view.
func (t *fileTx) write() error {
	if t.readOnly {
		return ErrReadOnly
	}
	t.dirty = true
	return nil
}

func (t *fileTx) GetUser(_ context.Context, username string) (*models.User, error) {
	u, ok := t.snap.Users[username]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (t *fileTx) CreateUser(_ context.Context, user *models.User) error {
	if err := t.write(); err != nil {
		return err
	}
	if _, exists := t.snap.Users[user.Username]; exists {
		return ErrDuplicate
	}
	cp := *user
	cp.Transactions = nil
	t.snap.Users[user.Username] = &cp
	return nil
}

func (t *fileTx) UpdateBalance(_ context.Context, username string, balance int64) error {
	if err := t.write(); err != nil {
		return err
	}
	u, ok := t.snap.Users[username]
	if !ok {
		return ErrNotFound
	}
	u.Balance = balance
	return nil
}

func (t *fileTx) InsertTransaction(_ context.Context, trx *models.Transaction) error {
	if err := t.write(); err != nil {
		return err
	}
	for _, existing := range t.snap.Transactions {
		if existing.ID == trx.ID {
			return ErrDuplicate
		}
	}
	t.snap.Transactions = append(t.snap.Transactions, *trx)
	return nil
}

func (t *fileTx) GetTransaction(_ context.Context, id string) (*models.Transaction, error) {
	for _, existing := range t.snap.Transactions {
		if existing.ID == id {
			cp := existing
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *fileTx) UpdateTransactionStatus(_ context.Context, id string, status models.TransactionStatus) error {
	if err := t.write(); err != nil {
		return err
	}
	for i := range t.snap.Transactions {
		if t.snap.Transactions[i].ID == id {
			t.snap.Transactions[i].Status = status
			return nil
		}
	}
	return ErrNotFound
}

func (t *fileTx) ListTransactions(_ context.Context, filter TransactionFilter) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, trx := range t.snap.Transactions {
		if filter.Match(trx) {
			out = append(out, trx)
		}
	}
	if filter.NewestFirst {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out, nil
}

func (t *fileTx) ListStock(_ context.Context) ([]models.StockItem, error) {
	out := make([]models.StockItem, len(t.snap.Stock))
	copy(out, t.snap.Stock)
	return out, nil
}

func (t *fileTx) RemoveStock(_ context.Context, email string) error {
	if err := t.write(); err != nil {
		return err
	}
	for i, item := range t.snap.Stock {
		if item.Email == email {
			t.snap.Stock = append(t.snap.Stock[:i:i], t.snap.Stock[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (t *fileTx) ReplaceStock(_ context.Context, items []models.StockItem) error {
	if err := t.write(); err != nil {
		return err
	}
	t.snap.Stock = make([]models.StockItem, len(items))
	copy(t.snap.Stock, items)
	return nil
}

func (t *fileTx) GetSetting(_ context.Context, name string, dst any) (bool, error) {
	raw, ok := t.snap.Settings[name]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode setting %s: %w", name, err)
	}
	return true, nil
}

func (t *fileTx) PutSetting(_ context.Context, name string, value any) error {
	if err := t.write(); err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode setting %s: %w", name, err)
	}
	t.snap.Settings[name] = raw
	return nil
}
