package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"sweepDeskApp/internal/domain/model"
	"sweepDeskApp/internal/domain/repository"
)

// MemoryWalletStore is a simple in-memory implementation of WalletStore for
// demo/testing and as a fallback when Redis is unavailable. Wallet creation
// order is preserved per session.
type MemoryWalletStore struct {
	mu      sync.RWMutex
	vaults  map[string]string
	wallets map[string][]model.EphemeralWallet
}

func NewMemoryWalletStore() *MemoryWalletStore {
	return &MemoryWalletStore{
		vaults:  make(map[string]string),
		wallets: make(map[string][]model.EphemeralWallet),
	}
}

// Ensure MemoryWalletStore implements the WalletStore interface
var _ repository.WalletStore = (*MemoryWalletStore)(nil)

func (s *MemoryWalletStore) RegisterSession(ctx context.Context, sessionID, vault string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vaults[sessionID] = vault
	if _, exists := s.wallets[sessionID]; !exists {
		s.wallets[sessionID] = make([]model.EphemeralWallet, 0)
	}
	return nil
}

func (s *MemoryWalletStore) Vault(ctx context.Context, sessionID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vault, ok := s.vaults[sessionID]
	if !ok {
		return "", fmt.Errorf("session %s: %w", sessionID, model.ErrNotFound)
	}
	return vault, nil
}

func (s *MemoryWalletStore) List(ctx context.Context, sessionID string) ([]model.EphemeralWallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, ok := s.wallets[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, model.ErrNotFound)
	}
	// Return copies to prevent external modification
	out := make([]model.EphemeralWallet, len(list))
	copy(out, list)
	return out, nil
}

func (s *MemoryWalletStore) Get(ctx context.Context, sessionID, address string) (*model.EphemeralWallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list, ok := s.wallets[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, model.ErrNotFound)
	}
	for i := range list {
		if list[i].Address == address {
			w := list[i]
			return &w, nil
		}
	}
	return nil, fmt.Errorf("wallet %s: %w", address, model.ErrNotFound)
}

func (s *MemoryWalletStore) PutWallet(ctx context.Context, sessionID string, wallet model.EphemeralWallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vaults[sessionID]; !ok {
		return fmt.Errorf("session %s: %w", sessionID, model.ErrNotFound)
	}
	list := s.wallets[sessionID]
	for i := range list {
		if list[i].Address == wallet.Address {
			list[i] = wallet
			return nil
		}
	}
	s.wallets[sessionID] = append(list, wallet)
	return nil
}

func (s *MemoryWalletStore) MarkSwept(ctx context.Context, sessionID, address string) error {
	return s.update(sessionID, address, func(w *model.EphemeralWallet) {
		now := time.Now().UTC()
		w.Status = model.WalletSwept
		w.Balance = 0
		w.SweepAttempts++
		w.LastSweepAttempt = &now
		w.SweepError = ""
	})
}

func (s *MemoryWalletStore) RecordFailure(ctx context.Context, sessionID, address, errMsg string) error {
	return s.update(sessionID, address, func(w *model.EphemeralWallet) {
		now := time.Now().UTC()
		w.SweepAttempts++
		w.LastSweepAttempt = &now
		w.SweepError = errMsg
	})
}

func (s *MemoryWalletStore) update(sessionID, address string, apply func(*model.EphemeralWallet)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.wallets[sessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, model.ErrNotFound)
	}
	for i := range list {
		if list[i].Address == address {
			apply(&list[i])
			return nil
		}
	}
	return fmt.Errorf("wallet %s: %w", address, model.ErrNotFound)
}
