package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sweepDeskApp/internal/domain/model"
	"sweepDeskApp/internal/domain/repository"
)

// RedisWalletStore implements the WalletStore interface using Redis as the
// backend. Wallet creation order is kept in a per-session list key; each
// wallet is a JSON value under its own key. All mutations write through
// synchronously, so a sweep outcome is visible to the next read.
type RedisWalletStore struct {
	client *redis.Client
}

func NewRedisWalletStore(addr, password string, db int) *RedisWalletStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisWalletStore{client: client}
}

// Ensure RedisWalletStore implements the WalletStore interface
var _ repository.WalletStore = (*RedisWalletStore)(nil)

// Ping checks connectivity, used by bootstrap to decide on the fallback store.
func (r *RedisWalletStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func vaultKey(sessionID string) string { return fmt.Sprintf("session:%s:vault", sessionID) }
func orderKey(sessionID string) string { return fmt.Sprintf("session:%s:order", sessionID) }
func walletKey(sessionID, address string) string {
	return fmt.Sprintf("session:%s:wallet:%s", sessionID, address)
}

func (r *RedisWalletStore) RegisterSession(ctx context.Context, sessionID, vault string) error {
	return r.client.Set(ctx, vaultKey(sessionID), vault, 0).Err()
}

func (r *RedisWalletStore) Vault(ctx context.Context, sessionID string) (string, error) {
	vault, err := r.client.Get(ctx, vaultKey(sessionID)).Result()
	if err != nil {
		if err == redis.Nil {
			return "", fmt.Errorf("session %s: %w", sessionID, model.ErrNotFound)
		}
		return "", fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}
	return vault, nil
}

func (r *RedisWalletStore) List(ctx context.Context, sessionID string) ([]model.EphemeralWallet, error) {
	if _, err := r.Vault(ctx, sessionID); err != nil {
		return nil, err
	}

	addresses, err := r.client.LRange(ctx, orderKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}
	if len(addresses) == 0 {
		return []model.EphemeralWallet{}, nil
	}

	// Fetch all wallets in a pipeline for efficiency
	pipe := r.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(addresses))
	for i, addr := range addresses {
		cmds[i] = pipe.Get(ctx, walletKey(sessionID, addr))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}

	result := make([]model.EphemeralWallet, 0, len(addresses))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			continue // Skip missing keys
		}
		var w model.EphemeralWallet
		if err := json.Unmarshal([]byte(data), &w); err != nil {
			continue // Skip malformed data
		}
		result = append(result, w)
	}
	return result, nil
}

func (r *RedisWalletStore) Get(ctx context.Context, sessionID, address string) (*model.EphemeralWallet, error) {
	data, err := r.client.Get(ctx, walletKey(sessionID, address)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("wallet %s: %w", address, model.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}

	var w model.EphemeralWallet
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet: %w", err)
	}
	return &w, nil
}

func (r *RedisWalletStore) PutWallet(ctx context.Context, sessionID string, wallet model.EphemeralWallet) error {
	key := walletKey(sessionID, wallet.Address)

	exists, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}

	data, err := json.Marshal(&wallet)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %w", err)
	}
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}

	// Append to the order list only on first insert
	if exists == 0 {
		if err := r.client.RPush(ctx, orderKey(sessionID), wallet.Address).Err(); err != nil {
			return fmt.Errorf("%w: %v", model.ErrUnavailable, err)
		}
	}
	return nil
}

func (r *RedisWalletStore) MarkSwept(ctx context.Context, sessionID, address string) error {
	return r.update(ctx, sessionID, address, func(w *model.EphemeralWallet) {
		now := time.Now().UTC()
		w.Status = model.WalletSwept
		w.Balance = 0
		w.SweepAttempts++
		w.LastSweepAttempt = &now
		w.SweepError = ""
	})
}

func (r *RedisWalletStore) RecordFailure(ctx context.Context, sessionID, address, errMsg string) error {
	return r.update(ctx, sessionID, address, func(w *model.EphemeralWallet) {
		now := time.Now().UTC()
		w.SweepAttempts++
		w.LastSweepAttempt = &now
		w.SweepError = errMsg
	})
}

func (r *RedisWalletStore) update(ctx context.Context, sessionID, address string, apply func(*model.EphemeralWallet)) error {
	w, err := r.Get(ctx, sessionID, address)
	if err != nil {
		return err
	}
	apply(w)

	data, err := json.Marshal(w)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet: %w", err)
	}
	if err := r.client.Set(ctx, walletKey(sessionID, address), data, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", model.ErrUnavailable, err)
	}
	return nil
}
