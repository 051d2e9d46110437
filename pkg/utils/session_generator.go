package utils

import (
	"math/rand"

	"github.com/google/uuid"

	"sweepDeskApp/internal/domain/model"
)

// SessionGenerator provides methods to generate demo session and wallet data
type SessionGenerator struct{}

// NewSessionGenerator creates a new session generator
func NewSessionGenerator() *SessionGenerator {
	return &SessionGenerator{}
}

// GenerateSession creates one demo session with a vault address.
func (g *SessionGenerator) GenerateSession() (model.Session, string) {
	session := model.Session{
		ID:      uuid.New().String(),
		Status:  model.SessionActive,
		Balance: 0.002 + rand.Float64()*0.05,
	}
	vault := "vault-" + uuid.New().String()
	return session, vault
}

// GenerateWallets creates demo ephemeral wallets with mixed states: some
// funded, some idle, some already swept.
func (g *SessionGenerator) GenerateWallets(count int) []model.EphemeralWallet {
	wallets := make([]model.EphemeralWallet, count)
	for i := 0; i < count; i++ {
		w := model.EphemeralWallet{
			Address: uuid.New().String(),
			Status:  model.WalletFunded,
			Balance: rand.Float64() * 0.1,
		}
		switch i % 3 {
		case 1:
			w.Status = model.WalletIdle
			w.Balance = 0
		case 2:
			w.Status = model.WalletSwept
			w.Balance = 0
			w.SweepAttempts = 1
		}
		wallets[i] = w
	}
	return wallets
}
