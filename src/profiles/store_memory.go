package profiles

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blockwork-protocol/marketplace/src/utils/model"
)

type MemoryStore struct {
	mtx   sync.RWMutex
	users map[string]*model.User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*model.User),
	}
}

func key(wallet string) string {
	return strings.ToLower(wallet)
}

func (self *MemoryStore) Create(ctx context.Context, user *model.User) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if _, ok := self.users[key(user.WalletAddress)]; ok {
		return fmt.Errorf("%w: user %s already exists", model.ErrConflict, user.WalletAddress)
	}
	self.users[key(user.WalletAddress)] = user.Clone()
	return nil
}

func (self *MemoryStore) Get(ctx context.Context, wallet string) (*model.User, error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	user, ok := self.users[key(wallet)]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", model.ErrNotFound, wallet)
	}
	return user.Clone(), nil
}

func (self *MemoryStore) Update(ctx context.Context, user *model.User, expectedVersion int64) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	stored, ok := self.users[key(user.WalletAddress)]
	if !ok {
		return fmt.Errorf("%w: user %s", model.ErrNotFound, user.WalletAddress)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: user %s has version %d, expected %d", model.ErrConflict, user.WalletAddress, stored.Version, expectedVersion)
	}

	user.Version = expectedVersion + 1
	self.users[key(user.WalletAddress)] = user.Clone()
	return nil
}
