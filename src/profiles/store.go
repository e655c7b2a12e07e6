package profiles

import (
	"context"

	"github.com/blockwork-protocol/marketplace/src/utils/model"
)

// Persistence of user profiles. Wallet addresses are matched case-insensitively.
type Store interface {
	// Fails with model.ErrConflict when the wallet already has a profile
	Create(ctx context.Context, user *model.User) error

	Get(ctx context.Context, wallet string) (*model.User, error)

	// Writes the profile only if the stored version equals expectedVersion, fails with model.ErrConflict otherwise
	Update(ctx context.Context, user *model.User, expectedVersion int64) error
}
