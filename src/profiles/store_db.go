package profiles

import (
	"context"
	"errors"
	"fmt"

	"github.com/blockwork-protocol/marketplace/src/utils/model"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"
)

// Keeps profiles in Postgres
type DBStore struct {
	db *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func (self *DBStore) Create(ctx context.Context, user *model.User) error {
	err := self.db.WithContext(ctx).Create(user).Error
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: user %s already exists", model.ErrConflict, user.WalletAddress)
	}
	return err
}

func (self *DBStore) Get(ctx context.Context, wallet string) (*model.User, error) {
	user := new(model.User)
	err := self.db.WithContext(ctx).
		Where("lower(wallet_address) = lower(?)", wallet).
		First(user).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %s", model.ErrNotFound, wallet)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (self *DBStore) Update(ctx context.Context, user *model.User, expectedVersion int64) error {
	result := self.db.WithContext(ctx).
		Model(&model.User{}).
		Where("wallet_address = ? AND version = ?", user.WalletAddress, expectedVersion).
		Updates(map[string]interface{}{
			"user_name":       user.UserName,
			"avatar":          user.Avatar,
			"resume":          user.Resume,
			"age":             user.Age,
			"location":        user.Location,
			"gender":          string(user.Gender),
			"hourly_rate":     user.HourlyRate,
			"bio":             user.Bio,
			"job_title":       user.JobTitle,
			"job_description": user.JobDescription,
			"skills":          user.Skills,
			"portfolio":       user.Portfolio,
			"work_history":    user.WorkHistory,
			"languages":       user.Languages,
			"education":       user.Education,
			"version":         expectedVersion + 1,
			"updated_at":      user.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: user %s changed or removed", model.ErrConflict, user.WalletAddress)
	}

	user.Version = expectedVersion + 1
	return nil
}
