package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/blockwork-protocol/marketplace/src/utils/model"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"
)

// Postgres error code of unique constraint violation
const uniqueViolation = "23505"

// Keeps jobs in Postgres
type DBStore struct {
	db *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (self *DBStore) Create(ctx context.Context, job *model.Job) error {
	err := self.db.WithContext(ctx).Create(job).Error
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: job with external id %s already exists", model.ErrConflict, job.SmartContractJobId)
	}
	return err
}

func (self *DBStore) first(ctx context.Context, query string, arg interface{}) (*model.Job, error) {
	job := new(model.Job)
	err := self.db.WithContext(ctx).
		Where(query, arg).
		First(job).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: job %v", model.ErrNotFound, arg)
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (self *DBStore) Get(ctx context.Context, id string) (*model.Job, error) {
	return self.first(ctx, "id = ?", id)
}

func (self *DBStore) GetByExternalId(ctx context.Context, externalId string) (*model.Job, error) {
	return self.first(ctx, "smart_contract_job_id = ?", externalId)
}

func (self *DBStore) List(ctx context.Context, offset, limit int) (jobs []*model.Job, total int64, err error) {
	err = self.db.WithContext(ctx).
		Model(&model.Job{}).
		Count(&total).
		Error
	if err != nil {
		return
	}

	err = self.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&jobs).
		Error
	return
}

func (self *DBStore) ListByPoster(ctx context.Context, wallet string) (jobs []*model.Job, err error) {
	err = self.db.WithContext(ctx).
		Where("lower(poster_wallet) = lower(?)", wallet).
		Order("created_at ASC, id ASC").
		Find(&jobs).
		Error
	return
}

func (self *DBStore) ListByApplicant(ctx context.Context, wallet string) (jobs []*model.Job, err error) {
	err = self.db.WithContext(ctx).
		Where(`EXISTS (
			SELECT 1 FROM jsonb_array_elements(jobs.applications) AS a
			WHERE lower(a->>'applicantWallet') = lower(?)
		)`, wallet).
		Order("created_at ASC, id ASC").
		Find(&jobs).
		Error
	return
}

func (self *DBStore) ListUnsettled(ctx context.Context, afterId string, limit int) (jobs []*model.Job, err error) {
	err = self.db.WithContext(ctx).
		Where("status = ?", string(model.JobStatusOngoing)).
		Where("is_complete = ?", false).
		Where("id > ?", afterId).
		Order("id ASC").
		Limit(limit).
		Find(&jobs).
		Error
	return
}

func (self *DBStore) Update(ctx context.Context, job *model.Job, expectedVersion int64) error {
	result := self.db.WithContext(ctx).
		Model(&model.Job{}).
		Where("id = ? AND version = ?", job.Id, expectedVersion).
		Updates(map[string]interface{}{
			"status":                    string(job.Status),
			"is_complete":               job.IsComplete,
			"approved_applicant_wallet": job.ApprovedApplicantWallet,
			"applications":              job.Applications,
			"version":                   expectedVersion + 1,
			"updated_at":                job.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: job %s changed or removed", model.ErrConflict, job.Id)
	}

	job.Version = expectedVersion + 1
	return nil
}
