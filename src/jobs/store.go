package jobs

import (
	"context"

	"github.com/blockwork-protocol/marketplace/src/utils/model"
)

// Persistence of jobs. Lookups by wallet are case-insensitive.
type Store interface {
	// Fails with model.ErrConflict when the external id is already taken
	Create(ctx context.Context, job *model.Job) error

	Get(ctx context.Context, id string) (*model.Job, error)
	GetByExternalId(ctx context.Context, externalId string) (*model.Job, error)

	// Jobs in creation order and the total number of jobs
	List(ctx context.Context, offset, limit int) ([]*model.Job, int64, error)
	ListByPoster(ctx context.Context, wallet string) ([]*model.Job, error)
	ListByApplicant(ctx context.Context, wallet string) ([]*model.Job, error)

	// Ongoing, not completed jobs with id greater than afterId, ordered by id
	ListUnsettled(ctx context.Context, afterId string, limit int) ([]*model.Job, error)

	// Writes the job only if the stored version equals expectedVersion, fails with model.ErrConflict otherwise.
	// On success job.Version is incremented.
	Update(ctx context.Context, job *model.Job, expectedVersion int64) error
}
