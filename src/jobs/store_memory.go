package jobs

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/blockwork-protocol/marketplace/src/utils/model"
)

// Keeps jobs in memory, used in development and tests
type MemoryStore struct {
	mtx        sync.RWMutex
	jobs       map[string]*model.Job
	order      []string
	byExternal map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:       make(map[string]*model.Job),
		byExternal: make(map[string]string),
	}
}

func (self *MemoryStore) Create(ctx context.Context, job *model.Job) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if _, ok := self.jobs[job.Id]; ok {
		return fmt.Errorf("%w: job %s already exists", model.ErrConflict, job.Id)
	}
	if _, ok := self.byExternal[job.SmartContractJobId]; ok {
		return fmt.Errorf("%w: job with external id %s already exists", model.ErrConflict, job.SmartContractJobId)
	}

	self.jobs[job.Id] = job.Clone()
	self.byExternal[job.SmartContractJobId] = job.Id
	self.order = append(self.order, job.Id)
	return nil
}

func (self *MemoryStore) Get(ctx context.Context, id string) (*model.Job, error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	job, ok := self.jobs[id]
	if !ok {
		return nil, fmt.Errorf("%w: job %s", model.ErrNotFound, id)
	}
	return job.Clone(), nil
}

func (self *MemoryStore) GetByExternalId(ctx context.Context, externalId string) (*model.Job, error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	id, ok := self.byExternal[externalId]
	if !ok {
		return nil, fmt.Errorf("%w: job with external id %s", model.ErrNotFound, externalId)
	}
	return self.jobs[id].Clone(), nil
}

func (self *MemoryStore) List(ctx context.Context, offset, limit int) ([]*model.Job, int64, error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	total := int64(len(self.order))
	if offset < 0 {
		offset = 0
	}
	out := make([]*model.Job, 0, limit)
	for i := offset; i < len(self.order) && len(out) < limit; i++ {
		out = append(out, self.jobs[self.order[i]].Clone())
	}
	return out, total, nil
}

func (self *MemoryStore) filter(f func(job *model.Job) bool) []*model.Job {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	out := make([]*model.Job, 0)
	for _, id := range self.order {
		if job := self.jobs[id]; f(job) {
			out = append(out, job.Clone())
		}
	}
	return out
}

func (self *MemoryStore) ListByPoster(ctx context.Context, wallet string) ([]*model.Job, error) {
	return self.filter(func(job *model.Job) bool {
		return strings.EqualFold(job.PosterWallet, wallet)
	}), nil
}

func (self *MemoryStore) ListByApplicant(ctx context.Context, wallet string) ([]*model.Job, error) {
	return self.filter(func(job *model.Job) bool {
		return job.FindApplicationByWallet(wallet) >= 0
	}), nil
}

func (self *MemoryStore) ListUnsettled(ctx context.Context, afterId string, limit int) ([]*model.Job, error) {
	out := self.filter(func(job *model.Job) bool {
		return job.Id > afterId && !job.IsFinalized()
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Id < out[j].Id })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (self *MemoryStore) Update(ctx context.Context, job *model.Job, expectedVersion int64) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	stored, ok := self.jobs[job.Id]
	if !ok {
		return fmt.Errorf("%w: job %s", model.ErrNotFound, job.Id)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: job %s has version %d, expected %d", model.ErrConflict, job.Id, stored.Version, expectedVersion)
	}

	job.Version = expectedVersion + 1
	self.jobs[job.Id] = job.Clone()
	return nil
}
