package conversations

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/blockwork-protocol/marketplace/src/utils/model"
)

type MemoryStore struct {
	mtx           sync.RWMutex
	conversations map[string]*model.Conversation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*model.Conversation),
	}
}

func (self *MemoryStore) Create(ctx context.Context, conversation *model.Conversation) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if _, ok := self.conversations[conversation.JobId]; ok {
		return fmt.Errorf("%w: conversation of job %s already exists", model.ErrConflict, conversation.JobId)
	}
	self.conversations[conversation.JobId] = conversation.Clone()
	return nil
}

func (self *MemoryStore) Get(ctx context.Context, jobId string) (*model.Conversation, error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	conversation, ok := self.conversations[jobId]
	if !ok {
		return nil, fmt.Errorf("%w: conversation of job %s", model.ErrNotFound, jobId)
	}
	return conversation.Clone(), nil
}

func (self *MemoryStore) Update(ctx context.Context, conversation *model.Conversation, expectedVersion int64) error {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	stored, ok := self.conversations[conversation.JobId]
	if !ok {
		return fmt.Errorf("%w: conversation of job %s", model.ErrNotFound, conversation.JobId)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: conversation of job %s has version %d, expected %d", model.ErrConflict, conversation.JobId, stored.Version, expectedVersion)
	}

	conversation.Version = expectedVersion + 1
	self.conversations[conversation.JobId] = conversation.Clone()
	return nil
}

func (self *MemoryStore) Summaries(ctx context.Context) ([]*model.ConversationSummary, error) {
	self.mtx.RLock()
	defer self.mtx.RUnlock()

	out := make([]*model.ConversationSummary, 0, len(self.conversations))
	for _, conversation := range self.conversations {
		out = append(out, &model.ConversationSummary{
			JobId:              conversation.JobId,
			LastMessageContent: conversation.LastMessageContent,
			LastMessageTime:    conversation.LastMessageTime,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].LastMessageTime.Equal(out[j].LastMessageTime) {
			return out[i].JobId < out[j].JobId
		}
		return out[i].LastMessageTime.After(out[j].LastMessageTime)
	})
	return out, nil
}
