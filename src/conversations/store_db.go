package conversations

import (
	"context"
	"errors"
	"fmt"

	"github.com/blockwork-protocol/marketplace/src/utils/model"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"
)

// Keeps conversations in Postgres
type DBStore struct {
	db *gorm.DB
}

func NewDBStore(db *gorm.DB) *DBStore {
	return &DBStore{db: db}
}

func (self *DBStore) Create(ctx context.Context, conversation *model.Conversation) error {
	err := self.db.WithContext(ctx).Create(conversation).Error
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: conversation of job %s already exists", model.ErrConflict, conversation.JobId)
	}
	return err
}

func (self *DBStore) Get(ctx context.Context, jobId string) (*model.Conversation, error) {
	conversation := new(model.Conversation)
	err := self.db.WithContext(ctx).
		Where("job_id = ?", jobId).
		First(conversation).
		Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: conversation of job %s", model.ErrNotFound, jobId)
	}
	if err != nil {
		return nil, err
	}
	return conversation, nil
}

func (self *DBStore) Update(ctx context.Context, conversation *model.Conversation, expectedVersion int64) error {
	result := self.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Where("job_id = ? AND version = ?", conversation.JobId, expectedVersion).
		Updates(map[string]interface{}{
			"participants":         conversation.Participants,
			"messages":             conversation.Messages,
			"last_message_content": conversation.LastMessageContent,
			"last_message_time":    conversation.LastMessageTime,
			"version":              expectedVersion + 1,
			"updated_at":           conversation.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: conversation of job %s changed or removed", model.ErrConflict, conversation.JobId)
	}

	conversation.Version = expectedVersion + 1
	return nil
}

func (self *DBStore) Summaries(ctx context.Context) (out []*model.ConversationSummary, err error) {
	err = self.db.WithContext(ctx).
		Model(&model.Conversation{}).
		Select("job_id", "last_message_content", "last_message_time").
		Order("last_message_time DESC, job_id ASC").
		Find(&out).
		Error
	return
}
