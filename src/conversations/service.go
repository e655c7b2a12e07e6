package conversations

import (
	"context"
	"errors"
	"strings"

	"github.com/blockwork-protocol/marketplace/src/utils/config"
	"github.com/blockwork-protocol/marketplace/src/utils/logger"
	"github.com/blockwork-protocol/marketplace/src/utils/model"
	"github.com/blockwork-protocol/marketplace/src/utils/monitoring"
	"github.com/blockwork-protocol/marketplace/src/utils/task"
	"github.com/blockwork-protocol/marketplace/src/utils/tool"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

// Looks up the display name and avatar of a wallet.
// Fails with model.ErrNotFound when the wallet has no profile.
type ProfileResolver interface {
	Resolve(ctx context.Context, wallet string) (username, avatar string, err error)
}

// Receives every persisted message
type Broadcaster interface {
	BroadcastMessage(message *model.Message)
}

// Per job message threads
type Service struct {
	config *config.Config
	log    *logrus.Entry

	store       Store
	profiles    ProfileResolver
	broadcaster Broadcaster
	monitor     monitoring.Monitor
	clock       tool.Clock
}

type NewMessage struct {
	JobId        string
	SenderWallet string
	Content      string
	Attachment   string
}

func NewService(config *config.Config) (self *Service) {
	self = new(Service)
	self.config = config
	self.log = logger.NewSublogger("conversations")
	self.clock = tool.RealClock{}
	return
}

func (self *Service) WithStore(v Store) *Service {
	self.store = v
	return self
}

func (self *Service) WithProfiles(v ProfileResolver) *Service {
	self.profiles = v
	return self
}

// Persisted messages are broadcast only when Gateway.BroadcastPersisted is set
func (self *Service) WithBroadcaster(v Broadcaster) *Service {
	self.broadcaster = v
	return self
}

func (self *Service) WithMonitor(v monitoring.Monitor) *Service {
	self.monitor = v
	return self
}

func (self *Service) WithClock(v tool.Clock) *Service {
	self.clock = v
	return self
}

func distinct(wallets []string) (out []string) {
	for _, w := range wallets {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		seen := false
		for _, o := range out {
			if strings.EqualFold(o, w) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, w)
		}
	}
	return
}

// Returns the job's conversation making sure every participant is in it. Creates it if needed.
func (self *Service) Ensure(ctx context.Context, jobId string, participants ...string) (conversation *model.Conversation, err error) {
	participants = distinct(participants)
	if strings.TrimSpace(jobId) == "" || len(participants) == 0 {
		return nil, model.ErrInvalidArgument
	}

	err = self.retry(ctx, func() error {
		current, err := self.store.Get(ctx, jobId)
		if errors.Is(err, model.ErrNotFound) {
			now := self.clock.Now()
			current = &model.Conversation{
				JobId:              jobId,
				Participants:       participants,
				Messages:           model.JSONList[model.Message]{},
				LastMessageContent: model.ConversationCreatedContent,
				LastMessageTime:    now,
				CreatedAt:          now,
				UpdatedAt:          now,
			}
			err = self.store.Create(ctx, current)
			if err != nil {
				return err
			}
			self.monitor.GetReport().Conversations.State.ConversationsCreated.Inc()
			self.log.WithField("job_id", jobId).Info("Conversation created")
			conversation = current
			return nil
		}
		if err != nil {
			return err
		}

		version := current.Version
		changed := false
		for _, p := range participants {
			if !current.HasParticipant(p) {
				current.Participants = append(current.Participants, p)
				changed = true
			}
		}

		if changed {
			current.UpdatedAt = self.clock.Now()
			err = self.store.Update(ctx, current, version)
			if err != nil {
				return err
			}
		}

		conversation = current
		return nil
	})
	return
}

// Persists the message in the job's conversation, creating the conversation if needed
func (self *Service) Send(ctx context.Context, in *NewMessage) (message *model.Message, err error) {
	err = model.NewValidator("Message must have content or an attachment").
		Required(in.JobId, "jobId").
		Required(in.SenderWallet, "senderWallet").
		Check(strings.TrimSpace(in.Content) != "" || strings.TrimSpace(in.Attachment) != "", "content").
		Err()
	if err != nil {
		return
	}

	username, avatar, err := self.resolve(ctx, in.SenderWallet, self.config.Marketplace.RequireSenderProfile)
	if err != nil {
		return
	}

	err = self.retry(ctx, func() error {
		current, err := self.store.Get(ctx, in.JobId)
		create := errors.Is(err, model.ErrNotFound)
		if create {
			current = &model.Conversation{
				JobId:        in.JobId,
				Participants: []string{in.SenderWallet},
				Messages:     model.JSONList[model.Message]{},
				CreatedAt:    self.clock.Now(),
			}
		} else if err != nil {
			return err
		}

		version := current.Version
		next := model.Message{
			Seq:          1,
			JobId:        in.JobId,
			SenderWallet: in.SenderWallet,
			Content:      in.Content,
			Attachment:   in.Attachment,
			Username:     username,
			Avatar:       avatar,
			Timestamp:    self.clock.Now(),
		}
		if n := len(current.Messages); n > 0 {
			last := current.Messages[n-1]
			next.Seq = last.Seq + 1
			if next.Timestamp.Before(last.Timestamp) {
				next.Timestamp = last.Timestamp
			}
		}

		current.Messages = append(current.Messages, next)
		current.LastMessageContent = next.Content
		current.LastMessageTime = next.Timestamp
		current.UpdatedAt = next.Timestamp

		if create {
			err = self.store.Create(ctx, current)
			if err == nil {
				self.monitor.GetReport().Conversations.State.ConversationsCreated.Inc()
			}
		} else {
			err = self.store.Update(ctx, current, version)
		}
		if err != nil {
			return err
		}

		message = &next
		return nil
	})
	if err != nil {
		return
	}

	self.monitor.GetReport().Conversations.State.MessagesPersisted.Inc()

	if self.config.Gateway.BroadcastPersisted && self.broadcaster != nil {
		self.broadcaster.BroadcastMessage(message)
	}
	return
}

// All messages of the job's conversation in display order
func (self *Service) Messages(ctx context.Context, jobId string) (out []model.Message, err error) {
	if strings.TrimSpace(jobId) == "" {
		return nil, model.ErrInvalidArgument
	}

	conversation, err := self.store.Get(ctx, jobId)
	if err != nil {
		self.countError(err)
		return
	}

	out = conversation.SortedMessages()
	if !self.config.Marketplace.ResolveSenderOnRead {
		return
	}

	type identity struct{ username, avatar string }
	cache := make(map[string]identity)
	for i := range out {
		key := strings.ToLower(out[i].SenderWallet)
		id, ok := cache[key]
		if !ok {
			id.username, id.avatar, err = self.resolve(ctx, out[i].SenderWallet, false)
			if err != nil {
				return nil, err
			}
			cache[key] = id
		}
		out[i].Username = id.username
		out[i].Avatar = id.avatar
	}
	return
}

func (self *Service) Summaries(ctx context.Context) (out []*model.ConversationSummary, err error) {
	out, err = self.store.Summaries(ctx)
	self.countError(err)
	return
}

// Current display name and avatar of the wallet, defaults for wallets without profile unless the profile is required
func (self *Service) resolve(ctx context.Context, wallet string, required bool) (username, avatar string, err error) {
	username = self.config.Marketplace.DefaultDisplayName
	avatar = self.config.Marketplace.DefaultAvatar
	if self.profiles == nil {
		return
	}

	name, picture, err := self.profiles.Resolve(ctx, wallet)
	if errors.Is(err, model.ErrNotFound) && !required {
		return username, avatar, nil
	}
	if err != nil {
		return "", "", err
	}

	if name != "" {
		username = name
	}
	if picture != "" {
		avatar = picture
	}
	return
}

func (self *Service) retry(ctx context.Context, f func() error) error {
	err := task.NewRetry().
		WithContext(ctx).
		WithInitialInterval(self.config.Marketplace.ConflictInitialInterval).
		WithMaxInterval(self.config.Marketplace.ConflictMaxInterval).
		WithMaxElapsedTime(self.config.Marketplace.ConflictMaxElapsedTime).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			if !errors.Is(err, model.ErrConflict) {
				return backoff.Permanent(err)
			}
			self.monitor.GetReport().Conversations.State.ConflictRetries.Inc()
			return err
		}).
		Run(f)
	self.countError(err)
	return err
}

func (self *Service) countError(err error) {
	if err == nil ||
		errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrInvalidArgument) ||
		errors.Is(err, model.ErrValidation) ||
		errors.Is(err, model.ErrConflict) ||
		errors.Is(err, context.Canceled) {
		return
	}
	self.monitor.GetReport().Conversations.Errors.DbError.Inc()
	self.log.WithError(err).Error("Conversation store failure")
}
