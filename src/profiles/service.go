package profiles

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
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// User profiles and the display identity lookup used by conversations
type Service struct {
	config *config.Config
	log    *logrus.Entry

	store   Store
	monitor monitoring.Monitor
	clock   tool.Clock
	ids     tool.IDGenerator

	// Wallet -> identity
	identities *cache.Cache
}

type identity struct {
	username string
	avatar   string
}

func NewService(config *config.Config) (self *Service) {
	self = new(Service)
	self.config = config
	self.log = logger.NewSublogger("profiles")
	self.clock = tool.RealClock{}
	self.ids = tool.XidGenerator{}
	self.identities = cache.New(config.Marketplace.ProfileCacheTTL, 2*config.Marketplace.ProfileCacheTTL)
	return
}

func (self *Service) WithStore(v Store) *Service {
	self.store = v
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

func (self *Service) WithIDGenerator(v tool.IDGenerator) *Service {
	self.ids = v
	return self
}

// Returns the wallet's profile, creates an empty one on first use
func (self *Service) CreateOrGet(ctx context.Context, wallet string) (user *model.User, err error) {
	wallet = strings.TrimSpace(wallet)
	err = model.NewValidator("Wallet address is required").Required(wallet, "walletAddress").Err()
	if err != nil {
		return
	}

	user, err = self.store.Get(ctx, wallet)
	if !errors.Is(err, model.ErrNotFound) {
		self.countError(err)
		return
	}

	now := self.clock.Now()
	user = &model.User{
		WalletAddress: wallet,
		Id:            self.ids.New(),
		Gender:        model.GenderOther,
		Portfolio:     model.JSONList[model.PortfolioEntry]{},
		WorkHistory:   model.JSONList[model.WorkHistoryEntry]{},
		Languages:     model.JSONList[model.Language]{},
		Education:     model.JSONList[model.Education]{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err = self.store.Create(ctx, user)
	if errors.Is(err, model.ErrConflict) {
		// Created in the meantime
		return self.store.Get(ctx, wallet)
	}
	if err != nil {
		self.countError(err)
		return nil, err
	}

	self.monitor.GetReport().Profiles.State.ProfilesCreated.Inc()
	self.log.WithField("wallet", wallet).Info("Profile created")
	return
}

func (self *Service) Get(ctx context.Context, wallet string) (*model.User, error) {
	if strings.TrimSpace(wallet) == "" {
		return nil, model.NewValidationError("Wallet address is required", "walletAddress")
	}
	user, err := self.store.Get(ctx, wallet)
	self.countError(err)
	return user, err
}

// Display name and avatar of the wallet, cached
func (self *Service) Resolve(ctx context.Context, wallet string) (username, avatar string, err error) {
	key := strings.ToLower(wallet)
	if v, ok := self.identities.Get(key); ok {
		self.monitor.GetReport().Profiles.State.CacheHits.Inc()
		id := v.(identity)
		return id.username, id.avatar, nil
	}
	self.monitor.GetReport().Profiles.State.CacheMisses.Inc()

	user, err := self.store.Get(ctx, wallet)
	if err != nil {
		self.countError(err)
		return
	}

	self.identities.Set(key, identity{username: user.UserName, avatar: user.Avatar}, cache.DefaultExpiration)
	return user.UserName, user.Avatar, nil
}

func (self *Service) UpdateName(ctx context.Context, wallet, name string) (*model.User, error) {
	err := model.NewValidator("Wallet address and username are required").
		Required(wallet, "walletAddress").
		Required(name, "userName").
		Err()
	if err != nil {
		return nil, err
	}
	return self.update(ctx, wallet, func(user *model.User) {
		user.UserName = strings.TrimSpace(name)
	})
}

// Avatar is an opaque reference, uploads are handled elsewhere
func (self *Service) UpdateAvatar(ctx context.Context, wallet, avatar string) (*model.User, error) {
	err := model.NewValidator("Wallet address and avatar data are required").
		Required(wallet, "walletAddress").
		Required(avatar, "avatarData").
		Err()
	if err != nil {
		return nil, err
	}
	return self.update(ctx, wallet, func(user *model.User) {
		user.Avatar = avatar
	})
}

func (self *Service) UpdateRate(ctx context.Context, wallet string, rate *float64) (*model.User, error) {
	err := model.NewValidator("Wallet address and hourly rate are required").
		Required(wallet, "walletAddress").
		Check(rate != nil && *rate >= 0, "hourlyRate").
		Err()
	if err != nil {
		return nil, err
	}
	return self.update(ctx, wallet, func(user *model.User) {
		v := *rate
		user.HourlyRate = &v
	})
}

func (self *Service) UpdateJob(ctx context.Context, wallet, title, description string) (*model.User, error) {
	err := model.NewValidator("Wallet address and job title are required").
		Required(wallet, "walletAddress").
		Required(title, "jobTitle").
		Err()
	if err != nil {
		return nil, err
	}
	return self.update(ctx, wallet, func(user *model.User) {
		user.JobTitle = title
		user.JobDescription = description
	})
}

func (self *Service) UpdateJobDescription(ctx context.Context, wallet, description string) (*model.User, error) {
	err := model.NewValidator("Wallet address and job description are required").
		Required(wallet, "walletAddress").
		Required(description, "jobDescription").
		Err()
	if err != nil {
		return nil, err
	}
	return self.update(ctx, wallet, func(user *model.User) {
		user.JobDescription = description
	})
}

func (self *Service) UpdateBio(ctx context.Context, wallet, bio string) (*model.User, error) {
	err := model.NewValidator("Wallet address and bio are required").
		Required(wallet, "walletAddress").
		Required(bio, "bio").
		Err()
	if err != nil {
		return nil, err
	}
	return self.update(ctx, wallet, func(user *model.User) {
		user.Bio = bio
	})
}

func (self *Service) UpdateSkills(ctx context.Context, wallet string, skills []string) (*model.User, error) {
	err := model.NewValidator("Wallet address is required").
		Required(wallet, "walletAddress").
		Err()
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return self.update(ctx, wallet, func(user *model.User) {
		user.Skills = out
	})
}

// Replaces the list of languages
func (self *Service) UpdateLanguage(ctx context.Context, wallet string, language model.Language) (*model.User, error) {
	err := model.NewValidator("Wallet address, language, and proficiency are required").
		Required(wallet, "walletAddress").
		Required(language.Language, "language").
		Required(language.Proficiency, "proficiency").
		Err()
	if err != nil {
		return nil, err
	}
	return self.update(ctx, wallet, func(user *model.User) {
		user.Languages = model.JSONList[model.Language]{language}
	})
}

// Replaces the list of education entries
func (self *Service) UpdateEducation(ctx context.Context, wallet string, education model.Education) (*model.User, error) {
	err := model.NewValidator("Wallet address, school, and degree are required").
		Required(wallet, "walletAddress").
		Required(education.School, "school").
		Required(education.Degree, "degree").
		Err()
	if err != nil {
		return nil, err
	}
	return self.update(ctx, wallet, func(user *model.User) {
		user.Education = model.JSONList[model.Education]{education}
	})
}

// Updates the entry with the same title, company and start date, appends a new one otherwise
func (self *Service) UpsertWorkHistory(ctx context.Context, wallet string, entry model.WorkHistoryEntry) (*model.User, error) {
	err := model.NewValidator("Wallet address, job title, company, and start date are required").
		Required(wallet, "walletAddress").
		Required(entry.JobTitle, "jobTitle").
		Required(entry.Company, "company").
		Check(!entry.StartDate.IsZero(), "startDate").
		Err()
	if err != nil {
		return nil, err
	}

	id := self.ids.New()
	return self.update(ctx, wallet, func(user *model.User) {
		for i := range user.WorkHistory {
			existing := &user.WorkHistory[i]
			if existing.JobTitle == entry.JobTitle &&
				existing.Company == entry.Company &&
				existing.StartDate.Equal(entry.StartDate) {
				if entry.EndDate != nil {
					existing.EndDate = entry.EndDate
				}
				if entry.Description != "" {
					existing.Description = entry.Description
				}
				return
			}
		}
		entry.Id = id
		user.WorkHistory = append(user.WorkHistory, entry)
	})
}

func (self *Service) DeleteWorkHistory(ctx context.Context, wallet, id string) (*model.User, error) {
	err := model.NewValidator("Wallet address and work history ID are required").
		Required(wallet, "walletAddress").
		Required(id, "workHistoryId").
		Err()
	if err != nil {
		return nil, err
	}
	return self.update(ctx, wallet, func(user *model.User) {
		out := user.WorkHistory[:0]
		for _, e := range user.WorkHistory {
			if e.Id != id {
				out = append(out, e)
			}
		}
		user.WorkHistory = out
	})
}

func (self *Service) AddPortfolio(ctx context.Context, wallet string, entry model.PortfolioEntry) (*model.User, error) {
	err := model.NewValidator("All fields are required").
		Required(wallet, "walletAddress").
		Required(entry.Title, "title").
		Required(entry.Description, "description").
		Check(len(entry.Skills) > 0, "skills").
		Required(entry.Content, "content").
		Err()
	if err != nil {
		return nil, err
	}

	entry.Id = self.ids.New()
	return self.update(ctx, wallet, func(user *model.User) {
		user.Portfolio = append(user.Portfolio, entry)
	})
}

func (self *Service) DeletePortfolio(ctx context.Context, wallet, id string) (*model.User, error) {
	err := model.NewValidator("Wallet address and portfolio item ID are required").
		Required(wallet, "walletAddress").
		Required(id, "portfolioId").
		Err()
	if err != nil {
		return nil, err
	}
	return self.update(ctx, wallet, func(user *model.User) {
		out := user.Portfolio[:0]
		for _, e := range user.Portfolio {
			if e.Id != id {
				out = append(out, e)
			}
		}
		user.Portfolio = out
	})
}

// Applies a field level change under optimistic concurrency and drops the cached identity
func (self *Service) update(ctx context.Context, wallet string, apply func(user *model.User)) (user *model.User, err error) {
	err = task.NewRetry().
		WithContext(ctx).
		WithInitialInterval(self.config.Marketplace.ConflictInitialInterval).
		WithMaxInterval(self.config.Marketplace.ConflictMaxInterval).
		WithMaxElapsedTime(self.config.Marketplace.ConflictMaxElapsedTime).
		WithOnError(func(err error, isDurationAcceptable bool) error {
			if !errors.Is(err, model.ErrConflict) {
				return backoff.Permanent(err)
			}
			return err
		}).
		Run(func() error {
			current, err := self.store.Get(ctx, wallet)
			if err != nil {
				return err
			}

			version := current.Version
			apply(current)
			current.UpdatedAt = self.clock.Now()

			err = self.store.Update(ctx, current, version)
			if err != nil {
				return err
			}

			user = current
			return nil
		})

	// Invalidated even on failure
	self.identities.Delete(strings.ToLower(wallet))

	if err != nil {
		self.countError(err)
		return nil, err
	}

	self.monitor.GetReport().Profiles.State.ProfilesUpdated.Inc()
	return
}

func (self *Service) countError(err error) {
	if err == nil ||
		errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrValidation) ||
		errors.Is(err, model.ErrConflict) ||
		errors.Is(err, context.Canceled) {
		return
	}
	self.monitor.GetReport().Profiles.Errors.DbError.Inc()
	self.log.WithError(err).Error("Profile store failure")
}
