package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/hanzi/internal/config"
	"github.com/example/hanzi/internal/content"
	"github.com/example/hanzi/internal/database"
	"github.com/example/hanzi/internal/logger"
	"github.com/example/hanzi/internal/quiz"
	"github.com/example/hanzi/internal/scheduler"
	"go.uber.org/zap"
)

// App wires the stores, the content library and the quiz engine on top of a
// single database handle.
type App struct {
	Config     *config.Config
	Log        *zap.Logger
	Store      *database.Store
	Library    *content.Library
	Users      *database.UserRepository
	Progress   *database.UserProgressRepository
	Statistics *database.StatisticsRepository
	Results    *database.QuizResultRepository
	Quiz       *quiz.Engine
}

// Option configures the App
type Option func(*options)

type options struct {
	store []database.Option
	quiz  []quiz.Option
}

// WithStoreOptions passes options to database.Open
func WithStoreOptions(opts ...database.Option) Option {
	return func(o *options) { o.store = append(o.store, opts...) }
}

// WithQuizOptions passes options to quiz.NewEngine
func WithQuizOptions(opts ...quiz.Option) Option {
	return func(o *options) { o.quiz = append(o.quiz, opts...) }
}

// New opens the store described by cfg and builds the App
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	log = logger.OrNop(log)
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	storeOpts := append([]database.Option{database.WithLogger(log.Named("database"))}, o.store...)
	store, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.DSN, storeOpts...)
	if err != nil {
		return nil, err
	}

	log.Info("store ready", zap.String("driver", store.DriverName()))

	a := &App{
		Config:     cfg,
		Log:        log,
		Store:      store,
		Library:    content.NewLibrary(store, log),
		Users:      database.NewUserRepository(store),
		Progress:   database.NewUserProgressRepository(store),
		Statistics: database.NewStatisticsRepository(store),
		Results:    database.NewQuizResultRepository(store),
	}

	quizOpts := append([]quiz.Option{
		quiz.WithRecorder(a.Results),
		quiz.WithLogger(log.Named("quiz")),
	}, o.quiz...)
	a.Quiz = quiz.NewEngine(a.Progress, a.Library, quizOpts...)

	return a, nil
}

// Close releases the database handle
func (a *App) Close() error {
	return a.Store.Close()
}

// Initialize loads rows (the built-in dataset when rows is nil) and promotes
// the configured admin user if that user exists.
func (a *App) Initialize(ctx context.Context, rows []content.Row) (content.LoadResult, error) {
	if rows == nil {
		rows = content.DefaultDataset()
	}

	result, err := a.Library.EnsureLoaded(ctx, rows)
	if err != nil {
		return result, err
	}

	if name := a.Config.Admin.Username; name != "" {
		if err := a.Users.PromoteToAdmin(ctx, name); err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				return result, fmt.Errorf("failed to promote %s: %w", name, err)
			}
			a.Log.Warn("admin user not registered yet", zap.String("username", name))
		}
	}
	return result, nil
}

// NewScheduler returns the viewed count audit scheduler for this App
func (a *App) NewScheduler() *scheduler.Scheduler {
	return scheduler.New(a.Progress, a.Config.Audit.Interval, a.Log)
}

// UserByName resolves a username to a user id
func (a *App) UserByName(ctx context.Context, username string) (int64, error) {
	user, err := a.Users.GetByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	return user.ID, nil
}
