// Package app is the composition root of the portal: it turns a Config
// into connected stores and started services for the commands in cmd/portal.
package app

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/loga-alumni/portal/internal/api/handler"
	"github.com/loga-alumni/portal/internal/core/domain"
	"github.com/loga-alumni/portal/internal/core/ports"
	"github.com/loga-alumni/portal/internal/infrastructure/changefeed"
	mongostore "github.com/loga-alumni/portal/internal/infrastructure/db/mongo"
	redisstore "github.com/loga-alumni/portal/internal/infrastructure/db/redis"
	"github.com/loga-alumni/portal/internal/infrastructure/memstore"
	"github.com/loga-alumni/portal/internal/pkg/config"
	"github.com/loga-alumni/portal/pkg/logger"
)

const (
	CollUsers     = "users"
	CollPayments  = "dues_payments"
	CollEvents    = "events"
	CollJobs      = "jobs"
	CollPosts     = "forum_posts"
	CollDonations = "donations"
)

// Stores holds one handle per collection plus the optional Redis helpers.
// Guard and Revoker stay nil without Redis.
type Stores struct {
	Notifier  ports.ChangeNotifier
	Accounts  ports.AccountRepository
	Users     ports.Collection[domain.Identity]
	Payments  ports.Collection[domain.DuesPayment]
	Events    ports.Collection[domain.Event]
	Jobs      ports.Collection[domain.JobPosting]
	Posts     ports.Collection[domain.ForumPost]
	Donations ports.Collection[domain.Donation]

	Guard     ports.ReferenceGuard
	Revoker   ports.TokenRevoker
	Readiness map[string]handler.Pinger

	closers []func(context.Context) error
}

// Close releases connections in reverse order of opening.
func (s *Stores) Close(ctx context.Context) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i](ctx)
	}
	s.closers = nil
}

// OpenStores connects the store driver selected by cfg.StoreDriver.
func OpenStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return openMemory(logger.Component(log, "memstore")), nil
	case config.DriverMongo:
		return openMongo(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func openMemory(log zerolog.Logger) *Stores {
	notifier := changefeed.NewLocalNotifier()
	stamped := func(field string) memstore.Options {
		return memstore.Options{StampField: field, Log: log}
	}
	donations := stamped("createdAt")
	donations.Unique = []string{"reference"}
	return &Stores{
		Notifier:  notifier,
		Accounts:  memstore.NewAccountRepository(),
		Users:     memstore.NewCollection[domain.Identity](CollUsers, notifier, memstore.Options{Log: log}),
		Payments:  memstore.NewCollection[domain.DuesPayment](CollPayments, notifier, memstore.Options{Unique: []string{"reference"}, Log: log}),
		Events:    memstore.NewCollection[domain.Event](CollEvents, notifier, stamped("createdAt")),
		Jobs:      memstore.NewCollection[domain.JobPosting](CollJobs, notifier, stamped("postedAt")),
		Posts:     memstore.NewCollection[domain.ForumPost](CollPosts, notifier, stamped("createdAt")),
		Donations: memstore.NewCollection[domain.Donation](CollDonations, notifier, donations),
		Readiness: map[string]handler.Pinger{},
	}
}

func openMongo(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Stores, error) {
	client, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "loga-portal",
	})
	if err != nil {
		return nil, err
	}
	s := &Stores{
		Readiness: map[string]handler.Pinger{
			"mongo": func(ctx context.Context) error { return client.Ping(ctx, nil) },
		},
		closers: []func(context.Context) error{client.Disconnect},
	}

	var notifier ports.ChangeNotifier = changefeed.NewLocalNotifier()
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			s.Close(ctx)
			return nil, err
		}
		s.closers = append(s.closers, func(context.Context) error { return rdb.Close() })
		s.Readiness["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
		notifier, s.Guard, s.Revoker = redisHelpers(rdb)
	} else {
		log.Warn().Msg("REDIS_ADDR not set, change fan-out is limited to this instance")
	}
	s.Notifier = notifier

	mlog := logger.Component(log, "mongo")
	users := mongostore.NewCollection[domain.Identity](db, CollUsers, notifier, mongostore.CollectionOptions{
		Indexes: []mongo.IndexModel{mongostore.OrderIndex("createdAt"), mongostore.FieldIndex("email")},
		Log:     mlog,
	})
	payments := mongostore.NewCollection[domain.DuesPayment](db, CollPayments, notifier, mongostore.CollectionOptions{
		Indexes: []mongo.IndexModel{mongostore.FieldIndex("userId"), mongostore.UniqueIndex("reference")},
		Log:     mlog,
	})
	events := mongostore.NewCollection[domain.Event](db, CollEvents, notifier, mongostore.CollectionOptions{
		StampField: "createdAt",
		Indexes:    []mongo.IndexModel{mongostore.OrderIndex("createdAt")},
		Log:        mlog,
	})
	jobs := mongostore.NewCollection[domain.JobPosting](db, CollJobs, notifier, mongostore.CollectionOptions{
		StampField: "postedAt",
		Indexes:    []mongo.IndexModel{mongostore.OrderIndex("postedAt")},
		Log:        mlog,
	})
	posts := mongostore.NewCollection[domain.ForumPost](db, CollPosts, notifier, mongostore.CollectionOptions{
		StampField: "createdAt",
		Indexes:    []mongo.IndexModel{mongostore.OrderIndex("createdAt")},
		Log:        mlog,
	})
	donations := mongostore.NewCollection[domain.Donation](db, CollDonations, notifier, mongostore.CollectionOptions{
		StampField: "createdAt",
		Indexes:    []mongo.IndexModel{mongostore.OrderIndex("createdAt"), mongostore.UniqueIndex("reference")},
		Log:        mlog,
	})
	accounts := mongostore.NewAccountRepository(db)

	for _, ix := range []interface {
		EnsureIndexes(context.Context) error
	}{accounts, users, payments, events, jobs, posts, donations} {
		if err := ix.EnsureIndexes(ctx); err != nil {
			s.Close(ctx)
			return nil, fmt.Errorf("ensure indexes: %w", err)
		}
	}

	s.Accounts = accounts
	s.Users = users
	s.Payments = payments
	s.Events = events
	s.Jobs = jobs
	s.Posts = posts
	s.Donations = donations
	return s, nil
}

func redisHelpers(rdb *goredis.Client) (ports.ChangeNotifier, ports.ReferenceGuard, ports.TokenRevoker) {
	return redisstore.NewChangeNotifier(rdb), redisstore.NewReferenceGuard(rdb), redisstore.NewTokenRevoker(rdb)
}
