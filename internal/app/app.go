// Package app assembles CemTemBot from configuration and hands it to the
// core runner.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/cemtembot/core/bootstrap"
	"github.com/m3rciful/cemtembot/core/cmd"
	"github.com/m3rciful/cemtembot/core/logger"
	coretelegram "github.com/m3rciful/cemtembot/core/telegram"
	"github.com/m3rciful/cemtembot/core/telegram/sender"
	"github.com/m3rciful/cemtembot/internal/config"
	"github.com/m3rciful/cemtembot/internal/conversation"
	"github.com/m3rciful/cemtembot/internal/domain"
	"github.com/m3rciful/cemtembot/internal/events"
	"github.com/m3rciful/cemtembot/internal/ids"
	"github.com/m3rciful/cemtembot/internal/matcher"
	"github.com/m3rciful/cemtembot/internal/messenger"
	"github.com/m3rciful/cemtembot/internal/quote"
	"github.com/m3rciful/cemtembot/internal/relay"
	"github.com/m3rciful/cemtembot/internal/router"
	"github.com/m3rciful/cemtembot/internal/session"
	"github.com/m3rciful/cemtembot/internal/storage"
	"github.com/m3rciful/cemtembot/internal/tgbot"
	"github.com/m3rciful/cemtembot/internal/web"
)

// App owns every long-lived component of a running bot.
type App struct {
	cfg *config.Config

	db       *sqlx.DB
	rdb      *redis.Client
	store    storage.Storage
	events   events.Publisher
	bot      *tele.Bot
	disp     *sender.Dispatcher
	registry *coretelegram.Registry
	handlers *tgbot.Handlers
	router   *router.Router
	web      *web.Server
	janitor  *session.Janitor

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Bootstrap is the cmd.Options hook: logger, database, bot, then assembly.
func Bootstrap(c cmd.ConfigCarrier) (cmd.TelegramApp, error) {
	cfg, ok := c.(*config.Config)
	if !ok {
		return nil, fmt.Errorf("app: unexpected config type %T", c)
	}
	res, err := bootstrap.Run(bootstrap.Options{
		Config:       &cfg.Config,
		Database:     cfg.Database,
		SkipDatabase: cfg.Storage.Driver != config.StoragePostgres,
	})
	if err != nil {
		return nil, err
	}
	bot, err := coretelegram.NewBot(&cfg.Config)
	if err != nil {
		if res.DB != nil {
			_ = res.DB.Close()
		}
		return nil, err
	}
	return New(cfg, bot, res.DB)
}

// New assembles the app on an existing bot. db is required by the postgres
// storage driver and ignored otherwise.
func New(cfg *config.Config, bot *tele.Bot, db *sqlx.DB) (*App, error) {
	if cfg == nil || bot == nil {
		return nil, errors.New("app: config and bot are required")
	}
	a := &App{cfg: cfg, db: db, bot: bot, registry: coretelegram.NewRegistry()}

	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		if db == nil {
			return nil, errors.New("app: postgres storage without a database handle")
		}
		a.store = storage.NewPostgres(db)
	default:
		a.store = storage.NewMemory()
	}

	gen, err := ids.NewGenerator(cfg.IDs.Node)
	if err != nil {
		return nil, err
	}

	sessions, drafts, err := a.sessionStores()
	if err != nil {
		return nil, err
	}
	a.janitor = session.NewJanitor(cfg.Sessions.SweepInterval)
	a.janitor.Register("conversations", sessions)
	a.janitor.Register("drafts", drafts)

	if cfg.Kafka.Enabled {
		a.events = events.NewKafka(events.KafkaOptions{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			Async:   cfg.Kafka.Async,
		})
	} else {
		a.events = events.Nop{}
	}

	a.disp = sender.NewDispatcher(sender.Options{MaxRetries: 2})
	hub := web.NewHub()
	msgr := messenger.NewMux().
		Handle(domain.ChannelTelegram, messenger.NewTelegram(bot, a.disp)).
		Handle(domain.ChannelWeb, messenger.NewWeb(hub))

	a.router = router.New(router.Deps{
		Matcher:    matcher.New(a.store, msgr, a.events, cfg.Matching.MaxVendorsPerInquiry),
		Relay:      relay.New(a.store, msgr, a.events),
		Storage:    a.store,
		Msgr:       msgr,
		IDs:        gen,
		Sessions:   sessions,
		Drafts:     drafts,
		Events:     a.events,
		SendErrors: a.disp.ErrorCount,
	})

	a.web = web.NewServer(web.Options{
		Listen:         cfg.Web.Listen,
		AllowedOrigins: cfg.Web.AllowedOrigins,
		WriteTimeout:   cfg.Web.WriteTimeout,
	}, hub, a.store)
	a.web.Attach(a.router)

	a.handlers = tgbot.New(a.router)
	if err := a.handlers.Register(a.registry); err != nil {
		a.disp.Close()
		_ = a.close()
		return nil, fmt.Errorf("app: register handlers: %w", err)
	}

	logger.Info(context.Background(), logger.CompApp, "assembled",
		slog.String("storage", cfg.Storage.Driver),
		slog.String("sessions", cfg.Sessions.Backend),
		slog.Bool("web", cfg.Web.Enabled),
		slog.Bool("kafka", cfg.Kafka.Enabled),
		slog.Int("max_vendors", cfg.Matching.MaxVendorsPerInquiry),
	)
	return a, nil
}

func (a *App) sessionStores() (session.Store[conversation.Session], session.Store[quote.Draft], error) {
	s := a.cfg.Sessions
	if s.Backend != config.SessionsRedis {
		return session.NewMemoryStore[conversation.Session](s.ConversationTTL),
			session.NewMemoryStore[quote.Draft](s.DraftTTL), nil
	}

	a.rdb = redis.NewClient(&redis.Options{
		Addr:     a.cfg.Redis.Addr,
		Password: a.cfg.Redis.Password,
		DB:       a.cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.rdb.Ping(ctx).Err(); err != nil {
		_ = a.rdb.Close()
		a.rdb = nil
		return nil, nil, fmt.Errorf("app: redis ping %s: %w", a.cfg.Redis.Addr, err)
	}
	prefix := a.cfg.Redis.Prefix
	return session.NewRedisStore[conversation.Session](a.rdb, prefix+"conv:", s.ConversationTTL),
		session.NewRedisStore[quote.Draft](a.rdb, prefix+"draft:", s.DraftTTL), nil
}

// Router exposes the inbound entry point.
func (a *App) Router() *router.Router { return a.router }

// Web exposes the chat widget server.
func (a *App) Web() *web.Server { return a.web }

// TelegramRunOptions implements cmd.TelegramApp.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	return coretelegram.RunOptions{
		Config:      &a.cfg.Config,
		Registry:    a.registry,
		Bot:         a.bot,
		Dispatcher:  a.disp,
		Middlewares: coretelegram.DefaultMiddlewares(),
		Routes:      a.handlers.Routes(a.registry, a.cfg.Telegram.AdminID),
		OnStart:     a.start,
		OnStop:      a.stop,
	}, nil
}

func (a *App) start(ctx context.Context, _ coretelegram.Runtime) error {
	bg, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_ = a.janitor.Run(bg)
	}()

	if a.cfg.Web.Enabled {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.web.Run(bg); err != nil {
				logger.Error(bg, logger.CompWeb, "web.stopped", slog.String("err", err.Error()))
			}
		}()
	}
	return nil
}

func (a *App) stop(context.Context, coretelegram.Runtime) error {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
	return a.close()
}

// close releases external clients. The dispatcher belongs to the runtime.
func (a *App) close() error {
	var errs []error
	if a.events != nil {
		errs = append(errs, a.events.Close())
	}
	if a.rdb != nil {
		errs = append(errs, a.rdb.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}
