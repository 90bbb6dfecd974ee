// Package telegram implements the Telegram bot interface for the Mariners
// Gameday Hub. It is the entry point for all interactive traffic: long
// polling, command routing, and the inline settings keyboard. Outbound
// notification delivery does not pass through here; the dispatch engine
// talks to the Telegram client directly.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/game"
	"github.com/mariners-hub/mariners-gameday-hub/internal/domain/subscriber"
	"github.com/mariners-hub/mariners-gameday-hub/internal/infrastructure/external/telegram"
	"github.com/mariners-hub/mariners-gameday-hub/internal/infrastructure/scheduler"
	"github.com/mariners-hub/mariners-gameday-hub/internal/interface/telegram/handler"
	"github.com/mariners-hub/mariners-gameday-hub/internal/interface/telegram/middleware"
	"github.com/mariners-hub/mariners-gameday-hub/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// BOT CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// BotConfig contains configuration for the Telegram bot.
type BotConfig struct {
	// Debug enables debug logging.
	Debug bool

	// Logger for structured logging.
	Logger *slog.Logger

	// Location is the timezone for message timestamps.
	Location *time.Location

	// AdminIDs are the chats allowed to run /status. Empty allows everyone.
	AdminIDs []int64

	// MaxConcurrentUpdates limits concurrent update processing.
	MaxConcurrentUpdates int

	// GracefulShutdownTimeout bounds the wait for in-flight handlers.
	GracefulShutdownTimeout time.Duration
}

// DefaultBotConfig returns sensible defaults.
func DefaultBotConfig() BotConfig {
	return BotConfig{
		Debug:                   false,
		Logger:                  slog.Default(),
		MaxConcurrentUpdates:    100,
		GracefulShutdownTimeout: 30 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// BotDependencies contains all dependencies for the bot handlers.
type BotDependencies struct {
	// Client is the shared Telegram API client.
	Client *telegram.Client

	// Subscribers is the subscriber and preferences store.
	Subscribers subscriber.Repository

	// Games is the schedule store, backing /nextgame.
	Games game.Repository

	// NextGameCache answers /nextgame without a database read when warm.
	// Optional; nil disables the cache path.
	NextGameCache handler.NextGameCache

	// Scheduler powers the /status job listing. Optional.
	Scheduler *scheduler.Scheduler

	// HealthChecks are the dependency probes shown by /status. Optional.
	HealthChecks map[string]handler.DependencyChecker
}

// ══════════════════════════════════════════════════════════════════════════════
// BOT
// ══════════════════════════════════════════════════════════════════════════════

// Bot is the main Telegram bot controller.
type Bot struct {
	config BotConfig
	client *telegram.Client
	router *Router
	logger *slog.Logger

	rateLimiter *middleware.RateLimiter
	recovery    *middleware.Recovery
	metrics     *middleware.Metrics

	// Lifecycle management
	running   bool
	runningMu sync.RWMutex
	updateSem chan struct{}
	wg        sync.WaitGroup

	stats *BotStats
}

// BotStats holds runtime statistics.
type BotStats struct {
	mu              sync.RWMutex
	StartedAt       time.Time
	UpdatesReceived int64
	UpdatesHandled  int64
	ErrorsCount     int64
	CommandsCount   map[string]int64
}

// NewBot creates a new Telegram bot with all dependencies.
func NewBot(config BotConfig, deps BotDependencies) (*Bot, error) {
	if deps.Client == nil {
		return nil, errors.New("telegram client is required")
	}
	if deps.Subscribers == nil {
		return nil, errors.New("subscriber repository is required")
	}
	if deps.Games == nil {
		return nil, errors.New("game repository is required")
	}

	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.MaxConcurrentUpdates <= 0 {
		config.MaxConcurrentUpdates = 100
	}

	// Presenters
	keyboards := presenter.NewKeyboardBuilder()
	gameCards := presenter.NewGameCardPresenter(config.Location)

	// Handlers
	startHandler := handler.NewStartHandler(deps.Subscribers, keyboards)
	stopHandler := handler.NewStopHandler(deps.Subscribers)
	settingsHandler := handler.NewSettingsHandler(deps.Subscribers, keyboards)
	nextGameHandler := handler.NewNextGameHandler(deps.Games, deps.NextGameCache, gameCards, keyboards)
	statusHandler := handler.NewStatusHandler(deps.Scheduler, deps.HealthChecks, config.AdminIDs)
	helpHandler := handler.NewHelpHandler()

	// Middleware
	metrics := middleware.NewMetrics()
	rateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimitConfig())

	recoveryConfig := middleware.DefaultRecoveryConfig()
	recoveryConfig.Logger = config.Logger
	recoveryConfig.Metrics = metrics
	recovery := middleware.NewRecovery(recoveryConfig)

	// Router
	router := NewRouter(RouterConfig{
		Logger: config.Logger,
		Debug:  config.Debug,
	})

	router.RegisterCommand("start", func(ctx context.Context, cmdCtx CommandContext) (*handler.Response, error) {
		req := handler.StartRequest{ChatID: cmdCtx.ChatID}
		if cmdCtx.Message != nil && cmdCtx.Message.From != nil {
			req.Username = cmdCtx.Message.From.Username
			req.FirstName = cmdCtx.Message.From.FirstName
			req.LastName = cmdCtx.Message.From.LastName
		}
		return startHandler.Handle(ctx, req)
	})

	router.RegisterCommand("stop", func(ctx context.Context, cmdCtx CommandContext) (*handler.Response, error) {
		return stopHandler.Handle(ctx, handler.StopRequest{ChatID: cmdCtx.ChatID})
	})

	router.RegisterCommand("settings", func(ctx context.Context, cmdCtx CommandContext) (*handler.Response, error) {
		return settingsHandler.Handle(ctx, handler.SettingsRequest{ChatID: cmdCtx.ChatID})
	})

	router.RegisterCommand("nextgame", func(ctx context.Context, cmdCtx CommandContext) (*handler.Response, error) {
		return nextGameHandler.Handle(ctx, handler.NextGameRequest{ChatID: cmdCtx.ChatID})
	})

	router.RegisterCommand("status", func(ctx context.Context, cmdCtx CommandContext) (*handler.Response, error) {
		return statusHandler.Handle(ctx, handler.StatusRequest{ChatID: cmdCtx.ChatID})
	})

	router.RegisterCommand("help", func(ctx context.Context, cmdCtx CommandContext) (*handler.Response, error) {
		return helpHandler.Handle(ctx, handler.HelpRequest{ChatID: cmdCtx.ChatID})
	})

	// "settings:toggle:<key>" flips one preference category and redraws
	// the keyboard in place.
	router.RegisterCallbackPrefix("settings:", func(ctx context.Context, cbCtx CallbackContext) (*handler.Response, error) {
		parts := strings.Split(cbCtx.Data, ":")
		if len(parts) < 3 || parts[1] != "toggle" {
			return nil, nil
		}
		return settingsHandler.Toggle(ctx, cbCtx.ChatID, parts[2])
	})

	// "cmd:<name>" runs a command from a navigation button, editing the
	// originating message instead of sending a new one.
	router.RegisterCallbackPrefix("cmd:", func(ctx context.Context, cbCtx CallbackContext) (*handler.Response, error) {
		target := strings.TrimPrefix(cbCtx.Data, "cmd:")
		switch target {
		case "settings":
			return settingsHandler.Handle(ctx, handler.SettingsRequest{ChatID: cbCtx.ChatID})
		case "nextgame":
			return nextGameHandler.Handle(ctx, handler.NextGameRequest{ChatID: cbCtx.ChatID})
		case "help":
			return helpHandler.Handle(ctx, handler.HelpRequest{ChatID: cbCtx.ChatID})
		default:
			return nil, nil
		}
	})

	bot := &Bot{
		config:      config,
		client:      deps.Client,
		router:      router,
		logger:      config.Logger,
		rateLimiter: rateLimiter,
		recovery:    recovery,
		metrics:     metrics,
		updateSem:   make(chan struct{}, config.MaxConcurrentUpdates),
		stats: &BotStats{
			CommandsCount: make(map[string]int64),
		},
	}

	return bot, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// LIFECYCLE MANAGEMENT
// ══════════════════════════════════════════════════════════════════════════════

// Start verifies the token and begins long polling. It blocks until the
// context is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	b.runningMu.Lock()
	if b.running {
		b.runningMu.Unlock()
		return errors.New("bot is already running")
	}
	b.running = true
	b.stats.StartedAt = time.Now()
	b.runningMu.Unlock()

	b.logger.Info("starting telegram bot", "debug", b.config.Debug)

	if err := b.verifyToken(ctx); err != nil {
		return fmt.Errorf("failed to verify bot token: %w", err)
	}

	err := b.client.StartPolling(ctx, func(ctx context.Context, update *telegram.Update) error {
		return b.handleUpdate(ctx, update)
	})

	b.drainHandlers(ctx)

	b.runningMu.Lock()
	b.running = false
	b.runningMu.Unlock()

	return err
}

// drainHandlers waits for in-flight handlers, bounded by the shutdown timeout.
func (b *Bot) drainHandlers(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("all handlers completed")
	case <-time.After(b.config.GracefulShutdownTimeout):
		b.logger.Warn("graceful shutdown timeout exceeded")
	}

	b.rateLimiter.Stop()
}

// IsRunning returns whether the bot is currently polling.
func (b *Bot) IsRunning() bool {
	b.runningMu.RLock()
	defer b.runningMu.RUnlock()
	return b.running
}

// verifyToken verifies the bot token by calling getMe.
func (b *Bot) verifyToken(ctx context.Context) error {
	me, err := b.client.GetMe(ctx)
	if err != nil {
		return err
	}

	b.logger.Info("bot verified",
		"id", me.ID,
		"username", me.Username,
	)

	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UPDATE HANDLING
// ══════════════════════════════════════════════════════════════════════════════

// handleUpdate processes a single Telegram update.
func (b *Bot) handleUpdate(ctx context.Context, update *telegram.Update) error {
	select {
	case b.updateSem <- struct{}{}:
		defer func() { <-b.updateSem }()
	case <-ctx.Done():
		return ctx.Err()
	}

	b.wg.Add(1)
	defer b.wg.Done()

	b.stats.mu.Lock()
	b.stats.UpdatesReceived++
	b.stats.mu.Unlock()

	var err error
	switch {
	case update.Message != nil:
		b.metrics.UpdateReceived("message")
		err = b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.metrics.UpdateReceived("callback_query")
		err = b.handleCallbackQuery(ctx, update.CallbackQuery)
	default:
		b.metrics.UpdateReceived("other")
		return nil
	}

	b.stats.mu.Lock()
	if err != nil {
		b.stats.ErrorsCount++
	} else {
		b.stats.UpdatesHandled++
	}
	b.stats.mu.Unlock()

	if err != nil {
		b.logger.Error("failed to handle update",
			"update_id", update.UpdateID,
			"error", err,
		)
	}

	return err
}

// handleMessage processes a Telegram message. Plain text without a command
// is ignored; this bot is command driven.
func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) error {
	if msg == nil {
		return nil
	}

	command := telegram.ExtractCommand(msg)
	if command == "" {
		return nil
	}

	return b.handleCommand(ctx, msg.Chat.ID, command, msg)
}

// handleCommand processes a bot command.
func (b *Bot) handleCommand(ctx context.Context, chatID int64, command string, msg *telegram.Message) error {
	start := time.Now()

	b.stats.mu.Lock()
	b.stats.CommandsCount[command]++
	b.stats.mu.Unlock()

	if rl := b.rateLimiter.Check(chatID); !rl.Allowed {
		b.metrics.RateLimited()
		_, err := b.client.SendHTML(ctx, chatID, rl.ResponseMessage)
		return err
	}

	result := b.recovery.Run(ctx, chatID, "command:"+command, func() error {
		return b.router.HandleCommand(ctx, command, CommandContext{
			ChatID:    chatID,
			MessageID: msg.MessageID,
			Args:      telegram.ExtractCommandArgs(msg),
			Message:   msg,
			Client:    b.client,
		})
	})

	if result.Recovered {
		_, err := b.client.SendHTML(ctx, chatID, result.UserMessage)
		b.metrics.CommandHandled(command, errors.New("panic"), time.Since(start))
		return err
	}

	b.metrics.CommandHandled(command, result.Err, time.Since(start))
	return result.Err
}

// handleCallbackQuery processes a callback query from an inline keyboard.
func (b *Bot) handleCallbackQuery(ctx context.Context, cq *telegram.CallbackQuery) error {
	if cq == nil || cq.From == nil {
		return nil
	}

	var chatID, messageID int64
	if cq.Message != nil {
		chatID = cq.Message.Chat.ID
		messageID = cq.Message.MessageID
	}

	// Answer first so the client drops its loading spinner.
	defer func() {
		_ = b.client.AnswerCallbackQuery(ctx, cq.ID, "", false)
	}()

	if rl := b.rateLimiter.Check(cq.From.ID); !rl.Allowed {
		b.metrics.RateLimited()
		return nil
	}

	result := b.recovery.Run(ctx, chatID, "callback:"+cq.Data, func() error {
		return b.router.HandleCallback(ctx, cq.Data, CallbackContext{
			ChatID:    chatID,
			MessageID: messageID,
			QueryID:   cq.ID,
			Data:      cq.Data,
			Query:     cq,
			Client:    b.client,
		})
	})

	if result.Recovered && chatID != 0 {
		_, _ = b.client.SendHTML(ctx, chatID, result.UserMessage)
		return nil
	}

	return result.Err
}

// ══════════════════════════════════════════════════════════════════════════════
// STATISTICS
// ══════════════════════════════════════════════════════════════════════════════

// GetStats returns current bot statistics.
func (b *Bot) GetStats() map[string]interface{} {
	b.stats.mu.RLock()
	defer b.stats.mu.RUnlock()

	commandsCopy := make(map[string]int64, len(b.stats.CommandsCount))
	for k, v := range b.stats.CommandsCount {
		commandsCopy[k] = v
	}

	return map[string]interface{}{
		"started_at":       b.stats.StartedAt,
		"uptime":           time.Since(b.stats.StartedAt).String(),
		"updates_received": b.stats.UpdatesReceived,
		"updates_handled":  b.stats.UpdatesHandled,
		"errors_count":     b.stats.ErrorsCount,
		"commands_count":   commandsCopy,
		"running":          b.IsRunning(),
	}
}

// Client returns the Telegram client for direct API access.
func (b *Bot) Client() *telegram.Client {
	return b.client
}

// Router returns the router for handler registration.
func (b *Bot) Router() *Router {
	return b.router
}
