package telegram

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/mariners-hub/mariners-gameday-hub/internal/infrastructure/external/telegram"
	"github.com/mariners-hub/mariners-gameday-hub/internal/interface/telegram/handler"
	"github.com/mariners-hub/mariners-gameday-hub/internal/interface/telegram/presenter"
)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	// Logger for structured logging.
	Logger *slog.Logger

	// Debug enables debug logging for routing decisions.
	Debug bool
}

// ══════════════════════════════════════════════════════════════════════════════
// CONTEXT TYPES
// These types carry context information through the routing process.
// ══════════════════════════════════════════════════════════════════════════════

// CommandContext contains context for command handling.
type CommandContext struct {
	// ChatID is the chat where the command was sent.
	ChatID int64

	// MessageID is the ID of the message containing the command.
	MessageID int64

	// Args is the command arguments (text after the command).
	Args string

	// Message is the original Telegram message.
	Message *telegram.Message

	// Client is the Telegram client for sending responses.
	Client *telegram.Client
}

// CallbackContext contains context for callback query handling.
type CallbackContext struct {
	// ChatID is the chat where the callback originated.
	ChatID int64

	// MessageID is the ID of the message with the inline keyboard.
	MessageID int64

	// QueryID is the callback query ID (for answering).
	QueryID string

	// Data is the callback data string.
	Data string

	// Query is the original callback query.
	Query *telegram.CallbackQuery

	// Client is the Telegram client for sending responses.
	Client *telegram.Client
}

// CommandFunc handles one command and returns the response to send.
type CommandFunc func(ctx context.Context, cmdCtx CommandContext) (*handler.Response, error)

// CallbackFunc handles one callback query and returns the response that
// replaces the keyboard message. A nil response leaves the message as is.
type CallbackFunc func(ctx context.Context, cbCtx CallbackContext) (*handler.Response, error)

// ══════════════════════════════════════════════════════════════════════════════
// ROUTER
// Routes incoming updates to the registered handler functions.
// ══════════════════════════════════════════════════════════════════════════════

// Router routes Telegram updates to appropriate handlers.
type Router struct {
	config RouterConfig
	logger *slog.Logger

	mu               sync.RWMutex
	commands         map[string]CommandFunc
	callbackPrefixes map[string]CallbackFunc
}

// NewRouter creates a new router.
func NewRouter(config RouterConfig) *Router {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	return &Router{
		config:           config,
		logger:           config.Logger,
		commands:         make(map[string]CommandFunc),
		callbackPrefixes: make(map[string]CallbackFunc),
	}
}

// RegisterCommand registers a handler for a specific command.
// The command should be without the leading "/".
func (r *Router) RegisterCommand(command string, fn CommandFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.commands[command] = fn

	if r.config.Debug {
		r.logger.Debug("registered command handler", "command", command)
	}
}

// RegisterCallbackPrefix registers a handler for callbacks matching a prefix.
// The prefix should include the trailing delimiter (e.g. "settings:").
func (r *Router) RegisterCallbackPrefix(prefix string, fn CallbackFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.callbackPrefixes[prefix] = fn

	if r.config.Debug {
		r.logger.Debug("registered callback prefix handler", "prefix", prefix)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

// HandleCommand routes a command to its handler and sends the response.
func (r *Router) HandleCommand(ctx context.Context, command string, cmdCtx CommandContext) error {
	r.mu.RLock()
	fn, ok := r.commands[command]
	r.mu.RUnlock()

	if !ok {
		return r.handleUnknownCommand(ctx, cmdCtx)
	}

	resp, err := fn(ctx, cmdCtx)
	if err != nil {
		return err
	}
	if resp == nil {
		return nil
	}

	return r.sendResponse(ctx, cmdCtx.Client, cmdCtx.ChatID, resp)
}

// HandleCallback routes a callback to the handler with the longest matching
// prefix and edits the originating message with the response.
func (r *Router) HandleCallback(ctx context.Context, data string, cbCtx CallbackContext) error {
	r.mu.RLock()
	var matchedPrefix string
	var matched CallbackFunc
	for prefix, fn := range r.callbackPrefixes {
		if strings.HasPrefix(data, prefix) && len(prefix) > len(matchedPrefix) {
			matchedPrefix = prefix
			matched = fn
		}
	}
	r.mu.RUnlock()

	if matched == nil {
		r.logger.Warn("unknown callback", "data", data)
		return nil
	}

	resp, err := matched(ctx, cbCtx)
	if err != nil {
		return err
	}
	if resp == nil {
		return nil
	}

	return r.editResponse(ctx, cbCtx.Client, cbCtx.ChatID, cbCtx.MessageID, resp)
}

// handleUnknownCommand answers commands without a registered handler.
func (r *Router) handleUnknownCommand(ctx context.Context, cmdCtx CommandContext) error {
	text := "❓ <b>Unknown command</b>\n\n" +
		"Available commands:\n" +
		"• /start — subscribe\n" +
		"• /stop — unsubscribe\n" +
		"• /settings — notification preferences\n" +
		"• /nextgame — next scheduled game\n" +
		"• /help — about this bot"

	_, err := cmdCtx.Client.SendHTML(ctx, cmdCtx.ChatID, text)
	return err
}

// GetRegisteredCommands returns the registered command names.
func (r *Router) GetRegisteredCommands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	commands := make([]string, 0, len(r.commands))
	for cmd := range r.commands {
		commands = append(commands, cmd)
	}
	return commands
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// sendResponse sends a new message with optional inline keyboard.
func (r *Router) sendResponse(ctx context.Context, client *telegram.Client, chatID int64, resp *handler.Response) error {
	params := telegram.SendMessageParams{
		ChatID:    chatID,
		Text:      resp.Text,
		ParseMode: resp.ParseMode,
	}

	if resp.Keyboard != nil {
		params.ReplyMarkup = convertKeyboard(resp.Keyboard)
	}

	_, err := client.SendMessage(ctx, params)
	return err
}

// editResponse edits an existing message with optional inline keyboard.
func (r *Router) editResponse(ctx context.Context, client *telegram.Client, chatID, messageID int64, resp *handler.Response) error {
	var kb *telegram.InlineKeyboardMarkup
	if resp.Keyboard != nil {
		kb = convertKeyboard(resp.Keyboard)
	}

	_, err := client.EditMessageText(ctx, chatID, messageID, resp.Text, resp.ParseMode, kb)
	return err
}

// convertKeyboard converts presenter.InlineKeyboard to the wire format.
func convertKeyboard(kb *presenter.InlineKeyboard) *telegram.InlineKeyboardMarkup {
	if kb == nil || len(kb.Rows) == 0 {
		return nil
	}

	markup := &telegram.InlineKeyboardMarkup{
		InlineKeyboard: make([][]telegram.InlineKeyboardButton, len(kb.Rows)),
	}

	for i, row := range kb.Rows {
		markup.InlineKeyboard[i] = make([]telegram.InlineKeyboardButton, len(row))
		for j, btn := range row {
			markup.InlineKeyboard[i][j] = telegram.InlineKeyboardButton{
				Text:         btn.Text,
				CallbackData: btn.CallbackData,
				URL:          btn.URL,
			}
		}
	}

	return markup
}
