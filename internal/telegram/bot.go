// Package telegram exposes advisor conversations through a Telegram bot.
// Every Telegram chat is mapped to one advisor session.
package telegram

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"strings"
	"sync"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/sirupsen/logrus"

	"github.com/zhouzirui/z-advisor/backend/internal/analysis/intent"
	"github.com/zhouzirui/z-advisor/backend/internal/config"
	"github.com/zhouzirui/z-advisor/backend/internal/logging"
	"github.com/zhouzirui/z-advisor/backend/internal/model/chat"
	"github.com/zhouzirui/z-advisor/backend/internal/model/profile"
	"github.com/zhouzirui/z-advisor/backend/internal/render"
	chatService "github.com/zhouzirui/z-advisor/backend/internal/service/chat"
	"github.com/zhouzirui/z-advisor/backend/internal/service/export"
)

// API is the subset of *tgbotapi.BotAPI the bot relies on.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type chatState struct {
	sessionID string
	risk      string
}

// Bot relays Telegram messages to the chat service.
type Bot struct {
	api       API
	chatSvc   *chatService.Service
	profileID string
	log       *logrus.Entry

	// sessionMu serializes session lookup-or-create so a chat binds to
	// exactly one session. mu guards chats.
	sessionMu sync.Mutex
	mu        sync.Mutex
	chats     map[int64]*chatState
	wg        sync.WaitGroup
}

// chatQueueSize bounds the updates buffered for one chat.
const chatQueueSize = 32

// Connect authorizes against the Bot API with the configured token.
func Connect(cfg config.TelegramConfig) (*tgbotapi.BotAPI, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("telegram token is not configured")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot api: %w", err)
	}
	api.Debug = cfg.Debug
	return api, nil
}

// New creates a bot whose sessions are bound to profileID. An empty
// profileID selects profile.DefaultID.
func New(api API, chatSvc *chatService.Service, profileID string, logger logrus.FieldLogger) *Bot {
	if profileID == "" {
		profileID = profile.DefaultID
	}
	return &Bot{
		api:       api,
		chatSvc:   chatSvc,
		profileID: profileID,
		log:       logging.Component(logger, "telegram"),
		chats:     make(map[int64]*chatState),
	}
}

// Run long-polls for updates until ctx is cancelled. Each chat gets its own
// worker, so a pending reply never blocks other chats and one chat's
// messages are handled in the order they arrived.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.log.Info("bot started")
	defer b.wg.Wait()

	queues := make(map[int64]chan tgbotapi.Update)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			chatID := update.Message.Chat.ID
			queue, ok := queues[chatID]
			if !ok {
				queue = make(chan tgbotapi.Update, chatQueueSize)
				queues[chatID] = queue
				b.wg.Add(1)
				go b.drain(ctx, queue)
			}
			select {
			case queue <- update:
			case <-ctx.Done():
			}
		}
	}
}

// drain handles one chat's updates sequentially until ctx is cancelled.
func (b *Bot) drain(ctx context.Context, queue <-chan tgbotapi.Update) {
	defer b.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-queue:
			if err := b.HandleUpdate(ctx, update); err != nil {
				b.log.WithError(err).Warn("failed to handle update")
			}
		}
	}
}

// HandleUpdate processes one update. Text is submitted to the chat's
// session and the call returns once the reply has been sent.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	msg := update.Message
	if msg == nil {
		return nil
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		return b.handleCommand(ctx, chatID, msg.Command(), strings.TrimSpace(msg.CommandArguments()))
	}
	return b.handleText(ctx, chatID, msg.Text)
}

func (b *Bot) handleCommand(ctx context.Context, chatID int64, command, args string) error {
	switch command {
	case "start":
		state, err := b.resetSession(ctx, chatID)
		if err != nil {
			return err
		}
		transcript, err := b.chatSvc.LoadTranscript(ctx, state.sessionID)
		if err != nil {
			return err
		}
		if len(transcript) == 0 {
			return nil
		}
		return b.sendText(chatID, FormatMessage(transcript[0]))
	case "help":
		return b.sendText(chatID, helpText())
	case "risk":
		state, err := b.session(ctx, chatID)
		if err != nil {
			return err
		}
		b.mu.Lock()
		state.risk = args
		b.mu.Unlock()
		if args == "" {
			return b.sendText(chatID, "Risk profile cleared.")
		}
		return b.sendText(chatID, "Risk profile set to <b>"+html.EscapeString(args)+"</b>. Recommendations will follow each reply.")
	case "export":
		return b.sendExport(ctx, chatID)
	default:
		return b.sendText(chatID, "Unknown command. Try /help.")
	}
}

func (b *Bot) handleText(ctx context.Context, chatID int64, text string) error {
	state, err := b.session(ctx, chatID)
	if err != nil {
		return err
	}

	b.mu.Lock()
	req := chatService.Request{Text: text, Risk: state.risk}
	sessionID := state.sessionID
	b.mu.Unlock()

	sub, ok, err := b.chatSvc.Submit(ctx, sessionID, req)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case reply, ok := <-sub.Reply:
		if !ok {
			return nil
		}
		return b.sendText(chatID, FormatMessage(reply))
	}
}

func (b *Bot) sendExport(ctx context.Context, chatID int64) error {
	state, err := b.session(ctx, chatID)
	if err != nil {
		return err
	}
	p, err := b.chatSvc.Profile(ctx, state.sessionID)
	if err != nil {
		return err
	}
	transcript, err := b.chatSvc.LoadTranscript(ctx, state.sessionID)
	if err != nil {
		return err
	}

	book, err := export.Build(p, transcript)
	if err != nil {
		return err
	}
	defer book.Close()

	var buf bytes.Buffer
	if _, err := book.WriteTo(&buf); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  "conversation.xlsx",
		Bytes: buf.Bytes(),
	})
	doc.Caption = "Your conversation and chart data"
	if _, err := b.api.Send(doc); err != nil {
		return fmt.Errorf("send export: %w", err)
	}
	return nil
}

// session returns the chat's session, creating one on first contact.
func (b *Bot) session(ctx context.Context, chatID int64) (*chatState, error) {
	b.sessionMu.Lock()
	defer b.sessionMu.Unlock()

	b.mu.Lock()
	state, ok := b.chats[chatID]
	b.mu.Unlock()
	if ok {
		return state, nil
	}
	return b.openSession(ctx, chatID)
}

func (b *Bot) resetSession(ctx context.Context, chatID int64) (*chatState, error) {
	b.sessionMu.Lock()
	defer b.sessionMu.Unlock()
	return b.openSession(ctx, chatID)
}

// openSession binds chatID to a fresh session, keeping its risk profile.
// The caller holds sessionMu.
func (b *Bot) openSession(ctx context.Context, chatID int64) (*chatState, error) {
	session, err := b.chatSvc.CreateSession(ctx, b.profileID)
	if err != nil {
		return nil, fmt.Errorf("create session for chat %d: %w", chatID, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	state := &chatState{sessionID: session.ID}
	if prev, ok := b.chats[chatID]; ok {
		state.risk = prev.risk
	}
	b.chats[chatID] = state

	b.log.WithFields(logrus.Fields{"chat": chatID, "session": session.ID}).Info("session opened")
	return state, nil
}

// SessionID reports the session bound to a Telegram chat.
func (b *Bot) SessionID(chatID int64) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.chats[chatID]
	if !ok {
		return "", false
	}
	return state.sessionID, true
}

func (b *Bot) sendText(chatID int64, text string) error {
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(out); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// FormatMessage renders an assistant message as Telegram HTML with any
// chart shown as a preformatted table.
func FormatMessage(msg chat.Message) string {
	text := html.EscapeString(msg.Content)
	if table := render.Plain(msg.Chart); table != "" {
		text += "\n\n<pre>" + html.EscapeString(table) + "</pre>"
	}
	return text
}

func helpText() string {
	var b strings.Builder
	b.WriteString("Ask me about:\n")
	keywords := intent.Keywords()
	for _, label := range []intent.Label{intent.Performance, intent.Allocation, intent.Retirement} {
		fmt.Fprintf(&b, "• %s: %s\n", label, strings.Join(keywords[label], ", "))
	}
	b.WriteString("\n/risk &lt;level&gt; adds investment picks to replies\n/export sends the conversation as a spreadsheet\n/start begins a new conversation")
	return b.String()
}
