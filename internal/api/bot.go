package telegram

import (
	"context"
	"errors"
	"strings"

	"github.com/apex/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "damage-portal/internal/application"
	"damage-portal/internal/chat"
	"damage-portal/internal/domain/entity"
	"damage-portal/internal/domain/port"
	"damage-portal/internal/overlay"
)

const (
	msgStart = `👋 Hi! I help inspect vehicle photos for parts and damage.

📋 Commands:
/images — load images from the backend
/next, /prev — browse images
/task parts|damage — choose what to detect
/predict — run detection on the current image
/analyze — damage report for detected parts
/report — show the last report
/ask <question> — discuss the report
/export — download the report as PDF
/help — help`

	msgHelp = `ℹ️ How it works:

1️⃣ /images, then /next and /prev to pick a photo
2️⃣ /task parts or /task damage
3️⃣ /predict and wait for the boxes
4️⃣ For parts, /analyze builds a damage report
5️⃣ /ask questions about it or /export a PDF

/done or /cancel leaves chat mode.`

	msgUnknownCommand = "❓ Unknown command. Use /help."
	msgTaskUsage      = "Usage: /task parts or /task damage"
	msgPredicting     = "✨ Detecting..."
	msgAnalyzing      = "⏳ Analyzing damage..."
	msgNoReport       = "No damage report yet. Run /predict with task parts, then /analyze."
	msgNeedParts      = "Damage analysis needs part detections: /task parts, then /predict."
	msgChatMode       = "💬 Ask anything about the report. /done to finish."
	msgChatDone       = "Chat finished."
	msgBusy           = "⏳ Still working on the previous request."
	msgExportFailed   = "⚠️ Failed to build the PDF."
	msgSendCommand    = "Use /help to see the commands."
	reportFileName    = "damage-report.pdf"
)

// Bot представляет Telegram-бота
type Bot struct {
	api        *tgbotapi.BotAPI
	users      *app.UserService
	inspection *app.InspectionService
	images     port.ImageSource
	annotator  port.Annotator
	renderer   *overlay.Renderer
}

// NewBot создаёт нового бота
func NewBot(token string, users *app.UserService, inspection *app.InspectionService, images port.ImageSource, annotator port.Annotator, renderer *overlay.Renderer) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	log.Infof("Authorized on account %s", api.Self.UserName)

	b := &Bot{
		api:        api,
		users:      users,
		inspection: inspection,
		images:     images,
		annotator:  annotator,
		renderer:   renderer,
	}
	inspection.OnApplied(b.handleApplied)
	return b, nil
}

// Run запускает основной цикл обработки сообщений до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	user, err := b.users.Get(ctx, msg.From.ID, msg.Chat.ID)
	if err != nil {
		log.WithError(err).Error("get user")
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg, user)
		return
	}

	// В режиме чата текст уходит в диалог по отчёту
	if user.State == entity.StateChatting && strings.TrimSpace(msg.Text) != "" {
		b.ask(ctx, user, msg.Text)
		return
	}

	b.sendMessage(msg.Chat.ID, msgSendCommand)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *entity.User) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		b.transition(ctx, user, b.users.Cancel)
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "images":
		snap, err := b.inspection.LoadImages(ctx, user.ID, chatID)
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		b.sendCurrent(ctx, chatID, snap)

	case "next", "prev":
		move := b.inspection.Next
		if msg.Command() == "prev" {
			move = b.inspection.Prev
		}
		snap, err := move(ctx, user.ID, chatID)
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		b.sendCurrent(ctx, chatID, snap)

	case "task":
		task, err := entity.ParseTask(strings.TrimSpace(msg.CommandArguments()))
		if err != nil {
			b.sendMessage(chatID, msgTaskUsage)
			return
		}
		snap, err := b.inspection.SetTask(ctx, user.ID, chatID, task)
		if err != nil {
			b.sendError(chatID, err)
			return
		}
		b.sendMessage(chatID, FormatStatus(snap))

	case "predict":
		b.sendMessage(chatID, msgPredicting)
		if err := b.inspection.Predict(ctx, user.ID, chatID); err != nil && !errors.Is(err, app.ErrSuperseded) {
			b.sendError(chatID, err)
		}

	case "analyze":
		b.analyze(ctx, user)

	case "report":
		snap, _ := b.inspection.Snapshot(chatID)
		if snap.Report == nil {
			b.sendMessage(chatID, msgNoReport)
			return
		}
		b.sendMessage(chatID, FormatReport(snap.Report))

	case "ask":
		if q := strings.TrimSpace(msg.CommandArguments()); q != "" {
			b.ask(ctx, user, q)
			return
		}
		snap, _ := b.inspection.Snapshot(chatID)
		if snap.Report == nil {
			b.sendMessage(chatID, msgNoReport)
			return
		}
		b.transition(ctx, user, b.users.BeginChat)
		b.sendMessage(chatID, msgChatMode)

	case "export":
		b.export(ctx, user)

	case "done", "cancel":
		b.transition(ctx, user, b.users.Cancel)
		b.sendMessage(chatID, msgChatDone)

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

func (b *Bot) analyze(ctx context.Context, user *entity.User) {
	prev := user.State
	b.transition(ctx, user, b.users.BeginProcessing)
	b.sendMessage(user.ChatID, msgAnalyzing)

	rep, err := b.inspection.Analyze(ctx, user.ID, user.ChatID)
	b.transition(ctx, user, restoreState(b.users, prev))
	switch {
	case errors.Is(err, app.ErrSuperseded):
		return
	case err != nil:
		b.sendError(user.ChatID, err)
		return
	}
	b.sendMessage(user.ChatID, FormatReport(rep))
}

func (b *Bot) ask(ctx context.Context, user *entity.User, text string) {
	reply, err := b.inspection.Ask(ctx, user.ID, user.ChatID, text)
	switch {
	case errors.Is(err, chat.ErrSessionReset):
		return
	case err != nil:
		b.sendError(user.ChatID, err)
		return
	}
	b.sendMessage(user.ChatID, reply.Content)
}

func (b *Bot) export(ctx context.Context, user *entity.User) {
	doc, err := b.inspection.Export(ctx, user.ID, user.ChatID)
	if err != nil {
		if errors.Is(err, entity.ErrNoReport) {
			b.sendMessage(user.ChatID, msgNoReport)
			return
		}
		log.WithError(err).WithField("chat", user.ChatID).Error("export report")
		b.sendMessage(user.ChatID, msgExportFailed)
		return
	}

	upload := tgbotapi.NewDocument(user.ChatID, tgbotapi.FileBytes{Name: reportFileName, Bytes: doc.Bytes})
	upload.Caption = FormatExportCaption(doc)
	if _, err := b.api.Send(upload); err != nil {
		log.WithError(err).Error("send document")
	}
}

// handleApplied отправляет фото с рамками, когда результат детекции применён.
func (b *Bot) handleApplied(chatID int64, snap app.Snapshot) {
	ctx := context.Background()
	raw, err := b.images.FetchImage(ctx, snap.Image)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	annotated, _, err := b.annotator.Annotate(raw, snap.Detections)
	if err != nil {
		log.WithError(err).WithField("image", snap.Image).Error("annotate image")
		b.sendMessage(chatID, FormatSummary(snap, b.renderer.Summarize(snap.Detections)))
		return
	}
	b.sendPhoto(chatID, annotated, FormatSummary(snap, b.renderer.Summarize(snap.Detections)))
}

// sendCurrent отправляет текущее изображение без рамок.
func (b *Bot) sendCurrent(ctx context.Context, chatID int64, snap app.Snapshot) {
	raw, err := b.images.FetchImage(ctx, snap.Image)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	// Annotate без детекций перекодирует webp и прочие форматы в JPEG
	photo, _, err := b.annotator.Annotate(raw, nil)
	if err != nil {
		log.WithError(err).WithField("image", snap.Image).Warn("decode image")
		b.sendMessage(chatID, FormatStatus(snap))
		return
	}
	b.sendPhoto(chatID, photo, FormatStatus(snap))
}

// userTransition переход состояния пользователя в UserService.
type userTransition func(ctx context.Context, userID, chatID int64) (*entity.User, error)

// restoreState возвращает пользователя в состояние до длительной операции.
func restoreState(users *app.UserService, state entity.UserState) userTransition {
	return func(ctx context.Context, userID, chatID int64) (*entity.User, error) {
		return users.SetState(ctx, userID, chatID, state)
	}
}

// transition применяет переход и обновляет user сохранённой копией.
func (b *Bot) transition(ctx context.Context, user *entity.User, fn userTransition) {
	updated, err := fn(ctx, user.ID, user.ChatID)
	if err != nil {
		log.WithError(err).Error("save user state")
		return
	}
	*user = *updated
}

// sendError показывает пользователю текст ошибки.
func (b *Bot) sendError(chatID int64, err error) {
	switch {
	case errors.Is(err, app.ErrAnalysisUnavailable):
		b.sendMessage(chatID, msgNeedParts)
	case errors.Is(err, app.ErrBusy), errors.Is(err, chat.ErrSendInFlight):
		b.sendMessage(chatID, msgBusy)
	case errors.Is(err, entity.ErrNoReport):
		b.sendMessage(chatID, msgNoReport)
	default:
		var svcErr *entity.ServiceError
		if !errors.As(err, &svcErr) {
			log.WithError(err).WithField("chat", chatID).Error("request failed")
		}
		b.sendMessage(chatID, "⚠️ "+err.Error())
	}
}

func (b *Bot) sendPhoto(chatID int64, data []byte, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "image.jpg", Bytes: data})
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		log.WithError(err).Error("send photo")
	}
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).Error("send message")
	}
}
