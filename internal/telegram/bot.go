package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/digkill/PresetStore/internal/models"
	"github.com/digkill/PresetStore/internal/service"
)

const maxPendingListed = 20

// Sender is the part of the Bot API used to push messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TopUpReviewer interface {
	Pending(ctx context.Context) ([]models.Transaction, error)
	Approve(ctx context.Context, id string) (*service.TopUpResolution, error)
	Reject(ctx context.Context, id string) (*service.TopUpResolution, error)
}

type StockCounter interface {
	Count(ctx context.Context) (int, error)
}

// Bot is the admin's Telegram console. It pushes new top-up requests and security events
// to the admin chat and accepts review commands from that chat only.
type Bot struct {
	api         *tgbotapi.BotAPI
	sender      Sender
	log         *slog.Logger
	adminChatID int64
	currency    string
	topUps      TopUpReviewer
	stock       StockCounter
}

func NewBot(api *tgbotapi.BotAPI, log *slog.Logger, adminChatID int64, currency string) *Bot {
	return &Bot{
		api:         api,
		sender:      api,
		log:         log,
		adminChatID: adminChatID,
		currency:    currency,
	}
}

// Bind attaches the review services. The bot is built before them because the top-up
// service needs it as its notifier.
func (b *Bot) Bind(topUps TopUpReviewer, stock StockCounter) {
	b.topUps = topUps
	b.stock = stock
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("telegram admin bot started", "admin_chat_id", b.adminChatID)

	for {
		select {
		case update := <-updates:
			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			}
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		}
	}
}

func (b *Bot) TopUpRequested(_ context.Context, trx models.Transaction) {
	text := fmt.Sprintf(
		"Top-up baru menunggu verifikasi\n\nID: %s\nUser: %s\nNominal: %s\nMetode: %s\n\n/approve %s\n/reject %s",
		trx.ID, trx.Username, formatAmount(trx.Amount, b.currency), trx.PaymentMethod, trx.ID, trx.ID,
	)
	b.sendText(b.adminChatID, text)
}

func (b *Bot) SecurityEvent(_ context.Context, message string) {
	b.sendText(b.adminChatID, "Peringatan keamanan: "+message)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.Chat == nil || msg.Chat.ID != b.adminChatID {
		b.log.Debug("ignoring message from foreign chat")
		return
	}
	if !msg.IsCommand() {
		b.sendText(msg.Chat.ID, helpText)
		return
	}
	b.handleCommand(ctx, msg)
}

const helpText = "Perintah admin:\n/pending - daftar top-up yang menunggu\n/approve <id> - setujui top-up\n/reject <id> - tolak top-up\n/stock - sisa stok akun"

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start", "help":
		b.sendText(chatID, helpText)
	case "pending":
		b.handlePending(ctx, chatID)
	case "approve":
		b.handleResolve(ctx, chatID, strings.TrimSpace(msg.CommandArguments()), true)
	case "reject":
		b.handleResolve(ctx, chatID, strings.TrimSpace(msg.CommandArguments()), false)
	case "stock":
		count, err := b.stock.Count(ctx)
		if err != nil {
			b.log.Error("count stock", "err", err)
			b.sendText(chatID, "Gagal membaca stok.")
			return
		}
		b.sendText(chatID, fmt.Sprintf("Sisa stok: %d akun", count))
	default:
		b.sendText(chatID, "Perintah tidak dikenal. Gunakan /help.")
	}
}

func (b *Bot) handlePending(ctx context.Context, chatID int64) {
	pending, err := b.topUps.Pending(ctx)
	if err != nil {
		b.log.Error("list pending top-ups", "err", err)
		b.sendText(chatID, "Gagal membaca antrian top-up.")
		return
	}
	if len(pending) == 0 {
		b.sendText(chatID, "Tidak ada top-up yang menunggu.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Top-up menunggu: %d\n", len(pending))
	for i, trx := range pending {
		if i == maxPendingListed {
			fmt.Fprintf(&sb, "\n…dan %d lainnya", len(pending)-maxPendingListed)
			break
		}
		fmt.Fprintf(&sb, "\n%s\n%s · %s · %s · %s\n", trx.ID, trx.Username, formatAmount(trx.Amount, b.currency), trx.PaymentMethod, trx.Timestamp.Format(time.DateTime))
	}
	b.sendText(chatID, sb.String())
}

func (b *Bot) handleResolve(ctx context.Context, chatID int64, id string, approve bool) {
	if id == "" {
		b.sendText(chatID, "Sertakan ID top-up, contoh: /approve TOP-...")
		return
	}

	var (
		res *service.TopUpResolution
		err error
	)
	if approve {
		res, err = b.topUps.Approve(ctx, id)
	} else {
		res, err = b.topUps.Reject(ctx, id)
	}
	switch {
	case errors.Is(err, service.ErrTopUpNotFound):
		b.sendText(chatID, "Top-up tidak ditemukan.")
		return
	case errors.Is(err, service.ErrTopUpResolved):
		b.sendText(chatID, "Top-up ini sudah diproses.")
		return
	case err != nil:
		b.log.Error("resolve top-up", "id", id, "approve", approve, "err", err)
		b.sendText(chatID, "Gagal memproses top-up.")
		return
	}

	trx := res.Transaction
	switch {
	case approve && res.Credited:
		b.sendText(chatID, fmt.Sprintf("Top-up %s disetujui. Saldo %s bertambah %s.", trx.ID, trx.Username, formatAmount(trx.Amount, b.currency)))
	case approve:
		b.sendText(chatID, fmt.Sprintf("User %s tidak ditemukan. Top-up %s ditutup tanpa saldo.", trx.Username, trx.ID))
	default:
		b.sendText(chatID, fmt.Sprintf("Top-up %s ditolak.", trx.ID))
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		b.log.Error("send message", "chat_id", chatID, "err", err)
	}
}

// formatAmount renders 10417 as "Rp 10.417" for IDR and "10,417 USD" otherwise.
func formatAmount(amount int64, currency string) string {
	sep := ","
	if currency == "" || strings.EqualFold(currency, "IDR") {
		sep = "."
	}
	digits := strconv.FormatInt(amount, 10)
	neg := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")

	var sb strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			sb.WriteString(sep)
		}
		sb.WriteRune(r)
	}
	out := sb.String()
	if neg {
		out = "-" + out
	}
	if sep == "." {
		return "Rp " + out
	}
	return out + " " + currency
}
