package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/czhen/papertrader/internal/config"
	"github.com/czhen/papertrader/internal/logger"
)

// Notifier pushes loop lifecycle and order events to a Telegram chat. When
// disabled (or the bot cannot be created) every call is a no-op.
type Notifier struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	enabled bool
	logger  *logger.Logger
}

func NewNotifier(cfg *config.Config, log *logger.Logger) *Notifier {
	if !cfg.Telegram.Enabled {
		return &Notifier{enabled: false, logger: log}
	}

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		log.Error("failed to create telegram bot", "error", err)
		return &Notifier{enabled: false, logger: log}
	}

	log.Info("telegram bot connected", "username", bot.Self.UserName)

	return &Notifier{
		bot:     bot,
		chatID:  cfg.Telegram.ChatID,
		enabled: true,
		logger:  log,
	}
}

func (n *Notifier) NotifyStatus(message string) {
	n.send("ℹ️ " + message)
}

func (n *Notifier) NotifyBuy(stockCode string, price float64, shares int64, message string) {
	n.send(fmt.Sprintf("🟢 *BUY* %s\nPrice: %.2f\nShares: %d\n%s", stockCode, price, shares, message))
}

func (n *Notifier) NotifySell(stockCode string, price float64, shares int64, message string) {
	n.send(fmt.Sprintf("🔴 *SELL* %s\nPrice: %.2f\nShares: %d\n%s", stockCode, price, shares, message))
}

func (n *Notifier) NotifyError(context string, err error) {
	n.send(fmt.Sprintf("⚠️ *Error* [%s]\n%v", context, err))
}

func (n *Notifier) send(text string) {
	if !n.enabled {
		return
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.bot.Send(msg); err != nil {
		n.logger.Error("send telegram message", "error", err)
	}
}
