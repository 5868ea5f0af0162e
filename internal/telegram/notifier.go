package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Chase295/pump-platform-sub002/internal/config"
	"github.com/Chase295/pump-platform-sub002/internal/logger"
)

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

func (n *Notifier) NotifyOpen(workflow, assetID string, amount float64, tradeRef string) {
	msg := fmt.Sprintf("🟢 *OPEN* %s\nWorkflow: %s\nAmount: %.4f\nTrade: %s",
		assetID, workflow, amount, tradeRef)
	n.send(msg)
}

func (n *Notifier) NotifyClose(workflow, assetID, rule string, pctFromEntry float64, tradeRef string) {
	emoji := "🔴"
	if pctFromEntry > 0 {
		emoji = "💰"
	}
	msg := fmt.Sprintf("%s *CLOSE* %s\nWorkflow: %s\nRule: %s\nChange: %+.2f%%\nTrade: %s",
		emoji, assetID, workflow, rule, pctFromEntry, tradeRef)
	n.send(msg)
}

func (n *Notifier) NotifyError(context string, err error) {
	msg := fmt.Sprintf("⚠️ *Error* [%s]\n%v", context, err)
	n.send(msg)
}

func (n *Notifier) NotifyStatus(message string) {
	n.send(message)
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
