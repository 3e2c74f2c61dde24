package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"sovereign-veritas/internal/domain"
	"sovereign-veritas/internal/service"

	tele "gopkg.in/telebot.v3"
)

// TelegramBot answers /validate queries and pushes data quality alerts to a
// configured chat.
type TelegramBot struct {
	bot         *tele.Bot
	alertChatID int64
}

func StartTelegramBot(validation *service.ValidationService) *TelegramBot {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	tb := &TelegramBot{bot: b}
	if v := os.Getenv("TELEGRAM_ALERT_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			tb.alertChatID = id
		} else {
			log.Printf("Warning: invalid TELEGRAM_ALERT_CHAT_ID=%q, alerts disabled", v)
		}
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/validate", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send(fmt.Sprintf("Usage: /validate BTC\nSupported: %s", strings.Join(domain.SupportedSymbols, ", ")))
		}
		symbol := strings.ToUpper(args[0])
		if !domain.IsSupportedSymbol(symbol) {
			return c.Send(fmt.Sprintf("Unknown symbol: %s\nSupported: %s", symbol, strings.Join(domain.SupportedSymbols, ", ")))
		}
		res, err := validation.Validate(context.Background(), symbol, nil)
		if err != nil {
			return c.Send(fmt.Sprintf("Error validating %s: %v", symbol, err))
		}
		return c.Send(res.Summary)
	})

	b.Handle("/quality", func(c tele.Context) error {
		args := c.Args()
		if len(args) == 0 {
			return c.Send(fmt.Sprintf("Usage: /quality ETH\nSupported: %s", strings.Join(domain.SupportedSymbols, ", ")))
		}
		symbol := strings.ToUpper(args[0])
		if !domain.IsSupportedSymbol(symbol) {
			return c.Send(fmt.Sprintf("Unknown symbol: %s\nSupported: %s", symbol, strings.Join(domain.SupportedSymbols, ", ")))
		}
		res, err := validation.Validate(context.Background(), symbol, nil)
		if err != nil {
			return c.Send(fmt.Sprintf("Error validating %s: %v", symbol, err))
		}
		return c.Send(validation.Narrative(context.Background(), res))
	})

	log.Println("Telegram bot started")
	go b.Start()
	return tb
}

// SendAlert pushes a message to the alert chat. Safe to call on a nil bot or
// without a configured chat.
func (tb *TelegramBot) SendAlert(text string) {
	if tb == nil || tb.bot == nil || tb.alertChatID == 0 {
		return
	}
	if _, err := tb.bot.Send(&tele.Chat{ID: tb.alertChatID}, text); err != nil {
		log.Printf("Failed to send Telegram alert: %v", err)
	}
}
