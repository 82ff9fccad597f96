package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Message is an inbound chat message.
type Message struct {
	ChatID   int64
	UserID   int64
	Username string
	Text     string
}

// CommandHandler is called for every inbound text message. A non-empty reply
// is sent back to the originating chat.
type CommandHandler func(ctx context.Context, msg Message) string

// telegramUpdate represents a Telegram update from long polling.
type telegramUpdate struct {
	UpdateID int `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		From *struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
		} `json:"from"`
	} `json:"message"`
}

type updatesResponse struct {
	OK          bool             `json:"ok"`
	Description string           `json:"description"`
	Result      []telegramUpdate `json:"result"`
}

// PollTimeout is the long-poll wait passed to getUpdates.
var PollTimeout = 30 * time.Second

func (t *TelegramNotifier) getUpdates(ctx context.Context, client *http.Client, offset int, wait time.Duration) ([]telegramUpdate, error) {
	apiURL := fmt.Sprintf("%s?offset=%d&timeout=%d", t.endpoint("getUpdates"), offset, int(wait.Seconds()))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create polling request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read polling response: %w", err)
	}

	var result updatesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode polling response: %w", err)
	}
	if !result.OK {
		return nil, fmt.Errorf("getUpdates: %s", result.Description)
	}
	return result.Result, nil
}

// skipPending returns the offset just past the newest queued update so a
// restart does not replay commands sent while the bot was down.
func (t *TelegramNotifier) skipPending(ctx context.Context, client *http.Client) int {
	updates, err := t.getUpdates(ctx, client, -1, 0)
	if err != nil || len(updates) == 0 {
		return 0
	}
	return updates[len(updates)-1].UpdateID + 1
}

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is
// cancelled. With dropPending set, updates queued before start are ignored.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler, dropPending bool) {
	client := &http.Client{Timeout: PollTimeout + 5*time.Second, Transport: t.Client.Transport}

	offset := 0
	if dropPending {
		offset = t.skipPending(ctx, client)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("telegram polling stopped")
			return
		default:
		}

		updates, err := t.getUpdates(ctx, client, offset, PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn().Err(err).Msg("polling request failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
			continue
		}

		for _, update := range updates {
			offset = update.UpdateID + 1
			m := update.Message
			if m == nil || m.Text == "" {
				continue
			}
			msg := Message{ChatID: m.Chat.ID, Text: strings.TrimSpace(m.Text)}
			if m.From != nil {
				msg.UserID = m.From.ID
				msg.Username = m.From.Username
			}
			log.Info().Int64("chat_id", msg.ChatID).Int64("user_id", msg.UserID).Str("text", msg.Text).Msg("received message")

			reply := handler(ctx, msg)
			if reply != "" {
				if err := t.Send(ctx, msg.ChatID, reply); err != nil {
					log.Error().Err(err).Int64("chat_id", msg.ChatID).Msg("send reply")
				}
			}
		}
	}
}
