package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/evn/appgate/internal/models"
)

const defaultAPIBase = "https://api.telegram.org"

// TelegramNotifier pushes gate-change alerts into the ops chat. With an
// empty token or chat ID it stays silent, so local setups need no bot.
type TelegramNotifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

func NewTelegramNotifier(botToken, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (n *TelegramNotifier) Enabled() bool {
	return n.botToken != "" && n.chatID != ""
}

// GateUpdated announces operator-visible changes. Routine edits such as a
// new latest version are not worth paging about; maintenance flips and
// hard floor moves are.
func (n *TelegramNotifier) GateUpdated(old, updated *models.VersionGate) {
	if !n.Enabled() || updated == nil {
		return
	}

	var text string
	switch {
	case old == nil:
		text = fmt.Sprintf("New version gate for %s: latest %s, minimum %s, force minimum %s",
			updated.Platform, updated.LatestVersion, updated.MinimumVersion, updated.ForceMinimumVersion)
	case !old.MaintenanceMode && updated.MaintenanceMode:
		text = fmt.Sprintf("%s is now in maintenance mode: %s", updated.Platform, updated.MaintenanceMessage)
	case old.MaintenanceMode && !updated.MaintenanceMode:
		text = fmt.Sprintf("%s maintenance mode lifted", updated.Platform)
	case old.ForceMinimumVersion != updated.ForceMinimumVersion:
		text = fmt.Sprintf("%s force minimum moved from %s to %s",
			updated.Platform, old.ForceMinimumVersion, updated.ForceMinimumVersion)
	default:
		return
	}

	n.send(text)
}

// GateDeleted announces that a platform gate was removed entirely.
func (n *TelegramNotifier) GateDeleted(platform string) {
	if !n.Enabled() {
		return
	}
	n.send(fmt.Sprintf("Version gate for %s was deleted, checks will return 404", platform))
}

func (n *TelegramNotifier) send(text string) {
	payload, _ := json.Marshal(map[string]string{
		"chat_id": n.chatID,
		"text":    text,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, n.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		log.Printf("Failed to build Telegram request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		log.Printf("Failed to send Telegram alert: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Telegram alert rejected with status %d", resp.StatusCode)
	}
}
