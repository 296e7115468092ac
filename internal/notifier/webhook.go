package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type ipChangePayload struct {
	OwnerUUID string `json:"owner_uuid"`
	NewIP     string `json:"new_ip"`
	OldIP     string `json:"old_ip"`
	Timestamp int64  `json:"timestamp"`
}

// defaultTimeout применяется, когда в конфигурации таймаут не задан
const defaultTimeout = 5 * time.Second

// NotifyWebhook отправляет уведомление о попытке обновления токена с нового IP.
// Вызывается в отдельной горутине, сам запрос обновления не блокирует
func NotifyWebhook(url string, timeout time.Duration, ownerUUID string, newIP string, oldIP string) error {
	if url == "" {
		return nil
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	payload := ipChangePayload{
		OwnerUUID: ownerUUID,
		NewIP:     newIP,
		OldIP:     oldIP,
		Timestamp: time.Now().UnixMilli(),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("ошибка сериализации webhook: %w", err)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("ошибка отправки webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook вернул статус %d", resp.StatusCode)
	}

	return nil
}
