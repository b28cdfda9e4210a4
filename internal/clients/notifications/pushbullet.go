package notifications

import (
	"fmt"

	"flicks/internal/utils"

	"github.com/xconstruct/go-pushbullet"
)

// PushbulletClient implements the Notifier interface for Pushbullet.
type PushbulletClient struct {
	pb     *pushbullet.Client
	logger *utils.Logger
}

func NewPushbulletClient(apiKey string, logger *utils.Logger) *PushbulletClient {
	return &PushbulletClient{
		pb:     pushbullet.New(apiKey),
		logger: logger,
	}
}

// sendPush sends a note to all of the user's devices.
func (c *PushbulletClient) sendPush(title, body string) error {
	// Empty device iden means every device.
	return c.pb.PushNote("", title, body)
}

func (c *PushbulletClient) NotifyDegraded(reason string) {
	title := "Flicks: using fallback data"
	body := fmt.Sprintf("Trending movies could not be fetched from the provider: %s", reason)
	if err := c.sendPush(title, body); err != nil {
		c.logger.Error("Error sending Pushbullet notification", "error", err)
	}
}

func (c *PushbulletClient) NotifyRecovered(movies int) {
	title := "Flicks: provider back"
	body := fmt.Sprintf("Trending is live again with %d movies.", movies)
	if err := c.sendPush(title, body); err != nil {
		c.logger.Error("Error sending Pushbullet notification", "error", err)
	}
}

// Test verifies the API key is valid by fetching user info.
func (c *PushbulletClient) Test() error {
	if _, err := c.pb.Me(); err != nil {
		return fmt.Errorf("pushbullet authentication failed: %w", err)
	}
	return nil
}
