package notifications

import (
	"fmt"

	"github.com/xconstruct/go-pushbullet"

	"cinelog/internal/database/models"
	"cinelog/internal/utils"
)

// PushbulletClient implements the Notifier interface for Pushbullet.
type PushbulletClient struct {
	pb     *pushbullet.Client
	logger *utils.Logger
}

// NewPushbulletClient creates a new client for sending Pushbullet notifications.
func NewPushbulletClient(apiKey string, logger *utils.Logger) *PushbulletClient {
	return &PushbulletClient{
		pb:     pushbullet.New(apiKey),
		logger: logger,
	}
}

// sendPush sends a note to all of the user's devices.
func (c *PushbulletClient) sendPush(title, body string) error {
	// The first argument to PushNote is the device iden. Empty means all devices.
	return c.pb.PushNote("", title, body)
}

// NotifyAdded sends a notification when an item lands on the watchlist.
func (c *PushbulletClient) NotifyAdded(item *models.MediaItem, status models.WatchStatus) {
	title := fmt.Sprintf("Added to watchlist: %s", item.Title)
	body := fmt.Sprintf("%s (%s) added with status %s", item.Title, item.Kind, status)
	if err := c.sendPush(title, body); err != nil {
		c.logger.Error("Error sending Pushbullet notification:", err)
	}
}

// NotifyWatched sends a notification when an item is marked Watched.
func (c *PushbulletClient) NotifyWatched(item *models.MediaItem) {
	title := fmt.Sprintf("Finished: %s", item.Title)
	body := fmt.Sprintf("%s marked as watched", item.Title)
	if err := c.sendPush(title, body); err != nil {
		c.logger.Error("Error sending Pushbullet notification:", err)
	}
}

// Test verifies the API key is valid by fetching user info.
func (c *PushbulletClient) Test() error {
	if _, err := c.pb.Me(); err != nil {
		return fmt.Errorf("pushbullet authentication failed: %w", err)
	}
	return nil
}
