package notifications

import "cinelog/internal/database/models"

// Notifier pushes watchlist events to the user's devices. Delivery is best
// effort: failures are logged by implementations and never surface to the
// command that triggered them.
type Notifier interface {
	NotifyAdded(item *models.MediaItem, status models.WatchStatus)
	NotifyWatched(item *models.MediaItem)
	Test() error
}
