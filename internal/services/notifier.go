package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/bobby-s-dev/cloudburst/internal/models"
	"github.com/bobby-s-dev/cloudburst/internal/observability"
	"github.com/bobby-s-dev/cloudburst/internal/preferences"
	"github.com/bobby-s-dev/cloudburst/pkg/client"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type ConditionSource interface {
	GetCondition(ctx context.Context, city string) (*client.Condition, error)
}

// Notifier polls short condition summaries and keeps a bounded feed of
// messages, newest first.
type Notifier struct {
	source  ConditionSource
	prefs   preferences.Preferences
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *zap.Logger

	mu       sync.RWMutex
	feed     []models.Notification
	feedSize int
}

func NewNotifier(source ConditionSource, prefs preferences.Preferences, feedSize int, clock clockwork.Clock, metrics *observability.Metrics, logger *zap.Logger) *Notifier {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if feedSize <= 0 {
		feedSize = 50
	}
	return &Notifier{
		source:   source,
		prefs:    prefs,
		clock:    clock,
		metrics:  metrics,
		logger:   logger,
		feedSize: feedSize,
	}
}

func (n *Notifier) Enabled() bool {
	return n.source != nil && n.prefs.NotificationsEnabled
}

// Poll fetches a condition for every city and appends one message per
// successful lookup. It returns the number of messages added.
func (n *Notifier) Poll(ctx context.Context, cities []string) int {
	if !n.Enabled() {
		n.logger.Debug("Notifications disabled, skipping poll")
		return 0
	}

	added := 0
	for _, city := range cities {
		if ctx.Err() != nil {
			break
		}

		cond, err := n.source.GetCondition(ctx, city)
		if err != nil {
			n.logger.Warn("Failed to fetch notification condition",
				zap.String("city", city),
				zap.Error(err))
			continue
		}

		n.push(models.Notification{
			ID:        uuid.NewString(),
			City:      city,
			Message:   ComposeMessage(city, cond),
			CreatedAt: n.clock.Now().UTC(),
		})
		added++
	}

	n.metrics.Notifications.Add(float64(added))
	return added
}

func (n *Notifier) push(item models.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.feed = append([]models.Notification{item}, n.feed...)
	if len(n.feed) > n.feedSize {
		n.feed = n.feed[:n.feedSize]
	}
}

// Feed returns a copy of the feed, newest first.
func (n *Notifier) Feed() []models.Notification {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]models.Notification{}, n.feed...)
}

// ComposeMessage picks the notification text. Later matches win, so a
// "cloudy with rain" condition reads as cloudy.
func ComposeMessage(city string, cond *client.Condition) string {
	text := strings.ToLower(cond.Text)

	message := fmt.Sprintf("Weather in %s: %s, %s°C.", city, cond.Text, strconv.FormatFloat(cond.TempC, 'f', -1, 64))
	if strings.Contains(text, "rain") {
		message = fmt.Sprintf("🌧️ Don't forget your umbrella in %s!", city)
	}
	if strings.Contains(text, "sun") {
		message = fmt.Sprintf("🌞 It's a sunny day in %s, perfect for outdoors!", city)
	}
	if strings.Contains(text, "cloud") {
		message = fmt.Sprintf("☁️ Cloudy vibes in %s today.", city)
	}
	return message
}
