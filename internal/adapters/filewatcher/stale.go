package filewatcher

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/0xcro3dile/ragchat/internal/domain/ports"
)

// DefaultQuietPeriod groups a burst of file events into one warning.
const DefaultQuietPeriod = 2 * time.Second

// StaleNotifier reports that the data directory changed after the index was persisted.
// The index is never rebuilt automatically; this only tells the operator to run reindex.
type StaleNotifier struct {
	watcher ports.FileWatcher
	quiet   time.Duration
	logger  zerolog.Logger
	notify  func(events []ports.FileEvent)
}

// NewStaleNotifier creates a notifier. notify may be nil; it runs after the warning is logged.
func NewStaleNotifier(watcher ports.FileWatcher, quiet time.Duration, logger zerolog.Logger, notify func([]ports.FileEvent)) *StaleNotifier {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	return &StaleNotifier{
		watcher: watcher,
		quiet:   quiet,
		logger:  logger.With().Str("component", "stale_notifier").Logger(),
		notify:  notify,
	}
}

// Run watches dir until ctx is done. One warning is logged per burst of events.
func (n *StaleNotifier) Run(ctx context.Context, dir string) error {
	events, err := n.watcher.Watch(ctx, dir)
	if err != nil {
		return err
	}
	defer n.watcher.Stop()

	var (
		pending []ports.FileEvent
		timer   *time.Timer
		fire    <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			pending = append(pending, ev)
			if timer == nil {
				timer = time.NewTimer(n.quiet)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(n.quiet)
			}
			fire = timer.C
		case <-fire:
			n.logger.Warn().
				Int("changes", len(pending)).
				Str("last", pending[len(pending)-1].Path).
				Str("op", pending[len(pending)-1].Operation.String()).
				Msg("data directory changed; the persisted index is kept as is until `ragchat reindex`")
			if n.notify != nil {
				n.notify(pending)
			}
			pending = nil
			fire = nil
		}
	}
}
