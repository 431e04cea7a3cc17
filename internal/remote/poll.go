package remote

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/taskpad/taskpad/internal/logger"
)

// DefaultPollInterval is how often polling subscriptions re-run their query.
const DefaultPollInterval = 3 * time.Second

// pollSubscription emulates realtime push over a request/response store by
// re-running the query on an interval and delivering a snapshot whenever the
// result set changes.
type pollSubscription struct {
	stopCh chan struct{}
	once   sync.Once
}

// subscribeByPolling establishes a polling subscription. The initial query
// runs synchronously so subscription failures surface to the caller; later
// query errors are logged and the poller keeps trying.
func subscribeByPolling(ctx context.Context, store Store, interval time.Duration, collection string, filters []Filter, order Order, onSnapshot func([]Document)) (Subscription, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	initial, err := store.Query(ctx, collection, filters, order)
	if err != nil {
		return nil, err
	}
	onSnapshot(initial)

	sub := &pollSubscription{stopCh: make(chan struct{})}
	go sub.loop(store, interval, collection, filters, order, onSnapshot, fingerprint(initial))
	return sub, nil
}

func (p *pollSubscription) loop(store Store, interval time.Duration, collection string, filters []Filter, order Order, onSnapshot func([]Document), last string) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			docs, err := store.Query(context.Background(), collection, filters, order)
			if err != nil {
				logger.Warn("Subscription poll failed",
					logger.F("collection", collection),
					logger.F("error", err))
				continue
			}
			fp := fingerprint(docs)
			if fp == last {
				continue
			}
			last = fp
			select {
			case <-p.stopCh:
				return
			default:
			}
			onSnapshot(docs)
		case <-p.stopCh:
			return
		}
	}
}

// Unsubscribe stops the poller. Safe to call once per the Store contract;
// tolerates a second call rather than panicking on a closed channel.
func (p *pollSubscription) Unsubscribe() {
	p.once.Do(func() { close(p.stopCh) })
}

// fingerprint condenses a snapshot for change detection.
func fingerprint(docs []Document) string {
	data, _ := json.Marshal(docs)
	return string(data)
}
