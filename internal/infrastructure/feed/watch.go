package feed

import (
	"context"
	"fmt"
	"medreminder/internal/domain/repository"
	"medreminder/internal/pkg/logger"
	"sync"
)

// Loader reads the current full collection of one owner.
type Loader func(ctx context.Context) (repository.Snapshot, error)

type watch struct {
	out    chan repository.Snapshot
	stop   chan struct{}
	once   sync.Once
	cancel context.CancelFunc
}

func (w *watch) C() <-chan repository.Snapshot { return w.out }

func (w *watch) Stop() {
	w.once.Do(func() {
		close(w.stop)
		w.cancel()
	})
}

// Watch turns change signals for ownerID into a Subscription of full
// snapshots. The first snapshot is loaded with ctx before Watch returns so
// load errors surface to the caller; later loads run until Stop is called,
// independent of ctx. A failed reload is logged and the previous snapshot
// stays current until the next signal.
func Watch(ctx context.Context, f Feed, ownerID string, load Loader, log logger.Logger) (repository.Subscription, error) {
	signals, release := f.Subscribe(ownerID)

	first, err := load(ctx)
	if err != nil {
		release()
		return nil, err
	}

	loadCtx, cancel := context.WithCancel(context.Background())
	w := &watch{
		out:    make(chan repository.Snapshot),
		stop:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer close(w.out)
		defer release()

		pending, has := first, true
		for {
			if has {
				select {
				case w.out <- pending:
					pending, has = nil, false
				case <-signals:
					// A newer change arrived before the consumer took the
					// pending snapshot; replace it.
					if snap, err := load(loadCtx); err == nil {
						pending = snap
					} else if loadCtx.Err() == nil {
						log.Error(fmt.Sprintf("Failed to reload medications for owner %s", ownerID), err)
					}
				case <-w.stop:
					return
				}
				continue
			}

			select {
			case <-signals:
				snap, err := load(loadCtx)
				if err != nil {
					if loadCtx.Err() == nil {
						log.Error(fmt.Sprintf("Failed to reload medications for owner %s", ownerID), err)
					}
					continue
				}
				pending, has = snap, true
			case <-w.stop:
				return
			}
		}
	}()

	return w, nil
}
