package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 20 * time.Millisecond

// fileLock serializes store access within the process through a one-slot
// semaphore and across processes through an advisory lock beside the data file.
type fileLock struct {
	sem  chan struct{}
	file *flock.Flock
}

func newFileLock(dataPath string) *fileLock {
	return &fileLock{
		sem:  make(chan struct{}, 1),
		file: flock.New(dataPath + ".lock"),
	}
}

func (l *fileLock) Lock(ctx context.Context) (func(), error) {
	select {
	case l.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("lock store: %w", ctx.Err())
	}
	locked, err := l.file.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		<-l.sem
		if err == nil {
			err = ctx.Err()
		}
		return nil, fmt.Errorf("lock store %s: %w", l.file.Path(), err)
	}
	return func() {
		_ = l.file.Unlock()
		<-l.sem
	}, nil
}

func (l *fileLock) Close() error {
	return l.file.Close()
}
