package update

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// AsyncPool runs submitted tasks on background goroutines, at most size at a
// time. It implements TaskRunner and can be reused after Wait.
type AsyncPool struct {
	sem chan struct{}
	wg  sync.WaitGroup
	log logrus.FieldLogger
}

// NewAsyncPool creates a pool running up to size tasks concurrently.
// A size below 1 is treated as 1.
func NewAsyncPool(size int) *AsyncPool {
	if size < 1 {
		size = 1
	}
	return &AsyncPool{
		sem: make(chan struct{}, size),
		log: logrus.StandardLogger(),
	}
}

// WithLogger sets the logger panics are reported to.
func (p *AsyncPool) WithLogger(log logrus.FieldLogger) *AsyncPool {
	p.log = log
	return p
}

// Submit queues task and returns immediately. Every submitted task runs, even
// when ctx is already cancelled, so completion callbacks always fire. A
// panicking task is recovered and logged.
func (p *AsyncPool) Submit(ctx context.Context, task func(context.Context)) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		p.sem <- struct{}{}
		defer func() { <-p.sem }()

		defer func() {
			if r := recover(); r != nil {
				p.log.WithField("panic", fmt.Sprint(r)).Error("Background task panicked")
			}
		}()

		task(ctx)
	}()
}

// Wait blocks until every submitted task has finished.
func (p *AsyncPool) Wait() {
	p.wg.Wait()
}
