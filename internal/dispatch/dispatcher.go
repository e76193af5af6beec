// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package dispatch runs request work on a bounded pool: a fixed set of
// workers drains a FIFO queue, one dedicated worker serves a separate
// priority queue, and a watchdog grows the pool when the queue front
// sits unserved for too long.
package dispatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MKhiriev/go-groupware-sync/internal/config"
	"github.com/MKhiriev/go-groupware-sync/internal/logger"
)

// Task is one unit of queued work.
type Task func()

// ErrDispatcherClosed is returned by Submit after Shutdown started.
var ErrDispatcherClosed = errors.New("dispatcher is shut down")

type queuedTask struct {
	run      Task
	enqueued time.Time
}

// Dispatcher owns the worker pool. All queue state is guarded by mu;
// workers sleep on cond, the priority worker on prioCond.
type Dispatcher struct {
	mu       sync.Mutex
	cond     *sync.Cond
	prioCond *sync.Cond

	queue     []queuedTask
	prioQueue []queuedTask

	// target is the nominal pool size; workers holds the current count
	// including watchdog-added surplus workers, which exit as soon as
	// they find the queue empty.
	target  int
	workers int
	closed  bool

	wg     sync.WaitGroup
	stopWd chan struct{}

	watchdogMaxAge   time.Duration
	watchdogInterval time.Duration

	logger *logger.Logger
}

// NewDispatcher starts the pool: cfg.Workers queue workers, one
// priority worker, and the watchdog.
func NewDispatcher(cfg config.Dispatch, log *logger.Logger) *Dispatcher {
	d := &Dispatcher{
		target:           cfg.Workers,
		stopWd:           make(chan struct{}),
		watchdogMaxAge:   cfg.WatchdogMaxAge,
		watchdogInterval: cfg.WatchdogInterval,
		logger:           log,
	}
	d.cond = sync.NewCond(&d.mu)
	d.prioCond = sync.NewCond(&d.mu)

	d.mu.Lock()
	for i := 0; i < d.target; i++ {
		d.addWorkerLocked()
	}
	d.mu.Unlock()

	d.wg.Add(1)
	go d.priorityWorker()

	d.wg.Add(1)
	go d.watchdog()

	log.Info().
		Str("func", "NewDispatcher").
		Int("workers", cfg.Workers).
		Msg("dispatcher started")

	return d
}

// Submit queues fn. Priority tasks go to the dedicated worker's queue
// and never wait behind regular work.
func (d *Dispatcher) Submit(fn Task, priority bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrDispatcherClosed
	}

	item := queuedTask{run: fn, enqueued: time.Now()}
	if priority {
		d.prioQueue = append(d.prioQueue, item)
		d.prioCond.Signal()
		return nil
	}

	d.queue = append(d.queue, item)
	d.cond.Signal()
	return nil
}

// QueueLen reports the current length of the regular queue.
func (d *Dispatcher) QueueLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Shutdown stops accepting work and waits for the workers to finish
// what is already queued, or for ctx to expire.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.stopWd)
	d.cond.Broadcast()
	d.prioCond.Broadcast()
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info().Str("func", "Dispatcher.Shutdown").Msg("dispatcher stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// addWorkerLocked starts one queue worker. Caller holds mu.
func (d *Dispatcher) addWorkerLocked() {
	d.workers++
	d.wg.Add(1)
	go d.worker()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		for len(d.queue) == 0 && !d.closed {
			// Surplus workers retire once there is nothing left to
			// drain; the nominal pool keeps waiting.
			if d.workers > d.target {
				d.workers--
				d.mu.Unlock()
				return
			}
			d.cond.Wait()
		}
		if len(d.queue) == 0 && d.closed {
			d.workers--
			d.mu.Unlock()
			return
		}

		item := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()

		item.run()
	}
}

func (d *Dispatcher) priorityWorker() {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		for len(d.prioQueue) == 0 && !d.closed {
			d.prioCond.Wait()
		}
		if len(d.prioQueue) == 0 && d.closed {
			d.mu.Unlock()
			return
		}

		item := d.prioQueue[0]
		d.prioQueue = d.prioQueue[1:]
		d.mu.Unlock()

		item.run()
	}
}

// watchdog samples the age of the regular queue's front item and adds a
// surplus worker whenever the front has waited longer than the
// configured maximum, meaning every nominal worker is busy on slow work.
func (d *Dispatcher) watchdog() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.watchdogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopWd:
			return
		case <-ticker.C:
		}

		d.mu.Lock()
		if len(d.queue) > 0 && time.Since(d.queue[0].enqueued) > d.watchdogMaxAge {
			d.addWorkerLocked()
			d.logger.Warn().
				Str("func", "Dispatcher.watchdog").
				Int("workers", d.workers).
				Dur("front_age", time.Since(d.queue[0].enqueued)).
				Msg("queue front overdue, added surplus worker")
		}
		d.mu.Unlock()
	}
}
