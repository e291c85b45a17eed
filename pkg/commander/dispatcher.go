package commander

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/newtron-network/commander/pkg/hostfile"
	"github.com/newtron-network/commander/pkg/util"
)

// DefaultMaxParallel bounds concurrent targets when no -p is given.
const DefaultMaxParallel = 10

// Executor runs a job against a single target.
type Executor interface {
	Execute(ctx context.Context, target hostfile.Target, job *Job) error
}

// Dispatcher fans a job out over a target sequence with at most MaxParallel
// targets in flight.
type Dispatcher struct {
	exec        Executor
	maxParallel int
	limiter     *rate.Limiter
}

// Summary counts the targets of a finished run.
type Summary struct {
	Targets int
	Failed  int
}

// NewDispatcher creates a Dispatcher. maxParallel <= 0 selects DefaultMaxParallel.
func NewDispatcher(exec Executor, maxParallel int) *Dispatcher {
	if maxParallel <= 0 {
		maxParallel = DefaultMaxParallel
	}
	return &Dispatcher{exec: exec, maxParallel: maxParallel}
}

// MaxParallel returns the pool bound.
func (d *Dispatcher) MaxParallel() int {
	return d.maxParallel
}

// SetConnectRate paces task starts to perSecond; 0 removes the limit.
func (d *Dispatcher) SetConnectRate(perSecond float64) {
	if perSecond <= 0 {
		d.limiter = nil
		return
	}
	d.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
}

// Run starts one task per target in sequence order and returns once every
// task has finished. A slot is taken before each task is started, so tasks
// start in the order the sequence yields them. A failing target never
// cancels its siblings.
func (d *Dispatcher) Run(ctx context.Context, targets iter.Seq[hostfile.Target], job *Job) Summary {
	sem := semaphore.NewWeighted(int64(d.maxParallel))
	var (
		wg     sync.WaitGroup
		total  int
		failed atomic.Int64
	)

	for t := range targets {
		total++
		if err := d.admit(ctx, sem); err != nil {
			util.WithTarget(t.Address, string(t.Kind)).Warnf("not started: %v", err)
			failed.Add(1)
			continue
		}
		wg.Add(1)
		go func(t hostfile.Target) {
			defer wg.Done()
			defer sem.Release(1)
			if err := d.run(ctx, t, job); err != nil {
				failed.Add(1)
			}
		}(t)
	}
	wg.Wait()

	return Summary{Targets: total, Failed: int(failed.Load())}
}

// admit blocks until a pool slot is free and the connect rate allows a start.
func (d *Dispatcher) admit(ctx context.Context, sem *semaphore.Weighted) error {
	if err := sem.Acquire(ctx, 1); err != nil {
		return err
	}
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			sem.Release(1)
			return err
		}
	}
	return nil
}

func (d *Dispatcher) run(ctx context.Context, t hostfile.Target, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			util.WithTarget(t.Address, string(t.Kind)).Errorf("task panic: %v", r)
			err = fmt.Errorf("task panic: %v", r)
		}
	}()
	return d.exec.Execute(ctx, t, job)
}
