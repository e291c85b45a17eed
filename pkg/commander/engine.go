package commander

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/newtron-network/commander/pkg/audit"
	"github.com/newtron-network/commander/pkg/device"
	"github.com/newtron-network/commander/pkg/hostfile"
	"github.com/newtron-network/commander/pkg/util"
)

// State is the lifecycle position of one target within a run.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateExecuting
	StateDisconnecting
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateExecuting:
		return "executing"
	case StateDisconnecting:
		return "disconnecting"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Engine drives one target from connect to disconnect. A single Engine is
// shared by every task of a run; it holds no per-target state.
type Engine struct {
	Dialer   device.Dialer
	Reporter Reporter
	Errors   *ErrorLog

	// Audit, when set, receives one event per target.
	Audit audit.Logger
	// RunID tags audit events so a batch can be queried as a unit.
	RunID string
	// Observer, when set, is called on every state transition.
	Observer func(target hostfile.Target, state State)

	now func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(dialer device.Dialer, reporter Reporter, errs *ErrorLog) *Engine {
	return &Engine{
		Dialer:   dialer,
		Reporter: reporter,
		Errors:   errs,
		now:      time.Now,
	}
}

// Execute runs job against target. Every failure is reported, written to
// the error log and returned; it never escapes as a panic and never affects
// other targets. The session, once opened, is always closed.
func (e *Engine) Execute(ctx context.Context, target hostfile.Target, job *Job) (err error) {
	start := e.now()
	var sess device.Session

	defer func() {
		if r := recover(); r != nil {
			util.WithTarget(target.Address, string(target.Kind)).Errorf("panic: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("internal error: %v", r)
		}
		if err != nil {
			e.fail(target, err)
		}
		if sess != nil {
			e.disconnect(target, sess)
		}
		e.transition(target, StateDone)
		e.audit(target, job, start, err)
	}()

	e.transition(target, StateConnecting)
	s, err := e.Dialer.Dial(ctx, target.Kind, target.Address, job.Credentials)
	if err != nil {
		if !errors.Is(err, util.ErrConnect) {
			err = util.NewConnectError(target.Address, err)
		}
		return err
	}
	sess = s

	e.transition(target, StateConnected)
	e.Reporter.Connected(target.Address, e.now())

	e.transition(target, StateExecuting)
	switch job.Mode {
	case ModeShow:
		return e.runShow(ctx, target, job, sess)
	case ModeConfig:
		return e.runConfig(ctx, target, job, sess)
	}
	return fmt.Errorf("unknown mode %q", job.Mode)
}

// runShow sends commands in order and stops at the first failure.
func (e *Engine) runShow(ctx context.Context, target hostfile.Target, job *Job, sess device.Session) error {
	for _, cmd := range job.Commands.Lines {
		out, err := sess.RunCommand(ctx, cmd)
		if err != nil {
			if !errors.Is(err, util.ErrCommand) {
				err = util.NewCommandError(cmd, out, err)
			}
			return err
		}
		block := showBlock(cmd, out)
		if err := e.emit(target, job, block, block); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) runConfig(ctx context.Context, target hostfile.Target, job *Job, sess device.Session) error {
	out, err := sess.ApplyConfig(ctx, job.Commands.Lines)
	if err != nil {
		if !errors.Is(err, util.ErrConfig) {
			err = util.NewConfigError("", out, err)
		}
		return err
	}
	block := configBlock(out)
	return e.emit(target, job, block, block+"\n\n")
}

// emit appends block to the host log and shows screen on the console.
func (e *Engine) emit(target hostfile.Target, job *Job, block, screen string) error {
	if job.Output.WriteToFile {
		if err := appendHostLog(job.Output.Dir, target.Address, block); err != nil {
			return err
		}
	}
	if job.Output.PrintToScreen {
		e.Reporter.Output(target.Address, screen)
	}
	return nil
}

func (e *Engine) fail(target hostfile.Target, err error) {
	e.transition(target, StateFailed)
	at := e.now()
	e.Reporter.Failed(target.Address, err, at)
	if e.Errors == nil {
		return
	}
	if werr := e.Errors.Record(target.Address, err, at); werr != nil {
		util.WithTarget(target.Address, string(target.Kind)).Errorf("error log: %v", werr)
	}
}

// disconnect closes sess best-effort; errors and panics are logged only.
func (e *Engine) disconnect(target hostfile.Target, sess device.Session) {
	log := util.WithTarget(target.Address, string(target.Kind))
	e.transition(target, StateDisconnecting)

	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Warnf("panic during disconnect: %v", r)
			}
		}()
		if err := sess.Close(); err != nil {
			log.Warnf("disconnect: %v", err)
		}
	}()
	e.Reporter.Disconnected(target.Address, e.now())
}

func (e *Engine) transition(target hostfile.Target, state State) {
	util.WithTarget(target.Address, string(target.Kind)).Debugf("state %s", state)
	if e.Observer != nil {
		e.Observer(target, state)
	}
}

func (e *Engine) audit(target hostfile.Target, job *Job, start time.Time, err error) {
	if e.Audit == nil {
		return
	}
	event := audit.NewEvent(job.Credentials.Username, target.Address, string(job.Mode)).
		WithRun(e.RunID).
		WithKind(string(target.Kind)).
		WithCommands(len(job.Commands.Lines)).
		WithDuration(e.now().Sub(start))
	if err != nil {
		event.WithError(err)
	} else {
		event.WithSuccess()
	}
	if lerr := e.Audit.Log(event); lerr != nil {
		util.WithTarget(target.Address, string(target.Kind)).Warnf("audit log: %v", lerr)
	}
}
