// Package hooks is a small in-process stand-in for the host's hook system:
// it owns the error, exception and termination callbacks of one request and
// tracks which lifecycle action is running.
package hooks

import (
	"sync"

	"hbrelay/src/model"
)

type (
	ErrorHandler     func(level model.Level, message, file string, line int)
	ExceptionHandler func(class, message, file string, line int, ctx map[string]any)
	ShutdownHandler  func(last *model.Signal)
)

// Host is what a pipeline registers itself with.
type Host interface {
	OnError(ErrorHandler)
	OnException(ExceptionHandler)
	OnShutdown(ShutdownHandler)
	CurrentAction() string
	// ReportingMask is the error_reporting() value while the current
	// callback runs. ok is false when the host did not narrow it.
	ReportingMask() (mask int, ok bool)
}

// Dispatcher is a per-request Host.
type Dispatcher struct {
	mu         sync.Mutex
	errors     []ErrorHandler
	exceptions []ExceptionHandler
	shutdowns  []ShutdownHandler
	actions    []string
	masks      []int
	terminate  sync.Once
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) OnError(h ErrorHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errors = append(d.errors, h)
}

func (d *Dispatcher) OnException(h ExceptionHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.exceptions = append(d.exceptions, h)
}

func (d *Dispatcher) OnShutdown(h ShutdownHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.shutdowns = append(d.shutdowns, h)
}

// DoAction runs fn with name as the current action.
func (d *Dispatcher) DoAction(name string, fn func()) {
	d.mu.Lock()
	d.actions = append(d.actions, name)
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.actions = d.actions[:len(d.actions)-1]
		d.mu.Unlock()
	}()
	fn()
}

// CurrentAction returns the innermost running action, or "".
func (d *Dispatcher) CurrentAction() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.actions) == 0 {
		return ""
	}
	return d.actions[len(d.actions)-1]
}

// WithReportingMask runs fn with mask as the reporting mask, the way the
// @ operator narrows it for a single expression.
func (d *Dispatcher) WithReportingMask(mask int, fn func()) {
	d.mu.Lock()
	d.masks = append(d.masks, mask)
	d.mu.Unlock()

	defer func() {
		d.mu.Lock()
		d.masks = d.masks[:len(d.masks)-1]
		d.mu.Unlock()
	}()
	fn()
}

func (d *Dispatcher) ReportingMask() (int, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.masks) == 0 {
		return 0, false
	}
	return d.masks[len(d.masks)-1], true
}

func (d *Dispatcher) FireError(level model.Level, message, file string, line int) {
	d.mu.Lock()
	handlers := append([]ErrorHandler(nil), d.errors...)
	d.mu.Unlock()
	for _, h := range handlers {
		h(level, message, file, line)
	}
}

func (d *Dispatcher) FireException(class, message, file string, line int, ctx map[string]any) {
	d.mu.Lock()
	handlers := append([]ExceptionHandler(nil), d.exceptions...)
	d.mu.Unlock()
	for _, h := range handlers {
		h(class, message, file, line, ctx)
	}
}

// Terminate runs the shutdown callbacks with the runtime's last error.
// Only the first call has any effect.
func (d *Dispatcher) Terminate(last *model.Signal) {
	d.terminate.Do(func() {
		d.mu.Lock()
		handlers := append([]ShutdownHandler(nil), d.shutdowns...)
		d.mu.Unlock()
		for _, h := range handlers {
			h(last)
		}
	})
}
