// Package reactor implements an observer-manager pattern over the cell
// graph's lifecycle: an Observer hears about cells enabling and
// disabling, values changing, actions being scheduled and fired, and
// timers arming and firing.
package reactor

import (
	"sync"

	"github.com/trettevik/nodebrain/internal/nbcell"
	"github.com/trettevik/nodebrain/internal/nbobject"
)

// Observer is notified of cell graph and rule scheduler lifecycle
// events. Implementations that only care about a subset of events can
// embed NopObserver to satisfy the rest.
type Observer interface {
	OnCellEnabled(c *nbcell.Cell)
	OnCellDisabled(c *nbcell.Cell)
	OnValueChanged(c *nbcell.Cell, old, new *nbobject.Object)
	OnActionScheduled(actionID string, priority int)
	OnActionFired(actionID string, err error)
	OnTimerArmed(cellTypeName string)
	OnTimerFired(cellTypeName string)
	OnAlarm(severity nbobjectSeverity, message string)
}

// nbobjectSeverity avoids importing nblog from reactor (which would
// create an import cycle with engine); it is an int alias the engine
// layer maps to nblog.Level when logging an alarm.
type nbobjectSeverity = int

// NopObserver implements Observer with no-ops; embed it to implement
// only the events a particular observer cares about.
type NopObserver struct{}

func (NopObserver) OnCellEnabled(*nbcell.Cell)                          {}
func (NopObserver) OnCellDisabled(*nbcell.Cell)                         {}
func (NopObserver) OnValueChanged(*nbcell.Cell, *nbobject.Object, *nbobject.Object) {}
func (NopObserver) OnActionScheduled(string, int)                       {}
func (NopObserver) OnActionFired(string, error)                         {}
func (NopObserver) OnTimerArmed(string)                                 {}
func (NopObserver) OnTimerFired(string)                                 {}
func (NopObserver) OnAlarm(int, string)                                 {}

// Manager fans lifecycle events out to every registered Observer, the
// way ObserverManager does for ExecutionObserver.
type Manager struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewManager creates an empty observer Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Add registers an observer.
func (m *Manager) Add(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
}

// Remove unregisters an observer.
func (m *Manager) Remove(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, obs := range m.observers {
		if obs == o {
			m.observers = append(m.observers[:i], m.observers[i+1:]...)
			return
		}
	}
}

func (m *Manager) snapshot() []Observer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Observer, len(m.observers))
	copy(out, m.observers)
	return out
}

func (m *Manager) NotifyCellEnabled(c *nbcell.Cell) {
	for _, o := range m.snapshot() {
		o.OnCellEnabled(c)
	}
}

func (m *Manager) NotifyCellDisabled(c *nbcell.Cell) {
	for _, o := range m.snapshot() {
		o.OnCellDisabled(c)
	}
}

func (m *Manager) NotifyValueChanged(c *nbcell.Cell, old, new *nbobject.Object) {
	for _, o := range m.snapshot() {
		o.OnValueChanged(c, old, new)
	}
}

func (m *Manager) NotifyActionScheduled(actionID string, priority int) {
	for _, o := range m.snapshot() {
		o.OnActionScheduled(actionID, priority)
	}
}

func (m *Manager) NotifyActionFired(actionID string, err error) {
	for _, o := range m.snapshot() {
		o.OnActionFired(actionID, err)
	}
}

func (m *Manager) NotifyTimerArmed(cellTypeName string) {
	for _, o := range m.snapshot() {
		o.OnTimerArmed(cellTypeName)
	}
}

func (m *Manager) NotifyTimerFired(cellTypeName string) {
	for _, o := range m.snapshot() {
		o.OnTimerFired(cellTypeName)
	}
}

func (m *Manager) NotifyAlarm(severity int, message string) {
	for _, o := range m.snapshot() {
		o.OnAlarm(severity, message)
	}
}
