// FILE: lixenwraith/settings/notify.go
package settings

import (
	"fmt"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Severity classifies a notification.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Message is one notification.
type Message struct {
	Source   any
	Text     string
	Severity Severity
}

// Listener receives notifications. Listeners run synchronously on the
// notifying goroutine and must not call back into the registry.
type Listener func(Message)

// Notifier fans fire-and-forget messages out to independent listeners and
// mirrors each one into a logrus logger.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[uint64]Listener
	nextID    uint64
	log       logrus.FieldLogger
}

// NewNotifier creates a notifier logging to log; nil uses the standard logger.
func NewNotifier(log logrus.FieldLogger) *Notifier {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Notifier{
		listeners: make(map[uint64]Listener),
		log:       log,
	}
}

// Subscribe registers a listener and returns the function removing it.
func (n *Notifier) Subscribe(listener Listener) (unsubscribe func()) {
	if listener == nil {
		return func() {}
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	id := n.nextID
	n.listeners[id] = listener

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.listeners, id)
			n.mu.Unlock()
		})
	}
}

// Notify delivers a message to every listener in subscription order.
func (n *Notifier) Notify(source any, text string, severity Severity) {
	msg := Message{Source: source, Text: text, Severity: severity}
	n.logMessage(msg)

	n.mu.RLock()
	ids := make([]uint64, 0, len(n.listeners))
	for id := range n.listeners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	listeners := make([]Listener, 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, n.listeners[id])
	}
	n.mu.RUnlock()

	for _, listener := range listeners {
		listener(msg)
	}
}

// Notifyf formats the message text.
func (n *Notifier) Notifyf(source any, severity Severity, format string, args ...any) {
	n.Notify(source, fmt.Sprintf(format, args...), severity)
}

// logMessage never exits the process: a fatal notification is reported,
// the decision to stop belongs to the listeners.
func (n *Notifier) logMessage(msg Message) {
	entry := n.log.WithFields(logrus.Fields{
		"source":   fmt.Sprintf("%v", msg.Source),
		"severity": msg.Severity.String(),
	})
	switch msg.Severity {
	case SeverityInfo:
		entry.Info(msg.Text)
	case SeverityWarning:
		entry.Warn(msg.Text)
	default:
		entry.Error(msg.Text)
	}
}
