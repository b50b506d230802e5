package host

import (
	"go.uber.org/zap"

	"github.com/wippyai/loader-bridge/resource"
)

// LogObserver logs every arena lifecycle event at debug level. Subscribe it
// with Engine.Subscribe to trace what a registration creates and releases.
type LogObserver struct {
	log *zap.Logger
}

// NewLogObserver returns an observer writing to l.
func NewLogObserver(l *zap.Logger) *LogObserver {
	return &LogObserver{log: l}
}

func (o *LogObserver) OnResourceEvent(e resource.Event) {
	o.log.Debug(eventName(e.Type),
		zap.String("class", className(e.Class)),
		zap.Uint32("handle", uint32(e.Handle)))
}

func eventName(t resource.EventType) string {
	switch t {
	case resource.EventCreated:
		return "object created"
	case resource.EventDropped:
		return "object dropped"
	case resource.EventBorrowed:
		return "object borrowed"
	case resource.EventBorrowReturned:
		return "borrow returned"
	}
	return "object event"
}

func className(c resource.Class) string {
	switch c {
	case classLoader:
		return "loader"
	case classContext:
		return "context"
	case classScope:
		return "scope"
	case classType:
		return "type"
	case classFunction:
		return "function"
	case classSignature:
		return "signature"
	case classValue:
		return "value"
	}
	return "unknown"
}
