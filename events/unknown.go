package events

import (
	"encoding/json"
	"time"
)

// Unknown wraps any wire type this engine has no variant for. Every
// middleware forwards it untouched so listeners still see it.
type Unknown struct {
	WireType  string
	CID       string
	Raw       json.RawMessage
	CreatedAt time.Time
}

func (e *Unknown) EventType() Type      { return Type(e.WireType) }
func (e *Unknown) EventTime() time.Time { return e.CreatedAt }
func (*Unknown) isEvent()               {}
