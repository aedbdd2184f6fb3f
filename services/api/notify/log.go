package notify

import (
	"context"
	"log"

	"github.com/UjwalStha7/plant-monitor-backend/services/api/alert"
)

// LogDispatcher writes alerts to the process log. Used when SMTP is not
// configured so the alert pipeline stays exercised in development.
type LogDispatcher struct{}

// NewLogDispatcher returns a dispatcher that only logs.
func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

// Dispatch logs the notification and always succeeds.
func (d *LogDispatcher) Dispatch(_ context.Context, n alert.Notification) error {
	log.Printf("ALERT device=%s trigger=%s soil=%d light=%d", n.DeviceID, n.Trigger, n.SoilValue, n.LightValue)
	return nil
}

var _ alert.Dispatcher = (*LogDispatcher)(nil)
var _ alert.Dispatcher = (*Mailer)(nil)
