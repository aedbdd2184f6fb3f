package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	gomail "gopkg.in/gomail.v2"

	"github.com/UjwalStha7/plant-monitor-backend/services/api/alert"
)

// MailerConfig holds SMTP settings for the email dispatcher.
type MailerConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	Recipient string
}

// Mailer sends alert notifications over SMTP. Sends go through a circuit
// breaker so a dead mail server trips open instead of being dialled on every
// degraded reading.
type Mailer struct {
	dialer    *gomail.Dialer
	from      string
	recipient string
	breaker   *gobreaker.CircuitBreaker
}

// NewMailer constructs an SMTP-backed dispatcher.
func NewMailer(cfg MailerConfig) *Mailer {
	return &Mailer{
		dialer:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:      cfg.From,
		recipient: cfg.Recipient,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "smtp",
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

// Dispatch composes and sends the alert email. It honours ctx cancellation
// even though the underlying SMTP dial does not.
func (m *Mailer) Dispatch(ctx context.Context, n alert.Notification) error {
	_, err := m.breaker.Execute(func() (interface{}, error) {
		msg := gomail.NewMessage()
		msg.SetHeader("From", m.from)
		msg.SetHeader("To", m.recipient)
		msg.SetHeader("Subject", subjectFor(n))
		msg.SetBody("text/plain", bodyFor(n))

		errCh := make(chan error, 1)
		go func() {
			errCh <- m.dialer.DialAndSend(msg)
		}()

		select {
		case err := <-errCh:
			return nil, err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	return err
}

func subjectFor(n alert.Notification) string {
	switch n.Trigger {
	case alert.TriggerBoth:
		return "Plant monitor alert: soil moisture and light critical"
	case alert.TriggerLight:
		return "Plant monitor alert: light level critical"
	default:
		return "Plant monitor alert: soil moisture critical"
	}
}

func bodyFor(n alert.Notification) string {
	return fmt.Sprintf(
		"Device %s reported a critical reading at %s.\n\nSoil: %d\nLight: %d\nTriggered by: %s\n",
		n.DeviceID,
		n.At.Format(time.RFC1123),
		n.SoilValue,
		n.LightValue,
		n.Trigger,
	)
}
