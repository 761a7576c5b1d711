// Package notify sends email alerts for blocked items, high-profit finds and
// exports, gated by the user's notification settings.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/rs/zerolog"

	"github.com/Simplici0/listingdesk/internal/library"
)

// Kind is the event that triggers a notification.
type Kind string

const (
	KindVero       Kind = "VERO"
	KindHighProfit Kind = "HIGH_PROFIT"
	KindExport     Kind = "EXPORT"
)

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type bodyData struct {
	Heading string
	Product string
	Time    string
	Label   string
	Details string
	Footer  string
}

var bodyTmpl = template.Must(template.New("body").Parse(`<h1>{{.Heading}}</h1>
<p><strong>Product:</strong> {{.Product}}</p>
<p><strong>Time:</strong> {{.Time}}</p>
<p><strong>{{.Label}}:</strong> {{.Details}}</p>
{{if .Footer}}<p>{{.Footer}}</p>
{{end}}`))

// Compose renders the subject and HTML body for kind.
func Compose(kind Kind, productName, details string, at time.Time) Message {
	data := bodyData{Product: productName, Time: at.Format(time.RFC1123), Details: details}

	var subject string
	switch kind {
	case KindVero:
		subject = fmt.Sprintf("VeRO Alert: %s Blocked", productName)
		data.Heading, data.Label = "VeRO Protection Alert", "Reason"
		data.Footer = "This product was automatically blocked to protect your seller account health."
	case KindHighProfit:
		subject = fmt.Sprintf("High Profit Opportunity: %s", productName)
		data.Heading, data.Label = "New High Profit Item Found!", "Profit Analysis"
		data.Footer = "Action Recommended: Review and Publish immediately."
	case KindExport:
		subject = fmt.Sprintf("Successful Export: %s", productName)
		data.Heading, data.Label = "Product Exported Successfully", "Details"
	default:
		return Message{Subject: "Listing Desk Notification", Body: template.HTMLEscapeString(details)}
	}

	var body bytes.Buffer
	// The template is static and data is plain strings; Execute cannot fail here.
	_ = bodyTmpl.Execute(&body, data)
	return Message{Subject: subject, Body: body.String()}
}

// Dispatcher decides whether an event is sent and hands it to a Sender.
type Dispatcher struct {
	sender Sender
	apiKey string
	logger zerolog.Logger
	now    func() time.Time
}

// NewDispatcher creates a Dispatcher. An empty apiKey disables sending.
func NewDispatcher(sender Sender, apiKey string, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, apiKey: apiKey, logger: logger, now: time.Now}
}

// Notify sends kind for productName when settings allow it. sent is false
// when notifications are off, unconfigured, or disabled for this kind.
func (d *Dispatcher) Notify(ctx context.Context, s library.Settings, kind Kind, productName, details string) (sent bool, err error) {
	if !s.EnableEmailNotifications || d.apiKey == "" || s.NotificationEmail == "" {
		return false, nil
	}

	switch kind {
	case KindVero:
		if !s.NotifyOnVero {
			return false, nil
		}
	case KindHighProfit:
		if !s.NotifyOnHighProfit {
			return false, nil
		}
	case KindExport:
		if !s.NotifyOnExportSuccess {
			return false, nil
		}
	}

	msg := Compose(kind, productName, details, d.now())
	msg.To = s.NotificationEmail

	d.logger.Info().Str("kind", string(kind)).Str("to", msg.To).Str("subject", msg.Subject).Msg("sending notification")
	if err := d.sender.Send(ctx, msg); err != nil {
		return false, fmt.Errorf("send %s notification: %w", kind, err)
	}
	return true, nil
}

// LogSender writes messages to the log instead of an email provider.
type LogSender struct {
	Logger zerolog.Logger
}

// Send implements Sender.
func (s LogSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Logger.Info().Str("to", msg.To).Str("subject", msg.Subject).Int("body_bytes", len(msg.Body)).Msg("email delivered to log")
	return nil
}
