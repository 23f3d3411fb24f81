package sequencer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"outreach/models"
)

// Outcome is the result of a successful dispatch.
type Outcome struct {
	Status    models.EventStatus
	MessageID string
	Subject   string
	Body      string
}

// Dispatcher renders a step and hands it to the capability of its channel.
// It is synchronous: the caller gets the outcome or the error.
type Dispatcher struct {
	email   EmailSender
	sms     SMSSender
	cfg     Config
	timeout time.Duration
}

func NewDispatcher(cfg Config, email EmailSender, sms SMSSender) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{
		email:   email,
		sms:     sms,
		cfg:     cfg,
		timeout: cfg.DispatchTimeout,
	}
}

// Dispatch sends one step to one prospect. Channels other than email and sms
// are never delivered automatically; they come back as scheduled for a person
// to execute.
func (d *Dispatcher) Dispatch(ctx context.Context, b *Bundle, step *models.SequenceStep, p *models.Prospect) (Outcome, error) {
	msg := Render(b.Template(step), step.Channel, p)

	switch step.Channel {
	case models.ChannelEmail:
		return d.sendEmail(ctx, p, msg)
	case models.ChannelSMS:
		return d.sendSMS(ctx, p, msg)
	default:
		return Outcome{Status: models.EventScheduled, Subject: msg.Subject, Body: msg.Body}, nil
	}
}

func (d *Dispatcher) sendEmail(ctx context.Context, p *models.Prospect, msg Message) (Outcome, error) {
	if strings.TrimSpace(d.cfg.FromEmail) == "" {
		return Outcome{}, &ConfigurationError{Channel: string(models.ChannelEmail), Setting: "sender email"}
	}
	if d.email == nil {
		return Outcome{}, &ConfigurationError{Channel: string(models.ChannelEmail), Setting: "email sender"}
	}
	to := strings.TrimSpace(p.EmailValue())
	if to == "" {
		return Outcome{}, &MissingContactError{ProspectID: p.ID, Channel: string(models.ChannelEmail), Field: "email"}
	}

	from := d.cfg.FromEmail
	if d.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", d.cfg.FromName, d.cfg.FromEmail)
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	id, err := d.email.SendEmail(sendCtx, from, to, msg.Subject, msg.Body)
	if err != nil {
		return Outcome{}, &ProviderDeliveryError{Channel: string(models.ChannelEmail), Err: err}
	}
	return Outcome{Status: models.EventSent, MessageID: id, Subject: msg.Subject, Body: msg.Body}, nil
}

func (d *Dispatcher) sendSMS(ctx context.Context, p *models.Prospect, msg Message) (Outcome, error) {
	if strings.TrimSpace(d.cfg.SMSFrom) == "" {
		return Outcome{}, &ConfigurationError{Channel: string(models.ChannelSMS), Setting: "from number"}
	}
	if d.sms == nil {
		return Outcome{}, &ConfigurationError{Channel: string(models.ChannelSMS), Setting: "sms sender"}
	}
	to := strings.TrimSpace(p.PhoneValue())
	if to == "" {
		return Outcome{}, &MissingContactError{ProspectID: p.ID, Channel: string(models.ChannelSMS), Field: "phone"}
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	id, err := d.sms.SendSMS(sendCtx, to, msg.Body, d.cfg.SMSFrom)
	if err != nil {
		return Outcome{}, &ProviderDeliveryError{Channel: string(models.ChannelSMS), Err: err}
	}
	return Outcome{Status: models.EventSent, MessageID: id, Body: msg.Body}, nil
}
