package dispatch

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"coopdash/internal"
)

type SMSSender interface {
	Send(ctx context.Context, to, text string) error
}

// Ledger persists the already-sent set and the per-attempt log.
type Ledger interface {
	WasSent(key, period string) (bool, error)
	MarkSent(key, period string, channel internal.Channel) error
	InsertDispatchLog(a internal.DispatchAttempt) error
}

// Message is one outbound text. Key identifies the recipient for the already-sent set.
type Message struct {
	Key       string
	Recipient string
	Address   string
	Subject   string
	Text      string
}

type Batch struct {
	Period   string
	Channel  internal.Channel
	Messages []Message
}

type Summary struct {
	Sent     int
	Skipped  int
	Failed   int
	Attempts []internal.DispatchAttempt
}

type Dispatcher struct {
	sms    SMSSender
	mail   Mailer
	ledger Ledger
	pacer  *Pacer
}

// NewDispatcher accepts nil for a channel that is not configured.
func NewDispatcher(sms SMSSender, mail Mailer, ledger Ledger, pacer *Pacer) *Dispatcher {
	if pacer == nil {
		pacer = NewPacer(0)
	}
	return &Dispatcher{sms: sms, mail: mail, ledger: ledger, pacer: pacer}
}

// SendAll walks the batch in order. A failed recipient is logged and the loop moves on;
// only ledger errors stop it.
func (d *Dispatcher) SendAll(ctx context.Context, batch Batch) (Summary, error) {
	log := zap.L().With(zap.String("channel", string(batch.Channel)), zap.String("period", batch.Period))
	var sum Summary

	for _, msg := range batch.Messages {
		if msg.Key != "" && batch.Period != "" {
			sent, err := d.ledger.WasSent(msg.Key, batch.Period)
			if err != nil {
				return sum, eris.Wrapf(err, "dispatch: check sent %s", msg.Key)
			}
			if sent {
				sum.Skipped++
				log.Info("already sent, skipping", zap.String("key", msg.Key))
				continue
			}
		}

		attempt := internal.DispatchAttempt{
			Vendor:    msg.Key,
			Recipient: msg.Recipient,
			Address:   msg.Address,
			Channel:   batch.Channel,
			Period:    batch.Period,
		}

		err := d.deliver(ctx, batch.Channel, msg)
		if err == nil {
			attempt.OK = true
			sum.Sent++
			if msg.Key != "" && batch.Period != "" {
				if err := d.ledger.MarkSent(msg.Key, batch.Period, batch.Channel); err != nil {
					return sum, eris.Wrapf(err, "dispatch: mark sent %s", msg.Key)
				}
			}
			log.Info("sent", zap.String("recipient", msg.Recipient))
		} else {
			attempt.Code, attempt.Reason = describe(err)
			sum.Failed++
			log.Warn("send failed", zap.String("recipient", msg.Recipient), zap.String("code", attempt.Code), zap.String("reason", attempt.Reason))
		}

		sum.Attempts = append(sum.Attempts, attempt)
		if err := d.ledger.InsertDispatchLog(attempt); err != nil {
			return sum, eris.Wrap(err, "dispatch: write log")
		}
	}
	return sum, nil
}

func (d *Dispatcher) deliver(ctx context.Context, channel internal.Channel, msg Message) error {
	if msg.Address == "" {
		return failure("no_contact", "no "+string(channel)+" contact for "+msg.Recipient)
	}
	switch channel {
	case internal.ChannelSMS:
		if d.sms == nil {
			return failure("not_configured", "sms gateway not configured")
		}
		d.pacer.WaitTurn()
		return d.sms.Send(ctx, msg.Address, msg.Text)
	case internal.ChannelEmail:
		if d.mail == nil {
			return failure("not_configured", "email gateway not configured")
		}
		d.pacer.WaitTurn()
		return d.mail.Send(ctx, msg.Address, msg.Recipient, msg.Subject, msg.Text)
	default:
		return failure("bad_channel", "unknown channel "+string(channel))
	}
}
