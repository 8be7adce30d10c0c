package members

import (
	"coopdash/internal"
	"coopdash/internal/dispatch"
)

// Broadcast addresses the same text to every member. Keys are namespaced so a
// member never collides with a vendor of the same name in the already-sent set.
func Broadcast(members []Member, channel internal.Channel, period, subject, text string) dispatch.Batch {
	batch := dispatch.Batch{Period: period, Channel: channel, Messages: make([]dispatch.Message, 0, len(members))}
	for _, m := range members {
		msg := dispatch.Message{
			Key:       "member:" + sortKey(m),
			Recipient: m.Name,
			Subject:   subject,
			Text:      text,
		}
		if channel == internal.ChannelEmail {
			msg.Address = m.Email
		} else {
			msg.Address = m.Phone
		}
		batch.Messages = append(batch.Messages, msg)
	}
	return batch
}
