package dispatch

import (
	"fmt"
	"strings"

	"coopdash/internal"
	"coopdash/internal/directory"
	"coopdash/internal/orders"
)

// Subject is the email subject for an order request to vendor.
func Subject(store, vendor string) string {
	return fmt.Sprintf("[%s] %s님 발주 요청", store, vendor)
}

// DraftOrder renders one vendor's rollup lines as an order message.
func DraftOrder(store, vendor, period string, lines []internal.MessageLine) string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "[%s] %s님 발주 요청", store, vendor)
	if period != "" {
		fmt.Fprintf(&b, " (%s)", period)
	}
	b.WriteString("\n")
	for _, l := range lines {
		if l.ReorderQty <= 0 && l.ReorderWeight <= 0 {
			continue
		}
		fmt.Fprintf(&b, "- %s: %d개", l.ParentItem, l.ReorderQty)
		if l.ReorderWeight > 0 {
			fmt.Fprintf(&b, " (%dkg)", l.ReorderWeight)
		}
		b.WriteString("\n")
	}
	b.WriteString("확인 후 회신 부탁드립니다. 감사합니다.")
	return b.String()
}

// OrderBatch drafts one message per vendor in rollup and resolves each recipient
// from the vendor directory. Vendors with no contact keep an empty Address.
// Excluded lines never produce a message.
func OrderBatch(rollup []internal.MessageLine, contacts *directory.Index, channel internal.Channel, period, store string) Batch {
	kept := make([]internal.MessageLine, 0, len(rollup))
	for _, l := range rollup {
		if l.Category != internal.CategoryExcluded {
			kept = append(kept, l)
		}
	}
	order, grouped := orders.ByVendor(kept)
	batch := Batch{Period: period, Channel: channel, Messages: make([]Message, 0, len(order))}
	for _, v := range order {
		msg := Message{
			Key:       v,
			Recipient: v,
			Subject:   Subject(store, v),
			Text:      DraftOrder(store, v, period, grouped[v]),
		}
		if c, ok := contacts.Lookup(v); ok {
			if channel == internal.ChannelEmail {
				msg.Address = c.Email
			} else {
				msg.Address = c.Phone
			}
		}
		batch.Messages = append(batch.Messages, msg)
	}
	return batch
}
