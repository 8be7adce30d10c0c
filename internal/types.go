package internal

import "github.com/shopspring/decimal"

type VendorCategory string

const (
	CategoryRegistered VendorCategory = "registered"
	CategoryDirectBuy  VendorCategory = "direct_buy"
	CategoryExcluded   VendorCategory = "excluded"
)

type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// OrderLine is one aggregated (vendor, display item, category, parent item) group.
type OrderLine struct {
	Vendor        string
	DisplayItem   string
	Category      VendorCategory
	ParentItem    string
	Forced        bool
	Quantity      decimal.Decimal
	Amount        decimal.Decimal
	WeightKg      decimal.Decimal
	ReorderQty    int64
	ReorderWeight int64
}

// MessageLine merges packaging variants of one parent item for outbound order messages.
type MessageLine struct {
	Vendor        string
	ParentItem    string
	Category      VendorCategory
	Quantity      decimal.Decimal
	Amount        decimal.Decimal
	ReorderQty    int64
	ReorderWeight int64
}

type DispatchAttempt struct {
	Vendor    string
	Recipient string
	Address   string
	Channel   Channel
	Period    string
	OK        bool
	Code      string
	Reason    string
}

type RunRecord struct {
	ID        string
	Source    string
	Files     []string
	Counts    map[string]int
	Warnings  []string
	CreatedAt string
}

type ReportMail struct {
	ID         int
	Provider   string
	MessageID  string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}
