package models

import "time"

// CampaignChannel enumerates outbound delivery channels.
type CampaignChannel string

const (
	ChannelSMS    CampaignChannel = "SMS"
	ChannelEmail  CampaignChannel = "EMAIL"
	ChannelLetter CampaignChannel = "LETTER"
)

// DeliveryStatus tracks a recipient row. PENDING may move to SENT or FAILED,
// both terminal.
type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "PENDING"
	DeliverySent    DeliveryStatus = "SENT"
	DeliveryFailed  DeliveryStatus = "FAILED"
)

// Campaign is a batch of outbound debt reminders. Immutable after creation
// apart from per-recipient delivery state.
type Campaign struct {
	ID        string          `db:"id" json:"id"`
	Channel   CampaignChannel `db:"channel" json:"channel"`
	Subject   string          `db:"subject" json:"subject"`
	Template  string          `db:"template" json:"template"`
	GroupName *string         `db:"group_name" json:"group_name,omitempty"`
	CreatedBy string          `db:"created_by" json:"created_by"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// CampaignRecipient is one student's notification record within a campaign.
type CampaignRecipient struct {
	ID         string         `db:"id" json:"id"`
	CampaignID string         `db:"campaign_id" json:"campaign_id"`
	StudentID  string         `db:"student_id" json:"student_id"`
	Status     DeliveryStatus `db:"status" json:"status"`
	SentAt     *time.Time     `db:"sent_at" json:"sent_at,omitempty"`
}

// CampaignProgress aggregates delivery counts for reporting pages.
type CampaignProgress struct {
	CampaignID string  `db:"campaign_id" json:"campaign_id"`
	Total      int     `db:"total" json:"total"`
	Pending    int     `db:"pending" json:"pending"`
	Sent       int     `db:"sent" json:"sent"`
	Failed     int     `db:"failed" json:"failed"`
	SentRatio  float64 `json:"sent_ratio"`
}

// CampaignFilter narrows campaign listings.
type CampaignFilter struct {
	Channel   CampaignChannel
	GroupName string
	Page      int
	PageSize  int
}

// ValidCampaignChannel reports whether the value is a supported channel.
func ValidCampaignChannel(c CampaignChannel) bool {
	switch c {
	case ChannelSMS, ChannelEmail, ChannelLetter:
		return true
	default:
		return false
	}
}
