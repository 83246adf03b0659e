package domain

// NotificationKind type of a customer notification
type NotificationKind string

const (
	NotificationConfirmation NotificationKind = "confirmation"
	NotificationReminder     NotificationKind = "reminder"
	NotificationCancellation NotificationKind = "cancellation"
	NotificationReschedule   NotificationKind = "reschedule"
)

// Channel notification transport
type Channel string

const (
	ChannelTelegram Channel = "telegram"
	ChannelLine     Channel = "line"
	ChannelEmail    Channel = "email"
)

// Recipient addresses a customer on every channel known for them
type Recipient struct {
	Name           string
	Email          string
	TelegramChatID *string
	LineUserID     *string
}

// CustomerContact bot identities linked to a customer
type CustomerContact struct {
	ID             int64
	Email          *string
	UserID         *int64
	TelegramChatID *string
	LineUserID     *string
}

// RecipientFor builds the notification recipient of an appointment
func RecipientFor(a *Appointment, contact *CustomerContact) Recipient {
	r := Recipient{
		Name:  a.CustomerName,
		Email: a.CustomerEmail,
	}
	if contact != nil {
		r.TelegramChatID = contact.TelegramChatID
		r.LineUserID = contact.LineUserID
	}
	return r
}
