package notifications

import "errors"

var (
	// ErrNotDelivered ни один канал не доставил уведомление
	ErrNotDelivered = errors.New("notifications: not delivered by any channel")

	// ErrNoChannel у получателя нет ни одного доступного канала
	ErrNoChannel = errors.New("notifications: recipient is not reachable")
)
