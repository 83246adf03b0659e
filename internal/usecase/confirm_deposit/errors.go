package confirm_deposit

import "errors"

var (
	// ErrInvalidSignature возвращается, когда подпись webhook не прошла проверку
	ErrInvalidSignature = errors.New("confirm_deposit: invalid webhook signature")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("confirm_deposit: internal error")
)
