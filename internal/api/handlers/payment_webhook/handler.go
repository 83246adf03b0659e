package payment_webhook

import (
	"errors"
	"io"
	"net/http"

	"github.com/m04kA/SMC-SalonScheduler/internal/api/handlers"
	confirmDeposit "github.com/m04kA/SMC-SalonScheduler/internal/usecase/confirm_deposit"
)

const (
	// SignatureHeader заголовок подписи Stripe
	SignatureHeader = "Stripe-Signature"

	maxPayloadBytes = 64 << 10

	msgInvalidPayload   = "некорректное тело webhook"
	msgInvalidSignature = "некорректная подпись"
)

// WebhookResponse HTTP response model
type WebhookResponse struct {
	Outcome       string `json:"outcome"`
	EventID       string `json:"eventId,omitempty"`
	DepositID     *int64 `json:"depositId,omitempty"`
	AppointmentID *int64 `json:"appointmentId,omitempty"`
}

type Handler struct {
	useCase ConfirmDepositUseCase
	logger  Logger
}

func NewHandler(useCase ConfirmDepositUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle POST /api/v1/webhooks/payments
// Любой обработанный сигнал подтверждается 200, чтобы провайдер не повторял доставку
// 5xx возвращается только при внутренней ошибке, тогда повтор нужен
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes+1))
	if err != nil || len(payload) == 0 || len(payload) > maxPayloadBytes {
		h.logger.Warn("POST /webhooks/payments - Invalid payload: size=%d, error=%v", len(payload), err)
		handlers.RespondBadRequest(w, msgInvalidPayload)
		return
	}

	result, err := h.useCase.Execute(r.Context(), &confirmDeposit.Request{
		Payload:   payload,
		Signature: r.Header.Get(SignatureHeader),
	})
	if err != nil {
		if errors.Is(err, confirmDeposit.ErrInvalidSignature) {
			h.logger.Warn("POST /webhooks/payments - Invalid signature: %v", err)
			handlers.RespondBadRequest(w, msgInvalidSignature)
			return
		}
		h.logger.Error("POST /webhooks/payments - Failed to process event: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, WebhookResponse{
		Outcome:       string(result.Outcome),
		EventID:       result.EventID,
		DepositID:     result.DepositID,
		AppointmentID: result.AppointmentID,
	})
}
