package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-SalonScheduler/internal/domain"
	"github.com/m04kA/SMC-SalonScheduler/internal/infra/storage/memory"
	"github.com/m04kA/SMC-SalonScheduler/pkg/logger"
	"github.com/m04kA/SMC-SalonScheduler/pkg/ptr"
)

type fakeTelegram struct {
	configured bool
	err        error
	sent       []string
}

func (f *fakeTelegram) Configured() bool { return f.configured }

func (f *fakeTelegram) SendMessage(_ context.Context, chatID, _ string) error {
	f.sent = append(f.sent, chatID)
	return f.err
}

type fakeLine struct {
	configured bool
	err        error
	sent       []string
}

func (f *fakeLine) Configured() bool { return f.configured }

func (f *fakeLine) Push(_ context.Context, userID, _ string) error {
	f.sent = append(f.sent, userID)
	return f.err
}

type fakeEmail struct {
	configured bool
	err        error
	subjects   []string
	block      bool
}

func (f *fakeEmail) Configured() bool { return f.configured }

func (f *fakeEmail) Send(ctx context.Context, _, subject, _ string) error {
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	f.subjects = append(f.subjects, subject)
	return f.err
}

type senders struct {
	telegram *fakeTelegram
	line     *fakeLine
	email    *fakeEmail
}

func newDispatcher(t *testing.T, store *memory.Store) (*Dispatcher, *senders) {
	t.Helper()
	s := &senders{
		telegram: &fakeTelegram{configured: true},
		line:     &fakeLine{configured: true},
		email:    &fakeEmail{configured: true},
	}
	channels := []Channel{NewTelegramChannel(s.telegram), NewLineChannel(s.line), NewEmailChannel(s.email)}

	var contacts ContactRepository
	if store != nil {
		contacts = store.Contacts
	}
	d := NewDispatcher(channels, PlainRenderer{SalonName: "Salon", Location: time.UTC}, contacts, nil,
		Config{Timeout: 50 * time.Millisecond}, logger.NewNop())
	return d, s
}

func appointment() *domain.Appointment {
	return &domain.Appointment{
		ID:              1,
		Date:            time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		StartTime:       "10:00",
		DurationMinutes: 60,
		CustomerName:    "Maria",
		CustomerEmail:   "maria@example.com",
		Services:        []domain.AppointmentService{{ServiceID: 1, Name: "Haircut"}},
	}
}

func TestSend_PrefersBotChannel(t *testing.T) {
	d, s := newDispatcher(t, nil)
	recipient := domain.Recipient{Email: "maria@example.com", TelegramChatID: ptr.Ptr("42"), LineUserID: ptr.Ptr("U1")}

	result, err := d.Send(context.Background(), domain.NotificationConfirmation, recipient, appointment())
	require.NoError(t, err)
	assert.True(t, result.Sent)
	assert.Equal(t, domain.ChannelTelegram, result.Channel)
	assert.Equal(t, []string{"42"}, s.telegram.sent)
	assert.Empty(t, s.line.sent)
	assert.Empty(t, s.email.subjects)
}

func TestSend_FallsBackOnFailure(t *testing.T) {
	d, s := newDispatcher(t, nil)
	s.telegram.err = errors.New("blocked by user")
	s.line.err = errors.New("quota")
	recipient := domain.Recipient{Email: "maria@example.com", TelegramChatID: ptr.Ptr("42"), LineUserID: ptr.Ptr("U1")}

	result, err := d.Send(context.Background(), domain.NotificationReminder, recipient, appointment())
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelEmail, result.Channel)
	require.Len(t, result.Attempts, 3)
	assert.Error(t, result.Attempts[0].Err)
	assert.Error(t, result.Attempts[1].Err)
	assert.NoError(t, result.Attempts[2].Err)
	assert.Equal(t, []string{"Salon: Appointment reminder"}, s.email.subjects)
}

func TestSend_SkipsUnreachableChannels(t *testing.T) {
	d, s := newDispatcher(t, nil)
	s.telegram.configured = false
	recipient := domain.Recipient{Email: "maria@example.com", TelegramChatID: ptr.Ptr("42")}

	result, err := d.Send(context.Background(), domain.NotificationCancellation, recipient, appointment())
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelEmail, result.Channel)
	assert.Len(t, result.Attempts, 1)
	assert.Empty(t, s.telegram.sent)
}

func TestSend_AllChannelsFail(t *testing.T) {
	d, s := newDispatcher(t, nil)
	s.email.err = errors.New("smtp down")

	result, err := d.Send(context.Background(), domain.NotificationConfirmation, domain.Recipient{Email: "maria@example.com"}, appointment())
	assert.ErrorIs(t, err, ErrNotDelivered)
	assert.False(t, result.Sent)

	_, err = d.Send(context.Background(), domain.NotificationConfirmation, domain.Recipient{}, appointment())
	assert.ErrorIs(t, err, ErrNoChannel)
}

func TestSend_TimeoutFallsThrough(t *testing.T) {
	d, s := newDispatcher(t, nil)
	s.email.block = true

	result, err := d.Send(context.Background(), domain.NotificationConfirmation, domain.Recipient{Email: "maria@example.com"}, appointment())
	assert.ErrorIs(t, err, ErrNotDelivered)
	require.Len(t, result.Attempts, 1)
	assert.ErrorIs(t, result.Attempts[0].Err, context.DeadlineExceeded)
}

func TestNotify_ResolvesContacts(t *testing.T) {
	store := memory.NewStore()
	store.AddContact(domain.CustomerContact{Email: ptr.Ptr("maria@example.com"), LineUserID: ptr.Ptr("U7")})
	d, s := newDispatcher(t, store)

	result, err := d.Notify(context.Background(), domain.NotificationReschedule, appointment())
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelLine, result.Channel)
	assert.Equal(t, []string{"U7"}, s.line.sent)

	other := appointment()
	other.CustomerEmail = "nobody@example.com"
	result, err = d.Notify(context.Background(), domain.NotificationReschedule, other)
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelEmail, result.Channel)
}

func TestPlainRenderer(t *testing.T) {
	msg := PlainRenderer{Location: time.UTC}.Render(domain.NotificationConfirmation, appointment())

	assert.Equal(t, "Your appointment is confirmed", msg.Subject)
	assert.Contains(t, msg.Body, "Hello, Maria!")
	assert.Contains(t, msg.Body, "Mon, 02 Mar 2026 10:00")
	assert.Contains(t, msg.Body, "Haircut")
	assert.Contains(t, msg.Text(), msg.Subject)
}
