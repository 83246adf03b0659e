package email

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Send(t *testing.T) {
	c := NewClient(Config{Host: "smtp.test", Port: 587, From: "Salon <no-reply@salon.test>"})

	var (
		gotAddr string
		gotFrom string
		gotTo   []string
		gotMsg  string
	)
	c.send = func(_ context.Context, addr, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	err := c.Send(context.Background(), "anna@example.com", "Запись подтверждена", "line1\nline2")
	require.NoError(t, err)

	assert.Equal(t, "smtp.test:587", gotAddr)
	assert.Equal(t, "no-reply@salon.test", gotFrom)
	assert.Equal(t, []string{"anna@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "To: <anna@example.com>\r\n")
	assert.Contains(t, gotMsg, "Subject: =?utf-8?q?")
	assert.Contains(t, gotMsg, "line1\r\nline2")
}

func TestClient_SendErrors(t *testing.T) {
	assert.ErrorIs(t, NewClient(Config{}).Send(context.Background(), "a@b.c", "s", "b"), ErrNotConfigured)

	c := NewClient(Config{Host: "smtp.test", Port: 25, From: "no-reply@salon.test"})
	assert.ErrorIs(t, c.Send(context.Background(), "not-an-address", "s", "b"), ErrSend)

	c.send = func(context.Context, string, string, []string, []byte) error { return errors.New("421 busy") }
	assert.ErrorIs(t, c.Send(context.Background(), "a@b.c", "s", "b"), ErrSend)
}
