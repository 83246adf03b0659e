package googlecalendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Config OAuth-клиент приложения
type Config struct {
	ClientID     string
	ClientSecret string
	Timeout      time.Duration

	// Для тестов: адрес API и token endpoint
	Endpoint string
	TokenURL string
}

// Client клиент Google Calendar API v3
type Client struct {
	oauth    *oauth2.Config
	timeout  time.Duration
	endpoint string
	base     http.RoundTripper
}

// NewClient создает клиент календаря
func NewClient(cfg Config) *Client {
	endpoint := google.Endpoint
	if cfg.TokenURL != "" {
		endpoint = oauth2.Endpoint{TokenURL: cfg.TokenURL, AuthStyle: oauth2.AuthStyleInParams}
	}

	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
			Scopes:       []string{calendar.CalendarEventsScope},
		},
		timeout:  cfg.Timeout,
		endpoint: cfg.Endpoint,
		base:     otelhttp.NewTransport(http.DefaultTransport),
	}
}

// UpsertEvent обновляет событие eventID или создает новое, если eventID пуст
func (c *Client) UpsertEvent(ctx context.Context, conn Connection, eventID string, ev Event) (*Result, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	svc, ts, err := c.service(ctx, conn)
	if err != nil {
		return nil, err
	}

	body := toCalendarEvent(ev)

	var saved *calendar.Event
	if eventID != "" {
		saved, err = svc.Events.Update(conn.CalendarID, eventID, body).Context(ctx).Do()
	} else {
		saved, err = svc.Events.Insert(conn.CalendarID, body).Context(ctx).Do()
	}
	if err != nil {
		return nil, classify("UpsertEvent", err)
	}

	return &Result{
		EventID:        saved.Id,
		RefreshedToken: refreshed(conn.Token, ts),
	}, nil
}

// DeleteEvent удаляет событие
func (c *Client) DeleteEvent(ctx context.Context, conn Connection, eventID string) (*Result, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	svc, ts, err := c.service(ctx, conn)
	if err != nil {
		return nil, err
	}

	if err := svc.Events.Delete(conn.CalendarID, eventID).Context(ctx).Do(); err != nil {
		return nil, classify("DeleteEvent", err)
	}

	return &Result{
		EventID:        eventID,
		RefreshedToken: refreshed(conn.Token, ts),
	}, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) service(ctx context.Context, conn Connection) (*calendar.Service, oauth2.TokenSource, error) {
	oauthCtx := context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: c.base})

	ts := oauth2.ReuseTokenSource(nil, c.oauth.TokenSource(oauthCtx, &oauth2.Token{
		AccessToken:  conn.Token.AccessToken,
		RefreshToken: conn.Token.RefreshToken,
		Expiry:       conn.Token.Expiry,
	}))

	opts := []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(oauthCtx, ts))}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}

	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: create service: %v", ErrProvider, err)
	}
	return svc, ts, nil
}

func toCalendarEvent(ev Event) *calendar.Event {
	return &calendar.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &calendar.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: ev.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: ev.TimeZone,
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{"appointment_id": strconv.FormatInt(ev.AppointmentID, 10)},
		},
	}
}

// refreshed возвращает новый токен, если источник его обновил
func refreshed(original Token, ts oauth2.TokenSource) *Token {
	tok, err := ts.Token()
	if err != nil || tok.AccessToken == original.AccessToken {
		return nil
	}

	refreshToken := tok.RefreshToken
	if refreshToken == "" {
		refreshToken = original.RefreshToken
	}
	return &Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: refreshToken,
		Expiry:       tok.Expiry,
	}
}

func classify(op string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return fmt.Errorf("%w: %s - token refresh: %v", ErrTokenInvalid, op, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s: %v", ErrTokenInvalid, op, err)
		case http.StatusNotFound, http.StatusGone:
			return fmt.Errorf("%w: %s: %v", ErrEventNotFound, op, err)
		}
	}

	return fmt.Errorf("%w: %s: %v", ErrProvider, op, err)
}
