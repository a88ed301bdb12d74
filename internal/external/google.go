package external

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const ProviderGoogle = "google"

// NewGoogleOAuthConfig returns the OAuth2 config used to mint calendar tokens,
// or nil when the client credentials are not configured.
func NewGoogleOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	if clientID == "" || clientSecret == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			calendar.CalendarReadonlyScope,
		},
		Endpoint: google.Endpoint,
	}
}

// GoogleSource reads busy events from one Google calendar.
type GoogleSource struct {
	svc        *calendar.Service
	calendarID string
}

func NewGoogleSource(svc *calendar.Service, calendarID string) *GoogleSource {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleSource{svc: svc, calendarID: calendarID}
}

func (s *GoogleSource) Provider() string {
	return ProviderGoogle + ":" + s.calendarID
}

// ListBusy lists events intersecting [from, to). Recurring events are expanded
// into single instances by the API.
func (s *GoogleSource) ListBusy(ctx context.Context, from, to time.Time) ([]RawEvent, error) {
	const op = "external.GoogleSource.ListBusy"

	call := s.svc.Events.List(s.calendarID).
		SingleEvents(true).
		OrderBy("startTime").
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		MaxResults(250)

	var out []RawEvent
	err := call.Pages(ctx, func(page *calendar.Events) error {
		loc := time.UTC
		if page.TimeZone != "" {
			if l, err := time.LoadLocation(page.TimeZone); err == nil {
				loc = l
			}
		}
		for _, item := range page.Items {
			out = append(out, googleEvent(item, loc))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func googleEvent(item *calendar.Event, loc *time.Location) RawEvent {
	return RawEvent{
		ID:          item.Id,
		Start:       googleTime(item.Start, loc),
		End:         googleTime(item.End, loc),
		Transparent: item.Transparency == "transparent" || item.Status == "cancelled",
	}
}

// googleTime parses a timed or all-day boundary. All-day dates are midnight in
// the calendar's own zone. Unparseable values yield the zero time.
func googleTime(dt *calendar.EventDateTime, loc *time.Location) time.Time {
	if dt == nil {
		return time.Time{}
	}
	if dt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			return t
		}
		return time.Time{}
	}
	if dt.Date != "" {
		if t, err := time.ParseInLocation("2006-01-02", dt.Date, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Connection is a stored link between a resource and an external calendar.
type Connection struct {
	ResourceID string
	Provider   string
	CalendarID string
	Token      *oauth2.Token
}

type ConnectionStore interface {
	ListCalendarConnections(ctx context.Context, resourceID string) ([]Connection, error)
}

// GoogleConnector builds a GoogleSource for each Google connection of a
// resource. Expired access tokens are refreshed by the oauth2 token source.
type GoogleConnector struct {
	OAuth   *oauth2.Config
	Store   ConnectionStore
	Options []option.ClientOption
}

func (c *GoogleConnector) Sources(ctx context.Context, resourceID string) ([]Source, error) {
	const op = "external.GoogleConnector.Sources"

	if c == nil || c.OAuth == nil || c.Store == nil {
		return nil, nil
	}
	conns, err := c.Store.ListCalendarConnections(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var sources []Source
	for _, conn := range conns {
		if conn.Provider != ProviderGoogle || conn.Token == nil {
			continue
		}
		opts := append([]option.ClientOption{option.WithHTTPClient(c.OAuth.Client(ctx, conn.Token))}, c.Options...)
		svc, err := calendar.NewService(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("%s: calendar %s: %w", op, conn.CalendarID, err)
		}
		sources = append(sources, NewGoogleSource(svc, conn.CalendarID))
	}
	return sources, nil
}
