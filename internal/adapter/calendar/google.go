// Package calendar creates appointment events in Google Calendar.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/xiaot623/healthflow/internal/domain"
)

// DefaultCalendarID is the authenticated account's primary calendar.
const DefaultCalendarID = "primary"

// GoogleCalendar implements tools.CalendarService.
type GoogleCalendar struct {
	svc        *gcal.Service
	calendarID string
}

// NewGoogleCalendar authenticates with a service account credentials file.
func NewGoogleCalendar(ctx context.Context, credentialsFile, calendarID string) (*GoogleCalendar, error) {
	if credentialsFile == "" {
		return nil, errors.New("google credentials file is not set")
	}
	return NewWithOptions(ctx, calendarID,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gcal.CalendarEventsScope),
	)
}

// NewWithOptions builds the client from raw client options.
func NewWithOptions(ctx context.Context, calendarID string, opts ...option.ClientOption) (*GoogleCalendar, error) {
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	if calendarID == "" {
		calendarID = DefaultCalendarID
	}
	return &GoogleCalendar{svc: svc, calendarID: calendarID}, nil
}

// CreateEvent inserts the event and returns its HTML link.
func (g *GoogleCalendar) CreateEvent(ctx context.Context, ev domain.CalendarEvent) (string, error) {
	attendees := make([]*gcal.EventAttendee, 0, len(ev.Attendees))
	for _, email := range ev.Attendees {
		if email != "" {
			attendees = append(attendees, &gcal.EventAttendee{Email: email})
		}
	}

	event := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start:       eventTime(ev.Start, ev.TimeZone),
		End:         eventTime(ev.End, ev.TimeZone),
		Attendees:   attendees,
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 10},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := g.svc.Events.Insert(g.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to insert calendar event: %w", err)
	}
	return created.HtmlLink, nil
}

func eventTime(t time.Time, tz string) *gcal.EventDateTime {
	if tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			t = t.In(loc)
		}
	}
	return &gcal.EventDateTime{DateTime: t.Format(time.RFC3339), TimeZone: tz}
}
