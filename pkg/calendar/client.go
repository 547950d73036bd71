// Package calendar mirrors tasks with due dates into a Google Calendar.
package calendar

import (
	"context"
	"fmt"

	gcal "google.golang.org/api/calendar/v3"
)

// CalendarClient is a Google Calendar API client bound to one calendar.
type CalendarClient struct {
	srv        *gcal.Service
	calendarID string
}

func NewCalendarClient(srv *gcal.Service, calendarID string) *CalendarClient {
	return &CalendarClient{srv: srv, calendarID: calendarID}
}

// Open finds the calendar named calendarName among the user's calendars.
func Open(ctx context.Context, srv *gcal.Service, calendarName string) (*CalendarClient, error) {
	list, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve calendar list: %w", err)
	}
	for _, item := range list.Items {
		if item.Summary == calendarName {
			return NewCalendarClient(srv, item.Id), nil
		}
	}
	return nil, fmt.Errorf("calendar %q not found", calendarName)
}

func (c *CalendarClient) GetEvent(ctx context.Context, eventID string) (*gcal.Event, error) {
	return c.srv.Events.Get(c.calendarID, eventID).Context(ctx).Do()
}

func (c *CalendarClient) InsertEvent(ctx context.Context, event *gcal.Event) (*gcal.Event, error) {
	return c.srv.Events.Insert(c.calendarID, event).Context(ctx).Do()
}

// PatchEvent performs a partial update on an event.
func (c *CalendarClient) PatchEvent(ctx context.Context, eventID string, patch *gcal.Event) (*gcal.Event, error) {
	return c.srv.Events.Patch(c.calendarID, eventID, patch).Context(ctx).Do()
}

func (c *CalendarClient) DeleteEvent(ctx context.Context, eventID string) error {
	return c.srv.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
}

// FindEventByTaskID searches the task id in the events' private extended properties.
func (c *CalendarClient) FindEventByTaskID(ctx context.Context, taskID string) (*gcal.Event, error) {
	events, err := c.srv.Events.List(c.calendarID).
		PrivateExtendedProperty(fmt.Sprintf("%s=%s", TaskIDProperty, taskID)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	if len(events.Items) > 0 {
		return events.Items[0], nil
	}
	return nil, nil
}
