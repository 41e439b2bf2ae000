package workspace

import (
	"context"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
)

const (
	upcomingEventLimit = 10
	meetEventLimit     = 50
	meetLookback       = 30 * 24 * time.Hour
	meetSolutionName   = "Google Meet"
)

// UpcomingEvents returns the next events on the primary calendar.
func (c *Client) UpcomingEvents(ctx context.Context, hc *http.Client, now time.Time) ([]*calendar.Event, error) {
	svc, err := c.calendar(ctx, hc)
	if err != nil {
		return nil, err
	}
	events, err := svc.Events.List("primary").
		TimeMin(now.Format(time.RFC3339)).
		MaxResults(upcomingEventLimit).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	if events.Items == nil {
		return []*calendar.Event{}, nil
	}
	return events.Items, nil
}

// MeetEvent is a calendar event held on Google Meet.
type MeetEvent struct {
	ID          string                    `json:"id"`
	Name        string                    `json:"name"`
	StartTime   string                    `json:"startTime,omitempty"`
	EndTime     string                    `json:"endTime,omitempty"`
	MeetingCode string                    `json:"meetingCode,omitempty"`
	MeetingURL  string                    `json:"meetingUrl,omitempty"`
	Attendees   []*calendar.EventAttendee `json:"attendees"`
	Description string                    `json:"description"`
	Space       MeetSpace                 `json:"space"`
}

type MeetSpace struct {
	MeetingCode string `json:"meetingCode,omitempty"`
}

// MeetEvents returns the Google Meet events of the last 30 days.
func (c *Client) MeetEvents(ctx context.Context, hc *http.Client, now time.Time) ([]MeetEvent, error) {
	svc, err := c.calendar(ctx, hc)
	if err != nil {
		return nil, err
	}
	events, err := svc.Events.List("primary").
		TimeMin(now.Add(-meetLookback).Format(time.RFC3339)).
		MaxResults(meetEventLimit).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}

	out := []MeetEvent{}
	for _, e := range events.Items {
		if !isMeet(e) {
			continue
		}
		out = append(out, toMeetEvent(e))
	}
	return out, nil
}

func isMeet(e *calendar.Event) bool {
	cd := e.ConferenceData
	return cd != nil && cd.ConferenceSolution != nil && cd.ConferenceSolution.Name == meetSolutionName
}

func toMeetEvent(e *calendar.Event) MeetEvent {
	m := MeetEvent{
		ID:          e.Id,
		Name:        e.Summary,
		StartTime:   eventTime(e.Start),
		EndTime:     eventTime(e.End),
		MeetingCode: e.ConferenceData.ConferenceId,
		MeetingURL:  e.HangoutLink,
		Attendees:   e.Attendees,
		Description: e.Description,
	}
	if m.Name == "" {
		m.Name = "Untitled Meeting"
	}
	if m.MeetingURL == "" {
		for _, ep := range e.ConferenceData.EntryPoints {
			if ep != nil && ep.EntryPointType == "video" {
				m.MeetingURL = ep.Uri
				break
			}
		}
	}
	if m.Attendees == nil {
		m.Attendees = []*calendar.EventAttendee{}
	}
	m.Space.MeetingCode = m.MeetingCode
	return m
}

// eventTime prefers the timed start over the all-day date.
func eventTime(t *calendar.EventDateTime) string {
	if t == nil {
		return ""
	}
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}
