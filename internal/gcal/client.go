// Package gcal - тонкая обертка над Google Calendar API: листание всех
// событий и CRUD с повторными попытками.
package gcal

import (
	"fmt"

	"kruzhki-bot/internal/retry"

	"google.golang.org/api/calendar/v3"
)

const pageSize = 2500

// EventsAPI - операции календаря, нужные синхронизации.
type EventsAPI interface {
	List() ([]*calendar.Event, error)
	Insert(event *calendar.Event) (*calendar.Event, error)
	Update(eventID string, event *calendar.Event) error
	Delete(eventID string) error
}

type Client struct {
	srv        *calendar.Service
	calendarID string
}

func NewClient(srv *calendar.Service, calendarID string) *Client {
	return &Client{srv: srv, calendarID: calendarID}
}

// List возвращает все события календаря, постранично.
func (c *Client) List() ([]*calendar.Event, error) {
	var events []*calendar.Event
	pageToken := ""
	for {
		var page *calendar.Events
		err := retry.Call("чтение событий календаря", func() error {
			call := c.srv.Events.List(c.calendarID).
				MaxResults(pageSize).
				SingleEvents(true).
				OrderBy("startTime")
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			var err error
			page, err = call.Do()
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения календаря: %w", err)
		}

		events = append(events, page.Items...)
		if page.NextPageToken == "" {
			return events, nil
		}
		pageToken = page.NextPageToken
	}
}

func (c *Client) Insert(event *calendar.Event) (*calendar.Event, error) {
	var created *calendar.Event
	err := retry.Call("создание события", func() error {
		var err error
		created, err = c.srv.Events.Insert(c.calendarID, event).Do()
		return err
	})
	return created, err
}

func (c *Client) Update(eventID string, event *calendar.Event) error {
	return retry.Call("обновление события", func() error {
		_, err := c.srv.Events.Update(c.calendarID, eventID, event).Do()
		return err
	})
}

func (c *Client) Delete(eventID string) error {
	return retry.Call("удаление события", func() error {
		return c.srv.Events.Delete(c.calendarID, eventID).Do()
	})
}
