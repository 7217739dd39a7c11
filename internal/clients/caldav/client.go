package caldav

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"

	"github.com/tazhate/taqvim/internal/export"
)

const (
	// Apple iCloud CalDAV endpoint
	DefaultiCloudURL = "https://caldav.icloud.com"
)

// Client pushes catalog events into a CalDAV calendar
type Client struct {
	baseURL      string
	username     string
	password     string
	calendarPath string

	mu     sync.Mutex
	client *caldav.Client
}

// NewClient creates a new CalDAV client
func NewClient(baseURL, username, password string) *Client {
	if baseURL == "" {
		baseURL = DefaultiCloudURL
	}
	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
	}
}

// IsConfigured returns true if the client has credentials and a target calendar
func (c *Client) IsConfigured() bool {
	return c.username != "" && c.password != "" && c.calendarPath != ""
}

// HasCredentials returns true if the account can be queried, even before
// a target calendar is chosen
func (c *Client) HasCredentials() bool {
	return c.username != "" && c.password != ""
}

// SetCalendarPath sets the calendar collection events are written to
func (c *Client) SetCalendarPath(path string) {
	c.calendarPath = path
}

// CalendarPath returns the configured calendar collection
func (c *Client) CalendarPath() string {
	return c.calendarPath
}

// connect establishes connection to CalDAV server
func (c *Client) connect() (*caldav.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	httpClient := &http.Client{
		Transport: &basicAuthTransport{
			username: c.username,
			password: c.password,
		},
		Timeout: 30 * time.Second,
	}

	client, err := caldav.NewClient(httpClient, c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to CalDAV: %w", err)
	}

	c.client = client
	return client, nil
}

// basicAuthTransport adds Basic Auth to HTTP requests
type basicAuthTransport struct {
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.username, t.password)
	return http.DefaultTransport.RoundTrip(req)
}

// DiscoverCalendars returns all calendars for the user
func (c *Client) DiscoverCalendars(ctx context.Context) ([]Calendar, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find home set: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("find calendars: %w", err)
	}

	result := make([]Calendar, 0, len(cals))
	for _, cal := range cals {
		result = append(result, Calendar{
			Path:        cal.Path,
			DisplayName: cal.Name,
			Description: cal.Description,
		})
	}
	return result, nil
}

// PutOccurrence writes one occurrence as <uid>.ics. PUT replaces, so
// re-syncing the same occurrence updates it in place.
func (c *Client) PutOccurrence(ctx context.Context, o export.Occurrence) error {
	client, err := c.connect()
	if err != nil {
		return err
	}
	if c.calendarPath == "" {
		return fmt.Errorf("calendar path not specified")
	}

	cal := export.NewCalendar("")
	cal.Children = append(cal.Children, export.NewEvent(o, time.Now()).Component)

	if _, err := client.PutCalendarObject(ctx, c.objectPath(o.UID()), cal); err != nil {
		return fmt.Errorf("put %s: %w", o.Event.TitleEn, err)
	}
	return nil
}

// DeleteOccurrence removes an event by UID
func (c *Client) DeleteOccurrence(ctx context.Context, uid string) error {
	client, err := c.connect()
	if err != nil {
		return err
	}
	if c.calendarPath == "" {
		return fmt.Errorf("calendar path not specified")
	}

	if err := client.RemoveAll(ctx, c.objectPath(uid)); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

// ListUIDs returns the UIDs of events starting in [from, to)
func (c *Client) ListUIDs(ctx context.Context, from, to time.Time) ([]string, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}
	if c.calendarPath == "" {
		return nil, fmt.Errorf("calendar path not specified")
	}

	query := &caldav.CalendarQuery{
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{
				{
					Name:  ical.CompEvent,
					Start: from,
					End:   to,
				},
			},
		},
	}

	objects, err := client.QueryCalendar(ctx, c.calendarPath, query)
	if err != nil {
		return nil, fmt.Errorf("query calendar: %w", err)
	}

	var uids []string
	for _, obj := range objects {
		if uid := objectUID(&obj); uid != "" {
			uids = append(uids, uid)
		}
	}
	return uids, nil
}

func (c *Client) objectPath(uid string) string {
	p := c.calendarPath
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p + uid + ".ics"
}

// objectUID returns the UID of the first VEVENT in a calendar object
func objectUID(obj *caldav.CalendarObject) string {
	if obj.Data == nil {
		return ""
	}
	for _, comp := range obj.Data.Children {
		if comp.Name != ical.CompEvent {
			continue
		}
		if prop := comp.Props.Get(ical.PropUID); prop != nil {
			return prop.Value
		}
	}
	return ""
}
