// Copyright (C) 2025 the datecoord maintainers
// See root-dir/LICENSE for more information

// Package calendar renders a confirmed date proposal as calendar-invite
// representations: an RFC 5545 ICS block and deep links for the Google
// and Outlook web calendars. Everything here is a pure function of the
// proposal.
package calendar

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/glimpsed/datecoord/internal/model"
)

const (
	prodID      = "-//Glimpse Dating App//EN"
	uidDomain   = "glimpse-dating.app"
	stampLayout = "20060102T150405Z"

	// Dates default to a two hour window; nothing in a proposal records
	// an explicit end time.
	defaultDuration = 2 * time.Hour
)

// Provider names a calendar destination for the device heuristic.
type Provider string

const (
	ProviderGoogle  Provider = "google"
	ProviderApple   Provider = "apple"
	ProviderOutlook Provider = "outlook"
)

// Event is the provider-neutral invite derived from a proposal.
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// Export bundles every representation a caller might hand to a client.
type Export struct {
	ICS        string   `json:"ics"`
	GoogleURL  string   `json:"google_url"`
	OutlookURL string   `json:"outlook_url"`
	Preferred  Provider `json:"preferred"`
}

// FromProposal derives the invite event. A proposal without a date
// fails fast rather than emitting a partial invite.
func FromProposal(p *model.DateProposal) (Event, error) {
	if p.DateTime.IsZero() {
		return Event{}, &model.ValidationError{Field: "date_time", Reason: "required for calendar export"}
	}

	location := p.Location
	if p.Venue != "" {
		location = p.Venue + ", " + p.Location
	}

	return Event{
		UID:         fmt.Sprintf("%s@%s", p.ID, uidDomain),
		Summary:     fmt.Sprintf("Date with %s: %s", p.MatchName, p.Activity),
		Description: describeProposal(p),
		Location:    location,
		Start:       p.DateTime,
		End:         p.DateTime.Add(defaultDuration),
	}, nil
}

// describeProposal assembles the invite body: the proposal description
// followed by a human-readable line per accommodation.
func describeProposal(p *model.DateProposal) string {
	var b strings.Builder
	b.WriteString(p.Description)

	if len(p.Accommodations) > 0 {
		b.WriteString("\n\nDetails:")
		for _, acc := range p.Accommodations {
			if acc.Status != model.AccommodationConfirmed {
				continue
			}
			switch acc.Type {
			case model.AccommodationRestaurant:
				fmt.Fprintf(&b, "\nDinner at %s", acc.Details.RestaurantName)
				if acc.Details.ConfirmationNumber != "" {
					fmt.Fprintf(&b, " (Confirmation: %s)", acc.Details.ConfirmationNumber)
				}
			case model.AccommodationTickets:
				fmt.Fprintf(&b, "\n%s", acc.Details.EventName)
				if acc.Details.SeatInfo != "" {
					fmt.Fprintf(&b, " - %s", acc.Details.SeatInfo)
				}
			case model.AccommodationTransportation:
				rideType := acc.Details.RideType
				if rideType == "" {
					rideType = "Ride"
				}
				fmt.Fprintf(&b, "\n%s pickup", rideType)
				if acc.Details.PickupTime != nil {
					fmt.Fprintf(&b, " at %s", acc.Details.PickupTime.UTC().Format("15:04"))
				}
			}
		}
	}

	fmt.Fprintf(&b, "\n\nWith %s\n\nCoordinated by Glimpse", p.MatchName)
	return b.String()
}

// ICS renders the event as an RFC 5545 VCALENDAR block. Newlines inside
// text values are escaped per RFC 5545.
func ICS(ev Event) string {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + prodID,
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:" + ev.UID,
		"DTSTAMP:" + time.Now().UTC().Format(stampLayout),
		"DTSTART:" + ev.Start.UTC().Format(stampLayout),
		"DTEND:" + ev.End.UTC().Format(stampLayout),
		"SUMMARY:" + escapeText(ev.Summary),
		"DESCRIPTION:" + escapeText(ev.Description),
		"LOCATION:" + escapeText(ev.Location),
		"STATUS:CONFIRMED",
		"SEQUENCE:0",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return strings.Join(lines, "\r\n")
}

// escapeText escapes commas, semicolons, backslashes and newlines in
// ICS text values.
func escapeText(s string) string {
	r := strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\n", `\n`)
	return r.Replace(s)
}

// GoogleURL builds a calendar.google.com render link pre-filled with
// the event.
func GoogleURL(ev Event) string {
	params := url.Values{}
	params.Set("action", "TEMPLATE")
	params.Set("text", ev.Summary)
	params.Set("details", ev.Description)
	params.Set("location", ev.Location)
	params.Set("dates", ev.Start.UTC().Format(stampLayout)+"/"+ev.End.UTC().Format(stampLayout))
	return "https://calendar.google.com/calendar/render?" + params.Encode()
}

// OutlookURL builds an outlook.live.com compose deep link.
func OutlookURL(ev Event) string {
	params := url.Values{}
	params.Set("path", "/calendar/action/compose")
	params.Set("rru", "addevent")
	params.Set("subject", ev.Summary)
	params.Set("body", ev.Description)
	params.Set("location", ev.Location)
	params.Set("startdt", ev.Start.UTC().Format(time.RFC3339))
	params.Set("enddt", ev.End.UTC().Format(time.RFC3339))
	return "https://outlook.live.com/calendar/0/deeplink/compose?" + params.Encode()
}

// PreferredProvider guesses the caller's calendar from the user agent:
// Apple devices get the ICS download, Android gets Google, Windows gets
// Outlook, everything else defaults to Google.
func PreferredProvider(userAgent string) Provider {
	ua := strings.ToLower(userAgent)
	switch {
	case strings.Contains(ua, "iphone"), strings.Contains(ua, "ipad"),
		strings.Contains(ua, "ipod"), strings.Contains(ua, "macintosh"):
		return ProviderApple
	case strings.Contains(ua, "android"):
		return ProviderGoogle
	case strings.Contains(ua, "windows"):
		return ProviderOutlook
	}
	return ProviderGoogle
}

// ExportProposal produces all representations plus the preferred pick
// for the given user agent.
func ExportProposal(p *model.DateProposal, userAgent string) (*Export, error) {
	ev, err := FromProposal(p)
	if err != nil {
		return nil, err
	}
	return &Export{
		ICS:        ICS(ev),
		GoogleURL:  GoogleURL(ev),
		OutlookURL: OutlookURL(ev),
		Preferred:  PreferredProvider(userAgent),
	}, nil
}
