package core

import (
	"strings"
	"time"
)

type EventKind string

const (
	EventKindCredentialOffer EventKind = "credential_offer"
	EventKindAppLinkRedirect EventKind = "app_link_redirect"
	EventKindUnrecognized    EventKind = "unrecognized"
)

// ClassifiedEvent is the result of classifying one inbound URL. Token is only
// meaningful for EventKindAppLinkRedirect.
type ClassifiedEvent struct {
	Kind  EventKind
	URL   string
	Token string
}

func CredentialOffer(url string) ClassifiedEvent {
	return ClassifiedEvent{Kind: EventKindCredentialOffer, URL: url}
}

func AppLinkRedirect(url string, token string) ClassifiedEvent {
	return ClassifiedEvent{Kind: EventKindAppLinkRedirect, URL: url, Token: token}
}

func Unrecognized(url string) ClassifiedEvent {
	return ClassifiedEvent{Kind: EventKindUnrecognized, URL: url}
}

func (e ClassifiedEvent) IsOffer() bool {
	return e.Kind == EventKindCredentialOffer
}

func (e ClassifiedEvent) IsRedirect() bool {
	return e.Kind == EventKindAppLinkRedirect
}

type IngestOutcome string

const (
	IngestOutcomeOfferQueued       IngestOutcome = "offer_queued"
	IngestOutcomeOfferRejected     IngestOutcome = "offer_rejected"
	IngestOutcomeRedirectDelivered IngestOutcome = "redirect_delivered"
	IngestOutcomeRedirectUnmatched IngestOutcome = "redirect_unmatched"
	IngestOutcomeIgnored           IngestOutcome = "ignored"
)

type IngestResult struct {
	Event   ClassifiedEvent
	Outcome IngestOutcome
	// Err carries the reason an offer was rejected. It is informational only;
	// ingestion never fails the platform callback.
	Err error
}

type WaitOutcome string

const (
	WaitOutcomePending   WaitOutcome = "pending"
	WaitOutcomeDelivered WaitOutcome = "delivered"
	WaitOutcomeCancelled WaitOutcome = "cancelled"
)

type IngestionRecord struct {
	ID          string        `json:"id"`
	Kind        EventKind     `json:"kind"`
	Outcome     IngestOutcome `json:"outcome"`
	Token       string        `json:"token,omitempty"`
	RedactedURL string        `json:"redacted_url"`
	CreatedAt   time.Time     `json:"created_at"`
}

type IngestionFilter struct {
	Kind    EventKind     `json:"kind,omitempty"`
	Outcome IngestOutcome `json:"outcome,omitempty"`
	Token   string        `json:"token,omitempty"`
	From    *time.Time    `json:"from,omitempty"`
	To      *time.Time    `json:"to,omitempty"`
	Page    int           `json:"page,omitempty"`
	PerPage int           `json:"per_page,omitempty"`
}

type IngestionPage struct {
	Items   []IngestionRecord `json:"items"`
	Page    int               `json:"page"`
	PerPage int               `json:"per_page"`
	Total   int               `json:"total"`
	HasNext bool              `json:"has_next"`
}

type IngestionSummary struct {
	Total     int                   `json:"total"`
	ByKind    map[EventKind]int     `json:"by_kind"`
	ByOutcome map[IngestOutcome]int `json:"by_outcome"`
}

func normalizeEventKind(kind EventKind) EventKind {
	return EventKind(strings.ToLower(strings.TrimSpace(string(kind))))
}

func normalizeIngestOutcome(outcome IngestOutcome) IngestOutcome {
	return IngestOutcome(strings.ToLower(strings.TrimSpace(string(outcome))))
}
