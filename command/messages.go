package command

import (
	"strings"
)

const (
	TypeHandleURL       = "deeplink.command.url.handle"
	TypeDeliverRedirect = "deeplink.command.redirect.deliver"
	TypeSubmitOffer     = "deeplink.command.offer.submit"
)

// HandleURLMessage carries a URL received from the platform.
type HandleURLMessage struct {
	URL string
}

func (HandleURLMessage) Type() string { return TypeHandleURL }

func (m HandleURLMessage) Validate() error {
	if strings.TrimSpace(m.URL) == "" {
		return commandValidationError("url", "url is required")
	}
	return nil
}

// DeliverRedirectMessage resolves a pending redirect directly. An empty token
// is valid and matches a wait registered with the empty token.
type DeliverRedirectMessage struct {
	Token string
	URL   string
}

func (DeliverRedirectMessage) Type() string { return TypeDeliverRedirect }

func (m DeliverRedirectMessage) Validate() error {
	if strings.TrimSpace(m.URL) == "" {
		return commandValidationError("url", "url is required")
	}
	return nil
}

type SubmitOfferMessage struct {
	URL string
}

func (SubmitOfferMessage) Type() string { return TypeSubmitOffer }

func (m SubmitOfferMessage) Validate() error {
	if strings.TrimSpace(m.URL) == "" {
		return commandValidationError("url", "offer url is required")
	}
	return nil
}
