package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-deeplink/core"
)

type MutatingService interface {
	HandleURL(ctx context.Context, raw string) core.IngestResult
	DeliverRedirect(token, redirectURL string) bool
	SubmitOffer(offerURL string) error
}

type HandleURLCommand struct {
	service MutatingService
}

func NewHandleURLCommand(service MutatingService) *HandleURLCommand {
	return &HandleURLCommand{service: service}
}

// Execute stores the core.IngestResult in the context result collector. The
// command itself never fails once the message is valid.
func (c *HandleURLCommand) Execute(ctx context.Context, msg HandleURLMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: url handler service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	storeResult(ctx, c.service.HandleURL(ctx, msg.URL))
	return nil
}

type DeliverRedirectCommand struct {
	service MutatingService
}

func NewDeliverRedirectCommand(service MutatingService) *DeliverRedirectCommand {
	return &DeliverRedirectCommand{service: service}
}

// Execute stores whether a pending wait matched the token.
func (c *DeliverRedirectCommand) Execute(ctx context.Context, msg DeliverRedirectMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: redirect delivery service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	storeResult(ctx, c.service.DeliverRedirect(msg.Token, msg.URL))
	return nil
}

type SubmitOfferCommand struct {
	service MutatingService
}

func NewSubmitOfferCommand(service MutatingService) *SubmitOfferCommand {
	return &SubmitOfferCommand{service: service}
}

func (c *SubmitOfferCommand) Execute(ctx context.Context, msg SubmitOfferMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: offer service is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	return c.service.SubmitOffer(msg.URL)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
