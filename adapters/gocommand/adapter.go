package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	deeplinkcommand "github.com/goliatone/go-deeplink/command"
	"github.com/goliatone/go-deeplink/core"
	deeplinkquery "github.com/goliatone/go-deeplink/query"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) RegisterQuery(qry any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(qry)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func SubscribeCommand[T any](cmd command.Commander[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
}

func SubscribeCommandFunc[T any](handler command.CommandFunc[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(handler, runnerOpts...)
}

func SubscribeQuery[T any, R any](qry command.Querier[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func SubscribeQueryFunc[T any, R any](qry command.QueryFunc[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	subscription := SubscribeQuery(qry, runnerOpts...)
	if err := adapter.RegisterQuery(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// DeeplinkService is what the deeplink commands and pending queries drive.
type DeeplinkService interface {
	deeplinkcommand.MutatingService
	deeplinkquery.PendingReader
}

// JournalReader backs the ingestion queries.
type JournalReader interface {
	deeplinkquery.IngestionReader
	deeplinkquery.IngestionSummaryReader
}

// Subscriptions is the set returned by RegisterDeeplink.
type Subscriptions []commanddispatcher.Subscription

func (s Subscriptions) Unsubscribe() {
	for _, subscription := range s {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
}

// RegisterDeeplink registers and subscribes every deeplink command and query
// on adapter. The ingestion queries are skipped when journal is nil. On
// failure the subscriptions made so far are removed.
func RegisterDeeplink(
	adapter *RegistryAdapter,
	service DeeplinkService,
	journal JournalReader,
	runnerOpts ...runner.Option,
) (Subscriptions, error) {
	if service == nil {
		return nil, fmt.Errorf("gocommand: deeplink service is required")
	}
	subs := Subscriptions{}
	track := func(sub commanddispatcher.Subscription, err error) error {
		if err != nil {
			subs.Unsubscribe()
			return err
		}
		subs = append(subs, sub)
		return nil
	}

	if err := track(RegisterAndSubscribe[deeplinkcommand.HandleURLMessage](adapter, deeplinkcommand.NewHandleURLCommand(service), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := track(RegisterAndSubscribe[deeplinkcommand.DeliverRedirectMessage](adapter, deeplinkcommand.NewDeliverRedirectCommand(service), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := track(RegisterAndSubscribe[deeplinkcommand.SubmitOfferMessage](adapter, deeplinkcommand.NewSubmitOfferCommand(service), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := track(RegisterAndSubscribeQuery[deeplinkquery.PendingRedirectsMessage, []string](adapter, deeplinkquery.NewPendingRedirectsQuery(service), runnerOpts...)); err != nil {
		return nil, err
	}
	if err := track(RegisterAndSubscribeQuery[deeplinkquery.PendingOffersMessage, int](adapter, deeplinkquery.NewPendingOffersQuery(service), runnerOpts...)); err != nil {
		return nil, err
	}
	if journal != nil {
		if err := track(RegisterAndSubscribeQuery[deeplinkquery.ListIngestionMessage, core.IngestionPage](adapter, deeplinkquery.NewListIngestionQuery(journal), runnerOpts...)); err != nil {
			return nil, err
		}
		if err := track(RegisterAndSubscribeQuery[deeplinkquery.IngestionSummaryMessage, core.IngestionSummary](adapter, deeplinkquery.NewIngestionSummaryQuery(journal), runnerOpts...)); err != nil {
			return nil, err
		}
	}
	return subs, nil
}

// HandleURL dispatches a HandleURLMessage and returns the stored result.
func HandleURL(ctx context.Context, raw string) (core.IngestResult, error) {
	collector := command.NewResult[core.IngestResult]()
	ctx = command.ContextWithResult(ctx, collector)
	if err := Dispatch(ctx, deeplinkcommand.HandleURLMessage{URL: raw}); err != nil {
		return core.IngestResult{}, err
	}
	result, _ := collector.Load()
	return result, nil
}

// DeliverRedirect dispatches a DeliverRedirectMessage and reports whether a
// pending wait matched.
func DeliverRedirect(ctx context.Context, token, redirectURL string) (bool, error) {
	collector := command.NewResult[bool]()
	ctx = command.ContextWithResult(ctx, collector)
	if err := Dispatch(ctx, deeplinkcommand.DeliverRedirectMessage{Token: token, URL: redirectURL}); err != nil {
		return false, err
	}
	matched, _ := collector.Load()
	return matched, nil
}
