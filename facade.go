package deeplink

import (
	"fmt"

	deeplinkcommand "github.com/goliatone/go-deeplink/command"
	deeplinkquery "github.com/goliatone/go-deeplink/query"
)

type CommandQueryService interface {
	deeplinkcommand.MutatingService
	deeplinkquery.PendingReader
}

// JournalReader backs the ingestion queries.
type JournalReader interface {
	deeplinkquery.IngestionReader
	deeplinkquery.IngestionSummaryReader
}

type Commands struct {
	HandleURL       *deeplinkcommand.HandleURLCommand
	DeliverRedirect *deeplinkcommand.DeliverRedirectCommand
	SubmitOffer     *deeplinkcommand.SubmitOfferCommand
}

type Queries struct {
	PendingRedirects *deeplinkquery.PendingRedirectsQuery
	PendingOffers    *deeplinkquery.PendingOffersQuery
	ListIngestion    *deeplinkquery.ListIngestionQuery
	IngestionSummary *deeplinkquery.IngestionSummaryQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	journalReader JournalReader
}

func WithJournalReader(reader JournalReader) FacadeOption {
	return func(options *facadeOptions) {
		options.journalReader = reader
	}
}

// NewFacade builds every command and query handler over service. Without a
// journal reader the ingestion queries are still built and report a
// dependency error when executed.
func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("deeplink: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	reader := cfg.journalReader
	if reader == nil {
		reader, _ = service.(JournalReader)
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		HandleURL:       deeplinkcommand.NewHandleURLCommand(service),
		DeliverRedirect: deeplinkcommand.NewDeliverRedirectCommand(service),
		SubmitOffer:     deeplinkcommand.NewSubmitOfferCommand(service),
	}
	facade.queries = Queries{
		PendingRedirects: deeplinkquery.NewPendingRedirectsQuery(service),
		PendingOffers:    deeplinkquery.NewPendingOffersQuery(service),
		ListIngestion:    deeplinkquery.NewListIngestionQuery(reader),
		IngestionSummary: deeplinkquery.NewIngestionSummaryQuery(reader),
	}
	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}
