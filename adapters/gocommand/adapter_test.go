package gocommand

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-command"
	"github.com/goliatone/go-deeplink/core"
	deeplinkquery "github.com/goliatone/go-deeplink/query"
)

type okMessage struct{}

func (okMessage) Type() string { return "deeplink.test.ok" }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "deeplink.test.fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

type dispatchMessage struct {
	ID string
}

func (dispatchMessage) Type() string { return "deeplink.test.dispatch" }

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
}

func TestRegistryAndDispatchWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	executed := 0
	customResolverCalled := 0

	cmd := command.CommandFunc[dispatchMessage](func(context.Context, dispatchMessage) error {
		executed++
		return nil
	})

	if _, err := RegisterAndSubscribe(adapter, cmd); err != nil {
		t.Fatalf("register and subscribe: %v", err)
	}
	if err := adapter.AddResolver("custom", func(any, command.CommandMeta, *command.Registry) error {
		customResolverCalled++
		return nil
	}); err != nil {
		t.Fatalf("add resolver: %v", err)
	}
	if !adapter.HasResolver("custom") {
		t.Fatalf("expected custom resolver to be registered")
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}
	if customResolverCalled == 0 {
		t.Fatalf("expected resolver hook to run during initialization")
	}

	if err := Dispatch(context.Background(), dispatchMessage{ID: "m1"}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if executed != 1 {
		t.Fatalf("expected command execution count=1, got %d", executed)
	}
}

type stubJournalReader struct {
	page    core.IngestionPage
	summary core.IngestionSummary
	filters []core.IngestionFilter
}

func (s *stubJournalReader) List(_ context.Context, filter core.IngestionFilter) (core.IngestionPage, error) {
	s.filters = append(s.filters, filter)
	return s.page, nil
}

func (s *stubJournalReader) Summary(context.Context) (core.IngestionSummary, error) {
	return s.summary, nil
}

func newDeeplinkService(t *testing.T) *core.Service {
	t.Helper()
	svc, err := core.NewService(core.DefaultConfig())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestRegisterDeeplink_DispatchesCommandsAndQueries(t *testing.T) {
	svc := newDeeplinkService(t)
	journal := &stubJournalReader{
		page:    core.IngestionPage{Total: 3},
		summary: core.IngestionSummary{Total: 3},
	}
	adapter := NewRegistryAdapter(command.NewRegistry())

	subs, err := RegisterDeeplink(adapter, svc, journal)
	if err != nil {
		t.Fatalf("register deeplink: %v", err)
	}
	t.Cleanup(subs.Unsubscribe)
	if len(subs) != 7 {
		t.Fatalf("expected seven subscriptions, got %d", len(subs))
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	wait, err := svc.RegisterRedirect("abc")
	if err != nil {
		t.Fatalf("register redirect: %v", err)
	}
	pending, err := Query[deeplinkquery.PendingRedirectsMessage, []string](context.Background(), deeplinkquery.PendingRedirectsMessage{})
	if err != nil {
		t.Fatalf("query pending redirects: %v", err)
	}
	if len(pending) != 1 || pending[0] != "abc" {
		t.Fatalf("unexpected pending tokens %#v", pending)
	}

	result, err := HandleURL(context.Background(), "wholesale-test-app://landing/?state=abc")
	if err != nil {
		t.Fatalf("dispatch handle url: %v", err)
	}
	if result.Outcome != core.IngestOutcomeRedirectDelivered {
		t.Fatalf("expected delivered outcome, got %q", result.Outcome)
	}
	if wait.Outcome() != core.WaitOutcomeDelivered {
		t.Fatalf("expected wait delivered")
	}

	matched, err := DeliverRedirect(context.Background(), "abc", "wholesale-test-app://landing/?state=abc")
	if err != nil {
		t.Fatalf("dispatch deliver redirect: %v", err)
	}
	if matched {
		t.Fatalf("expected second delivery to be unmatched")
	}

	page, err := Query[deeplinkquery.ListIngestionMessage, core.IngestionPage](context.Background(), deeplinkquery.ListIngestionMessage{
		Filter: core.IngestionFilter{Kind: core.EventKindAppLinkRedirect},
	})
	if err != nil {
		t.Fatalf("query ingestion list: %v", err)
	}
	if page.Total != 3 || len(journal.filters) != 1 || journal.filters[0].PerPage != core.DefaultIngestionPerPage {
		t.Fatalf("expected normalized filter to reach journal, got %#v", journal.filters)
	}
}

func TestRegisterDeeplink_RejectsInvalidMessage(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	subs, err := RegisterDeeplink(adapter, newDeeplinkService(t), nil)
	if err != nil {
		t.Fatalf("register deeplink: %v", err)
	}
	t.Cleanup(subs.Unsubscribe)
	if len(subs) != 5 {
		t.Fatalf("expected journal queries to be skipped, got %d subscriptions", len(subs))
	}

	if _, err := HandleURL(context.Background(), " "); err == nil {
		t.Fatalf("expected validation error for empty url")
	}
}

func TestRegisterDeeplink_RequiresService(t *testing.T) {
	if _, err := RegisterDeeplink(NewRegistryAdapter(nil), nil, nil); err == nil {
		t.Fatalf("expected missing service error")
	}
}
