package inbound

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-deeplink/core"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/gorilla/mux"
)

const (
	DefaultLandingPath   = "/landing/"
	DeeplinksPath        = "/deeplinks"
	NextOfferPath        = "/offers/next"
	PendingRedirectsPath = "/redirects/pending"
	HealthcheckPath      = "/healthcheck"

	DefaultOfferWait = 30 * time.Second
	MaxOfferWait     = 5 * time.Minute

	maxIntakeBodyBytes = 64 << 10
)

// Service is the part of core.Service the HTTP surface drives.
type Service interface {
	HandleURL(ctx context.Context, raw string) core.IngestResult
	ReceiveOffer(ctx context.Context) (string, error)
	PendingOffers() int
	PendingRedirects() []string
}

// Handler is a single routed endpoint.
type Handler interface {
	Path() string
	Method() string
	Handle() http.HandlerFunc
}

type Config struct {
	Service Service
	// PublicBaseURL is the scheme and host app links are published under,
	// for example https://wallet.example. The landing path is appended to it.
	PublicBaseURL string
	LandingPath   string
	Logger        core.Logger
}

// Operation serves the deep-link routes.
type Operation struct {
	service       Service
	publicBaseURL string
	landingPath   string
	logger        core.Logger
	now           func() time.Time
}

func New(cfg Config) (*Operation, error) {
	if cfg.Service == nil {
		return nil, inboundInternal("inbound: service is required", nil)
	}
	base, landing := normalizeLanding(cfg.PublicBaseURL, cfg.LandingPath)
	if base == "" {
		return nil, inboundBadInput("inbound: public base url is required", nil)
	}
	return &Operation{
		service:       cfg.Service,
		publicBaseURL: base,
		landingPath:   landing,
		logger:        glog.Ensure(cfg.Logger),
		now:           time.Now,
	}, nil
}

// LandingURL is the absolute URL prefix the landing route answers for. It
// must be listed in the classifier's app-link prefixes.
func (o *Operation) LandingURL() string {
	return o.publicBaseURL + o.landingPath
}

// LandingURL computes the landing prefix for publicBaseURL and landingPath
// the same way New does, for callers that configure the classifier first.
func LandingURL(publicBaseURL, landingPath string) string {
	base, landing := normalizeLanding(publicBaseURL, landingPath)
	return base + landing
}

func normalizeLanding(publicBaseURL, landingPath string) (string, string) {
	base := strings.TrimRight(strings.TrimSpace(publicBaseURL), "/")
	landing := strings.TrimSpace(landingPath)
	if landing == "" {
		landing = DefaultLandingPath
	}
	if !strings.HasPrefix(landing, "/") {
		landing = "/" + landing
	}
	return base, landing
}

func (o *Operation) GetRESTHandlers() []Handler {
	return []Handler{
		newHTTPHandler(o.landingPath, http.MethodGet, o.landing),
		newHTTPHandler(DeeplinksPath, http.MethodPost, o.intake),
		newHTTPHandler(NextOfferPath, http.MethodGet, o.nextOffer),
		newHTTPHandler(PendingRedirectsPath, http.MethodGet, o.pending),
		newHTTPHandler(HealthcheckPath, http.MethodGet, o.healthcheck),
	}
}

// Register adds every handler to router.
func (o *Operation) Register(router *mux.Router) {
	for _, handler := range o.GetRESTHandlers() {
		router.HandleFunc(handler.Path(), handler.Handle()).Methods(handler.Method())
	}
}

// NewRouter returns a router with the deep-link routes registered.
func NewRouter(op *Operation) *mux.Router {
	router := mux.NewRouter()
	op.Register(router)
	return router
}

type ingestResponse struct {
	Kind    core.EventKind     `json:"kind"`
	Outcome core.IngestOutcome `json:"outcome"`
}

type intakeRequest struct {
	URL string `json:"url"`
}

type offerResponse struct {
	URL string `json:"url"`
}

type pendingResponse struct {
	Redirects int `json:"pending_redirects"`
	Offers    int `json:"pending_offers"`
}

type healthCheckResponse struct {
	Status      string    `json:"status"`
	CurrentTime time.Time `json:"current_time"`
}

func (o *Operation) landing(w http.ResponseWriter, r *http.Request) {
	raw := o.LandingURL()
	if r.URL.RawQuery != "" {
		raw += "?" + r.URL.RawQuery
	}
	o.writeIngest(w, r, o.service.HandleURL(r.Context(), raw))
}

func (o *Operation) intake(w http.ResponseWriter, r *http.Request) {
	var body intakeRequest
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxIntakeBodyBytes))
	if err := decoder.Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		o.fail(w, r, inboundBadInput("inbound: request body is not valid json", nil))
		return
	}
	body.URL = strings.TrimSpace(body.URL)
	if body.URL == "" {
		o.fail(w, r, inboundBadInput("inbound: url is required", nil))
		return
	}
	o.writeIngest(w, r, o.service.HandleURL(r.Context(), body.URL))
}

func (o *Operation) nextOffer(w http.ResponseWriter, r *http.Request) {
	wait, err := parseWait(r.URL.Query().Get("wait"))
	if err != nil {
		o.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), wait)
	defer cancel()

	offerURL, err := o.service.ReceiveOffer(ctx)
	if err != nil {
		if ctx.Err() != nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		o.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, offerResponse{URL: offerURL})
}

func (o *Operation) pending(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, pendingResponse{
		Redirects: len(o.service.PendingRedirects()),
		Offers:    o.service.PendingOffers(),
	})
}

func (o *Operation) healthcheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthCheckResponse{Status: "success", CurrentTime: o.now().UTC()})
}

func (o *Operation) writeIngest(w http.ResponseWriter, r *http.Request, result core.IngestResult) {
	if result.Err != nil {
		o.fail(w, r, result.Err)
		return
	}
	status := http.StatusAccepted
	if result.Outcome == core.IngestOutcomeRedirectDelivered {
		status = http.StatusOK
	}
	writeJSON(w, status, ingestResponse{Kind: result.Event.Kind, Outcome: result.Outcome})
}

func (o *Operation) fail(w http.ResponseWriter, r *http.Request, err error) {
	problem := problemFor(err, r.URL.Path)
	if problem.Status >= http.StatusInternalServerError {
		o.logger.Error("inbound request failed", "path", r.URL.Path, "status", problem.Status, "error", err)
	} else {
		o.logger.Debug("inbound request rejected", "path", r.URL.Path, "status", problem.Status, "error", err)
	}
	writeProblem(w, problem)
}

func parseWait(raw string) (time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultOfferWait, nil
	}
	wait, err := time.ParseDuration(raw)
	if err != nil || wait <= 0 {
		return 0, inboundBadInput("inbound: wait must be a positive duration", map[string]any{"wait": raw})
	}
	if wait > MaxOfferWait {
		wait = MaxOfferWait
	}
	return wait, nil
}

type httpHandler struct {
	path   string
	method string
	handle http.HandlerFunc
}

func newHTTPHandler(path, method string, handle http.HandlerFunc) Handler {
	return httpHandler{path: path, method: method, handle: handle}
}

func (h httpHandler) Path() string {
	return h.path
}

func (h httpHandler) Method() string {
	return h.method
}

func (h httpHandler) Handle() http.HandlerFunc {
	return h.handle
}
