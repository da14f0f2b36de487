package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/sundialhq/sundial/internal/google"
	"github.com/sundialhq/sundial/internal/instrumentation"
	"github.com/sundialhq/sundial/internal/logging"
	"github.com/sundialhq/sundial/internal/tokenstore"
)

// defaultSendUpdates is the notification policy applied when the caller does
// not specify one. Attendees expect invitations; silence is opt-in.
const defaultSendUpdates = "all"

// Gateway executes Calendar API operations on behalf of stored credential
// records. It holds a cache of oauth2 configurations keyed by client
// credentials; entries live for the process lifetime since the client
// credential population is tiny and fixed. Per-user token sources are built
// fresh for every operation and never cached.
type Gateway struct {
	client  *google.ClientConfig
	store   *tokenstore.FileStore
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	// endpoint overrides the Calendar API base URL when non-empty.
	endpoint string

	mu      sync.RWMutex
	configs map[string]*oauth2.Config
}

// NewGateway creates a gateway using the given application OAuth client and
// credential store.
func NewGateway(client *google.ClientConfig, store *tokenstore.FileStore) *Gateway {
	return &Gateway{
		client:  client,
		store:   store,
		logger:  slog.Default(),
		metrics: &instrumentation.Metrics{},
		configs: make(map[string]*oauth2.Config),
	}
}

// SetLogger sets a custom logger for the gateway.
func (g *Gateway) SetLogger(logger *slog.Logger) { g.logger = logger }

// SetMetrics sets the metrics recorder for the gateway.
func (g *Gateway) SetMetrics(m *instrumentation.Metrics) {
	if m != nil {
		g.metrics = m
	}
}

// SetEndpoint points the gateway at an alternative Calendar API base URL.
// Tests use this to run operations against a local server.
func (g *Gateway) SetEndpoint(endpoint string) { g.endpoint = endpoint }

// oauthConfig returns the cached oauth2 configuration for the gateway's
// client credentials, building it on first use.
func (g *Gateway) oauthConfig() *oauth2.Config {
	key := g.client.ClientID + "\x00" + g.client.ClientSecret

	g.mu.RLock()
	cfg, ok := g.configs[key]
	g.mu.RUnlock()
	if ok {
		return cfg
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if cfg, ok = g.configs[key]; ok {
		return cfg
	}
	cfg = g.client.OAuthConfig()
	g.configs[key] = cfg
	return cfg
}

// serviceFor builds an authenticated Calendar service for the record. The
// token source refreshes a stale access token synchronously on first use when
// a refresh token exists; refreshed tokens are written back to the store.
func (g *Gateway) serviceFor(ctx context.Context, rec *tokenstore.Record) (*calendar.Service, error) {
	cfg := g.oauthConfig()

	tok := &oauth2.Token{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       rec.Expiry(),
	}

	src := &persistingSource{
		ctx:     ctx,
		inner:   cfg.TokenSource(ctx, tok),
		store:   g.store,
		rec:     rec,
		last:    rec.AccessToken,
		logger:  g.logger,
		metrics: g.metrics,
	}

	httpClient := oauth2.NewClient(ctx, src)
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return svc, nil
}

// persistingSource wraps an oauth2 token source and writes refreshed tokens
// back to the store so the next process start reuses them.
type persistingSource struct {
	ctx     context.Context
	inner   oauth2.TokenSource
	store   *tokenstore.FileStore
	rec     *tokenstore.Record
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	mu   sync.Mutex
	last string // access token last observed
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.inner.Token()
	if err != nil {
		if s.rec.RefreshToken != "" {
			s.metrics.RecordOAuthTokenRefresh(s.ctx, instrumentation.OAuthResultFailure)
			s.logger.Warn("token refresh failed", logging.UserID(s.rec.UserID), logging.Err(err))
		}
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken == s.last {
		return tok, nil
	}
	s.last = tok.AccessToken

	updated := *s.rec
	updated.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		updated.RefreshToken = tok.RefreshToken
	}
	if !tok.Expiry.IsZero() {
		updated.ExpiryDate = tok.Expiry.UnixMilli()
	}

	// A failed write-back is not fatal: the refreshed token still serves
	// this call, the next process start just refreshes again. Records from
	// the single-tenant fallback file go back to that file; writing them
	// into the per-user directory would leave the fallback tier serving
	// the stale token forever.
	var putErr error
	if s.rec.Legacy() {
		putErr = s.store.PutLegacy(&updated)
	} else {
		putErr = s.store.Put(updated.UserID, &updated)
	}
	if putErr != nil {
		s.logger.Warn("failed to persist refreshed token", logging.UserID(updated.UserID), logging.Err(putErr))
	} else {
		s.metrics.RecordOAuthTokenRefresh(s.ctx, instrumentation.OAuthResultSuccess)
		s.logger.Info("access token refreshed", logging.UserID(updated.UserID))
	}
	return tok, nil
}

// finish records metrics and logs for a completed operation.
func (g *Gateway) finish(ctx context.Context, op string, start time.Time, err error) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	g.metrics.RecordCalendarOperation(ctx, op, status, time.Since(start))
	g.logger.Debug("calendar operation",
		logging.Operation(op),
		logging.Status(status),
		slog.Duration(logging.KeyDuration, time.Since(start)),
		logging.Err(err),
	)
}

// FreeBusy queries availability across the given calendars and flattens the
// per-calendar busy blocks into one slice sorted by start time, then calendar
// id.
func (g *Gateway) FreeBusy(ctx context.Context, rec *tokenstore.Record, in FreeBusyInput) (result *FreeBusyResult, err error) {
	start := time.Now()
	defer func() { g.finish(ctx, "freebusy", start, err) }()

	svc, err := g.serviceFor(ctx, rec)
	if err != nil {
		return nil, err
	}

	timeMin := NormalizeTimestamp(in.TimeMin)
	timeMax := NormalizeTimestamp(in.TimeMax)

	items := make([]*calendar.FreeBusyRequestItem, len(in.CalendarIDs))
	for i, id := range in.CalendarIDs {
		items[i] = &calendar.FreeBusyRequestItem{Id: id}
	}

	resp, err := svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin:  timeMin,
		TimeMax:  timeMax,
		TimeZone: in.TimeZone,
		Items:    items,
	}).Context(ctx).Do()
	if err != nil {
		return nil, &RemoteServiceError{Op: "freebusy", Err: err}
	}

	result = &FreeBusyResult{TimeMin: timeMin, TimeMax: timeMax, Busy: []BusyInterval{}}
	for calID, cal := range resp.Calendars {
		for _, busy := range cal.Busy {
			result.Busy = append(result.Busy, BusyInterval{
				CalendarID: calID,
				Start:      busy.Start,
				End:        busy.End,
			})
		}
		for _, calErr := range cal.Errors {
			result.Errors = append(result.Errors, CalendarError{
				CalendarID: calID,
				Reason:     calErr.Reason,
			})
		}
	}

	sort.Slice(result.Busy, func(i, j int) bool {
		if result.Busy[i].Start != result.Busy[j].Start {
			return result.Busy[i].Start < result.Busy[j].Start
		}
		return result.Busy[i].CalendarID < result.Busy[j].CalendarID
	})
	sort.Slice(result.Errors, func(i, j int) bool {
		return result.Errors[i].CalendarID < result.Errors[j].CalendarID
	})

	return result, nil
}

// CreateEvent inserts a new event, optionally requesting a Google Meet
// conference, and notifies attendees per the send-updates policy.
func (g *Gateway) CreateEvent(ctx context.Context, rec *tokenstore.Record, in EventInput) (summary *EventSummary, err error) {
	start := time.Now()
	defer func() { g.finish(ctx, "create", start, err) }()

	svc, err := g.serviceFor(ctx, rec)
	if err != nil {
		return nil, err
	}

	event := &calendar.Event{
		Summary:     in.Summary,
		Description: in.Description,
		Location:    in.Location,
		Start: &calendar.EventDateTime{
			DateTime: NormalizeTimestamp(in.Start),
			TimeZone: in.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: NormalizeTimestamp(in.End),
			TimeZone: in.TimeZone,
		},
		Attendees: toAPIAttendees(in.Attendees),
	}

	sendUpdates := in.SendUpdates
	if sendUpdates == "" {
		sendUpdates = defaultSendUpdates
	}

	call := svc.Events.Insert(in.CalendarID, event).
		Context(ctx).
		SendUpdates(sendUpdates)

	if in.AddMeet {
		event.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: "meet-" + uuid.NewString(),
			},
		}
		call = call.ConferenceDataVersion(1)
	}

	created, err := call.Do()
	if err != nil {
		return nil, &RemoteServiceError{Op: "create", Err: err}
	}

	out := toEventSummary(created)
	return &out, nil
}

// ListEvents lists events in a time range, expanded to single instances and
// ordered by start time.
func (g *Gateway) ListEvents(ctx context.Context, rec *tokenstore.Record, in ListEventsInput) (summaries []EventSummary, err error) {
	start := time.Now()
	defer func() { g.finish(ctx, "list", start, err) }()

	svc, err := g.serviceFor(ctx, rec)
	if err != nil {
		return nil, err
	}

	maxResults := in.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	call := svc.Events.List(in.CalendarID).
		Context(ctx).
		TimeMin(NormalizeTimestamp(in.TimeMin)).
		TimeMax(NormalizeTimestamp(in.TimeMax)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxResults)

	if in.Query != "" {
		call = call.Q(in.Query)
	}

	events, err := call.Do()
	if err != nil {
		return nil, &RemoteServiceError{Op: "list", Err: err}
	}

	summaries = make([]EventSummary, 0, len(events.Items))
	for _, event := range events.Items {
		summaries = append(summaries, toEventSummary(event))
	}
	return summaries, nil
}

// UpdateEvent applies a partial update: the current event is fetched,
// provided fields are overlaid and the result written back, so omitted
// fields keep their values.
func (g *Gateway) UpdateEvent(ctx context.Context, rec *tokenstore.Record, patch EventPatch) (summary *EventSummary, err error) {
	start := time.Now()
	defer func() { g.finish(ctx, "update", start, err) }()

	svc, err := g.serviceFor(ctx, rec)
	if err != nil {
		return nil, err
	}

	existing, err := svc.Events.Get(patch.CalendarID, patch.EventID).Context(ctx).Do()
	if err != nil {
		return nil, &RemoteServiceError{Op: "update", Err: err}
	}

	if patch.Summary != "" {
		existing.Summary = patch.Summary
	}
	if patch.Description != "" {
		existing.Description = patch.Description
	}
	if patch.Location != "" {
		existing.Location = patch.Location
	}
	if patch.Start != "" {
		existing.Start = &calendar.EventDateTime{
			DateTime: NormalizeTimestamp(patch.Start),
			TimeZone: patch.TimeZone,
		}
	}
	if patch.End != "" {
		existing.End = &calendar.EventDateTime{
			DateTime: NormalizeTimestamp(patch.End),
			TimeZone: patch.TimeZone,
		}
	}
	if patch.Attendees != nil {
		existing.Attendees = toAPIAttendees(patch.Attendees)
	}

	sendUpdates := patch.SendUpdates
	if sendUpdates == "" {
		sendUpdates = defaultSendUpdates
	}

	updated, err := svc.Events.Update(patch.CalendarID, patch.EventID, existing).
		Context(ctx).
		SendUpdates(sendUpdates).
		Do()
	if err != nil {
		return nil, &RemoteServiceError{Op: "update", Err: err}
	}

	out := toEventSummary(updated)
	return &out, nil
}

// DeleteEvent removes an event, notifying attendees per the send-updates
// policy.
func (g *Gateway) DeleteEvent(ctx context.Context, rec *tokenstore.Record, in DeleteEventInput) (err error) {
	start := time.Now()
	defer func() { g.finish(ctx, "delete", start, err) }()

	svc, err := g.serviceFor(ctx, rec)
	if err != nil {
		return err
	}

	sendUpdates := in.SendUpdates
	if sendUpdates == "" {
		sendUpdates = defaultSendUpdates
	}

	if err := svc.Events.Delete(in.CalendarID, in.EventID).
		Context(ctx).
		SendUpdates(sendUpdates).
		Do(); err != nil {
		return &RemoteServiceError{Op: "delete", Err: err}
	}
	return nil
}
