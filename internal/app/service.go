// Package service provides the core business service behind the web pages:
// it owns view state and performs the remote calls for each user action.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/okian/checkboard/internal/adapters/remote"
	"github.com/okian/checkboard/internal/adapters/viewstore"
	"github.com/okian/checkboard/internal/domain/form"
	"github.com/okian/checkboard/internal/domain/leaderboard"
	"github.com/okian/checkboard/internal/domain/session"
	"github.com/okian/checkboard/internal/domain/types"
	"github.com/okian/checkboard/pkg/logger"
	"github.com/okian/checkboard/pkg/metrics"
)

// Remote operation names used for metrics and logs.
const (
	opGetSession       = "get_session"
	opInsertSubmission = "insert_submission"
	opGetLeaderboard   = "get_leaderboard"
)

// View is the state of one page load.
type View struct {
	ID          string
	Gate        session.Gate
	DisplayName string
	Form        form.Form
	Board       leaderboard.Board
}

// Service implements the page dependencies of the web site.
type Service struct {
	client remote.Client
	views  *viewstore.Store[View]

	// Configuration
	viewCacheSize  int
	fallbackName   string
	backendTimeout time.Duration

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithViewCacheSize bounds the number of live views.
func WithViewCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.viewCacheSize = size
		}
	}
}

// WithFallbackDisplayName sets the greeting used when a session has no name.
func WithFallbackDisplayName(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.fallbackName = name
		}
	}
}

// WithBackendTimeout bounds every remote call. Zero disables the bound.
func WithBackendTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.backendTimeout = d
		}
	}
}

// New constructs a Service on top of client.
func New(client remote.Client, opts ...Option) *Service {
	s := &Service{
		client:         client,
		viewCacheSize:  10_000,
		fallbackName:   session.DefaultDisplayName,
		backendTimeout: 5 * time.Second,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Named("app")
	}
	s.views = viewstore.New[View](viewstore.WithMaxSize(s.viewCacheSize))
	return s
}

// Open runs the session gate for a fresh page load. It calls GetSession
// exactly once. A signed-in view is stored and can be acted on by id; a
// signed-out view is returned but not stored.
func (s *Service) Open(ctx context.Context, accessToken string) View {
	v := View{
		ID:   viewstore.NewID(),
		Gate: session.Gate{Phase: session.Loading},
	}

	sess, err := s.getSession(ctx, accessToken)
	v.Gate = session.Resolve(v.Gate, sess, err)

	switch {
	case err != nil:
		s.logger.Warn(ctx, "session lookup failed, treating as signed out",
			logger.Error(fmt.Errorf("%w: %w", session.ErrSessionFetch, err)),
		)
		metrics.RecordSessionGate("error")
	case v.Gate.Phase == session.SignedIn:
		metrics.RecordSessionGate(session.SignedIn.String())
	default:
		metrics.RecordSessionGate(session.SignedOut.String())
	}

	if v.Gate.Phase != session.SignedIn {
		return v
	}
	v.DisplayName = v.Gate.DisplayName(s.fallbackName)
	s.views.Put(ctx, v.ID, v)
	return v
}

// View returns the stored state of viewID.
func (s *Service) View(ctx context.Context, viewID string) (View, error) {
	v, ok := s.views.Get(ctx, viewID)
	if !ok {
		metrics.RecordViewMiss()
		return View{}, ErrViewNotFound
	}
	return v, nil
}

// Submit applies the posted fields and the submit action to the view's form.
// When the form validates, InsertSubmission is called exactly once and its
// outcome, including a recovered panic, decides the message.
func (s *Service) Submit(ctx context.Context, viewID string, fields form.Edited) (View, error) {
	v, err := s.View(ctx, viewID)
	if err != nil {
		return View{}, err
	}

	f := form.Next(v.Form, fields)
	f = form.Next(f, form.Submitted{})

	outcome := rejectionOutcome(f)
	if f.Status == form.Submitting {
		f = form.Next(f, s.insert(ctx, f.Submission()))
		outcome = metrics.OutcomeAccepted
		if f.Status != form.Accepted {
			outcome = metrics.OutcomeFailed
		}
	}
	metrics.RecordSubmission(outcome)

	s.logger.Debug(ctx, "submission handled",
		logger.String("view", viewID),
		logger.String("status", f.Status.String()),
		logger.String("outcome", outcome),
	)

	// The last response stored wins; the board is left to concurrent refreshes.
	if updated, ok := s.views.Update(ctx, viewID, func(cur View) View {
		cur.Form = f
		return cur
	}); ok {
		return updated, nil
	}
	v.Form = f
	return v, nil
}

// Refresh fetches the leaderboard once and applies it to the view's board.
// On failure the board is left as it was. Posted fields are kept so that
// unsent edits survive the round trip.
func (s *Service) Refresh(ctx context.Context, viewID string, fields form.Edited) (View, error) {
	v, err := s.View(ctx, viewID)
	if err != nil {
		return View{}, err
	}

	entries, err := s.getLeaderboard(ctx)
	if err != nil {
		s.logger.Error(ctx, "leaderboard refresh failed",
			logger.String("view", viewID),
			logger.Error(fetchError(err)),
		)
	}
	metrics.RecordLeaderboardRefresh(err == nil, len(entries))

	apply := func(cur View) View {
		cur.Form = form.Next(cur.Form, fields)
		cur.Board = leaderboard.Apply(cur.Board, entries, err)
		return cur
	}
	if updated, ok := s.views.Update(ctx, viewID, apply); ok {
		return updated, nil
	}
	return apply(v), nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	return map[string]interface{}{
		"views":            s.views.Len(),
		"viewCapacity":     s.views.Capacity(),
		"backendTimeoutMs": s.backendTimeout.Milliseconds(),
	}
}

func (s *Service) getSession(ctx context.Context, accessToken string) (sess *types.Session, err error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	start := time.Now()
	sess, err = s.client.GetSession(ctx, accessToken)
	metrics.RecordRemoteCall(opGetSession, sinceMs(start), err)
	return sess, err
}

// insert performs the remote insert and converts its outcome, including a
// panic inside the client, into a form event.
func (s *Service) insert(ctx context.Context, sub types.Submission) (ev form.Event) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("%w: panic: %v", form.ErrSubmission, r)
			metrics.RecordRemoteCall(opInsertSubmission, sinceMs(start), err)
			s.logger.Error(ctx, "submission insert panicked",
				logger.String("name", sub.Name),
				logger.Error(err),
				logger.String("stack", string(debug.Stack())),
			)
			ev = form.InsertPanicked{Value: r}
		}
	}()

	err := s.client.InsertSubmission(ctx, sub)
	metrics.RecordRemoteCall(opInsertSubmission, sinceMs(start), err)
	if err != nil {
		s.logger.Error(ctx, "submission insert failed",
			logger.String("name", sub.Name),
			logger.Bool("red", sub.RedSelected),
			logger.Bool("blue", sub.BlueSelected),
			logger.Error(fmt.Errorf("%w: %w", form.ErrSubmission, err)),
		)
		return form.InsertFailed{Err: err}
	}
	return form.InsertSucceeded{}
}

// getLeaderboard fetches the board. A panic inside the client is reported as
// a fetch error so the caller keeps the current board.
func (s *Service) getLeaderboard(ctx context.Context) (entries []types.LeaderboardEntry, err error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			entries = nil
			err = fmt.Errorf("%w: panic: %v", leaderboard.ErrLeaderboardFetch, r)
			metrics.RecordRemoteCall(opGetLeaderboard, sinceMs(start), err)
			s.logger.Error(ctx, "leaderboard fetch panicked",
				logger.Error(err),
				logger.String("stack", string(debug.Stack())),
			)
		}
	}()

	entries, err = s.client.GetLeaderboard(ctx)
	metrics.RecordRemoteCall(opGetLeaderboard, sinceMs(start), err)
	return entries, err
}

func (s *Service) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.backendTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.backendTimeout)
}

// rejectionOutcome maps a form that did not reach Submitting to its metric label.
func rejectionOutcome(f form.Form) string {
	switch form.Validate(f.Submission()) {
	case form.ErrNameRequired:
		return metrics.OutcomeNameRequired
	case form.ErrBothSelected:
		return metrics.OutcomeBothSelected
	default:
		return metrics.OutcomeNoneSelected
	}
}

// fetchError tags err as a leaderboard fetch failure unless it already is one.
func fetchError(err error) error {
	if errors.Is(err, leaderboard.ErrLeaderboardFetch) {
		return err
	}
	return fmt.Errorf("%w: %w", leaderboard.ErrLeaderboardFetch, err)
}

func sinceMs(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
