package app

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/recruit-inbox/internal/api"
	"github.com/nhle/recruit-inbox/internal/credential"
	"github.com/nhle/recruit-inbox/internal/media"
	"github.com/nhle/recruit-inbox/internal/model"
	"github.com/nhle/recruit-inbox/internal/notify"
	"github.com/nhle/recruit-inbox/internal/session"
	"github.com/nhle/recruit-inbox/internal/store"
)

// syncRunsKept is how many sync runs are retained per account.
const syncRunsKept = 200

// accountSession bundles everything that talks to one account's backend:
// the HTTP client, the notification controller, the media cache and the
// watch that starts and stops polling as the stored session comes and
// goes.
type accountSession struct {
	account    model.Account
	provider   *session.Keyring
	client     *api.Client
	controller *notify.Controller
	resolver   *media.Resolver
	logger     *zap.Logger

	cookie string
	cancel context.CancelFunc
	done   chan struct{}

	mu      gosync.Mutex
	authErr string
}

// sessionOpenedMsg is sent once an account session is ready.
type sessionOpenedMsg struct {
	session *accountSession
	err     error
}

// snapshotMsg carries controller state for the session that produced it.
type snapshotMsg struct {
	session  *accountSession
	snapshot notify.Snapshot
}

// openSession builds the client stack for acct. It does not start
// polling; call start.
func openSession(
	cfg *model.AppConfig,
	st store.Store,
	creds *credential.Store,
	logger *zap.Logger,
	acct model.Account,
) (*accountSession, error) {
	provider := session.NewKeyring(creds, acct.ID)

	cookie, err := provider.Cookie()
	if err != nil && !errors.Is(err, session.ErrNoSession) {
		return nil, fmt.Errorf("loading session for %s: %w", acct.Name, err)
	}

	client, err := api.NewClient(acct.BaseURL,
		api.WithSessionCookie(cfg.Backend.CookieName, cookie),
		api.WithTimeout(time.Duration(cfg.Backend.TimeoutSec)*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("creating client for %s: %w", acct.Name, err)
	}
	logger = logger.With(
		zap.String("account", acct.ID),
		zap.String("backend", client.BaseURL()),
	)

	s := &accountSession{
		account:  acct,
		provider: provider,
		client:   client,
		logger:   logger,
		cookie:   cookie,
		done:     make(chan struct{}),
	}

	s.resolver = media.NewResolver(client,
		media.WithDefaultTTL(time.Duration(cfg.Media.DefaultTTLSec)*time.Second),
		media.WithLogger(logger),
	)

	s.controller = notify.New(client,
		notify.WithLogger(logger),
		notify.WithPollInterval(pollInterval(cfg)),
		notify.WithFetchLimit(cfg.Notifications.FetchLimit),
		notify.WithPreviewSize(cfg.Notifications.PreviewSize),
		notify.WithRecorder(st, acct.ID),
		notify.WithAuthErrorHandler(s.handleAuthError),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if n, err := st.PruneSyncRuns(ctx, acct.ID, syncRunsKept); err != nil {
		logger.Warn("pruning sync history failed", zap.Error(err))
	} else if n > 0 {
		logger.Debug("pruned sync history", zap.Int64("deleted", n))
	}

	return s, nil
}

func pollInterval(cfg *model.AppConfig) time.Duration {
	return time.Duration(cfg.Notifications.PollIntervalSec) * time.Second
}

// start launches the session watch, which drives Controller.Start.
func (s *accountSession) start(interval time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	go func() {
		defer close(s.done)
		session.Watch(ctx, s.provider, interval, s.apply)
	}()
}

func (s *accountSession) apply(active bool) {
	s.controller.Start(active)
	if !active {
		s.resolver.Purge()
	}
}

// handleAuthError ends the session when the backend rejects the cookie.
func (s *accountSession) handleAuthError(err error) {
	s.logger.Warn("backend rejected session; signing out", zap.Error(err))

	s.mu.Lock()
	s.authErr = "Session expired. Press a to sign in again."
	s.mu.Unlock()

	if err := s.provider.Clear(); err != nil {
		s.logger.Error("clearing session failed", zap.Error(err))
	}
	s.apply(false)
}

// logout removes the stored cookie and stops polling.
func (s *accountSession) logout() error {
	if err := s.provider.Clear(); err != nil {
		return err
	}
	s.cookie = ""
	s.apply(false)
	return nil
}

// lastAuthError returns the sign-out reason, if the backend forced one.
func (s *accountSession) lastAuthError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authErr
}

// close stops polling and persists a cookie the backend rotated.
func (s *accountSession) close() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	s.controller.Close()
	s.resolver.Purge()

	rotated := s.client.SessionCookie()
	if rotated != "" && s.cookie != "" && rotated != s.cookie && s.provider.Active() {
		if err := s.provider.Save(rotated); err != nil {
			s.logger.Warn("saving rotated session cookie failed", zap.Error(err))
		}
	}
}

// waitForChanges blocks until the controller signals a transition and
// then delivers its snapshot. It returns nil once the session is closed.
func waitForChanges(s *accountSession) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-s.controller.Changes():
			return snapshotMsg{session: s, snapshot: s.controller.Snapshot()}
		case <-s.done:
			return nil
		}
	}
}
