package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/navid-fn/coinview/internal/models"
	"github.com/navid-fn/coinview/internal/resilience"
)

var errNoRefreshToken = errors.New("account: session has no refresh token")

// Restore loads a persisted session into the store, refreshing it first if
// it is about to expire. A session the service rejects is discarded.
func (s *Service) Restore(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	sess, err := s.persister.Load()
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	if sess == nil {
		s.logger.Debug("No persisted session")
		return nil
	}

	if !sess.ExpiresWithin(s.now(), s.refreshMargin) {
		s.store.Set(sess, sess.User)
		s.logger.WithField("user", userID(sess.User)).Info("Session restored")
		return nil
	}

	refreshed, err := s.refresh(ctx, sess)
	if err != nil {
		if isClientError(err) || errors.Is(err, errNoRefreshToken) {
			s.logger.WithError(err).Info("Persisted session rejected, discarding")
			if clearErr := s.persister.Clear(); clearErr != nil {
				s.logger.WithError(clearErr).Warn("Failed to clear persisted session")
			}
			return nil
		}
		return fmt.Errorf("restore session: %w", err)
	}

	s.adopt(refreshed, mergeUser(refreshed, sess.User))
	s.logger.WithField("user", userID(refreshed.User)).Info("Session restored and refreshed")
	return nil
}

// RefreshIfNeeded refreshes the held session when it expires within the margin.
func (s *Service) RefreshIfNeeded(ctx context.Context) error {
	sess, user := s.store.Snapshot()
	if sess == nil || !sess.ExpiresWithin(s.now(), s.refreshMargin) {
		return nil
	}

	refreshed, err := s.refresh(ctx, sess)
	if err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}

	// A sign-out or sign-in while refreshing wins.
	if !s.store.CompareAndSet(sess, refreshed, mergeUser(refreshed, user)) {
		s.logger.Debug("Session changed during refresh, dropping result")
		return nil
	}
	s.persist(refreshed)
	s.logger.Debug("Session refreshed")
	return nil
}

// RunAutoRefresh keeps the held session fresh until ctx is done.
func (s *Service) RunAutoRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = s.refreshMargin / 2
	}
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("Session auto-refresh started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Session auto-refresh stopped")
			return
		case <-ticker.C:
			if err := s.RefreshIfNeeded(ctx); err != nil {
				s.logger.WithError(err).Warn("Session refresh failed")
			}
		}
	}
}

func (s *Service) refresh(ctx context.Context, sess *models.Session) (*models.Session, error) {
	if sess.RefreshToken == "" {
		return nil, errNoRefreshToken
	}

	call := func(ctx context.Context) error {
		refreshed, err := s.identity.RefreshSession(ctx, sess.RefreshToken)
		if err != nil {
			if isClientError(err) {
				return resilience.Permanent(err)
			}
			return err
		}
		sess = refreshed
		return nil
	}

	var err error
	if s.retryer != nil {
		err = s.retryer.Execute(ctx, call)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

func mergeUser(sess *models.Session, fallback *models.User) *models.User {
	if sess.User != nil {
		return sess.User
	}
	sess.User = fallback
	return fallback
}
