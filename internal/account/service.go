// Package account is the sign-in, sign-up and profile facade over the
// identity service. It is the only writer of the session store.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/navid-fn/coinview/internal/identity"
	"github.com/navid-fn/coinview/internal/models"
	"github.com/navid-fn/coinview/internal/resilience"
	"github.com/navid-fn/coinview/internal/session"

	"github.com/sirupsen/logrus"
)

var (
	ErrUnauthenticated = errors.New("account: no signed-in user")
	ErrProfileNotFound = errors.New("account: profile not found")
)

// Identity is the subset of the identity client the facade calls.
type Identity interface {
	SignInWithPassword(ctx context.Context, email, password string) (*models.Session, error)
	SignUp(ctx context.Context, email, password string) (*identity.SignUpResult, error)
	SignOut(ctx context.Context, accessToken string) error
	RefreshSession(ctx context.Context, refreshToken string) (*models.Session, error)
	GetProfile(ctx context.Context, accessToken, userID string) (*models.Profile, error)
	UpsertProfile(ctx context.Context, accessToken, userID string, profile models.Profile) error
}

type Service struct {
	identity      Identity
	store         *session.Store
	persister     session.Persister
	retryer       *resilience.Retryer
	refreshMargin time.Duration
	logger        *logrus.Entry
	now           func() time.Time
}

// NewService wires the facade. persister may be nil, in which case sessions
// live only as long as the process.
func NewService(id Identity, store *session.Store, persister session.Persister, retryer *resilience.Retryer, refreshMargin time.Duration, logger *logrus.Logger) *Service {
	if refreshMargin <= 0 {
		refreshMargin = time.Minute
	}
	return &Service{
		identity:      id,
		store:         store,
		persister:     persister,
		retryer:       retryer,
		refreshMargin: refreshMargin,
		logger:        logger.WithField("component", "account"),
		now:           time.Now,
	}
}

func (s *Service) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	sess, err := s.identity.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	s.adopt(sess, sess.User)
	s.logger.WithField("user", userID(sess.User)).Info("Signed in")
	return sess, nil
}

// SignUp creates an account. The store is only populated when the service
// returns a session, i.e. no email confirmation is pending.
func (s *Service) SignUp(ctx context.Context, email, password string) (*identity.SignUpResult, error) {
	res, err := s.identity.SignUp(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	if res.Session != nil {
		s.adopt(res.Session, res.User)
		s.logger.WithField("user", userID(res.User)).Info("Signed up and signed in")
	} else {
		s.logger.WithField("user", userID(res.User)).Info("Signed up, confirmation pending")
	}
	return res, nil
}

// SignOut revokes the session. On success the store is empty afterwards;
// on failure it is left as it was.
func (s *Service) SignOut(ctx context.Context) error {
	sess := s.store.Session()
	if sess != nil {
		if err := s.identity.SignOut(ctx, sess.AccessToken); err != nil {
			return fmt.Errorf("sign out: %w", err)
		}
	}

	s.store.Clear()
	if s.persister != nil {
		if err := s.persister.Clear(); err != nil {
			s.logger.WithError(err).Warn("Failed to clear persisted session")
		}
	}
	s.logger.Info("Signed out")
	return nil
}

// GetProfile reads the signed-in user's profile row.
func (s *Service) GetProfile(ctx context.Context) (*models.Profile, error) {
	sess, user, err := s.current()
	if err != nil {
		return nil, err
	}

	profile, err := s.identity.GetProfile(ctx, sess.AccessToken, user.ID)
	if errors.Is(err, identity.ErrNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile replaces the signed-in user's profile row.
func (s *Service) UpdateProfile(ctx context.Context, username, fullName, avatarPath string) error {
	sess, user, err := s.current()
	if err != nil {
		return err
	}

	profile := models.Profile{Username: username, FullName: fullName, AvatarPath: avatarPath}
	if err := s.identity.UpsertProfile(ctx, sess.AccessToken, user.ID, profile); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// AccessToken returns the current access token, or ErrUnauthenticated.
func (s *Service) AccessToken() (string, error) {
	sess, _, err := s.current()
	if err != nil {
		return "", err
	}
	return sess.AccessToken, nil
}

// Current returns the held session and user, both nil when signed out.
func (s *Service) Current() (*models.Session, *models.User) {
	return s.store.Snapshot()
}

func (s *Service) current() (*models.Session, *models.User, error) {
	sess, user := s.store.Snapshot()
	if sess == nil || user == nil || user.ID == "" {
		return nil, nil, ErrUnauthenticated
	}
	return sess, user, nil
}

func (s *Service) adopt(sess *models.Session, user *models.User) {
	if user == nil {
		user = sess.User
	}
	s.store.Set(sess, user)
	s.persist(sess)
}

func (s *Service) persist(sess *models.Session) {
	if s.persister != nil {
		if err := s.persister.Save(sess); err != nil {
			s.logger.WithError(err).Warn("Failed to persist session")
		}
	}
}

func userID(u *models.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}

// isClientError reports a 4xx from the identity service: the refresh token
// is no good and retrying will not help.
func isClientError(err error) bool {
	var apiErr *identity.APIError
	return errors.As(err, &apiErr) && apiErr.Status >= http.StatusBadRequest && apiErr.Status < http.StatusInternalServerError
}
