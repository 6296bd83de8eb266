package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sangkips/billdesk/internal/application/validation"
	"github.com/sangkips/billdesk/internal/domain/entity"
	"github.com/sangkips/billdesk/internal/domain/enum"
	"github.com/sangkips/billdesk/internal/domain/repository"
	"github.com/sangkips/billdesk/pkg/apperror"
	"github.com/sangkips/billdesk/pkg/oauth"
	"github.com/sangkips/billdesk/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// AuthAPI is the part of the billing API used to sign in
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*entity.LoginResponse, error)
	VerifyOTP(ctx context.Context, username, otp string) (*entity.LoginResponse, error)
	RefreshToken(ctx context.Context, refresh string) (*entity.TokenPair, error)
}

// SessionOptions tunes the session manager
type SessionOptions struct {
	// StepUpUsernames always require an OTP, whatever the server says
	StepUpUsernames []string
	// RefreshLeeway refreshes tokens this long before they expire
	RefreshLeeway time.Duration
	Now           func() time.Time
}

// SessionService owns the authentication state of the process: the
// credentials, the OTP step-up of admin logins and their persistence.
type SessionService struct {
	api       AuthAPI
	store     repository.SessionStore
	validator *validation.Validator
	log       *zap.Logger
	stepUp    map[string]bool
	leeway    time.Duration
	now       func() time.Time

	mu        sync.RWMutex
	session   entity.Session
	refreshMu sync.Mutex
}

var _ oauth2.TokenSource = (*SessionService)(nil)

// NewSessionService creates a session manager in the Anonymous state. Call
// Init to restore a persisted session.
func NewSessionService(
	api AuthAPI,
	store repository.SessionStore,
	v *validation.Validator,
	log *zap.Logger,
	opts SessionOptions,
) *SessionService {
	stepUp := make(map[string]bool, len(opts.StepUpUsernames))
	for _, u := range opts.StepUpUsernames {
		stepUp[strings.ToLower(strings.TrimSpace(u))] = true
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &SessionService{
		api:       api,
		store:     store,
		validator: v,
		log:       log,
		stepUp:    stepUp,
		leeway:    opts.RefreshLeeway,
		now:       opts.Now,
	}
}

// Init hydrates the session from the store. Unreadable or inconsistent data
// is purged and the session stays Anonymous.
func (s *SessionService) Init(ctx context.Context) error {
	s.mu.Lock()
	s.session = entity.Session{IsLoading: true}
	s.mu.Unlock()

	restored, err := s.readStore(ctx)
	if err != nil {
		s.log.Warn("discarding unreadable session", zap.Error(err))
		if rmErr := s.store.Remove(ctx, repository.SessionKeys...); rmErr != nil {
			s.log.Error("failed to purge session store", zap.Error(rmErr))
		}
		restored = entity.Session{}
	}

	s.mu.Lock()
	s.session = restored
	s.mu.Unlock()

	s.log.Info("session hydrated", zap.String("state", string(restored.State())))
	return nil
}

func (s *SessionService) readStore(ctx context.Context) (entity.Session, error) {
	values := make(map[string]string, len(repository.SessionKeys))
	for _, key := range repository.SessionKeys {
		v, ok, err := s.store.Get(ctx, key)
		if err != nil {
			return entity.Session{}, err
		}
		if ok {
			values[key] = v
		}
	}

	access := values[repository.KeyAccessToken]
	rawUser := values[repository.KeyCurrentUser]
	if access == "" && rawUser == "" {
		return entity.Session{PendingAdminUsername: values[repository.KeyPendingAdminUsername]}, nil
	}
	if access == "" || rawUser == "" {
		return entity.Session{}, errors.Join(repository.ErrCorruptStore, errors.New("partial credentials"))
	}

	var user entity.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return entity.Session{}, errors.Join(repository.ErrCorruptStore, err)
	}
	if user.Role == "" {
		user.Role = enum.Role(values[repository.KeyRole])
	}

	return entity.Session{
		CurrentUser:     &user,
		AccessToken:     access,
		RefreshToken:    values[repository.KeyRefreshToken],
		IsAuthenticated: true,
	}, nil
}

// Login submits credentials. Accounts that need OTP step-up end in
// PendingOtp; everyone else is signed in.
func (s *SessionService) Login(ctx context.Context, username, password string) (entity.SessionState, error) {
	username = strings.TrimSpace(username)
	if err := s.validator.Login(validation.LoginForm{Username: username, Password: password}); err != nil {
		return s.State(), err
	}

	resp, err := s.api.Login(ctx, username, password)
	if err != nil {
		if isRejection(err) {
			return s.State(), apperror.Wrap(apperror.ErrInvalidCredentials, err)
		}
		return s.State(), err
	}

	if resp.RequiresOTP || s.stepUp[strings.ToLower(username)] {
		if err := s.beginStepUp(ctx, username); err != nil {
			return s.State(), err
		}
		s.log.Info("login requires OTP", zap.String("username", username))
		return entity.SessionPendingOTP, nil
	}

	if err := s.authenticate(ctx, resp); err != nil {
		return s.State(), err
	}
	s.log.Info("signed in", zap.String("username", username))
	return entity.SessionAuthenticated, nil
}

// VerifyOTP completes a pending admin login
func (s *SessionService) VerifyOTP(ctx context.Context, code string) error {
	pending, err := s.pendingUsername(ctx)
	if err != nil {
		return err
	}
	if pending == "" {
		return apperror.ErrNoPendingLogin
	}

	code = strings.TrimSpace(code)
	if err := s.validator.OTP(validation.OTPForm{OTP: code}); err != nil {
		return err
	}

	resp, err := s.api.VerifyOTP(ctx, pending, code)
	if err != nil {
		if isRejection(err) {
			return apperror.Wrap(apperror.ErrOTPRejected, err)
		}
		return err
	}

	if err := s.authenticate(ctx, resp); err != nil {
		return err
	}
	s.log.Info("OTP verified", zap.String("username", pending))
	return nil
}

// Logout forgets the session. The in-memory state is cleared even if the
// store cannot be purged.
func (s *SessionService) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.session = entity.Session{}
	s.mu.Unlock()

	if err := s.store.Remove(ctx, repository.SessionKeys...); err != nil {
		return apperror.Wrap(apperror.ErrInternalServer, err)
	}
	return nil
}

// Token implements oauth2.TokenSource for the authenticated API client.
// Expired access tokens are refreshed first; a rejected refresh signs the
// session out.
func (s *SessionService) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	access, refresh, authed := s.session.AccessToken, s.session.RefreshToken, s.session.IsAuthenticated
	s.mu.RUnlock()

	if !authed {
		return nil, apperror.ErrUnauthorized
	}
	if !utils.IsExpired(access, s.now(), s.leeway) {
		return oauth.BearerToken(access, utils.TokenExpiry(access)), nil
	}
	if refresh == "" {
		s.expire(context.Background(), "access token expired and no refresh token is held")
		return nil, apperror.ErrInvalidToken
	}
	return s.refresh(context.Background(), access)
}

func (s *SessionService) refresh(ctx context.Context, stale string) (*oauth2.Token, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	s.mu.RLock()
	access, refresh, authed := s.session.AccessToken, s.session.RefreshToken, s.session.IsAuthenticated
	s.mu.RUnlock()
	if !authed {
		return nil, apperror.ErrUnauthorized
	}
	if access != stale && !utils.IsExpired(access, s.now(), s.leeway) {
		return oauth.BearerToken(access, utils.TokenExpiry(access)), nil
	}

	pair, err := s.api.RefreshToken(ctx, refresh)
	if err != nil {
		if isRejection(err) {
			s.expire(ctx, "refresh token rejected")
			return nil, apperror.Wrap(apperror.ErrInvalidToken, err)
		}
		return nil, err
	}
	if pair.Refresh == "" {
		pair.Refresh = refresh
	}

	s.mu.Lock()
	if !s.session.IsAuthenticated {
		s.mu.Unlock()
		return nil, apperror.ErrUnauthorized
	}
	s.session.AccessToken = pair.Access
	s.session.RefreshToken = pair.Refresh
	s.mu.Unlock()

	if err := s.persist(ctx, map[string]string{
		repository.KeyAccessToken:  pair.Access,
		repository.KeyRefreshToken: pair.Refresh,
	}); err != nil {
		s.log.Error("failed to persist refreshed tokens", zap.Error(err))
	}
	s.log.Debug("access token refreshed")
	return oauth.BearerToken(pair.Access, utils.TokenExpiry(pair.Access)), nil
}

func (s *SessionService) expire(ctx context.Context, reason string) {
	s.log.Warn("session expired", zap.String("reason", reason))
	if err := s.Logout(ctx); err != nil {
		s.log.Error("failed to clear expired session", zap.Error(err))
	}
}

// Snapshot returns a copy of the session
func (s *SessionService) Snapshot() entity.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Clone()
}

func (s *SessionService) State() entity.SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.State()
}

// HasRole reports whether the session is authenticated with one of roles.
// No roles means any authenticated user.
func (s *SessionService) HasRole(roles ...enum.Role) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.session.IsAuthenticated {
		return false
	}
	if len(roles) == 0 {
		return true
	}
	current := s.session.Role()
	for _, r := range roles {
		if r == current {
			return true
		}
	}
	return false
}

func (s *SessionService) beginStepUp(ctx context.Context, username string) error {
	values := map[string]string{repository.KeyPendingAdminUsername: username}
	if err := s.persist(ctx, values, repository.SessionKeys...); err != nil {
		return err
	}

	s.mu.Lock()
	s.session = entity.Session{PendingAdminUsername: username}
	s.mu.Unlock()
	return nil
}

func (s *SessionService) authenticate(ctx context.Context, resp *entity.LoginResponse) error {
	if resp.Access == "" || resp.User == nil {
		return apperror.NewServerError(http.StatusBadGateway, "Login response is missing the token or user")
	}

	rawUser, err := json.Marshal(resp.User)
	if err != nil {
		return apperror.Wrap(apperror.ErrInternalServer, err)
	}
	values := map[string]string{
		repository.KeyAccessToken:  resp.Access,
		repository.KeyCurrentUser:  string(rawUser),
		repository.KeyRole:         string(resp.User.EffectiveRole()),
		repository.KeyRefreshToken: resp.Refresh,
	}
	if err := s.persist(ctx, values, repository.SessionKeys...); err != nil {
		return err
	}

	user := *resp.User
	s.mu.Lock()
	s.session = entity.Session{
		CurrentUser:     &user,
		AccessToken:     resp.Access,
		RefreshToken:    resp.Refresh,
		IsAuthenticated: true,
	}
	s.mu.Unlock()
	return nil
}

func (s *SessionService) pendingUsername(ctx context.Context) (string, error) {
	s.mu.RLock()
	pending := s.session.PendingAdminUsername
	s.mu.RUnlock()
	if pending != "" {
		return pending, nil
	}

	v, _, err := s.store.Get(ctx, repository.KeyPendingAdminUsername)
	if errors.Is(err, repository.ErrCorruptStore) {
		return "", nil
	}
	if err != nil {
		return "", apperror.Wrap(apperror.ErrInternalServer, err)
	}
	return v, nil
}

// persist removes the listed keys and writes values in a single store update
func (s *SessionService) persist(ctx context.Context, values map[string]string, remove ...string) error {
	if err := s.store.Update(ctx, values, remove...); err != nil {
		return apperror.Wrap(apperror.ErrInternalServer, err)
	}
	return nil
}

// isRejection reports whether the API refused the request on its merits
func isRejection(err error) bool {
	switch apperror.StatusOf(err) {
	case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
		return true
	}
	return false
}
