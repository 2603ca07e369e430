package auth

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"fivem-dashboard/internal/activity"
	"fivem-dashboard/internal/observability"
)

const (
	defaultMaxAttempts  = 5
	defaultLockDuration = 15 * time.Minute
	minPasswordLength   = 6
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,255}$`)

// dummyHash keeps the unknown-username path in the same timing class as a
// wrong-password comparison, so login responses carry no username-enumeration
// signal.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("timing-equalizer"), bcrypt.DefaultCost)

// ActivityRecorder is the fire-and-forget audit sink; Record must never fail
// the caller.
type ActivityRecorder interface {
	Record(ctx context.Context, entry activity.Entry)
}

// Presence tracks who is currently using the dashboard.
type Presence interface {
	Touch(ctx context.Context, username string, avatarURL *string) error
	Remove(ctx context.Context, username string) error
}

// RequestMeta is the request-scoped metadata attached to activity entries.
type RequestMeta struct {
	IPAddress string
	UserAgent string
	Endpoint  string
}

type Service struct {
	staff        StaffStore
	sessions     *SessionManager
	audit        ActivityRecorder
	presence     Presence
	logger       *observability.Logger
	maxAttempts  int
	lockDuration time.Duration
}

func NewService(staff StaffStore, sessions *SessionManager, audit ActivityRecorder, presence Presence, logger *observability.Logger) *Service {
	return &Service{
		staff:        staff,
		sessions:     sessions,
		audit:        audit,
		presence:     presence,
		logger:       logger,
		maxAttempts:  defaultMaxAttempts,
		lockDuration: defaultLockDuration,
	}
}

func (s *Service) WithLockoutPolicy(maxAttempts int, lockDuration time.Duration) {
	if maxAttempts > 0 {
		s.maxAttempts = maxAttempts
	}
	if lockDuration > 0 {
		s.lockDuration = lockDuration
	}
}

// Login runs the credential check in a fixed order: missing input, account
// lookup, active flag, lock window, password. Every branch is terminal. A
// failed password records the attempt and still answers with the generic
// invalid-credentials error even when that attempt crossed the lock
// threshold; the lock is only observed by the next attempt.
func (s *Service) Login(ctx context.Context, username, password string, meta RequestMeta) (*Account, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", ErrMissingCredentials
	}

	account, err := s.staff.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !account.IsActive {
		return nil, "", ErrAccountDisabled
	}

	now := time.Now().UTC()
	if account.LockedUntil != nil && account.LockedUntil.After(now) {
		return nil, "", AccountLockedError(*account.LockedUntil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		if _, recordErr := s.staff.RecordFailedAttempt(ctx, account.ID, s.maxAttempts, now.Add(s.lockDuration)); recordErr != nil {
			s.logger.Error("record_failed_attempt_failed", map[string]any{
				"username": account.Username,
				"error":    recordErr.Error(),
			})
		}
		return nil, "", ErrInvalidCredentials
	}

	if err := s.staff.RecordSuccessfulLogin(ctx, account.ID, now); err != nil {
		return nil, "", err
	}
	account.FailedLoginAttempts = 0
	account.LockedUntil = nil
	lastLogin := now
	account.LastLogin = &lastLogin

	token, _, err := s.sessions.Create(ctx, account)
	if err != nil {
		return nil, "", err
	}

	s.recordActivity(ctx, account, "login", meta)
	s.touchPresence(ctx, account)

	return account, token, nil
}

type RegisterParams struct {
	Username        string
	Password        string
	ConfirmPassword string
	Name            string
	Email           string
	SecurityCode    string
}

// Register gates account creation on a shared security code; the code also
// determines the initial rank. Duplicate username/email are checked
// explicitly before the insert so the user sees a specific message instead
// of a raw constraint error.
func (s *Service) Register(ctx context.Context, params RegisterParams, meta RequestMeta) (*Account, string, error) {
	params.Username = strings.TrimSpace(params.Username)
	params.Name = strings.TrimSpace(params.Name)
	params.Email = strings.TrimSpace(params.Email)
	params.SecurityCode = strings.TrimSpace(params.SecurityCode)

	if params.Password != params.ConfirmPassword {
		return nil, "", ErrPasswordMismatch
	}
	if len(params.Password) < minPasswordLength {
		return nil, "", ErrWeakPassword
	}
	if !usernamePattern.MatchString(params.Username) {
		return nil, "", ErrInvalidUsername
	}
	if _, err := mail.ParseAddress(params.Email); err != nil {
		return nil, "", ErrInvalidEmail
	}

	codeID, rank, err := s.staff.FindSecurityCode(ctx, params.SecurityCode)
	if err != nil {
		if errors.Is(err, ErrSecurityCodeNotFound) {
			return nil, "", ErrInvalidSecurityCode
		}
		return nil, "", err
	}

	usernameTaken, err := s.staff.UsernameExists(ctx, params.Username)
	if err != nil {
		return nil, "", err
	}
	if usernameTaken {
		return nil, "", ErrDuplicateUsername
	}

	emailTaken, err := s.staff.EmailExists(ctx, params.Email)
	if err != nil {
		return nil, "", err
	}
	if emailTaken {
		return nil, "", ErrDuplicateEmail
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	account, err := s.staff.Create(ctx, CreateAccountParams{
		Username:       params.Username,
		PasswordHash:   string(hash),
		Name:           params.Name,
		Email:          params.Email,
		Rank:           rank,
		SecurityCodeID: codeID,
	})
	if err != nil {
		return nil, "", err
	}

	token, _, err := s.sessions.Create(ctx, account)
	if err != nil {
		return nil, "", err
	}

	s.recordActivity(ctx, account, "register", meta)
	s.touchPresence(ctx, account)

	return account, token, nil
}

// Logout destroys the session and clears presence. Logging out an unknown or
// already-destroyed session still succeeds.
func (s *Service) Logout(ctx context.Context, token string, meta RequestMeta) error {
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil
		}
		return err
	}

	if s.presence != nil {
		if err := s.presence.Remove(ctx, session.Username); err != nil {
			s.logger.Warn("presence_remove_failed", map[string]any{
				"username": session.Username,
				"error":    err.Error(),
			})
		}
	}

	s.audit.Record(ctx, activity.Entry{
		AccountID: session.AccountID,
		Username:  session.Username,
		Action:    "logout",
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Endpoint:  meta.Endpoint,
	})

	return s.sessions.Destroy(ctx, token)
}

// Authenticate resolves a token to a live account. The account is re-fetched
// on every check; a session whose account has gone missing or inactive since
// login is destroyed and reported unauthenticated.
func (s *Service) Authenticate(ctx context.Context, token string) (*Account, *Session, error) {
	session, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, err
	}

	account, err := s.staff.FindByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			_ = s.sessions.Destroy(ctx, token)
			return nil, nil, ErrUnauthorized
		}
		return nil, nil, err
	}

	if !account.IsActive {
		_ = s.sessions.Destroy(ctx, token)
		return nil, nil, ErrUnauthorized
	}

	return account, session, nil
}

func (s *Service) recordActivity(ctx context.Context, account *Account, action string, meta RequestMeta) {
	s.audit.Record(ctx, activity.Entry{
		AccountID: account.ID,
		Username:  account.Username,
		Action:    action,
		Details: map[string]any{
			"ip_address": meta.IPAddress,
			"user_agent": meta.UserAgent,
		},
		IPAddress: meta.IPAddress,
		UserAgent: meta.UserAgent,
		Endpoint:  meta.Endpoint,
	})
}

func (s *Service) touchPresence(ctx context.Context, account *Account) {
	if s.presence == nil {
		return
	}
	if err := s.presence.Touch(ctx, account.Username, account.AvatarURL); err != nil {
		s.logger.Warn("presence_touch_failed", map[string]any{
			"username": account.Username,
			"error":    err.Error(),
		})
	}
}
