package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fxgate/internal/adapters"
	"fxgate/internal/auth"
	"fxgate/internal/domain"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type TokenPair struct {
	Access  string
	Refresh string
}

type RegisterInput struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

type Service struct {
	tx              adapters.Transactor
	users           adapters.UserRepository
	balances        adapters.BalanceRepository
	sessions        adapters.SessionRepository
	tokens          *auth.TokenManager
	startingBalance int
	now             func() time.Time
}

// Register creates the user together with the seeded balance, then signs them in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (TokenPair, error) {
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return TokenPair{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := domain.User{
		ID:           uuid.New(),
		Email:        NormalizeEmail(in.Email),
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: hash,
	}

	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		created, err := s.users.Create(txCtx, user)
		if err != nil {
			return err
		}
		user = created
		return s.balances.Create(txCtx, user.ID, s.startingBalance)
	})
	if err != nil {
		return TokenPair{}, err
	}

	logrus.WithFields(logrus.Fields{"user_id": user.ID}).Info("user registered")
	return s.issuePair(ctx, user.ID)
}

// ObtainToken checks credentials and opens a new refresh session.
func (s *Service) ObtainToken(ctx context.Context, email, password string) (TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return TokenPair{}, domain.ErrInvalidCredentials
		}
		return TokenPair{}, err
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return TokenPair{}, domain.ErrInvalidCredentials
	}
	return s.issuePair(ctx, user.ID)
}

// Refresh issues a new access token for a live refresh session.
func (s *Service) Refresh(ctx context.Context, rawRefresh string) (string, error) {
	session, err := s.activeSession(ctx, rawRefresh)
	if err != nil {
		return "", err
	}

	access, err := s.tokens.IssueAccess(session.UserID)
	if err != nil {
		return "", err
	}
	return access.Value, nil
}

// Logout revokes the refresh session. Revoking an already revoked session is not an error.
func (s *Service) Logout(ctx context.Context, rawRefresh string) error {
	claims, err := s.tokens.Parse(rawRefresh, auth.RefreshToken)
	if err != nil {
		return err
	}
	jti, err := claims.JTI()
	if err != nil {
		return err
	}
	return s.sessions.Delete(ctx, jti)
}

func (s *Service) activeSession(ctx context.Context, rawRefresh string) (domain.Session, error) {
	claims, err := s.tokens.Parse(rawRefresh, auth.RefreshToken)
	if err != nil {
		return domain.Session{}, err
	}
	jti, err := claims.JTI()
	if err != nil {
		return domain.Session{}, err
	}
	userID, err := claims.UserID()
	if err != nil {
		return domain.Session{}, err
	}

	session, err := s.sessions.GetActive(ctx, jti, s.now())
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.Session{}, fmt.Errorf("%w: session revoked or expired", domain.ErrInvalidToken)
		}
		return domain.Session{}, err
	}
	if session.UserID != userID {
		return domain.Session{}, fmt.Errorf("%w: session owner mismatch", domain.ErrInvalidToken)
	}
	return session, nil
}

func (s *Service) issuePair(ctx context.Context, userID uuid.UUID) (TokenPair, error) {
	refresh, err := s.tokens.IssueRefresh(userID)
	if err != nil {
		return TokenPair{}, err
	}
	if err = s.sessions.Create(ctx, domain.Session{JTI: refresh.JTI, UserID: userID, ExpiresAt: refresh.ExpiresAt}); err != nil {
		return TokenPair{}, err
	}

	access, err := s.tokens.IssueAccess(userID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access.Value, Refresh: refresh.Value}, nil
}

// NormalizeEmail trims the address and lower-cases its domain part. The local part is
// kept as given.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

func NewService(
	tx adapters.Transactor,
	users adapters.UserRepository,
	balances adapters.BalanceRepository,
	sessions adapters.SessionRepository,
	tokens *auth.TokenManager,
	startingBalance int,
) *Service {
	return &Service{
		tx:              tx,
		users:           users,
		balances:        balances,
		sessions:        sessions,
		tokens:          tokens,
		startingBalance: startingBalance,
		now:             time.Now,
	}
}
