package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/suportebot/helpdesk/internal/auth"
	"github.com/suportebot/helpdesk/internal/domain"
	"github.com/suportebot/helpdesk/internal/repository"
	"github.com/suportebot/helpdesk/internal/security"
	"github.com/suportebot/helpdesk/pkg/util"
)

// Limiter guards repeated attempts per key. Implemented by the redis
// rate limiter in production and by fakes in tests.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
	Reset(ctx context.Context, key string) error
}

// AuthService handles registration and login.
type AuthService struct {
	users   repository.UserRepository
	tokens  *auth.TokenManager
	limiter Limiter
	logger  *zap.Logger

	loginMaxAttempts int
	loginWindow      time.Duration
	registerMaxPerIP int
	registerWindow   time.Duration
}

// AuthDependencies bundles collaborators for AuthService.
type AuthDependencies struct {
	UserRepo         repository.UserRepository
	Tokens           *auth.TokenManager
	Limiter          Limiter
	Logger           *zap.Logger
	LoginMaxAttempts int
	LoginWindow      time.Duration
	RegisterMaxPerIP int
	RegisterWindow   time.Duration
}

func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		users:            deps.UserRepo,
		tokens:           deps.Tokens,
		limiter:          deps.Limiter,
		logger:           deps.Logger,
		loginMaxAttempts: deps.LoginMaxAttempts,
		loginWindow:      deps.LoginWindow,
		registerMaxPerIP: deps.RegisterMaxPerIP,
		registerWindow:   deps.RegisterWindow,
	}
}

// RegisterInput describes the registration payload.
type RegisterInput struct {
	Username   string
	AccessCode string
	ClientIP   string
}

// RegisterResult is a created account plus its first session token.
type RegisterResult struct {
	User  *domain.User
	Token string
}

// Register creates an account and signs the user in. The role comes from
// the access-code band and never changes afterwards.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*RegisterResult, error) {
	allowed, err := s.limiter.Allow(ctx, "register:"+input.ClientIP, s.registerMaxPerIP, s.registerWindow)
	if err != nil {
		s.logger.Warn("register limiter unavailable", zap.Error(err))
	}
	if !allowed {
		return nil, util.NewRateLimited("Muitas tentativas de cadastro. Tente novamente mais tarde.")
	}

	username := strings.TrimSpace(input.Username)
	if err := security.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := security.ValidateAccessCode(input.AccessCode); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	if exists {
		return nil, util.NewConflict("Nome de usuário já está em uso.", nil)
	}

	code, err := strconv.Atoi(input.AccessCode)
	if err != nil || code < domain.AccessCodeMin || code > domain.AccessCodeMax {
		return nil, util.NewValidationError("Código de acesso inválido.", nil)
	}

	hash, err := auth.HashAccessCode(input.AccessCode)
	if err != nil {
		return nil, util.NewInternalError(err)
	}

	user := &domain.User{
		ID:             uuid.NewString(),
		Username:       username,
		AccessCodeHash: hash,
		Role:           domain.RoleFromAccessCode(code),
		CreatedAt:      time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, util.NewInternalError(err)
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, util.NewInternalError(err)
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)
	return &RegisterResult{User: user, Token: token}, nil
}

// LoginInput describes the login payload.
type LoginInput struct {
	Username   string
	AccessCode string
	ClientIP   string
}

// LoginResult is a successful authentication.
type LoginResult struct {
	User  *domain.User
	Token string
}

// Login authenticates a user and issues a session token. Failed attempts
// count against a per-username window so codes cannot be brute forced.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.AccessCode == "" {
		return nil, util.NewValidationError("Informe usuário e código de acesso.", nil)
	}

	attemptKey := "login:" + strings.ToLower(username)
	allowed, err := s.limiter.Allow(ctx, attemptKey, s.loginMaxAttempts, s.loginWindow)
	if err != nil {
		s.logger.Warn("login limiter unavailable", zap.Error(err))
	}
	if !allowed {
		return nil, util.NewRateLimited("Muitas tentativas de login. Aguarde alguns minutos.")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, util.NewUnauthorized("Usuário ou código de acesso incorretos.")
		}
		return nil, util.NewInternalError(err)
	}
	if !auth.CompareAccessCode(user.AccessCodeHash, input.AccessCode) {
		return nil, util.NewUnauthorized("Usuário ou código de acesso incorretos.")
	}

	if err := s.limiter.Reset(ctx, attemptKey); err != nil {
		s.logger.Warn("login limiter reset failed", zap.Error(err))
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	return &LoginResult{User: user, Token: token}, nil
}
