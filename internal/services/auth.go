package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sbilibin2017/gw-book-collection/internal/logger"
	"github.com/sbilibin2017/gw-book-collection/internal/models"
	"github.com/sbilibin2017/gw-book-collection/internal/repositories"
	"golang.org/x/crypto/bcrypt"
)

//go:generate mockgen -source=auth.go -destination=auth_mock.go -package=services

// Error variables
var (
	ErrUserAlreadyExists  = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrTooManyAttempts    = errors.New("too many failed sign-in attempts, try again later")
)

// PasswordCost is the bcrypt cost used for new password hashes.
const PasswordCost = 10

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// dummyHash is compared against when the email is unknown so both failures cost one bcrypt run.
var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("unknown-user-password"), PasswordCost)
	return hash
})

// UserReader defines read-only operations for users.
type UserReader interface {
	GetByEmail(ctx context.Context, email string) (*models.UserDB, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*models.UserDB, error)
}

// UserWriter defines write operations for users.
type UserWriter interface {
	Save(ctx context.Context, email, passwordHash string) (uuid.UUID, error)
}

// JWTGenerator defines an interface for generating JWT tokens.
type JWTGenerator interface {
	Generate(ctx context.Context, userID uuid.UUID, email string) (string, error)
}

// LoginLimiter counts failed sign-in attempts per email.
type LoginLimiter interface {
	Allow(ctx context.Context, email string) (bool, error)
	RegisterFailure(ctx context.Context, email string) error
	Reset(ctx context.Context, email string) error
}

// AuthService handles registration, sign-in and the current user lookup.
type AuthService struct {
	reader  UserReader
	writer  UserWriter
	jwt     JWTGenerator
	limiter LoginLimiter // nil disables throttling
}

// NewAuthService creates a new AuthService instance.
func NewAuthService(reader UserReader, writer UserWriter, jwt JWTGenerator, limiter LoginLimiter) *AuthService {
	return &AuthService{
		reader:  reader,
		writer:  writer,
		jwt:     jwt,
		limiter: limiter,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user and returns its id.
func (svc *AuthService) Register(ctx context.Context, email, password string) (uuid.UUID, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return uuid.Nil, errorf(ErrValidation, "email and password are required")
	}
	if err := checkText("email", email, MaxEmailLength); err != nil {
		return uuid.Nil, err
	}
	if len(password) > MaxPasswordBytes {
		return uuid.Nil, errorf(ErrValidation, "password must be at most 72 bytes")
	}

	user, err := svc.reader.GetByEmail(ctx, email)
	if err != nil {
		logger.Log.Errorw("failed to check user exists", "err", err)
		return uuid.Nil, err
	}
	if user != nil {
		logger.Log.Warnw("user already exists", "email", email)
		return uuid.Nil, ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return uuid.Nil, errorf(ErrValidation, "password must be at most 72 bytes")
	}
	if err != nil {
		logger.Log.Errorw("failed to hash password", "err", err)
		return uuid.Nil, err
	}

	userID, err := svc.writer.Save(ctx, email, string(hashedPassword))
	if err != nil {
		if errors.Is(err, repositories.ErrUniqueViolation) {
			logger.Log.Warnw("user already exists", "email", email)
			return uuid.Nil, ErrUserAlreadyExists
		}
		logger.Log.Errorw("failed to save user", "err", err)
		return uuid.Nil, err
	}

	logger.Log.Infow("user registered", "userID", userID)
	return userID, nil
}

// Login authenticates a user and returns a JWT token along with the user.
// Unknown emails and wrong passwords produce the same error.
func (svc *AuthService) Login(ctx context.Context, email, password string) (string, *models.UserDB, error) {
	email = normalizeEmail(email)

	if svc.limiter != nil {
		allowed, err := svc.limiter.Allow(ctx, email)
		if err != nil {
			logger.Log.Warnw("login limiter unavailable, allowing attempt", "err", err)
		} else if !allowed {
			logger.Log.Warnw("too many sign-in attempts", "email", email)
			return "", nil, ErrTooManyAttempts
		}
	}

	user, err := svc.reader.GetByEmail(ctx, email)
	if err != nil {
		logger.Log.Errorw("failed to get user", "err", err)
		return "", nil, err
	}
	if user == nil {
		_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
		logger.Log.Warnw("user does not exist", "email", email)
		svc.registerFailure(ctx, email)
		return "", nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		logger.Log.Warnw("invalid credentials", "email", email)
		svc.registerFailure(ctx, email)
		return "", nil, ErrInvalidCredentials
	}

	if svc.limiter != nil {
		if err := svc.limiter.Reset(ctx, email); err != nil {
			logger.Log.Warnw("failed to reset login attempts", "err", err)
		}
	}

	token, err := svc.jwt.Generate(ctx, user.UserID, user.Email)
	if err != nil {
		logger.Log.Errorw("failed to generate JWT", "err", err)
		return "", nil, err
	}

	return token, user, nil
}

func (svc *AuthService) registerFailure(ctx context.Context, email string) {
	if svc.limiter == nil {
		return
	}
	if err := svc.limiter.RegisterFailure(ctx, email); err != nil {
		logger.Log.Warnw("failed to record login attempt", "err", err)
	}
}

// GetCurrentUser returns the user the token was issued to.
func (svc *AuthService) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*models.UserDB, error) {
	user, err := svc.reader.GetByID(ctx, userID)
	if err != nil {
		logger.Log.Errorw("failed to get user", "userID", userID, "err", err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
