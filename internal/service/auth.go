package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rentdesk/rentdesk/internal/model"
	"github.com/rentdesk/rentdesk/internal/repository"
	"github.com/rentdesk/rentdesk/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	userRepository     repository.UserRepository
	propertyRepository repository.PropertyRepository
	jwtSecret          string
	jwtExpiry          time.Duration
	bcryptCost         int
}

func NewAuthService(
	userRepository repository.UserRepository,
	propertyRepository repository.PropertyRepository,
	jwtSecret string,
	jwtExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepository:     userRepository,
		propertyRepository: propertyRepository,
		jwtSecret:          jwtSecret,
		jwtExpiry:          jwtExpiry,
		bcryptCost:         bcrypt.DefaultCost,
	}
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r RegisterRequest) Validate() error {
	return ozzo.ValidateStruct(&r,
		ozzo.Field(&r.Username, ozzo.Required, ozzo.By(stringRule(validation.ValidateUsername))),
		ozzo.Field(&r.Password, ozzo.Required, ozzo.By(stringRule(validation.ValidatePassword))),
	)
}

// Register creates an account with no approvals. An administrator grants
// domestic or foreign access afterwards.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, validationError(err)
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.userRepository.Create(ctx, user); err != nil {
		return nil, err
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login checks a username and password. Unknown users and wrong passwords
// produce the same error.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.User, error) {
	user, err := s.userRepository.ByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.verifyPassword(ctx, user, password); err != nil {
		return nil, err
	}

	return user, nil
}

// Authenticate resolves the caller from a session token when one is present,
// otherwise from username and password.
func (s *AuthService) Authenticate(ctx context.Context, creds Credentials) (*model.User, error) {
	if creds.Token == "" {
		return s.Login(ctx, creds.Username, creds.Password)
	}

	claims, err := s.VerifyJWT(creds.Token)
	if err != nil {
		return nil, err
	}

	username, _ := claims["username"].(string)
	user, err := s.userRepository.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// Guard authenticates the caller and checks their approvals against the
// property's kind. Every operation on a property's data runs it first.
func (s *AuthService) Guard(ctx context.Context, creds Credentials, propertyID int64) (*model.User, *model.Property, error) {
	user, err := s.Authenticate(ctx, creds)
	if err != nil {
		return nil, nil, err
	}

	property, err := s.propertyRepository.ByID(ctx, propertyID)
	if err != nil {
		return nil, nil, err
	}

	if !user.CanAccess(property) {
		slog.Warn("property access denied",
			"username", user.Username,
			"property_id", property.ID,
			"is_foreign", property.IsForeign,
		)
		return nil, nil, ErrForbidden
	}

	return user, property, nil
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// legacyHash is the unsalted SHA-256 hex digest older accounts were stored
// with.
func legacyHash(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func isLegacyHash(hash string) bool {
	if len(hash) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

// verifyPassword compares against bcrypt hashes, and against legacy digests
// which are replaced with bcrypt on a match.
func (s *AuthService) verifyPassword(ctx context.Context, user *model.User, password string) error {
	if !isLegacyHash(user.PasswordHash) {
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
			return ErrInvalidCredentials
		}
		return nil
	}

	given := legacyHash(password)
	if subtle.ConstantTimeCompare([]byte(given), []byte(strings.ToLower(user.PasswordHash))) != 1 {
		return ErrInvalidCredentials
	}

	hash, err := s.HashPassword(password)
	if err == nil {
		err = s.userRepository.UpdatePasswordHash(ctx, user.ID, hash)
	}
	if err != nil {
		slog.Warn("failed to upgrade legacy password hash", "user_id", user.ID, "error", err)
		return nil
	}

	user.PasswordHash = hash
	slog.Info("upgraded legacy password hash", "user_id", user.ID)
	return nil
}

func (s *AuthService) GenerateJWT(user *model.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.jwtExpiry)

	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"exp":      expiresAt.Unix(),
		"iat":      now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

func (s *AuthService) VerifyJWT(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidCredentials
	}

	return claims, nil
}

// stringRule adapts a plain string check to an ozzo rule.
func stringRule(check func(string) error) ozzo.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		return check(s)
	}
}
