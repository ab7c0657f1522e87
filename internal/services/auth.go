package services

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/JairAlexey/moviematch-backend/internal/apierr"
	"github.com/JairAlexey/moviematch-backend/internal/logger"
	"github.com/JairAlexey/moviematch-backend/internal/repos"
	"github.com/JairAlexey/moviematch-backend/internal/types"
)

type AuthService interface {
	Register(ctx context.Context, name, email, password string, favoriteGenres []int64) (*types.User, string, error)
	Login(ctx context.Context, email, password string) (*types.User, string, error)
	// ValidateToken returns the authenticated user id. Everything behind
	// the auth middleware trusts this value unconditionally.
	ValidateToken(tokenString string) (uint, error)
}

type authService struct {
	db        *gorm.DB
	log       *logger.Logger
	userRepo  repos.UserRepo
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewAuthService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo, jwtSecret string, tokenTTL time.Duration) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:        db,
		log:       serviceLog,
		userRepo:  userRepo,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
	}
}

func (as *authService) Register(ctx context.Context, name, email, password string, favoriteGenres []int64) (*types.User, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, "", apierr.New(http.StatusBadRequest, "invalid_name", fmt.Errorf("a name is required to register"))
	}
	if email == "" {
		return nil, "", apierr.New(http.StatusBadRequest, "invalid_email", fmt.Errorf("an email is required to register"))
	}
	if password == "" {
		return nil, "", apierr.New(http.StatusBadRequest, "invalid_password", fmt.Errorf("a password is required to register"))
	}

	exists, err := as.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, "", apierr.New(http.StatusInternalServerError, "register_failed", fmt.Errorf("error checking email: %w", err))
	}
	if exists {
		return nil, "", apierr.New(http.StatusBadRequest, "email_in_use", fmt.Errorf("email is already in use"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", apierr.New(http.StatusInternalServerError, "register_failed", fmt.Errorf("error hashing password: %w", err))
	}

	user := &types.User{
		Name:           name,
		Email:          email,
		Password:       string(hashed),
		FavoriteGenres: favoriteGenres,
	}
	if err := as.userRepo.Create(ctx, nil, user); err != nil {
		return nil, "", apierr.New(http.StatusInternalServerError, "register_failed", fmt.Errorf("error creating user: %w", err))
	}

	token, err := as.issueToken(user.ID)
	if err != nil {
		return nil, "", apierr.New(http.StatusInternalServerError, "register_failed", err)
	}
	as.log.Info("User registered", "user_id", user.ID)
	return user, token, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*types.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", apierr.New(http.StatusBadRequest, "invalid_credentials", fmt.Errorf("email and password are required to login"))
	}

	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		return nil, "", apierr.New(http.StatusInternalServerError, "login_failed", fmt.Errorf("error fetching user: %w", err))
	}
	if user == nil {
		return nil, "", apierr.New(http.StatusUnauthorized, "invalid_credentials", fmt.Errorf("invalid email or password"))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", apierr.New(http.StatusUnauthorized, "invalid_credentials", fmt.Errorf("invalid email or password"))
	}

	token, err := as.issueToken(user.ID)
	if err != nil {
		return nil, "", apierr.New(http.StatusInternalServerError, "login_failed", err)
	}
	return user, token, nil
}

func (as *authService) issueToken(userID uint) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(userID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(as.tokenTTL)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(as.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return signed, nil
}

func (as *authService) ValidateToken(tokenString string) (uint, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return as.jwtSecret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("invalid token claims")
	}
	userID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token subject: %w", err)
	}
	return uint(userID), nil
}
