package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/fleetops/dispatch-board/internal/config"
	"github.com/fleetops/dispatch-board/internal/models"
	"github.com/fleetops/dispatch-board/internal/repository"
	"github.com/fleetops/dispatch-board/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidSignature   = errors.New("invalid callback signature")
	ErrUnknownEmployee    = errors.New("employee code not registered")
	ErrSessionNotFound    = errors.New("login session not found")
)

const userCacheTTL = 5 * time.Minute

type AuthService struct {
	users        *repository.UserRepository
	sessions     *repository.AuthSessionRepository
	redis        *storage.RedisClient
	oauth        *oauth2.Config
	userInfoURL  string
	httpClient   *http.Client
	jwtSecret    []byte
	jwtExpiry    time.Duration
	seatalkKey   []byte
	qrSessionTTL time.Duration
}

func NewAuthService(users *repository.UserRepository, sessions *repository.AuthSessionRepository, redis *storage.RedisClient, cfg config.AuthConfig) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		redis:    redis,
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL:  "https://www.googleapis.com/oauth2/v2/userinfo",
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		jwtSecret:    []byte(cfg.JWTSecret),
		jwtExpiry:    time.Duration(cfg.JWTExpiryHours) * time.Hour,
		seatalkKey:   []byte(cfg.SeaTalkSecret),
		qrSessionTTL: time.Duration(cfg.QRSessionTTLSec) * time.Second,
	}
}

type googleUserInfo struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// LoginWithGoogle exchanges an OAuth code, upserts the user by email
// and mints a web session token.
func (s *AuthService) LoginWithGoogle(ctx context.Context, code string) (*models.User, string, error) {
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("google code exchange failed: %w", err)
	}

	info, err := s.fetchGoogleUserInfo(ctx, token)
	if err != nil {
		return nil, "", err
	}
	if info.Email == "" {
		return nil, "", fmt.Errorf("google userinfo returned no email")
	}

	user := &models.User{
		Email:     info.Email,
		Name:      info.Name,
		AvatarURL: info.Picture,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to upsert user: %w", err)
	}

	// Upsert keeps the existing id on conflict; re-read for it.
	user, err = s.users.FindByEmail(ctx, info.Email)
	if err != nil || user == nil {
		return nil, "", fmt.Errorf("failed to load user after upsert: %w", err)
	}

	// The upsert may have refreshed name and avatar; drop the stale
	// cached profile.
	if s.redis != nil {
		s.redis.Del(ctx, userCacheKey(user.ID))
	}

	return s.openSession(ctx, user)
}

func (s *AuthService) fetchGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*googleUserInfo, error) {
	resp, err := s.oauth.Client(ctx, token).Get(s.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("google userinfo fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo returned status %d", resp.StatusCode)
	}

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode google userinfo: %w", err)
	}
	return &info, nil
}

// LoginWithPassword is the ops-admin fallback for accounts with a
// password hash set.
func (s *AuthService) LoginWithPassword(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if user == nil || user.PasswordHash == "" {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	return s.openSession(ctx, user)
}

// StartQRSession creates a pending QR login session. The returned
// token is what the browser renders as a QR code and polls on.
func (s *AuthService) StartQRSession(ctx context.Context) (*models.AuthSession, error) {
	session := &models.AuthSession{
		Kind:      models.SessionKindQR,
		QRToken:   uuid.NewString(),
		Status:    models.QRStatusPending,
		ExpiresAt: time.Now().UTC().Add(s.qrSessionTTL),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create qr session: %w", err)
	}
	return session, nil
}

// ConfirmQRSession handles the SeaTalk app callback. The signature is
// an HMAC over token+employeeCode with the shared app secret.
func (s *AuthService) ConfirmQRSession(ctx context.Context, token, employeeCode, signature string) error {
	if !s.verifySeaTalkSignature(token, employeeCode, signature) {
		return ErrInvalidSignature
	}

	user, err := s.users.FindByOpsID(ctx, employeeCode)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUnknownEmployee
	}

	ok, err := s.sessions.Confirm(ctx, token, employeeCode, user.ID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

type QRPollResult struct {
	Status string       `json:"status"`
	Token  string       `json:"token,omitempty"`
	User   *models.User `json:"user,omitempty"`
}

// PollQRSession is what the browser loops on. The first poll that
// observes a confirmed session consumes it and receives the web
// session token; later polls see consumed and nothing else.
func (s *AuthService) PollQRSession(ctx context.Context, token string) (*QRPollResult, error) {
	session, err := s.sessions.FindByQRToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if session.Status == models.QRStatusPending && time.Now().UTC().After(session.ExpiresAt) {
		if err := s.sessions.MarkExpired(ctx, token); err != nil {
			return nil, err
		}
		return &QRPollResult{Status: models.QRStatusExpired}, nil
	}

	if session.Status != models.QRStatusConfirmed {
		return &QRPollResult{Status: session.Status}, nil
	}

	won, err := s.sessions.Consume(ctx, token)
	if err != nil {
		return nil, err
	}
	if !won {
		return &QRPollResult{Status: models.QRStatusConsumed}, nil
	}

	user, err := s.users.FindByID(ctx, *session.UserID)
	if err != nil || user == nil {
		return nil, fmt.Errorf("failed to load user for confirmed session: %w", err)
	}

	webToken, err := s.mintToken(user)
	if err != nil {
		return nil, err
	}
	s.users.TouchLastLogin(ctx, user.ID)

	return &QRPollResult{
		Status: models.QRStatusConfirmed,
		Token:  webToken,
		User:   user,
	}, nil
}

func (s *AuthService) verifySeaTalkSignature(token, employeeCode, signature string) bool {
	mac := hmac.New(sha256.New, s.seatalkKey)
	mac.Write([]byte(token + employeeCode))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (s *AuthService) openSession(ctx context.Context, user *models.User) (*models.User, string, error) {
	token, err := s.mintToken(user)
	if err != nil {
		return nil, "", err
	}
	s.users.TouchLastLogin(ctx, user.ID)
	return user, token, nil
}

func (s *AuthService) mintToken(user *models.User) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sid":   uuid.NewString(),
		"sub":   user.ID.String(),
		"email": user.Email,
		"role":  user.Role,
		"iat":   now.Unix(),
		"exp":   now.Add(s.jwtExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Session identifies an authenticated request. SID keys the session
// rate limit counter.
type Session struct {
	SID    string
	UserID uuid.UUID
	Email  string
	Role   string
}

// ValidateToken verifies the JWT and loads the user behind it through
// a redis read-through cache, same pattern as a key-validation cache:
// hit decodes from redis, miss queries the database and backfills.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*Session, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sid, _ := claims["sid"].(string)
	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil || sid == "" {
		return nil, ErrInvalidToken
	}

	user, err := s.loadUserCached(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidToken
	}

	return &Session{
		SID:    sid,
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	}, nil
}

func userCacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:cache:%s", id)
}

func (s *AuthService) loadUserCached(ctx context.Context, id uuid.UUID) (*models.User, error) {
	cacheKey := userCacheKey(id)

	if s.redis != nil {
		cached, err := s.redis.Get(ctx, cacheKey)
		switch {
		case err == nil:
			var user models.User
			if err := json.Unmarshal([]byte(cached), &user); err == nil {
				return &user, nil
			}
		case !storage.IsNil(err):
			// A miss is expected; anything else gets logged before
			// falling through to the database.
			log.Printf("user cache read failed: %v", err)
		}
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil || user == nil {
		return user, err
	}

	if s.redis != nil {
		if payload, err := json.Marshal(user); err == nil {
			s.redis.Set(ctx, cacheKey, payload, userCacheTTL)
		}
	}

	return user, nil
}

// SeaTalkSignature computes the callback signature; exported for the
// app-side contract and tests.
func SeaTalkSignature(secret, token, employeeCode string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(token + employeeCode))
	return hex.EncodeToString(mac.Sum(nil))
}
