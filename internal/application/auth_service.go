package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/oksasatya/otomasyon-magazasi/config"
	"github.com/oksasatya/otomasyon-magazasi/internal/domain/entity"
	repo "github.com/oksasatya/otomasyon-magazasi/internal/domain/repository"
	"github.com/oksasatya/otomasyon-magazasi/pkg/helpers"
	tpl "github.com/oksasatya/otomasyon-magazasi/pkg/mailer/templates"
	"github.com/oksasatya/otomasyon-magazasi/pkg/validation"
)

const (
	verifyTokenTTL = 24 * time.Hour
	resetTokenTTL  = 30 * time.Minute
	oauthStateTTL  = 10 * time.Minute

	googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
)

func sessionKey(userID string) string   { return "user:session:" + userID }
func keyVerifyToken(t string) string    { return "email:verify:token:" + t }
func keyResetToken(t string) string     { return "pwd:reset:token:" + t }
func keyVerified(uid string) string     { return "user:verified:" + uid }
func keyOAuthState(state string) string { return "oauth:state:" + state }

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// RequestMeta is the client information recorded in the audit log.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// OAuthUser is the identity returned by the provider's userinfo endpoint.
type OAuthUser struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// UserInfoFetcher resolves the identity behind an OAuth token.
type UserInfoFetcher func(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token) (*OAuthUser, error)

type AuthService struct {
	Users    repo.UserRepository
	Audit    repo.AuditRepository
	JWT      *helpers.JWTManager
	Redis    *redis.Client
	Mail     Mailer
	Cfg      *config.Config
	Logger   *logrus.Logger
	OAuth    *oauth2.Config
	UserInfo UserInfoFetcher
}

func NewAuthService(users repo.UserRepository, audit repo.AuditRepository, jwt *helpers.JWTManager, rdb *redis.Client, mail Mailer, cfg *config.Config, logger *logrus.Logger) *AuthService {
	return &AuthService{
		Users:    users,
		Audit:    audit,
		JWT:      jwt,
		Redis:    rdb,
		Mail:     mail,
		Cfg:      cfg,
		Logger:   logger,
		OAuth:    GoogleOAuthConfig(cfg),
		UserInfo: fetchGoogleUserInfo,
	}
}

// GoogleOAuthConfig returns nil when the client credentials are not configured.
func GoogleOAuthConfig(cfg *config.Config) *oauth2.Config {
	if cfg == nil || cfg.GoogleClientID == "" || cfg.GoogleClientSecret == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Username string
	FullName string
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput, meta RequestMeta) (*entity.Account, TokenPair, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	username := strings.TrimSpace(in.Username)
	if !validation.IsEmail(email) {
		return nil, TokenPair{}, ErrInvalidEmail
	}
	if len(in.Password) < 8 {
		return nil, TokenPair{}, ErrWeakPassword
	}
	if !validation.IsUsername(username) {
		return nil, TokenPair{}, ErrInvalidUsername
	}
	taken, err := s.Users.UsernameExists(ctx, username)
	if err != nil {
		return nil, TokenPair{}, err
	}
	if taken {
		return nil, TokenPair{}, ErrUsernameTaken
	}
	if _, err := s.Users.GetByEmail(ctx, email); err == nil {
		return nil, TokenPair{}, ErrEmailTaken
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, TokenPair{}, err
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	u := &entity.User{ID: uuid.NewString(), Email: email, Password: hash}
	p := &entity.Profile{ID: u.ID, Username: username, FullName: strings.TrimSpace(in.FullName), Role: entity.RoleUser}
	if err := s.Users.Create(ctx, u, p); err != nil {
		return nil, TokenPair{}, err
	}
	acct := &entity.Account{User: *u, Profile: *p}
	s.audit(ctx, u.ID, u.Email, "register", meta, nil)

	if err := s.sendVerification(ctx, acct); err != nil {
		helpers.LogWarn(s.Logger, "verification email failed", err, logrus.Fields{"user_id": u.ID})
	}
	sendMail(ctx, s.Mail, s.Logger, u.Email, tpl.NewWelcomeData(s.Cfg, p.DisplayName(), u.Email))

	pair, err := s.IssueTokens(ctx, acct)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return acct, pair, nil
}

// UsernameAvailable reports whether username is well formed and unused.
func (s *AuthService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	if !validation.IsUsername(username) {
		return false, nil
	}
	taken, err := s.Users.UsernameExists(ctx, username)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// Authenticate validates email/password and returns the account without issuing tokens.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*entity.Account, error) {
	u, err := s.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	// OAuth-only accounts have no password hash.
	if u.Password == "" || !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return s.account(ctx, u)
}

func (s *AuthService) Login(ctx context.Context, email, password string, meta RequestMeta) (*entity.Account, TokenPair, error) {
	acct, err := s.Authenticate(ctx, email, password)
	if err != nil {
		s.audit(ctx, "", email, "login_failed", meta, nil)
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, acct)
	if err != nil {
		return nil, TokenPair{}, err
	}
	s.audit(ctx, acct.User.ID, acct.User.Email, "login", meta, nil)
	return acct, pair, nil
}

func (s *AuthService) account(ctx context.Context, u *entity.User) (*entity.Account, error) {
	p, err := s.Users.GetProfile(ctx, u.ID)
	if err != nil {
		return nil, orNotFound(err, ErrUserNotFound)
	}
	return &entity.Account{User: *u, Profile: *p}, nil
}

func (s *AuthService) generatePair(uid, sid string, role entity.Role) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(uid, sid, string(role))
	if err != nil {
		helpers.LogError(s.Logger, "generate access token failed", err, logrus.Fields{"user_id": uid})
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(uid, sid)
	if err != nil {
		helpers.LogError(s.Logger, "generate refresh token failed", err, logrus.Fields{"user_id": uid})
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

// IssueTokens generates access/refresh tokens and records the session in Redis.
func (s *AuthService) IssueTokens(ctx context.Context, acct *entity.Account) (TokenPair, error) {
	sid := uuid.NewString()
	pair, err := s.generatePair(acct.User.ID, sid, acct.Profile.Role)
	if err != nil {
		return TokenPair{}, err
	}
	if s.Redis != nil {
		fields := map[string]any{
			"user_id":    acct.User.ID,
			"email":      acct.User.Email,
			"username":   acct.Profile.Username,
			"name":       acct.Profile.DisplayName(),
			"avatar_url": acct.Profile.AvatarURL,
			"role":       string(acct.Profile.Role),
			"sid":        sid,
			"logged_in":  true,
			"created_at": nowRFC3339(),
		}
		key := sessionKey(acct.User.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, s.sessionTTL())
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			helpers.LogWarn(s.Logger, "redis pipeline failed", rErr, logrus.Fields{"key": key})
		}
	}
	return pair, nil
}

func (s *AuthService) sessionTTL() time.Duration {
	if s.Cfg != nil && s.Cfg.RefreshTTL > 0 {
		return s.Cfg.RefreshTTL
	}
	return 24 * time.Hour
}

// Refresh validates the refresh token against the active session, rotates the
// session id and re-reads the role so promotions take effect.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrSessionExpired
	}
	p, err := s.Users.GetProfile(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return TokenPair{}, "", ErrSessionExpired
		}
		return TokenPair{}, "", err
	}
	key := sessionKey(p.ID)
	if s.Redis != nil {
		sid, rErr := s.Redis.HGet(ctx, key, "sid").Result()
		if rErr != nil || sid != claims.SessionID {
			return TokenPair{}, "", ErrSessionExpired
		}
	}
	sid := uuid.NewString()
	pair, err := s.generatePair(p.ID, sid, p.Role)
	if err != nil {
		return TokenPair{}, "", err
	}
	if s.Redis != nil {
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"sid":        sid,
			"role":       string(p.Role),
			"updated_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, s.sessionTTL())
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			helpers.LogWarn(s.Logger, "redis pipeline failed", rErr, logrus.Fields{"key": key})
		}
	}
	return pair, p.ID, nil
}

func (s *AuthService) Logout(ctx context.Context, userID string, meta RequestMeta) {
	if s.Redis != nil && userID != "" {
		if err := s.Redis.Del(ctx, sessionKey(userID)).Err(); err != nil {
			helpers.LogWarn(s.Logger, "session delete failed", err, logrus.Fields{"user_id": userID})
		}
	}
	s.audit(ctx, userID, "", "logout", meta, nil)
}

// VerifyInit issues a 24h verification token and emails the link. It reports
// true when the account is already verified.
func (s *AuthService) VerifyInit(ctx context.Context, userID string, meta RequestMeta) (bool, error) {
	u, err := s.Users.GetByID(ctx, userID)
	if err != nil {
		return false, orNotFound(err, ErrUserNotFound)
	}
	if u.IsVerified {
		if s.Redis != nil {
			_ = s.Redis.Set(ctx, keyVerified(u.ID), "1", 0).Err()
		}
		s.audit(ctx, u.ID, u.Email, "verify_init_already", meta, nil)
		return true, nil
	}
	acct, err := s.account(ctx, u)
	if err != nil {
		return false, err
	}
	if err := s.sendVerification(ctx, acct); err != nil {
		return false, err
	}
	s.audit(ctx, u.ID, u.Email, "verify_init_issue", meta, nil)
	return false, nil
}

func (s *AuthService) sendVerification(ctx context.Context, acct *entity.Account) error {
	if s.Redis == nil {
		return ErrUnavailable
	}
	tok, err := helpers.RandomToken(32)
	if err != nil {
		return err
	}
	if err := s.Redis.Set(ctx, keyVerifyToken(tok), acct.User.ID, verifyTokenTTL).Err(); err != nil {
		return err
	}
	link := withQuery(s.Cfg.VerifyEmailURL, "token", tok)
	data := tpl.NewVerifyEmailData(s.Cfg, acct.Profile.DisplayName(), acct.User.Email, link, verifyTokenTTL)
	sendMail(ctx, s.Mail, s.Logger, acct.User.Email, data)
	return nil
}

func (s *AuthService) VerifyConfirm(ctx context.Context, token string, meta RequestMeta) error {
	if s.Redis == nil {
		return ErrUnavailable
	}
	uid, err := s.Redis.GetDel(ctx, keyVerifyToken(token)).Result()
	if err != nil || uid == "" {
		return ErrInvalidToken
	}
	if err := s.Users.SetVerified(ctx, uid); err != nil {
		return orNotFound(err, ErrUserNotFound)
	}
	_ = s.Redis.Set(ctx, keyVerified(uid), "1", 0).Err()
	s.audit(ctx, uid, "", "verify_confirm", meta, map[string]any{"token": "redacted"})
	return nil
}

// ResetInit emails a 30 minute reset link. Unknown addresses succeed silently.
func (s *AuthService) ResetInit(ctx context.Context, email string, meta RequestMeta) error {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			s.audit(ctx, "", email, "reset_init_unknown", meta, nil)
			return nil
		}
		return err
	}
	if s.Redis == nil {
		return ErrUnavailable
	}
	tok, err := helpers.RandomToken(32)
	if err != nil {
		return err
	}
	if err := s.Redis.Set(ctx, keyResetToken(tok), u.ID, resetTokenTTL).Err(); err != nil {
		return err
	}
	name := u.Email
	if p, pErr := s.Users.GetProfile(ctx, u.ID); pErr == nil {
		name = p.DisplayName()
	}
	link := withQuery(s.Cfg.ResetPasswordURL, "token", tok)
	sendMail(ctx, s.Mail, s.Logger, u.Email, tpl.NewForgotPasswordData(s.Cfg, name, u.Email, link, resetTokenTTL))
	s.audit(ctx, u.ID, u.Email, "reset_init_issue", meta, nil)
	return nil
}

// ResetTokenValid reports whether a reset token is still live without consuming it.
func (s *AuthService) ResetTokenValid(ctx context.Context, token string) bool {
	if s.Redis == nil || token == "" {
		return false
	}
	n, err := s.Redis.Exists(ctx, keyResetToken(token)).Result()
	return err == nil && n == 1
}

// ResetConfirm sets the new password and ends every session of the account.
func (s *AuthService) ResetConfirm(ctx context.Context, token, newPassword string, meta RequestMeta) error {
	if s.Redis == nil {
		return ErrUnavailable
	}
	if len(newPassword) < 8 {
		return ErrWeakPassword
	}
	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	uid, err := s.Redis.GetDel(ctx, keyResetToken(token)).Result()
	if err != nil || uid == "" {
		return ErrInvalidToken
	}
	if err := s.Users.UpdatePassword(ctx, uid, hash); err != nil {
		return orNotFound(err, ErrUserNotFound)
	}
	s.Redis.Del(ctx, sessionKey(uid))
	s.audit(ctx, uid, "", "reset_confirm", meta, map[string]any{"token": "redacted"})
	return nil
}

// OAuthURL stores a fresh state and returns the provider consent URL.
func (s *AuthService) OAuthURL(ctx context.Context) (string, error) {
	if s.OAuth == nil {
		return "", ErrOAuthDisabled
	}
	if s.Redis == nil {
		return "", ErrUnavailable
	}
	state, err := helpers.RandomToken(24)
	if err != nil {
		return "", err
	}
	if err := s.Redis.Set(ctx, keyOAuthState(state), "1", oauthStateTTL).Err(); err != nil {
		return "", err
	}
	return s.OAuth.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// CallbackParams are the query parameters of GET /api/auth/callback.
type CallbackParams struct {
	Error string
	Type  string
	Token string
	Code  string
	State string
}

// CallbackResult is where to send the browser, plus a session when one was issued.
type CallbackResult struct {
	Redirect string
	Tokens   *TokenPair
}

func (s *AuthService) loginURL(code string) string {
	return s.Cfg.FrontendURL + "/giris?error=" + url.QueryEscape(code)
}

// HandleCallback resolves the shared auth callback into a frontend redirect.
func (s *AuthService) HandleCallback(ctx context.Context, p CallbackParams, meta RequestMeta) CallbackResult {
	switch {
	case p.Error != "":
		return CallbackResult{Redirect: s.loginURL(p.Error)}

	case p.Type == "recovery" && p.Token != "":
		if !s.ResetTokenValid(ctx, p.Token) {
			return CallbackResult{Redirect: s.loginURL("link_expired")}
		}
		return CallbackResult{Redirect: s.Cfg.FrontendURL + "/sifre-sifirla?token=" + url.QueryEscape(p.Token)}

	case p.Code != "" && p.State != "":
		if !s.consumeState(ctx, p.State) {
			return CallbackResult{Redirect: s.loginURL("invalid_callback")}
		}
		acct, err := s.oauthLogin(ctx, p.Code)
		if errors.Is(err, ErrOAuthUnverified) {
			return CallbackResult{Redirect: s.loginURL("email_unverified")}
		}
		if err != nil {
			helpers.LogWarn(s.Logger, "oauth callback failed", err, nil)
			return CallbackResult{Redirect: s.loginURL("oauth_failed")}
		}
		pair, err := s.IssueTokens(ctx, acct)
		if err != nil {
			return CallbackResult{Redirect: s.loginURL("oauth_failed")}
		}
		s.audit(ctx, acct.User.ID, acct.User.Email, "login_oauth", meta, map[string]any{"provider": "google"})
		return CallbackResult{Redirect: s.Cfg.FrontendURL + "/", Tokens: &pair}
	}
	return CallbackResult{Redirect: s.loginURL("invalid_callback")}
}

func (s *AuthService) consumeState(ctx context.Context, state string) bool {
	if s.Redis == nil {
		return false
	}
	v, err := s.Redis.GetDel(ctx, keyOAuthState(state)).Result()
	return err == nil && v != ""
}

func (s *AuthService) oauthLogin(ctx context.Context, code string) (*entity.Account, error) {
	if s.OAuth == nil || s.UserInfo == nil {
		return nil, ErrOAuthDisabled
	}
	tok, err := s.OAuth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	info, err := s.UserInfo(ctx, s.OAuth, tok)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	return s.findOrCreateOAuthUser(ctx, info)
}

// findOrCreateOAuthUser links the provider identity to an account by email,
// creating the user and profile on first sign in. An existing account is only
// linked when the provider has verified the address.
func (s *AuthService) findOrCreateOAuthUser(ctx context.Context, info *OAuthUser) (*entity.Account, error) {
	email := strings.ToLower(strings.TrimSpace(info.Email))
	if !validation.IsEmail(email) {
		return nil, ErrInvalidEmail
	}
	u, err := s.Users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if !info.EmailVerified {
			helpers.LogWarn(s.Logger, "oauth login refused: unverified provider email", nil, logrus.Fields{"user_id": u.ID})
			return nil, ErrOAuthUnverified
		}
		if !u.IsVerified {
			if vErr := s.Users.SetVerified(ctx, u.ID); vErr == nil {
				u.IsVerified = true
			}
		}
		return s.account(ctx, u)
	case !errors.Is(err, repo.ErrNotFound):
		return nil, err
	}

	username, err := s.uniqueUsername(ctx, email)
	if err != nil {
		return nil, err
	}
	u = &entity.User{ID: uuid.NewString(), Email: email, IsVerified: info.EmailVerified}
	p := &entity.Profile{
		ID:        u.ID,
		Username:  username,
		FullName:  strings.TrimSpace(info.Name),
		AvatarURL: info.Picture,
		Role:      entity.RoleUser,
	}
	if err := s.Users.Create(ctx, u, p); err != nil {
		return nil, err
	}
	sendMail(ctx, s.Mail, s.Logger, u.Email, tpl.NewWelcomeData(s.Cfg, p.DisplayName(), u.Email))
	return &entity.Account{User: *u, Profile: *p}, nil
}

// UsernameBase derives a valid username candidate from the local part of an email.
func UsernameBase(email string) string {
	local := strings.ToLower(email)
	if i := strings.IndexByte(local, '@'); i >= 0 {
		local = local[:i]
	}
	var b strings.Builder
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_' || r == '+':
			b.WriteByte('_')
		}
	}
	base := strings.Trim(b.String(), "_")
	if base == "" || base[0] < 'a' || base[0] > 'z' {
		base = "u" + base
	}
	for len(base) < 3 {
		base += "0"
	}
	if len(base) > 24 {
		base = base[:24]
	}
	return base
}

func (s *AuthService) uniqueUsername(ctx context.Context, email string) (string, error) {
	base := UsernameBase(email)
	candidate := base
	for i := 1; i <= 50; i++ {
		taken, err := s.Users.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s%d", base, i)
	}
	return base + strings.ReplaceAll(uuid.NewString(), "-", "")[:5], nil
}

func fetchGoogleUserInfo(ctx context.Context, cfg *oauth2.Config, tok *oauth2.Token) (*OAuthUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	res, err := cfg.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", res.StatusCode)
	}
	var info OAuthUser
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (s *AuthService) audit(ctx context.Context, userID, email, action string, meta RequestMeta, md map[string]any) {
	if s.Audit == nil {
		return
	}
	err := s.Audit.Insert(ctx, entity.AuditLog{
		UserID:    userID,
		Email:     email,
		Action:    action,
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		Metadata:  md,
	})
	if err != nil {
		helpers.LogWarn(s.Logger, "audit insert failed", err, logrus.Fields{"action": action})
	}
}

// withQuery appends key=value to base, respecting an existing query string.
func withQuery(base, key, value string) string {
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + key + "=" + url.QueryEscape(value)
}
