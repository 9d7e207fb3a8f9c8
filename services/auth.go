package services

import (
	"context"
	"errors"
	"hash/fnv"
	"net/url"
	"strings"
	"sync"
	"time"

	"hub/config"
	"hub/filter"
	"hub/models"
	"hub/store"
	"hub/tools"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	TOKEN_TYPE_EMAIL_CONFIRMATION = "email_confirmation"
	TOKEN_TYPE_PASSWORD_RESET     = "password_reset"
)

const actionTokenTTL = time.Hour

// Claims is the payload of access tokens and one-off action tokens. Action
// tokens carry a Type and are rejected as access tokens.
type Claims struct {
	Sub     string `json:"sub"`
	Email   string `json:"email,omitempty"`
	Tenant  string `json:"tenant,omitempty"`
	Role    string `json:"role,omitempty"`
	Profile string `json:"profile,omitempty"`
	Session string `json:"sid,omitempty"`
	Type    string `json:"type,omitempty"`
	Version string `json:"ver,omitempty"`
	Iat     int64  `json:"iat"`
	Exp     int64  `json:"exp"`
}

type TokenPair struct {
	AccessToken        string `json:"access_token"`
	AccessExpiresAt    int64  `json:"access_expires_at"`     // unix seconds
	AccessExpiresAtISO string `json:"access_expires_at_iso"` // RFC3339
	RefreshToken       string `json:"refresh_token,omitempty"`
}

type LoginResult struct {
	TokenPair
	User models.User `json:"user"`
}

type SignupInput struct {
	Email     string `json:"email" form:"email"`
	Password  string `json:"password" form:"password"`
	FirstName string `json:"firstName" form:"firstName"`
	LastName  string `json:"lastName" form:"lastName"`
	Phone     string `json:"phone" form:"phone"`
	DNI       string `json:"dni" form:"dni"`
}

type SignupResult struct {
	User      models.User `json:"user"`
	EmailSent bool        `json:"emailSent"`
}

type ProfileInput struct {
	FirstName string `json:"firstName" form:"firstName"`
	LastName  string `json:"lastName" form:"lastName"`
	Phone     string `json:"phone" form:"phone"`
	DNI       string `json:"dni" form:"dni"`
}

type SessionStatus struct {
	SessionID         string `json:"session_id"`
	Profile           string `json:"profile"`
	Remaining         int64  `json:"remaining"` // seconds
	Warning           bool   `json:"warning"`
	WarningSeconds    int64  `json:"warning_seconds"`
	IdleSeconds       int64  `json:"idle_seconds"`
	ExpiresAt         string `json:"expires_at"`
	AbsoluteExpiresAt string `json:"absolute_expires_at"`
}

type AuthService struct {
	store           store.Store
	access          *AccessService
	mailer          Mailer
	audit           Auditor
	secret          string
	accessTTL       time.Duration
	refreshValidity time.Duration
	profiles        map[string]config.SessionProfile
	appURL          string
	now             func() time.Time
	log             zerolog.Logger

	// refreshes of the same token run one at a time, striped by token hash
	refreshLocks [64]sync.Mutex
}

func (s *AuthService) refreshLock(hash string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(hash))
	return &s.refreshLocks[h.Sum32()%uint32(len(s.refreshLocks))]
}

func NewAuthService(st store.Store, access *AccessService, mailer Mailer, audit Auditor, conf config.Configuration, log zerolog.Logger) *AuthService {
	return &AuthService{
		store:           st,
		access:          access,
		mailer:          mailer,
		audit:           audit,
		secret:          conf.Security.JwtSecret,
		accessTTL:       time.Duration(conf.Security.AccessTTLMinutes) * time.Minute,
		refreshValidity: time.Duration(conf.Security.RefreshCodeMaxValid) * 24 * time.Hour,
		profiles: map[string]config.SessionProfile{
			models.SESSION_PROFILE_DEFAULT: conf.Security.DefaultSession,
			models.SESSION_PROFILE_MEDICAL: conf.Security.MedicalSession,
		},
		appURL: strings.TrimRight(conf.AppURL, "/"),
		now:    time.Now,
		log:    log,
	}
}

func (s *AuthService) profile(name string) config.SessionProfile {
	if p, ok := s.profiles[name]; ok {
		return p
	}
	return s.profiles[models.SESSION_PROFILE_DEFAULT]
}

func decodeUser(rec models.Record) (models.User, error) {
	var user models.User
	err := rec.Decode(&user)
	return user, err
}

func (s *AuthService) Login(ctx context.Context, email, password, ip string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, invalid("email y contraseña son obligatorios")
	}

	rec, err := s.store.AuthWithPassword(ctx, email, password)
	if err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			return nil, newError(ErrUnauthorized, "email o contraseña inválidos")
		}
		return nil, err
	}
	user, err := decodeUser(rec)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, forbidden("usuario inactivo")
	}

	access, err := s.access.ResolveUser(ctx, user, "")
	if err != nil {
		return nil, err
	}
	pair, err := s.startSession(ctx, user, access.Profile(), "", "")
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, models.AuditEntry{
		Action:     models.AUDIT_ACTION_LOGIN,
		Resource:   models.COLLECTION_USERS,
		ResourceID: user.ID,
		ActorID:    user.ID,
		IPAddress:  ip,
		Details:    map[string]any{"email": user.Email},
	})
	return &LoginResult{TokenPair: *pair, User: user}, nil
}

// startSession persists a new refresh session and returns the token pair.
func (s *AuthService) startSession(ctx context.Context, user models.User, profile, tenant, role string) (*TokenPair, error) {
	now := s.now()
	limits := s.profile(profile)
	absolute := now.Add(time.Duration(limits.AbsoluteMinutes) * time.Minute)
	if s.refreshValidity > 0 && now.Add(s.refreshValidity).Before(absolute) {
		absolute = now.Add(s.refreshValidity)
	}
	return s.issueSession(ctx, user, models.Session{
		User:            user.ID,
		Profile:         profile,
		Tenant:          tenant,
		Role:            role,
		AbsoluteExpires: models.FormatTime(absolute),
	})
}

func (s *AuthService) issueSession(ctx context.Context, user models.User, sess models.Session) (*TokenPair, error) {
	now := s.now()
	limits := s.profile(sess.Profile)
	refresh := uuid.NewString()

	sess.TokenHash = tools.EncryptTextSHA512(refresh)
	sess.LastSeen = models.FormatTime(now)
	sess.Expires = models.FormatTime(now.Add(time.Duration(limits.IdleMinutes) * time.Minute))
	sess.ID = ""
	rec, err := models.FromStruct(sess)
	if err != nil {
		return nil, err
	}
	delete(rec, "id")
	delete(rec, "created")
	delete(rec, "revoked_at")
	created, err := s.store.Create(ctx, models.COLLECTION_SESSIONS, rec)
	if err != nil {
		return nil, err
	}
	sess.ID = created.ID()

	pair, err := s.signAccess(user, sess)
	if err != nil {
		return nil, err
	}
	pair.RefreshToken = refresh
	return pair, nil
}

// signAccess issues an access token bound to sess. It never outlives the
// session's absolute expiry.
func (s *AuthService) signAccess(user models.User, sess models.Session) (*TokenPair, error) {
	now := s.now()
	exp := now.Add(s.accessTTL)
	if abs := models.ParseTime(sess.AbsoluteExpires); !abs.IsZero() && abs.Before(exp) {
		exp = abs
	}
	token, err := tools.SignHS256JWT(s.secret, Claims{
		Sub:     user.ID,
		Email:   user.Email,
		Tenant:  sess.Tenant,
		Role:    sess.Role,
		Profile: sess.Profile,
		Session: sess.ID,
		Iat:     now.Unix(),
		Exp:     exp.Unix(),
	})
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:        token,
		AccessExpiresAt:    exp.Unix(),
		AccessExpiresAtISO: exp.UTC().Format(time.RFC3339),
	}, nil
}

func (s *AuthService) session(ctx context.Context, id string) (models.Session, error) {
	var sess models.Session
	if id == "" {
		return sess, newError(ErrUnauthorized, "sesión inválida")
	}
	rec, err := s.store.Get(ctx, models.COLLECTION_SESSIONS, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return sess, newError(ErrUnauthorized, "sesión inválida")
		}
		return sess, err
	}
	err = rec.Decode(&sess)
	return sess, err
}

func (s *AuthService) revoke(ctx context.Context, id string) error {
	_, err := s.store.Update(ctx, models.COLLECTION_SESSIONS, id, models.Record{"revoked_at": models.FormatTime(s.now())})
	return err
}

// Authenticate verifies an access token and its session and returns the
// claims with the current user.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Claims, models.User, error) {
	var claims Claims
	if err := tools.VerifyHS256JWT(token, s.secret, s.now(), &claims); err != nil {
		if errors.Is(err, tools.ErrTokenExpired) {
			return nil, models.User{}, newError(ErrUnauthorized, "token expirado")
		}
		return nil, models.User{}, newError(ErrUnauthorized, "token inválido")
	}
	if claims.Type != "" || claims.Sub == "" {
		return nil, models.User{}, newError(ErrUnauthorized, "token inválido")
	}

	sess, err := s.session(ctx, claims.Session)
	if err != nil {
		return nil, models.User{}, err
	}
	if sess.IsRevoked() || sess.IsExpired(s.now()) || sess.User != claims.Sub {
		return nil, models.User{}, newError(ErrUnauthorized, "sesión expirada")
	}

	user, err := s.access.loadUser(ctx, claims.Sub)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, models.User{}, newError(ErrUnauthorized, "usuario no encontrado")
		}
		return nil, models.User{}, err
	}
	return &claims, user, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued for the same session limits and workspace.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, invalid("refresh_token es obligatorio")
	}
	hash := tools.EncryptTextSHA512(refreshToken)
	lock := s.refreshLock(hash)
	lock.Lock()
	defer lock.Unlock()

	rec, err := s.store.First(ctx, models.COLLECTION_SESSIONS, filter.Eq("token_hash", hash))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(ErrUnauthorized, "refresh token inválido")
		}
		return nil, err
	}
	var sess models.Session
	if err := rec.Decode(&sess); err != nil {
		return nil, err
	}
	if sess.IsRevoked() {
		return nil, newError(ErrUnauthorized, "refresh token inválido")
	}
	if sess.IsExpired(s.now()) {
		if err := s.revoke(ctx, sess.ID); err != nil {
			s.log.Warn().Err(err).Str("session", sess.ID).Msg("revoke expired session")
		}
		return nil, newError(ErrUnauthorized, "sesión expirada")
	}
	if err := s.revoke(ctx, sess.ID); err != nil {
		return nil, err
	}

	user, err := s.access.loadUser(ctx, sess.User)
	if err != nil {
		return nil, translate(err, "usuario")
	}
	if !user.Active {
		return nil, forbidden("usuario inactivo")
	}
	return s.issueSession(ctx, user, models.Session{
		User:            sess.User,
		Profile:         sess.Profile,
		Tenant:          sess.Tenant,
		Role:            sess.Role,
		AbsoluteExpires: sess.AbsoluteExpires,
	})
}

func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return translate(s.revoke(ctx, sessionID), "sesión")
}

// RevokeUserSessions ends every open session of userID.
func (s *AuthService) RevokeUserSessions(ctx context.Context, userID string) error {
	open, err := s.store.FullList(ctx, models.COLLECTION_SESSIONS, store.Query{
		Filter: filter.And(filter.Eq("user", userID), filter.Eq("revoked_at", "")),
	})
	if err != nil {
		return err
	}
	for _, rec := range open {
		if err := s.revoke(ctx, rec.ID()); err != nil {
			return err
		}
	}
	return nil
}

func (s *AuthService) status(sess models.Session) SessionStatus {
	limits := s.profile(sess.Profile)
	deadline := sess.Deadline()
	remaining := int64(deadline.Sub(s.now()).Seconds())
	if remaining < 0 {
		remaining = 0
	}
	warning := int64(limits.WarningMinutes) * 60
	return SessionStatus{
		SessionID:         sess.ID,
		Profile:           sess.Profile,
		Remaining:         remaining,
		Warning:           remaining <= warning,
		WarningSeconds:    warning,
		IdleSeconds:       int64(limits.IdleMinutes) * 60,
		ExpiresAt:         sess.Expires,
		AbsoluteExpiresAt: sess.AbsoluteExpires,
	}
}

func (s *AuthService) SessionStatus(ctx context.Context, sessionID string) (*SessionStatus, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsRevoked() {
		return nil, newError(ErrUnauthorized, "sesión expirada")
	}
	st := s.status(sess)
	return &st, nil
}

// ExtendSession records activity, pushing the idle deadline forward up to the
// absolute limit.
func (s *AuthService) ExtendSession(ctx context.Context, sessionID string) (*SessionStatus, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if sess.IsRevoked() || sess.IsExpired(now) {
		return nil, newError(ErrUnauthorized, "sesión expirada")
	}
	limits := s.profile(sess.Profile)
	sess.LastSeen = models.FormatTime(now)
	sess.Expires = models.FormatTime(now.Add(time.Duration(limits.IdleMinutes) * time.Minute))
	if _, err := s.store.Update(ctx, models.COLLECTION_SESSIONS, sess.ID, models.Record{
		"last_seen": sess.LastSeen,
		"expires":   sess.Expires,
	}); err != nil {
		return nil, err
	}
	st := s.status(sess)
	return &st, nil
}

// SelectWorkspace binds the session to a tenant and role and re-issues the
// access token.
func (s *AuthService) SelectWorkspace(ctx context.Context, user models.User, sessionID, tenantID, roleID string) (*TokenPair, error) {
	sess, err := s.session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.IsRevoked() || sess.IsExpired(s.now()) {
		return nil, newError(ErrUnauthorized, "sesión expirada")
	}
	sess.Tenant, sess.Role = tenantID, roleID
	if _, err := s.store.Update(ctx, models.COLLECTION_SESSIONS, sess.ID, models.Record{"tenant": tenantID, "role": roleID}); err != nil {
		return nil, err
	}
	return s.signAccess(user, sess)
}

func (s *AuthService) actionToken(user models.User, kind string) (string, error) {
	now := s.now()
	return tools.SignHS256JWT(s.secret, Claims{
		Sub:     user.ID,
		Email:   user.Email,
		Type:    kind,
		Version: user.Updated,
		Iat:     now.Unix(),
		Exp:     now.Add(actionTokenTTL).Unix(),
	})
}

func (s *AuthService) verifyActionToken(token, kind string) (*Claims, error) {
	var claims Claims
	if err := tools.VerifyHS256JWT(token, s.secret, s.now(), &claims); err != nil {
		if errors.Is(err, tools.ErrTokenExpired) {
			return nil, invalid("el enlace expiró")
		}
		return nil, invalid("enlace inválido")
	}
	if claims.Type != kind || claims.Sub == "" {
		return nil, invalid("enlace inválido")
	}
	return &claims, nil
}

func (s *AuthService) sendConfirmation(ctx context.Context, user models.User) bool {
	token, err := s.actionToken(user, TOKEN_TYPE_EMAIL_CONFIRMATION)
	if err != nil {
		s.log.Error().Err(err).Str("user", user.ID).Msg("sign confirmation token")
		return false
	}
	link := s.appURL + "/auth/confirm?token=" + url.QueryEscape(token)
	if err := s.mailer.SendConfirmation(ctx, user.Email, link, user.FirstName, user.LastName); err != nil {
		s.log.Error().Err(err).Str("user", user.ID).Msg("send confirmation email")
		return false
	}
	return true
}

// Signup creates an unverified account and mails the confirmation link.
// A failed email does not fail the signup.
func (s *AuthService) Signup(ctx context.Context, in SignupInput, ip string) (*SignupResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if !tools.ValidateEmail(in.Email) {
		return nil, invalid("email inválido")
	}
	if msg := tools.CheckPassword(in.Password); msg != "" {
		return nil, invalid(msg)
	}
	if in.FirstName == "" || in.LastName == "" {
		return nil, invalid("nombre y apellido son obligatorios")
	}

	rec, err := s.store.Create(ctx, models.COLLECTION_USERS, models.Record{
		"email":           in.Email,
		"emailVisibility": true,
		"password":        in.Password,
		"passwordConfirm": in.Password,
		"firstName":       in.FirstName,
		"lastName":        in.LastName,
		"name":            in.FirstName + " " + in.LastName,
		"phone":           in.Phone,
		"dni":             in.DNI,
		"active":          true,
		"verified":        false,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, newError(ErrConflict, "ya existe una cuenta con ese email")
		}
		return nil, err
	}
	user, err := decodeUser(rec)
	if err != nil {
		return nil, err
	}

	s.audit.Log(ctx, models.AuditEntry{
		Action:     models.AUDIT_ACTION_CREATE,
		Resource:   models.COLLECTION_USERS,
		ResourceID: user.ID,
		ActorID:    user.ID,
		IPAddress:  ip,
		Details:    map[string]any{"signup": true, "email": user.Email},
	})
	return &SignupResult{User: user, EmailSent: s.sendConfirmation(ctx, user)}, nil
}

// ConfirmEmail marks the account verified. Confirming twice is not an error.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (models.User, error) {
	claims, err := s.verifyActionToken(token, TOKEN_TYPE_EMAIL_CONFIRMATION)
	if err != nil {
		return models.User{}, err
	}
	user, err := s.access.loadUser(ctx, claims.Sub)
	if err != nil {
		return models.User{}, err
	}
	if user.Verified {
		return user, nil
	}
	rec, err := s.store.Update(ctx, models.COLLECTION_USERS, user.ID, models.Record{"verified": true})
	if err != nil {
		return models.User{}, err
	}
	if user, err = decodeUser(rec); err != nil {
		return models.User{}, err
	}
	if err := s.mailer.SendWelcome(ctx, user.Email, user.FullName()); err != nil {
		s.log.Error().Err(err).Str("user", user.ID).Msg("send welcome email")
	}
	return user, nil
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (models.User, error) {
	rec, err := s.store.First(ctx, models.COLLECTION_USERS, filter.Eq("email", strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		return models.User{}, translate(err, "usuario")
	}
	return decodeUser(rec)
}

// ResendConfirmation mails a new link. Unknown emails succeed silently.
func (s *AuthService) ResendConfirmation(ctx context.Context, email string) error {
	user, err := s.findByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if user.Verified {
		return invalid("la cuenta ya está confirmada")
	}
	if !s.sendConfirmation(ctx, user) {
		return errors.New("no se pudo enviar el email de confirmación")
	}
	return nil
}

// ForgotPassword asks the store to send its reset email. Backends without one
// get a signed reset link through the mailer. Unknown emails succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	if !tools.ValidateEmail(strings.TrimSpace(email)) {
		return invalid("email inválido")
	}
	err := s.store.RequestPasswordReset(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err == nil || !errors.Is(err, store.ErrUnsupported) {
		return err
	}

	user, err := s.findByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	token, err := s.actionToken(user, TOKEN_TYPE_PASSWORD_RESET)
	if err != nil {
		return err
	}
	link := s.appURL + "/auth/reset-password?token=" + url.QueryEscape(token)
	return s.mailer.SendPasswordReset(ctx, user.Email, link, user.FirstName)
}

// ResetPassword consumes a reset token. The token is bound to the user's
// last update, so it works once.
func (s *AuthService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	claims, err := s.verifyActionToken(token, TOKEN_TYPE_PASSWORD_RESET)
	if err != nil {
		return err
	}
	if msg := tools.CheckPassword(password); msg != "" {
		return invalid(msg)
	}
	if password != confirm {
		return invalid("las contraseñas no coinciden")
	}
	user, err := s.access.loadUser(ctx, claims.Sub)
	if err != nil {
		return err
	}
	if user.Updated != claims.Version {
		return invalid("el enlace ya fue utilizado")
	}
	if _, err := s.store.Update(ctx, models.COLLECTION_USERS, user.ID, models.Record{
		"password":        password,
		"passwordConfirm": confirm,
	}); err != nil {
		return err
	}
	return s.RevokeUserSessions(ctx, user.ID)
}

// ChangePassword verifies the current password before replacing it.
func (s *AuthService) ChangePassword(ctx context.Context, actor Actor, user models.User, current, password, confirm string) error {
	if current == "" {
		return invalid("la contraseña actual es obligatoria")
	}
	if msg := tools.CheckPassword(password); msg != "" {
		return invalid(msg)
	}
	if password != confirm {
		return invalid("las contraseñas no coinciden")
	}
	if _, err := s.store.AuthWithPassword(ctx, user.Email, current); err != nil {
		if errors.Is(err, store.ErrInvalidCredentials) {
			return invalid("la contraseña actual es incorrecta")
		}
		return err
	}
	if _, err := s.store.Update(ctx, models.COLLECTION_USERS, user.ID, models.Record{
		"oldPassword":     current,
		"password":        password,
		"passwordConfirm": confirm,
	}); err != nil {
		return err
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_UPDATE, models.COLLECTION_USERS, user.ID, map[string]any{"field": "password"}))
	return nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (models.User, error) {
	return s.access.loadUser(ctx, userID)
}

func (s *AuthService) UpdateProfile(ctx context.Context, actor Actor, userID string, in ProfileInput) (models.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	if in.FirstName == "" || in.LastName == "" {
		return models.User{}, invalid("nombre y apellido son obligatorios")
	}
	rec, err := s.store.Update(ctx, models.COLLECTION_USERS, userID, models.Record{
		"firstName": in.FirstName,
		"lastName":  in.LastName,
		"name":      in.FirstName + " " + in.LastName,
		"phone":     strings.TrimSpace(in.Phone),
		"dni":       strings.TrimSpace(in.DNI),
	})
	if err != nil {
		return models.User{}, translate(err, "usuario")
	}
	s.audit.Log(ctx, actor.entry(models.AUDIT_ACTION_UPDATE, models.COLLECTION_USERS, userID, map[string]any{"profile": true}))
	return decodeUser(rec)
}
