package services

import (
	"net/url"
	"sync"
	"testing"
	"time"

	"hub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

func TestAuth_Login(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "ana@hospital.org", "secret123", nil)

	res, err := env.svc.Auth.Login(env.ctx, " ANA@hospital.org ", "secret123", "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, res.User.ID)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)

	entry := env.audit.last()
	assert.Equal(t, models.AUDIT_ACTION_LOGIN, entry.Action)
	assert.Equal(t, "10.0.0.1", entry.IPAddress)

	claims, current, err := env.svc.Auth.Authenticate(env.ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.Sub)
	assert.Equal(t, models.SESSION_PROFILE_DEFAULT, claims.Profile)
	assert.Equal(t, user.Email, current.Email)

	_, err = env.svc.Auth.Login(env.ctx, "ana@hospital.org", "wrong-pass", "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = env.svc.Auth.Login(env.ctx, "", "", "")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestAuth_LoginInactiveUser(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "off@hospital.org", "secret123", models.Record{"active": false})

	_, err := env.svc.Auth.Login(env.ctx, "off@hospital.org", "secret123", "")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuth_RefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "ana@hospital.org", "secret123", nil)
	res, err := env.svc.Auth.Login(env.ctx, "ana@hospital.org", "secret123", "")
	require.NoError(t, err)

	pair, err := env.svc.Auth.Refresh(env.ctx, res.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, res.RefreshToken, pair.RefreshToken)

	_, err = env.svc.Auth.Refresh(env.ctx, res.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = env.svc.Auth.Authenticate(env.ctx, res.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized, "old session is revoked")

	_, _, err = env.svc.Auth.Authenticate(env.ctx, pair.AccessToken)
	assert.NoError(t, err)

	_, err = env.svc.Auth.Refresh(env.ctx, "")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestAuth_ConcurrentRefreshUsesTokenOnce(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "ana@hospital.org", "secret123", nil)
	res, err := env.svc.Auth.Login(env.ctx, "ana@hospital.org", "secret123", "")
	require.NoError(t, err)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.Auth.Refresh(env.ctx, res.RefreshToken)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, ErrUnauthorized)
	}
	assert.Equal(t, 1, succeeded)

	live, err := env.st.FullList(env.ctx, models.COLLECTION_SESSIONS, storeQueryAll())
	require.NoError(t, err)
	open := 0
	for _, rec := range live {
		if rec.String("revoked_at") == "" {
			open++
		}
	}
	assert.Equal(t, 1, open, "only the rotated session stays open")
}

func TestAuth_IdleTimeout(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "ana@hospital.org", "secret123", nil)
	start := time.Now().Truncate(time.Second)
	env.svc.Auth.now = func() time.Time { return start }

	res, err := env.svc.Auth.Login(env.ctx, "ana@hospital.org", "secret123", "")
	require.NoError(t, err)
	claims, _, err := env.svc.Auth.Authenticate(env.ctx, res.AccessToken)
	require.NoError(t, err)

	env.svc.Auth.now = func() time.Time { return start.Add(117 * time.Minute) }
	status, err := env.svc.Auth.SessionStatus(env.ctx, claims.Session)
	require.NoError(t, err)
	assert.True(t, status.Warning)
	assert.Equal(t, int64(300), status.WarningSeconds)
	assert.Equal(t, int64(7200), status.IdleSeconds)

	extended, err := env.svc.Auth.ExtendSession(env.ctx, claims.Session)
	require.NoError(t, err)
	assert.False(t, extended.Warning)
	assert.Equal(t, int64(7200), extended.Remaining)

	env.svc.Auth.now = func() time.Time { return start.Add(117*time.Minute + 121*time.Minute) }
	_, err = env.svc.Auth.Refresh(env.ctx, res.RefreshToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuth_AbsoluteTimeoutSurvivesExtend(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "ana@hospital.org", "secret123", nil)
	start := time.Now().Truncate(time.Second)
	env.svc.Auth.now = func() time.Time { return start }

	res, err := env.svc.Auth.Login(env.ctx, "ana@hospital.org", "secret123", "")
	require.NoError(t, err)
	claims, _, err := env.svc.Auth.Authenticate(env.ctx, res.AccessToken)
	require.NoError(t, err)

	for _, m := range []int{100, 200, 300, 400} {
		env.svc.Auth.now = func() time.Time { return start.Add(time.Duration(m) * time.Minute) }
		_, err := env.svc.Auth.ExtendSession(env.ctx, claims.Session)
		require.NoError(t, err)
	}

	env.svc.Auth.now = func() time.Time { return start.Add(470 * time.Minute) }
	status, err := env.svc.Auth.SessionStatus(env.ctx, claims.Session)
	require.NoError(t, err)
	assert.Equal(t, int64(600), status.Remaining)

	env.svc.Auth.now = func() time.Time { return start.Add(481 * time.Minute) }
	_, err = env.svc.Auth.ExtendSession(env.ctx, claims.Session)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuth_MedicalProfile(t *testing.T) {
	env := newTestEnv(t)
	doctor := env.user(t, "doc@hospital.org", "secret123", nil)
	env.assign(t, doctor, env.role(t, "Medico", 30), "")

	res, err := env.svc.Auth.Login(env.ctx, "doc@hospital.org", "secret123", "")
	require.NoError(t, err)
	claims, _, err := env.svc.Auth.Authenticate(env.ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.SESSION_PROFILE_MEDICAL, claims.Profile)

	status, err := env.svc.Auth.SessionStatus(env.ctx, claims.Session)
	require.NoError(t, err)
	assert.Equal(t, int64(180*60), status.IdleSeconds)
	assert.Equal(t, int64(600), status.WarningSeconds)
}

func TestAuth_Logout(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "ana@hospital.org", "secret123", nil)
	res, err := env.svc.Auth.Login(env.ctx, "ana@hospital.org", "secret123", "")
	require.NoError(t, err)
	claims, _, err := env.svc.Auth.Authenticate(env.ctx, res.AccessToken)
	require.NoError(t, err)

	require.NoError(t, env.svc.Auth.Logout(env.ctx, claims.Session))
	_, _, err = env.svc.Auth.Authenticate(env.ctx, res.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = env.svc.Auth.SessionStatus(env.ctx, claims.Session)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuth_SignupAndConfirm(t *testing.T) {
	env := newTestEnv(t)
	res, err := env.svc.Auth.Signup(env.ctx, SignupInput{
		Email: "New@Hospital.org", Password: "secret123", FirstName: "Luz", LastName: "Gómez",
	}, "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, res.EmailSent)
	assert.Equal(t, "new@hospital.org", res.User.Email)
	assert.True(t, res.User.Active)
	assert.False(t, res.User.Verified)

	mail, ok := env.mail.lastOf("confirmation")
	require.True(t, ok)
	assert.Contains(t, mail.link, "http://hub.test/auth/confirm?token=")

	_, err = env.svc.Auth.Signup(env.ctx, SignupInput{
		Email: "new@hospital.org", Password: "secret123", FirstName: "Luz", LastName: "Gómez",
	}, "")
	assert.ErrorIs(t, err, ErrConflict)

	token := tokenFromLink(t, mail.link)
	user, err := env.svc.Auth.ConfirmEmail(env.ctx, token)
	require.NoError(t, err)
	assert.True(t, user.Verified)
	_, ok = env.mail.lastOf("welcome")
	assert.True(t, ok)

	again, err := env.svc.Auth.ConfirmEmail(env.ctx, token)
	require.NoError(t, err)
	assert.True(t, again.Verified)

	assert.ErrorIs(t, env.svc.Auth.ResendConfirmation(env.ctx, "new@hospital.org"), ErrInvalid)
	assert.NoError(t, env.svc.Auth.ResendConfirmation(env.ctx, "nobody@hospital.org"))
}

func TestAuth_SignupValidation(t *testing.T) {
	env := newTestEnv(t)
	cases := []SignupInput{
		{Email: "bad", Password: "secret123", FirstName: "a", LastName: "b"},
		{Email: "a@b.org", Password: "short", FirstName: "a", LastName: "b"},
		{Email: "a@b.org", Password: "secret123"},
	}
	for _, in := range cases {
		_, err := env.svc.Auth.Signup(env.ctx, in, "")
		assert.ErrorIs(t, err, ErrInvalid)
	}
}

func TestAuth_ActionTokensAreNotAccessTokens(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Auth.Signup(env.ctx, SignupInput{
		Email: "new@hospital.org", Password: "secret123", FirstName: "Luz", LastName: "Paz",
	}, "")
	require.NoError(t, err)
	mail, _ := env.mail.lastOf("confirmation")

	_, _, err = env.svc.Auth.Authenticate(env.ctx, tokenFromLink(t, mail.link))
	assert.ErrorIs(t, err, ErrUnauthorized)

	assert.ErrorIs(t, env.svc.Auth.ResetPassword(env.ctx, tokenFromLink(t, mail.link), "another123", "another123"), ErrInvalid)
}

func TestAuth_ForgotAndResetPassword(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "ana@hospital.org", "secret123", nil)
	login, err := env.svc.Auth.Login(env.ctx, "ana@hospital.org", "secret123", "")
	require.NoError(t, err)

	require.NoError(t, env.svc.Auth.ForgotPassword(env.ctx, "ana@hospital.org"))
	assert.NoError(t, env.svc.Auth.ForgotPassword(env.ctx, "ghost@hospital.org"))
	assert.ErrorIs(t, env.svc.Auth.ForgotPassword(env.ctx, "not-an-email"), ErrInvalid)

	mail, ok := env.mail.lastOf("reset")
	require.True(t, ok)
	assert.Equal(t, "ana@hospital.org", mail.email)
	token := tokenFromLink(t, mail.link)

	assert.ErrorIs(t, env.svc.Auth.ResetPassword(env.ctx, token, "newpass123", "different1"), ErrInvalid)
	require.NoError(t, env.svc.Auth.ResetPassword(env.ctx, token, "newpass123", "newpass123"))

	_, err = env.svc.Auth.Login(env.ctx, "ana@hospital.org", "newpass123", "")
	assert.NoError(t, err)
	_, _, err = env.svc.Auth.Authenticate(env.ctx, login.AccessToken)
	assert.ErrorIs(t, err, ErrUnauthorized, "sessions are revoked after a reset")

	assert.ErrorIs(t, env.svc.Auth.ResetPassword(env.ctx, token, "third1234", "third1234"), ErrInvalid, "token is single use")
}

func TestAuth_ResetTokenExpires(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "ana@hospital.org", "secret123", nil)
	start := time.Now().Truncate(time.Second)
	env.svc.Auth.now = func() time.Time { return start }
	require.NoError(t, env.svc.Auth.ForgotPassword(env.ctx, "ana@hospital.org"))
	mail, _ := env.mail.lastOf("reset")

	env.svc.Auth.now = func() time.Time { return start.Add(61 * time.Minute) }
	err := env.svc.Auth.ResetPassword(env.ctx, tokenFromLink(t, mail.link), "newpass123", "newpass123")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestAuth_ChangePassword(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "ana@hospital.org", "secret123", nil)
	actor := Actor{UserID: user.ID}

	assert.ErrorIs(t, env.svc.Auth.ChangePassword(env.ctx, actor, user, "wrong-pass", "newpass123", "newpass123"), ErrInvalid)
	assert.ErrorIs(t, env.svc.Auth.ChangePassword(env.ctx, actor, user, "secret123", "newpass123", "nope12345"), ErrInvalid)
	require.NoError(t, env.svc.Auth.ChangePassword(env.ctx, actor, user, "secret123", "newpass123", "newpass123"))

	_, err := env.svc.Auth.Login(env.ctx, "ana@hospital.org", "secret123", "")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = env.svc.Auth.Login(env.ctx, "ana@hospital.org", "newpass123", "")
	assert.NoError(t, err)
}

func TestAuth_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "ana@hospital.org", "secret123", nil)

	updated, err := env.svc.Auth.UpdateProfile(env.ctx, Actor{UserID: user.ID}, user.ID, ProfileInput{FirstName: " Ana María ", LastName: "Paz", Phone: "123"})
	require.NoError(t, err)
	assert.Equal(t, "Ana María Paz", updated.Name)
	assert.Equal(t, "123", updated.Phone)

	_, err = env.svc.Auth.UpdateProfile(env.ctx, Actor{}, user.ID, ProfileInput{FirstName: "Ana"})
	assert.ErrorIs(t, err, ErrInvalid)
}
