package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"EPESPO-inventario/internal/domain"
	"EPESPO-inventario/internal/platform/apierr"
	"EPESPO-inventario/internal/platform/backend"
	"EPESPO-inventario/internal/platform/session"
	"EPESPO-inventario/internal/textnorm"
	"EPESPO-inventario/internal/usuarios"
)

// Upstream is the part of the backend client the login flow needs.
type Upstream interface {
	Login(ctx context.Context, email, password string) (backend.LoginResult, error)
	Logout(ctx context.Context) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, r backend.PasswordReset) error
}

type Service struct {
	up       Upstream
	sessions *session.Store
	log      logrus.FieldLogger
}

func NewService(up Upstream, sessions *session.Store, log logrus.FieldLogger) *Service {
	return &Service{up: up, sessions: sessions, log: log}
}

// Grant is a successful sign-in: the gateway token the caller sends back as
// a bearer token, and who it belongs to.
type Grant struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Login validates the form, exchanges the credentials for an upstream token
// and opens a session for this caller only.
func (s *Service) Login(ctx context.Context, email, password string) (Grant, error) {
	email = textnorm.Email(email)
	if errs := usuarios.ValidateLogin(email, password); !errs.OK() {
		return Grant{}, apierr.Validation(errs)
	}

	res, err := s.up.Login(ctx, email, password)
	if err != nil {
		return Grant{}, loginError(err)
	}
	if res.AccessToken == "" {
		return Grant{}, apierr.Unavailable("Error al iniciar sesión")
	}

	token, _, err := s.sessions.Open(res.AccessToken, res.User)
	if err != nil {
		s.log.WithError(err).Error("open session")
		return Grant{}, apierr.Internal("Error al iniciar sesión")
	}
	s.log.WithFields(logrus.Fields{"user_id": res.User.ID, "rol": res.User.Role}).Info("session started")
	return Grant{Token: token, User: res.User}, nil
}

// Current returns the user behind token, if the session is still good.
func (s *Service) Current(token string) (domain.User, bool) {
	sess, ok := s.sessions.Lookup(token)
	if !ok || sess.Expired() {
		return domain.User{}, false
	}
	return sess.User()
}

func loginError(err error) error {
	var re *backend.RemoteError
	if !errors.As(err, &re) {
		return apierr.Unavailable("No hay conexión con el servidor")
	}
	switch re.Status {
	case http.StatusUnauthorized:
		return apierr.Unauthorized(orDefault(re.Message, "Credenciales incorrectas"))
	case http.StatusForbidden:
		return apierr.Forbidden(orDefault(re.Message, "Usuario inactivo. Contacte al administrador"))
	default:
		return apierr.Unavailable("Error al iniciar sesión")
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// Logout ends the caller's session even when the backend cannot be
// reached. ctx must carry that session so the upstream token is revoked.
// The returned message tells the operator what happened upstream.
func (s *Service) Logout(ctx context.Context, token string) string {
	err := s.up.Logout(ctx)
	s.sessions.Close(token)
	if err == nil {
		return "Sesión cerrada"
	}

	s.log.WithError(err).Warn("logout upstream failed")
	var re *backend.RemoteError
	if errors.As(err, &re) && re.Status == http.StatusUnauthorized {
		return "Sesión vencida. Cerrando sesión..."
	}
	return "No se pudo contactar al servidor. Cerrando sesión..."
}

// ForgotPassword asks the backend to email a reset code.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = textnorm.Email(email)
	if errs := usuarios.ValidateRecoveryEmail(email); !errs.OK() {
		return apierr.Validation(errs)
	}
	if err := s.up.ForgotPassword(ctx, email); err != nil {
		return recoveryError(err, "Error al enviar solicitud", "correo")
	}
	return nil
}

func (s *Service) ResetPassword(ctx context.Context, r usuarios.PasswordReset) error {
	r.Email = textnorm.Email(r.Email)
	if errs := usuarios.ValidatePasswordReset(r); !errs.OK() {
		return apierr.Validation(errs)
	}
	err := s.up.ResetPassword(ctx, backend.PasswordReset{
		Email:        r.Email,
		Code:         r.Code,
		Password:     r.Password,
		Confirmation: r.Confirmation,
	})
	if err != nil {
		return recoveryError(err, "Error al restablecer contraseña", "correo", "code", "contrasena")
	}
	return nil
}

// recoveryError prefers the server message, then the first field error.
func recoveryError(err error, fallback string, fields ...string) error {
	var re *backend.RemoteError
	if !errors.As(err, &re) {
		return apierr.Unavailable("No hay conexión con el servidor")
	}
	msg := re.Message
	for _, f := range fields {
		if msg != "" {
			break
		}
		msg = re.FieldError(f)
	}
	if msg == "" {
		msg = fallback
	}
	if re.Status >= 500 {
		return apierr.Unavailable(msg)
	}
	return apierr.Invalid(msg)
}
