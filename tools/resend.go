package tools

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

var mailTemplates = template.Must(template.New("mail").Parse(`
{{define "confirmation"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #1e40af;">¡Bienvenido/a al Hub Hospitalario!</h1>
  <p>Hola {{.Name}},</p>
  <p>Para completar tu registro confirmá tu dirección de email con el botón de abajo. El enlace vence en una hora.</p>
  <p style="text-align: center; margin: 30px 0;"><a href="{{.URL}}" style="background-color: #1e40af; color: white; padding: 15px 30px; text-decoration: none; border-radius: 8px;">Confirmar Email</a></p>
  <p style="color: #6b7280; font-size: 14px;">Si no solicitaste esta cuenta, podés ignorar este email.</p>
</div>{{end}}
{{define "welcome"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #16a34a;">¡Cuenta confirmada!</h1>
  <p>Hola {{.Name}}, tu cuenta del Hub Hospitalario ya está activa.</p>
  <p><a href="{{.URL}}">Ingresar al Hub</a></p>
</div>{{end}}
{{define "reset"}}<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h1 style="color: #1e40af;">Recuperación de contraseña</h1>
  <p>Hola {{.Name}}, recibimos un pedido para restablecer tu contraseña.</p>
  <p><a href="{{.URL}}">Restablecer contraseña</a></p>
  <p style="color: #6b7280; font-size: 14px;">Si no lo pediste, ignorá este email. El enlace vence en una hora.</p>
</div>{{end}}`))

type mailData struct {
	Name string
	URL  string
}

// ResendMailer sends transactional email through the Resend API. Without an
// API key every send is logged and skipped.
type ResendMailer struct {
	baseURL string
	apiKey  string
	from    string
	appURL  string
	http    *http.Client
	log     zerolog.Logger
}

func NewResendMailer(baseURL, apiKey, from, appURL string, log zerolog.Logger) *ResendMailer {
	return &ResendMailer{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		from:    from,
		appURL:  strings.TrimRight(appURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

func greeting(first, last string) string {
	name := strings.TrimSpace(first + " " + last)
	if name == "" {
		return "Usuario"
	}
	return name
}

func (m *ResendMailer) SendConfirmation(ctx context.Context, email, confirmURL, firstName, lastName string) error {
	name := greeting(firstName, lastName)
	return m.send(ctx, email, fmt.Sprintf("¡Bienvenido/a %s! - Confirma tu cuenta", name), "confirmation", mailData{Name: name, URL: confirmURL})
}

func (m *ResendMailer) SendWelcome(ctx context.Context, email, name string) error {
	return m.send(ctx, email, "¡Tu cuenta ha sido confirmada - Hub Hospitalario", "welcome", mailData{Name: greeting(name, ""), URL: m.appURL + "/login"})
}

func (m *ResendMailer) SendPasswordReset(ctx context.Context, email, resetURL, firstName string) error {
	return m.send(ctx, email, "Recuperación de contraseña - Hub Hospitalario", "reset", mailData{Name: greeting(firstName, ""), URL: resetURL})
}

func (m *ResendMailer) send(ctx context.Context, to, subject, tmpl string, data mailData) error {
	var html bytes.Buffer
	if err := mailTemplates.ExecuteTemplate(&html, tmpl, data); err != nil {
		return err
	}
	if m.apiKey == "" {
		m.log.Warn().Str("to", to).Str("template", tmpl).Msg("resend api key not set, email skipped")
		return nil
	}

	body, err := json.Marshal(map[string]any{
		"from":    m.from,
		"to":      []string{to},
		"subject": subject,
		"html":    html.String(),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("resend error %d: %s", resp.StatusCode, string(b))
	}
	m.log.Info().Str("to", to).Str("template", tmpl).Msg("email sent")
	return nil
}
