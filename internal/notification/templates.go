package notification

import (
	"fmt"
	"html/template"
	"strings"

	dErrors "gatekey/pkg/domain-errors"
)

var confirmTmpl = template.Must(template.New("confirm").Parse(`<html>
<body>
<p>Hello {{.Username}},</p>
<p>Please confirm your account by following the link below:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>If you did not sign up, you can safely ignore this message.</p>
</body>
</html>`))

var recoverTmpl = template.Must(template.New("recover").Parse(`<html>
<body>
<p>Hello {{.Username}},</p>
<p>A password recovery was requested for your account. Follow the link below to continue:</p>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<p>If you did not request this, you can safely ignore this message.</p>
</body>
</html>`))

type templateData struct {
	Username string
	Link     string
}

// ConfirmMessage renders the account-confirmation email. The link lands on
// the caller-supplied origin, which must already have passed the accepted
// origin policy.
func ConfirmMessage(origin, username, check string) (Message, error) {
	link := joinLink(origin, "security/confirm", check)
	html, err := render(confirmTmpl, templateData{Username: username, Link: link})
	if err != nil {
		return Message{}, err
	}
	return Message{To: username, Subject: "Confirm your account", HTML: html}, nil
}

// RecoverMessage renders the password-recovery email.
func RecoverMessage(origin, username, check string) (Message, error) {
	link := joinLink(origin, "security/recover", check)
	html, err := render(recoverTmpl, templateData{Username: username, Link: link})
	if err != nil {
		return Message{}, err
	}
	return Message{To: username, Subject: "Recover your password", HTML: html}, nil
}

func joinLink(origin, path, check string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(origin, "/"), path, check)
}

func render(t *template.Template, data templateData) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "render mail template")
	}
	return b.String(), nil
}
