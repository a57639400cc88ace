// Package notifications sends alert digests by email. Delivery here is
// best-effort: a failed send is logged by the caller and never blocks ledger
// recording.
package notifications

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/pkg/errors"

	"github.com/jcastillo/inmoalert/internal/config"
	"github.com/jcastillo/inmoalert/internal/entities"
)

var digestTemplate = template.Must(template.New("digest").Parse(`<html>
<body>
<p>Encontramos {{len .NewListings}} avisos nuevos para tu búsqueda.</p>
{{range .NewListings}}
<div>
  <p><a href="{{.CanonicalURL}}">{{.Title}}</a></p>
  <p>{{.Currency}} {{.Price}}{{if .Neighborhood}} — {{.Neighborhood}}{{end}}</p>
</div>
{{end}}
<p>Se revisaron {{.TotalScraped}} avisos en {{len .SourcesSearched}} portales.</p>
</body>
</html>`))

var noResultsTemplate = template.Must(template.New("noResults").Parse(`<html>
<body>
<p>Hoy no encontramos avisos nuevos para tu búsqueda.</p>
<p>Portales revisados: {{len .SourcesSearched}}.</p>
</body>
</html>`))

type sendMailFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

type EmailNotifier struct {
	cfg      config.NotifierConfig
	sendMail sendMailFunc
}

func NewEmailNotifier(cfg config.NotifierConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, sendMail: smtp.SendMail}
}

func (n *EmailNotifier) SetSendMail(fn sendMailFunc) {
	n.sendMail = fn
}

func (n *EmailNotifier) SendDigest(_ context.Context, digest Digest) error {

	var body bytes.Buffer
	if err := digestTemplate.Execute(&body, digest); err != nil {
		return errors.Wrap(err, "render digest")
	}

	subject := fmt.Sprintf("%d avisos nuevos para tu alerta", len(digest.NewListings))
	return n.send(digest.Recipient, subject, body.Bytes())
}

func (n *EmailNotifier) SendNoResults(_ context.Context, recipient string, sourcesSearched []entities.Source) error {

	var body bytes.Buffer
	data := struct{ SourcesSearched []entities.Source }{sourcesSearched}
	if err := noResultsTemplate.Execute(&body, data); err != nil {
		return errors.Wrap(err, "render no-results")
	}

	return n.send(recipient, "Sin avisos nuevos hoy", body.Bytes())
}

func (n *EmailNotifier) send(recipient, subject string, body []byte) error {

	headers := []string{
		"From: " + n.cfg.From,
		"To: " + recipient,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
	}
	msg := []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + string(body))

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	if err := n.sendMail(addr, auth, n.cfg.From, []string{recipient}, msg); err != nil {
		return errors.Wrapf(err, "send mail to %v", recipient)
	}
	return nil
}
