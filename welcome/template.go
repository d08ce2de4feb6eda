package welcome

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/pure-golang/moviehub-mailer/mail"
)

const (
	SenderName = "MovieHub"
	Subject    = "Welcome to MovieHub! 🎬"
)

const plainTemplate = `Welcome to MovieHub, %s!

We're excited to have you join our movie community!

Start exploring movies and build your watchlist today.

Happy watching!
- The MovieHub Team
`

var htmlTemplate = template.Must(template.New("welcome").Parse(`<html>
<body style="font-family: Arial, sans-serif; padding: 20px; background: #f0f0f0;">
    <div style="max-width: 600px; margin: 0 auto; background: white; padding: 30px; border-radius: 10px;">
        <h1 style="color: #e94560; text-align: center;">🎬 Welcome to MovieHub!</h1>
        <h2>Hello {{.Name}}! 👋</h2>
        <p>We're excited to have you join our movie community!</p>
        <p>Start exploring movies and build your watchlist today.</p>
        <br>
        <p><strong>Happy watching! 🍿</strong></p>
        <p><em>- The MovieHub Team</em></p>
    </div>
</body>
</html>
`))

// Compose builds the welcome email for name at address, sent from sender.
func Compose(sender, name, address string) (mail.Email, error) {
	var html bytes.Buffer
	if err := htmlTemplate.Execute(&html, struct{ Name string }{Name: name}); err != nil {
		return mail.Email{}, errors.Wrap(err, "failed to render html body")
	}

	return mail.Email{
		From:    mail.Address{Name: SenderName, Address: sender},
		To:      []mail.Address{{Address: address}},
		Subject: Subject,
		Headers: map[string]string{
			"Message-ID": messageID(sender),
		},
		Body: fmt.Sprintf(plainTemplate, name),
		HTML: html.String(),
	}, nil
}

// messageID returns a unique Message-ID under the sender's domain.
func messageID(sender string) string {
	domain := "moviehub.local"
	if i := strings.LastIndexByte(sender, '@'); i >= 0 && i < len(sender)-1 {
		domain = sender[i+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.NewString(), domain)
}
