package smtp

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/textproto"
	"testing"
	"time"

	gomail "github.com/go-mail/mail"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pure-golang/moviehub-mailer/mail"
)

// fakeConn is an in-memory gomail.SendCloser.
type fakeConn struct {
	from    string
	to      []string
	raw     bytes.Buffer
	sendErr error
	closed  bool
}

func (c *fakeConn) Send(from string, to []string, msg io.WriterTo) error {
	if c.sendErr != nil {
		return c.sendErr
	}
	c.from = from
	c.to = to
	_, err := msg.WriteTo(&c.raw)
	return err
}

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

type fakeDialer struct {
	conn  *fakeConn
	err   error
	calls int
}

func (d *fakeDialer) Dial() (gomail.SendCloser, error) {
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

func newTestSender(d *fakeDialer) *Sender {
	cfg := Config{
		Username: "noreply@moviehub.example",
		Password: "secret",
		SSL:      true,
	}
	return NewSender(cfg, &SenderOptions{
		Dialer: func(Config) Dialer { return d },
	})
}

func testEmail() mail.Email {
	return mail.Email{
		From:    mail.Address{Name: "MovieHub", Address: "noreply@moviehub.example"},
		To:      []mail.Address{{Name: "Ada", Address: "ada@example.com"}},
		Subject: "Welcome",
		Headers: map[string]string{"X-Mailer": "moviehub"},
		Body:    "Hello Ada",
		HTML:    "<h2>Hello Ada</h2>",
	}
}

func TestNewSender_AppliesDefaults(t *testing.T) {
	sender := NewSender(Config{Username: "u", Password: "p"}, nil)

	assert.Equal(t, DefaultHost, sender.cfg.Host)
	assert.Equal(t, DefaultPort, sender.cfg.Port)
	assert.NotNil(t, sender.dialer)
}

func TestNewSender_KeepsExplicitHostPort(t *testing.T) {
	sender := NewSender(Config{Host: "localhost", Port: 2525}, nil)

	assert.Equal(t, "localhost", sender.cfg.Host)
	assert.Equal(t, 2525, sender.cfg.Port)
}

func TestNewDialer(t *testing.T) {
	cfg := Config{
		Host:     "smtp.example.com",
		Port:     465,
		Username: "user",
		Password: "pass",
		SSL:      true,
		Timeout:  3 * time.Second,
	}

	d, ok := NewDialer(cfg).(*gomail.Dialer)
	require.True(t, ok)

	assert.Equal(t, "smtp.example.com", d.Host)
	assert.Equal(t, 465, d.Port)
	assert.Equal(t, "user", d.Username)
	assert.Equal(t, "pass", d.Password)
	assert.True(t, d.SSL)
	assert.False(t, d.RetryFailure)
	assert.Equal(t, 3*time.Second, d.Timeout)
	require.NotNil(t, d.TLSConfig)
	assert.Equal(t, "smtp.example.com", d.TLSConfig.ServerName)
	assert.False(t, d.TLSConfig.InsecureSkipVerify)
}

func TestNewDialer_PlainForTests(t *testing.T) {
	d, ok := NewDialer(Config{Host: "localhost", Port: 1025, SSL: false, Insecure: true}).(*gomail.Dialer)
	require.True(t, ok)

	assert.False(t, d.SSL)
	assert.True(t, d.TLSConfig.InsecureSkipVerify)
}

func TestSender_Send_Success(t *testing.T) {
	conn := &fakeConn{}
	d := &fakeDialer{conn: conn}
	sender := newTestSender(d)

	err := sender.Send(context.Background(), testEmail())
	require.NoError(t, err)

	assert.Equal(t, 1, d.calls)
	assert.True(t, conn.closed, "connection must be closed after send")
	assert.Equal(t, "noreply@moviehub.example", conn.from)
	assert.Equal(t, []string{"ada@example.com"}, conn.to)

	raw := conn.raw.String()
	assert.Contains(t, raw, `From: "MovieHub" <noreply@moviehub.example>`)
	assert.Contains(t, raw, `To: "Ada" <ada@example.com>`)
	assert.Contains(t, raw, "Subject: Welcome")
	assert.Contains(t, raw, "X-Mailer: moviehub")
	assert.Contains(t, raw, "multipart/alternative")
	assert.Contains(t, raw, "text/plain")
	assert.Contains(t, raw, "text/html")
	assert.Contains(t, raw, "Hello Ada")
}

func TestSender_Send_PlainOnly(t *testing.T) {
	conn := &fakeConn{}
	sender := newTestSender(&fakeDialer{conn: conn})

	email := testEmail()
	email.HTML = ""

	require.NoError(t, sender.Send(context.Background(), email))

	raw := conn.raw.String()
	assert.NotContains(t, raw, "multipart/alternative")
	assert.NotContains(t, raw, "text/html")
	assert.Contains(t, raw, "text/plain")
}

func TestSender_Send_FromFallsBackToUsername(t *testing.T) {
	conn := &fakeConn{}
	sender := newTestSender(&fakeDialer{conn: conn})

	email := testEmail()
	email.From = mail.Address{}

	require.NoError(t, sender.Send(context.Background(), email))
	assert.Equal(t, "noreply@moviehub.example", conn.from)
}

func TestSender_Send_DialFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want mail.Failure
	}{
		{
			name: "credentials rejected",
			err:  &textproto.Error{Code: 535, Msg: "5.7.8 Username and Password not accepted"},
			want: mail.FailureAuth,
		},
		{
			name: "app password required",
			err:  &textproto.Error{Code: 534, Msg: "5.7.9 Application-specific password required"},
			want: mail.FailureAuth,
		},
		{
			name: "connection refused",
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connect: connection refused")},
			want: mail.FailureConnection,
		},
		{
			name: "dns failure",
			err:  &net.DNSError{Err: "no such host", Name: "smtp.gmail.com", IsNotFound: true},
			want: mail.FailureConnection,
		},
		{
			name: "service not available greeting",
			err:  &textproto.Error{Code: 421, Msg: "Service not available"},
			want: mail.FailureConnection,
		},
		{
			name: "tls handshake",
			err:  errors.New("tls: first record does not look like a TLS handshake"),
			want: mail.FailureConnection,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := newTestSender(&fakeDialer{err: tt.err})

			err := sender.Send(context.Background(), testEmail())

			require.Error(t, err)
			assert.Equal(t, tt.want, mail.KindOf(err))
			assert.Equal(t, tt.err, errors.Cause(err))
		})
	}
}

func TestSender_Send_TransmitFailureClosesConnection(t *testing.T) {
	conn := &fakeConn{sendErr: errors.New("552 message size exceeds limit")}
	sender := newTestSender(&fakeDialer{conn: conn})

	err := sender.Send(context.Background(), testEmail())

	require.Error(t, err)
	assert.Equal(t, mail.FailureUnknown, mail.KindOf(err))
	assert.Contains(t, err.Error(), "failed to send email")
	assert.True(t, conn.closed)
}

func TestSender_Send_WhenClosed(t *testing.T) {
	d := &fakeDialer{conn: &fakeConn{}}
	sender := newTestSender(d)
	require.NoError(t, sender.Close())

	err := sender.Send(context.Background(), testEmail())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "closed")
	assert.Equal(t, mail.FailureUnknown, mail.KindOf(err))
	assert.Zero(t, d.calls)
}

func TestSender_Send_CanceledContext(t *testing.T) {
	d := &fakeDialer{conn: &fakeConn{}}
	sender := newTestSender(d)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := sender.Send(ctx, testEmail())

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Zero(t, d.calls)
}

func TestSender_Send_NoRecipients(t *testing.T) {
	d := &fakeDialer{conn: &fakeConn{}}
	sender := newTestSender(d)

	email := testEmail()
	email.To = nil

	err := sender.Send(context.Background(), email)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no recipients")
	assert.Zero(t, d.calls)
}

func TestSender_Send_NoFromAddress(t *testing.T) {
	d := &fakeDialer{conn: &fakeConn{}}
	sender := NewSender(Config{}, &SenderOptions{Dialer: func(Config) Dialer { return d }})

	email := testEmail()
	email.From = mail.Address{}

	err := sender.Send(context.Background(), email)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no from address")
	assert.Zero(t, d.calls)
}

func TestSender_CloseTwice(t *testing.T) {
	sender := NewSender(Config{}, nil)

	assert.NoError(t, sender.Close())
	assert.NoError(t, sender.Close())
}

func TestClassifyDialError(t *testing.T) {
	assert.Equal(t, mail.FailureAuth, classifyDialError(&textproto.Error{Code: 530}))
	assert.Equal(t, mail.FailureAuth, classifyDialError(errors.Wrap(&textproto.Error{Code: 535}, "auth")))
	assert.Equal(t, mail.FailureConnection, classifyDialError(&textproto.Error{Code: 554}))
	assert.Equal(t, mail.FailureConnection, classifyDialError(io.EOF))
}
