package emailService

import (
	"errors"
	"net/smtp"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sebuszqo/FamilyFinance/internal/config"
)

type capturedMail struct {
	addr string
	to   []string
	msg  string
}

func newTestService(t *testing.T, fail bool) (*EmailService, *[]capturedMail) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, templateWorkspaceInvitation),
		[]byte(`<p>{{.InviterEmail}} invited you to {{.WorkspaceName}} as {{.Role}}: {{.AcceptURL}}</p>`), 0o600))

	var mu sync.Mutex
	var sent []capturedMail
	send := func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		if fail {
			return errors.New("smtp down")
		}
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, capturedMail{addr: addr, to: to, msg: string(msg)})
		return nil
	}
	cfg := &config.Config{TemplatesDir: dir, EmailAddress: "noreply@example.com", EmailPassword: "pw", SMTPHost: "smtp.example.com", SMTPPort: "587"}
	return newEmailService(cfg, send), &sent
}

func TestQueueEmail_SendsRenderedInvitation(t *testing.T) {
	s, sent := newTestService(t, false)

	s.QueueEmail("friend@example.com", WorkspaceInvitationData{
		WorkspaceName: "Household",
		InviterEmail:  "owner@example.com",
		Role:          "member",
		AcceptURL:     "https://app.example.com/invitations/accept?id=1&token=abc",
	})
	s.Close()

	require.Len(t, *sent, 1)
	mail := (*sent)[0]
	assert.Equal(t, "smtp.example.com:587", mail.addr)
	assert.Equal(t, []string{"friend@example.com"}, mail.to)
	assert.Contains(t, mail.msg, "Subject: "+subjectWorkspaceInvitation)
	assert.Contains(t, mail.msg, "owner@example.com invited you to Household as member")
	assert.Contains(t, mail.msg, "id=1&amp;token=abc")
}

func TestRender_MissingTemplate(t *testing.T) {
	s, _ := newTestService(t, false)
	defer s.Close()

	_, err := s.render("missing.html", WorkspaceInvitationData{})
	assert.ErrorContains(t, err, "template file does not exist")
}

func TestSendTemplatedEmail_SMTPFailure(t *testing.T) {
	s, _ := newTestService(t, true)
	defer s.Close()

	err := s.sendTemplatedEmail("x@example.com", templateWorkspaceInvitation, WorkspaceInvitationData{}, "subject")
	assert.ErrorContains(t, err, "smtp down")
}
