package emailService

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"os"
	"path/filepath"
	"sync"

	"github.com/sebuszqo/FamilyFinance/internal/config"
	"github.com/sebuszqo/FamilyFinance/internal/logging"
)

const (
	subjectWorkspaceInvitation  = "You have been invited to a FamilyFinance workspace"
	templateWorkspaceInvitation = "workspace_invitation.html"

	queueSize = 100
)

type EmailData interface {
	TemplateFileName() string
	Subject() string
}

type EmailSender interface {
	QueueEmail(to string, data EmailData)
}

type WorkspaceInvitationData struct {
	WorkspaceName string
	InviterEmail  string
	Role          string
	AcceptURL     string
	ExpiresAt     string
}

func (d WorkspaceInvitationData) TemplateFileName() string {
	return templateWorkspaceInvitation
}

func (d WorkspaceInvitationData) Subject() string {
	return subjectWorkspaceInvitation
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type EmailService struct {
	from         string
	password     string
	templatesDir string
	smtpHost     string
	smtpPort     string
	taskQueue    chan EmailTask
	send         sendFunc
	logger       logging.Logger
	wg           sync.WaitGroup
	closeOnce    sync.Once
}

type EmailTask struct {
	to           string
	templateFile string
	data         EmailData
	subject      string
}

func NewEmailService(cfg *config.Config) *EmailService {
	s := newEmailService(cfg, smtp.SendMail)
	if cfg.EmailAddress == "" || cfg.EmailPassword == "" {
		s.logger.Warn().Msg("EMAIL_ADDRESS or EMAIL_PASSWORD is not set, emails will fail to send")
	}
	return s
}

func newEmailService(cfg *config.Config, send sendFunc) *EmailService {
	s := &EmailService{
		from:         cfg.EmailAddress,
		password:     cfg.EmailPassword,
		templatesDir: cfg.TemplatesDir,
		smtpHost:     cfg.SMTPHost,
		smtpPort:     cfg.SMTPPort,
		taskQueue:    make(chan EmailTask, queueSize),
		send:         send,
		logger:       logging.New("email"),
	}
	s.wg.Add(1)
	go s.worker()
	return s
}

func (s *EmailService) worker() {
	defer s.wg.Done()
	for task := range s.taskQueue {
		err := s.sendTemplatedEmail(task.to, task.templateFile, task.data, task.subject)
		if err != nil {
			s.logger.Error().Err(err).Str("to", task.to).Msg("Error sending email")
		}
	}
}

func (s *EmailService) QueueEmail(to string, data EmailData) {
	select {
	case s.taskQueue <- EmailTask{to, data.TemplateFileName(), data, data.Subject()}:
	default:
		s.logger.Error().Str("to", to).Msg("Email queue is full, dropping message")
	}
}

// Close stops accepting emails and waits for queued ones to be sent.
func (s *EmailService) Close() {
	s.closeOnce.Do(func() {
		close(s.taskQueue)
	})
	s.wg.Wait()
}

func (s *EmailService) render(templateFileName string, data EmailData) (string, error) {
	templatePath := filepath.Join(s.templatesDir, templateFileName)
	if _, err := os.Stat(templatePath); os.IsNotExist(err) {
		return "", fmt.Errorf("template file does not exist: %v", err)
	}

	tmpl, err := template.ParseFiles(templatePath)
	if err != nil {
		return "", fmt.Errorf("error parsing template: %v", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("error executing template: %v", err)
	}
	return body.String(), nil
}

func (s *EmailService) sendTemplatedEmail(to, templateFileName string, data EmailData, subject string) error {
	body, err := s.render(templateFileName, data)
	if err != nil {
		return err
	}

	message := []byte("To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\";\r\n\r\n" +
		body)

	auth := smtp.PlainAuth("", s.from, s.password, s.smtpHost)
	if err := s.send(s.smtpHost+":"+s.smtpPort, auth, s.from, []string{to}, message); err != nil {
		return fmt.Errorf("error sending email: %v", err)
	}
	return nil
}
