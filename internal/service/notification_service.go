package service

import (
	"bytes"
	"context"
	"html/template"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/integration/mail"
)

const (
	invitationSubject = "Invitation: Set Up Your Ticketing System Account"
	mailTimeout       = 30 * time.Second
)

// DepartmentDirectory finds who should hear about new tickets for a department.
type DepartmentDirectory interface {
	DepartmentContact(dept string) (domain.StaffUser, bool)
}

// NotificationService turns domain events into mail. Sends run in the
// background; a failed send is logged and never reaches the publisher.
type NotificationService struct {
	dispatcher    events.Dispatcher
	mailer        mail.Sender
	staff         DepartmentDirectory
	portalBaseURL string
	logger        *zap.Logger
	timeout       time.Duration

	wg sync.WaitGroup
}

// NotificationDependencies bundles collaborators for notifications.
type NotificationDependencies struct {
	Dispatcher    events.Dispatcher
	Mailer        mail.Sender
	Staff         DepartmentDirectory
	PortalBaseURL string
	Logger        *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher:    deps.Dispatcher,
		mailer:        deps.Mailer,
		staff:         deps.Staff,
		portalBaseURL: deps.PortalBaseURL,
		logger:        logger,
		timeout:       mailTimeout,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil || n.mailer == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventPortalUserInvited, n.handlePortalUserInvited)
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
}

// Wait blocks until queued sends finish or ctx is done.
func (n *NotificationService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InvitationLink is where an invited user sets a password.
func (n *NotificationService) InvitationLink(token string) string {
	return n.portalBaseURL + "/portal/setup?token=" + url.QueryEscape(token)
}

func (n *NotificationService) handlePortalUserInvited(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.PortalUserInvitedPayload)
	if !ok {
		n.logger.Warn("unexpected invitation payload", zap.String("event_id", event.ID))
		return nil
	}
	body, err := render(invitationTemplate, invitationView{
		PermissionSetName: payload.PermissionSetName,
		Link:              n.InvitationLink(payload.Token),
	})
	if err != nil {
		n.logger.Error("render invitation mail", zap.Error(err))
		return nil
	}
	n.sendAsync(payload.Email, invitationSubject, body)
	return nil
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketPayload)
	if !ok || n.staff == nil {
		return nil
	}
	ticket := payload.Ticket
	contact, found := n.staff.DepartmentContact(ticket.ToDept)
	if !found || contact.Email == "" {
		n.logger.Debug("no department contact for new ticket",
			zap.String("ticket_no", ticket.TicketNo),
			zap.String("to_dept", ticket.ToDept))
		return nil
	}
	body, err := render(newTicketTemplate, newTicketView{
		StaffName: contact.Name,
		Ticket:    ticket,
		Urgent:    ticket.Priority == domain.TicketPriorityHigh || ticket.Priority == domain.TicketPriorityCritical,
	})
	if err != nil {
		n.logger.Error("render ticket mail", zap.Error(err))
		return nil
	}
	n.sendAsync(contact.Email, "New Ticket Requested: #"+ticket.TicketNo, body)
	return nil
}

func (n *NotificationService) sendAsync(to, subject, body string) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
		defer cancel()
		res := n.mailer.Send(ctx, to, subject, body)
		if !res.Success {
			n.logger.Warn("notification mail failed",
				zap.String("to", to),
				zap.String("subject", subject),
				zap.String("error", res.Error))
		}
	}()
}

type invitationView struct {
	PermissionSetName string
	Link              string
}

type newTicketView struct {
	StaffName string
	Ticket    domain.Ticket
	Urgent    bool
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var invitationTemplate = template.Must(template.New("invitation").Parse(`<div style="font-family: sans-serif; padding: 40px 20px; background-color: #f8fafc; color: #1e293b;">
  <div style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 16px;">
    <div style="background-color: #2563eb; padding: 32px; text-align: center;">
      <h1 style="color: white; margin: 0; font-size: 24px;">Ticketing System</h1>
    </div>
    <div style="padding: 40px 32px;">
      <h2 style="margin-top: 0; font-size: 20px;">Account Invitation</h2>
      <p>Hello there,</p>
      <p>You have been invited to join the Ticketing System portal. Your account has been pre-configured with <strong>{{.PermissionSetName}}</strong> permissions.</p>
      <p style="margin: 32px 0; text-align: center;">
        <a href="{{.Link}}" style="background-color: #2563eb; color: #ffffff; padding: 14px 32px; border-radius: 10px; text-decoration: none;">Set Up Your Account</a>
      </p>
      <p style="font-size: 14px; color: #64748b; text-align: center;">Or copy and paste this link in your browser:</p>
      <p style="font-size: 12px; color: #2563eb; word-break: break-all; text-align: center;">{{.Link}}</p>
    </div>
    <p style="font-size: 12px; color: #94a3b8; text-align: center; padding: 24px 32px;">This is an automated message. Please do not reply to this email.</p>
  </div>
</div>`))

var newTicketTemplate = template.Must(template.New("new_ticket").Parse(`<div style="font-family: sans-serif; padding: 20px; border: 1px solid #eee; border-radius: 10px;">
  <h2 style="color: #2563eb;">New Support Request</h2>
  <p>Hello <strong>{{.StaffName}}</strong>,</p>
  <p>A new ticket has been requested for your department.</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;" />
  <p><strong>Ticket No:</strong> #{{.Ticket.TicketNo}}</p>
  <p><strong>Date:</strong> {{.Ticket.TicketDate}}</p>
  <p><strong>From:</strong> {{.Ticket.RequestedBy}} ({{.Ticket.Department}})</p>
  <p><strong>Priority:</strong> <span style="color: {{if .Urgent}}red{{else}}inherit{{end}}; font-weight: bold;">{{.Ticket.Priority}}</span></p>
  <p><strong>Description:</strong> {{.Ticket.Description}}</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;" />
  <p style="font-size: 0.8em; color: #666;">This is an automated notification from the Ticketing System.</p>
</div>`))
