package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/integration"
	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

type sentMail struct {
	to, subject, html string
}

type captureSender struct {
	mu     sync.Mutex
	sent   []sentMail
	result integration.Result
}

func (c *captureSender) Send(ctx context.Context, to, subject, html string) integration.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentMail{to: to, subject: subject, html: html})
	return c.result
}

func newNotificationFixture(t *testing.T, sender *captureSender) (*NotificationService, events.Dispatcher) {
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewNotificationService(NotificationDependencies{
		Dispatcher:    dispatcher,
		Mailer:        sender,
		Staff:         newStaffService(t, persistence.NewMemoryKV(), StaffBootstrap{}),
		PortalBaseURL: "https://help.example.com",
		Logger:        zaptest.NewLogger(t),
	})
	svc.RegisterHandlers()
	return svc, dispatcher
}

func wait(t *testing.T, svc *NotificationService) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, svc.Wait(ctx))
}

func TestInvitationMail(t *testing.T) {
	sender := &captureSender{result: integration.OK()}
	svc, dispatcher := newNotificationFixture(t, sender)

	err := dispatcher.Publish(context.Background(), events.Event{
		Type: events.EventPortalUserInvited,
		Payload: events.PortalUserInvitedPayload{
			Email:             "vendor@example.com",
			PermissionSetName: "Customer",
			Token:             "tok_123",
		},
	})
	require.NoError(t, err)
	wait(t, svc)

	require.Len(t, sender.sent, 1)
	mail := sender.sent[0]
	assert.Equal(t, "vendor@example.com", mail.to)
	assert.Equal(t, "Invitation: Set Up Your Ticketing System Account", mail.subject)
	assert.Contains(t, mail.html, "https://help.example.com/portal/setup?token=tok_123")
	assert.Contains(t, mail.html, "<strong>Customer</strong>")
}

func TestNewTicketMailGoesToDepartmentStaff(t *testing.T) {
	sender := &captureSender{result: integration.OK()}
	svc, dispatcher := newNotificationFixture(t, sender)

	ticket := domain.Ticket{
		TicketNo:    "12",
		ToDept:      "Maintenance",
		RequestedBy: "Nithilla <script>",
		Department:  "HR",
		Priority:    domain.TicketPriorityHigh,
		Description: "Door jammed",
	}
	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventTicketCreated,
		Payload: events.TicketPayload{Ticket: ticket},
	}))
	wait(t, svc)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "gokul@tenxhealth.in", sender.sent[0].to)
	assert.Equal(t, "New Ticket Requested: #12", sender.sent[0].subject)
	assert.Contains(t, sender.sent[0].html, "StarGokul")
	assert.Contains(t, sender.sent[0].html, "color: red")
	assert.NotContains(t, sender.sent[0].html, "<script>")
}

func TestNewTicketWithoutContactSendsNothing(t *testing.T) {
	sender := &captureSender{result: integration.OK()}
	svc, dispatcher := newNotificationFixture(t, sender)

	require.NoError(t, dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventTicketCreated,
		Payload: events.TicketPayload{Ticket: domain.Ticket{TicketNo: "1", ToDept: "Finance"}},
	}))
	wait(t, svc)
	assert.Empty(t, sender.sent)
}

func TestMailFailureDoesNotReachPublisher(t *testing.T) {
	sender := &captureSender{result: integration.Result{Success: false, Error: "smtp down"}}
	svc, dispatcher := newNotificationFixture(t, sender)

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventPortalUserInvited,
		Payload: events.PortalUserInvitedPayload{Email: "a@example.com", Token: "t"},
	})
	assert.NoError(t, err)
	wait(t, svc)
	assert.Len(t, sender.sent, 1)
}
