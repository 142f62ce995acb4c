// internal/notify/notifier.go
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"lubebot/internal/common/config"
	"lubebot/internal/common/crm"
	"lubebot/internal/common/logger"
)

// EmailSender abstracts the SES client for tests.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// TopicPublisher abstracts the SNS client for tests.
type TopicPublisher interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

// LeadCreator abstracts the CRM client for tests.
type LeadCreator interface {
	CreateLead(ctx context.Context, lead *crm.Lead) (string, error)
}

// Notifier forwards business-relevant conversations to the humans who act on
// them. Everything here is fire-and-forget: a notification failure never
// touches the user's reply.
type Notifier struct {
	email  EmailSender
	topic  TopicPublisher
	leads  LeadCreator
	config config.IntegrationConfig
	logger logger.Logger
}

func New(email EmailSender, topic TopicPublisher, leads LeadCreator, cfg config.IntegrationConfig, log logger.Logger) *Notifier {
	return &Notifier{
		email:  email,
		topic:  topic,
		leads:  leads,
		config: cfg,
		logger: log.WithFields(map[string]interface{}{"component": "notify"}),
	}
}

// ForwardCooperationLead records a distributor or partnership inquiry in the
// CRM and emails the sales team.
func (n *Notifier) ForwardCooperationLead(ctx context.Context, sessionID, message string) {
	if n.leads != nil {
		lead := &crm.Lead{
			Company:     "Chatbot inquiry " + sessionID,
			Description: message,
			Source:      "support-chatbot",
		}
		if id, err := n.leads.CreateLead(ctx, lead); err != nil {
			n.logger.Warn("crm lead creation failed", map[string]interface{}{
				"session": sessionID,
				"error":   err.Error(),
			})
		} else {
			n.logger.Info("crm lead created", map[string]interface{}{
				"session": sessionID,
				"leadId":  id,
			})
		}
	}

	if n.email == nil || !n.config.AWS.SES.Enabled {
		return
	}
	body := fmt.Sprintf("Cooperation inquiry received %s\nSession: %s\n\n%s",
		time.Now().UTC().Format(time.RFC3339), sessionID, message)
	_, err := n.email.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(n.config.AWS.SES.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{n.config.AWS.SES.LeadsTo},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String("New cooperation inquiry from chatbot")},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		n.logger.Warn("lead email failed", map[string]interface{}{
			"session": sessionID,
			"error":   err.Error(),
		})
	}
}

// CounterfeitAlert publishes an authenticity question to the alert topic so
// the brand-protection team sees suspected counterfeit reports quickly.
func (n *Notifier) CounterfeitAlert(ctx context.Context, sessionID, message string) {
	if n.topic == nil || !n.config.AWS.SNS.Enabled {
		return
	}
	_, err := n.topic.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.config.AWS.SNS.TopicARN),
		Subject:  aws.String("Chatbot authenticity inquiry"),
		Message:  aws.String(fmt.Sprintf("Session %s: %s", sessionID, message)),
	})
	if err != nil {
		n.logger.Warn("counterfeit alert failed", map[string]interface{}{
			"session": sessionID,
			"error":   err.Error(),
		})
	}
}
