// internal/notify/notifier_test.go
package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lubebot/internal/common/config"
	"lubebot/internal/common/crm"
	"lubebot/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeEmail struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeEmail) SendEmail(_ context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, input)
	return &ses.SendEmailOutput{}, f.err
}

type fakeTopic struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeTopic) Publish(_ context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, input)
	return &sns.PublishOutput{}, f.err
}

type fakeLeads struct {
	leads []*crm.Lead
	err   error
}

func (f *fakeLeads) CreateLead(_ context.Context, lead *crm.Lead) (string, error) {
	f.leads = append(f.leads, lead)
	return "lead-1", f.err
}

func integrationConfig() config.IntegrationConfig {
	var cfg config.IntegrationConfig
	cfg.AWS.Region = "ap-south-1"
	cfg.AWS.SES.Enabled = true
	cfg.AWS.SES.FromEmail = "chatbot@example.com"
	cfg.AWS.SES.LeadsTo = "sales@example.com"
	cfg.AWS.SNS.Enabled = true
	cfg.AWS.SNS.TopicARN = "arn:aws:sns:ap-south-1:1:alerts"
	return cfg
}

// ==========================
// Lead Forwarding Tests
// ==========================

func TestForwardCooperationLead(t *testing.T) {
	email := &fakeEmail{}
	leads := &fakeLeads{}
	n := New(email, nil, leads, integrationConfig(), logger.NewTestLogger(t))

	n.ForwardCooperationLead(context.Background(), "session-1", "I want to become a distributor in Pune")

	require.Len(t, leads.leads, 1)
	assert.Contains(t, leads.leads[0].Description, "distributor")
	assert.Equal(t, "support-chatbot", leads.leads[0].Source)

	require.Len(t, email.inputs, 1)
	assert.Equal(t, "sales@example.com", email.inputs[0].Destination.ToAddresses[0])
}

func TestForwardCooperationLead_CRMFailureStillEmails(t *testing.T) {
	email := &fakeEmail{}
	leads := &fakeLeads{err: errors.New("crm down")}
	n := New(email, nil, leads, integrationConfig(), logger.NewTestLogger(t))

	n.ForwardCooperationLead(context.Background(), "session-1", "partnership inquiry")

	assert.Len(t, email.inputs, 1)
}

func TestForwardCooperationLead_SESDisabled(t *testing.T) {
	cfg := integrationConfig()
	cfg.AWS.SES.Enabled = false

	email := &fakeEmail{}
	n := New(email, nil, &fakeLeads{}, cfg, logger.NewTestLogger(t))

	n.ForwardCooperationLead(context.Background(), "session-1", "partnership inquiry")
	assert.Empty(t, email.inputs)
}

// ==========================
// Counterfeit Alert Tests
// ==========================

func TestCounterfeitAlert(t *testing.T) {
	topic := &fakeTopic{}
	n := New(nil, topic, nil, integrationConfig(), logger.NewTestLogger(t))

	n.CounterfeitAlert(context.Background(), "session-1", "I think this canister is fake")

	require.Len(t, topic.inputs, 1)
	assert.Equal(t, "arn:aws:sns:ap-south-1:1:alerts", *topic.inputs[0].TopicArn)
	assert.Contains(t, *topic.inputs[0].Message, "fake")
}

func TestCounterfeitAlert_PublishFailureOnlyLogs(t *testing.T) {
	topic := &fakeTopic{err: errors.New("sns down")}
	n := New(nil, topic, nil, integrationConfig(), logger.NewTestLogger(t))

	// Must not panic; alerting is best-effort.
	n.CounterfeitAlert(context.Background(), "session-1", "fake product")
}
