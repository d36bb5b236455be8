package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobby-s-dev/cloudburst/internal/models"
	"go.uber.org/zap"
)

const DefaultEmailJSURL = "https://api.emailjs.com/api/v1.0"

// EmailJSClient sends feedback through the EmailJS REST API.
type EmailJSClient struct {
	*BaseClient
	serviceID  string
	templateID string
	publicKey  string
	baseURL    string
}

type emailJSRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

func NewEmailJSClient(serviceID, templateID, publicKey, baseURL string, config ClientConfig, logger *zap.Logger) *EmailJSClient {
	if baseURL == "" {
		baseURL = DefaultEmailJSURL
	}
	return &EmailJSClient{
		BaseClient: NewBaseClient("emailjs", config, logger),
		serviceID:  serviceID,
		templateID: templateID,
		publicKey:  publicKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

func (c *EmailJSClient) SendFeedback(ctx context.Context, feedback models.Feedback) error {
	req := emailJSRequest{
		ServiceID:  c.serviceID,
		TemplateID: c.templateID,
		UserID:     c.publicKey,
		TemplateParams: map[string]string{
			"name":    feedback.Name,
			"email":   feedback.Email,
			"message": feedback.Message,
		},
	}

	if _, err := c.PostJSON(ctx, c.baseURL+"/email/send", req); err != nil {
		return fmt.Errorf("failed to send feedback: %w", err)
	}
	return nil
}
