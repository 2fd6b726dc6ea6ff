package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hostel/internal/domain/outing"
	"hostel/internal/platform/config"
)

type noopSender struct{}

func (noopSender) SendOTP(ctx context.Context, phone, code string) error {
	return nil
}

type gatewaySender struct {
	cfg    config.Config
	client *http.Client
}

// New returns the configured OTP sender. Without a gateway the noop sender
// keeps the verification flow usable in development.
func New(cfg config.Config) outing.OTPSender {
	if !cfg.SMSEnabled || cfg.SMSGatewayURL == "" {
		return noopSender{}
	}
	return &gatewaySender{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *gatewaySender) SendOTP(ctx context.Context, phone, code string) error {
	if strings.TrimSpace(phone) == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"to":      phone,
		"sender":  s.cfg.SMSSenderID,
		"message": fmt.Sprintf("%s is the verification code for your ward's outing request.", code),
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.SMSGatewayURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.SMSAPIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned %d", resp.StatusCode)
	}
	return nil
}
