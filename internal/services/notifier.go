package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// NotifierService enqueues notification records with the external dispatch
// service. Delivery is the dispatcher's concern; the core only records the
// request and logs failures. Without a dispatch URL configured, email records
// are sent directly over SMTP and SMS records are rejected.
type NotifierService struct {
	baseURL string
	apiKey  string
	client  *http.Client
	email   *EmailService
}

func NewNotifierService() *NotifierService {
	return &NotifierService{
		baseURL: os.Getenv("NOTIFY_DISPATCH_URL"),
		apiKey:  os.Getenv("NOTIFY_API_KEY"),
		client:  &http.Client{Timeout: 10 * time.Second},
		email:   NewEmailService(),
	}
}

// NotificationRecord is the payload handed to the dispatch queue
type NotificationRecord struct {
	Channel   string `json:"channel"` // "email" or "sms"
	Recipient string `json:"recipient"`
	Subject   string `json:"subject,omitempty"`
	Body      string `json:"body"`
	PlanID    uint   `json:"plan_id,omitempty"`
	ClinicID  uint   `json:"clinic_id,omitempty"`
}

func (s *NotifierService) makeRequest(method, endpoint string, payload interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		bodyReader = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, fmt.Sprintf("%s%s", s.baseURL, endpoint), bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// Enqueue hands one notification record to the dispatch service, or falls
// back to direct SMTP for email when no dispatcher is configured
func (s *NotifierService) Enqueue(record NotificationRecord) error {
	if record.Channel == "sms" {
		record.Recipient = NormalizePhone(record.Recipient)
	}
	if s.baseURL == "" {
		if record.Channel == "email" {
			return s.email.SendEmail([]string{record.Recipient}, record.Subject, record.Body)
		}
		return fmt.Errorf("no dispatch service configured for channel %q", record.Channel)
	}
	return s.makeRequest("POST", "/api/notifications", record)
}

// NormalizePhone standardizes UK phone numbers to international form
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	phone = strings.ReplaceAll(phone, " ", "")

	if strings.HasPrefix(phone, "+") {
		return phone
	}

	// Standardize numbers starting with '0' to '+44'
	if strings.HasPrefix(phone, "0") {
		return "+44" + strings.TrimPrefix(phone, "0")
	}

	if strings.HasPrefix(phone, "44") {
		return "+" + phone
	}

	return phone
}
