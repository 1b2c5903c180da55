package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	"github.com/containrrr/shoutrrr"

	"github.com/wardenhq/warden/internal/logger"
)

// NotificationService delivers critical-alert notifications to the targets
// named in configuration. Targets are either shoutrrr URLs (discord://,
// slack://, smtp://, ...) or plain http(s) webhook endpoints that receive a
// JSON payload. Delivery is best-effort: failures are logged and never
// propagate to the caller.
type NotificationService struct {
	urls   []string
	client *http.Client
}

// NewNotificationService returns a service targeting the given URLs. An
// empty list yields a no-op sender.
func NewNotificationService(urls []string) *NotificationService {
	return &NotificationService{
		urls: urls,
		client: &http.Client{
			Timeout: 10 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

// Notify implements alerts.Notifier. Each target is attempted in its own
// goroutine so a slow sink cannot hold up the alert dispatcher.
func (s *NotificationService) Notify(title, message string, data map[string]string) {
	for _, raw := range s.urls {
		go func(target string) {
			var err error
			if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
				err = s.sendWebhook(target, title, message, data)
			} else {
				err = shoutrrr.Send(target, fmt.Sprintf("%s\n\n%s", title, message))
			}
			if err != nil {
				logger.WithComponent("notify").WithError(err).Warn("notification delivery failed")
			}
		}(raw)
	}
}

// sendWebhook posts a JSON payload to an http(s) endpoint. The destination
// is validated first so a misconfigured target cannot be used to reach
// private addresses.
func (s *NotificationService) sendWebhook(target, title, message string, data map[string]string) error {
	u, err := validateWebhookURL(target)
	if err != nil {
		return fmt.Errorf("invalid webhook url: %w", err)
	}

	payload := map[string]interface{}{
		"title":   title,
		"message": message,
		"time":    time.Now().Format(time.RFC3339),
		"data":    data,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status: %d", resp.StatusCode)
	}
	return nil
}

// isPrivateIP returns true for RFC1918, loopback and link-local addresses.
func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}

	if ip4 := ip.To4(); ip4 != nil {
		switch {
		case ip4[0] == 10:
			return true
		case ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31:
			return true
		case ip4[0] == 192 && ip4[1] == 168:
			return true
		}
	}

	// IPv6 unique local addresses fc00::/7
	if ip.To16() != nil && strings.HasPrefix(ip.String(), "fc") {
		return true
	}

	return false
}

// validateWebhookURL parses and validates webhook URLs and ensures the
// resolved addresses are not private/local. Explicit localhost targets are
// allowed for local testing.
func validateWebhookURL(raw string) (*neturl.URL, error) {
	u, err := neturl.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("missing host")
	}

	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return u, nil
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, fmt.Errorf("dns lookup failed: %w", err)
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return nil, fmt.Errorf("disallowed host IP: %s", ip.String())
		}
	}
	return u, nil
}
