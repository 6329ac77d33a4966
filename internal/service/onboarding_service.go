package service

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"
)

// Onboarding sources, in lookup order.
const (
	SourceConfigured = "configured"
	SourceRender     = "render"
	SourceRailway    = "railway"
	SourceHeroku     = "heroku"
	SourceLocalIP    = "local_ip"
	SourceLocalhost  = "localhost"
)

// OnboardingService derives the URL display clients should open.
type OnboardingService struct {
	configured string
	port       int
	getenv     func(string) string
	localIP    func() (string, error)
}

// NewOnboardingService constructs the service. configured wins over every other source.
func NewOnboardingService(configured string, port int) *OnboardingService {
	if port <= 0 {
		port = 5000
	}
	return &OnboardingService{
		configured: strings.TrimRight(configured, "/"),
		port:       port,
		getenv:     os.Getenv,
		localIP:    outboundIP,
	}
}

// BaseURL returns the public base URL and the source it came from.
func (s *OnboardingService) BaseURL() (string, string) {
	if s.configured != "" {
		return s.configured, SourceConfigured
	}
	if v := strings.TrimSpace(s.getenv("RENDER_EXTERNAL_URL")); v != "" {
		return strings.TrimRight(v, "/"), SourceRender
	}
	if v := strings.TrimSpace(s.getenv("RAILWAY_PUBLIC_DOMAIN")); v != "" {
		return "https://" + strings.TrimRight(v, "/"), SourceRailway
	}
	if v := strings.TrimSpace(s.getenv("HEROKU_APP_NAME")); v != "" {
		return fmt.Sprintf("https://%s.herokuapp.com", v), SourceHeroku
	}
	if ip, err := s.localIP(); err == nil && ip != "" {
		return fmt.Sprintf("http://%s:%d", ip, s.port), SourceLocalIP
	}
	return fmt.Sprintf("http://localhost:%d", s.port), SourceLocalhost
}

// ClientURL returns the display client URL.
func (s *OnboardingService) ClientURL() string {
	base, _ := s.BaseURL()
	return base + "/client"
}

// outboundIP finds the address of the interface used for outbound traffic.
// UDP dial sends no packets.
func outboundIP() (string, error) {
	conn, err := net.DialTimeout("udp", "8.8.8.8:80", time.Second)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "", fmt.Errorf("unexpected local address %T", conn.LocalAddr())
	}
	return addr.IP.String(), nil
}
