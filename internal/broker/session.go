// Package broker talks to the Angel One SmartAPI: session management with
// TOTP login, the MCX instrument master, and LTP quote retrieval.
package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pquerna/otp/totp"
	"golang.org/x/sync/singleflight"

	"github.com/auricpulse/goldpulse/internal/config"
)

const loginPath = "/rest/auth/angelbroking/user/v1/loginByPassword"

// SessionManager owns the SmartAPI session token. Logins are collapsed
// through a singleflight group so that concurrent callers hitting an expired
// session trigger exactly one upstream login.
type SessionManager struct {
	mu  sync.RWMutex
	jwt string

	cfg   config.BrokerConfig
	http  *http.Client
	group singleflight.Group

	// now is swappable for TOTP determinism in tests.
	now func() time.Time
}

// NewSessionManager creates a session manager from broker settings. No login
// happens until a caller needs a token.
func NewSessionManager(cfg config.BrokerConfig) *SessionManager {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &SessionManager{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		now:  time.Now,
	}
}

// Token returns the cached session token, or "" when not logged in.
func (sm *SessionManager) Token() string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.jwt
}

// Ensure returns a session token, logging in first if none is cached.
func (sm *SessionManager) Ensure(ctx context.Context) (string, error) {
	if tok := sm.Token(); tok != "" {
		return tok, nil
	}
	return sm.Login(ctx)
}

// Invalidate discards the cached session token. The next Ensure logs in
// again.
func (sm *SessionManager) Invalidate() {
	sm.mu.Lock()
	sm.jwt = ""
	sm.mu.Unlock()
}

// Login performs the SmartAPI password+TOTP login and caches the returned
// JWT. Concurrent calls share one upstream request.
func (sm *SessionManager) Login(ctx context.Context) (string, error) {
	tok, err, _ := sm.group.Do("login", func() (any, error) {
		return sm.login(ctx)
	})
	if err != nil {
		return "", err
	}
	return tok.(string), nil
}

func (sm *SessionManager) login(ctx context.Context) (string, error) {
	code, err := totp.GenerateCode(sm.cfg.TOTPSecret, sm.now())
	if err != nil {
		return "", fmt.Errorf("generate totp: %w", err)
	}

	payload, err := json.Marshal(map[string]string{
		"clientcode": sm.cfg.ClientCode,
		"password":   sm.cfg.MPIN,
		"totp":       code,
	})
	if err != nil {
		return "", fmt.Errorf("marshal login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sm.cfg.BaseURL+loginPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create login request: %w", err)
	}
	setSmartAPIHeaders(req, sm.cfg.APIKey)

	resp, err := sm.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read login response: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", &AuthError{Op: "login", Message: fmt.Sprintf("HTTP %d", resp.StatusCode)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("login: HTTP %d: %s", resp.StatusCode, body)
	}

	var parsed struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			JWTToken string `json:"jwtToken"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse login response: %w", err)
	}
	if !parsed.Status {
		return "", &AuthError{Op: "login", Message: parsed.Message}
	}
	if parsed.Data.JWTToken == "" {
		return "", fmt.Errorf("login: %w: empty jwtToken", ErrBadShape)
	}

	sm.mu.Lock()
	sm.jwt = parsed.Data.JWTToken
	sm.mu.Unlock()
	return parsed.Data.JWTToken, nil
}

// setSmartAPIHeaders applies the fixed header set SmartAPI requires on every
// request.
func setSmartAPIHeaders(req *http.Request, apiKey string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-UserType", "USER")
	req.Header.Set("X-SourceID", "WEB")
	req.Header.Set("X-ClientLocalIP", "192.168.1.1")
	req.Header.Set("X-ClientPublicIP", "106.193.147.98")
	req.Header.Set("X-MACAddress", "fe:a1:9e:32:ff:01")
	req.Header.Set("X-PrivateKey", apiKey)
}
