package e2e

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TestContext carries HTTP state between the steps of one scenario.
type TestContext struct {
	BaseURL    string
	AdminToken string
	HTTPClient *http.Client

	LastResponse     *http.Response
	LastResponseBody []byte

	// Asset and Admin are read from /config once the marketplace is up.
	Asset string
	Admin string

	nonce   string
	tokens  map[string]string
	planIDs map[string]string
}

func NewTestContext(baseURL, adminToken string) *TestContext {
	return &TestContext{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		AdminToken: adminToken,
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
		nonce:      uuid.NewString()[:8],
		tokens:     make(map[string]string),
		planIDs:    make(map[string]string),
	}
}

// Reset clears per-scenario state.
func (tc *TestContext) Reset() {
	tc.LastResponse = nil
	tc.LastResponseBody = nil
	tc.nonce = uuid.NewString()[:8]
	tc.tokens = make(map[string]string)
	tc.planIDs = make(map[string]string)
}

func (tc *TestContext) do(method, path string, body any, headers map[string]string) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, tc.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := tc.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	tc.LastResponse = resp
	tc.LastResponseBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) GET(path string, headers map[string]string) error {
	return tc.do(http.MethodGet, path, nil, headers)
}

func (tc *TestContext) POST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, nil)
}

func (tc *TestContext) AdminPOST(path string, body any) error {
	return tc.do(http.MethodPost, path, body, map[string]string{"X-Admin-Token": tc.AdminToken})
}

// SignedRequest sends body as account, minting a token on first use.
func (tc *TestContext) SignedRequest(account, method, path string, body any) error {
	token, ok := tc.tokens[account]
	if !ok {
		if err := tc.AdminPOST("/admin/tokens", map[string]any{"account": account}); err != nil {
			return err
		}
		if tc.LastResponse.StatusCode != http.StatusCreated {
			return fmt.Errorf("issue token for %s: status %d: %s", account, tc.LastResponse.StatusCode, tc.LastResponseBody)
		}
		field, err := tc.GetResponseField("access_token")
		if err != nil {
			return err
		}
		token = field.(string)
		tc.tokens[account] = token
	}
	return tc.do(method, path, body, map[string]string{"Authorization": "Bearer " + token})
}

func (tc *TestContext) GetLastResponseStatus() int {
	if tc.LastResponse == nil {
		return 0
	}
	return tc.LastResponse.StatusCode
}

func (tc *TestContext) GetLastResponseBody() []byte {
	return tc.LastResponseBody
}

func (tc *TestContext) GetResponseField(field string) (any, error) {
	var data map[string]any
	if err := json.Unmarshal(tc.LastResponseBody, &data); err != nil {
		return nil, fmt.Errorf("decode response: %w (body: %s)", err, tc.LastResponseBody)
	}
	val, ok := data[field]
	if !ok {
		return nil, fmt.Errorf("field %q not in response: %s", field, tc.LastResponseBody)
	}
	return val, nil
}

func (tc *TestContext) PlanID(alias string) string {
	return tc.planIDs[alias]
}

func (tc *TestContext) SetPlanID(alias, planID string) {
	tc.planIDs[alias] = planID
}

// Account scopes a scenario alias so reruns against a long-lived server
// start from empty balances.
func (tc *TestContext) Account(alias string) string {
	return alias + "-" + tc.nonce
}

// ContentHash derives a scenario-unique hash; equal content yields equal
// hashes within one scenario.
func (tc *TestContext) ContentHash(content string) string {
	sum := sha256.Sum256([]byte(tc.nonce + ":" + content))
	return hex.EncodeToString(sum[:])
}

func (tc *TestContext) SetMarketplace(asset, admin string) {
	tc.Asset = asset
	tc.Admin = admin
}

func (tc *TestContext) PaymentAsset() string { return tc.Asset }

func (tc *TestContext) AdminAccount() string { return tc.Admin }
