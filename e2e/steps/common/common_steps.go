package common

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext is the slice of the suite context these steps rely on.
type TestContext interface {
	GET(path string, headers map[string]string) error
	AdminPOST(path string, body any) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetResponseField(field string) (any, error)
	SetMarketplace(asset, admin string)
}

type commonSteps struct {
	tc TestContext
}

// RegisterSteps registers background and generic assertion steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}
	ctx.Step(`^the marketplace is initialized with a (\d+)% contributor share$`, steps.marketplaceInitialized)
	ctx.Step(`^I GET "([^"]*)"$`, steps.get)
	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the error code should be "([^"]*)"$`, steps.errorCodeShouldBe)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, steps.fieldShouldEqual)
}

// marketplaceInitialized initializes a fresh server or accepts one that a
// previous run (or startup config) already initialized with the same share.
func (s *commonSteps) marketplaceInitialized(share int) error {
	err := s.tc.AdminPOST("/admin/initialize", map[string]any{
		"admin":                 "GADMIN",
		"operator":              "GOPERATOR",
		"contributor_share_pct": share,
		"payment_asset":         "USDC",
	})
	if err != nil {
		return err
	}
	status := s.tc.GetLastResponseStatus()
	if status != http.StatusCreated && status != http.StatusOK && status != http.StatusConflict {
		return fmt.Errorf("initialize: status %d: %s", status, s.tc.GetLastResponseBody())
	}

	if err := s.tc.GET("/config", nil); err != nil {
		return err
	}
	if s.tc.GetLastResponseStatus() != http.StatusOK {
		return fmt.Errorf("get config: status %d: %s", s.tc.GetLastResponseStatus(), s.tc.GetLastResponseBody())
	}
	pct, err := s.tc.GetResponseField("contributor_share_pct")
	if err != nil {
		return err
	}
	if int(pct.(float64)) != share {
		return fmt.Errorf("server is configured with a %v%% contributor share, scenario needs %d%%", pct, share)
	}
	asset, err := s.tc.GetResponseField("payment_asset")
	if err != nil {
		return err
	}
	admin, err := s.tc.GetResponseField("admin")
	if err != nil {
		return err
	}
	s.tc.SetMarketplace(asset.(string), admin.(string))
	return nil
}

func (s *commonSteps) get(path string) error {
	return s.tc.GET(path, nil)
}

func (s *commonSteps) statusShouldBe(expected int) error {
	if actual := s.tc.GetLastResponseStatus(); actual != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, actual, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *commonSteps) errorCodeShouldBe(code string) error {
	actual, err := s.tc.GetResponseField("error")
	if err != nil {
		return err
	}
	if actual != code {
		return fmt.Errorf("expected error code %q, got %q", code, actual)
	}
	return nil
}

func (s *commonSteps) fieldShouldEqual(field, expected string) error {
	actual, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if got := render(actual); got != expected {
		return fmt.Errorf("expected %s=%q, got %q", field, expected, got)
	}
	return nil
}

// render prints JSON numbers without a trailing exponent so integers compare
// as written in feature files.
func render(v any) string {
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
