package marketplace

import (
	"fmt"
	"net/http"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
)

// TestContext is the slice of the suite context these steps rely on.
type TestContext interface {
	GET(path string, headers map[string]string) error
	AdminPOST(path string, body any) error
	SignedRequest(account, method, path string, body any) error
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
	GetResponseField(field string) (any, error)
	Account(alias string) string
	ContentHash(content string) string
	PlanID(alias string) string
	SetPlanID(alias, planID string)
	AdminAccount() string
	PaymentAsset() string
}

type marketplaceSteps struct {
	tc TestContext
}

// RegisterSteps registers publish, purchase, balance and retention steps.
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &marketplaceSteps{tc: tc}

	ctx.Step(`^"([^"]*)" publishes plan "([^"]*)" with content "([^"]*)"$`, steps.publish)
	ctx.Step(`^"([^"]*)" tries to publish plan "([^"]*)" with content "([^"]*)"$`, steps.tryPublish)
	ctx.Step(`^content "([^"]*)" should be registered$`, steps.contentRegistered)

	ctx.Step(`^"([^"]*)" is credited (\d+)$`, steps.mint)
	ctx.Step(`^"([^"]*)" buys plan "([^"]*)" for (\d+)$`, steps.buy)
	ctx.Step(`^the purchase pays (\d+) to the contributor and (\d+) to the operator$`, steps.purchaseSplit)
	ctx.Step(`^"([^"]*)" should hold (\d+)$`, steps.balanceShouldBe)

	ctx.Step(`^"([^"]*)" moves plan "([^"]*)" to the "([^"]*)" tier$`, steps.retier)
	ctx.Step(`^the admin moves plan "([^"]*)" to the "([^"]*)" tier$`, steps.adminRetier)
	ctx.Step(`^plan "([^"]*)" should be in the "([^"]*)" tier with (\d+) purchases?$`, steps.planState)
}

func (s *marketplaceSteps) tryPublish(contributor, alias, content string) error {
	planID := s.tc.PlanID(alias)
	if planID == "" {
		planID = uuid.NewString()
		s.tc.SetPlanID(alias, planID)
	}
	return s.tc.SignedRequest(s.tc.Account(contributor), http.MethodPost, "/plans", map[string]any{
		"id":              planID,
		"title":           alias,
		"description":     "e2e plan " + alias,
		"content_hash":    s.tc.ContentHash(content),
		"content_locator": "ipfs://" + content,
		"tags":            []string{"e2e"},
		"domain":          "testing",
		"language":        "go",
		"framework":       "godog",
		"quality_score":   80,
	})
}

func (s *marketplaceSteps) publish(contributor, alias, content string) error {
	if err := s.tryPublish(contributor, alias, content); err != nil {
		return err
	}
	return s.expect(http.StatusCreated, "publish "+alias)
}

func (s *marketplaceSteps) contentRegistered(content string) error {
	if err := s.tc.GET("/content/"+s.tc.ContentHash(content), nil); err != nil {
		return err
	}
	if err := s.expect(http.StatusOK, "content lookup"); err != nil {
		return err
	}
	exists, err := s.tc.GetResponseField("exists")
	if err != nil {
		return err
	}
	if exists != true {
		return fmt.Errorf("content %q is not registered", content)
	}
	return nil
}

func (s *marketplaceSteps) mint(account string, amount int64) error {
	err := s.tc.AdminPOST("/admin/balances/mint", map[string]any{
		"asset":   s.tc.PaymentAsset(),
		"account": s.tc.Account(account),
		"amount":  fmt.Sprint(amount),
	})
	if err != nil {
		return err
	}
	return s.expect(http.StatusCreated, "mint")
}

func (s *marketplaceSteps) buy(buyer, alias string, amount int64) error {
	path := fmt.Sprintf("/plans/%s/purchases", s.tc.PlanID(alias))
	return s.tc.SignedRequest(s.tc.Account(buyer), http.MethodPost, path, map[string]any{
		"amount": fmt.Sprint(amount),
	})
}

func (s *marketplaceSteps) purchaseSplit(contributorShare, operatorShare int64) error {
	if err := s.expect(http.StatusCreated, "purchase"); err != nil {
		return err
	}
	if err := s.stringField("contributor_share", fmt.Sprint(contributorShare)); err != nil {
		return err
	}
	return s.stringField("operator_share", fmt.Sprint(operatorShare))
}

func (s *marketplaceSteps) balanceShouldBe(account string, expected int64) error {
	path := fmt.Sprintf("/balances/%s/%s", s.tc.PaymentAsset(), s.tc.Account(account))
	if err := s.tc.GET(path, nil); err != nil {
		return err
	}
	if err := s.expect(http.StatusOK, "balance"); err != nil {
		return err
	}
	return s.stringField("amount", fmt.Sprint(expected))
}

func (s *marketplaceSteps) retier(caller, alias, tier string) error {
	return s.retierAs(s.tc.Account(caller), alias, tier)
}

func (s *marketplaceSteps) adminRetier(alias, tier string) error {
	if err := s.retierAs(s.tc.AdminAccount(), alias, tier); err != nil {
		return err
	}
	return s.expect(http.StatusOK, "admin retier")
}

func (s *marketplaceSteps) retierAs(caller, alias, tier string) error {
	path := fmt.Sprintf("/plans/%s/tier", s.tc.PlanID(alias))
	return s.tc.SignedRequest(caller, http.MethodPut, path, map[string]any{"tier": tier})
}

func (s *marketplaceSteps) planState(alias, tier string, purchases int) error {
	if err := s.tc.GET("/plans/"+s.tc.PlanID(alias), nil); err != nil {
		return err
	}
	if err := s.expect(http.StatusOK, "get plan"); err != nil {
		return err
	}
	if err := s.stringField("tier", tier); err != nil {
		return err
	}
	count, err := s.tc.GetResponseField("purchase_count")
	if err != nil {
		return err
	}
	if int(count.(float64)) != purchases {
		return fmt.Errorf("expected %d purchases, got %v", purchases, count)
	}
	return nil
}

func (s *marketplaceSteps) expect(status int, what string) error {
	if actual := s.tc.GetLastResponseStatus(); actual != status {
		return fmt.Errorf("%s: expected status %d, got %d: %s", what, status, actual, s.tc.GetLastResponseBody())
	}
	return nil
}

func (s *marketplaceSteps) stringField(field, expected string) error {
	actual, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if actual != expected {
		return fmt.Errorf("expected %s=%q, got %v", field, expected, actual)
	}
	return nil
}
