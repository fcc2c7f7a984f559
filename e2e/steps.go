package e2e

import (
	"github.com/cucumber/godog"

	"synapse/e2e/steps/common"
	"synapse/e2e/steps/marketplace"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (background, generic requests, assertions)
	common.RegisterSteps(ctx, tc)

	// Register publish, purchase and retier steps
	marketplace.RegisterSteps(ctx, tc)
}
