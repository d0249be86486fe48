package vpos

import "strings"

// Environment selects the gateway deployment.
type Environment string

const (
	Sandbox    Environment = "sandbox"
	Production Environment = "production"
)

const (
	sandboxBaseURL    = "https://vpos.infonet.com.py:8888"
	productionBaseURL = "https://vpos.infonet.com.py"

	singleBuyPath     = "/vpos/api/0.3/single_buy"
	confirmationsPath = "/vpos/api/0.3/single_buy/confirmations"
	rollbackPath      = "/vpos/api/0.3/single_buy/rollback"
	paymentPagePath   = "/payment/single_buy?process_id="
)

// ParseEnvironment maps a configuration value to an Environment. Empty means sandbox.
func ParseEnvironment(s string) (Environment, bool) {
	switch Environment(strings.ToLower(strings.TrimSpace(s))) {
	case "", Sandbox:
		return Sandbox, true
	case Production:
		return Production, true
	}
	return "", false
}

// BaseURL returns the gateway base URL of the environment.
func (e Environment) BaseURL() string {
	if e == Production {
		return productionBaseURL
	}
	return sandboxBaseURL
}

type endpoints struct {
	charge        string
	confirmations string
	rollback      string
	paymentPage   string
}

func endpointsFor(baseURL string) endpoints {
	base := strings.TrimRight(baseURL, "/")
	return endpoints{
		charge:        base + singleBuyPath,
		confirmations: base + confirmationsPath,
		rollback:      base + rollbackPath,
		paymentPage:   base + paymentPagePath,
	}
}
