package billing

import (
	"regexp"

	"github.com/dmitrymomot/shopnotes/svc/plan"
)

// Evaluated in order; the first match wins.
var planPatterns = []struct {
	re   *regexp.Regexp
	code plan.Code
}{
	{regexp.MustCompile(`(?i)\b(enterprise|ultimate|scale)\b`), plan.CodeEnterprise},
	{regexp.MustCompile(`(?i)\b(pro|professional|growth)\b`), plan.CodePro},
	{regexp.MustCompile(`(?i)\b(basic|starter)\b`), plan.CodeBasic},
}

// ResolvePlanCode maps a subscription or line item name to a plan code.
func ResolvePlanCode(name string) plan.Code {
	for _, p := range planPatterns {
		if p.re.MatchString(name) {
			return p.code
		}
	}
	return plan.CodeFree
}
