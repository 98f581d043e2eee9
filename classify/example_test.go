package classify_test

import (
	"fmt"

	"github.com/jonwraymond/gatewayobs/classify"
)

func ExampleRuleClassifier_ClassifyToolCall() {
	c := classify.NewRuleClassifier()

	finding := c.ClassifyToolCall("Read", map[string]any{"path": "/home/user/.env"})
	if finding != nil {
		fmt.Println(finding.Category, finding.Severity)
	}
	// Output:
	// sensitive_file_access critical
}

func ExampleRuleClassifier_ClassifyMessage() {
	c := classify.NewRuleClassifier()

	if finding := c.ClassifyMessage("hello there"); finding == nil {
		fmt.Println("no finding")
	}
	// Output:
	// no finding
}
