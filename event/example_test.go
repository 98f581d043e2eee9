package event_test

import (
	"fmt"

	"github.com/jonwraymond/gatewayobs/event"
)

func ExampleUsageFromMap() {
	// Legacy and modern spellings normalize to the same record.
	legacy := event.UsageFromMap(map[string]any{"inputTokens": 20, "outputTokens": 8})
	modern := event.UsageFromMap(map[string]any{"input": 20, "output": 8})

	fmt.Println(legacy == modern)
	fmt.Println(legacy.Total())
	// Output:
	// true
	// 28
}

func ExampleMessageReceivedFromMap() {
	ev := event.MessageReceivedFromMap(map[string]any{
		"channel":    "slack",
		"sessionKey": "s1",
		"text":       "hello",
	})

	// A missing sender degrades to the documented fallback.
	fmt.Println(ev.Channel, ev.SenderID)
	// Output:
	// slack unknown
}
