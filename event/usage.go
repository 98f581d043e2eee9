package event

// Usage is the normalized token usage of a single message or a whole turn.
type Usage struct {
	Input      int64
	Output     int64
	CacheRead  int64
	CacheWrite int64
}

// Total returns the sum of all token classes.
func (u Usage) Total() int64 {
	return u.Input + u.Output + u.CacheRead + u.CacheWrite
}

// Add returns the element-wise sum of two usages.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		Input:      u.Input + o.Input,
		Output:     u.Output + o.Output,
		CacheRead:  u.CacheRead + o.CacheRead,
		CacheWrite: u.CacheWrite + o.CacheWrite,
	}
}

// IsZero reports whether no tokens were recorded.
func (u Usage) IsZero() bool {
	return u == Usage{}
}

// Alternate field spellings seen across gateway versions. The first
// matching spelling per field wins; later spellings are ignored so a
// message carrying both never double counts.
var (
	inputTokenKeys      = []string{"input", "inputTokens", "input_tokens"}
	outputTokenKeys     = []string{"output", "outputTokens", "output_tokens"}
	cacheReadTokenKeys  = []string{"cacheRead", "cacheReadTokens", "cache_read_tokens", "cache_read"}
	cacheWriteTokenKeys = []string{"cacheWrite", "cacheWriteTokens", "cache_write_tokens", "cache_write"}
)

// UsageFromMap normalizes an untyped usage record.
func UsageFromMap(p map[string]any) Usage {
	return Usage{
		Input:      firstInt64Field(p, inputTokenKeys),
		Output:     firstInt64Field(p, outputTokenKeys),
		CacheRead:  firstInt64Field(p, cacheReadTokenKeys),
		CacheWrite: firstInt64Field(p, cacheWriteTokenKeys),
	}
}

func firstInt64Field(p map[string]any, keys []string) int64 {
	if p == nil {
		return 0
	}
	for _, key := range keys {
		if _, ok := p[key]; ok {
			return int64Field(p, key)
		}
	}
	return 0
}
