package pilot

// Usage tracks token consumption reported by the provider for one response.
// Providers that do not report a field leave it at zero.
type Usage struct {
	InputTokens     int
	OutputTokens    int
	CacheReadTokens int
}

// Add returns the element-wise sum of u and o.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:     u.InputTokens + o.InputTokens,
		OutputTokens:    u.OutputTokens + o.OutputTokens,
		CacheReadTokens: u.CacheReadTokens + o.CacheReadTokens,
	}
}
