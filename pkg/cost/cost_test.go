package cost

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vlmscore/pkg/config"
	"vlmscore/pkg/vlm"
)

func usageWithReasoning(prompt, completion, reasoning int) vlm.Usage {
	usage := vlm.Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
	}
	if reasoning > 0 {
		usage.CompletionTokensDetails = &vlm.CompletionTokensDetails{ReasoningTokens: reasoning}
	}
	return usage
}

func TestCalculatorTotals(t *testing.T) {
	calc := NewCalculator(nil)

	calc.AddUsage(usageWithReasoning(1_000_000, 100_000, 50_000))
	calc.AddUsage(usageWithReasoning(500_000, 50_000, 0))
	calc.AddFailure()

	totals := calc.Totals()
	assert.Equal(t, int64(1_500_000), totals.InputTokens)
	assert.Equal(t, int64(150_000), totals.OutputTokens)
	assert.Equal(t, int64(50_000), totals.ReasoningTokens)
	assert.Equal(t, int64(200_000), totals.TotalOutputTokens)
	assert.Equal(t, int64(3), totals.TotalRequests)
	assert.Equal(t, int64(2), totals.SuccessfulRequests)

	// 1.5 Mtok input at 0.15 and 0.2 Mtok output at 1.50.
	assert.InDelta(t, 0.225, totals.InputCost, 1e-9)
	assert.InDelta(t, 0.300, totals.OutputCost, 1e-9)
	assert.InDelta(t, 0.525, totals.TotalCost, 1e-9)
}

func TestCalculatorCustomPricing(t *testing.T) {
	calc := NewCalculator(&config.CostConfig{
		InputPerMtok:  1.0,
		OutputPerMtok: 10.0,
		Currency:      "usd",
	})

	calc.AddUsage(usageWithReasoning(2_000_000, 1_000_000, 0))

	totals := calc.Totals()
	assert.InDelta(t, 2.0, totals.InputCost, 1e-9)
	assert.InDelta(t, 10.0, totals.OutputCost, 1e-9)
	assert.Equal(t, "$", totals.Symbol())
}

func TestCurrencySymbols(t *testing.T) {
	tests := []struct {
		currency string
		symbol   string
	}{
		{"yuan", "¥"},
		{"CNY", "¥"},
		{"", "¥"},
		{"usd", "$"},
		{"euro", "€"},
		{"chf", "chf "},
	}

	for _, tt := range tests {
		totals := Totals{Currency: tt.currency}
		assert.Equal(t, tt.symbol, totals.Symbol(), "currency %q", tt.currency)
	}
}

func TestAverageAndRate(t *testing.T) {
	totals := Totals{TotalCost: 1.2}

	assert.InDelta(t, 0.3, totals.AverageCost(4), 1e-9)
	assert.Zero(t, totals.AverageCost(0))
	assert.InDelta(t, 0.012, totals.CostPerSecond(100*time.Second), 1e-9)
	assert.Zero(t, totals.CostPerSecond(0))
}

func TestReport(t *testing.T) {
	calc := NewCalculator(nil)
	calc.AddUsage(usageWithReasoning(1_234_567, 89_012, 3_456))
	calc.AddFailure()

	report := calc.Report(2*time.Minute, 1)

	assert.Contains(t, report, "Cost Analysis Report")
	assert.Contains(t, report, "Input tokens:        1,234,567")
	assert.Contains(t, report, "Output tokens:       89,012")
	assert.Contains(t, report, "Reasoning tokens:    3,456")
	assert.Contains(t, report, "Total output tokens: 92,468")
	assert.Contains(t, report, "Total cost:     ¥")
	assert.Contains(t, report, "Cost per image: ¥")
	assert.Contains(t, report, "Successful requests: 1")
	assert.Contains(t, report, "Total requests:      2")
	assert.Contains(t, report, "Cost per second:     ¥")
}

func TestReportOmitsOptionalLines(t *testing.T) {
	calc := NewCalculator(nil)
	calc.AddUsage(usageWithReasoning(1000, 100, 0))

	report := calc.Report(0, 0)

	assert.NotContains(t, report, "Reasoning tokens")
	assert.NotContains(t, report, "Cost per image")
	assert.NotContains(t, report, "Cost per second")
}

func TestCalculatorConcurrentAdds(t *testing.T) {
	calc := NewCalculator(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			calc.AddUsage(usageWithReasoning(100, 10, 1))
			calc.AddFailure()
		}()
	}
	wg.Wait()

	totals := calc.Totals()
	require.Equal(t, int64(100), totals.TotalRequests)
	assert.Equal(t, int64(50), totals.SuccessfulRequests)
	assert.Equal(t, int64(5000), totals.InputTokens)
	assert.Equal(t, int64(500), totals.OutputTokens)
	assert.Equal(t, int64(50), totals.ReasoningTokens)
}
