package usage

import "strings"

// modelPricing is the estimated price per million tokens for one model.
type modelPricing struct {
	InputPerMtok       float64
	CachedInputPerMtok float64
	OutputPerMtok      float64
}

// pricingTable maps model name prefixes to pricing. Longest prefix wins.
var pricingTable = map[string]modelPricing{
	"gpt-5.2-codex":      {InputPerMtok: 1.75, CachedInputPerMtok: 0.175, OutputPerMtok: 14.00},
	"gpt-5.2":            {InputPerMtok: 1.75, CachedInputPerMtok: 0.175, OutputPerMtok: 14.00},
	"gpt-5.1-codex-mini": {InputPerMtok: 0.25, CachedInputPerMtok: 0.025, OutputPerMtok: 2.00},
	"gpt-5.1-codex":      {InputPerMtok: 1.25, CachedInputPerMtok: 0.125, OutputPerMtok: 10.00},
	"gpt-5.1":            {InputPerMtok: 1.25, CachedInputPerMtok: 0.125, OutputPerMtok: 10.00},
	"gpt-5-codex":        {InputPerMtok: 1.25, CachedInputPerMtok: 0.125, OutputPerMtok: 10.00},
	"gpt-5-mini":         {InputPerMtok: 0.25, CachedInputPerMtok: 0.025, OutputPerMtok: 2.00},
	"gpt-5-nano":         {InputPerMtok: 0.05, CachedInputPerMtok: 0.005, OutputPerMtok: 0.40},
	"gpt-5":              {InputPerMtok: 1.25, CachedInputPerMtok: 0.125, OutputPerMtok: 10.00},
}

// lookupPricing finds pricing for a model by longest matching prefix.
func lookupPricing(model string) (modelPricing, bool) {
	model = strings.ToLower(strings.TrimSpace(model))
	var (
		best    modelPricing
		bestLen = -1
	)
	for prefix, p := range pricingTable {
		if strings.HasPrefix(model, prefix) && len(prefix) > bestLen {
			best = p
			bestLen = len(prefix)
		}
	}
	return best, bestLen >= 0
}

// EstimateCost prices per-model usage in USD. Models without a pricing
// entry are listed in unknown and leave the estimate partial; the returned
// cost pointer is nil only when no model could be priced at all.
func EstimateCost(byModel map[string]*ModelUsage) (cost *float64, partial bool, unknown []string) {
	var total float64
	priced := false
	for _, name := range sortedModels(byModel) {
		u := byModel[name]
		p, ok := lookupPricing(name)
		if !ok {
			partial = true
			unknown = append(unknown, name)
			continue
		}
		priced = true
		uncached := u.InputTokens - u.CachedInputTokens
		if uncached < 0 {
			uncached = 0
		}
		total += float64(uncached) / 1e6 * p.InputPerMtok
		total += float64(u.CachedInputTokens) / 1e6 * p.CachedInputPerMtok
		total += float64(u.OutputTokens+u.ReasoningTokens) / 1e6 * p.OutputPerMtok
	}
	if !priced {
		return nil, partial, unknown
	}
	return &total, partial, unknown
}
