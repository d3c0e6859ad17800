package catalog

// Default returns the built-in catalog of paid-media metrics and common
// business constants.
func Default() *Catalog {
	return &Catalog{
		Metrics: []Metric{
			{ID: "impressions-paid", Name: "Impressions (paid)", Source: "Google Ads", Category: "Performance"},
			{ID: "clicks-paid", Name: "Clicks (paid)", Source: "Google Ads", Category: "Performance"},
			{ID: "conversions-paid", Name: "Conversions (paid)", Source: "Google Ads", Category: "Conversions"},
			{ID: "conversions-value", Name: "Conversions value (paid)", Source: "Google Ads", Category: "Revenue"},
			{ID: "cost-paid", Name: "Cost (paid)", Source: "Google Ads", Category: "Cost"},
			{ID: "ctr-paid", Name: "CTR (paid)", Source: "Google Ads", Category: "Performance"},
			{ID: "cpc-paid", Name: "Average CPC (paid)", Source: "Google Ads", Category: "Cost"},
			{ID: "cpm-paid", Name: "Average CPM (paid)", Source: "Google Ads", Category: "Cost"},
			{ID: "active-view-impressions", Name: "Active view impressions (paid)", Source: "Google Ads", Category: "Viewability"},
			{ID: "active-view-measurable", Name: "Active view measurable impressions (paid)", Source: "Google Ads", Category: "Viewability"},
			{ID: "conversion-all-sources", Name: "Conversions (all sources) (paid)", Source: "Google Ads", Category: "Conversions"},
		},
		Constants: []Constant{
			{ID: "vat-rate", Name: "VAT Rate", Value: 0.077, Unit: "%"},
			{ID: "return-rate-de", Name: "Return Rate (DE)", Value: 0.12, Unit: "%", TimeSeries: true},
			{ID: "return-rate-ch", Name: "Return Rate (CH)", Value: 0.08, Unit: "%", TimeSeries: true},
			{ID: "margin-factor", Name: "Margin Factor", Value: 0.35, Unit: "%"},
			{ID: "ltv-multiplier", Name: "LTV Multiplier", Value: 2.5},
			{ID: "flown-factor", Name: "Flown Factor", Value: 0.92, TimeSeries: true},
		},
	}
}
