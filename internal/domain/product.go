package domain

import "github.com/shopspring/decimal"

// ProductAnalyticsRow aggregates the realization lines of one seller SKU.
type ProductAnalyticsRow struct {
	SellerSKU string   `json:"seller_sku"`
	WBSKUs    []string `json:"wb_skus"`

	Deliveries int     `json:"deliveries"`
	Sales      int     `json:"sales"`
	Returns    int     `json:"returns"`
	RefundRate float64 `json:"refund_rate"`

	SoldQuantity     int `json:"sold_quantity"`
	ReturnedQuantity int `json:"returned_quantity"`

	RevenueBeforeDiscount decimal.Decimal `json:"revenue_before_discount"`
	RevenueAfterDiscount  decimal.Decimal `json:"revenue_after_discount"`
	Commission            decimal.Decimal `json:"commission"`
	Logistics             decimal.Decimal `json:"logistics"`
	Storage               decimal.Decimal `json:"storage"`
	Penalties             decimal.Decimal `json:"penalties"`
	CostOfGoods           decimal.Decimal `json:"cost_of_goods"`
	CostPriceKnown        bool            `json:"cost_price_known"`
	Margin                decimal.Decimal `json:"margin"`
	MarginPercent         decimal.Decimal `json:"margin_percent"`

	AdvertisingSpend     decimal.Decimal `json:"advertising_spend"`
	Profit               decimal.Decimal `json:"profit"`
	ProfitabilityPercent decimal.Decimal `json:"profitability_percent"`
}
