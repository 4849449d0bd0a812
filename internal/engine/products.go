package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"wbreport/internal/domain"
)

// DeliveryField extracts a delivery count candidate from a record.
type DeliveryField func(domain.TransactionRecord) float64

// DefaultDeliveryFields reads delivery_amount first and falls back to the
// quantity of a logistics line when delivery_amount is missing.
var DefaultDeliveryFields = []DeliveryField{
	func(r domain.TransactionRecord) float64 { return r.DeliveryAmount.Float64() },
	func(r domain.TransactionRecord) float64 {
		if sameText(r.OperationName, OperLogistics) && r.ReturnAmount == 0 {
			return r.Quantity.Float64()
		}
		return 0
	},
}

type ProductInput struct {
	Transactions               []domain.TransactionRecord
	AdvertisingSpendByCampaign map[int64]float64
	CampaignSKUs               map[int64]string
	CostPrices                 CostPriceBook
	DeliveryFields             []DeliveryField
}

type productGroup struct {
	row     domain.ProductAnalyticsRow
	wbSKUs  map[string]struct{}
	lookups int
	misses  int
}

// AggregateByProduct groups reconciled records by seller SKU. Records
// without a seller SKU are not grouped. Rows are ordered by seller SKU.
func AggregateByProduct(in ProductInput) []domain.ProductAnalyticsRow {
	fields := in.DeliveryFields
	if len(fields) == 0 {
		fields = DefaultDeliveryFields
	}

	groups := make(map[string]*productGroup)
	for _, r := range in.Transactions {
		if r.SellerSKU == "" {
			continue
		}
		g, ok := groups[r.SellerSKU]
		if !ok {
			g = &productGroup{
				row:    domain.ProductAnalyticsRow{SellerSKU: r.SellerSKU},
				wbSKUs: make(map[string]struct{}),
			}
			groups[r.SellerSKU] = g
		}
		g.add(r, fields, in.CostPrices)
	}

	skus := make([]string, 0, len(groups))
	for sku := range groups {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	spendBySKU := advertisingBySKU(in.AdvertisingSpendByCampaign, in.CampaignSKUs)
	claimed := make(map[string]bool)

	rows := make([]domain.ProductAnalyticsRow, 0, len(skus))
	for _, sku := range skus {
		g := groups[sku]
		row := g.row

		for _, wbSKU := range row.WBSKUs {
			if claimed[wbSKU] {
				continue
			}
			claimed[wbSKU] = true
			row.AdvertisingSpend = row.AdvertisingSpend.Add(spendBySKU[wbSKU])
		}

		row.CostPriceKnown = g.lookups > 0 && g.misses == 0
		finishRow(&row)
		rows = append(rows, row)
	}
	return rows
}

func (g *productGroup) add(r domain.TransactionRecord, fields []DeliveryField, book CostPriceBook) {
	if wb := r.WBSKU.String(); wb != "" {
		if _, seen := g.wbSKUs[wb]; !seen {
			g.wbSKUs[wb] = struct{}{}
			g.row.WBSKUs = append(g.row.WBSKUs, wb)
		}
	}

	for _, field := range fields {
		if v := field(r); v != 0 {
			g.row.Deliveries += int(v)
			break
		}
	}

	g.row.Logistics = g.row.Logistics.Add(dec(r.LogisticsCost))
	g.row.Storage = g.row.Storage.Add(dec(r.StorageFee))
	g.row.Penalties = g.row.Penalties.Add(dec(r.Penalty))

	switch Classify(r) {
	case domain.CategorySale:
		g.row.Sales++
		g.row.SoldQuantity += r.Quantity.Int()
		g.row.RevenueBeforeDiscount = g.row.RevenueBeforeDiscount.Add(dec(r.RetailPriceBeforeDiscount))
		g.row.RevenueAfterDiscount = g.row.RevenueAfterDiscount.Add(dec(r.RetailAmountAfterDiscount))
		g.row.CostOfGoods = g.row.CostOfGoods.Add(g.cost(book, r))
	case domain.CategoryReturn:
		g.row.Returns++
		g.row.ReturnedQuantity += r.Quantity.Int()
		g.row.RevenueBeforeDiscount = g.row.RevenueBeforeDiscount.Sub(dec(r.RetailPriceBeforeDiscount))
		g.row.RevenueAfterDiscount = g.row.RevenueAfterDiscount.Sub(dec(r.RetailAmountAfterDiscount))
		g.row.CostOfGoods = g.row.CostOfGoods.Sub(g.cost(book, r))
	}
}

func (g *productGroup) cost(book CostPriceBook, r domain.TransactionRecord) decimal.Decimal {
	g.lookups++
	price, ok := book.lookupRecord(r)
	if !ok {
		g.misses++
		return decimal.Zero
	}
	return price.Mul(dec(r.Quantity))
}

func finishRow(row *domain.ProductAnalyticsRow) {
	if row.Sales > 0 {
		row.RefundRate = decimal.NewFromInt(int64(row.Returns)).
			Div(decimal.NewFromInt(int64(row.Sales))).
			Mul(hundred).Round(2).InexactFloat64()
	}

	row.Commission = row.RevenueBeforeDiscount.Sub(row.RevenueAfterDiscount)
	row.Margin = row.RevenueAfterDiscount.
		Sub(row.Logistics).
		Sub(row.Storage).
		Sub(row.Penalties).
		Sub(row.CostOfGoods)
	row.MarginPercent = percentOf(row.Margin, row.RevenueAfterDiscount)
	row.Profit = row.Margin.Sub(row.AdvertisingSpend)
	row.ProfitabilityPercent = percentOf(row.Profit, row.RevenueAfterDiscount)
}

func advertisingBySKU(spend map[int64]float64, campaignSKUs map[int64]string) map[string]decimal.Decimal {
	bySKU := make(map[string]decimal.Decimal)
	for campaignID, amount := range spend {
		sku, ok := campaignSKUs[campaignID]
		if !ok || sku == "" {
			continue
		}
		bySKU[sku] = bySKU[sku].Add(decimal.NewFromFloat(amount))
	}
	return bySKU
}

// CostPriceCompleteness is the share of rows with a known cost price, in
// percent. Rows without any sale or return are not counted.
func CostPriceCompleteness(rows []domain.ProductAnalyticsRow) float64 {
	counted, known := 0, 0
	for _, row := range rows {
		if row.Sales == 0 && row.Returns == 0 {
			continue
		}
		counted++
		if row.CostPriceKnown {
			known++
		}
	}
	if counted == 0 {
		return 100
	}
	return float64(known) / float64(counted) * 100
}

// AdvertisingSpendByCampaign sums ledger amounts per campaign.
func AdvertisingSpendByCampaign(ledger []domain.FinancialRecord) map[int64]float64 {
	spend := make(map[int64]float64)
	for _, entry := range ledger {
		spend[entry.CampaignID] += entry.Amount.Float64()
	}
	return spend
}

// StampSKUs returns a copy of the ledger with SKUs filled from the
// resolver's mapping.
func StampSKUs(ledger []domain.FinancialRecord, skus map[int64]string) []domain.FinancialRecord {
	out := make([]domain.FinancialRecord, len(ledger))
	for i, entry := range ledger {
		if sku, ok := skus[entry.CampaignID]; ok {
			entry.SKU = sku
		}
		out[i] = entry
	}
	return out
}
