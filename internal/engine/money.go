package engine

import (
	"github.com/shopspring/decimal"

	"wbreport/internal/domain"
)

var hundred = decimal.NewFromInt(100)

func dec(n domain.Number) decimal.Decimal {
	return decimal.NewFromFloat(float64(n))
}

// safeDiv returns 0 when the denominator is 0.
func safeDiv(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den)
}

// percentOf is num/den*100 rounded to hundredths, 0 when den is 0.
func percentOf(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Div(den).Mul(hundred).Round(2)
}

// perUnit divides by a unit count, rounded to kopecks.
func perUnit(amount decimal.Decimal, units decimal.Decimal) decimal.Decimal {
	return safeDiv(amount, units).Round(2)
}

// CostPriceBook resolves cost prices by "{nmId}-{barcode}" first and by
// vendor code second.
type CostPriceBook struct {
	byKey    map[string]decimal.Decimal
	byVendor map[string]decimal.Decimal
}

func NewCostPriceBook(prices []domain.CostPrice) CostPriceBook {
	book := CostPriceBook{
		byKey:    make(map[string]decimal.Decimal, len(prices)),
		byVendor: make(map[string]decimal.Decimal, len(prices)),
	}
	for _, p := range prices {
		price := decimal.NewFromFloat(p.Price)
		if p.NMID != "" {
			book.byKey[p.Key()] = price
		}
		if p.VendorCode != "" {
			book.byVendor[p.VendorCode] = price
		}
	}
	return book
}

// Lookup returns the cost price for a product. An entry stored without a
// barcode matches any barcode of that nmId.
func (b CostPriceBook) Lookup(nmID, barcode, vendorCode string) (decimal.Decimal, bool) {
	if price, ok := b.byKey[domain.CostPriceKey(nmID, barcode)]; ok {
		return price, true
	}
	if vendorCode != "" {
		if price, ok := b.byVendor[vendorCode]; ok {
			return price, true
		}
	}
	if barcode != "" {
		if price, ok := b.byKey[domain.CostPriceKey(nmID, "")]; ok {
			return price, true
		}
	}
	return decimal.Zero, false
}

func (b CostPriceBook) Len() int {
	return len(b.byKey) + len(b.byVendor)
}

func (b CostPriceBook) lookupRecord(r domain.TransactionRecord) (decimal.Decimal, bool) {
	return b.Lookup(r.WBSKU.String(), r.Barcode.String(), r.SellerSKU)
}
