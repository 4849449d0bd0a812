package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"wbreport/internal/domain"
)

// Metric names of the by-periods summary. They are sheet labels read by
// the report writer and must not change.
const (
	MetricDeliveries    = "Доставки, шт"
	MetricRefusals      = "Отказы, шт"
	MetricSalesQty      = "Продажи, шт"
	MetricReturnsQty    = "Возвраты, шт"
	MetricRealizedQty   = "Реализовано, шт"
	MetricBuyoutPercent = "Процент выкупа, %"

	MetricSalesBefore    = "Продажи до СПП"
	MetricReturnsBefore  = "Возвраты до СПП"
	MetricTotalBefore    = "Вся стоимость до СПП"
	MetricAvgCheckBefore = "Средний чек до СПП"

	MetricSalesAfter    = "Продажи после СПП"
	MetricReturnsAfter  = "Возвраты после СПП"
	MetricTotalAfter    = "Вся стоимость после СПП"
	MetricAvgCheckAfter = "Средний чек после СПП"
	MetricCorrections   = "Коррекции продаж"
	MetricDiscount      = "Скидка СПП"

	MetricSalesPayable      = "К перечислению за продажи"
	MetricReturnsPayable    = "К перечислению за возвраты"
	MetricNetPayable        = "Итого к перечислению"
	MetricCompensation      = "Добровольная компенсация при возврате"
	MetricPlannedCommission = "Комиссия ВБ плановая (до СПП)"
	MetricActualCommission  = "Комиссия ВБ фактическая (после СПП)"

	MetricLogistics         = "Логистика"
	MetricPenalties         = "Штрафы"
	MetricStorage           = "Хранение"
	MetricAcceptance        = "Платная приемка"
	MetricAdvertising       = "Реклама"
	MetricLedgerAdvertising = "Реклама по кабинету (УПД)"
	MetricCreditBody        = "Кредит: основной долг"
	MetricCreditInterest    = "Кредит: проценты"
	MetricCreditTotal       = "Кредит итого"
	MetricAllDeductions     = "Все удержания"
	MetricOtherDeductions   = "Прочие удержания"
	MetricSurcharges        = "Доплаты"
	MetricIMIZR             = "ИМИЗР"
	MetricReviews           = "Отзывы"

	MetricServicesBefore = "Итого услуги ВБ до СПП"
	MetricServicesAfter  = "Итого услуги ВБ после СПП"
	MetricFinalPayment   = "Итого к оплате"
	MetricFinalPerUnit   = "Итого к оплате на единицу"

	MetricCostOfGoods   = "Себестоимость продаж"
	MetricCostPerUnit   = "Себестоимость на единицу"
	MetricTax           = "Налог"
	MetricMargin        = "Маржа"
	MetricMarginPercent = "Маржинальность, %"
	MetricROI           = "ROI, %"
	MetricMarginPerUnit = "Маржа на единицу"
)

// CreditFallback holds the constants used when no record in the dataset
// carries credit body or credit interest.
type CreditFallback struct {
	Body     float64
	Interest float64
}

type PeriodsOptions struct {
	CreditFallback CreditFallback
	TaxRatePercent float64
}

type PeriodsInput struct {
	Transactions []domain.TransactionRecord
	// Optional reconciled advertising ledger.
	Ledger     []domain.FinancialRecord
	CostPrices CostPriceBook
}

type PeriodsResult struct {
	Metrics            *domain.MetricSet
	Categories         map[domain.Category]int
	CreditFallbackUsed bool
	CostLookups        int
	CostMisses         int
}

type periodTotals struct {
	deliveries decimal.Decimal
	refusals   decimal.Decimal
	salesQty   decimal.Decimal
	returnsQty decimal.Decimal

	salesBefore   decimal.Decimal
	returnsBefore decimal.Decimal
	salesAfter    decimal.Decimal
	returnsAfter  decimal.Decimal
	corrections   decimal.Decimal

	salesPayable   decimal.Decimal
	returnsPayable decimal.Decimal
	compensation   decimal.Decimal

	logistics      decimal.Decimal
	penalties      decimal.Decimal
	storage        decimal.Decimal
	acceptance     decimal.Decimal
	advertising    decimal.Decimal
	creditBody     decimal.Decimal
	creditInterest decimal.Decimal
	deductions     decimal.Decimal

	costOfGoods decimal.Decimal
	costLookups int
	costMisses  int

	ledgerSpend decimal.Decimal
}

// AggregatePeriods reduces reconciled realization records into the
// by-periods summary. Metrics are computed tier by tier; each tier reads
// only metrics of earlier tiers. Empty input yields a full set of zeros.
func AggregatePeriods(in PeriodsInput, opts PeriodsOptions) PeriodsResult {
	categories := ClassifyBatch(in.Transactions)
	totals := accumulate(in, categories)
	counts := CountCategories(categories)

	result := PeriodsResult{
		Categories:  counts,
		CostLookups: totals.costLookups,
		CostMisses:  totals.costMisses,
	}

	creditBody, creditInterest := totals.creditBody, totals.creditInterest
	if counts[domain.CategoryCreditBody] == 0 && counts[domain.CategoryCreditInterest] == 0 {
		creditBody = decimal.NewFromFloat(opts.CreditFallback.Body)
		creditInterest = decimal.NewFromFloat(opts.CreditFallback.Interest)
		result.CreditFallbackUsed = true
	}

	b := &metricBuilder{set: domain.NewMetricSet()}

	// Tier 1: units
	deliveries := b.value(MetricDeliveries, totals.deliveries, "Σ delivery_amount по всем строкам")
	b.value(MetricRefusals, totals.refusals, "Σ return_amount по всем строкам")
	salesQty := b.value(MetricSalesQty, totals.salesQty, "Σ quantity, Продажа/Продажа")
	returnsQty := b.value(MetricReturnsQty, totals.returnsQty, "Σ quantity, Возврат/Возврат")
	realized := b.value(MetricRealizedQty, salesQty.Sub(returnsQty), "Продажи, шт − Возвраты, шт")
	b.value(MetricBuyoutPercent, percentOf(salesQty, deliveries), "Продажи, шт / Доставки, шт × 100")

	// Tier 2: before discount
	salesBefore := b.value(MetricSalesBefore, totals.salesBefore, "Σ retail_price, Продажа/Продажа")
	returnsBefore := b.value(MetricReturnsBefore, totals.returnsBefore, "Σ retail_price, Возврат/Возврат")
	totalBefore := b.value(MetricTotalBefore, salesBefore.Sub(returnsBefore), "Продажи до СПП − Возвраты до СПП")
	avgBefore := b.value(MetricAvgCheckBefore, perUnit(totalBefore, realized), "Вся стоимость до СПП / Реализовано, шт")
	b.base = totalBefore

	// Tier 3: after discount
	salesAfter := b.value(MetricSalesAfter, totals.salesAfter, "Σ retail_amount, Продажа/Продажа")
	returnsAfter := b.value(MetricReturnsAfter, totals.returnsAfter, "Σ retail_amount, Возврат/Возврат")
	totalAfter := b.value(MetricTotalAfter, salesAfter.Sub(returnsAfter), "Продажи после СПП − Возвраты после СПП")
	avgAfter := b.value(MetricAvgCheckAfter, perUnit(totalAfter, realized), "Вся стоимость после СПП / Реализовано, шт")
	corrections := b.value(MetricCorrections, totals.corrections, "Σ retail_amount, документ Продажа с операцией ≠ Продажа")
	discountPercent := decimal.Zero
	if !avgBefore.IsZero() {
		discountPercent = decimal.NewFromInt(1).Sub(avgAfter.Div(avgBefore)).Mul(hundred).Round(2)
	}
	b.withPercent(MetricDiscount, totalBefore.Sub(totalAfter).Sub(corrections), discountPercent,
		"Вся стоимость до СПП − Вся стоимость после СПП − Коррекции продаж; % = (1 − Средний чек после СПП / Средний чек до СПП) × 100")

	// Tier 4: payable to seller
	salesPayable := b.value(MetricSalesPayable, totals.salesPayable, "Σ ppvz_for_pay, Продажа/Продажа")
	returnsPayable := b.value(MetricReturnsPayable, totals.returnsPayable, "Σ ppvz_for_pay, Возврат/Возврат")
	netPayable := b.value(MetricNetPayable, salesPayable.Sub(returnsPayable), "К перечислению за продажи − К перечислению за возвраты")
	b.value(MetricCompensation, totals.compensation, "Σ ppvz_for_pay, Добровольная компенсация при возврате")
	plannedCommission := b.withShare(MetricPlannedCommission, totalBefore.Sub(netPayable), "Вся стоимость до СПП − Итого к перечислению")
	actualCommission := b.withShare(MetricActualCommission, totalAfter.Sub(netPayable), "Вся стоимость после СПП − Итого к перечислению")

	// Tier 5: deductions, each as a share of Вся стоимость до СПП
	logistics := b.withShare(MetricLogistics, totals.logistics, "Σ delivery_rub")
	penalties := b.withShare(MetricPenalties, totals.penalties, "Σ penalty")
	storage := b.withShare(MetricStorage, totals.storage, "Σ storage_fee")
	acceptance := b.withShare(MetricAcceptance, totals.acceptance, "Σ acceptance")
	advertising := b.withShare(MetricAdvertising, totals.advertising, "Σ deduction, удержания за рекламу и продвижение")
	b.withShare(MetricLedgerAdvertising, totals.ledgerSpend, "Σ updSum по документам рекламного кабинета в периоде")

	creditComment := "Σ deduction, %s"
	if result.CreditFallbackUsed {
		creditComment = "резервная константа: в данных нет строк %s"
	}
	creditBody = b.withShare(MetricCreditBody, creditBody, fmt.Sprintf(creditComment, "основного долга по кредиту"))
	creditInterest = b.withShare(MetricCreditInterest, creditInterest, fmt.Sprintf(creditComment, "процентов по кредиту"))
	creditTotal := b.withShare(MetricCreditTotal, creditBody.Add(creditInterest), "Кредит: основной долг + Кредит: проценты")

	allDeductions := b.value(MetricAllDeductions, totals.deductions, "Σ deduction по всем строкам")
	other := b.withShare(MetricOtherDeductions,
		allDeductions.Sub(totals.creditInterest).Sub(totals.creditBody).Sub(advertising),
		"Все удержания − удержания по процентам − удержания по основному долгу − Реклама")

	b.value(MetricSurcharges, decimal.Zero, "не рассчитывается, всегда 0")
	b.value(MetricIMIZR, decimal.Zero, "не рассчитывается, всегда 0")
	b.value(MetricReviews, decimal.Zero, "не рассчитывается, всегда 0")

	// Tier 6: totals
	services := logistics.Add(penalties).Add(storage).Add(acceptance).Add(advertising).Add(creditTotal).Add(other)
	b.withShare(MetricServicesBefore, plannedCommission.Add(services),
		"Комиссия ВБ плановая + Логистика + Штрафы + Хранение + Платная приемка + Реклама + Кредит итого + Прочие удержания")
	b.withShare(MetricServicesAfter, actualCommission.Add(services),
		"Комиссия ВБ фактическая + Логистика + Штрафы + Хранение + Платная приемка + Реклама + Кредит итого + Прочие удержания")

	finalPayment := b.withShare(MetricFinalPayment, FinalPayment(totalAfter, []decimal.Decimal{
		actualCommission, logistics, penalties, storage, acceptance, advertising, creditBody, creditInterest, other,
	}), "Вся стоимость после СПП − (Комиссия ВБ фактическая + Логистика + Штрафы + Хранение + Платная приемка + Реклама + Кредит: основной долг + Кредит: проценты + Прочие удержания)")
	b.value(MetricFinalPerUnit, perUnit(finalPayment, realized), "Итого к оплате / Реализовано, шт")

	// Tier 7: cost of goods and margin
	costOfGoods := b.withShare(MetricCostOfGoods, totals.costOfGoods, "Σ quantity × себестоимость (продажи) − Σ quantity × себестоимость (возвраты)")
	b.value(MetricCostPerUnit, perUnit(costOfGoods, realized), "Себестоимость продаж / Реализовано, шт")
	tax := b.withShare(MetricTax, totalAfter.Mul(decimal.NewFromFloat(opts.TaxRatePercent)).Div(hundred).Round(2),
		fmt.Sprintf("Вся стоимость после СПП × %s%%", decimal.NewFromFloat(opts.TaxRatePercent).String()))
	margin := b.withShare(MetricMargin, finalPayment.Sub(costOfGoods).Sub(tax), "Итого к оплате − Себестоимость продаж − Налог")
	b.value(MetricMarginPercent, percentOf(margin, totalAfter), "Маржа / Вся стоимость после СПП × 100")
	b.value(MetricROI, percentOf(margin, costOfGoods), "Маржа / Себестоимость продаж × 100")
	b.value(MetricMarginPerUnit, perUnit(margin, realized), "Маржа / Реализовано, шт")

	result.Metrics = b.set
	return result
}

// FinalPayment subtracts every deduction line from the post-discount total.
func FinalPayment(totalAfter decimal.Decimal, deductions []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, d := range deductions {
		sum = sum.Add(d)
	}
	return totalAfter.Sub(sum)
}

func accumulate(in PeriodsInput, categories []domain.Category) periodTotals {
	var t periodTotals

	for i, r := range in.Transactions {
		t.deliveries = t.deliveries.Add(dec(r.DeliveryAmount))
		t.refusals = t.refusals.Add(dec(r.ReturnAmount))
		t.logistics = t.logistics.Add(dec(r.LogisticsCost))
		t.penalties = t.penalties.Add(dec(r.Penalty))
		t.storage = t.storage.Add(dec(r.StorageFee))
		t.acceptance = t.acceptance.Add(dec(r.AcceptanceFee))
		t.deductions = t.deductions.Add(dec(r.Deduction))

		switch {
		case IsStrictSale(r):
			t.salesQty = t.salesQty.Add(dec(r.Quantity))
			t.salesBefore = t.salesBefore.Add(dec(r.RetailPriceBeforeDiscount))
			t.salesAfter = t.salesAfter.Add(dec(r.RetailAmountAfterDiscount))
			t.salesPayable = t.salesPayable.Add(dec(r.AmountPayableToSeller))
			t.costOfGoods = t.costOfGoods.Add(t.cost(in.CostPrices, r))
		case IsCorrection(r):
			t.corrections = t.corrections.Add(dec(r.RetailAmountAfterDiscount))
		case IsStrictReturn(r):
			t.returnsQty = t.returnsQty.Add(dec(r.Quantity))
			t.returnsBefore = t.returnsBefore.Add(dec(r.RetailPriceBeforeDiscount))
			t.returnsAfter = t.returnsAfter.Add(dec(r.RetailAmountAfterDiscount))
			t.returnsPayable = t.returnsPayable.Add(dec(r.AmountPayableToSeller))
			t.costOfGoods = t.costOfGoods.Sub(t.cost(in.CostPrices, r))
		}

		switch categories[i] {
		case domain.CategoryVoluntaryCompensation:
			t.compensation = t.compensation.Add(dec(r.AmountPayableToSeller))
		case domain.CategoryAdvertisingDeduction:
			t.advertising = t.advertising.Add(dec(r.Deduction))
		case domain.CategoryCreditBody:
			t.creditBody = t.creditBody.Add(dec(r.Deduction))
		case domain.CategoryCreditInterest:
			t.creditInterest = t.creditInterest.Add(dec(r.Deduction))
		}
	}

	for _, entry := range in.Ledger {
		t.ledgerSpend = t.ledgerSpend.Add(dec(entry.Amount))
	}

	return t
}

func (t *periodTotals) cost(book CostPriceBook, r domain.TransactionRecord) decimal.Decimal {
	t.costLookups++
	price, ok := book.lookupRecord(r)
	if !ok {
		t.costMisses++
		return decimal.Zero
	}
	return price.Mul(dec(r.Quantity))
}

type metricBuilder struct {
	set  *domain.MetricSet
	base decimal.Decimal
}

func (b *metricBuilder) value(name string, v decimal.Decimal, comment string) decimal.Decimal {
	b.set.Put(domain.Metric{Name: name, Value: v, Comment: comment})
	return v
}

// withShare records v together with its share of Вся стоимость до СПП.
func (b *metricBuilder) withShare(name string, v decimal.Decimal, comment string) decimal.Decimal {
	return b.withPercent(name, v, percentOf(v, b.base), comment)
}

func (b *metricBuilder) withPercent(name string, v, percent decimal.Decimal, comment string) decimal.Decimal {
	b.set.Put(domain.Metric{
		Name:    name,
		Value:   v,
		Percent: decimal.NewNullDecimal(percent),
		Comment: comment,
	})
	return v
}
