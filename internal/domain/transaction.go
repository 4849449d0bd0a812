package domain

import (
	"strconv"
	"time"
)

// TransactionRecord is one line of the realization report
// (reportDetailByPeriod). Every money field defaults to 0 when the
// upstream omits it or sends something unparseable.
type TransactionRecord struct {
	RRDID          int64  `json:"rrd_id"`
	ReportID       int64  `json:"realizationreport_id"`
	Date           string `json:"rr_dt"`
	SaleDate       string `json:"sale_dt,omitempty"`
	DocumentType   string `json:"doc_type_name"`
	OperationName  string `json:"supplier_oper_name"`
	BonusTypeName  string `json:"bonus_type_name,omitempty"`
	DocumentNumber Text   `json:"srid"`

	SellerSKU string `json:"sa_name"`
	WBSKU     Text   `json:"nm_id"`
	Barcode   Text   `json:"barcode"`
	Subject   string `json:"subject_name,omitempty"`
	Brand     string `json:"brand_name,omitempty"`

	Quantity       Number `json:"quantity"`
	DeliveryAmount Number `json:"delivery_amount"`
	ReturnAmount   Number `json:"return_amount"`

	RetailPriceBeforeDiscount Number `json:"retail_price"`
	RetailAmountAfterDiscount Number `json:"retail_amount"`
	AmountPayableToSeller     Number `json:"ppvz_for_pay"`

	LogisticsCost Number `json:"delivery_rub"`
	StorageFee    Number `json:"storage_fee"`
	Penalty       Number `json:"penalty"`
	Deduction     Number `json:"deduction"`
	AcceptanceFee Number `json:"acceptance"`
	AddPayment    Number `json:"additional_payment"`
}

// RecordDate implements the buffer-day record contract.
func (r TransactionRecord) RecordDate() (time.Time, bool) {
	if day, ok := ParseDay(r.Date); ok {
		return day, true
	}
	return ParseDay(r.SaleDate)
}

func (r TransactionRecord) DocumentID() string {
	return r.DocumentNumber.String()
}

// CostPriceKey is the "{nmId}-{barcode}" key used by the cost-price store.
func (r TransactionRecord) CostPriceKey() string {
	return CostPriceKey(r.WBSKU.String(), r.Barcode.String())
}

// FinancialRecord is one entry of the advertising ledger (adv/v1/upd).
type FinancialRecord struct {
	CampaignID     int64  `json:"advertId"`
	CampaignName   string `json:"campName"`
	CampaignType   int    `json:"advertType"`
	Timestamp      string `json:"updTime"`
	Amount         Number `json:"updSum"`
	PaymentSource  string `json:"paymentType"`
	DocumentNumber Text   `json:"updNum"`
	SKU            string `json:"sku,omitempty"`
}

const (
	PaymentSourceInvoice = "Счет"
	PaymentSourceBalance = "Баланс"
)

func (r FinancialRecord) RecordDate() (time.Time, bool) {
	return ParseDay(r.Timestamp)
}

func (r FinancialRecord) DocumentID() string {
	return r.DocumentNumber.String()
}

func (r FinancialRecord) CampaignKey() string {
	return strconv.FormatInt(r.CampaignID, 10)
}
