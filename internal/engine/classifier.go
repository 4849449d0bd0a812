package engine

import (
	"strings"

	"wbreport/internal/domain"
)

// Realization report vocabulary.
const (
	DocTypeSale   = "Продажа"
	DocTypeReturn = "Возврат"

	OperSale                  = "Продажа"
	OperReturn                = "Возврат"
	OperVoluntaryCompensation = "Добровольная компенсация при возврате"
	OperWithholding           = "Удержание"
	OperLogistics             = "Логистика"
)

var advertisingMarkers = []string{
	"реклам",
	"продвижен",
}

var creditBodyMarkers = []string{
	"перевод основного долга",
	"основного долга",
	"основной долг",
	"тело кредита",
	"погашение кредита",
}

var creditInterestMarkers = []string{
	"процентов по кредит",
	"проценты по кредит",
	"процентов за пользование",
	"погашение процентов",
	"уплата процентов",
}

// Classify assigns exactly one category to a realization record. Rules
// are evaluated in priority order and the first match wins.
func Classify(r domain.TransactionRecord) domain.Category {
	if IsStrictSale(r) {
		return domain.CategorySale
	}
	if IsReturn(r) {
		return domain.CategoryReturn
	}
	if sameText(r.OperationName, OperVoluntaryCompensation) {
		return domain.CategoryVoluntaryCompensation
	}
	if isAdvertisingDeduction(r) {
		return domain.CategoryAdvertisingDeduction
	}
	if category, ok := classifyCredit(r); ok {
		return category
	}
	if r.Deduction != 0 {
		return domain.CategoryOtherDeduction
	}
	return domain.CategoryUnclassified
}

// ClassifyBatch classifies records keeping input order.
func ClassifyBatch(records []domain.TransactionRecord) []domain.Category {
	categories := make([]domain.Category, len(records))
	for i, r := range records {
		categories[i] = Classify(r)
	}
	return categories
}

// CountCategories returns how many records fell into each category.
// Every category is present in the result, zero when unused.
func CountCategories(categories []domain.Category) map[domain.Category]int {
	counts := make(map[domain.Category]int, len(domain.Categories()))
	for _, c := range domain.Categories() {
		counts[c] = 0
	}
	for _, c := range categories {
		counts[c]++
	}
	return counts
}

// IsStrictSale is the document/operation pair used by the core sale metrics.
func IsStrictSale(r domain.TransactionRecord) bool {
	return sameText(r.DocumentType, DocTypeSale) && sameText(r.OperationName, OperSale)
}

// IsLooseSale accepts any sale document, corrections included.
func IsLooseSale(r domain.TransactionRecord) bool {
	return sameText(r.DocumentType, DocTypeSale)
}

// IsReturn matches any return document.
func IsReturn(r domain.TransactionRecord) bool {
	return sameText(r.DocumentType, DocTypeReturn)
}

// IsStrictReturn additionally requires the return operation.
func IsStrictReturn(r domain.TransactionRecord) bool {
	return IsReturn(r) && sameText(r.OperationName, OperReturn)
}

// IsCorrection is a sale document whose operation is not a plain sale.
func IsCorrection(r domain.TransactionRecord) bool {
	return IsLooseSale(r) && !IsStrictSale(r)
}

func isAdvertisingDeduction(r domain.TransactionRecord) bool {
	operation := normalize(r.OperationName)
	if containsAny(operation, advertisingMarkers) {
		return true
	}
	if operation != normalize(OperWithholding) {
		return false
	}

	// A bare withholding is advertising unless its bonus type says credit.
	bonus := normalize(r.BonusTypeName)
	if containsAny(bonus, creditBodyMarkers) || containsAny(bonus, creditInterestMarkers) {
		return false
	}
	return true
}

func classifyCredit(r domain.TransactionRecord) (domain.Category, bool) {
	texts := []string{normalize(r.OperationName)}
	if texts[0] == "" || texts[0] == normalize(OperWithholding) {
		texts = append(texts, normalize(r.BonusTypeName))
	}

	for _, text := range texts {
		if containsAny(text, creditBodyMarkers) {
			return domain.CategoryCreditBody, true
		}
		if containsAny(text, creditInterestMarkers) {
			return domain.CategoryCreditInterest, true
		}
	}
	return domain.CategoryUnclassified, false
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func sameText(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), b)
}

func containsAny(s string, substrs []string) bool {
	if s == "" {
		return false
	}
	for _, substr := range substrs {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}
