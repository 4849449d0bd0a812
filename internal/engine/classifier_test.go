package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"wbreport/internal/domain"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		record domain.TransactionRecord
		want   domain.Category
	}{
		{
			name:   "strict sale",
			record: domain.TransactionRecord{DocumentType: "Продажа", OperationName: "Продажа"},
			want:   domain.CategorySale,
		},
		{
			name:   "sale correction is not a strict sale",
			record: domain.TransactionRecord{DocumentType: "Продажа", OperationName: "Коррекция продаж"},
			want:   domain.CategoryUnclassified,
		},
		{
			name:   "return by document type",
			record: domain.TransactionRecord{DocumentType: "Возврат", OperationName: "Возврат"},
			want:   domain.CategoryReturn,
		},
		{
			name:   "return correction still a return",
			record: domain.TransactionRecord{DocumentType: "Возврат", OperationName: "Коррекция возвратов"},
			want:   domain.CategoryReturn,
		},
		{
			name:   "voluntary compensation",
			record: domain.TransactionRecord{OperationName: "Добровольная компенсация при возврате", AmountPayableToSeller: 120},
			want:   domain.CategoryVoluntaryCompensation,
		},
		{
			name:   "bare withholding counts as advertising",
			record: domain.TransactionRecord{OperationName: "Удержание", Deduction: 500},
			want:   domain.CategoryAdvertisingDeduction,
		},
		{
			name:   "promotion service",
			record: domain.TransactionRecord{OperationName: "Оказание услуг «ВБ.Продвижение»", Deduction: 300},
			want:   domain.CategoryAdvertisingDeduction,
		},
		{
			name:   "advertising substring is case insensitive",
			record: domain.TransactionRecord{OperationName: "РЕКЛАМНАЯ кампания", Deduction: 1},
			want:   domain.CategoryAdvertisingDeduction,
		},
		{
			name:   "credit body in operation name",
			record: domain.TransactionRecord{OperationName: "Перевод основного долга по кредиту", Deduction: 10000},
			want:   domain.CategoryCreditBody,
		},
		{
			name:   "credit interest in operation name",
			record: domain.TransactionRecord{OperationName: "Уплата процентов по кредиту", Deduction: 700},
			want:   domain.CategoryCreditInterest,
		},
		{
			name: "withholding with credit bonus type falls through to credit",
			record: domain.TransactionRecord{
				OperationName: "Удержание",
				BonusTypeName: "Перевод основного долга",
				Deduction:     10000,
			},
			want: domain.CategoryCreditBody,
		},
		{
			name: "withholding with interest bonus type",
			record: domain.TransactionRecord{
				OperationName: "Удержание",
				BonusTypeName: "Проценты по кредиту за июнь",
				Deduction:     650,
			},
			want: domain.CategoryCreditInterest,
		},
		{
			name:   "missing operation name uses bonus type",
			record: domain.TransactionRecord{BonusTypeName: "Погашение процентов", Deduction: 50},
			want:   domain.CategoryCreditInterest,
		},
		{
			name:   "unmatched deduction",
			record: domain.TransactionRecord{OperationName: "Компенсация ущерба", Deduction: 15},
			want:   domain.CategoryOtherDeduction,
		},
		{
			name:   "logistics line",
			record: domain.TransactionRecord{OperationName: "Логистика", LogisticsCost: 80},
			want:   domain.CategoryUnclassified,
		},
		{
			name:   "empty record",
			record: domain.TransactionRecord{},
			want:   domain.CategoryUnclassified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.record))
		})
	}
}

func TestSalePredicates(t *testing.T) {
	correction := domain.TransactionRecord{DocumentType: "Продажа", OperationName: "Коррекция продаж"}
	assert.True(t, IsLooseSale(correction))
	assert.False(t, IsStrictSale(correction))
	assert.True(t, IsCorrection(correction))

	returnCorrection := domain.TransactionRecord{DocumentType: "Возврат", OperationName: "Коррекция возвратов"}
	assert.True(t, IsReturn(returnCorrection))
	assert.False(t, IsStrictReturn(returnCorrection))
}

func TestClassifyBatchAssignsExactlyOneCategory(t *testing.T) {
	records := []domain.TransactionRecord{
		{DocumentType: "Продажа", OperationName: "Продажа"},
		{DocumentType: "Возврат", OperationName: "Возврат"},
		{OperationName: "Удержание", Deduction: 10},
		{OperationName: "Логистика"},
		{OperationName: "Штраф", Penalty: 100},
		{OperationName: "Перевод основного долга", Deduction: 1},
	}

	categories := ClassifyBatch(records)
	assert.Len(t, categories, len(records))

	counts := CountCategories(categories)
	assert.Len(t, counts, len(domain.Categories()))

	total := 0
	for _, n := range counts {
		total += n
	}
	assert.Equal(t, len(records), total)
	assert.Equal(t, 1, counts[domain.CategorySale])
	assert.Equal(t, 1, counts[domain.CategoryReturn])
	assert.Equal(t, 1, counts[domain.CategoryAdvertisingDeduction])
	assert.Equal(t, 1, counts[domain.CategoryCreditBody])
	assert.Equal(t, 2, counts[domain.CategoryUnclassified])
}
