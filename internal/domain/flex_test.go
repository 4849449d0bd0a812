package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberUnmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Number
	}{
		{"number", `12.5`, 12.5},
		{"numeric string", `"12.5"`, 12.5},
		{"comma separator", `"1 234,75"`, 1234.75},
		{"empty string", `""`, 0},
		{"null", `null`, 0},
		{"garbage", `"n/a"`, 0},
		{"negative", `-300`, -300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var n Number
			require.NoError(t, json.Unmarshal([]byte(tt.input), &n))
			assert.Equal(t, tt.want, n)
		})
	}
}

func TestTextUnmarshal(t *testing.T) {
	var payload struct {
		A Text `json:"a"`
		B Text `json:"b"`
		C Text `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 123456789, "b": " srid-1 ", "c": null}`), &payload))

	assert.Equal(t, "123456789", payload.A.String())
	assert.Equal(t, "srid-1", payload.B.String())
	assert.Empty(t, payload.C.String())
}

func TestTransactionRecordDecodesLooseFields(t *testing.T) {
	raw := `{
		"rr_dt": "2024-06-16",
		"doc_type_name": "Продажа",
		"supplier_oper_name": "Продажа",
		"srid": "D1",
		"sa_name": "ABC-1",
		"nm_id": 100,
		"barcode": 4600000000001,
		"quantity": "2",
		"retail_price": 1000,
		"retail_amount": "900,00",
		"ppvz_for_pay": null,
		"delivery_rub": ""
	}`

	var r TransactionRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &r))

	assert.Equal(t, Number(2), r.Quantity)
	assert.Equal(t, Number(900), r.RetailAmountAfterDiscount)
	assert.Zero(t, r.AmountPayableToSeller)
	assert.Zero(t, r.LogisticsCost)
	assert.Equal(t, "100-4600000000001", r.CostPriceKey())
	assert.Equal(t, "D1", r.DocumentID())

	day, ok := r.RecordDate()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC), day)
}

func TestParseDay(t *testing.T) {
	want := time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC)
	for _, value := range []string{
		"2024-06-17",
		"2024-06-17T23:59:59Z",
		"2024-06-17T08:00:00+03:00",
		"2024-06-17T10:11:12",
		"2024-06-17 10:11:12",
		"2024-06-17T10:11:12.123456",
		"17.06.2024",
	} {
		day, ok := ParseDay(value)
		require.True(t, ok, value)
		assert.Equal(t, want, day, value)
	}

	for _, value := range []string{"", "yesterday", "06/17/2024"} {
		_, ok := ParseDay(value)
		assert.False(t, ok, value)
	}
}

func TestRecordDateFallsBackToSaleDate(t *testing.T) {
	r := TransactionRecord{SaleDate: "2024-06-15T12:00:00"}
	day, ok := r.RecordDate()
	require.True(t, ok)
	assert.Equal(t, 15, day.Day())

	_, ok = TransactionRecord{}.RecordDate()
	assert.False(t, ok)
}
