package domain

// Category is the semantic class of a realization record.
type Category int

const (
	CategoryUnclassified Category = iota
	CategorySale
	CategoryReturn
	CategoryVoluntaryCompensation
	CategoryAdvertisingDeduction
	CategoryCreditBody
	CategoryCreditInterest
	CategoryOtherDeduction
)

var categoryNames = map[Category]string{
	CategoryUnclassified:          "unclassified",
	CategorySale:                  "sale",
	CategoryReturn:                "return",
	CategoryVoluntaryCompensation: "voluntary_compensation",
	CategoryAdvertisingDeduction:  "advertising_deduction",
	CategoryCreditBody:            "credit_body",
	CategoryCreditInterest:        "credit_interest",
	CategoryOtherDeduction:        "other_deduction",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return categoryNames[CategoryUnclassified]
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Categories lists every category in declaration order.
func Categories() []Category {
	return []Category{
		CategoryUnclassified,
		CategorySale,
		CategoryReturn,
		CategoryVoluntaryCompensation,
		CategoryAdvertisingDeduction,
		CategoryCreditBody,
		CategoryCreditInterest,
		CategoryOtherDeduction,
	}
}
