package domain

// Campaign type codes. Each code is a separate advertising product and
// keeps its SKUs in a different nested structure.
const (
	CampaignTypeCatalog    = 4
	CampaignTypeCard       = 5
	CampaignTypeSearch     = 6
	CampaignTypeRecommend  = 7
	CampaignTypeAuto       = 8
	CampaignTypeSearchCard = 9
)

type Campaign struct {
	CampaignID  int64  `json:"advertId"`
	Name        string `json:"name"`
	Type        int    `json:"type"`
	Status      int    `json:"status"`
	DailyBudget Number `json:"dailyBudget"`
	CreateTime  string `json:"createTime"`
	ChangeTime  string `json:"changeTime"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`

	AutoParams       *AutoParams    `json:"autoParams,omitempty"`
	UnitedParams     []UnitedParams `json:"unitedParams,omitempty"`
	AuctionMultibids []AuctionBid   `json:"auction_multibids,omitempty"`
}

type AutoParams struct {
	NMs []Text `json:"nms"`
}

type UnitedParams struct {
	NMs []Text `json:"nms"`
}

type AuctionBid struct {
	NM  Text   `json:"nm"`
	Bid Number `json:"bid"`
}

// CampaignList is the grouped answer of adv/v1/promotion/count.
type CampaignList struct {
	Adverts []struct {
		Type       int `json:"type"`
		Status     int `json:"status"`
		Count      int `json:"count"`
		AdvertList []struct {
			AdvertID   int64  `json:"advertId"`
			ChangeTime string `json:"changeTime"`
		} `json:"advert_list"`
	} `json:"adverts"`
	All int `json:"all"`
}

// IDs flattens the grouped list in upstream order.
func (l CampaignList) IDs() []int64 {
	var ids []int64
	for _, group := range l.Adverts {
		for _, advert := range group.AdvertList {
			ids = append(ids, advert.AdvertID)
		}
	}
	return ids
}

// AdvertisingPayment is an advertising account top-up (adv/v1/payments).
type AdvertisingPayment struct {
	ID         int64  `json:"id"`
	Date       string `json:"date"`
	Sum        Number `json:"sum"`
	Type       int    `json:"type"`
	StatusID   int    `json:"statusId"`
	CardStatus string `json:"cardStatus"`
}
