package metadomain

// Tipos de fio da hierarquia de anúncios retornada pela Graph API:
// conta → campanha → conjunto de anúncios (ad set) → anúncio.

type Campaign struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Objective string `json:"objective"`
}

type AdSet struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	CampaignID string `json:"campaign_id"`
}

type Ad struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"`
	AdSetID  string `json:"adset_id"`
	Creative *AdCreative `json:"creative,omitempty"`
}

type AdCreative struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Body string `json:"body,omitempty"`
}

type Cursors struct {
	Before string `json:"before"`
	After  string `json:"after"`
}

type Paging struct {
	Cursors Cursors `json:"cursors"`
	Next    string  `json:"next,omitempty"`
}
