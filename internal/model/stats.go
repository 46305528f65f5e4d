package model

type CategoryStat struct {
	Label      string `json:"label"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
	Color      string `json:"color"`
}

type TopItem struct {
	Rank  int    `json:"rank"`
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

type Statistics struct {
	CategoryData   []CategoryStat `json:"categoryData"`
	TopItems       []TopItem      `json:"topItems"`
	TotalPurchases int            `json:"totalPurchases"`
}
