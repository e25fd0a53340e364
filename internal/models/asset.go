package models

// AssetCategory is the tax class of a holding.
type AssetCategory string

const (
	CategoryEquity     AssetCategory = "equity"
	CategoryEquityFund AssetCategory = "equity_fund"
	CategoryDebtFund   AssetCategory = "debt_fund"
	CategoryGoldETF    AssetCategory = "gold_etf"
	CategoryBond       AssetCategory = "bond"
	CategoryCrypto     AssetCategory = "crypto"
)

// Categories lists every known category.
var Categories = []AssetCategory{
	CategoryEquity,
	CategoryEquityFund,
	CategoryDebtFund,
	CategoryGoldETF,
	CategoryBond,
	CategoryCrypto,
}

// EquityLinked reports whether c is taxed under the listed-equity rules.
func (c AssetCategory) EquityLinked() bool {
	return c == CategoryEquity || c == CategoryEquityFund
}
