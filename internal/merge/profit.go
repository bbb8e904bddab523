package merge

import "github.com/fekuna/omnipos-catalog-sync/internal/model"

// ComputeProfit derives profit and margin for sellingPrice. Margin is left at
// zero and undefined when sellingPrice is not positive.
func ComputeProfit(sellingPrice float64, cost *model.CostRecord) model.Profit {
	p := model.Profit{SellingPrice: sellingPrice}
	if cost != nil {
		p.TotalCost = cost.ProductCost + cost.ShippingCost
	}
	p.Profit = sellingPrice - p.TotalCost
	if sellingPrice > 0 {
		p.Margin = p.Profit / sellingPrice * 100
		p.MarginDefined = true
	}
	return p
}
