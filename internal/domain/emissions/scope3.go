package emissions

// Scope3Category is one of the 15 GHG Protocol value-chain categories
type Scope3Category string

const (
	CategoryPurchasedGoods      Scope3Category = "purchased_goods_services"
	CategoryCapitalGoods        Scope3Category = "capital_goods"
	CategoryFuelEnergy          Scope3Category = "fuel_energy_activities"
	CategoryUpstreamTransport   Scope3Category = "upstream_transport"
	CategoryWaste               Scope3Category = "waste_generated"
	CategoryBusinessTravel      Scope3Category = "business_travel"
	CategoryEmployeeCommuting   Scope3Category = "employee_commuting"
	CategoryUpstreamLeased      Scope3Category = "upstream_leased_assets"
	CategoryDownstreamTransport Scope3Category = "downstream_transport"
	CategoryProcessing          Scope3Category = "processing_sold_products"
	CategoryUseOfProducts       Scope3Category = "use_of_sold_products"
	CategoryEndOfLife           Scope3Category = "end_of_life"
	CategoryDownstreamLeased    Scope3Category = "downstream_leased_assets"
	CategoryFranchises          Scope3Category = "franchises"
	CategoryInvestments         Scope3Category = "investments"
)

// Direction splits Scope 3 categories into upstream and downstream halves
type Direction string

const (
	DirectionUpstream   Direction = "upstream"
	DirectionDownstream Direction = "downstream"
)

// scope3Directions follows the GHG Protocol: categories 1-8 are upstream,
// 9-15 downstream.
var scope3Directions = map[Scope3Category]Direction{
	CategoryPurchasedGoods:      DirectionUpstream,
	CategoryCapitalGoods:        DirectionUpstream,
	CategoryFuelEnergy:          DirectionUpstream,
	CategoryUpstreamTransport:   DirectionUpstream,
	CategoryWaste:               DirectionUpstream,
	CategoryBusinessTravel:      DirectionUpstream,
	CategoryEmployeeCommuting:   DirectionUpstream,
	CategoryUpstreamLeased:      DirectionUpstream,
	CategoryDownstreamTransport: DirectionDownstream,
	CategoryProcessing:          DirectionDownstream,
	CategoryUseOfProducts:       DirectionDownstream,
	CategoryEndOfLife:           DirectionDownstream,
	CategoryDownstreamLeased:    DirectionDownstream,
	CategoryFranchises:          DirectionDownstream,
	CategoryInvestments:         DirectionDownstream,
}

func (c Scope3Category) Valid() bool {
	_, ok := scope3Directions[c]
	return ok
}

// Direction returns the upstream/downstream tag for the category.
// Unknown categories are treated as upstream, the conservative default.
func (c Scope3Category) Direction() Direction {
	if d, ok := scope3Directions[c]; ok {
		return d
	}
	return DirectionUpstream
}

// AllScope3Categories returns the 15 categories in protocol order
func AllScope3Categories() []Scope3Category {
	return []Scope3Category{
		CategoryPurchasedGoods,
		CategoryCapitalGoods,
		CategoryFuelEnergy,
		CategoryUpstreamTransport,
		CategoryWaste,
		CategoryBusinessTravel,
		CategoryEmployeeCommuting,
		CategoryUpstreamLeased,
		CategoryDownstreamTransport,
		CategoryProcessing,
		CategoryUseOfProducts,
		CategoryEndOfLife,
		CategoryDownstreamLeased,
		CategoryFranchises,
		CategoryInvestments,
	}
}
