package kpi

import "strings"

// Catalog is the manufacturing KPI library offered on the dashboard.
var Catalog = []string{
	"Production output per hour",
	"Scrap rate",
	"Machine downtime",
	"Inventory turnover",
	"Days of inventory",
	"Inventory carrying cost",
	"Customer complaints",
	"Defects per unit",
	"Rework rate",
	"R&D expenses as a percentage of revenue",
	"Patent applications filed",
	"New product introductions",
	"Asset utilization",
	"Availability",
	"Avoided cost",
	"Capacity utilization",
	"Comparative analytics for products, plants, divisions, companies",
	"Compliance rates",
	"Customer satisfaction",
	"Cycle time",
	"Demand forecasting",
	"Faults detected prior to failure",
	"First aid visits",
	"First time through",
	"Forecasts of production quantities",
	"Increase/decrease in plant downtime",
	"Industry benchmark performance",
	"Integration capabilities",
	"Interaction level Inventory",
	"Job, product costing",
	"Labor as a percentage of cost",
	"Labor usage, costs-direct and indirect",
	"Machine modules reuse",
	"Maintenance cost per unit",
	"Manufacturing cost per unit",
	"Material costing, usage",
	"Mean time between failure (MTBF)",
	"Mean time to repair",
	"Number of production assignments completed in time",
	"On-time orders",
	"On-time shipping",
	"Open orders",
	"Overall equipment effectiveness",
	"Overall production efficiency",
	"Overtime as a percentage of total hours",
	"Percentage decrease in inventory carrying costs",
	"Percentage decrease in production-to-market lead-time",
	"Percentage decrease in scrap and rework costs",
	"Percentage decrease in standard production hours",
	"Percentage increase in productivity",
	"Percentage increase in revenues",
	"Percentage material cost reduction",
	"Percentage reduction in defect rates",
	"Percentage reduction in downtime",
	"Percentage reduction in inventory levels",
	"Percentage reduction in manufacturing lead times",
	"Percentage savings in costs",
	"Percentage savings in inventory costs",
	"Percentage savings in labor costs",
	"Percentage savings in transportation costs",
	"Planned work to total work ratio",
	"Predictive maintenance monitoring (maintenance events per cycle)",
	"Process capability",
	"Productivity",
	"Quality improvement (first-pass yield)",
	"Quality tracking-six sigma",
	"Reduced time to productivity",
	"Reduction in penalties",
	"Savings in inventory carrying costs",
	"Scheduled production",
	"Spend analytics",
	"Storehouse stock effectiveness",
	"Supplier trending",
	"Time from order to shipment",
	"Time on floor to be packed",
	"Unplanned capacity expenditure",
	"Unused capacity expenditures",
	"Utilization",
	"Waste ration reduction",
	"Work-in-process (WIP)",
}

// SearchCatalog returns the catalog entries containing q, case-insensitively.
// An empty query returns the whole catalog.
func SearchCatalog(q string) []string {
	q = strings.ToLower(strings.TrimSpace(q))
	out := make([]string, 0, len(Catalog))
	for _, k := range Catalog {
		if q == "" || strings.Contains(strings.ToLower(k), q) {
			out = append(out, k)
		}
	}
	return out
}

// Module is one ERP module tile with its rollout progress in percent.
type Module struct {
	Title    string
	Subtitle string
	Progress int
}

// Modules are the dashboard tiles.
var Modules = []Module{
	{Title: "Sales Management", Subtitle: "Leads, quotations, orders.", Progress: 93},
	{Title: "Tooling Design", Subtitle: "Design, CAD, Drawings.", Progress: 85},
	{Title: "Project / Job Management", Subtitle: "Tasks, milestones.", Progress: 68},
	{Title: "Purchase Management", Subtitle: "Suppliers, RFQs.", Progress: 40},
	{Title: "Store Management", Subtitle: "Inventory, e-commerce style.", Progress: 75},
	{Title: "Production Management", Subtitle: "BOMs, work orders.", Progress: 91},
	{Title: "Delivery & Dispatch", Subtitle: "Shipments, tracking.", Progress: 62},
	{Title: "Invoicing", Subtitle: "Invoices, credit notes.", Progress: 89},
	{Title: "Employees", Subtitle: "Staff, attendance, overview.", Progress: 0},
	{Title: "Reports & Dashboard", Subtitle: "KPIs, charts.", Progress: 0},
}

// Point returns the tile as a chart bar.
func (m Module) Point() Point {
	return Point{Label: m.Title, Value: float64(m.Progress)}
}
