// Package kpi aggregates the manufacturing figures shown on the ERP dashboard
// after sign-in.
//
// [ParseManpower] reads the manpower sheet, [Filter] narrows it by line and
// shift, and [Summarize] and [Trend] compute the dashboard figures.
// [ParseSeries] reads the free-form label,value uploads, and [SearchCatalog]
// searches the KPI library.
//
// # What this package must NOT do
//
//   - Fetch data over the network; callers supply an io.Reader.
//   - Render anything.
package kpi
