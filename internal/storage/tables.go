package storage

import "fmt"

// Statically declared table-name allow-lists. These are the only relation
// identifiers any query path may use; lookups are exact-match and
// case-sensitive.
var (
	// scrapeTables maps endpoint keys to raw snapshot tables.
	scrapeTables = map[string]string{
		"list":  "marketlist",
		"sub":   "marketsublist",
		"bid":   "biddinginfo",
		"price": "priceinfo",
	}

	// reportTables maps report keys to report output tables.
	reportTables = map[string]string{
		"profit": "profitabilityreport",
	}

	// reportSources maps report keys to the snapshot table they read.
	reportSources = map[string]string{
		"profit": "marketsublist",
		"trend":  "marketsublist",
	}
)

// ScrapeTable resolves an endpoint key to its snapshot table.
func ScrapeTable(endpointKey string) (string, error) {
	t, ok := scrapeTables[endpointKey]
	if !ok {
		return "", fmt.Errorf("%w: no scrape table for endpoint key %q", ErrUnknownTable, endpointKey)
	}
	return t, nil
}

// ReportTable resolves a report key to its output table.
func ReportTable(reportKey string) (string, error) {
	t, ok := reportTables[reportKey]
	if !ok {
		return "", fmt.Errorf("%w: no report table for report key %q", ErrUnknownTable, reportKey)
	}
	return t, nil
}

// ReportSource resolves a report key to the snapshot table it reads.
func ReportSource(reportKey string) (string, error) {
	t, ok := reportSources[reportKey]
	if !ok {
		return "", fmt.Errorf("%w: no data source for report key %q", ErrUnknownTable, reportKey)
	}
	return t, nil
}

// AllowedScrapeTable reports whether name is a registered snapshot table.
func AllowedScrapeTable(name string) bool {
	for _, t := range scrapeTables {
		if t == name {
			return true
		}
	}
	return false
}

// AllowedReportTable reports whether name is a registered report table.
func AllowedReportTable(name string) bool {
	for _, t := range reportTables {
		if t == name {
			return true
		}
	}
	return false
}
