// Package stats provides streaming aggregation of indexing statistics
// and the pure delta-merge functions that keep aggregates correct across
// incremental updates.
package stats

// LanguageStats holds per-language aggregate counts.
type LanguageStats struct {
	Files      int `json:"files"`
	Components int `json:"components"`
	Lines      int `json:"lines"`
}

// PackageStats holds aggregate counts for one registered package root.
type PackageStats struct {
	Name       string                   `json:"name"`
	Path       string                   `json:"path"`
	Files      int                      `json:"files"`
	Components int                      `json:"components"`
	Languages  map[string]LanguageStats `json:"languages,omitempty"`
}

// Detailed is an immutable snapshot of all aggregate breakdowns.
type Detailed struct {
	ByLanguage      map[string]LanguageStats `json:"byLanguage,omitempty"`
	ByComponentType map[string]int           `json:"byComponentType,omitempty"`
	ByPackage       map[string]PackageStats  `json:"byPackage,omitempty"`
}

// Counts is the scalar summary of one aggregation session.
type Counts struct {
	Files     int `json:"files"`
	Documents int `json:"documents"`
	Lines     int `json:"lines"`
}

// RemovedFile describes the prior contribution of a file that an
// incremental update deleted or replaced. Components, Lines and Types
// are the counts the file contributed to the persisted aggregate;
// Package is the registered package root the file was attributed to,
// empty when none matched.
type RemovedFile struct {
	Path       string
	Language   string
	Package    string
	Components int
	Lines      int
	Types      map[string]int
}

// CopyLanguageStats deep-copies a language stats map.
func CopyLanguageStats(m map[string]LanguageStats) map[string]LanguageStats {
	if m == nil {
		return nil
	}
	out := make(map[string]LanguageStats, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// CopyComponentStats deep-copies a component-type counts map.
func CopyComponentStats(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// CopyPackageStats deep-copies a package stats map, including the
// nested per-language breakdowns.
func CopyPackageStats(m map[string]PackageStats) map[string]PackageStats {
	if m == nil {
		return nil
	}
	out := make(map[string]PackageStats, len(m))
	for k, v := range m {
		v.Languages = CopyLanguageStats(v.Languages)
		out[k] = v
	}
	return out
}

// CopyDetailed deep-copies a Detailed snapshot.
func CopyDetailed(d Detailed) Detailed {
	return Detailed{
		ByLanguage:      CopyLanguageStats(d.ByLanguage),
		ByComponentType: CopyComponentStats(d.ByComponentType),
		ByPackage:       CopyPackageStats(d.ByPackage),
	}
}
