package stats

import (
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Aman-CERP/repovec/internal/scanner"
)

const packageCacheSize = 4096

// registeredPackage is one configured package root.
type registeredPackage struct {
	name string
	path string
}

// Aggregator accumulates per-language, per-component-type and
// per-package statistics one document at a time. AddDocument is O(1)
// amortized; no pass over previously seen documents is ever made.
//
// Aggregator is not safe for concurrent use.
type Aggregator struct {
	seenFiles       map[string]bool
	byLanguage      map[string]LanguageStats
	byComponentType map[string]int
	byPackage       map[string]PackageStats
	packages        []registeredPackage
	pkgCache        *lru.Cache[string, string]
	documents       int
	lines           int
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	cache, _ := lru.New[string, string](packageCacheSize)
	return &Aggregator{
		seenFiles:       make(map[string]bool),
		byLanguage:      make(map[string]LanguageStats),
		byComponentType: make(map[string]int),
		byPackage:       make(map[string]PackageStats),
		pkgCache:        cache,
	}
}

// RegisterPackage declares a package root for attribution. Files are
// attributed to the registered package with the longest matching path
// prefix. Registration order does not matter.
func (a *Aggregator) RegisterPackage(name, path string) {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return
	}
	for _, p := range a.packages {
		if p.path == path {
			return
		}
	}
	a.packages = append(a.packages, registeredPackage{name: name, path: path})
	// Longest prefix first so the first match wins.
	sort.Slice(a.packages, func(i, j int) bool {
		return len(a.packages[i].path) > len(a.packages[j].path)
	})
	// Cached resolutions may now be stale.
	a.pkgCache.Purge()
}

// AddDocument folds one document into the aggregate.
func (a *Aggregator) AddDocument(doc *scanner.Document) {
	if doc == nil {
		return
	}

	lang := doc.Language
	if lang == "" {
		lang = "unknown"
	}
	filePath := doc.Metadata.FilePath
	lines := doc.Lines()

	firstSeen := !a.seenFiles[filePath]
	if firstSeen {
		a.seenFiles[filePath] = true
	}

	ls := a.byLanguage[lang]
	if firstSeen {
		ls.Files++
	}
	ls.Components++
	ls.Lines += lines
	a.byLanguage[lang] = ls

	a.byComponentType[string(doc.Type)]++
	a.documents++
	a.lines += lines

	pkgPath := a.resolvePackage(filePath)
	if pkgPath == "" {
		return
	}
	ps := a.byPackage[pkgPath]
	if ps.Path == "" {
		ps.Path = pkgPath
		ps.Name = a.packageName(pkgPath)
		ps.Languages = make(map[string]LanguageStats)
	}
	if firstSeen {
		ps.Files++
	}
	ps.Components++
	pls := ps.Languages[lang]
	if firstSeen {
		pls.Files++
	}
	pls.Components++
	pls.Lines += lines
	ps.Languages[lang] = pls
	a.byPackage[pkgPath] = ps
}

// PackageFor returns the path of the registered package a file is
// attributed to, or "" when no package matches. Callers persist it so
// a later removal can subtract the file's package contribution.
func (a *Aggregator) PackageFor(filePath string) string {
	return a.resolvePackage(filePath)
}

// resolvePackage returns the path of the registered package owning
// filePath, or "" when no package matches. Resolutions are cached.
func (a *Aggregator) resolvePackage(filePath string) string {
	if len(a.packages) == 0 {
		return ""
	}
	if cached, ok := a.pkgCache.Get(filePath); ok {
		return cached
	}

	resolved := ""
	for _, p := range a.packages {
		if filePath == p.path || strings.HasPrefix(filePath, p.path+"/") {
			resolved = p.path
			break
		}
	}
	a.pkgCache.Add(filePath, resolved)
	return resolved
}

func (a *Aggregator) packageName(path string) string {
	for _, p := range a.packages {
		if p.path == path {
			return p.name
		}
	}
	return path
}

// Detailed returns a deep-copied snapshot of the current breakdowns.
func (a *Aggregator) Detailed() Detailed {
	return CopyDetailed(Detailed{
		ByLanguage:      a.byLanguage,
		ByComponentType: a.byComponentType,
		ByPackage:       a.byPackage,
	})
}

// Counts returns the scalar totals for the current session.
func (a *Aggregator) Counts() Counts {
	return Counts{
		Files:     len(a.seenFiles),
		Documents: a.documents,
		Lines:     a.lines,
	}
}

// Reset clears all accumulated state. Registered packages survive.
func (a *Aggregator) Reset() {
	a.seenFiles = make(map[string]bool)
	a.byLanguage = make(map[string]LanguageStats)
	a.byComponentType = make(map[string]int)
	a.byPackage = make(map[string]PackageStats)
	a.documents = 0
	a.lines = 0
	a.pkgCache.Purge()
}
