package ui

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/Aman-CERP/repovec/internal/batch"
	"github.com/Aman-CERP/repovec/internal/indexer"
	"github.com/Aman-CERP/repovec/internal/vectorstore"
)

// Renderer writes plain-line progress and result output. Suitable for
// terminals, pipes and CI alike.
type Renderer struct {
	mu     sync.Mutex
	out    io.Writer
	styles Styles
}

// NewRenderer creates a Renderer for cfg.Output (nil = os-agnostic
// caller responsibility; pass an explicit writer).
func NewRenderer(cfg Config) *Renderer {
	styles := NoColorStyles()
	if !cfg.NoColor && ShouldColor(cfg.Output) {
		styles = DefaultStyles()
	}
	return &Renderer{out: cfg.Output, styles: styles}
}

// Progress writes one line per settled batch group.
func (r *Renderer) Progress(p batch.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	phase := p.Phase
	if phase == "" {
		phase = "indexing"
	}
	line := fmt.Sprintf("%s %d/%d documents (%.0f%%)", phase, p.ItemsDone, p.ItemsTotal, p.Percent)
	if p.Rate > 0 {
		line += fmt.Sprintf(" (%.0f/s", p.Rate)
		if p.ETA > 0 {
			line += fmt.Sprintf(", eta %s", p.ETA.Round(time.Second))
		}
		line += ")"
	}
	if p.Failed > 0 {
		line += " " + r.styles.Warning.Render(fmt.Sprintf("[%d batch failures]", p.Failed))
	}
	fmt.Fprintln(r.out, r.styles.Label.Render(line))
}

// RunComplete summarizes a finished run, including any accumulated
// errors.
func (r *Renderer) RunComplete(run *indexer.RunStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, r.styles.Success.Render(run.String()))
	for _, err := range run.Errors {
		fmt.Fprintf(r.out, "%s %v\n", r.styles.Error.Render("error:"), err)
	}
}

// SearchResults prints ranked hits.
func (r *Renderer) SearchResults(results []vectorstore.SearchResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(results) == 0 {
		fmt.Fprintln(r.out, r.styles.Dim.Render("no results"))
		return
	}
	for i, res := range results {
		location := res.Metadata.FilePath
		if res.Metadata.StartLine > 0 {
			location += fmt.Sprintf(":%d", res.Metadata.StartLine)
		}
		fmt.Fprintf(r.out, "%2d. %s %s\n",
			i+1,
			r.styles.Header.Render(location),
			r.styles.Score.Render(fmt.Sprintf("(%.3f)", res.Score)))
		if res.Metadata.Name != "" {
			fmt.Fprintf(r.out, "    %s %s\n",
				r.styles.Label.Render(res.Metadata.Type),
				res.Metadata.Name)
		}
	}
}

// Stats prints the persisted statistics view.
func (r *Renderer) Stats(ds indexer.DetailedStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintln(r.out, r.styles.Header.Render("Index statistics"))
	fmt.Fprintf(r.out, "  files:     %d\n", ds.TotalFiles)
	fmt.Fprintf(r.out, "  documents: %d\n", ds.TotalDocuments)
	if !ds.LastIndexTime.IsZero() {
		fmt.Fprintf(r.out, "  indexed:   %s\n", ds.LastIndexTime.Format(time.RFC3339))
	}
	if ds.EmbeddingModel != "" {
		fmt.Fprintf(r.out, "  model:     %s (%d dims)\n", ds.EmbeddingModel, ds.EmbeddingDimension)
	}

	if len(ds.Breakdown.ByLanguage) > 0 {
		fmt.Fprintln(r.out, r.styles.Label.Render("  by language:"))
		langs := make([]string, 0, len(ds.Breakdown.ByLanguage))
		for lang := range ds.Breakdown.ByLanguage {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			ls := ds.Breakdown.ByLanguage[lang]
			fmt.Fprintf(r.out, "    %-12s %4d files %5d components %7d lines\n",
				lang, ls.Files, ls.Components, ls.Lines)
		}
	}

	if len(ds.Breakdown.ByPackage) > 0 {
		fmt.Fprintln(r.out, r.styles.Label.Render("  by package:"))
		paths := make([]string, 0, len(ds.Breakdown.ByPackage))
		for path := range ds.Breakdown.ByPackage {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			ps := ds.Breakdown.ByPackage[path]
			fmt.Fprintf(r.out, "    %-20s %4d files %5d components\n",
				ps.Name, ps.Files, ps.Components)
		}
	}
}

// Error prints a fatal error line.
func (r *Renderer) Error(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%s %v\n", r.styles.Error.Render("error:"), err)
}
