package stats

// Pure merge functions for reconciling persisted aggregates with the
// deltas of an incremental update. None of them mutate their inputs.

// SubtractDeletedFiles returns a copy of langStats with the per-language
// file counts decremented for each removed file. Languages whose file
// count reaches zero are dropped entirely. Component and line counts are
// not touched here; MergeStats settles those from the per-file records.
func SubtractDeletedFiles(langStats map[string]LanguageStats, removed []RemovedFile) map[string]LanguageStats {
	out := CopyLanguageStats(langStats)
	if out == nil {
		out = make(map[string]LanguageStats)
	}
	for _, f := range removed {
		ls, ok := out[f.Language]
		if !ok {
			continue
		}
		ls.Files--
		if ls.Files <= 0 {
			delete(out, f.Language)
			continue
		}
		out[f.Language] = ls
	}
	return out
}

// AddIncrementalLanguageStats returns current plus incremental,
// field-wise per language. Negative incremental values are skipped as
// malformed.
func AddIncrementalLanguageStats(current, incremental map[string]LanguageStats) map[string]LanguageStats {
	out := CopyLanguageStats(current)
	if out == nil {
		out = make(map[string]LanguageStats)
	}
	for lang, inc := range incremental {
		ls := out[lang]
		if inc.Files > 0 {
			ls.Files += inc.Files
		}
		if inc.Components > 0 {
			ls.Components += inc.Components
		}
		if inc.Lines > 0 {
			ls.Lines += inc.Lines
		}
		out[lang] = ls
	}
	return out
}

// AddIncrementalComponentStats returns current plus incremental
// component-type counts. Negative counts are skipped.
func AddIncrementalComponentStats(current, incremental map[string]int) map[string]int {
	out := CopyComponentStats(current)
	if out == nil {
		out = make(map[string]int)
	}
	for typ, n := range incremental {
		if n <= 0 {
			continue
		}
		out[typ] += n
	}
	return out
}

// AddIncrementalPackageStats returns current plus incremental package
// aggregates, including the nested per-language breakdowns.
func AddIncrementalPackageStats(current, incremental map[string]PackageStats) map[string]PackageStats {
	out := CopyPackageStats(current)
	if out == nil {
		out = make(map[string]PackageStats)
	}
	for path, inc := range incremental {
		ps, ok := out[path]
		if !ok {
			ps = PackageStats{Name: inc.Name, Path: inc.Path}
		}
		if inc.Files > 0 {
			ps.Files += inc.Files
		}
		if inc.Components > 0 {
			ps.Components += inc.Components
		}
		if len(inc.Languages) > 0 {
			ps.Languages = AddIncrementalLanguageStats(ps.Languages, inc.Languages)
		}
		out[path] = ps
	}
	return out
}

// MergeStats reconciles a persisted aggregate with one update cycle.
// Deleted files have their recorded contribution removed from every
// breakdown. Changed files are removed the same way because the
// incremental aggregate re-counts them from scratch, so the net effect
// for a changed file is exactly one replacement of its old
// contribution. The incremental breakdowns are then added on top.
func MergeStats(current Detailed, deleted, changed []RemovedFile, incremental Detailed) Detailed {
	lang := SubtractDeletedFiles(current.ByLanguage, deleted)
	lang = SubtractDeletedFiles(lang, changed)
	lang = subtractContributions(lang, deleted)
	lang = subtractContributions(lang, changed)
	lang = AddIncrementalLanguageStats(lang, incremental.ByLanguage)

	types := subtractComponentTypes(current.ByComponentType, deleted)
	types = subtractComponentTypes(types, changed)
	types = AddIncrementalComponentStats(types, incremental.ByComponentType)

	pkgs := subtractPackageContributions(current.ByPackage, deleted)
	pkgs = subtractPackageContributions(pkgs, changed)
	pkgs = AddIncrementalPackageStats(pkgs, incremental.ByPackage)

	return Detailed{
		ByLanguage:      lang,
		ByComponentType: types,
		ByPackage:       pkgs,
	}
}

// subtractContributions removes the recorded component and line counts
// of removed files from their languages. Languages already dropped by
// SubtractDeletedFiles stay dropped.
func subtractContributions(langStats map[string]LanguageStats, removed []RemovedFile) map[string]LanguageStats {
	out := CopyLanguageStats(langStats)
	if out == nil {
		return make(map[string]LanguageStats)
	}
	for _, f := range removed {
		ls, ok := out[f.Language]
		if !ok {
			continue
		}
		ls.Components = max(ls.Components-f.Components, 0)
		ls.Lines = max(ls.Lines-f.Lines, 0)
		out[f.Language] = ls
	}
	return out
}

// subtractComponentTypes removes the recorded per-type counts of
// removed files. Types whose count reaches zero are dropped.
func subtractComponentTypes(current map[string]int, removed []RemovedFile) map[string]int {
	out := CopyComponentStats(current)
	if out == nil {
		return make(map[string]int)
	}
	for _, f := range removed {
		for typ, n := range f.Types {
			cur, ok := out[typ]
			if !ok {
				continue
			}
			cur -= n
			if cur <= 0 {
				delete(out, typ)
				continue
			}
			out[typ] = cur
		}
	}
	return out
}

// subtractPackageContributions removes the recorded file, component and
// per-language counts of removed files from their attributed packages.
// A package whose last file is gone is dropped entirely.
func subtractPackageContributions(current map[string]PackageStats, removed []RemovedFile) map[string]PackageStats {
	out := CopyPackageStats(current)
	if out == nil {
		return make(map[string]PackageStats)
	}
	for _, f := range removed {
		if f.Package == "" {
			continue
		}
		ps, ok := out[f.Package]
		if !ok {
			continue
		}
		ps.Files--
		ps.Components = max(ps.Components-f.Components, 0)
		if ls, ok := ps.Languages[f.Language]; ok {
			ls.Files--
			ls.Components = max(ls.Components-f.Components, 0)
			ls.Lines = max(ls.Lines-f.Lines, 0)
			if ls.Files <= 0 && ls.Components <= 0 {
				delete(ps.Languages, f.Language)
			} else {
				ps.Languages[f.Language] = ls
			}
		}
		if ps.Files <= 0 {
			delete(out, f.Package)
			continue
		}
		out[f.Package] = ps
	}
	return out
}
