package domain

// SectionRange is the page span a section name appears in within a document.
type SectionRange struct {
	FirstPage int
	LastPage  int
}

// FieldLocation is where a flattened field's source text lives in the
// transcript (page + section), used by C8's keyword-search strategy.
type FieldLocation struct {
	Page    int
	Section string
}

// Transcript is C7's output: a searchable page/section/field index built
// from a document's extracted pages (spec.md §4.7).
type Transcript struct {
	DocumentID        string
	JobID             string
	FullTranscript    string
	PageTranscripts   map[int]string
	SectionIndex      map[string]SectionRange
	FieldLocations    map[string]FieldLocation
	TotalPages        int
	TotalSections     int
	GenerationTimeMs  int64
}
