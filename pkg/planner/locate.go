package planner

// LocatePrevious picks the backup entry to use as the hard-link base for the
// run writing candidatePath. The catalog must be in recency order (most
// recent first, as returned by ReadCatalog).
//
// The most recent entry is usually the answer, except when it is the
// candidate itself: the run ensures today's directory before searching, so
// the freshest entry can be the directory this run is about to write. In
// that case the second-most-recent entry is used instead. An empty catalog,
// or a catalog whose only entry is the candidate, yields no previous backup
// and the run degrades to a full backup.
func LocatePrevious(catalog []Entry, candidatePath string) (Entry, bool) {
	if len(catalog) == 0 {
		return Entry{}, false
	}
	if catalog[0].Path != candidatePath {
		return catalog[0], true
	}
	if len(catalog) < 2 {
		return Entry{}, false
	}
	return catalog[1], true
}
