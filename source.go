package helpdex

// Source identifies one help archive in the documentation set. It is a
// closed enumeration: values outside this set are rejected at the boundary
// by ParseSource, and every value has an explicit storage key via DirName.
type Source string

// Known help archive sources.
const (
	SourceArxMgd    Source = "arxmgd"
	SourceArxMgdDev Source = "arxmgd_dev"
	SourceArxDev    Source = "arxdev"
	SourceArxDoc    Source = "arxdoc"
	SourceArxIop    Source = "arxiop"
	SourceArxMgr    Source = "arxmgr"
	SourceArxRef    Source = "arxref"
	SourceReadArx   Source = "readarx"
)

// Sources returns all valid sources in declaration order.
func Sources() []Source {
	return []Source{
		SourceArxMgd,
		SourceArxMgdDev,
		SourceArxDev,
		SourceArxDoc,
		SourceArxIop,
		SourceArxMgr,
		SourceArxRef,
		SourceReadArx,
	}
}

// ParseSource validates a raw source string and returns the matching Source.
// Returns EINVALID for anything outside the closed set.
func ParseSource(s string) (Source, error) {
	switch Source(s) {
	case SourceArxMgd, SourceArxMgdDev, SourceArxDev, SourceArxDoc,
		SourceArxIop, SourceArxMgr, SourceArxRef, SourceReadArx:
		return Source(s), nil
	}
	return "", Errorf(EINVALID, "unknown source %q", s)
}

// DirName returns the storage path segment for the source. The mapping is
// exhaustive over the closed set; an unvalidated Source value returns "".
func (s Source) DirName() string {
	switch s {
	case SourceArxMgd, SourceArxMgdDev, SourceArxDev, SourceArxDoc,
		SourceArxIop, SourceArxMgr, SourceArxRef, SourceReadArx:
		return string(s)
	}
	return ""
}
