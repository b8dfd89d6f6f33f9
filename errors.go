package ziprand

import "errors"

var (
	// ErrNoEOCDFound is returned if no end-of-central-directory signature was found within the search bound;
	// most likely the source is not a ZIP file.
	ErrNoEOCDFound = errors.New("ziprand: end of central directory not found")

	// ErrNoZIP64Found is returned if the end-of-central-directory record points at ZIP64 structures (its
	// directory-offset field holds the overflow sentinel) but the ZIP64 locator signature is absent.
	ErrNoZIP64Found = errors.New("ziprand: ZIP64 locator not found")

	// ErrEntryNotFound is returned by [Archive.FindEntry] and [Archive.OpenName] if no entry has the given name.
	ErrEntryNotFound = errors.New("ziprand: entry not found")

	// ErrFormat is returned if a record has a bad or missing signature or is otherwise malformed. Parsing stops
	// at the first malformed record; there is no resynchronisation.
	ErrFormat = errors.New("ziprand: invalid archive format")

	// ErrUnsupportedMethod is returned when opening an entry whose compression method is not STORED, whether
	// declared by the central directory or found in the local file header.
	ErrUnsupportedMethod = errors.New("ziprand: unsupported compression method")

	// ErrOutOfBounds is returned by [File.ReadAt] and [File.Seek] when the requested range or position exceeds
	// the entry's declared size.
	ErrOutOfBounds = errors.New("ziprand: read beyond entry bounds")
)
