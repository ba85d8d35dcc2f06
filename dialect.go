package azql

import (
	"fmt"
	"strings"
	"sync"
)

// Fold selects the case convention applied to identifier segments before
// quoting.
type Fold int

const (
	FoldLower Fold = iota
	FoldUpper
	FoldNone
)

// Dialect holds the identifier quoting rules used when rendering qualified
// names. It is a plain value; rendering functions read it but never modify
// it.
type Dialect struct {
	// Quote is the string identifiers are wrapped in. Occurrences of Quote
	// inside a segment are doubled.
	Quote string
	// Fold is the case convention applied to each segment.
	Fold Fold
}

// ANSI quotes identifiers with double quotes and folds them to lower case.
var ANSI = Dialect{Quote: `"`, Fold: FoldLower}

// Postgres is identical to ANSI. It exists so that callers selecting a
// dialect by database can be explicit about it.
var Postgres = Dialect{Quote: `"`, Fold: FoldLower}

// MySQL quotes identifiers with backticks and leaves their case untouched.
var MySQL = Dialect{Quote: "`", Fold: FoldNone}

// quoteSegment quotes a single identifier segment. The literal token "*" is
// passed through unquoted.
func (d Dialect) quoteSegment(s string) string {
	if s == "*" {
		return s
	}
	switch d.Fold {
	case FoldLower:
		s = strings.ToLower(s)
	case FoldUpper:
		s = strings.ToUpper(s)
	}
	return d.Quote + strings.ReplaceAll(s, d.Quote, d.Quote+d.Quote) + d.Quote
}

// quoteName quotes a possibly dotted qualified name, quoting each segment
// independently: "u.id" becomes `"u"."id"`.
func (d Dialect) quoteName(name string) string {
	segments := strings.Split(name, ".")
	for i, s := range segments {
		segments[i] = d.quoteSegment(s)
	}
	return strings.Join(segments, ".")
}

// The active dialect is process-wide state read on every render. It must be
// installed once, before the first statement is rendered; after that it is
// treated as read-only for the lifetime of the process.
var (
	dialectMutex     sync.RWMutex
	activeDialect    = ANSI
	dialectInstalled bool
)

// SetDialect installs the process-wide dialect. It must be called before
// the first statement is rendered and may be called at most once; swapping
// the dialect while statements are being rendered is undefined behaviour.
// Without a call the ANSI dialect is used.
func SetDialect(d Dialect) error {
	if d.Quote == "" {
		return fmt.Errorf("cannot set dialect: %w: empty quote string", ErrInvalidArgument)
	}
	dialectMutex.Lock()
	defer dialectMutex.Unlock()
	if dialectInstalled {
		return fmt.Errorf("cannot set dialect: already set")
	}
	activeDialect = d
	dialectInstalled = true
	return nil
}

// currentDialect returns the active dialect.
func currentDialect() Dialect {
	dialectMutex.RLock()
	defer dialectMutex.RUnlock()
	return activeDialect
}
