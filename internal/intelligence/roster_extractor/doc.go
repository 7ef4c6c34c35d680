// Package roster_extractor compiles a roster glossary into category matchers
// and extracts organization, unit, role, alphabetic and numeric tokens from
// free-text roster entries.
//
// A run compiles one immutable PatternSet, deduplicates records by their
// normalized text, scans each distinct text once per category and copies the
// tokens back onto every record.  Category failures are contained: the
// failed column carries a visible sentinel token and the run continues.
package roster_extractor
