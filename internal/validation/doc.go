// Package validation sanitizes raw kiosk input into stored field values.
//
// Every rule is a pure function of (Kind, raw) returning the sanitized value
// and a validity flag. The sanitized value is always what gets stored, even
// when the flag is false, so the operator sees what the kiosk kept.
//
// # Kinds
//
//   - PlainName: letters and spaces, each word title-cased. Invalid when
//     anything had to be stripped.
//   - SuffixedName: last names. One period at most, and only as part of a
//     JR./SR. suffix. Roman numeral suffixes (II to X) are upper-cased.
//   - Phone: digits only, valid at exactly 11 digits starting with 09.
//   - FreeText: addresses. First letter of each word upper-cased.
//   - MiddleInitial: one letter with an optional period, upper-cased.
//   - Numeric: canonical integer, unparseable input becomes 0.
//   - Digits: digits only, invalid when anything had to be stripped.
//
// Re-validating a sanitized value returns it unchanged:
//
//	v, _ := validation.Validate(validation.SuffixedName, "dela cruz jr.")
//	// v == "Dela Cruz JR."
package validation
