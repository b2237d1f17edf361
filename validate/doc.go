// Package validate checks a freshly written PDF before it is handed out.
//
// [RoundTrip] reloads the bytes with the package's own reader and compares
// object and page counts. [External] additionally loads and validates them
// with pdfcpu in relaxed mode. Both report failures wrapping
// core.ErrValidationFailed; the caller decides whether that is fatal.
package validate
