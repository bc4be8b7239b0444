// Package log builds slog loggers that never write document contents or
// request credentials.
//
// Extraction results are personal data: email addresses, phone numbers,
// signatures and amounts lifted out of uploaded documents. SecureHandler
// masks them wherever they appear in log attributes:
//   - keys that carry content ("snippet", "text", "email", "phone")
//   - credential keys and headers ("authorization", "cookie", "token")
//   - values that look like bearer tokens, JWTs or whole phone numbers
//   - email addresses embedded in any string value
//
// Masking applies in verbose mode too.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Info("match found", "pointer", "email", "snippet", "john@x.com")
//	// pointer=email snippet=***REDACTED***
package log
