// Package log provides a slog handler that keeps credentials out of log
// output.
//
// aiaudit talks to several keyed APIs and sends per-site cookies and
// headers while fetching pages. Any of these can end up in a log line: as
// an attribute, inside a request URL, or inside an error returned by the
// HTTP client. The SecureHandler masks:
//   - attributes whose key names a credential (api_key, cookie, authorization)
//   - values that look like a credential (Google API keys, crawl service
//     keys, bearer tokens, JWTs)
//   - key= style query parameters embedded in URLs and error messages
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Warn("reviews lookup failed", "error", err)
//
// The JSON variant is meant for watch mode, where logs are collected.
package log
