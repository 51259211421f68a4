// Package sentiment scores comment text via an external chat-completions API.
//
// Scoring never fails from the caller's perspective: any transport, parse,
// or payload problem resolves to the fixed neutral fallback score. A circuit
// breaker short-circuits the external call while the upstream is unhealthy.
package sentiment
