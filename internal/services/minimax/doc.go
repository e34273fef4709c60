// Package minimax is the client for the MiniMax generative backend: chat,
// image, text-to-speech, music, and asynchronous video generation.
//
// Every request carries the configured model, a bearer credential, and is
// paced to the configured requests-per-minute. Failed attempts (HTTP status
// >= 400, a non-zero base_resp envelope, or a transport error) are retried with
// capped exponential backoff; the final failure wraps the typed *HTTPError or
// *APIError so callers can inspect the code and raw payload with errors.As.
package minimax
