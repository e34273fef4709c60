// Package extract pulls meaningful payloads (text, image variants, audio,
// video, job identifiers) out of generative backend responses whose shape is
// not rigidly fixed.
//
// Each capability is an ordered chain of small typed matchers; First returns
// the first matcher that succeeds, so supporting a new response shape means
// adding one matcher rather than another nested conditional.
package extract
