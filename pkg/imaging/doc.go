// Package imaging handles everything the pipeline needs to know about
// image files before they reach the scoring API: recursive discovery,
// cheap header-only validation, aspect-preserving downscale for payloads
// the API rejects as oversized, and base64 data URL encoding.
//
// Supported formats are JPEG, PNG, BMP, and WebP. Validation reads only
// the image header, so pre-filtering a six-figure batch stays fast.
package imaging
