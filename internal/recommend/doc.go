// Package recommend turns movie preferences into grounded book
// recommendations. A chat completion model proposes titles with a taste
// profile; the metadata orchestrator then resolves each title against the
// book catalog so responses carry real covers, ratings, and links. Results
// and taste profiles are cached under their own namespaces.
package recommend
