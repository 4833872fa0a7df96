// Command cinereads runs the book recommendation service and its
// maintenance tooling: the API server, one-off catalog lookups, cache
// inspection, and journal management.
package main
