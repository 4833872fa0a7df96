// Package hardcover implements the GraphQL search client for the Hardcover
// book API. It returns raw candidate documents and classifies transport and
// HTTP failures onto the shared services error taxonomy; choosing the best
// candidate is the match resolver's job.
package hardcover
