// Package client implements the catpoint-cli operations: each Action performs
// one call against the security server and the resulting state is rendered
// as a table.
package client
