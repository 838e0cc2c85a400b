// Package watcher polls the security server and reports alarm status transitions.
package watcher
