// Package api defines the JSON DTOs served by the daemon HTTP surface and
// the job service that maps store records onto them.
package api
