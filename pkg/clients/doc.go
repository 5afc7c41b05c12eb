// Package clients groups the typed HTTP clients for the collaborators scripts talk to.
//
// Every client sends its calls through a shared *upstream.Client, so each call gets the same
// retry contract (three attempts, five seconds each, immediate retry on transient failures)
// and the same telemetry. Clients return *upstream.Error once a call has failed for good;
// scripts route that to their technical-failure state.
package clients
