/*
Package session serialises turns per user.

The Manager combines a reference-counted local mutex per address with an
optional distributed lock, so two near-simultaneous inbound messages for the
same user never interleave their state transitions, while turns for different
users run in parallel.
*/
package session
