/*
Package upstream implements the contract every handler follows when it reaches an HTTP collaborator.

  - A single pooled *http.Client is shared by the process.
  - Each attempt is bounded by a 5 second timeout.
  - Up to three attempts are made. Connection errors, timeouts and 5xx responses are retried
    immediately; 4xx responses are permanent and returned at once.
  - Every attempt is reported to an observer (lifecycle hook) with its request and response
    payloads, so operators can trace rejected registrations.

Callers inspect the returned *Error to route the dialogue to a failure state.
*/
package upstream
