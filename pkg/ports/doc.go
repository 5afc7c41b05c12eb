/*
Package ports defines the driven ports (interfaces) of the dialogue runtime.

These interfaces decouple the driver from storage backends, distributed locks
and downstream analytics, so each can be swapped per deployment.

# Key Interfaces

  - UserStore: persists and loads the per-user record between turns.
  - DistributedLocker: serialises turns for one user across replicas.
  - AnswerPublisher: receives every recorded answer for downstream analytics.
*/
package ports
