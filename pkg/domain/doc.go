/*
Package domain contains the core models of the dialogue runtime.

It defines the canonical inbound and outbound Message, the session events
transports attach to them, the per-user state container (User) and the
Choice values that menu-like states offer. The package is kept free of I/O
and persistence concerns.

# Key Entities

  - Message: an immutable inbound or outbound message with transport metadata.
  - User: the per-user record (current state, answers, metadata, session id).
  - Choice: a (value, label) pair with an optional scoring weight.
  - ErrorMessage: a validator rejection whose text is shown to the user.
*/
package domain
