/*
Package dialogue is the state-machine runtime that drives questionnaire conversations.

A Script is a directed graph of named states. Each state is produced per turn by a
StateFactory so it can read the answers recorded so far. The App drives one inbound
message at a time for a user:

  - duplicate deliveries are ignored;
  - a CLOSE session event runs the timeout state;
  - an exit keyword runs the exit (handover) state;
  - a fresh conversation starts at the start state, or the throttle state when the
    configured share of users is diverted;
  - otherwise the current state ingests the message and the driver follows transitions
    through internal states until one waits for input or ends the conversation.

Outbound messages are accumulated on the Turn and returned together. The caller persists the
user once, at the end of the turn (see App.Handle).

# State kinds

Menu, Choice, List and Language match input against a choice list (see package match).
FreeText runs a validator chain (see package validate). End closes the session. Action
computes a transition without prompting.
*/
package dialogue
