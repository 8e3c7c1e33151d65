/*
Package domain contains the core domain model of the lendflow loan-intake assistant.

It defines the conversation aggregate and its vocabulary. The package is kept pure
and free of I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - Session: the single owned aggregate of a conversation (stage, handler, profile,
    loan request, documents, log). All mutations go through its methods.
  - Stage / Handler: the closed set of conversation stages and of the handlers that
    own the next turn.
  - Facts: the structured reading of one user utterance.
  - DocumentType: uploadable documents and the rule deriving the required set.
  - SessionDiff: the delta between two snapshots, streamed to clients.
*/
package domain
