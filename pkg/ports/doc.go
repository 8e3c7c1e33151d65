/*
Package ports defines the driven ports (interfaces) of the lendflow assistant.

These interfaces decouple the conversation core from external implementations,
allowing it to work with various storage backends and collaborator services.

# Key Interfaces

  - SessionStore: persists and loads Session aggregates.
  - ConversationLog: append-only conversation history.
  - DistributedLocker: coordinates concurrent session access across replicas.
  - Composer, KYCService, CreditBureau, DocumentGenerator, FieldExtractor,
    CustomerDirectory: the external collaborators a conversation consults.
*/
package ports
