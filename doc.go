/*
Package lendflow is a conversational loan-intake engine: it walks an applicant
from a first "hi" through need discovery, an offer, identity and credit checks,
document collection and a sanction letter.

The conversation is a deterministic state machine. Each user utterance is
reduced to structured signals (amount, purpose, tenure, intent) by ordered
pattern rules; the current stage and its owning handler decide the next stage,
consulting the offer calculator and the underwriting rules where numbers are
involved. Wording is delegated to an optional text-generation collaborator;
when it fails, a fixed reply is used and routing is unaffected.

# Usage

	a := lendflow.New(
		lendflow.WithKYC(directory),
		lendflow.WithCreditBureau(bureau.New(bureau.WithDirectory(directory))),
	)

	welcome, err := a.Start(ctx, "cust_001")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(welcome.Text)

	reply, err := a.Send(ctx, welcome.SessionID, "I need a car loan of 5 lakhs")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(reply.Stage, reply.Text) // offer_presentation ...

Turns for one session are serialized by the session manager; distinct
sessions run concurrently. Sessions are persisted through a ports.SessionStore
(memory, file, Redis or SQLite) and are abandoned, never destroyed, when a
client goes away.
*/
package lendflow
