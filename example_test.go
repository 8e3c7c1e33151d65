package lendflow_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/lendflow"
	"github.com/aretw0/lendflow/internal/adapters/bureau"
	"github.com/aretw0/lendflow/internal/adapters/crm"
	"github.com/aretw0/lendflow/internal/adapters/letter"
)

// ExampleNew walks a pre-approved customer from greeting to sanction.
func ExampleNew() {
	dir, err := os.MkdirTemp("", "letters")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	directory := crm.Default()
	a := lendflow.New(
		lendflow.WithDirectory(directory),
		lendflow.WithKYC(directory),
		lendflow.WithCreditBureau(bureau.New(bureau.WithDirectory(directory))),
		lendflow.WithDocumentGenerator(letter.New(dir)),
	)

	ctx := context.Background()
	welcome, err := a.Start(ctx, "cust_001")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(welcome.Stage)

	for _, text := range []string{"I need a car loan of 5 lakhs", "yes", "thanks"} {
		reply, err := a.Send(ctx, welcome.SessionID, text)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(reply.Stage, reply.ApplicationStatus, reply.ShouldEnd)
	}
	// Output:
	// greeting
	// offer_presentation pre_approved false
	// completed approved false
	// completed approved true
}
