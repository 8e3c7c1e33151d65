package lendflow_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/lendflow"
	"github.com/aretw0/lendflow/internal/adapters/bureau"
	"github.com/aretw0/lendflow/internal/adapters/crm"
	"github.com/aretw0/lendflow/internal/adapters/letter"
	"github.com/aretw0/lendflow/internal/adapters/ocr"
	"github.com/aretw0/lendflow/pkg/adapters/memory"
	"github.com/aretw0/lendflow/pkg/domain"
	"github.com/aretw0/lendflow/pkg/persistence/middleware"
	"github.com/aretw0/lendflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAssistant(t *testing.T, opts ...lendflow.Option) *lendflow.Assistant {
	t.Helper()
	directory := crm.Default()
	var n int
	base := []lendflow.Option{
		lendflow.WithDirectory(directory),
		lendflow.WithKYC(directory),
		lendflow.WithCreditBureau(bureau.New(bureau.WithDirectory(directory))),
		lendflow.WithDocumentGenerator(letter.New(t.TempDir())),
		lendflow.WithClock(func() time.Time { return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC) }),
		lendflow.WithIDs(func() string { n++; return fmt.Sprintf("s%d", n) }),
	}
	return lendflow.New(append(base, opts...)...)
}

func TestAssistant_KnownCustomerToSanction(t *testing.T) {
	ctx := context.Background()
	a := newAssistant(t)

	welcome, err := a.Start(ctx, "cust_001")
	require.NoError(t, err)
	assert.Equal(t, "s1", welcome.SessionID)
	assert.Equal(t, domain.StageGreeting, welcome.Stage)
	assert.Contains(t, welcome.Text, "Hi Rahul!")
	assert.Contains(t, welcome.Text, "₹500,000")

	reply, err := a.Send(ctx, "s1", "I need a car loan of 5 lakhs")
	require.NoError(t, err)
	assert.Equal(t, domain.StageOfferPresentation, reply.Stage)
	assert.Equal(t, domain.HandlerSales, reply.Handler)
	assert.Equal(t, domain.ApplicationPreApproved, reply.ApplicationStatus)

	reply, err = a.Send(ctx, "s1", "yes")
	require.NoError(t, err)
	assert.Equal(t, domain.StageCompleted, reply.Stage)
	assert.Equal(t, domain.ApplicationApproved, reply.ApplicationStatus)
	require.NotEmpty(t, reply.ApprovalDocument)
	_, err = os.Stat(reply.ApprovalDocument)
	assert.NoError(t, err, "the sanction letter is written")

	reply, err = a.Send(ctx, "s1", "thanks")
	require.NoError(t, err)
	assert.True(t, reply.ShouldEnd)

	_, err = a.Send(ctx, "s1", "hello?")
	assert.ErrorIs(t, err, domain.ErrSessionEnded)

	s, err := a.Session(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.ConversationCompleted, s.Status)
	assert.Len(t, s.Log, 7, "welcome plus three exchanges")
}

func TestAssistant_StartResolvesVisitors(t *testing.T) {
	ctx := context.Background()
	a := newAssistant(t)

	tests := []struct {
		key   string
		kind  domain.UserKind
		stage domain.Stage
		step  domain.OnboardingStep
	}{
		{"", domain.UserGuest, domain.StageOnboarding, domain.OnboardingName},
		{"guest", domain.UserGuest, domain.StageOnboarding, domain.OnboardingName},
		{"PRIYA.PATEL@email.com", domain.UserKnown, domain.StageGreeting, domain.OnboardingNone},
		{"new.person@mail.com", domain.UserRegistered, domain.StageOnboarding, domain.OnboardingPhone},
		{"cust_999", domain.UserGuest, domain.StageOnboarding, domain.OnboardingName},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			welcome, err := a.Start(ctx, tt.key)
			require.NoError(t, err)

			s, err := a.Session(ctx, welcome.SessionID)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, s.UserKind)
			assert.Equal(t, tt.stage, s.Stage)
			assert.Equal(t, tt.step, s.OnboardingStep)
		})
	}
}

func TestAssistant_ChangesAndLog(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	a := newAssistant(t, lendflow.WithStore(store))

	var (
		mu    sync.Mutex
		diffs []*domain.SessionDiff
	)
	a.OnChange(func(d *domain.SessionDiff) {
		mu.Lock()
		defer mu.Unlock()
		diffs = append(diffs, d)
	})

	welcome, err := a.Start(ctx, "cust_002")
	require.NoError(t, err)
	_, err = a.Send(ctx, welcome.SessionID, "3 lakhs for my wedding")
	require.NoError(t, err)

	require.Len(t, diffs, 2)
	require.NotNil(t, diffs[1].Stage)
	assert.Equal(t, domain.StageOfferPresentation, *diffs[1].Stage)
	assert.Len(t, diffs[1].Log, 2, "only the new exchange")

	require.NoError(t, a.Delete(ctx, welcome.SessionID))
	_, err = a.Session(ctx, welcome.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	history, err := a.History(ctx, welcome.SessionID)
	require.NoError(t, err)
	require.Len(t, history, 3, "the log outlives the session")
	assert.Equal(t, domain.SpeakerUser, history[1].Speaker)
	assert.Equal(t, "3 lakhs for my wedding", history[1].Text)

	require.Len(t, diffs, 3)
	require.NotNil(t, diffs[2].Status)
	assert.Equal(t, domain.ConversationAbandoned, *diffs[2].Status)
}

func TestAssistant_GuestWithUploadedPAN(t *testing.T) {
	tests := []struct {
		name    string
		store   func() ports.SessionStore
		wantPAN string
	}{
		{"plain store", func() ports.SessionStore { return memory.NewStore() }, "ZZZZZ9999Z"},
		{"pii masked store", func() ports.SessionStore {
			return middleware.Chain(memory.NewStore(), middleware.NewPIIMiddleware([]string{"^pan_number$"}))
		}, middleware.Mask},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			a := newAssistant(t, lendflow.WithStore(tt.store()), lendflow.WithFieldExtractor(ocr.New()))

			welcome, err := a.Start(ctx, "guest")
			require.NoError(t, err)
			id := welcome.SessionID
			for _, msg := range []string{"Asha Verma", "9123456780", "30", "I need 3 lakhs", "yes"} {
				_, err := a.Send(ctx, id, msg)
				require.NoError(t, err, msg)
			}

			uploads := []struct {
				doc     domain.DocumentType
				name    string
				content string
			}{
				{domain.DocumentAadhaar, "aadhaar.png", "Aadhaar 1234 5678 9012"},
				{domain.DocumentPAN, "pan.png", "Permanent Account Number ZZZZZ9999Z"},
				{domain.DocumentSalarySlip, "slip.png", "Net Pay: Rs 80,000"},
			}
			for _, u := range uploads {
				res, err := a.Upload(ctx, id, u.doc, u.name, []byte(u.content))
				require.NoError(t, err, u.doc)
				if u.doc == domain.DocumentPAN {
					assert.Equal(t, 815, res.CreditScore)
				}
			}

			reply, err := a.Send(ctx, id, "done")
			require.NoError(t, err)
			assert.Equal(t, domain.StageCompleted, reply.Stage)
			assert.Equal(t, domain.ApplicationApproved, reply.ApplicationStatus)

			s, err := a.Session(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, 815, s.Profile.CreditScore)
			assert.Equal(t, tt.wantPAN, s.PAN)
		})
	}
}

func TestAssistant_UnknownSession(t *testing.T) {
	a := newAssistant(t)
	_, err := a.Send(context.Background(), "missing", "hi")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.ErrorIs(t, a.Abandon(context.Background(), "missing"), domain.ErrSessionNotFound)
}

func TestAssistant_ConcurrentSessions(t *testing.T) {
	ctx := context.Background()
	var seq int64
	var mu sync.Mutex
	a := newAssistant(t, lendflow.WithIDs(func() string {
		mu.Lock()
		defer mu.Unlock()
		seq++
		return fmt.Sprintf("c%d", seq)
	}))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			welcome, err := a.Start(ctx, "cust_001")
			if !assert.NoError(t, err) {
				return
			}
			_, err = a.Send(ctx, welcome.SessionID, "5 lakhs")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := a.Sessions(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 8)
}
