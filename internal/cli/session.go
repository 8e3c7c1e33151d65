package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/aretw0/lendflow/internal/presentation/graph"
	"github.com/aretw0/lendflow/pkg/domain"
)

// statusLister is implemented by stores that index the conversation status.
type statusLister interface {
	ListByStatus(ctx context.Context, status domain.ConversationStatus) ([]string, error)
}

// ListSessions prints one row per stored session. A non-empty status keeps
// only sessions in that conversation status.
func ListSessions(ctx context.Context, app *App, w io.Writer, status domain.ConversationStatus) error {
	var (
		ids []string
		err error
	)
	indexed, ok := app.store.(statusLister)
	if ok && status != "" {
		ids, err = indexed.ListByStatus(ctx, status)
	} else {
		ids, err = app.Assistant.Sessions(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	sort.Strings(ids)

	filter := status != "" && !ok
	var rows []*domain.Session
	for _, id := range ids {
		s, err := app.Assistant.Session(ctx, id)
		if err != nil {
			app.Logger.Warn("Failed to load session", "session_id", id, "err", err)
			rows = append(rows, &domain.Session{ID: id})
			continue
		}
		if filter && s.Status != status {
			continue
		}
		rows = append(rows, s)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tCUSTOMER\tSTAGE\tSTATUS\tAPPLICATION\tUPDATED")
	for _, s := range rows {
		if s.Status == "" {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\n", s.ID)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.ID, customerOf(s), s.Stage, s.Status, s.ApplicationStatus,
			s.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return tw.Flush()
}

// InspectSession prints the stored session as indented JSON.
func InspectSession(ctx context.Context, app *App, w io.Writer, id string) error {
	s, err := app.Assistant.Session(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load session %q: %w", id, err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format session: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// RemoveSession abandons and deletes a session. Its conversation log is kept.
func RemoveSession(ctx context.Context, app *App, w io.Writer, id string) error {
	if err := app.Assistant.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session %q: %w", id, err)
	}
	fmt.Fprintf(w, "Session '%s' deleted.\n", id)
	return nil
}

func customerOf(s *domain.Session) string {
	switch {
	case s.CustomerID != "":
		return s.CustomerID
	case s.Email != "":
		return s.Email
	}
	return "guest"
}

// PrintGraph writes the conversation graph as Mermaid. With a session ID, the
// stages it visited and its current stage are highlighted.
func PrintGraph(ctx context.Context, app *App, w io.Writer, id string) error {
	var overlay *graph.Overlay
	if id != "" {
		s, err := app.Assistant.Session(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to load session %q: %w", id, err)
		}
		overlay = graph.OverlayFor(s)
	}
	_, err := io.WriteString(w, graph.GenerateMermaid(overlay))
	return err
}
