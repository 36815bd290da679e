package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/benvon/social-momentum/internal/models"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeNudge(w io.Writer, n *models.AINudge) {
	if n == nil {
		fmt.Fprintln(w, "No nudge generated")
		return
	}
	fmt.Fprintf(w, "Nudge %s\n", n.ID)
	fmt.Fprintf(w, "  Category: %s (%s priority)\n", n.Category, n.Priority)
	fmt.Fprintf(w, "  Score:    %d\n", n.LonelinessScoreAtTime)
	fmt.Fprintf(w, "  Message:  %s\n", n.Message)
	if n.SuggestedEventName != nil {
		fmt.Fprintf(w, "  Event:    %s\n", *n.SuggestedEventName)
	}
	if n.SuggestedFriendName != nil {
		fmt.Fprintf(w, "  Friend:   %s\n", *n.SuggestedFriendName)
	}
}

func writeNudgeTable(w io.Writer, nudges []*models.AINudge) error {
	if len(nudges) == 0 {
		_, err := fmt.Fprintln(w, "No nudges")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tCATEGORY\tPRIORITY\tSTATE\tMESSAGE")
	for _, n := range nudges {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			n.CreatedAt.UTC().Format(time.RFC3339),
			n.Category,
			n.Priority,
			nudgeState(n),
			truncate(n.Message, 60),
		)
	}
	return tw.Flush()
}

func writeScore(w io.Writer, s *models.LonelinessScore) {
	fmt.Fprintf(w, "Score: %d (%s, previous %d)\n", s.Score, s.Trend, s.PreviousScore)
	fmt.Fprintf(w, "  inactivity days:  %d\n", s.Components.InactivityDays)
	fmt.Fprintf(w, "  missed events:    %d\n", s.Components.MissedEvents)
	fmt.Fprintf(w, "  streak decay:     %d\n", s.Components.StreakDecay)
	fmt.Fprintf(w, "  chat inactivity:  %d\n", s.Components.ChatInactivity)
	fmt.Fprintf(w, "  low friend count: %d\n", s.Components.LowFriendCount)
}

func nudgeState(n *models.AINudge) string {
	switch {
	case n.Outcome != nil:
		return string(*n.Outcome)
	case n.IsDismissed:
		return "dismissed"
	case n.IsRead:
		return "read"
	default:
		return "unread"
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
