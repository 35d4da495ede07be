package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kevinmiles/Enceladus-API/internal/domain"
	"github.com/kevinmiles/Enceladus-API/internal/logging"
)

// RenderThread produces the self-post markdown for a thread. Sections
// and events must already be in the thread's declared order; the events
// slice feeds every events section.
func RenderThread(sections []domain.Section, events []domain.Event) string {
	var b strings.Builder
	for i := range sections {
		b.WriteString(renderSection(&sections[i], events))
		b.WriteString("\n\n")
	}
	return b.String()
}

func renderSection(sec *domain.Section, events []domain.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", sec.Name)

	if sec.IsEventsSection {
		b.WriteString("|UTC|Countdown|Update|\n")
		b.WriteString("|---|---|---|\n")
		for i := range events {
			b.WriteString(renderEvent(&events[i]))
		}
	} else {
		b.WriteString(sec.Content)
	}

	return b.String()
}

// renderEvent renders one table row. Unposted events are drafts and
// render to nothing. Pipes in the message would break the table and are
// escaped; newlines are flattened to spaces.
func renderEvent(ev *domain.Event) string {
	if !ev.Posted {
		return ""
	}

	utc := time.Unix(ev.UTC, 0).UTC().Format("15:04")
	message := strings.ReplaceAll(ev.Message, "\n", " ")
	message = strings.ReplaceAll(message, "|", "\\|")

	return fmt.Sprintf("|%s|%s|%s|\n", utc, ev.TerminalCount, message)
}

// renderThreadBody resolves a thread's sections and events in declared
// order and renders the markdown body. Ids pointing at rows that no
// longer exist are skipped rather than failing the render.
func (s *Service) renderThreadBody(ctx context.Context, t *domain.Thread) string {
	sections := make([]domain.Section, 0, len(t.SectionsID))
	for _, id := range t.SectionsID {
		sec, err := s.getSection(ctx, id)
		if err != nil {
			continue
		}
		sections = append(sections, sec)
	}

	events := make([]domain.Event, 0, len(t.EventsID))
	for _, id := range t.EventsID {
		ev, err := s.getEvent(ctx, id)
		if err != nil {
			continue
		}
		events = append(events, ev)
	}

	return RenderThread(sections, events)
}

// syncMirror re-renders a thread and edits its external post to match.
// Best effort: a mirror failure is logged and the mutation stands.
func (s *Service) syncMirror(ctx context.Context, t *domain.Thread) {
	if s.mirror == nil || t.PostID == nil {
		return
	}

	log := logging.WithThread(t.ID)

	creator, err := s.getUser(ctx, t.CreatedByUserID)
	if err != nil {
		log.Warn("Cannot sync thread to reddit, creator lookup failed", "error", err)
		return
	}

	body := s.renderThreadBody(ctx, t)
	if err := s.mirror.Edit(ctx, creator.RefreshToken, *t.PostID, body); err != nil {
		log.Warn("Failed to sync thread to reddit", "error", err)
	}
}
