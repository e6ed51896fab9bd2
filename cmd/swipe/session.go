package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/helixir/paper-swipe-service/internal/domain"
	"github.com/helixir/paper-swipe-service/internal/feed"
)

const helpText = `Commands:
  r, right   like the current paper
  l, left    skip the current paper
  reload     fetch again once the stack is empty
  liked      list liked papers
  help       show this help
  q, quit    exit`

// session drives a Manager from line-oriented input.
type session struct {
	manager *feed.Manager
	in      io.Reader
	out     io.Writer
}

func newSession(m *feed.Manager, in io.Reader, out io.Writer) *session {
	return &session{manager: m, in: in, out: out}
}

// Run starts the feed and processes commands until quit, end of input or
// ctx cancellation.
func (s *session) Run(ctx context.Context) error {
	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-readCtx.Done():
				return
			}
		}
	}()

	s.manager.Start(ctx)
	fmt.Fprintln(s.out, "Type help for commands.")

	for {
		if err := s.render(ctx); err != nil {
			return nil
		}
		fmt.Fprint(s.out, "> ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(s.out)
				return nil
			}
			line = l
		}

		if quit := s.handle(ctx, strings.ToLower(strings.TrimSpace(line))); quit {
			return nil
		}
	}
}

// handle executes one command and reports whether the session should end.
func (s *session) handle(ctx context.Context, cmd string) bool {
	switch cmd {
	case "":
	case "q", "quit", "exit":
		fmt.Fprintf(s.out, "Bye. You liked %d paper(s).\n", len(s.manager.State().Liked))
		return true
	case "help", "?":
		fmt.Fprintln(s.out, helpText)
	case "liked":
		s.renderLiked()
	case "reload":
		if !s.manager.Reload(ctx) {
			fmt.Fprintln(s.out, "Reload is only available when the stack is empty and idle.")
		}
	default:
		dir, err := parseDirection(cmd)
		if err != nil {
			fmt.Fprintf(s.out, "Unknown command %q. Type help.\n", cmd)
			return false
		}
		if _, ok := s.manager.Swipe(ctx, dir); !ok {
			fmt.Fprintln(s.out, "Nothing to swipe.")
		}
	}
	return false
}

func parseDirection(cmd string) (domain.SwipeDirection, error) {
	switch cmd {
	case "l":
		return domain.SwipeLeft, nil
	case "r":
		return domain.SwipeRight, nil
	}
	return domain.ParseSwipeDirection(cmd)
}

// render prints the front card. With an empty stack it waits for an
// in-flight fetch, or shows the exhausted state.
func (s *session) render(ctx context.Context) error {
	st := s.manager.State()
	if len(st.Buffer) == 0 && st.Fetching {
		fmt.Fprintln(s.out, "Loading papers…")
		if err := s.waitIdle(ctx); err != nil {
			return err
		}
		st = s.manager.State()
	}

	if len(st.Buffer) == 0 {
		fmt.Fprintln(s.out, "No more papers found. Type reload to try again.")
		return nil
	}

	renderCard(s.out, st.Buffer[0])
	status := fmt.Sprintf("%d in stack, %d liked", len(st.Buffer), len(st.Liked))
	if st.Fetching {
		status += ", loading more…"
	}
	fmt.Fprintln(s.out, status)
	return nil
}

func (s *session) waitIdle(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.manager.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *session) renderLiked() {
	liked := s.manager.State().Liked
	if len(liked) == 0 {
		fmt.Fprintln(s.out, "No liked papers yet.")
		return
	}
	fmt.Fprintf(s.out, "Liked papers (%d):\n", len(liked))
	for i, p := range liked {
		fmt.Fprintf(s.out, "%3d. %s [%s]\n", i+1, p.Title, p.ID)
	}
}
