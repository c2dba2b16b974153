package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/composer"
	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/domain"
	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/session"
	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/workspace"
)

func newReviewsCommand(ctx *commandContext) *cobra.Command {
	reviewsCmd := &cobra.Command{
		Use:   "reviews",
		Short: "Browse and write reviews for a title",
	}
	reviewsCmd.AddCommand(newReviewsShowCommand(ctx))
	reviewsCmd.AddCommand(newReviewsBrowseCommand(ctx))
	return reviewsCmd
}

func parseContentArgs(args []string) (domain.ContentRef, error) {
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil || id <= 0 {
		return domain.ContentRef{}, fmt.Errorf("invalid content id %q", args[1])
	}
	return domain.NewContentRef(args[0], id)
}

func (c *commandContext) newWorkspace(ref domain.ContentRef) (*workspace.Workspace, error) {
	return workspace.New(ref, c.apiClient(), workspace.Options{
		RefreshCountOnSubmit: c.config.Client.RefreshCountOnSubmit,
		Logger:               c.logger(),
	})
}

func newReviewsShowCommand(ctx *commandContext) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "show <movies|series> <id>",
		Short: "Print one page of reviews",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseContentArgs(args)
			if err != nil {
				return err
			}
			if page < 1 {
				return fmt.Errorf("--page must be 1 or greater")
			}
			ws, err := ctx.newWorkspace(ref)
			if err != nil {
				return err
			}
			// Read failures are logged and rendered with fail-soft values.
			_ = ws.MountAt(cmd.Context(), page-1)

			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderWorkspace(ws.Snapshot(), isTerminal(out)))
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number, starting at 1")
	return cmd
}

func newReviewsBrowseCommand(ctx *commandContext) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "browse <movies|series> <id>",
		Short: "Interactively page through and write reviews",
		Long: `Commands:
  <n>   show page n
  ]     next page group
  [     previous page group
  w     write a review
  r     reload
  q     quit`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseContentArgs(args)
			if err != nil {
				return err
			}
			if page < 1 {
				return fmt.Errorf("--page must be 1 or greater")
			}
			ws, err := ctx.newWorkspace(ref)
			if err != nil {
				return err
			}
			return ctx.withSession(cmd.Context(), func(s *session.SQLiteStore) error {
				b := &browser{
					ws:     ws,
					in:     bufio.NewScanner(cmd.InOrStdin()),
					out:    cmd.OutOrStdout(),
					logger: ctx.logger(),
				}
				b.tty = isTerminal(b.out)
				b.composer, err = composer.New(composer.Config{
					Ref:      ref,
					Session:  s,
					Writer:   ctx.apiClient(),
					Prompter: composer.PromptFunc(b.alert),
					OnReviewAdded: func(reqCtx context.Context, review domain.Review) {
						// Errors are already logged by the workspace.
						_ = ws.OnReviewSubmitted(reqCtx, review)
					},
					Logger: b.logger,
				})
				if err != nil {
					return err
				}
				return b.run(cmd.Context(), page-1)
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number to open, starting at 1")
	return cmd
}

type browser struct {
	ws       *workspace.Workspace
	composer *composer.Composer
	in       *bufio.Scanner
	out      io.Writer
	tty      bool
	logger   *slog.Logger
}

func (b *browser) alert(message string) {
	fmt.Fprintf(b.out, "! %s\n", message)
}

func (b *browser) render() {
	fmt.Fprint(b.out, renderWorkspace(b.ws.Snapshot(), b.tty))
}

func (b *browser) readLine(prompt string) (string, bool) {
	fmt.Fprint(b.out, prompt)
	if !b.in.Scan() {
		return "", false
	}
	return b.in.Text(), true
}

func (b *browser) run(ctx context.Context, page int) error {
	_ = b.ws.MountAt(ctx, page)
	b.render()

	for {
		line, ok := b.readLine("> ")
		if !ok {
			return b.in.Err()
		}
		cmd := strings.TrimSpace(line)
		view := b.ws.Snapshot()

		switch cmd {
		case "":
			continue
		case "q":
			return nil
		case "r":
			_ = b.ws.Refresh(ctx)
		case "]":
			if !view.NextEnabled {
				fmt.Fprintln(b.out, "no later pages")
				continue
			}
			_ = b.ws.OnGroupShift(ctx, workspace.Next)
		case "[":
			if !view.PrevEnabled {
				fmt.Fprintln(b.out, "already at the first pages")
				continue
			}
			_ = b.ws.OnGroupShift(ctx, workspace.Prev)
		case "w":
			b.compose(ctx)
		default:
			n, err := strconv.Atoi(cmd)
			if err != nil || !pageVisible(view, n-1) {
				fmt.Fprintf(b.out, "unknown command %q\n", cmd)
				continue
			}
			_ = b.ws.OnPageSelected(ctx, n-1)
		}
		b.render()
	}
}

func pageVisible(v workspace.View, page int) bool {
	for _, btn := range v.Buttons {
		if btn.Page == page {
			return true
		}
	}
	return false
}

// compose reads a rating and the review text. A line ending in a backslash
// continues onto the next line; any other line submits. A draft left by a
// failed submission is kept: an empty first line resubmits it, anything else
// replaces it.
func (b *browser) compose(ctx context.Context) {
	c := b.composer
	if !c.Mount() {
		b.alert(composer.MsgLoginRequired)
		fmt.Fprintln(b.out, "run `reviewclient session login` first")
		return
	}

	for {
		current := ""
		if r := c.Rating(); r > 0 {
			current = fmt.Sprintf(" [%d]", r)
		}
		line, ok := b.readLine(fmt.Sprintf("평점 (1-5, ?n to preview)%s: ", current))
		if !ok {
			return
		}
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "?") {
			if n, err := strconv.Atoi(strings.TrimPrefix(line, "?")); err == nil {
				c.SetHoverRating(n)
				fmt.Fprintln(b.out, starBar(c.DisplayedStars()))
				c.SetHoverRating(0)
			}
			continue
		}
		if line != "" {
			n, err := strconv.Atoi(line)
			if err == nil {
				err = c.SetRating(n)
			}
			if err != nil {
				fmt.Fprintln(b.out, "rating must be a number from 1 to 5")
				continue
			}
		}
		break
	}
	fmt.Fprintln(b.out, starBar(c.DisplayedStars()))

	draft := c.Content()
	if draft != "" {
		fmt.Fprintf(b.out, "draft: %s\n", draft)
	}
	for first := true; ; first = false {
		line, ok := b.readLine("리뷰> ")
		if !ok {
			return
		}
		if first && draft != "" && line != "" {
			c.SetContent("")
		}
		if strings.HasSuffix(line, `\`) {
			c.SetContent(c.Content() + strings.TrimSuffix(line, `\`))
			_, _ = c.HandleKey(ctx, composer.KeyEvent{Key: composer.KeyEnter, Shift: true})
			continue
		}
		c.SetContent(c.Content() + line)
		submitted, err := c.HandleKey(ctx, composer.KeyEvent{Key: composer.KeyEnter})
		if submitted {
			fmt.Fprintln(b.out, "리뷰가 등록되었습니다.")
		} else if err != nil {
			b.logger.DebugContext(ctx, "review not submitted", slog.String("error", err.Error()))
		}
		return
	}
}
