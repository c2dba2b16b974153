package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/internal/session"
)

func newSessionCommand(ctx *commandContext) *cobra.Command {
	sessionCmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the stored login",
	}
	sessionCmd.AddCommand(newSessionLoginCommand(ctx))
	sessionCmd.AddCommand(newSessionLogoutCommand(ctx))
	sessionCmd.AddCommand(newSessionShowCommand(ctx))
	return sessionCmd
}

func newSessionLoginCommand(ctx *commandContext) *cobra.Command {
	var token string
	var userID int64
	var nickname string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store a bearer token and account id",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(token) == "" {
				return errors.New("--token is required")
			}
			return ctx.withSession(cmd.Context(), func(s *session.SQLiteStore) error {
				if err := s.Save(cmd.Context(), session.Credentials{Token: token, UserID: userID, Nickname: nickname}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "logged in as account %d\n", userID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "Bearer token")
	cmd.Flags().Int64Var(&userID, "user-id", 0, "Account id")
	cmd.Flags().StringVar(&nickname, "nickname", "", "Display name")
	return cmd
}

func newSessionLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored login",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(s *session.SQLiteStore) error {
				if err := s.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "logged out")
				return nil
			})
		},
	}
}

func newSessionShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the stored login",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd.Context(), func(s *session.SQLiteStore) error {
				out := cmd.OutOrStdout()
				token, ok := s.Token()
				if !ok {
					fmt.Fprintln(out, "not logged in")
					return nil
				}
				userID, _ := s.UserID()
				rows := [][]string{
					{"account", fmt.Sprintf("%d", userID)},
					{"nickname", s.Nickname()},
					{"token", maskToken(token)},
					{"store", ctx.config.Client.SessionPath},
				}
				fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil, isTerminal(out)))
				return nil
			})
		},
	}
}

func maskToken(token string) string {
	if len(token) <= 12 {
		return "********"
	}
	return token[:6] + "…" + token[len(token)-6:]
}
