package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/prgrms-be-devcourse/NBE4-5-2-Team03/pkg/auth"
)

func newTokenCommand(ctx *commandContext) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Development token utilities",
	}
	tokenCmd.AddCommand(newTokenMintCommand(ctx))
	return tokenCmd
}

func newTokenMintCommand(ctx *commandContext) *cobra.Command {
	var userID int64
	var nickname string
	var role string

	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Sign a bearer token with the configured secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return errors.New("--user-id must be positive")
			}
			if strings.TrimSpace(nickname) == "" {
				return errors.New("--nickname is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			tm, err := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TokenDuration, cfg.JWT.AllowShort)
			if err != nil {
				return err
			}
			token, err := tm.Generate(userID, nickname, role)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&userID, "user-id", 0, "Account id placed in the token")
	cmd.Flags().StringVar(&nickname, "nickname", "", "Display name shown on reviews")
	cmd.Flags().StringVar(&role, "role", "user", "Role claim")
	return cmd
}
