package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Create API tokens for auth.tokens",
}

var tokenHashCmd = &cobra.Command{
	Use:   "hash [token]",
	Short: "Print the bcrypt hash of a token",
	Long: `Print the bcrypt hash of a token for the auth.tokens config list.

The token is read from stdin when not given as an argument.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var token string
		if len(args) == 1 {
			token = args[0]
		} else {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return errors.New("no token on stdin")
			}
			token = strings.TrimSpace(line)
		}
		hash, err := auth.HashToken(token)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

var tokenUser string

var tokenGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a random token and its config entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		token, err := auth.GenerateToken()
		if err != nil {
			return err
		}
		hash, err := auth.HashToken(token)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Token: %s\n\n", token)
		fmt.Fprintln(out, "Add to config.yaml:")
		fmt.Fprintln(out, "auth:")
		fmt.Fprintln(out, "  tokens:")
		fmt.Fprintf(out, "    - user: %s\n", tokenUser)
		fmt.Fprintf(out, "      hash: %q\n", hash)
		fmt.Fprintln(os.Stderr, "The token is not stored anywhere; keep it now.")
		return nil
	},
}

func init() {
	tokenGenerateCmd.Flags().StringVar(&tokenUser, "for", "editor", "User id the token authenticates as")
	tokenCmd.AddCommand(tokenHashCmd)
	tokenCmd.AddCommand(tokenGenerateCmd)
	rootCmd.AddCommand(tokenCmd)
}
