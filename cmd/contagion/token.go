package main

import (
	"fmt"
	"os"
	"time"

	"Pandemic/internal/shared/security"

	"github.com/spf13/cobra"
)

// jwtSecret 配置优先，其次是 JWT_SECRET 环境变量。
func jwtSecret(configured string) string {
	if configured != "" {
		return configured
	}
	return os.Getenv("JWT_SECRET")
}

func newTokenCmd() *cobra.Command {
	var (
		gameID string
		secret string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "为一局签发访问令牌",
		RunE: func(cmd *cobra.Command, args []string) error {
			if gameID == "" {
				return fmt.Errorf("--game is required")
			}
			token, err := security.Award(jwtSecret(secret), gameID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&gameID, "game", "", "对局 id")
	cmd.Flags().StringVar(&secret, "secret", "", "签名密钥，默认读 JWT_SECRET")
	cmd.Flags().DurationVar(&ttl, "ttl", 7*24*time.Hour, "有效期")
	return cmd
}
