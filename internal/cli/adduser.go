package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/questkeep/questkeep/internal/daemon"
)

func init() {
	rootCmd.AddCommand(addUserCmd)
	addUserCmd.Flags().StringP("password", "p", "", "Password for the new account")
	addUserCmd.Flags().StringP("config", "c", "", "Path to config file")
}

var addUserCmd = &cobra.Command{
	Use:   "adduser USERNAME",
	Short: "Create an account from the terminal",
	Long:  `Create a user account without going through the HTTP API.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runAddUser,
}

func runAddUser(cmd *cobra.Command, args []string) error {
	username := strings.TrimSpace(args[0])
	password, _ := cmd.Flags().GetString("password")
	if username == "" || password == "" {
		return fmt.Errorf("username and --password are required")
	}

	cfgPath, _ := cmd.Flags().GetString("config")
	if cfgPath == "" {
		cfgPath = daemon.DefaultPath()
	}
	cfg, err := daemon.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user, err := db.CreateUser(context.Background(), username, string(hash))
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Created user %q (id %d)\n", user.Username, user.ID)
	return nil
}
