package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"parler/pkg/auth"
	"parler/pkg/config"
	"parler/pkg/logger"
	"parler/pkg/parler"
)

var loginURL string

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Parler sessions",
	Long: `Manage stored Parler session tokens.

Sessions are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (PARLER_JST, PARLER_MST)

Never share your tokens or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [account]",
	Short: "Store session tokens securely",
	Long: `Store the jst and mst cookies of a logged-in browser session.

The account name defaults to "default". Tokens are read without echo.`,
	Example: `  # Interactive login
  parler auth login

  # Store a second session
  parler auth login work`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout <account>",
	Short: "Remove a stored session",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sessions",
	Long:  `List stored sessions with masked tokens.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var loginKeyCmd = &cobra.Command{
	Use:   "key <email>",
	Short: "Request a login key for email and password",
	Long: `Start a password login. The password is prompted for without echo.
The response carries the key used by 'auth captcha' and 'auth solve'.`,
	Args: cobra.ExactArgs(1),
	RunE: runLoginKey,
}

var captchaCmd = &cobra.Command{
	Use:   "captcha <key>",
	Short: "Request a captcha for a login key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := commandContext(cmd)
		defer stop()
		payload, err := newAuthenticator().RequestCaptcha(ctx, args[0])
		if err != nil {
			return err
		}
		return console.JSON(payload)
	},
}

var solveCmd = &cobra.Command{
	Use:   "solve <key> <solution>",
	Short: "Submit the captcha solution for a login key",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := commandContext(cmd)
		defer stop()
		payload, err := newAuthenticator().SubmitCaptcha(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		return console.JSON(payload)
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
	authCmd.AddCommand(loginKeyCmd)
	authCmd.AddCommand(captchaCmd)
	authCmd.AddCommand(solveCmd)

	authCmd.PersistentFlags().StringVar(&loginURL, "login-url", parler.DefaultLoginURL, "login API base URL")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	name := auth.DefaultAccount
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}

	console.Logo()
	auth.WriteTokenGuide(console.Err)
	fmt.Fprintln(console.Err)

	if existing, _ := manager.Retrieve(name); existing != nil {
		answer, _ := prompt(fmt.Sprintf("Account '%s' already exists. Replace it? (y/N): ", name))
		if !strings.HasPrefix(strings.ToLower(answer), "y") {
			return nil
		}
	}

	jst, err := promptSecret("jst cookie value: ")
	if err != nil {
		return fmt.Errorf("failed to read jst: %w", err)
	}
	mst, err := promptSecret("mst cookie value: ")
	if err != nil {
		return fmt.Errorf("failed to read mst: %w", err)
	}
	userAgent, _ := prompt("User Agent (press Enter for a random one): ")

	account := &auth.Account{
		Name:         name,
		JST:          jst,
		MST:          mst,
		UserAgent:    userAgent,
		LastModified: time.Now(),
	}
	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	console.Success("Session saved: " + name)
	console.Hint(fmt.Sprintf("Try: parler profile --account %s", name))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}
	if err := manager.Delete(args[0]); err != nil {
		return fmt.Errorf("failed to remove account: %w", err)
	}
	console.Success("Account removed: " + args[0])
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(accounts) == 0 {
		console.Info("No stored accounts", "use 'parler auth login' to add one")
		return nil
	}

	rows := make([][]string, 0, len(accounts))
	for _, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		rows = append(rows, []string{
			sanitized.Name,
			sanitized.JST,
			sanitized.MST,
			sanitized.LastModified.Format("2006-01-02 15:04:05"),
		})
	}
	console.Table([]string{"ACCOUNT", "JST", "MST", "MODIFIED"}, rows)
	return nil
}

func runLoginKey(cmd *cobra.Command, args []string) error {
	password, err := promptSecret("Password: ")
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	ctx, stop := commandContext(cmd)
	defer stop()

	payload, err := newAuthenticator().RequestLoginKey(ctx, args[0], password)
	if err != nil {
		return err
	}
	return console.JSON(payload)
}

func newAuthenticator() *parler.Authenticator {
	opts := []parler.Option{parler.WithBaseURL(loginURL)}
	if debug {
		if log, err := logger.New(&config.LoggingConfig{Level: "debug"}, nil); err == nil {
			opts = append(opts, parler.WithLogger(log))
		}
	}
	return parler.NewAuthenticator(opts...)
}

// stdin is shared so buffered input survives between prompts.
var stdin = bufio.NewReader(os.Stdin)

func prompt(label string) (string, error) {
	fmt.Fprint(console.Err, label)
	input, err := stdin.ReadString('\n')
	return strings.TrimSpace(input), err
}

// promptSecret reads a line without echo when stdin is a terminal.
func promptSecret(label string) (string, error) {
	fmt.Fprint(console.Err, label)
	if term.IsTerminal(int(syscall.Stdin)) {
		secret, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(console.Err)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(secret)), nil
	}

	input, err := stdin.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
