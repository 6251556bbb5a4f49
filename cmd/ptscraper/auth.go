package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"ptscraper/pkg/auth"
	"ptscraper/pkg/ui"
)

var sessionName string

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage saved Patreon sessions",
	Long: `Manage saved Patreon browser sessions.

Sessions are stored using:
  - System keychain (when available)
  - Encrypted file (sessions.enc in the state directory). The key is
    derived from PTSCRAPER_PASSPHRASE, or from a .passphrase file that is
    generated next to it on first use
  - PTSCRAPER_SESSION_ID environment variable (read only)

A saved session is used by 'ptscraper scrape' when no cookie export is found.
Never share your cookies or saved sessions!`,
}

// importCmd represents the auth import command
var importCmd = &cobra.Command{
	Use:   "import <cookies.json>",
	Short: "Save a session from a cookie export file",
	Long: `Save the cookies of a browser cookie export as a session.

Both a bare JSON array of cookies and an object with a "cookies" array are
accepted. The export must contain the session_id cookie.`,
	Example: `  ptscraper auth import ~/Downloads/patreon-cookies.json
  ptscraper auth import cookies.json --name work`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cookies, err := auth.LoadCookieFile(args[0])
		if err != nil {
			return err
		}
		return saveSession(cookies, "")
	},
}

// browserCmd represents the auth browser command
var browserCmd = &cobra.Command{
	Use:   "browser [name]",
	Short: "Save a session read from a local browser",
	Long: `Read the patreon.com cookies from a local browser profile and save them.

Without a name every browser found on this machine is searched.`,
	Example: `  ptscraper auth browser chrome
  ptscraper auth browser firefox --name personal`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var browser string
		if len(args) > 0 {
			browser = args[0]
		}
		cookies, err := auth.FromBrowser(browser, patreonDomain)
		if err != nil {
			return err
		}
		return saveSession(cookies, "")
	},
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Save a session by pasting the session cookie",
	Long: `Save a session by pasting the value of the session_id cookie.

The value is read without echo. To find it:
1. Log into Patreon in your browser
2. Open Developer Tools (F12)
3. Go to Application/Storage > Cookies > https://www.patreon.com
4. Copy the value of session_id`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove a saved session",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := sessionManager()
		if err != nil {
			return err
		}
		name := sessionName
		if len(args) > 0 {
			name = args[0]
		}
		if err := manager.Delete(name); err != nil {
			return err
		}
		ui.PrintSuccess("Session removed: " + name)
		return nil
	},
}

// checkCmd represents the auth check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that the current session is logged in",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(nil)
		if err != nil {
			return err
		}
		session, source, err := resolveSession(cfg, sessionSource{
			cookieFile:  cookieFile,
			browser:     fromBrowser,
			accountName: accountName,
		})
		if err != nil {
			return err
		}
		client, cleanup, err := newClient(cfg, session)
		if err != nil {
			return err
		}
		defer cleanup()

		user, err := client.Authenticate(cmd.Context())
		if err != nil {
			return err
		}

		ui.PrintSuccess("Session is valid")
		ui.PrintInfo("Source", source)
		ui.PrintInfo("User", fmt.Sprintf("%s (%s)", user.FullName, user.ID))
		ui.PrintInfo("Email", user.Email)
		ui.PrintInfo("Pledges", fmt.Sprintf("%d", user.PledgeCount))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(importCmd, browserCmd, loginCmd, listCmd, logoutCmd, checkCmd)

	authCmd.PersistentFlags().StringVar(&sessionName, "name", auth.DefaultAccount, "name of the saved session")
	checkCmd.Flags().StringVar(&cookieFile, "cookies", "", "cookie export file to check")
	checkCmd.Flags().StringVar(&fromBrowser, "from-browser", "", "check cookies read from a local browser")
	checkCmd.Flags().StringVarP(&accountName, "account", "a", "", "check a saved session")
}

func sessionManager() (*auth.Manager, error) {
	cfg, err := loadConfig(nil)
	if err != nil {
		return nil, err
	}
	return auth.NewManager(cfg.StateDir())
}

// saveSession validates cookies and stores them under --name
func saveSession(cookies map[string]string, userAgent string) error {
	if _, err := auth.NewSession(cookies, userAgent, ""); err != nil {
		return err
	}

	manager, err := sessionManager()
	if err != nil {
		return err
	}

	account := &auth.Account{
		Name:         sessionName,
		Cookies:      cookies,
		UserAgent:    userAgent,
		LastModified: time.Now(),
	}
	if err := manager.Store(account); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	ui.PrintSuccess(fmt.Sprintf("Session saved: %s (%d cookie(s))", sessionName, len(cookies)))
	if _, err := auth.NewKeyringStore(); err == nil {
		ui.PrintInfo("Stored in", "system keychain")
	} else {
		ui.PrintInfo("Stored in", "encrypted file")
	}
	fmt.Fprintln(ui.Out, "\nCheck it with: ptscraper auth check --account "+sessionName)
	return nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	auth.ShowCookieExtractionGuide(ui.Out)
	fmt.Fprint(ui.Out, "Ready to paste your session cookie? (Y/n): ")
	ready, _ := reader.ReadString('\n')
	if strings.ToLower(strings.TrimSpace(ready)) == "n" {
		fmt.Fprintln(ui.Out, "\nRun 'ptscraper auth login' when you're ready.")
		return nil
	}

	fmt.Fprint(ui.Out, "\nsession_id cookie value: ")
	sessionID, err := readSecret(reader)
	if err != nil {
		return fmt.Errorf("failed to read session cookie: %w", err)
	}
	if len(sessionID) < 16 {
		return fmt.Errorf("that does not look like a session_id value")
	}

	fmt.Fprint(ui.Out, "User Agent of that browser (press Enter to use default): ")
	userAgent, _ := reader.ReadString('\n')

	return saveSession(map[string]string{auth.SessionCookie: sessionID}, strings.TrimSpace(userAgent))
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := sessionManager()
	if err != nil {
		return err
	}
	accounts, err := manager.List()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		ui.PrintInfo("No saved sessions", "Use 'ptscraper auth import' or 'ptscraper auth browser' to add one")
		return nil
	}

	ui.PrintHighlight("Saved Sessions")
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		fmt.Fprintf(ui.Out, "\n%d. %s\n", i+1, sanitized.Name)
		if v, ok := sanitized.Cookies[auth.SessionCookie]; ok {
			fmt.Fprintf(ui.Out, "   %s: %s\n", auth.SessionCookie, v)
		}
		fmt.Fprintf(ui.Out, "   Cookies: %d\n", len(sanitized.Cookies))
		if sanitized.UserAgent != "" {
			fmt.Fprintf(ui.Out, "   User Agent: %s\n", sanitized.UserAgent)
		}
		fmt.Fprintf(ui.Out, "   Last Modified: %s\n", sanitized.LastModified.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// readSecret reads a value without echo when stdin is a terminal
func readSecret(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(ui.Out)
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
