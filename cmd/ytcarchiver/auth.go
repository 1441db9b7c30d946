package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"ytcarchiver/pkg/session"
	"ytcarchiver/pkg/ui"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage stored YouTube credentials",
	Long: `Manage the cookie secrets used for members-only content.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (YTCARCHIVER_SAPISID, YTCARCHIVER_SECURE_PSID)

A full cookies.txt file passed via --cookie-file always takes
precedence over stored credentials.`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [profile]",
	Short: "Store YouTube cookie secrets securely",
	Long: `Store the SAPISID and __Secure-3PSID cookie values securely.

To get these values:
1. Log into YouTube in your browser
2. Open Developer Tools (F12)
3. Go to Application/Storage > Cookies > https://www.youtube.com
4. Copy the SAPISID and __Secure-3PSID values`,
	Example: `  # Interactive login under the default profile
  ytcarchiver auth login

  # Store under a named profile
  ytcarchiver auth login myaccount`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [profile]",
	Short: "Remove stored credentials",
	Args:  cobra.MaximumNArgs(1),
	Run:   runLogout,
}

// listCmd represents the auth list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credential profiles",
	Run:   runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := session.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	name := "default"
	if len(args) > 0 {
		name = args[0]
	}

	reader := bufio.NewReader(os.Stdin)

	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("Profile '%s' already exists. Update credentials? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	fmt.Println("Enter your cookie values (they will be hidden as you type):")
	fmt.Println()

	fmt.Print("SAPISID cookie value: ")
	sapisid, err := readPassword()
	if err != nil {
		ui.PrintError("Failed to read SAPISID", err.Error())
		os.Exit(1)
	}

	fmt.Print("__Secure-3PSID cookie value (optional, press Enter to skip): ")
	securePSID, err := readPassword()
	if err != nil {
		ui.PrintError("Failed to read __Secure-3PSID", err.Error())
		os.Exit(1)
	}

	if sapisid == "" && securePSID == "" {
		ui.PrintError("At least one cookie value is required")
		os.Exit(1)
	}

	profile := &session.Profile{
		Name:       name,
		SAPISID:    sapisid,
		SecurePSID: securePSID,
	}

	if err := manager.Store(profile); err != nil {
		ui.PrintError("Failed to store credentials", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Credentials stored: " + name)
	fmt.Println("\nMembers-only posts will now be included when running:")
	fmt.Println("  ytcarchiver export --url <channel-community-url> --output <dir>")
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := session.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	name := "default"
	if len(args) > 0 {
		name = args[0]
	}

	if err := manager.Delete(name); err != nil {
		ui.PrintError("Failed to remove profile", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Profile removed: " + name)
}

func runList(cmd *cobra.Command, args []string) {
	manager, err := session.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	profiles, err := manager.List()
	if err != nil {
		ui.PrintError("Failed to list profiles", err.Error())
		os.Exit(1)
	}

	if len(profiles) == 0 {
		ui.PrintInfo("No stored profiles", "Use 'ytcarchiver auth login' to add one")
		return
	}

	ui.PrintHighlight("Stored Profiles")
	fmt.Println()

	for i, profile := range profiles {
		fmt.Printf("%d. %s\n", i+1, profile.Name)
		fmt.Printf("   SAPISID: %s\n", maskSecret(profile.SAPISID))
		fmt.Printf("   __Secure-3PSID: %s\n", maskSecret(profile.SecurePSID))
		if !profile.LastModified.IsZero() {
			fmt.Printf("   Last Modified: %s\n", profile.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
}

// maskSecret shows only the edges of a stored secret
func maskSecret(secret string) string {
	if secret == "" {
		return "(not set)"
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}

// readPassword reads a secret from stdin without echoing
func readPassword() (string, error) {
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err == nil {
			return strings.TrimSpace(string(password)), nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
