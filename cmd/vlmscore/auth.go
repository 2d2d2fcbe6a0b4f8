package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"vlmscore/pkg/auth"
	"vlmscore/pkg/config"
	"vlmscore/pkg/logger"
	"vlmscore/pkg/ui"
	"vlmscore/pkg/vlm"
)

var loginName string

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API endpoint profiles",
	Long: `Manage stored endpoint profiles securely.

A profile bundles an endpoint URL, an API token and a model name under
a name you choose. Profiles are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read-only fallback)

Never share your API tokens or config files!`,
}

// loginCmd represents the auth login command
var loginCmd = &cobra.Command{
	Use:   "login [name]",
	Short: "Store an endpoint profile securely",
	Long: `Store an endpoint profile securely in the system keychain or an
encrypted file.

You will be prompted for:
  - Profile name (if not provided)
  - Endpoint URL (OpenAI-style chat completions endpoint)
  - Model name (the model or endpoint id the provider routes by)
  - API token (hidden as you type)`,
	Example: `  # Interactive login
  vlmscore auth login

  # Store under a specific profile name
  vlmscore auth login --name production`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogin,
}

// logoutCmd represents the auth logout command
var logoutCmd = &cobra.Command{
	Use:   "logout [name]",
	Short: "Remove a stored profile",
	Long: `Remove a stored endpoint profile.

If no name is provided, you will be shown a list of stored profiles to
choose from. You can also remove all profiles at once.`,
	Example: `  # Interactive logout
  vlmscore auth logout

  # Remove a specific profile
  vlmscore auth logout production`,
	Args: cobra.MaximumNArgs(1),
	Run:  runLogout,
}

// authListCmd represents the auth list command
var authListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored profiles",
	Long:  `List all stored endpoint profiles with masked tokens.`,
	Run:   runAuthList,
}

// authTestCmd represents the auth test command
var authTestCmd = &cobra.Command{
	Use:   "test [name]",
	Short: "Verify a profile against its endpoint",
	Long: `Send one tiny generated image to the profile's endpoint and report
whether scoring works.

The request costs a few hundred tokens. Without a name the default
profile is tested, falling back to environment variables.`,
	Example: `  # Test the default profile
  vlmscore auth test

  # Test a specific profile
  vlmscore auth test production`,
	Args: cobra.MaximumNArgs(1),
	Run:  runAuthTest,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(authListCmd)
	authCmd.AddCommand(authTestCmd)

	loginCmd.Flags().StringVar(&loginName, "name", "", "profile name to store under")
}

func runLogin(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	name := loginName
	if len(args) > 0 {
		name = args[0]
	}

	// Interactive prompts
	reader := bufio.NewReader(os.Stdin)

	// Show the setup guide first
	auth.ShowTokenSetupGuide()

	// Ask if ready to continue
	fmt.Print("Ready to enter your endpoint details? (Y/n): ")
	ready, _ := reader.ReadString('\n')
	if strings.ToLower(strings.TrimSpace(ready)) == "n" {
		fmt.Println("\nRun 'vlmscore auth login' when you're ready.")
		return
	}

	fmt.Println() // Add spacing

	if name == "" {
		fmt.Print("Profile name [default]: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			ui.PrintError("Failed to read profile name", err.Error())
			os.Exit(1)
		}
		name = strings.TrimSpace(input)
		if name == "" {
			name = "default"
		}
	}

	// Check if the profile already exists
	if existing, _ := manager.Retrieve(name); existing != nil {
		fmt.Printf("\nProfile '%s' already exists. Update it? (y/N): ", name)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return
		}
	}

	// Get the endpoint URL with validation
	var endpoint string
	for {
		fmt.Print("Endpoint URL: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			ui.PrintError("Failed to read endpoint", err.Error())
			os.Exit(1)
		}
		endpoint = strings.TrimSpace(input)

		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			fmt.Println("\nThat doesn't look like an endpoint URL.")
			fmt.Println("   It should start with https:// and point at a chat completions route.")
			fmt.Println("   Example: https://ark.cn-beijing.volces.com/api/v3/chat/completions")
			fmt.Print("\nTry again? (Y/n): ")
			retry, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(retry)) == "n" {
				os.Exit(1)
			}
			continue
		}
		break
	}

	// Get the model name
	fmt.Print("Model name: ")
	modelInput, _ := reader.ReadString('\n')
	model := strings.TrimSpace(modelInput)

	fmt.Println("\nEnter your API token (it will be hidden as you type):")
	fmt.Println()

	// Get the API token with validation
	var token string
	for {
		fmt.Print("API token: ")
		token, err = readPassword()
		if err != nil {
			ui.PrintError("Failed to read API token", err.Error())
			os.Exit(1)
		}

		// Basic validation
		if len(token) < 12 {
			fmt.Println("\nThat doesn't look like a valid API token.")
			fmt.Println("   Keys are long strings; make sure you copied the whole value.")
			fmt.Print("\nTry again? (Y/n): ")
			retry, _ := reader.ReadString('\n')
			if strings.ToLower(strings.TrimSpace(retry)) == "n" {
				os.Exit(1)
			}
			continue
		}
		break
	}

	// Show what we're about to store
	fmt.Println("\nSummary:")
	fmt.Printf("   Profile:  %s\n", name)
	fmt.Printf("   Endpoint: %s\n", endpoint)
	if model != "" {
		fmt.Printf("   Model:    %s\n", model)
	}
	fmt.Printf("   Token:    %s\n", auth.MaskToken(token))

	creds := &auth.Credentials{
		Name:     name,
		Endpoint: endpoint,
		Token:    token,
		Model:    model,
	}

	// Store the profile
	fmt.Println("\nStoring profile securely...")
	if err := manager.Store(creds); err != nil {
		ui.PrintError("Failed to store profile", err.Error())
		os.Exit(1)
	}

	fmt.Println()
	ui.PrintSuccess(fmt.Sprintf("Profile saved: %s", name))

	// Show where the profile went
	fmt.Println("\nSecurity information:")
	fmt.Println("   Your token is encrypted and stored in:")
	fmt.Println("   - System keychain (when available)")
	fmt.Println("   - Encrypted file (fallback)")

	// Show how to use it
	fmt.Println("\nQuick start:")
	fmt.Println("   Verify the profile works:")
	fmt.Printf("   $ vlmscore auth test %s\n", name)
	fmt.Println("\n   Score a directory of images:")
	fmt.Printf("   $ vlmscore score ./photos --profile %s\n", name)
	fmt.Println("\n   Show more options:")
	fmt.Printf("   $ vlmscore score --help\n")
	fmt.Println("\nNever share your API tokens or config files!")
}

func runLogout(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	if len(args) == 0 {
		// List profiles and ask which to remove
		profiles, err := manager.List()
		if err != nil || len(profiles) == 0 {
			ui.PrintError("No stored profiles found", "")
			return
		}

		if len(profiles) == 1 {
			// Only one profile, confirm deletion
			profile := profiles[0]
			reader := bufio.NewReader(os.Stdin)
			fmt.Printf("Remove profile '%s'? (y/N): ", profile.Name)
			input, _ := reader.ReadString('\n')
			if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
				return
			}

			if err := manager.Delete(profile.Name); err != nil {
				ui.PrintError("Failed to remove profile", err.Error())
				os.Exit(1)
			}
			ui.PrintSuccess("Profile removed: " + profile.Name)
			return
		}

		// Multiple profiles, show menu
		fmt.Println("Select profile to remove:")
		for i, profile := range profiles {
			fmt.Printf("  %d. %s\n", i+1, profile.Name)
		}
		fmt.Printf("  %d. Remove all profiles\n", len(profiles)+1)
		fmt.Printf("  0. Cancel\n\n")

		reader := bufio.NewReader(os.Stdin)
		fmt.Print("Choice: ")
		input, _ := reader.ReadString('\n')

		var choice int
		fmt.Sscanf(strings.TrimSpace(input), "%d", &choice)

		if choice == 0 {
			return
		} else if choice == len(profiles)+1 {
			// Remove all
			fmt.Print("Remove ALL profiles? This cannot be undone! (yes/N): ")
			confirm, _ := reader.ReadString('\n')
			if strings.TrimSpace(confirm) != "yes" {
				return
			}

			if err := manager.DeleteAll(); err != nil {
				ui.PrintError("Failed to remove all profiles", err.Error())
				os.Exit(1)
			}
			ui.PrintSuccess("All profiles removed")
			return
		} else if choice > 0 && choice <= len(profiles) {
			profile := profiles[choice-1]
			if err := manager.Delete(profile.Name); err != nil {
				ui.PrintError("Failed to remove profile", err.Error())
				os.Exit(1)
			}
			ui.PrintSuccess("Profile removed: " + profile.Name)
			return
		} else {
			ui.PrintError("Invalid choice", "")
			os.Exit(1)
		}
	}

	// Profile name provided as argument
	name := args[0]
	if err := manager.Delete(name); err != nil {
		ui.PrintError("Failed to remove profile", err.Error())
		os.Exit(1)
	}
	ui.PrintSuccess("Profile removed: " + name)
}

func runAuthList(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
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
		ui.PrintInfo("No stored profiles", "Use 'vlmscore auth login' to add one")
		return
	}

	ui.PrintHighlight("Stored Profiles")
	fmt.Println()

	for i, profile := range profiles {
		sanitized := auth.SanitizeCredentials(profile)
		fmt.Printf("%d. Profile: %s\n", i+1, sanitized.Name)
		fmt.Printf("   Endpoint: %s\n", sanitized.Endpoint)
		fmt.Printf("   Token: %s\n", sanitized.Token)
		if sanitized.Model != "" {
			fmt.Printf("   Model: %s\n", sanitized.Model)
		}
		if !sanitized.LastUsed.IsZero() {
			fmt.Printf("   Last Used: %s\n", sanitized.LastUsed.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
	}
}

func runAuthTest(cmd *cobra.Command, args []string) {
	manager, err := auth.NewManager()
	if err != nil {
		ui.PrintError("Failed to initialize credential manager", err.Error())
		os.Exit(1)
	}

	var creds *auth.Credentials
	if len(args) > 0 {
		creds, err = manager.Retrieve(args[0])
		if err != nil {
			ui.PrintError("Profile not found", args[0])
			os.Exit(1)
		}
	} else {
		creds, err = manager.RetrieveDefault()
		if err != nil {
			ui.PrintError("No profile to test", "Use 'vlmscore auth login' to store one")
			os.Exit(1)
		}
	}

	if creds.Model == "" {
		ui.PrintError("Profile has no model name", "store one with 'vlmscore auth login' or set VLMSCORE_MODEL")
		os.Exit(1)
	}

	ui.PrintInfo("Testing profile", creds.Name)
	ui.PrintInfo("Endpoint", creds.Endpoint)
	ui.PrintInfo("Model", creds.Model)
	fmt.Println()

	// One tiny probe keeps the test request cheap
	data, err := probeImage()
	if err != nil {
		ui.PrintError("Failed to build probe image", err.Error())
		os.Exit(1)
	}

	apiCfg := config.DefaultConfig().API
	apiCfg.Endpoint = creds.Endpoint
	apiCfg.Token = creds.Token
	apiCfg.Model = creds.Model
	apiCfg.RequestTimeout = config.Duration(2 * time.Minute)

	client := vlm.NewClient(&apiCfg, logger.GetLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fmt.Println("Sending probe request...")
	start := time.Now()
	eval, err := client.ScoreImageBytes(ctx, "probe.jpg", data)
	if err != nil {
		ui.PrintError("Profile test failed", err.Error())
		os.Exit(1)
	}

	if err := manager.Touch(creds.Name); err != nil {
		logger.WithError(err).WithField("profile", creds.Name).Warn("Failed to update profile usage time")
	}

	fmt.Println()
	ui.PrintSuccess("Profile works")
	ui.PrintInfo("Response time", fmt.Sprintf("%.1fs", time.Since(start).Seconds()))
	if eval.Model != "" {
		ui.PrintInfo("Model", eval.Model)
	}
	if eval.Provider != "" {
		ui.PrintInfo("Provider", eval.Provider)
	}
	ui.PrintInfo("Probe score", fmt.Sprintf("%.1f", eval.Score))
	ui.PrintInfo("Tokens used", fmt.Sprintf("%d prompt + %d completion",
		eval.Usage.PromptTokens, eval.Usage.CompletionTokens))
}

// probeImage renders a small gradient JPEG entirely in memory. Real
// image bytes keep provider-side decoding honest while costing only a
// few hundred vision tokens.
func probeImage() ([]byte, error) {
	const side = 64
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 4), uint8(y * 4), 160, 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// readPassword reads a token from stdin without echoing
func readPassword() (string, error) {
	// Try to read without echo
	if term.IsTerminal(int(syscall.Stdin)) {
		password, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println() // New line after the hidden input
		if err == nil {
			return string(password), nil
		}
	}

	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
