package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/neurodir/neurodir/internal/directory/repository"
	"github.com/neurodir/neurodir/internal/email"
	"github.com/neurodir/neurodir/internal/identity"
	"github.com/neurodir/neurodir/internal/users"
	"github.com/neurodir/neurodir/pkg/client"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	apiURL  string
	cfgFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "dirctl",
	Short: "neurodir membership directory CLI",
	Long: `dirctl is the command-line interface for the neurodir membership directory.

It searches the directory, inspects profiles and aggregates, submits
recommendations, and manages your account from the terminal.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".neurodir"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if apiURL == "" {
			apiURL = viper.GetString("api_url")
		}
		if apiURL == "" {
			apiURL = "https://api.neurodir.org"
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.neurodir/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "directory API base URL (default https://api.neurodir.org)")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(countriesCmd)
	rootCmd.AddCommand(positionsCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(signupCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(claimCmd)
	rootCmd.AddCommand(purgeAccountCmd)
	rootCmd.AddCommand(versionCmd)
}

// newClient builds an SDK client carrying the saved session token, if any.
func newClient() *client.Client {
	opts := []client.Option{}
	if token := viper.GetString("token"); token != "" {
		opts = append(opts, client.WithBearerToken(token))
	}
	return client.MustNew(apiURL, opts...)
}

// ── search ───────────────────────────────────────────────────────────────────

var (
	searchUnderRep bool
	searchSenior   bool
	searchPage     int
	searchFormat   string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the membership directory",
	Long: `Search runs a faceted directory search. Query tokens match names,
institutions, keywords, and research-area labels, and are combined:

  dirctl search "cortex fmri"
  dirctl search --senior --under-represented
  dirctl search memory --page 2`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVar(&searchUnderRep, "under-represented", false, "Only profiles from under-represented countries")
	searchCmd.Flags().BoolVar(&searchSenior, "senior", false, "Only senior positions")
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "Result page (20 per page)")
	searchCmd.Flags().StringVar(&searchFormat, "format", "text", "Output format: text or json")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := ""
	if len(args) == 1 {
		query = args[0]
	}

	result, err := newClient().SearchProfiles(context.Background(), query, client.SearchOptions{
		UnderRepresentedOnly: searchUnderRep,
		SeniorOnly:           searchSenior,
		Page:                 searchPage,
	})
	if err != nil {
		return err
	}

	if searchFormat == "json" {
		return printJSON(result)
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPOSITION\tINSTITUTION\tCOUNTRY")
	for _, p := range result.Profiles {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Position, p.Institution, p.Country)
	}
	w.Flush()
	fmt.Printf("\npage %d of %d (%d profiles total)\n", result.Page, result.TotalPages, result.Total)
	return nil
}

// ── show ─────────────────────────────────────────────────────────────────────

var showCmd = &cobra.Command{
	Use:   "show <profile-id>",
	Short: "Show a profile with its recommendations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		detail, err := newClient().GetProfile(context.Background(), args[0])
		if err != nil {
			return err
		}

		p := detail.Profile
		fmt.Printf("%s\n", p.Name)
		if p.Position != "" || p.Institution != "" {
			fmt.Printf("  %s, %s\n", p.Position, p.Institution)
		}
		if p.Country != "" {
			fmt.Printf("  %s\n", p.Country)
		}
		printFacet("structures", p.BrainStructure)
		printFacet("modalities", p.Modalities)
		printFacet("methods", p.Methods)
		printFacet("domains", p.Domains)
		if p.Keywords != "" {
			fmt.Printf("  keywords:   %s\n", p.Keywords)
		}

		if len(detail.Recommendations) > 0 {
			fmt.Printf("\nrecommendations (%d):\n", len(detail.Recommendations))
			for _, rec := range detail.Recommendations {
				fmt.Printf("  — %s: %s\n", rec.ReviewerName, rec.Comment)
			}
		}
		return nil
	},
}

func printFacet(label, codes string) {
	if codes == "" {
		return
	}
	fmt.Printf("  %-11s %s\n", label+":", strings.ReplaceAll(codes, ",", ", "))
}

// ── aggregates ───────────────────────────────────────────────────────────────

var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List countries with at least one visible profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		countries, err := newClient().Countries(context.Background())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CODE\tNAME")
		for _, c := range countries {
			fmt.Fprintf(w, "%s\t%s\n", c.Code, c.Name)
		}
		return w.Flush()
	},
}

var positionsCmd = &cobra.Command{
	Use:   "positions",
	Short: "Show the histogram of positions across visible profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		positions, err := newClient().Positions(context.Background())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "POSITION\tCOUNT")
		for _, p := range positions {
			fmt.Fprintf(w, "%s\t%d\n", p.Position, p.Count)
		}
		return w.Flush()
	},
}

// ── recommend ────────────────────────────────────────────────────────────────

var (
	recName        string
	recEmail       string
	recPosition    string
	recInstitution string
	recComment     string
	recConference  bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend <profile-id>",
	Short: "Submit a recommendation for a profile",
	Long: `Recommend submits a public endorsement for a directory profile.

No login is required; when you are logged in, the submission is linked to
your account:

  dirctl recommend 1000...0001 --name "Jonas Keller" --comment "Excellent collaborator."`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := newClient().CreateRecommendation(context.Background(), args[0], client.RecommendationRequest{
			ReviewerName:        recName,
			ReviewerEmail:       recEmail,
			ReviewerPosition:    recPosition,
			ReviewerInstitution: recInstitution,
			Comment:             recComment,
			SeenAtConference:    recConference,
		})
		if err != nil {
			return err
		}
		fmt.Printf("recommendation %s recorded\n", rec.ID)
		return nil
	},
}

func init() {
	recommendCmd.Flags().StringVar(&recName, "name", "", "Your name (required)")
	recommendCmd.Flags().StringVar(&recEmail, "email", "", "Your contact email")
	recommendCmd.Flags().StringVar(&recPosition, "position", "", "Your position")
	recommendCmd.Flags().StringVar(&recInstitution, "institution", "", "Your institution")
	recommendCmd.Flags().StringVar(&recComment, "comment", "", "The recommendation text (required)")
	recommendCmd.Flags().BoolVar(&recConference, "conference", false, "You have seen this person present at a conference")
	recommendCmd.MarkFlagRequired("name")    //nolint:errcheck
	recommendCmd.MarkFlagRequired("comment") //nolint:errcheck
}

// ── signup / login / whoami ──────────────────────────────────────────────────

var (
	signupPassword    string
	signupUsername    string
	signupDisplayName string
)

var signupCmd = &cobra.Command{
	Use:   "signup <email>",
	Short: "Create an account (a confirmation link is emailed to you)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := signupPassword
		if password == "" {
			fmt.Print("password: ")
			if _, err := fmt.Scanln(&password); err != nil {
				return fmt.Errorf("read password: %w", err)
			}
		}

		result, err := client.MustNew(apiURL).Signup(context.Background(), client.SignupRequest{
			Email:       args[0],
			Password:    password,
			Username:    signupUsername,
			DisplayName: signupDisplayName,
		})
		if err != nil {
			return err
		}
		fmt.Printf("account %s created — check %s for the confirmation link\n",
			result.User.Username, result.User.Email)
		return nil
	},
}

func init() {
	signupCmd.Flags().StringVar(&signupPassword, "password", "", "Password (prompted when omitted)")
	signupCmd.Flags().StringVar(&signupUsername, "username", "", "Username (derived from the email when omitted)")
	signupCmd.Flags().StringVar(&signupDisplayName, "display-name", "", "Display name")
}

var loginPassword string

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in and store the session token in ~/.neurodir/config.yaml",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := loginPassword
		if password == "" {
			fmt.Print("password: ")
			if _, err := fmt.Scanln(&password); err != nil {
				return fmt.Errorf("read password: %w", err)
			}
		}

		c := client.MustNew(apiURL)
		result, err := c.Login(context.Background(), args[0], password)
		if err != nil {
			return err
		}

		viper.Set("api_url", apiURL)
		viper.Set("token", result.Token)
		if err := saveConfig(); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Printf("logged in as %s (%s)\n", result.User.Username, result.User.Email)
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Password (prompted when omitted)")
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		me, err := newClient().Me(context.Background())
		if err != nil {
			if errors.Is(err, client.ErrUnauthorized) {
				return fmt.Errorf("not logged in — run 'dirctl login <email>' first")
			}
			return err
		}
		fmt.Printf("%s (%s)\n", me.Username, me.Email)
		return nil
	},
}

// saveConfig writes the current viper state to ~/.neurodir/config.yaml.
func saveConfig() error {
	if cfgFile != "" {
		return viper.WriteConfigAs(cfgFile)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	dir := filepath.Join(home, ".neurodir")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	return viper.WriteConfigAs(filepath.Join(dir, "config.yaml"))
}

// ── claim ────────────────────────────────────────────────────────────────────

var claimSearch string

var claimCmd = &cobra.Command{
	Use:   "claim [profile-id]",
	Short: "Claim an unclaimed directory profile for your account",
	Long: `Claim links an existing unclaimed profile to your account. Without an
argument it lists claim candidates matching your display name:

  dirctl claim
  dirctl claim --search "otieno"
  dirctl claim 1000...0001`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient()
		ctx := context.Background()

		if len(args) == 0 {
			suggestions, err := c.ClaimSuggestions(ctx, claimSearch)
			if err != nil {
				return err
			}
			if len(suggestions) == 0 {
				fmt.Println("no unclaimed profiles match — try --search")
				return nil
			}
			w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tINSTITUTION")
			for _, p := range suggestions {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, p.Institution)
			}
			w.Flush()
			fmt.Println("\nrun 'dirctl claim <id>' to claim one")
			return nil
		}

		p, err := c.ClaimProfile(ctx, args[0])
		if err != nil {
			if errors.Is(err, client.ErrConflict) {
				return fmt.Errorf("claim failed: %w", err)
			}
			return err
		}
		fmt.Printf("claimed profile %s (%s)\n", p.ID, p.Name)
		return nil
	},
}

func init() {
	claimCmd.Flags().StringVar(&claimSearch, "search", "", "Search text for claim candidates (defaults to your display name)")
}

// ── purge-account (admin) ────────────────────────────────────────────────────

var (
	purgeDBURL string
	purgeYes   bool
)

var purgeAccountCmd = &cobra.Command{
	Use:   "purge-account <user-id>",
	Short: "Permanently delete an account directly in the database (admin)",
	Long: `Purge-account irreversibly deletes a user: the linked profile is
unlisted and unlinked, then the account row is removed. A support tool for
accounts that cannot be removed through the API (lost credentials, data
removal requests). Connects straight to the database — run it where
DATABASE_URL is available.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		userID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid user ID %q: %w", args[0], err)
		}
		if !purgeYes {
			return fmt.Errorf("refusing to purge without --yes: this cannot be undone")
		}

		dbURL := purgeDBURL
		if dbURL == "" {
			dbURL = os.Getenv("DATABASE_URL")
		}
		if dbURL == "" {
			return fmt.Errorf("set --database-url or DATABASE_URL")
		}

		ctx := context.Background()
		db, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		defer db.Close()

		logger := zap.NewNop()
		svc := users.NewUserService(
			users.NewUserRepository(db),
			repository.NewProfileRepository(db),
			repository.NewCountryRepository(db),
			identity.NewCodec([]byte("unused"), 0),
			identity.NewSessionIssuer([]byte("unused"), "", 0),
			email.NewNoopSender(logger),
			"", logger,
		)

		if err := svc.ConfirmDeletion(ctx, userID); err != nil {
			return fmt.Errorf("purge %s: %w", userID, err)
		}
		fmt.Printf("account %s purged\n", userID)
		return nil
	},
}

func init() {
	purgeAccountCmd.Flags().StringVar(&purgeDBURL, "database-url", "", "PostgreSQL connection string (or DATABASE_URL)")
	purgeAccountCmd.Flags().BoolVar(&purgeYes, "yes", false, "Confirm the irreversible purge")
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the dirctl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("dirctl", version)
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
