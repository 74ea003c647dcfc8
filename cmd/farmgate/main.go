package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/farmgate/farmgate/pkg/token"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

type client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

type ui struct {
	title func(a ...any) string
	ok    func(a ...any) string
	info  func(a ...any) string
	warn  func(a ...any) string
	err   func(a ...any) string
	dim   func(a ...any) string
}

func newUI() *ui {
	return &ui{
		title: color.New(color.FgHiCyan, color.Bold).SprintFunc(),
		ok:    color.New(color.FgGreen, color.Bold).SprintFunc(),
		info:  color.New(color.FgCyan).SprintFunc(),
		warn:  color.New(color.FgYellow).SprintFunc(),
		err:   color.New(color.FgRed, color.Bold).SprintFunc(),
		dim:   color.New(color.FgHiBlack).SprintFunc(),
	}
}

type profile struct {
	BaseURL      string `yaml:"baseUrl"`
	AccessToken  string `yaml:"accessToken"`
	RefreshToken string `yaml:"refreshToken"`
}

type cliConfig struct {
	CurrentProfile string             `yaml:"currentProfile"`
	Profiles       map[string]profile `yaml:"profiles"`
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	baseURL := getenv("FARMGATE_BASE_URL", "http://localhost:8080")
	profileName := getenv("FARMGATE_PROFILE", "")
	ui := newUI()

	root := &cobra.Command{
		Use:   "farmgate",
		Short: "farmgate CLI",
		Long:  "farmgate CLI for accounts, credentials, and marketplace operations.",
	}
	root.SilenceUsage = true

	root.PersistentFlags().StringVar(&baseURL, "base-url", baseURL, "Base URL for the farmgate API")
	root.PersistentFlags().StringVar(&profileName, "profile", profileName, "Config profile")

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, _, _ := loadCLIConfig()
		active := resolveProfileName(profileName, cfg)
		prof := cfg.Profiles[active]

		if !cmd.Flags().Changed("base-url") {
			if v := strings.TrimSpace(os.Getenv("FARMGATE_BASE_URL")); v != "" {
				baseURL = v
			} else if prof.BaseURL != "" {
				baseURL = prof.BaseURL
			}
		}
		if !cmd.Flags().Changed("profile") && profileName == "" && active != "" {
			profileName = active
		}
		return nil
	}

	root.AddCommand(registerCmd(&baseURL, ui))
	root.AddCommand(loginCmd(&baseURL, &profileName, ui))
	root.AddCommand(whoamiCmd(&baseURL, &profileName, ui))
	root.AddCommand(tokenCmd(ui))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.err("[ERROR]"), err.Error())
		os.Exit(1)
	}
}

func registerCmd(baseURL *string, ui *ui) *cobra.Command {
	var (
		email    string
		fullName string
		userType string
		phone    string
		farmName string
	)
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a marketplace account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || fullName == "" {
				return fmt.Errorf("--email and --full-name are required")
			}
			password, err := promptSecret("Password")
			if err != nil {
				return err
			}

			c := newClient(*baseURL, "")
			status, body, err := c.request(http.MethodPost, "/v1/farmgate/users", map[string]any{
				"email":    email,
				"password": password,
				"fullName": fullName,
				"userType": userType,
				"phone":    phone,
				"farmName": farmName,
			})
			if err != nil {
				return err
			}
			if status != http.StatusCreated {
				return fmt.Errorf("register failed (%d): %s", status, strings.TrimSpace(string(body)))
			}
			fmt.Println(ui.ok("account created"), ui.dim(email))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&fullName, "full-name", "", "Full name")
	cmd.Flags().StringVar(&userType, "user-type", "buyer", "Account role: buyer or farmer")
	cmd.Flags().StringVar(&phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&farmName, "farm-name", "", "Farm name (farmers)")
	return cmd
}

func loginCmd(baseURL *string, profileName *string, ui *ui) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the credential pair in the active profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			password, err := promptSecret("Password")
			if err != nil {
				return err
			}

			c := newClient(*baseURL, "")
			status, body, err := c.request(http.MethodPost, "/v1/farmgate/login", map[string]any{
				"email":    email,
				"password": password,
			})
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("login failed (%d): %s", status, strings.TrimSpace(string(body)))
			}

			var pair struct {
				AccessToken  string `json:"access_token"`
				RefreshToken string `json:"refresh_token"`
			}
			if err := json.Unmarshal(body, &pair); err != nil {
				return err
			}

			cfg, path, err := loadCLIConfig()
			if err != nil {
				return err
			}
			active := resolveProfileName(*profileName, cfg)
			if active == "" {
				active = "default"
			}
			prof := cfg.Profiles[active]
			prof.BaseURL = *baseURL
			prof.AccessToken = pair.AccessToken
			prof.RefreshToken = pair.RefreshToken
			cfg.Profiles[active] = prof
			cfg.CurrentProfile = active
			if err := saveCLIConfig(cfg, path); err != nil {
				return err
			}
			fmt.Println(ui.ok("logged in"), ui.dim(email), ui.dim("profile="+active))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	return cmd
}

func whoamiCmd(baseURL *string, profileName *string, ui *ui) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the profile of the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _ := loadCLIConfig()
			prof := cfg.Profiles[resolveProfileName(*profileName, cfg)]
			if prof.AccessToken == "" {
				return fmt.Errorf("not logged in; run 'farmgate login' first")
			}

			c := newClient(*baseURL, prof.AccessToken)
			status, body, err := c.request(http.MethodGet, "/v1/farmgate/users/me", nil)
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("request failed (%d): %s", status, strings.TrimSpace(string(body)))
			}
			var pretty bytes.Buffer
			if err := json.Indent(&pretty, body, "", "  "); err != nil {
				fmt.Println(string(body))
				return nil
			}
			fmt.Println(ui.title("profile"))
			fmt.Println(pretty.String())
			return nil
		},
	}
}

func tokenCmd(ui *ui) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue and inspect signed credentials locally",
	}
	cmd.AddCommand(tokenIssueCmd(ui), tokenInspectCmd(ui))
	return cmd
}

func tokenIssueCmd(ui *ui) *cobra.Command {
	var (
		secret string
		alg    string
		userID string
		role   string
	)
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Mint an access/refresh pair with a local secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := token.NewProfile(token.ProfileConfig{
				Algorithm:  alg,
				SigningKey: []byte(secret),
			})
			if err != nil {
				return err
			}
			issuer, err := token.NewIssuer(p)
			if err != nil {
				return err
			}
			pair, err := issuer.IssuePair(token.Principal{ID: userID, Role: role})
			if err != nil {
				return err
			}
			fmt.Println(ui.title("access_token"))
			fmt.Println(pair.Access)
			fmt.Println(ui.title("refresh_token"))
			fmt.Println(pair.Refresh)
			return nil
		},
	}
	issue.Flags().StringVar(&secret, "secret", "", "HS* signing secret")
	issue.Flags().StringVar(&alg, "alg", "HS256", "Signature algorithm")
	issue.Flags().StringVar(&userID, "user-id", "", "user_id claim")
	issue.Flags().StringVar(&role, "role", "buyer", "user_type claim")
	_ = issue.MarkFlagRequired("secret")
	_ = issue.MarkFlagRequired("user-id")
	return issue
}

func tokenInspectCmd(ui *ui) *cobra.Command {
	var (
		secret string
		alg    string
		kind   string
		strict bool
	)
	inspect := &cobra.Command{
		Use:   "inspect <token>",
		Short: "Verify a credential and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := token.NewProfile(token.ProfileConfig{
				Algorithm:  alg,
				SigningKey: []byte(secret),
			})
			if err != nil {
				return err
			}
			k := token.KindAccess
			if kind == "refresh" {
				k = token.KindRefresh
			}
			opts := token.LenientDecode
			if strict {
				opts = token.StrictDecode
			}

			tok, err := token.Parse(k, args[0], p, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", ui.err("verification failed"), err)
			}

			out, err := json.MarshalIndent(tok.Claims(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(ui.title("claims"))
			fmt.Println(string(out))
			if tok.Expired() {
				fmt.Println(ui.warn("token is expired"), ui.dim("(lenient decode)"))
			} else {
				fmt.Println(ui.ok("token is valid until"), tok.ExpiresAt().Format(time.RFC3339))
			}
			return nil
		},
	}
	inspect.Flags().StringVar(&secret, "secret", "", "HS* signing secret")
	inspect.Flags().StringVar(&alg, "alg", "HS256", "Signature algorithm")
	inspect.Flags().StringVar(&kind, "kind", "access", "Expected kind: access or refresh")
	inspect.Flags().BoolVar(&strict, "strict", false, "Enforce expiry as well as the signature")
	_ = inspect.MarkFlagRequired("secret")
	return inspect
}

func newClient(baseURL, accessToken string) *client {
	return &client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *client) request(method, path string, body any) (int, []byte, error) {
	var buf *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		buf = bytes.NewReader(b)
	} else {
		buf = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.baseURL+path, buf)
	if err != nil {
		return 0, nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, out.Bytes(), nil
}

func promptSecret(label string) (string, error) {
	fmt.Printf("%s: ", label)
	b, err := termReadPassword()
	fmt.Println()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func termReadPassword() ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		return []byte(strings.TrimSpace(line)), err
	}
	return term.ReadPassword(fd)
}

func configPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".farmgate.yaml"
	}
	return filepath.Join(home, ".farmgate.yaml")
}

func loadCLIConfig() (cliConfig, string, error) {
	path := configPath()
	var cfg cliConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cliConfig{Profiles: map[string]profile{}}, path, nil
		}
		return cfg, path, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, path, err
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]profile{}
	}
	return cfg, path, nil
}

func saveCLIConfig(cfg cliConfig, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func resolveProfileName(requested string, cfg cliConfig) string {
	if requested != "" {
		return requested
	}
	if cfg.CurrentProfile != "" {
		return cfg.CurrentProfile
	}
	return "default"
}
