package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/askboard/askboard/config"
	"github.com/askboard/askboard/database"
	"github.com/askboard/askboard/logger"
	"github.com/askboard/askboard/web"
	"github.com/askboard/askboard/web/service"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

func runWebServer() {
	log.Printf("Starting %v %v", config.GetName(), config.GetVersion())

	level, err := logger.ParseLevel(config.GetLogLevel())
	if err != nil {
		log.Fatal(err)
	}
	logger.InitLogger(level)
	defer logger.CloseLogger()

	if err := database.InitDB(config.GetDatabaseConfig()); err != nil {
		log.Fatalf("Error initializing database: %v", err)
	}
	defer func() {
		if err := database.CloseDB(); err != nil {
			logger.Warning("close database:", err)
		}
	}()

	server := web.NewServer(database.GetDB())
	if err := server.Start(); err != nil {
		log.Printf("Error starting web server: %v", err)
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP, syscall.SIGTERM, os.Interrupt)
	for sig := range sigCh {
		if err := server.Stop(); err != nil {
			logger.Debug("stop web server:", err)
		}
		if sig != syscall.SIGHUP {
			logger.Info("Web server stopped")
			return
		}
		// SIGHUP re-reads the settings table
		server = web.NewServer(database.GetDB())
		if err := server.Start(); err != nil {
			logger.Error("restart web server:", err)
			return
		}
		logger.Info("Web server restarted")
	}
}

// settingsCmd wraps a settings subcommand with opening and closing the store.
func settingsCmd(fn func(cmd *cobra.Command, settings *service.SettingService, users *service.UserService) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		if err := database.InitDB(config.GetDatabaseConfig()); err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer database.CloseDB()
		db := database.GetDB()
		return fn(cmd, service.NewSettingService(db), service.NewUserService(db))
	}
}

func resetSetting(cmd *cobra.Command, settings *service.SettingService, _ *service.UserService) error {
	if err := settings.ResetSettings(); err != nil {
		return fmt.Errorf("reset settings: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Settings reset to defaults.")
	return nil
}

func showSetting(cmd *cobra.Command, settings *service.SettingService, users *service.UserService) error {
	all, err := settings.GetAllSetting()
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		data, err := json.MarshalIndent(all, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintln(out, "listen:", all.WebListen)
	fmt.Fprintln(out, "port:", all.WebPort)
	fmt.Fprintln(out, "webBasePath:", all.WebBasePath)
	fmt.Fprintln(out, "sessionMaxAge:", all.SessionMaxAge)
	fmt.Fprintln(out, "timeLocation:", all.TimeLocation)
	fmt.Fprintln(out, "trustedProxies:", all.TrustedProxies)

	admin, err := users.GetFirstAdmin(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "admin username:", admin.Username)
	fmt.Fprintln(out, "admin password:", admin.Password)
	return nil
}

// updateSetting applies the given flags on top of the stored settings and
// saves them only if the result is valid.
func updateSetting(cmd *cobra.Command, settings *service.SettingService, _ *service.UserService) error {
	all, err := settings.GetAllSetting()
	if err != nil {
		return fmt.Errorf("read settings: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("port") {
		all.WebPort, _ = flags.GetInt("port")
	}
	if flags.Changed("listen") {
		all.WebListen, _ = flags.GetString("listen")
	}
	if flags.Changed("webBasePath") {
		all.WebBasePath, _ = flags.GetString("webBasePath")
	}
	if flags.Changed("trustedProxies") {
		all.TrustedProxies, _ = flags.GetString("trustedProxies")
	}
	if err := settings.UpdateAllSetting(all); err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Settings saved: listen=%q port=%d webBasePath=%s trustedProxies=%q\n",
		all.WebListen, all.WebPort, all.WebBasePath, all.TrustedProxies)
	return nil
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          config.GetName(),
		Short:        "Live question board for classrooms",
		Version:      config.GetVersion(),
		SilenceUsage: true,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the web server",
		Run: func(*cobra.Command, []string) {
			runWebServer()
		},
	}

	settingCmd := &cobra.Command{
		Use:   "setting",
		Short: "Show or change stored server settings",
	}
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset all settings to their defaults",
		RunE:  settingsCmd(resetSetting),
	}
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current settings",
		RunE:  settingsCmd(showSetting),
	}
	showCmd.Flags().Bool("json", false, "print settings as JSON")

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Update settings",
		RunE:  settingsCmd(updateSetting),
	}
	updateCmd.Flags().Int("port", 0, "set web server port")
	updateCmd.Flags().String("listen", "", "set web server listen IP, empty for all interfaces")
	updateCmd.Flags().String("webBasePath", "", "set base path for all routes")
	updateCmd.Flags().String("trustedProxies", "", "set comma separated proxy IPs or CIDRs trusted for X-Forwarded-* headers")

	settingCmd.AddCommand(resetCmd, showCmd, updateCmd)
	rootCmd.AddCommand(runCmd, settingCmd)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
