package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/iometer/internal/config"
	"github.com/muurk/iometer/internal/discovery"
	"github.com/muurk/iometer/internal/logging"
	"github.com/muurk/iometer/internal/ui"
	"github.com/muurk/iometer/internal/version"
	"github.com/muurk/iometer/pkg/iometer"
)

const (
	formatDetailed = "detailed"
	formatCompact  = "compact"
	formatJSON     = "json"
)

// Command flags
var (
	hostFlag     string
	timeoutFlag  time.Duration
	outputFormat string
	logLevel     string
	scanTimeout  time.Duration
)

// State loaded by setup before every command
var (
	env         *config.Env
	registry    *config.Registry
	registryErr error
)

// findBridge returns the only bridge answering mDNS within timeout
var findBridge = func(ctx context.Context, timeout time.Duration) (*discovery.Bridge, error) {
	scanner := discovery.NewScanner()
	scanner.Timeout = timeout
	return scanner.FindOne(ctx)
}

// scanBridges returns every bridge answering mDNS within timeout
var scanBridges = discovery.ScanForBridges

// spinnerOut is where progress spinners are drawn
var spinnerOut = os.Stderr

func init() {
	rootCmd.PersistentFlags().StringVar(&hostFlag, "host", "", "Bridge hostname, IP address or nickname (skips discovery)")
	rootCmd.PersistentFlags().DurationVar(&timeoutFlag, "timeout", 0, "Per-attempt request timeout (default from config, 5s)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", formatDetailed, "Output format (detailed, compact, json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when empty")

	rootCmd.AddCommand(readingCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(bridgesCmd)
	rootCmd.AddCommand(configCmd)
}

// setup reads the environment, initializes logging and loads the registry
func setup(cmd *cobra.Command, args []string) error {
	var err error
	env, err = config.LoadEnv()
	if err != nil {
		return err
	}

	level := logLevel
	if level == "" {
		level = env.LogLevel
	}
	if err := logging.Initialize(level); err != nil {
		return err
	}

	switch outputFormat {
	case formatDetailed, formatCompact, formatJSON:
	default:
		return fmt.Errorf("unknown output format %q (use detailed, compact or json)", outputFormat)
	}

	registry, registryErr = config.LoadRegistry()
	if registryErr != nil {
		logging.Warn("Ignoring unreadable configuration file", zap.Error(registryErr))
		registry = config.NewRegistry()
	}
	return nil
}

// readingCmd fetches the current meter reading
var readingCmd = &cobra.Command{
	Use:   "reading",
	Short: "Show the current meter reading",
	Long: `Fetch the latest meter reading from the bridge.

Shows the meter number, the time of the reading, current power and the
consumption and production counters, followed by every register the bridge
reported.`,
	Example: `  # Reading with auto-discovery
  iometer reading

  # Reading from a specific bridge
  iometer reading --host 192.168.1.100

  # One line for scripts and logs
  iometer reading --host 192.168.1.100 --format compact

  # JSON output
  iometer reading --host 192.168.1.100 --format json`,
	Args: cobra.NoArgs,
	RunE: runReading,
}

func runReading(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	host, err := resolveHost(ctx)
	if err != nil {
		return err
	}

	var reading *iometer.Reading
	err = callBridge(ctx, host, "reading", func(ctx context.Context, client *iometer.Client) error {
		var err error
		reading, err = client.GetCurrentReading(ctx)
		return err
	})
	if err != nil {
		return reportBridgeError(cmd, "Reading failed", host, err)
	}

	return printResult(cmd, reading,
		func(width int) string { return ui.RenderReading(reading, host, width) },
		reading.FormatCompact,
	)
}

// statusCmd fetches the bridge status
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show bridge and core module status",
	Long: `Fetch the status of the bridge and its core module.

Shows the bridge firmware and signal, and the connection, power and
attachment state of the core module on the meter. A successful call also
remembers the bridge in the configuration file.`,
	Example: `  # Status with auto-discovery
  iometer status

  # Status of a remembered bridge by nickname
  iometer status --host basement`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	host, err := resolveHost(ctx)
	if err != nil {
		return err
	}

	var status *iometer.Status
	err = callBridge(ctx, host, "status", func(ctx context.Context, client *iometer.Client) error {
		var err error
		status, err = client.GetCurrentStatus(ctx)
		return err
	})
	if err != nil {
		return reportBridgeError(cmd, "Status failed", host, err)
	}

	rememberBridge(host, status)

	return printResult(cmd, status,
		func(width int) string { return ui.RenderStatus(status, host, width) },
		status.FormatCompact,
	)
}

// scanCmd discovers bridges on the network
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for IOmeter bridges on the network",
	Long: `Scan for IOmeter bridges using mDNS/DNS-SD discovery.

Listens for _iometer._tcp announcements and lists every bridge that answered
with the address to pass to --host.`,
	Example: `  # Scan with the configured discovery timeout (default 5s)
  iometer scan

  # Longer scan for slow networks
  iometer scan --timeout 15s`,
	Args: cobra.NoArgs,
	RunE: runScan,
}

func init() {
	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 0, "How long to listen for bridges (default from config, 5s)")
}

func runScan(cmd *cobra.Command, args []string) error {
	timeout := scanTimeout
	if timeout <= 0 {
		timeout = registry.DiscoverTimeout()
	}

	var bridges []*discovery.Bridge
	label := fmt.Sprintf("Scanning for IOmeter bridges (%s)...", timeout)
	err := ui.RunWithSpinner(cmd.Context(), spinnerOut, label, func(ctx context.Context) error {
		var err error
		bridges, err = scanBridges(ctx, timeout)
		return err
	})
	if err != nil {
		logging.Error("Bridge discovery failed", zap.Duration("timeout", timeout), zap.Error(err))
		return fmt.Errorf("scan failed: %w", err)
	}

	for _, bridge := range bridges {
		logging.LogDiscoveredBridge(bridge.Instance, bridge.IP, bridge.Port)
	}

	if outputFormat == formatJSON {
		return printJSON(cmd, bridges)
	}

	rows := make([]ui.BridgeRow, 0, len(bridges))
	for _, bridge := range bridges {
		rows = append(rows, ui.BridgeRow{
			Name:   bridge.Instance,
			Host:   bridge.Host(),
			Detail: strings.TrimSuffix(bridge.Hostname, "."),
		})
	}

	printer := ui.NewPrinter(cmd.OutOrStdout())
	printer.Println(ui.RenderBridgeList(fmt.Sprintf("Found %d bridge(s)", len(bridges)), rows, printer.Width()))

	if len(bridges) == 0 {
		printer.Println(ui.HintStyle.Render(strings.Join([]string{
			"Troubleshooting:",
			"  • Ensure the bridge is powered and connected to your WiFi",
			"  • Verify your computer is on the same network",
			"  • Try increasing --timeout for slower networks",
			"  • Use --host to specify the bridge address if discovery fails",
		}, "\n")))
		return nil
	}

	printer.Println(ui.HintStyle.Render("Use 'iometer status --host <host>' to query a bridge"))
	return nil
}

// bridgesCmd lists remembered bridges
var bridgesCmd = &cobra.Command{
	Use:   "bridges",
	Short: "List bridges remembered in the configuration file",
	Long: `List the bridges that answered a status call before.

Bridges are remembered by device id together with the host they last
answered on, their firmware build and the paired meter.`,
	Args: cobra.NoArgs,
	RunE: runBridges,
}

var bridgesDefaultCmd = &cobra.Command{
	Use:   "default <host-or-nickname>",
	Short: "Set the bridge used when --host is not given",
	Example: `  iometer bridges default 192.168.1.100
  iometer bridges default basement`,
	Args: cobra.ExactArgs(1),
	RunE: runBridgesDefault,
}

var bridgesNameCmd = &cobra.Command{
	Use:   "name <id-or-host> <nickname>",
	Short: "Give a remembered bridge a nickname",
	Example: `  iometer bridges name 192.168.1.100 basement`,
	Args:    cobra.ExactArgs(2),
	RunE:    runBridgesName,
}

func init() {
	bridgesCmd.AddCommand(bridgesDefaultCmd)
	bridgesCmd.AddCommand(bridgesNameCmd)
}

func runBridges(cmd *cobra.Command, args []string) error {
	if outputFormat == formatJSON {
		return printJSON(cmd, registry.Bridges)
	}

	defaultHost := ""
	if registry.Preferences != nil {
		defaultHost = registry.Preferences.DefaultHost
	}

	ids := registry.BridgeIDs()
	rows := make([]ui.BridgeRow, 0, len(ids))
	for _, id := range ids {
		bridge := registry.GetBridge(id)

		name := id
		if bridge.Nickname != "" {
			name = bridge.Nickname
		}
		if defaultHost != "" && (defaultHost == bridge.LastHost || defaultHost == bridge.Nickname) {
			name += " *"
		}

		var detail []string
		if bridge.BridgeVersion != "" {
			detail = append(detail, bridge.BridgeVersion)
		}
		if bridge.MeterNumber != "" {
			detail = append(detail, "meter "+bridge.MeterNumber)
		}

		rows = append(rows, ui.BridgeRow{
			Name:     name,
			Host:     bridge.LastHost,
			Detail:   strings.Join(detail, ", "),
			LastSeen: bridge.LastSeen,
		})
	}

	printer := ui.NewPrinter(cmd.OutOrStdout())
	printer.Println(ui.RenderBridgeList("Remembered bridges", rows, printer.Width()))
	if defaultHost != "" {
		printer.Println(ui.HintStyle.Render("* default bridge (" + defaultHost + ")"))
	}
	return nil
}

func runBridgesDefault(cmd *cobra.Command, args []string) error {
	if registryErr != nil {
		return fmt.Errorf("configuration file could not be read: %w", registryErr)
	}

	registry.SetDefaultHost(args[0])
	if err := registry.Save(); err != nil {
		return err
	}

	ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Default bridge set", []ui.Detail{
		{Key: "Default host", Value: args[0]},
	})
	return nil
}

func runBridgesName(cmd *cobra.Command, args []string) error {
	if registryErr != nil {
		return fmt.Errorf("configuration file could not be read: %w", registryErr)
	}

	id := bridgeID(iometer.DeviceStatus{ID: args[0]})
	if registry.GetBridge(id) == nil {
		id, _ = registry.FindBridge(args[0])
	}
	if id == "" {
		return fmt.Errorf("unknown bridge %q; run 'iometer status --host %s' first", args[0], args[0])
	}

	registry.SetBridgeNickname(id, args[1])
	if err := registry.Save(); err != nil {
		return err
	}

	ui.NewPrinter(cmd.OutOrStdout()).PrintSuccess("Bridge renamed", []ui.Detail{
		{Key: "Device ID", Value: id},
		{Key: "Nickname", Value: args[1]},
	})
	return nil
}

// configCmd shows where configuration comes from
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration file location and environment variables",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	usage, err := config.EnvUsage()
	if err != nil {
		return err
	}

	defaultHost := "(none)"
	if registry.Preferences != nil && registry.Preferences.DefaultHost != "" {
		defaultHost = registry.Preferences.DefaultHost
	}

	printer := ui.NewPrinter(cmd.OutOrStdout())
	printer.PrintSuccess("Configuration", []ui.Detail{
		{Key: "Config file", Value: path},
		{Key: "Default host", Value: defaultHost},
		{Key: "Request timeout", Value: requestTimeout().String()},
		{Key: "Discovery timeout", Value: registry.DiscoverTimeout().String()},
	})
	printer.Println(usage)
	return nil
}

// resolveHost picks the bridge to talk to: --host, IOMETER_HOST, the default
// bridge, then mDNS discovery. Nicknames resolve to the host last seen.
func resolveHost(ctx context.Context) (string, error) {
	candidate := hostFlag
	if candidate == "" {
		candidate = env.Host
	}
	if candidate == "" && registry.Preferences != nil {
		candidate = registry.Preferences.DefaultHost
	}

	if candidate != "" {
		if _, bridge := registry.FindBridge(candidate); bridge != nil && bridge.LastHost != "" {
			return bridge.LastHost, nil
		}
		return candidate, nil
	}

	logging.Debug("No bridge host configured, starting discovery")

	var found *discovery.Bridge
	err := ui.RunWithSpinner(ctx, spinnerOut, "Looking for an IOmeter bridge...", func(ctx context.Context) error {
		var err error
		found, err = findBridge(ctx, registry.DiscoverTimeout())
		return err
	})
	switch {
	case errors.Is(err, discovery.ErrNoBridges):
		return "", fmt.Errorf("%w; use --host to specify the bridge address", err)
	case errors.Is(err, discovery.ErrMultipleBridges):
		return "", fmt.Errorf("%w; use --host to pick one", err)
	case err != nil:
		return "", fmt.Errorf("discovery failed: %w", err)
	}

	logging.LogDiscoveredBridge(found.Instance, found.IP, found.Port)
	return found.Host(), nil
}

// requestTimeout picks the per-attempt timeout: --timeout, IOMETER_TIMEOUT,
// then the configuration file.
func requestTimeout() time.Duration {
	if timeoutFlag > 0 {
		return timeoutFlag
	}
	if env != nil && env.Timeout > 0 {
		return env.Timeout
	}
	return registry.RequestTimeout()
}

// callBridge runs fn against a client session for host behind a spinner
func callBridge(ctx context.Context, host, operation string, fn func(context.Context, *iometer.Client) error) error {
	timeout := requestTimeout()
	configure := func(client *iometer.Client) {
		client.SetTimeout(timeout)
		client.SetLogger(logging.Named("bridge"))
		client.UserAgent = version.UserAgent()
	}

	start := time.Now()
	label := fmt.Sprintf("Fetching %s from %s...", operation, host)
	err := ui.RunWithSpinner(ctx, spinnerOut, label, func(ctx context.Context) error {
		return iometer.WithSession(ctx, host, configure, fn)
	})
	logging.LogBridgeCall(host, operation, time.Since(start), err)
	return err
}

// rememberBridge records a successful status call in the registry
func rememberBridge(host string, status *iometer.Status) {
	if registryErr != nil || status.Device.ID == "" {
		return
	}

	id := bridgeID(status.Device)
	meterNumber, _ := status.Meter.Number()
	registry.UpdateBridgeLastSeen(id, host, status.Device.Bridge.Version, meterNumber)
	if err := registry.Save(); err != nil {
		logging.Warn("Failed to remember bridge", zap.String("id", id), zap.Error(err))
	}
}

// bridgeID returns the registry key for a device: the canonical form of its
// UUID, or the raw id when it is not one
func bridgeID(device iometer.DeviceStatus) string {
	id, err := device.UUID()
	if err != nil {
		return device.ID
	}
	return id.String()
}

// reportBridgeError shows err in an error box on stderr
func reportBridgeError(cmd *cobra.Command, title, host string, err error) error {
	printer := ui.NewPrinter(cmd.ErrOrStderr())
	printer.PrintError(title, errors.New(iometer.GetShortErrorMessage(err)), iometer.GetTroubleshootingHint(err))
	return fmt.Errorf("%w: %s: %w", errReported, host, err)
}

func printResult(cmd *cobra.Command, v any, detailed func(width int) string, compact func() string) error {
	switch outputFormat {
	case formatJSON:
		return printJSON(cmd, v)
	case formatCompact:
		fmt.Fprintln(cmd.OutOrStdout(), compact())
	default:
		printer := ui.NewPrinter(cmd.OutOrStdout())
		printer.Println(detailed(printer.Width()))
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
