// Command tiptop submits an instrument configuration to the PSF simulation
// service and stores the returned FITS file.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/psfkit/tiptop"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tiptop",
		Short:         "Client for the TIPTOP PSF simulation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newShowCmd())
	cmd.AddCommand(newPingCmd())
	return cmd
}

type runOptions struct {
	endpoint string
	timeout  time.Duration
	output   string
	verbose  bool
}

func newRunCmd() *cobra.Command {
	opts := runOptions{
		timeout: tiptop.DefaultTimeout,
		output:  "psf.fits",
	}
	cmd := &cobra.Command{
		Use:   "run <config.ini>",
		Short: "Run a simulation and save the resulting FITS file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd, args[0], opts)
		},
	}
	cmd.Flags().StringVar(&opts.endpoint, "endpoint", tiptop.DefaultEndpoint, "service endpoint URL")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", opts.timeout, "request timeout")
	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output FITS path")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every response part")
	return cmd
}

func runSimulation(cmd *cobra.Command, configPath string, opts runOptions) error {
	session, err := tiptop.LoadSession(configPath)
	if err != nil {
		return err
	}

	client, err := tiptop.NewClient(tiptop.Config{
		Endpoint: opts.endpoint,
		Timeout:  opts.timeout,
		Logger:   newLogger(opts.verbose),
	})
	if err != nil {
		return err
	}

	result, err := client.Simulate(cmd.Context(), session.Document())
	if err != nil {
		return err
	}

	if err := result.File().WriteFile(opts.output); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d wavelength(s), %d position(s) -> %s\n",
		configPath, result.NWavelengths(), result.NPositions(), opts.output)
	if strehl, err := result.Strehl(); err == nil && len(strehl) > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "Strehl[0] = %.3f\n", strehl[0])
	}
	return nil
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <config.ini>",
		Short: "Parse a config file and print its normalized form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := tiptop.ParseFile(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), doc.Serialize())
			return err
		},
	}
}

func newPingCmd() *cobra.Command {
	var endpoint string
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check whether the service endpoint is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := tiptop.NewClient(tiptop.Config{Endpoint: endpoint})
			if err != nil {
				return err
			}
			if !client.Ping(cmd.Context()) {
				return fmt.Errorf("%s is not reachable", client.Endpoint())
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is reachable\n", client.Endpoint())
			return nil
		},
	}
	cmd.Flags().StringVar(&endpoint, "endpoint", tiptop.DefaultEndpoint, "service endpoint URL")
	return cmd
}

func newLogger(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}
