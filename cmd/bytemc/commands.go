package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"bytemc/config"
	"bytemc/examples/explore"
	"bytemc/inspect"
	"bytemc/kernel"
	"bytemc/logging"
	"bytemc/session"
	"bytemc/state"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

var ErrPropertyViolated = errors.New("bytemc: property violated")

type options struct {
	configPath string
	sets       []string
	logLevel   string
	logFormat  string

	maxDepth  int
	printTree bool
	linger    bool

	addr    string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "bytemc",
		Short: "Explore thread interleavings of modeled programs",
		Long: `bytemc runs the exploration core on built-in example programs.
It enumerates every interleaving and data choice, backtracking through
snapshots of the program state, and reports deadlocks and assertion violations.`,
		SilenceUsage: true,
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML config file")
	flags.StringArrayVar(&opts.sets, "set", nil, "override a config value, e.g. --set cg.seed=7")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error")
	flags.StringVar(&opts.logFormat, "log-format", "", "text or json")

	runCmd := &cobra.Command{
		Use:   "run <example>",
		Short: "Explore an example and print the verdict",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExample(cmd, opts, args[0])
		},
	}
	runCmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "maximal search depth, 0 is unlimited")
	runCmd.Flags().BoolVar(&opts.printTree, "tree", false, "print the explored transitions")

	serveCmd := &cobra.Command{
		Use:   "serve <example>",
		Short: "Explore an example while serving the inspector",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveExample(cmd, opts, args[0])
		},
	}
	serveCmd.Flags().IntVar(&opts.maxDepth, "max-depth", 0, "maximal search depth, 0 is unlimited")
	serveCmd.Flags().BoolVar(&opts.linger, "linger", false, "keep serving the last state until interrupted")
	serveCmd.Flags().StringVar(&opts.addr, "addr", "", "listen address, default is inspect.addr")

	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the state published by a running inspector as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return dumpSnapshot(cmd, opts)
		},
	}
	dumpCmd.Flags().StringVar(&opts.addr, "addr", "", "inspector address, default is inspect.addr")
	dumpCmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Second, "timeout of the request")

	configCmd := &cobra.Command{
		Use:   "config [file]",
		Short: "Print the effective config",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				opts.configPath = args[0]
			}
			return printConfig(cmd, opts)
		},
	}

	examplesCmd := &cobra.Command{
		Use:   "examples",
		Short: "List the built-in examples",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range exampleNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}

	rootCmd.AddCommand(runCmd, serveCmd, dumpCmd, configCmd, examplesCmd)
	return rootCmd
}

// Returns the config built from defaults, the config file and the command line, in increasing precedence
func (o *options) effectiveConfig(defaults map[string]string) (*config.Config, error) {
	cfg := config.New(defaults)
	if o.configPath != "" {
		file, err := config.LoadFile(o.configPath)
		if err != nil {
			return nil, err
		}
		for k, v := range file.Values() {
			cfg.Set(k, v)
		}
	}
	for _, set := range o.sets {
		k, v, ok := strings.Cut(set, "=")
		if !ok {
			return nil, fmt.Errorf("bytemc: malformed --set %q, expected key=value", set)
		}
		cfg.Set(strings.TrimSpace(k), strings.TrimSpace(v))
	}
	if o.logLevel != "" {
		cfg.Set(config.LogLevel, o.logLevel)
	}
	if o.logFormat != "" {
		cfg.Set(config.LogFormat, o.logFormat)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := logging.New(cfg, io.Discard); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *options) newSession(cmd *cobra.Command, p *explore.Program) (*session.Session, error) {
	cfg, err := o.effectiveConfig(p.Defaults)
	if err != nil {
		return nil, err
	}
	return session.New(config.ConfigOption{C: cfg}, config.LogWriterOption{W: cmd.ErrOrStderr()})
}

func report(cmd *cobra.Command, res *explore.Result) error {
	fmt.Fprintln(cmd.OutOrStdout(), res)
	for i, step := range res.Trace {
		fmt.Fprintf(cmd.OutOrStdout(), "%3d %v\n", i, step)
	}
	if !res.Holds() {
		return fmt.Errorf("%w in %v", ErrPropertyViolated, res.Program)
	}
	return nil
}

func runExample(cmd *cobra.Command, o *options, name string) error {
	p, err := lookupExample(name)
	if err != nil {
		return err
	}
	s, err := o.newSession(cmd, p)
	if err != nil {
		return err
	}
	res, err := explore.Explore(cmd.Context(), s, p, explore.Options{MaxDepth: o.maxDepth, RecordTree: o.printTree})
	if err != nil {
		return err
	}
	if o.printTree {
		fmt.Fprintln(cmd.OutOrStdout(), res.Tree)
	}
	return report(cmd, res)
}

func serveExample(cmd *cobra.Command, o *options, name string) error {
	p, err := lookupExample(name)
	if err != nil {
		return err
	}
	s, err := o.newSession(cmd, p)
	if err != nil {
		return err
	}
	addr := o.addr
	if addr == "" {
		addr = s.Config.Get(config.InspectAddr, "localhost:7077")
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := inspect.NewServer(s.NewSerializer(), s.Log.With("component", "inspect"))
	s.Log.Info("Serving inspector", "addr", lis.Addr().String())

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		return srv.Serve(lis)
	})
	g.Go(func() error {
		defer srv.Stop()
		publish := func(ks *kernel.KernelState, ss *state.SystemState) {
			if err := srv.Publish(ks, ss); err != nil {
				s.Log.Warn("Failed to publish state", "err", err)
			}
		}
		res, err := explore.Explore(ctx, s, p, explore.Options{MaxDepth: o.maxDepth, Publish: publish})
		if err != nil {
			return err
		}
		verdict := report(cmd, res)
		if o.linger {
			<-ctx.Done()
		}
		return verdict
	})
	return g.Wait()
}

func dumpSnapshot(cmd *cobra.Command, o *options) error {
	cfg, err := o.effectiveConfig(nil)
	if err != nil {
		return err
	}
	addr := o.addr
	if addr == "" {
		addr = cfg.Get(config.InspectAddr, "localhost:7077")
	}
	client, err := inspect.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()
	snapshot, err := client.Snapshot(ctx)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(snapshot.AsMap())
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func printConfig(cmd *cobra.Command, o *options) error {
	cfg, err := o.effectiveConfig(nil)
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(cfg.Values())
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
