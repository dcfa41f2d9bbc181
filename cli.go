package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"task-manager-web/config"
	"task-manager-web/database"
	"task-manager-web/handlers"
	"task-manager-web/utilities"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var version = "v0.1.0"

type options struct {
	configFile string
	envFile    string
	tasksFile  string
	host       string
	port       string
	logLevel   string
	logFormat  string
	watch      bool
}

func (o *options) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.configFile, "config", "", "TOML config file (env "+config.EnvConfigFile+")")
	fs.StringVar(&o.envFile, "env-file", config.DefaultEnvFile, "dotenv file loaded into the environment if present")
	fs.StringVar(&o.tasksFile, "tasks-file", "", "tasks JSON file (env "+config.EnvTasksPath+")")
	fs.StringVar(&o.host, "host", "", "listen host (env "+config.EnvHost+")")
	fs.StringVarP(&o.port, "port", "p", "", "listen port (env "+config.EnvPort+")")
	fs.StringVar(&o.logLevel, "log-level", "", "log level (env "+config.EnvLogLevel+")")
	fs.StringVar(&o.logFormat, "log-format", "", "log format: text or json (env "+config.EnvLogFormat+")")
	fs.BoolVar(&o.watch, "watch", false, "log changes made to the tasks file by other programs (env "+config.EnvWatch+")")
}

// resolve loads the env file and config file, then applies changed flags.
func (o *options) resolve(fs *pflag.FlagSet) (config.Config, error) {
	if _, err := config.LoadEnvFile(o.envFile); err != nil {
		return config.Config{}, err
	}

	configFile := o.configFile
	if configFile == "" {
		configFile = os.Getenv(config.EnvConfigFile)
	}

	cfg, err := config.Load(configFile, os.LookupEnv)
	if err != nil {
		return config.Config{}, err
	}

	if fs.Changed("tasks-file") {
		cfg.TasksPath = o.tasksFile
	}
	if fs.Changed("host") {
		cfg.Host = o.host
	}
	if fs.Changed("port") {
		cfg.Port = o.port
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if fs.Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
	if fs.Changed("watch") {
		cfg.Watch = o.watch
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	// A relative path, the default included, is anchored to the working
	// directory at startup so the process uses one file for its lifetime.
	abs, err := filepath.Abs(cfg.TasksPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("resolving tasks file %s: %w", cfg.TasksPath, err)
	}
	cfg.TasksPath = abs

	if err := utilities.InitLogger(cfg.LogLevel, cfg.LogFormat); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "taskweb",
		Short:         "Web front-end for a JSON task list",
		Long:          `taskweb serves HTML pages and a JSON API for the tasks file shared with the command line task manager.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd.Flags())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}
	opts.register(root.PersistentFlags())

	root.AddCommand(newCheckCmd(opts))
	return root
}

func newCheckCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the tasks file and print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.resolve(cmd.Flags())
			if err != nil {
				return err
			}
			return checkTasksFile(cmd.OutOrStdout(), database.NewTaskStore(cfg.TasksPath))
		},
	}
}

func checkTasksFile(out io.Writer, store *database.TaskStore) error {
	stats, err := store.Stats()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s: %d tasks (%d pending, %d completed)\n", store.Path(), stats.Total, stats.Pending, stats.Completed)
	return nil
}

func runServer(ctx context.Context, cfg config.Config) error {
	store := database.NewTaskStore(cfg.TasksPath)
	utilities.LogInfo("using tasks file %s", store.Path())

	if _, err := store.List(); err != nil {
		// Keep serving: the pages report the error until the file is fixed.
		utilities.LogError(err, "tasks file is not loadable")
	}

	if cfg.Watch {
		w, err := database.NewWatcher(store.Path(), func() { reportTasksFile(store) })
		if err != nil {
			return fmt.Errorf("watching %s: %w", store.Path(), err)
		}
		defer w.Close()
		go w.Run(ctx, func(err error) { utilities.LogError(err, "tasks file watcher") })
		utilities.LogInfo("watching %s for changes", store.Path())
	}

	h, err := handlers.New(store, cfg.AppName)
	if err != nil {
		return err
	}
	return Serve(ctx, cfg.Addr(), NewRouter(h, cfg))
}

func reportTasksFile(store *database.TaskStore) {
	tasks, err := store.List()
	if err != nil {
		utilities.LogError(err, "tasks file changed and no longer loads")
		return
	}
	utilities.LogInfo("tasks file changed: %d tasks", len(tasks))
}
