// Package main provides the eworddm binary: an interactive front-end over
// docker and docker-compose for deploying and managing a compose stack.
//
// Run without arguments for the menu, or use the subcommands (deploy,
// load-images, status, down) for scripted operation.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/cappuccino213/eWordDockerManager/internal/shell/composecli"
	"github.com/cappuccino213/eWordDockerManager/internal/shell/deploy"
	"github.com/cappuccino213/eWordDockerManager/internal/shell/docker"
	"github.com/cappuccino213/eWordDockerManager/internal/shell/menu"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess      = 0
	ExitConfigError  = 1
	ExitComposeError = 2
	ExitDockerError  = 3
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitConfigError)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "eworddm",
		Usage:   "deploy and manage a docker-compose stack",
		Version: fmt.Sprintf("%s (built %s)", Version, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to config file",
			},
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "answer yes to every confirmation",
			},
		},
		Action: menuAction,
		Commands: []*cli.Command{
			{
				Name:   "deploy",
				Usage:  "load image archives and bring the stack up",
				Action: deployAction,
			},
			{
				Name:   "load-images",
				Usage:  "load image archives into the local store",
				Action: loadImagesAction,
			},
			{
				Name:   "status",
				Usage:  "show per-service container state",
				Action: statusAction,
			},
			{
				Name:   "down",
				Usage:  "stop and remove the stack",
				Action: downAction,
			},
		},
	}
}

// =============================================================================
// Wiring
// =============================================================================

// appEnv holds the clients every command needs.
type appEnv struct {
	cfg    *Config
	logger *slog.Logger
	docker *docker.DockerClient
	runner *composecli.Runner
	loader *deploy.ImageLoader
}

// setup loads config and connects the docker and compose clients.
func setup(c *cli.Context) (*appEnv, error) {
	cfg, err := LoadConfig(c.String("config"))
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("configuration error: %v", err), ExitConfigError)
	}

	logger := SetupLogger(cfg)
	logger.Debug("starting eworddm", "version", Version, "compose_file", cfg.Compose.File)

	dockerCli, err := docker.NewDockerClient(cfg.Docker.Host)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("docker error: %v", err), ExitDockerError)
	}
	if err := dockerCli.Ping(); err != nil {
		dockerCli.Close()
		return nil, cli.Exit(fmt.Sprintf("docker daemon unreachable: %v", err), ExitDockerError)
	}

	bin, err := composecli.Detect(c.Context)
	if err != nil {
		dockerCli.Close()
		return nil, cli.Exit(fmt.Sprintf("compose error: %v", err), ExitComposeError)
	}

	return &appEnv{
		cfg:    cfg,
		logger: logger,
		docker: dockerCli,
		runner: composecli.NewRunner(bin, cfg.Compose.File, cfg.Compose.Project, logger),
		loader: deploy.NewImageLoader(dockerCli, cfg.Archive.Dir, cfg.Archive.Ext, logger),
	}, nil
}

func (e *appEnv) close() {
	if err := e.docker.Close(); err != nil {
		e.logger.Warn("closing docker client", "error", err)
	}
}

// =============================================================================
// Actions
// =============================================================================

func menuAction(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.close()

	m := menu.New(menu.Options{
		In:          os.Stdin,
		Out:         os.Stdout,
		Docker:      env.docker,
		Compose:     env.runner,
		Loader:      env.loader,
		ComposeFile: env.cfg.Compose.File,
		Project:     env.cfg.Compose.Project,
		AutoYes:     c.Bool("yes"),
		Logger:      env.logger,
	})
	return m.Run(context.Background())
}

func deployAction(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.close()

	prompt := menu.NewConsolePrompter(os.Stdin, os.Stdout, c.Bool("yes"))
	reconciler := deploy.NewServiceReconciler(env.docker, env.runner, prompt, env.logger)
	workflow := deploy.NewWorkflow(env.runner, env.loader, reconciler, env.cfg.Compose.File, env.logger)

	report, err := workflow.Run(c.Context)
	if err != nil {
		return cli.Exit(fmt.Sprintf("deploy failed: %v", err), ExitComposeError)
	}

	for _, res := range report.Services {
		fmt.Printf("%-16s %s\n", res.Service, res.Outcome)
	}
	return nil
}

func loadImagesAction(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.close()

	report, err := env.loader.Run(c.Context)
	for _, res := range report.Results {
		tag := res.RepoTag
		if tag == "" {
			tag = "-"
		}
		fmt.Printf("%-32s %-10s %s\n", res.Archive, res.Outcome, tag)
	}
	if err != nil {
		return cli.Exit(fmt.Sprintf("load failed: %v", err), ExitDockerError)
	}
	return nil
}

func statusAction(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.close()

	statuses, err := deploy.Status(env.docker, env.cfg.Compose.File, env.cfg.Compose.Project)
	if err != nil {
		return cli.Exit(fmt.Sprintf("status failed: %v", err), ExitComposeError)
	}

	fmt.Printf("%-16s %-28s %-10s %-24s %s\n", "SERVICE", "IMAGE", "SOURCE", "CONTAINER", "STATE")
	for _, s := range statuses {
		container, state := s.Container, s.State
		if container == "" {
			container, state = "-", "absent"
		}
		fmt.Printf("%-16s %-28s %-10s %-24s %s\n", s.Service, s.Image, s.Source, container, state)
	}
	return nil
}

func downAction(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.close()

	prompt := menu.NewConsolePrompter(os.Stdin, os.Stdout, c.Bool("yes"))
	ok, err := prompt.Confirm("Stop and remove the whole stack?", false)
	if err != nil || !ok {
		return nil
	}

	if err := env.runner.Down(c.Context); err != nil {
		return cli.Exit(fmt.Sprintf("down failed: %v", err), ExitComposeError)
	}
	fmt.Println("stack is down")
	return nil
}
