// Package menu implements the interactive console front-end: a numbered
// action menu over the deploy workflow and the docker/compose clients.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/cappuccino213/eWordDockerManager/internal/shell/deploy"
	"github.com/cappuccino213/eWordDockerManager/internal/shell/docker"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// stopTimeout is how long a container gets to shut down before the
// daemon kills it.
const stopTimeout = 10 * time.Second

// =============================================================================
// Menu
// =============================================================================

// Options configures a Menu.
type Options struct {
	In          io.Reader
	Out         io.Writer
	Docker      docker.Client
	Compose     deploy.ComposeRunner
	Loader      *deploy.ImageLoader
	ComposeFile string
	Project     string
	AutoYes     bool
	Logger      *slog.Logger
}

// Menu is the interactive loop. One action runs at a time; an interrupt
// during an action cancels it and returns to the menu.
type Menu struct {
	in          *bufio.Reader
	out         io.Writer
	docker      docker.Client
	compose     deploy.ComposeRunner
	workflow    *deploy.Workflow
	loader      *deploy.ImageLoader
	composeFile string
	project     string
	prompt      *ConsolePrompter
	logger      *slog.Logger
	state       State
}

// New creates a menu.
func New(opts Options) *Menu {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	in := bufio.NewReader(opts.In)
	m := &Menu{
		in:          in,
		out:         opts.Out,
		docker:      opts.Docker,
		compose:     opts.Compose,
		loader:      opts.Loader,
		composeFile: opts.ComposeFile,
		project:     opts.Project,
		logger:      opts.Logger,
		state:       StateIdle,
	}
	m.prompt = &ConsolePrompter{in: in, out: opts.Out, autoYes: opts.AutoYes}

	// The reconciler shares the menu's prompter so its recreate questions
	// read from the same input stream as the menu itself.
	reconciler := deploy.NewServiceReconciler(opts.Docker, opts.Compose, m.prompt, opts.Logger)
	m.workflow = deploy.NewWorkflow(opts.Compose, opts.Loader, reconciler, opts.ComposeFile, opts.Logger)
	return m
}

// State returns the current interaction state.
func (m *Menu) State() State {
	return m.state
}

// Prompter returns the console prompter, for wiring into the reconciler.
func (m *Menu) Prompter() *ConsolePrompter {
	return m.prompt
}

func (m *Menu) setState(to State) {
	if !CanTransition(m.state, to) {
		m.logger.Warn("illegal menu transition", "from", m.state, "to", to)
	}
	m.state = to
}

// Run shows the menu until the operator exits or input ends.
func (m *Menu) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		m.render()
		choice, err := m.readLine()
		if err != nil {
			fmt.Fprintln(m.out)
			return nil // EOF ends the session
		}

		switch strings.TrimSpace(choice) {
		case "0", "q", "exit":
			fmt.Fprintln(m.out, "Bye.")
			return nil
		case "1":
			m.dispatch(ctx, "deploy", m.actionDeploy)
		case "2":
			m.dispatch(ctx, "status", m.actionStatus)
		case "3":
			m.dispatch(ctx, "stop-remove-container", m.actionStopRemoveContainer)
		case "4":
			m.dispatch(ctx, "remove-image", m.actionRemoveImage)
		case "5":
			m.dispatch(ctx, "load-images", m.actionLoadImages)
		case "6":
			m.dispatch(ctx, "down", m.actionDown)
		default:
			fmt.Fprintf(m.out, "%s Invalid choice %q\n", red("✗"), strings.TrimSpace(choice))
		}
	}
}

func (m *Menu) render() {
	fmt.Fprintf(m.out, "\n%s (%s)\n", bold("eWord Docker Manager"), m.composeFile)
	fmt.Fprintln(m.out, "  1) Deploy stack")
	fmt.Fprintln(m.out, "  2) Stack status")
	fmt.Fprintln(m.out, "  3) Stop and remove a container")
	fmt.Fprintln(m.out, "  4) Remove an image")
	fmt.Fprintln(m.out, "  5) Load image archives")
	fmt.Fprintln(m.out, "  6) Bring the stack down")
	fmt.Fprintln(m.out, "  0) Exit")
	fmt.Fprint(m.out, "Choice: ")
}

// dispatch runs one action under its own interrupt scope, so Ctrl-C
// cancels the action and falls back to the menu instead of killing the
// process.
func (m *Menu) dispatch(parent context.Context, name string, action func(context.Context) error) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	err := action(ctx)
	m.state = StateIdle

	switch {
	case err == nil:
	case ctx.Err() != nil && parent.Err() == nil:
		fmt.Fprintf(m.out, "\n%s %s interrupted, back to menu\n", yellow("!"), name)
	default:
		m.logger.Error("action failed", "action", name, "error", err)
		fmt.Fprintf(m.out, "%s %s failed: %v\n", red("✗"), name, err)
	}
}

func (m *Menu) readLine() (string, error) {
	line, err := m.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// selectIndex renders a selection prompt for n items and reads a 1-based
// index. Returns -1 when the operator cancels with 0. Invalid input asks
// again.
func (m *Menu) selectIndex(n int) (int, error) {
	m.setState(StateAwaitingSelection)
	for {
		fmt.Fprintf(m.out, "Select [1-%d, 0 to cancel]: ", n)
		line, err := m.readLine()
		if err != nil {
			return -1, err
		}
		idx, convErr := strconv.Atoi(line)
		if convErr != nil || idx < 0 || idx > n {
			fmt.Fprintf(m.out, "%s Invalid selection %q\n", red("✗"), line)
			continue
		}
		if idx == 0 {
			return -1, nil
		}
		return idx, nil
	}
}

func (m *Menu) confirm(prompt string) (bool, error) {
	m.setState(StateAwaitingConfirmation)
	return m.prompt.Confirm(prompt, false)
}

// =============================================================================
// Actions
// =============================================================================

func (m *Menu) actionDeploy(ctx context.Context) error {
	report, err := m.workflow.Run(ctx)
	if report != nil && report.Load != nil {
		m.printLoadReport(report.Load)
	}
	if report != nil {
		for _, res := range report.Services {
			switch res.Outcome {
			case deploy.ServiceCreated:
				fmt.Fprintf(m.out, "%s %s created\n", green("✓"), res.Service)
			case deploy.ServiceRecreated:
				fmt.Fprintf(m.out, "%s %s recreated\n", green("✓"), res.Service)
			case deploy.ServiceKept:
				fmt.Fprintf(m.out, "%s %s kept (container %s)\n", yellow("-"), res.Service, res.Container)
			case deploy.ServiceFailed:
				fmt.Fprintf(m.out, "%s %s failed: %v\n", red("✗"), res.Service, res.Err)
			}
		}
	}
	return err
}

func (m *Menu) actionStatus(ctx context.Context) error {
	m.setState(StateListing)
	statuses, err := deploy.Status(m.docker, m.composeFile, m.project)
	if err != nil {
		return err
	}

	fmt.Fprintf(m.out, "%-16s %-28s %-10s %-24s %s\n", "SERVICE", "IMAGE", "SOURCE", "CONTAINER", "STATE")
	for _, s := range statuses {
		state := s.State
		if state == "" {
			state = yellow("absent")
		} else if state == "running" {
			state = green(state)
		} else {
			state = red(state)
		}
		container := s.Container
		if container == "" {
			container = "-"
		}
		fmt.Fprintf(m.out, "%-16s %-28s %-10s %-24s %s\n", s.Service, s.Image, s.Source, container, state)
	}
	return nil
}

func (m *Menu) actionStopRemoveContainer(ctx context.Context) error {
	m.setState(StateListing)
	containers, err := m.docker.ListContainers(docker.ListOptions{All: true})
	if err != nil {
		return err
	}
	if len(containers) == 0 {
		fmt.Fprintln(m.out, "No containers.")
		return nil
	}

	for i, c := range containers {
		fmt.Fprintf(m.out, "  %d) %-24s %-28s %s\n", i+1, c.Name, c.Image, c.State)
	}

	idx, err := m.selectIndex(len(containers))
	if err != nil || idx < 0 {
		return err
	}
	target := containers[idx-1]

	ok, err := m.confirm(fmt.Sprintf("Stop and remove container %q?", target.Name))
	if err != nil || !ok {
		return err
	}

	timeout := stopTimeout
	if err := m.docker.StopContainer(target.ID, &timeout); err != nil {
		return err
	}
	if err := m.docker.RemoveContainer(target.ID, docker.RemoveOptions{}); err != nil {
		return err
	}
	fmt.Fprintf(m.out, "%s Removed %s\n", green("✓"), target.Name)
	return nil
}

func (m *Menu) actionRemoveImage(ctx context.Context) error {
	m.setState(StateListing)
	images, err := m.docker.ListImages()
	if err != nil {
		return err
	}
	if len(images) == 0 {
		fmt.Fprintln(m.out, "No images.")
		return nil
	}

	refs := make([]string, len(images))
	for i, img := range images {
		ref := img.ID
		if len(img.RepoTags) > 0 {
			ref = img.RepoTags[0]
		}
		refs[i] = ref
		fmt.Fprintf(m.out, "  %d) %-40s %.1f MB\n", i+1, ref, float64(img.SizeBytes)/(1024*1024))
	}

	idx, err := m.selectIndex(len(images))
	if err != nil || idx < 0 {
		return err
	}
	target := refs[idx-1]

	ok, err := m.confirm(fmt.Sprintf("Remove image %q?", target))
	if err != nil || !ok {
		return err
	}

	if err := m.docker.RemoveImage(target, false); err != nil {
		if errors.Is(err, docker.ErrImageInUse) {
			fmt.Fprintf(m.out, "%s Image %s is in use by a container\n", red("✗"), target)
			return nil
		}
		return err
	}
	fmt.Fprintf(m.out, "%s Removed %s\n", green("✓"), target)
	return nil
}

func (m *Menu) actionLoadImages(ctx context.Context) error {
	report, err := m.loader.Run(ctx)
	if report != nil {
		m.printLoadReport(report)
	}
	return err
}

func (m *Menu) actionDown(ctx context.Context) error {
	ok, err := m.confirm("Stop and remove the whole stack?")
	if err != nil || !ok {
		return err
	}
	if err := m.compose.Down(ctx); err != nil {
		return err
	}
	fmt.Fprintf(m.out, "%s Stack is down\n", green("✓"))
	return nil
}

func (m *Menu) printLoadReport(report *deploy.LoadReport) {
	if len(report.Results) == 0 {
		fmt.Fprintln(m.out, "No image archives found.")
		return
	}
	for _, res := range report.Results {
		switch res.Outcome {
		case deploy.OutcomeLoaded:
			fmt.Fprintf(m.out, "%s loaded %s (%s)\n", green("✓"), res.Archive, res.RepoTag)
		case deploy.OutcomeSkipped:
			fmt.Fprintf(m.out, "%s skipped %s (%s present)\n", yellow("-"), res.Archive, res.RepoTag)
		case deploy.OutcomeFallback:
			fmt.Fprintf(m.out, "%s loaded %s (no tag in manifest)\n", yellow("!"), res.Archive)
		case deploy.OutcomeFailed:
			fmt.Fprintf(m.out, "%s failed %s: %v\n", red("✗"), res.Archive, res.Err)
		}
	}
}
