package registry

import (
	"fmt"
	"os"
	"time"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/projecteru2/lockman"
	"github.com/projecteru2/lockman/config"
	"github.com/projecteru2/lockman/strategies/concurrencylimited"
	"github.com/projecteru2/lockman/strategies/groupcoordination"
	"github.com/projecteru2/lockman/strategies/priority"
	"github.com/projecteru2/lockman/strategies/singleexecution"
)

// Handler drives the registry subcommands against the process-wide default
// container, bootstrapping the four built-in container strategies on first use.
type Handler struct {
	ConfProvider func() *config.Config
}

func (h Handler) conf() (*config.Config, error) {
	if h.ConfProvider == nil {
		return nil, fmt.Errorf("config provider is nil")
	}
	conf := h.ConfProvider()
	if conf == nil {
		return nil, fmt.Errorf("config not initialized")
	}
	return conf, nil
}

// bootstrap registers the four built-in container strategies (single-execution,
// priority, group-coordination, concurrency-limited) on the default container,
// skipping any already registered (e.g. by a prior command in the same
// process, or by an embedding application).
func bootstrap(cmd *cobra.Command) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = cmd.Root().Context()
	}
	builtins := []lockman.RegistrationEntry{
		{ID: singleexecution.StrategyID, Strategy: lockman.Erase[singleexecution.Info](singleexecution.NewStrategy())},
		{ID: priority.StrategyID, Strategy: lockman.Erase[priority.Info](priority.NewStrategy())},
		{ID: groupcoordination.StrategyID, Strategy: lockman.Erase[groupcoordination.Info](groupcoordination.NewStrategy())},
		{ID: concurrencylimited.StrategyID, Strategy: lockman.Erase[concurrencylimited.Info](concurrencylimited.NewStrategy())},
	}
	for _, entry := range builtins {
		if lockman.DefaultContainer().IsRegistered(entry.ID) {
			continue
		}
		_ = lockman.Register(ctx, entry.ID, entry.Strategy)
	}
}

// List prints every registered strategy, its id, and how long ago it was
// registered. Each line starts with "-", or with a bullet when stdout is an
// interactive terminal.
func (h Handler) List(cmd *cobra.Command, _ []string) error {
	if _, err := h.conf(); err != nil {
		return err
	}
	bootstrap(cmd)

	marker := "-"
	if term.IsTerminal(int(os.Stdout.Fd())) {
		marker = "•" // bullet, only when attached to a real terminal
	}

	for _, reg := range lockman.RegisteredStrategyInfo() {
		age := units.HumanDuration(time.Since(reg.RegisteredAt))
		fmt.Fprintf(cmd.OutOrStdout(), "%s %-20s registered %s ago\n", marker, reg.ID, age)
	}
	return nil
}
