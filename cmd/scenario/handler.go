package scenario

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/projecteru2/lockman"
	"github.com/projecteru2/lockman/config"
	"github.com/projecteru2/lockman/strategies/composite"
	"github.com/projecteru2/lockman/strategies/groupcoordination"
	"github.com/projecteru2/lockman/strategies/priority"
	"github.com/projecteru2/lockman/strategies/singleexecution"
)

// Handler drives the scenario subcommands. Every scenario builds its own
// private strategy instances (registered on a private lockman.Container
// where the scenario resolves through one), so runs never interfere with
// each other or with the process-wide default.
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

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

type scenarioFunc func(ctx context.Context) ([]string, error)

var scenarios = map[string]scenarioFunc{
	"s1": scenarioSingleExecutionBoundary,
	"s2": scenarioPriorityPreempt,
	"s3": scenarioSamePriorityReplaceable,
	"s4": scenarioGroupLeaderEmptyPolicy,
	"s5": scenarioMemberCannotJoinEmpty,
	"s6": scenarioCompositeEarlyAbort,
}

// List prints the available scenario names, sorted.
func (h Handler) List(cmd *cobra.Command, _ []string) error {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(cmd.OutOrStdout(), name)
	}
	return nil
}

// Run executes one named scenario and prints each step's verdict.
func (h Handler) Run(cmd *cobra.Command, args []string) error {
	name := args[0]
	fn, ok := scenarios[name]
	if !ok {
		return fmt.Errorf("unknown scenario %q (see: lockctl scenario list)", name)
	}
	lines, err := fn(commandContext(cmd))
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

func scenarioSingleExecutionBoundary(ctx context.Context) ([]string, error) {
	var out []string
	container := lockman.NewContainer()
	strat := singleexecution.NewStrategy()
	handle := lockman.Erase[singleexecution.Info](strat)
	if err := container.Register(ctx, singleexecution.StrategyID, handle); err != nil {
		return nil, err
	}

	nav := singleexecution.New("nav", singleexecution.ModeBoundary)
	v, err := acquire(ctx, container, singleexecution.StrategyID, "main", nav)
	if err != nil {
		return nil, err
	}
	out = append(out, fmt.Sprintf("can_lock(main, nav) -> %s", v.Kind))

	refresh := singleexecution.New("refresh", singleexecution.ModeBoundary)
	v = handle.CanLock(ctx, "main", refresh)
	out = append(out, fmt.Sprintf("can_lock(main, refresh) -> %s (%s)", v.Kind, v.CancellationError()))

	if err := handle.Unlock(ctx, "main", nav); err != nil {
		return nil, err
	}
	v = handle.CanLock(ctx, "main", refresh)
	out = append(out, fmt.Sprintf("after unlock(nav): can_lock(main, refresh) -> %s", v.Kind))
	return out, nil
}

func scenarioPriorityPreempt(ctx context.Context) ([]string, error) {
	var out []string
	container := lockman.NewContainer()
	strat := priority.NewStrategy()
	handle := lockman.Erase[priority.Info](strat)
	if err := container.Register(ctx, priority.StrategyID, handle); err != nil {
		return nil, err
	}

	sync := priority.New("sync", priority.Low(priority.Exclusive))
	if _, err := acquire(ctx, container, priority.StrategyID, "main", sync); err != nil {
		return nil, err
	}
	out = append(out, "commit sync (Low, Exclusive) on main")

	urgent := priority.New("urgent", priority.High(priority.Exclusive))
	v, err := acquire(ctx, container, priority.StrategyID, "main", urgent)
	if err != nil {
		return nil, err
	}
	out = append(out, fmt.Sprintf("can_lock(main, urgent) -> %s, victim=%v", v.Kind, v.CancellationError().Victim.ActionID()))
	current := strat.CurrentLocks()["main"]
	out = append(out, fmt.Sprintf("current_locks(main) after coordinator step: %v", actionIDs(current)))
	return out, nil
}

func scenarioSamePriorityReplaceable(ctx context.Context) ([]string, error) {
	var out []string
	container := lockman.NewContainer()
	strat := priority.NewStrategy()
	handle := lockman.Erase[priority.Info](strat)
	if err := container.Register(ctx, priority.StrategyID, handle); err != nil {
		return nil, err
	}

	a := priority.New("a", priority.High(priority.Replaceable))
	if _, err := acquire(ctx, container, priority.StrategyID, "main", a); err != nil {
		return nil, err
	}
	b := priority.New("b", priority.High(priority.Replaceable))
	v, err := acquire(ctx, container, priority.StrategyID, "main", b)
	if err != nil {
		return nil, err
	}
	out = append(out, fmt.Sprintf("can_lock(main, b) -> %s, victim=%v", v.Kind, v.CancellationError().Victim.ActionID()))
	return out, nil
}

func scenarioGroupLeaderEmptyPolicy(ctx context.Context) ([]string, error) {
	var out []string
	container := lockman.NewContainer()
	strat := groupcoordination.NewStrategy()
	handle := lockman.Erase[groupcoordination.Info](strat)
	if err := container.Register(ctx, groupcoordination.StrategyID, handle); err != nil {
		return nil, err
	}

	enter := groupcoordination.New("enter", groupcoordination.Leader(groupcoordination.EmptyGroup), "nav")
	if _, err := acquire(ctx, container, groupcoordination.StrategyID, "screen", enter); err != nil {
		return nil, err
	}
	out = append(out, "commit enter (Leader, EmptyGroup) on group nav")

	enter2 := groupcoordination.New("enter2", groupcoordination.Leader(groupcoordination.EmptyGroup), "nav")
	v := handle.CanLock(ctx, "screen", enter2)
	out = append(out, fmt.Sprintf("can_lock(screen, enter2) -> %s (%s)", v.Kind, v.CancellationError()))

	spin := groupcoordination.New("spin", groupcoordination.Member(), "nav")
	v = handle.CanLock(ctx, "screen", spin)
	out = append(out, fmt.Sprintf("can_lock(screen, spin/member) -> %s", v.Kind))
	return out, nil
}

func scenarioMemberCannotJoinEmpty(ctx context.Context) ([]string, error) {
	var out []string
	container := lockman.NewContainer()
	strat := groupcoordination.NewStrategy()
	handle := lockman.Erase[groupcoordination.Info](strat)
	if err := container.Register(ctx, groupcoordination.StrategyID, handle); err != nil {
		return nil, err
	}

	progress := groupcoordination.New("progress", groupcoordination.Member(), "data")
	v := handle.CanLock(ctx, "screen", progress)
	out = append(out, fmt.Sprintf("can_lock(screen, progress/member on empty data) -> %s (%s)", v.Kind, v.CancellationError()))
	return out, nil
}

func scenarioCompositeEarlyAbort(ctx context.Context) ([]string, error) {
	var out []string
	single := singleexecution.NewStrategy()
	strat := composite.NewStrategy(
		lockman.Erase[singleexecution.Info](single),
		lockman.Erase[priority.Info](priority.NewStrategy()),
	)

	existing := singleexecution.New("nav", singleexecution.ModeBoundary)
	if err := single.Lock(ctx, "main", existing); err != nil {
		return nil, err
	}

	info := composite.New(strat.StrategyID(), "refresh",
		singleexecution.New("refresh", singleexecution.ModeBoundary),
		priority.New("refresh", priority.High(priority.Exclusive)),
	)
	v := strat.CanLock(ctx, "main", info)
	out = append(out, fmt.Sprintf("composite can_lock(main, refresh) -> %s (%s); composite aborts before querying the second child", v.Kind, v.CancellationError()))
	return out, nil
}

func acquire(ctx context.Context, container *lockman.Container, id lockman.StrategyID, boundary lockman.BoundaryID, info lockman.LockInfo) (lockman.Verdict, error) {
	handle, err := container.Resolve(id)
	if err != nil {
		return lockman.Verdict{}, err
	}
	coord := lockman.Coordinator{}
	return coord.Acquire(ctx, handle, boundary, info)
}

func actionIDs(entries []lockman.LockInfo) []lockman.ActionID {
	ids := make([]lockman.ActionID, len(entries))
	for i, e := range entries {
		ids[i] = e.ActionID()
	}
	return ids
}

// Stress reproduces a 100-concurrent-caller stress scenario: N concurrent lock calls against one
// boundary, driven through a bounded goroutine pool, verifying that every
// call succeeds and current_locks ends up with exactly N entries.
func (h Handler) Stress(cmd *cobra.Command, _ []string) error {
	conf, err := h.conf()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	strat := singleexecution.NewStrategy()
	pool, err := ants.NewPool(conf.PoolSize)
	if err != nil {
		return fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	g, gctx := errgroup.WithContext(ctx)
	var wg sync.WaitGroup
	for i := 0; i < conf.StressActions; i++ {
		i := i
		wg.Add(1)
		g.Go(func() error {
			err := pool.Submit(func() {
				defer wg.Done()
				info := singleexecution.New(lockman.ActionID(fmt.Sprintf("caller-%d", i)), singleexecution.ModeNone)
				if v := strat.CanLock(gctx, "stress", info); v.Kind != lockman.VerdictSuccess {
					log.WithFunc("scenario.Stress").Warnf(gctx, "caller-%d unexpectedly refused: %s", i, v.Kind)
					return
				}
				_ = strat.Lock(gctx, "stress", info)
			})
			if err != nil {
				wg.Done()
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("stress run: %w", err)
	}
	wg.Wait()

	count := len(strat.CurrentLocks()["stress"])
	fmt.Fprintf(cmd.OutOrStdout(), "issued %d concurrent lock calls via a pool of %d, current_locks(stress).count == %d\n",
		conf.StressActions, conf.PoolSize, count)
	if count != conf.StressActions {
		return fmt.Errorf("lost acquisitions: got %d, want %d", count, conf.StressActions)
	}
	return nil
}
