// Package battle wires armies, the spatial grid, the dispatcher and the
// reference controllers into a steppable engagement.
package battle

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/OCAP2/orbat/internal/ai"
	"github.com/OCAP2/orbat/internal/dispatcher"
	"github.com/OCAP2/orbat/internal/mission"
	"github.com/OCAP2/orbat/internal/spatial"
	"github.com/OCAP2/orbat/internal/unit"
	"github.com/OCAP2/orbat/pkg/core"
)

// Config holds everything needed to set up a battle.
type Config struct {
	Name string
	// Tick is the simulated seconds per step.
	Tick float64
	// CellSize is the edge length of a spatial grid cell.
	CellSize float64
	Terrain  spatial.TerrainFunc
	Doctrine *ai.Doctrine

	Logger *slog.Logger
	// DispatchLogger defaults to Logger.
	DispatchLogger dispatcher.Logger
	// Mission, when set, tracks the frame for log context.
	Mission *mission.Context
}

// SideStatus is the strength of one side after a step.
type SideStatus struct {
	Side     core.Side
	Health   float64
	Alive    int
	Platoons int
	// Active is the number of platoons that acted in the last step.
	Active int
}

// Battle owns the simulation state of one engagement. It is not safe for
// concurrent use.
type Battle struct {
	name  string
	tick  float64
	clock float64
	frame uint

	env        *unit.Env
	grid       *spatial.Grid[*unit.Platoon]
	dispatcher *dispatcher.Dispatcher
	doctrine   *ai.Doctrine
	armies     []*unit.Composite
	active     []int // per army, last step

	logger  *slog.Logger
	mission *mission.Context
}

// New creates an empty battle. Deploy armies before stepping it.
func New(cfg Config) (*Battle, error) {
	if cfg.Tick <= 0 {
		return nil, fmt.Errorf("tick must be positive, got %v", cfg.Tick)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.DispatchLogger == nil {
		cfg.DispatchLogger = cfg.Logger
	}
	if cfg.Doctrine == nil {
		cfg.Doctrine = ai.DefaultDoctrine()
	}
	if cfg.CellSize <= 0 {
		cfg.CellSize = unit.VisibilityRadius
	}

	d, err := dispatcher.New(cfg.DispatchLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	grid := spatial.NewGrid[*unit.Platoon](cfg.CellSize, cfg.Terrain)
	env := unit.NewEnv(grid, d)
	env.Logger = cfg.Logger
	env.PlatoonController = ai.PlatoonFactory(d, cfg.Doctrine)
	env.CompositeController = ai.CommandFactory(d, cfg.Doctrine)

	if cfg.Mission != nil {
		cfg.Mission.SetBattle(&core.Battle{Name: cfg.Name, Tick: cfg.Tick})
	}

	return &Battle{
		name:       cfg.Name,
		tick:       cfg.Tick,
		env:        env,
		grid:       grid,
		dispatcher: d,
		doctrine:   cfg.Doctrine,
		logger:     cfg.Logger,
		mission:    cfg.Mission,
	}, nil
}

// Deploy builds an army for side at pos and adds it to the battle.
func (b *Battle) Deploy(side core.Side, branch core.ServiceBranch, pos core.Vec2, brigades []unit.BrigadeConfig) *unit.Composite {
	army := unit.NewArmy(b.env, nil, pos, branch, side, brigades)
	b.armies = append(b.armies, army)
	b.active = append(b.active, 0)
	b.logger.Info("army deployed",
		"side", int(side),
		"branch", branch.String(),
		"brigades", len(brigades),
		"platoons", len(army.Platoons()))
	return army
}

func (b *Battle) Name() string { return b.name }
func (b *Battle) Tick() float64 { return b.tick }
func (b *Battle) Clock() float64 { return b.clock }
func (b *Battle) Frame() uint { return b.frame }
func (b *Battle) Armies() []*unit.Composite { return b.armies }
func (b *Battle) Dispatcher() *dispatcher.Dispatcher { return b.dispatcher }
func (b *Battle) Doctrine() *ai.Doctrine { return b.doctrine }

// Step advances the battle by one tick: every army is updated, every command
// runs its controller, then the messages due by the new clock are delivered.
// It returns the platoons that acted.
func (b *Battle) Step() []*unit.Platoon {
	b.aimArmies()

	var active []*unit.Platoon
	for i, army := range b.armies {
		acted := army.Update(b.tick)
		b.active[i] = len(acted)
		active = append(active, acted...)
	}

	for _, army := range b.armies {
		unit.Walk(army, func(u unit.Unit) bool {
			if c, ok := u.(*unit.Composite); ok {
				c.Control(b.tick)
			}
			return true
		})
	}

	b.clock += b.tick
	b.frame++
	if b.mission != nil {
		b.mission.Advance()
	}
	b.dispatcher.Pump(b.clock)
	return active
}

// Run steps the battle until ticks steps have run, one side is left or ctx
// is cancelled. A non-positive ticks runs until the battle is decided.
// observe, if not nil, is called after every step.
func (b *Battle) Run(ctx context.Context, ticks int, observe func(frame uint, active []*unit.Platoon)) error {
	for i := 0; ticks <= 0 || i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		active := b.Step()
		if observe != nil {
			observe(b.frame, active)
		}
		if b.Decided() {
			winner, _ := b.Winner()
			b.logger.Info("battle decided", "frame", b.frame, "clock", b.clock, "winner", int(winner))
			return nil
		}
	}
	return nil
}

// Sides returns the status of every deployed army in deployment order.
func (b *Battle) Sides() []SideStatus {
	out := make([]SideStatus, 0, len(b.armies))
	for i, army := range b.armies {
		s := SideStatus{
			Side:   army.Side(),
			Health: army.Health(),
			Active: b.active[i],
		}
		for _, p := range army.Platoons() {
			s.Platoons++
			if !p.IsDead() {
				s.Alive++
			}
		}
		out = append(out, s)
	}
	return out
}

// Decided reports whether at most one side still has live platoons. A battle
// with fewer than two armies is never decided.
func (b *Battle) Decided() bool {
	if len(b.armies) < 2 {
		return false
	}
	return len(b.standing()) <= 1
}

// Winner returns the only side left standing.
func (b *Battle) Winner() (core.Side, bool) {
	standing := b.standing()
	if len(b.armies) < 2 || len(standing) != 1 {
		return 0, false
	}
	return standing[0], true
}

func (b *Battle) standing() []core.Side {
	var sides []core.Side
	for _, army := range b.armies {
		if !army.IsDead() {
			sides = append(sides, army.Side())
		}
	}
	return sides
}

// aimArmies points every side at the centre of the live enemy platoons.
func (b *Battle) aimArmies() {
	for _, army := range b.armies {
		var sum core.Vec2
		n := 0
		for _, enemy := range b.armies {
			if enemy.Side() == army.Side() {
				continue
			}
			for _, p := range enemy.Platoons() {
				if p.IsDead() {
					continue
				}
				sum = sum.Add(p.Position())
				n++
			}
		}
		if n == 0 {
			delete(b.doctrine.Objectives, army.Side())
			continue
		}
		b.doctrine.SetObjective(army.Side(), sum.Scale(1/float64(n)))
	}
}
