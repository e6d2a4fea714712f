// Package main provides the interactive level-change runner. It wires
// together configuration, content, database, and the advancement manager,
// then walks the wizard steps on the terminal and commits the result.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hearthvtt/levelforge/internal/config"
	"github.com/hearthvtt/levelforge/internal/game/advancement"
	"github.com/hearthvtt/levelforge/internal/game/compendium"
	"github.com/hearthvtt/levelforge/internal/game/dice"
	"github.com/hearthvtt/levelforge/internal/game/document"
	"github.com/hearthvtt/levelforge/internal/game/lang"
	"github.com/hearthvtt/levelforge/internal/game/levelup"
	"github.com/hearthvtt/levelforge/internal/observability"
	"github.com/hearthvtt/levelforge/internal/scripting"
	"github.com/hearthvtt/levelforge/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	actorID := flag.String("actor", "", "actor id to level")
	classItemID := flag.String("class", "", "class item instance id (defaults to the actor's first class item)")
	delta := flag.Int("delta", 1, "level change, positive or negative")
	useAverage := flag.Bool("average", false, "take average hit points instead of rolling")
	flag.Parse()

	if *actorID == "" {
		fmt.Fprintln(os.Stderr, "usage: levelforge -actor <id> [-class <itemID>] [-delta <n>] [-average] [-config <path>]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	registry, err := compendium.LoadRegistry(cfg.Content.ClassesDir, cfg.Content.ItemsDir)
	if err != nil {
		logger.Fatal("loading compendium", zap.Error(err))
	}
	localizer, err := lang.Load(cfg.Content.StringsPath)
	if err != nil {
		logger.Fatal("loading strings", zap.Error(err))
	}
	logger.Info("content loaded",
		zap.Int("entries", registry.Len()),
		zap.Duration("elapsed", time.Since(start)),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()

	actors := postgres.NewActorRepository(pool.DB())
	actor, err := actors.Get(ctx, *actorID)
	if err != nil {
		logger.Fatal("loading actor", zap.String("actor", *actorID), zap.Error(err))
	}

	classID := *classItemID
	if classID == "" {
		classID = firstClassItem(actor)
		if classID == "" {
			logger.Fatal("actor has no class item", zap.String("actor", actor.ID))
		}
	}

	in := bufio.NewReader(os.Stdin)
	var confirmer levelup.Confirmer = promptConfirmer(in)
	if !cfg.Advancement.ConfirmReverse {
		confirmer = levelup.AlwaysConfirm
	}
	deps := levelup.Deps{
		Store:     actors,
		Resolver:  registry,
		Roller:    dice.NewLoggedRoller(dice.NewCryptoSource(), logger),
		Localizer: localizer,
		Evaluator: scripting.NewEvaluator(cfg.Advancement.FormulaInstructionLimit),
		Confirmer: confirmer,
		Logger:    logger,
	}

	mgr, err := levelup.ForLevelChange(ctx, actor, classID, *delta, deps)
	if err != nil {
		if errors.Is(err, levelup.ErrConfirmationDeclined) {
			fmt.Println("level change declined, nothing saved")
			return
		}
		logger.Fatal("building level change", zap.Error(err))
	}

	avg := *useAverage || cfg.Advancement.AverageHP
	if err := runSteps(ctx, mgr, in, avg); err != nil {
		mgr.Cancel()
		logger.Fatal("running level change", zap.Error(err))
	}

	if err := mgr.Commit(ctx); err != nil {
		logger.Fatal("committing level change", zap.Error(err))
	}

	updated, err := actors.Get(ctx, actor.ID)
	if err != nil {
		logger.Fatal("reloading actor", zap.Error(err))
	}
	fmt.Printf("%s is now level %d (HP %d/%d, %d items) [%s]\n",
		updated.Name, updated.Item(classID).Level,
		updated.HP.Value, updated.HP.Max, len(updated.Items),
		time.Since(start).Round(time.Millisecond))
}

// runSteps walks the wizard to completion, prompting on choice steps.
// Granted items can splice steps into the sequence mid-run, so the loop
// re-reads the current step each iteration until none remain.
func runSteps(ctx context.Context, mgr *levelup.Manager, in *bufio.Reader, useAverage bool) error {
	for step := mgr.CurrentStep(); step != nil; step = mgr.CurrentStep() {
		fmt.Printf("\n== %s (level %d)\n%s\n", step.Flow.Title(), step.Level, step.Flow.Summary())

		form, err := promptForm(step, in, useAverage)
		if err != nil {
			return err
		}
		if err := mgr.Advance(ctx, form); err != nil {
			return err
		}
	}
	return nil
}

// promptForm builds the form data a step needs, reading selections from
// the terminal where the step offers options.
func promptForm(step *levelup.Step, in *bufio.Reader, useAverage bool) (advancement.FormData, error) {
	form := advancement.FormData{}
	if step.Direction == levelup.Reverse {
		return form, nil
	}

	if step.Advancement.Type() == advancement.TypeHitPoints && useAverage {
		form[advancement.FormKeyAverage] = []string{"true"}
	}

	opts := step.Flow.Options()
	if len(opts) == 0 {
		return form, nil
	}

	for i, opt := range opts {
		fmt.Printf("  [%d] %s\n", i+1, opt.Name)
	}
	fmt.Print("choose (comma-separated numbers, empty for none): ")
	line, err := in.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("reading selection: %w", err)
	}

	var selected []string
	for _, field := range strings.Split(strings.TrimSpace(line), ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		idx, err := strconv.Atoi(field)
		if err != nil || idx < 1 || idx > len(opts) {
			return nil, fmt.Errorf("invalid selection %q", field)
		}
		selected = append(selected, opts[idx-1].UUID)
	}
	if len(selected) > 0 {
		form[advancement.FormKeySelected] = selected
	}
	return form, nil
}

// promptConfirmer asks on the terminal before reversing levels.
func promptConfirmer(in *bufio.Reader) levelup.ConfirmFunc {
	return func(_ context.Context, actorName string, fromLevel, toLevel int) (bool, error) {
		fmt.Printf("Reduce %s from level %d to %d? Applied advancements will be removed. [y/N]: ", actorName, fromLevel, toLevel)
		line, err := in.ReadString('\n')
		if err != nil {
			return false, fmt.Errorf("reading confirmation: %w", err)
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	}
}

func firstClassItem(actor *document.Actor) string {
	for _, item := range actor.Items {
		if item.Type == compendium.TypeClass {
			return item.ID
		}
	}
	return ""
}
