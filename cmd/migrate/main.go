// Command migrate applies the schema migrations under migrations/ to the
// database named in the config file.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/viper"

	"github.com/hearthvtt/levelforge/internal/config"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "config file")
	direction := flag.String("direction", "up", "up or down")
	steps := flag.Int("steps", 0, "how many migrations to run (0 = all)")
	flag.Parse()

	if err := run(*configPath, *direction, *steps); err != nil {
		log.Fatal(err)
	}
}

func run(configPath, direction string, steps int) error {
	v := viper.New()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	var dbCfg config.DatabaseConfig
	if err := v.Sub("database").Unmarshal(&dbCfg); err != nil {
		return fmt.Errorf("parsing database config: %w", err)
	}

	m, err := migrate.New("file://migrations", dbCfg.DSN())
	if err != nil {
		return fmt.Errorf("opening migrator: %w", err)
	}
	defer m.Close()

	switch direction {
	case "up":
		if steps > 0 {
			err = m.Steps(steps)
		} else {
			err = m.Up()
		}
	case "down":
		if steps > 0 {
			err = m.Steps(-steps)
		} else {
			err = m.Down()
		}
	default:
		return fmt.Errorf("direction must be up or down, got %q", direction)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running %s migrations: %w", direction, err)
	}

	version, dirty, verr := m.Version()
	if errors.Is(verr, migrate.ErrNilVersion) {
		fmt.Fprintln(os.Stdout, "schema is empty")
		return nil
	}
	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Fprintf(os.Stdout, "already at version %d (dirty=%v)\n", version, dirty)
		return nil
	}
	fmt.Fprintf(os.Stdout, "schema now at version %d (dirty=%v)\n", version, dirty)
	return nil
}
