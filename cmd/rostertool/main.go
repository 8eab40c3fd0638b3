package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/vncsmyrnk/voteportal/internal/adapters/credentials"
	"github.com/vncsmyrnk/voteportal/internal/adapters/repository"
	"github.com/vncsmyrnk/voteportal/internal/adapters/spreadsheet"
	"github.com/vncsmyrnk/voteportal/internal/config"
	"github.com/vncsmyrnk/voteportal/internal/core/services"
)

const usage = `usage: rostertool [-config file] <command> [args]

commands:
  import <file>          replace the voter roster with the rows of a .xlsx or .csv file
  export <file>          write the voter roster to a .xlsx or .csv file
  list                   print the voter roster
  hash-password <pass>   print a bcrypt hash for auth.admin_password_hash
`

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found")
	}

	configPath := flag.String("config", os.Getenv("PORTAL_CONFIG"), "path to the YAML config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if err := run(*configPath, flag.Args()); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, args []string) error {
	if len(args) == 0 {
		flag.Usage()
		return fmt.Errorf("a command is required")
	}

	if args[0] == "hash-password" {
		if len(args) < 2 {
			return fmt.Errorf("hash-password needs a password")
		}
		hash, err := credentials.HashPassword(args[1])
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := cfg.Logging.NewLogger()

	// Use a timeout for the job execution to prevent it from hanging indefinitely
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	backend, err := repository.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer backend.Close()

	records := services.NewRecords(services.NewStore(backend, logger))
	roster := services.NewRosterService(records, services.NewUIDGenerator(records), logger)

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	switch args[0] {
	case "import":
		if len(args) < 2 {
			return fmt.Errorf("import needs a file")
		}
		codec, err := spreadsheet.ForFilename(args[1])
		if err != nil {
			return err
		}
		f, err := os.Open(args[1])
		if err != nil {
			return fmt.Errorf("opening %s: %w", args[1], err)
		}
		defer f.Close()

		result, err := roster.ImportVoters(ctx, codec, f)
		if err != nil {
			return fmt.Errorf("%s (%w)", services.ImportStatusMessage(err), err)
		}
		green.Print("▶ ")
		fmt.Printf("%s %d voters imported, %d rows skipped\n", services.ImportStatusMessage(nil), result.Imported, result.Skipped)

	case "export":
		if len(args) < 2 {
			return fmt.Errorf("export needs a file")
		}
		codec, err := spreadsheet.ForFilename(args[1])
		if err != nil {
			return err
		}
		f, err := os.Create(args[1])
		if err != nil {
			return fmt.Errorf("creating %s: %w", args[1], err)
		}
		if err := roster.ExportVoters(ctx, codec, f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", args[1], err)
		}
		green.Print("▶ ")
		fmt.Printf("Voter roster written to %s\n", args[1])

	case "list":
		for _, v := range records.Voters(ctx) {
			cyan.Printf("%-6s", v.UID)
			fmt.Printf(" %-30s %-8s %s\n", v.Name, v.Class, v.Color)
		}

	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}
