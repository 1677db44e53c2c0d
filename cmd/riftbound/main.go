package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Naokyoo/Riftbound-manager/internal/config"
	"github.com/Naokyoo/Riftbound-manager/internal/riftbound/apperr"
	"github.com/Naokyoo/Riftbound-manager/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to config.toml (default: ~/.riftbound/config.toml)")
	debugMode  = flag.Bool("debug", false, "Enable debug logging")
	catalogArg = flag.String("catalog", "", "Path to a JSON card catalog (overrides catalog.path)")
	apiURL     = flag.String("api", "", "Persistence service base URL (overrides api.base_url)")
)

// errUsage makes main print the usage and exit with status 2.
var errUsage = errors.New("usage")

func main() {
	flag.Usage = printUsage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	switch args[0] {
	case "version":
		fmt.Println(version.GetVersion())
		return
	case "help", "-h", "--help":
		printUsage()
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.Log.Debug || *debugMode)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg, logger, args)
	switch {
	case err == nil:
	case errors.Is(err, errUsage):
		printUsage()
		os.Exit(2)
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", errorText(err))
		logger.Debug("command failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if *catalogArg != "" {
		cfg.Catalog.Path = *catalogArg
	}
	if *apiURL != "" {
		cfg.API.BaseURL = *apiURL
	}
	if *debugMode {
		cfg.Log.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// errorText returns the message shown to the user for err. Service errors
// show their user-facing message; everything else its full chain.
func errorText(err error) string {
	if apperr.KindOf(err) != "" {
		return apperr.Message(err)
	}
	return err.Error()
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	cmd, rest := args[0], args[1:]

	// Commands that do not need the service.
	switch cmd {
	case "catalog":
		return runCatalogCommand(ctx, cfg, logger, rest)
	case "serve-fake":
		return runServeFake(ctx, cfg, logger, rest)
	}

	a, err := newApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "cards":
		return a.listCards(ctx, rest)
	case "collection":
		return a.collectionCommand(ctx, rest)
	case "decks":
		return a.listDecks(ctx)
	case "deck":
		return a.deckCommand(ctx, rest)
	case "report":
		return a.reportCommand(ctx, rest)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		return errUsage
	}
}

func printUsage() {
	fmt.Println("Riftbound Manager")
	fmt.Println("=================")
	fmt.Println()
	fmt.Println("Usage: riftbound [flags] <command> [args]")
	fmt.Println()
	fmt.Println("Session:")
	fmt.Println("  login <token>                      Verify and store a credential")
	fmt.Println("  logout                             Forget the stored credential")
	fmt.Println("  whoami                             Show the signed-in user")
	fmt.Println()
	fmt.Println("Catalog:")
	fmt.Println("  cards [-type T] [-rarity R] [-set S] [-domain D] [-search Q] [-fuzzy Q] [-owned all|owned|not-owned]")
	fmt.Println("  catalog import <cards.json>        Store a JSON catalog in the catalog database")
	fmt.Println("  catalog info                       Show the stored catalog")
	fmt.Println("  catalog backup [dir]               Snapshot the catalog database")
	fmt.Println("  catalog backups [dir]              List catalog snapshots")
	fmt.Println("  catalog restore <file.db>          Replace the catalog database with a snapshot")
	fmt.Println()
	fmt.Println("Collection:")
	fmt.Println("  collection                         Show the collection")
	fmt.Println("  collection add <id> [n] [source]   Add copies")
	fmt.Println("  collection remove <id> [n]         Remove copies")
	fmt.Println("  collection set <id> <n>            Set the owned quantity")
	fmt.Println("  collection fav <id> [on|off]       Mark or unmark a favorite")
	fmt.Println("  collection completion              Per-set completion")
	fmt.Println()
	fmt.Println("Decks:")
	fmt.Println("  decks                              List decks")
	fmt.Println("  deck show|stats|validate <deck>")
	fmt.Println("  deck create <legend-id> <name>")
	fmt.Println("  deck rename <deck> <name>")
	fmt.Println("  deck delete <deck>")
	fmt.Println("  deck add|remove <deck> <card> [n]")
	fmt.Println("  deck drop <deck> <card>            Remove every copy of a card")
	fmt.Println("  deck duplicate <deck>")
	fmt.Println("  deck pool <deck> [cards|runes|battlefields]")
	fmt.Println("  deck result <deck> win|loss")
	fmt.Println("  deck export <deck> [-format text|json] [-o file]")
	fmt.Println("  deck report <deck> [-o file]")
	fmt.Println()
	fmt.Println("Reports:")
	fmt.Println("  report collection [-o file] [-open]")
	fmt.Println()
	fmt.Println("Development:")
	fmt.Println("  serve-fake [-addr :5000] [-user token:name]...  Run an in-memory service")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  RIFTBOUND_API_URL, RIFTBOUND_TOKEN, RIFTBOUND_CATALOG_PATH,")
	fmt.Println("  RIFTBOUND_SESSION_PASSPHRASE, RIFTBOUND_DEBUG")
	fmt.Println()
}
