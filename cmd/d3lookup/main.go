package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-yaml"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/tnicklin/nephalem/battlenet"
	"github.com/tnicklin/nephalem/config"
	"github.com/tnicklin/nephalem/models"
)

const (
	exitOK       = 0
	exitFailure  = 1
	exitNotFound = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var (
		app        = kingpin.New("d3lookup", "Look up Diablo III careers and heroes on Battle.net.")
		configPath = app.Flag("config", "Path to a YAML config with a battlenet section").Short('c').String()
		region     = app.Flag("region", "Battle.net region (us, eu, kr, tw)").OverrideDefaultFromEnvar("BATTLENET_REGION").Short('r').String()
		locale     = app.Flag("locale", "Response locale, e.g. en_US").Short('l').String()
		output     = app.Flag("output", "Output format").Short('o').Default("yaml").Enum("yaml", "json")
		baseURL    = app.Flag("base-url", "Override the API base URL; {region} is substituted").Hidden().String()
		timeout    = app.Flag("timeout", "Overall lookup timeout").Default("30s").Duration()

		careerCmd = app.Command("career", "Show a career profile.")
		careerTag = careerCmd.Arg("battletag", "Battle tag, Name#1234 or Name-1234").Required().String()

		heroCmd = app.Command("hero", "Show one hero.")
		heroTag = heroCmd.Arg("battletag", "Battle tag, Name#1234 or Name-1234").Required().String()
		heroID  = heroCmd.Arg("id", "Hero id as listed by the career command").Required().Int64()
	)
	app.Writer(stderr)
	terminated := -1
	app.Terminate(func(code int) { terminated = code })

	cmd, err := app.Parse(args)
	// --help prints usage and asks to terminate; parsing then carries on without a command.
	if terminated >= 0 {
		return terminated
	}
	if err != nil {
		fmt.Fprintf(stderr, "d3lookup: %v\n", err)
		return exitFailure
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "d3lookup: load config: %v\n", err)
		return exitFailure
	}
	cfg.ClientID = envOr("BATTLENET_CLIENT_ID", cfg.ClientID)
	cfg.ClientSecret = envOr("BATTLENET_CLIENT_SECRET", cfg.ClientSecret)
	if *region != "" {
		cfg.Region = *region
	}
	if *locale != "" {
		cfg.Locale = *locale
	}
	if *baseURL != "" {
		cfg.BaseURL = *baseURL
	}

	client := battlenet.New(battlenet.Params{Config: cfg})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var result any
	switch cmd {
	case careerCmd.FullCommand():
		result, err = client.GetCareerByBattleTag(ctx, models.BattleTag(*careerTag))
	case heroCmd.FullCommand():
		result, err = client.GetHeroByID(ctx, models.BattleTag(*heroTag), *heroID)
	}
	if err != nil {
		fmt.Fprintf(stderr, "d3lookup: %v\n", err)
		if errors.Is(err, battlenet.ErrNotFound) {
			return exitNotFound
		}
		return exitFailure
	}

	if err = write(stdout, *output, result); err != nil {
		fmt.Fprintf(stderr, "d3lookup: write output: %v\n", err)
		return exitFailure
	}
	return exitOK
}

func loadConfig(path string) (battlenet.Config, error) {
	if path == "" {
		return battlenet.Config{}, nil
	}
	app, err := config.Load(path)
	if err != nil {
		return battlenet.Config{}, err
	}
	return app.BattleNet, nil
}

func write(w io.Writer, format string, v any) error {
	var (
		out []byte
		err error
	)
	switch format {
	case "json":
		out, err = json.MarshalIndent(v, "", "  ")
		out = append(out, '\n')
	default:
		out, err = yaml.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
