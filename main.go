package main

import (
	"fmt"
	"os"
	"sort"
	"time"

	"owo.codes/whats-this/release-catalog/lib/artifacts"
	"owo.codes/whats-this/release-catalog/lib/cache"
	"owo.codes/whats-this/release-catalog/lib/catalog"
	"owo.codes/whats-this/release-catalog/lib/category"
	"owo.codes/whats-this/release-catalog/lib/db"
	"owo.codes/whats-this/release-catalog/lib/search"
	"owo.codes/whats-this/release-catalog/lib/settings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/valyala/fasthttp"
)

// Build config
const (
	configLocationUnix = "/etc/whats-this/release-catalog/config.toml"
	version            = "0.3.0"
)

// printConfiguration iterates through a configuration map[string]interface{}
// and prints out all of the values in alphabetical order. Configuration keys
// are printed with dot notation.
func printConfiguration(prefix string, config map[string]interface{}) {
	keys := make([]string, len(config))
	i := 0
	for k := range config {
		keys[i] = k
		i++
	}
	sort.Strings(keys)

	for _, k := range keys {
		if v, ok := config[k].(map[string]interface{}); ok {
			printConfiguration(fmt.Sprintf("%s%s.", prefix, k), v)
		} else {
			fmt.Printf("%s%s: %+v\n", prefix, k, config[k])
		}
	}
}

func init() {
	// Flag configuration
	flags := pflag.NewFlagSet("whats-this-release-catalog", pflag.ExitOnError)
	flags.IntP("log-level", "l", 1, "Set zerolog logging level (5=panic, 4=fatal, 3=error, 2=warn, 1=info, 0=debug)")
	configFile := flags.StringP("config-file", "c", configLocationUnix,
		fmt.Sprintf("Path to configuration file, defaults to %s", configLocationUnix))
	printConfig := flags.BoolP("print-config", "p", false, "Prints configuration and exits")
	flags.Parse(os.Args)

	// Configuration defaults
	viper.SetDefault("cache.backend", "memory")
	viper.SetDefault("cache.cleanupInterval", time.Minute*5)
	viper.SetDefault("cache.redisDB", 0)
	viper.SetDefault("files.nzbSplitLevel", 4)
	viper.SetDefault("http.compressResponse", false)
	viper.SetDefault("http.listenAddress", ":49545")
	viper.BindPFlag("log.level", flags.Lookup("log-level")) // default is 1 (info)
	viper.SetDefault("metrics.enable", false)

	// Load configuration file
	viper.SetConfigType("toml")
	file, err := os.Open(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open configuration file (%s) for reading: %s", *configFile, err.Error())
		os.Exit(1)
		return
	}
	err = viper.ReadConfig(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse configuration file (%s): %s", *configFile, err.Error())
		os.Exit(1)
		return
	}
	file.Close()

	// Configure logger
	zerolog.TimeFieldFormat = ""
	if lvl := viper.GetInt("log.level"); 0 <= lvl && lvl <= 5 {
		zerolog.SetGlobalLevel(zerolog.Level(lvl))
	} else {
		viper.Set("log.level", 1)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Warn().Int("log.level", lvl).Msg("Invalid log level, defaulting to 1 (info)")
	}
	log.Debug().Uint8("level", uint8(zerolog.GlobalLevel())).Msg("Set logger level")

	// Print configuration variables in alphabetical order
	if *printConfig {
		log.Info().Msg("Printing configuration values to Stdout")
		printConfiguration("", viper.AllSettings())
		os.Exit(0)
		return
	}

	// Ensure required configuration variables are set
	if viper.GetString("database.connectionURL") == "" {
		log.Fatal().Msg("Configuration: database.connectionURL is required")
	}
	if viper.GetString("search.elasticURL") == "" {
		log.Fatal().Msg("Configuration: search.elasticURL is required")
	}
	if viper.GetString("files.nzbPath") == "" {
		log.Fatal().Msg("Configuration: files.nzbPath is required")
	}
	if viper.GetString("files.coversPath") == "" {
		log.Fatal().Msg("Configuration: files.coversPath is required")
	}
	if viper.GetString("http.listenAddress") == "" {
		log.Fatal().Msg("Configuration: http.listenAddress is required")
	}
	switch backend := viper.GetString("cache.backend"); backend {
	case "memory":
	case "redis":
		if viper.GetString("cache.redisAddress") == "" {
			log.Fatal().Msg("Configuration: cache.redisAddress is required when cache.backend is redis")
		}
	default:
		log.Fatal().Str("cache.backend", backend).Msg(`Configuration: cache.backend must be "memory" or "redis"`)
	}
}

func main() {
	// Connect to PostgreSQL database
	conn, err := db.Connect("postgres", viper.GetString("database.connectionURL"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database connection")
	}
	store := db.NewReleaseStore(conn)

	// Setup result cache
	var resultCache cache.Cache
	switch viper.GetString("cache.backend") {
	case "redis":
		resultCache, err = cache.NewRedis(
			viper.GetString("cache.redisAddress"),
			viper.GetString("cache.redisPassword"),
			viper.GetInt("cache.redisDB"),
		)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis cache")
		}
	default:
		resultCache = cache.NewMemory(viper.GetDuration("cache.cleanupInterval"))
	}

	// Connect to the full-text index
	index, err := search.NewElastic(viper.GetString("search.elasticURL"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Elasticsearch")
	}

	// Assemble the catalog engine and deleter
	provider := settings.NewViper(viper.GetViper())
	categories := category.NewPG(conn, resultCache, settings.DefaultCacheExpiryLong)
	engine := catalog.New(store, resultCache, index, categories, provider, log.Logger)
	files := artifacts.New(
		viper.GetString("files.nzbPath"),
		viper.GetString("files.coversPath"),
		viper.GetInt("files.nzbSplitLevel"),
	)
	deleter := catalog.NewDeleter(store, files, index, log.Logger)

	api := &apiServer{
		catalog: engine,
		deleter: deleter,
		metrics: viper.GetBool("metrics.enable"),
	}

	// Launch server
	h := api.requestHandler
	if viper.GetBool("http.compressResponse") {
		h = fasthttp.CompressHandler(h)
	}
	listenAddress := viper.GetString("http.listenAddress")
	log.Info().Str("listenAddress", listenAddress).Msg("Starting HTTP server")
	server := &fasthttp.Server{
		Handler:                       h,
		Name:                          "whats-this/release-catalog v" + version,
		ReadBufferSize:                1024 * 6, // 6 KB
		ReadTimeout:                   time.Minute * 5,
		WriteTimeout:                  time.Minute * 5,
		DisableHeaderNamesNormalizing: false,
	}
	if err := server.ListenAndServe(listenAddress); err != nil {
		log.Fatal().Err(err).Msg("error in server.ListenAndServe")
	}
}
