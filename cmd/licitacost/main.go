package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hlxtech/licitacost/internal/config"
	"github.com/hlxtech/licitacost/internal/report"
	"github.com/hlxtech/licitacost/internal/store"
	"github.com/hlxtech/licitacost/pkg/constants"
	"github.com/hlxtech/licitacost/pkg/format"
	"github.com/hlxtech/licitacost/pkg/output"
)

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	logFormat := loggingConfig.Format
	if logFormat == "" {
		logFormat = "json"
	}

	var zapConfig zap.Config
	switch logFormat {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", logFormat)
	}

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

// loadConfigurationOrDefault loads the config file when present and falls
// back to the company defaults when the default location does not exist.
func loadConfigurationOrDefault(configLocation string) (*config.Configuration, error) {
	if configLocation == constants.DefaultConfigFile {
		if _, err := os.Stat(configLocation); os.IsNotExist(err) {
			return config.Default(), nil
		}
	}
	return config.LoadConfiguration(configLocation)
}

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	databasePath := flag.String("db", "", "path to the project database override")
	projectNumber := flag.String("project", "", "project number to report on")
	listProjects := flag.Bool("list", false, "list stored projects")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	exportReport := flag.Bool("export", false, "also export the report as a JSON file")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	conf, err := loadConfigurationOrDefault(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}
	if *databasePath != "" {
		conf.Storage.DatabasePath = *databasePath
	}

	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	if err := output.ValidateFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}
	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	st, err := store.Open(conf.Storage.DatabasePath)
	if err != nil {
		logger.Fatal("failed to open project database",
			zap.String("op", "main"),
			zap.String("path", conf.Storage.DatabasePath),
			zap.Error(err),
		)
	}
	defer func() {
		_ = st.Close()
	}()

	ctx := context.Background()

	if *listProjects {
		projects, err := st.ListProjects(ctx)
		if err != nil {
			logger.Fatal("failed to list projects",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		if len(projects) == 0 {
			fmt.Println("no projects stored")
			return
		}
		for _, p := range projects {
			fmt.Printf("%s | %s | %s\n", p.ProjectNumber, p.ClientName, format.Currency(p.GrossSale))
		}
		return
	}

	if *projectNumber == "" {
		fmt.Println("specify -project NUMBER to generate a report or -list to list projects")
		flag.Usage()
		return
	}

	project, err := st.LoadProject(ctx, *projectNumber)
	if err != nil {
		logger.Fatal("failed to load project",
			zap.String("op", "main"),
			zap.String("projectNumber", *projectNumber),
			zap.Error(err),
		)
	}

	opts := report.NewOptions(conf.Table())
	opts.Margins = conf.Margins
	opts.DefaultSimplesRate = conf.Company.SimplesRate

	rep, err := report.Compile(logger, *project, opts)
	if err != nil {
		logger.Fatal("failed to compile report",
			zap.String("op", "main"),
			zap.String("projectNumber", *projectNumber),
			zap.Error(err),
		)
	}

	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(rep)
	case constants.OutputFormatCSV:
		output.CsvFormat(rep)
	case constants.OutputFormatJSON:
		data, err := output.JSONBytes(rep)
		if err != nil {
			logger.Fatal("failed to encode report",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		fmt.Println(string(data))
	}

	if *exportReport {
		path, err := output.WriteJSON(conf.Storage.ReportsDir, rep)
		if err != nil {
			logger.Fatal("failed to export report",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		logger.Info("report exported",
			zap.String("op", "main"),
			zap.String("path", path),
		)
	}
}
