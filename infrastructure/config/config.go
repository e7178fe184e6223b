package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/VeriBlock/alt-integration-cpp-sub004/infrastructure/db/database"
	"github.com/VeriBlock/alt-integration-cpp-sub004/infrastructure/db/database/ldb"
	"github.com/VeriBlock/alt-integration-cpp-sub004/infrastructure/logger"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	defaultDataDirname     = "data"
	defaultLogDirname      = "logs"
	defaultLogFilename     = "pop.log"
	defaultErrLogFilename  = "pop_err.log"
	defaultLogLevel        = "info"
	defaultDBCacheSizeMiB  = 64
	defaultHomeDirname     = ".altintegration"
	minimalDBCacheSizeMiB  = 8
	supportedSubsystemsArg = "show"
)

var (
	// DefaultHomeDir is the default home directory
	DefaultHomeDir = defaultHomeDir()

	defaultDataDir = filepath.Join(DefaultHomeDir, defaultDataDirname)
	defaultLogDir  = filepath.Join(DefaultHomeDir, defaultLogDirname)
)

func defaultHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return defaultHomeDirname
	}
	return filepath.Join(homeDir, defaultHomeDirname)
}

// Flags defines the configuration options.
type Flags struct {
	DataDir        string `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir         string `long:"logdir" description:"Directory to log output."`
	DebugLevel     string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems -- Use show to list available subsystems"`
	DBCacheSizeMiB int    `long:"dbcache" description:"Size of the database cache, in MiB"`
	LogRotateKB    int64  `long:"logrotatekb" description:"Size, in KB, at which log files are rotated"`
	LogMaxRolls    int    `long:"logmaxrolls" description:"Number of rotated log files to keep"`
	NetworkFlags
}

// Config defines the configuration of a pop context.
type Config struct {
	*Flags
}

func defaultFlags() *Flags {
	return &Flags{
		DataDir:        defaultDataDir,
		LogDir:         defaultLogDir,
		DebugLevel:     defaultLogLevel,
		DBCacheSizeMiB: defaultDBCacheSizeMiB,
		LogRotateKB:    logger.DefaultRotation.ThresholdKB,
		LogMaxRolls:    logger.DefaultRotation.MaxRolls,
	}
}

// LoadConfig parses args into a Config. The data and log directories are
// suffixed with the name of the selected network.
func LoadConfig(args []string) (*Config, error) {
	cfgFlags := defaultFlags()
	parser := flags.NewParser(cfgFlags, flags.HelpFlag|flags.PassDoubleDash)
	remainingArgs, err := parser.ParseArgs(args)
	if err != nil {
		return nil, err
	}
	if len(remainingArgs) > 0 {
		return nil, errors.Errorf("unexpected arguments: %s", strings.Join(remainingArgs, " "))
	}

	cfg := &Config{Flags: cfgFlags}
	err = cfg.ResolveNetwork()
	if err != nil {
		return nil, err
	}

	if cfg.DBCacheSizeMiB < minimalDBCacheSizeMiB {
		return nil, errors.Errorf("the database cache must be at least %d MiB, got %d",
			minimalDBCacheSizeMiB, cfg.DBCacheSizeMiB)
	}
	err = cfg.logRotation().Validate()
	if err != nil {
		return nil, err
	}
	if cfg.DebugLevel == supportedSubsystemsArg {
		return nil, errors.Errorf("supported subsystems: %s", strings.Join(logger.SupportedSubsystems(), ", "))
	}
	err = logger.ParseAndSetLogLevels(cfg.DebugLevel)
	if err != nil {
		return nil, err
	}

	cfg.DataDir = filepath.Join(cleanAndExpandPath(cfg.DataDir), cfg.NetParams().Name)
	cfg.LogDir = filepath.Join(cleanAndExpandPath(cfg.LogDir), cfg.NetParams().Name)
	return cfg, nil
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(DefaultHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// InitLog attaches the log files of cfg to the logging backend and starts it.
func (cfg *Config) InitLog() error {
	err := logger.InitLog(filepath.Join(cfg.LogDir, defaultLogFilename),
		filepath.Join(cfg.LogDir, defaultErrLogFilename), logger.LevelInfo, cfg.logRotation())
	if err != nil {
		return err
	}
	return logger.ParseAndSetLogLevels(cfg.DebugLevel)
}

func (cfg *Config) logRotation() logger.RotationConfig {
	return logger.RotationConfig{ThresholdKB: cfg.LogRotateKB, MaxRolls: cfg.LogMaxRolls}
}

// OpenDatabase opens the leveldb database in the data directory, creating it
// if needed.
func (cfg *Config) OpenDatabase() (database.Database, error) {
	err := os.MkdirAll(cfg.DataDir, 0700)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create data directory %s", cfg.DataDir)
	}
	db, err := ldb.NewLevelDB(cfg.DataDir, cfg.DBCacheSizeMiB)
	if err != nil {
		return nil, err
	}
	return db, nil
}
