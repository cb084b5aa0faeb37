package params

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Market struct {
	Symbol string // display symbol for the single instrument
	Depth  int    // default snapshot depth per side
}

type API struct {
	Addr string
}

type Sim struct {
	Enabled  bool
	Interval time.Duration // synthetic snapshot refresh period
	Depth    int
	StartMid int64
}

type Journal struct {
	Enabled bool
	Path    string
}

type Stream struct {
	Enabled bool
	Brokers []string
	Topic   string
}

type Config struct {
	Market  Market
	API     API
	Sim     Sim
	Journal Journal
	Stream  Stream
	LogFile string
}

func Default() Config {
	return Config{
		Market: Market{
			Symbol: "MBX-USD",
			Depth:  20,
		},
		API: API{
			Addr: ":8080",
		},
		Sim: Sim{
			Enabled:  true,
			Interval: 500 * time.Millisecond,
			Depth:    12,
			StartMid: 10000,
		},
		Journal: Journal{
			Enabled: true,
			Path:    "data/journal",
		},
		Stream: Stream{
			Enabled: false, // needs a broker, off by default
			Brokers: []string{"localhost:9092"},
			Topic:   "matchbook.trades",
		},
		LogFile: "data/matchbookd.log",
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load() // loads .env from current directory
	}

	if v := os.Getenv("SYMBOL"); v != "" {
		cfg.Market.Symbol = v
	}
	if v := os.Getenv("BOOK_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Market.Depth = n
		}
	}
	if v := os.Getenv("API_ADDR"); v != "" {
		cfg.API.Addr = v
	}

	if v := os.Getenv("SIM_ENABLED"); v != "" {
		cfg.Sim.Enabled = v == "true"
	}
	if v := os.Getenv("SIM_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Sim.Interval = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("SIM_START_MID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.Sim.StartMid = n
		}
	}

	if v := os.Getenv("JOURNAL_ENABLED"); v != "" {
		cfg.Journal.Enabled = v == "true"
	}
	if v := os.Getenv("JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Stream.Enabled = true
		cfg.Stream.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		cfg.Stream.Topic = v
	}

	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}

	return cfg
}
