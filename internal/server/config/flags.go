package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/sessionkeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string     gRPC bind address (e.g. ":50051")
//	-w string     HTTP bind address (e.g. ":8080")
//	-d string     PostgreSQL DSN
//	-m string     storage backend: postgres | memory
//	-s string     token signing secret
//	-l string     log level: debug | info | warn | error
//	-o string     public base URL for OAuth callbacks
//	-b string     billing API base URL (empty: nobody is subscribed)
//	-r string     redis address for the subscription cache (empty: no cache)
//	-i duration   reclamation interval
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-w", "-d", "-m", "-s", "-l", "-o", "-b", "-r", "-i"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "gRPC address and port")
	fs.StringVar(&config.EndpointAddrHTTP, "w", config.EndpointAddrHTTP, "HTTP address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.Storage, "m", config.Storage, "storage backend (postgres|memory)")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "token signing secret")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.OAuthRedirectBaseURL, "o", config.OAuthRedirectBaseURL, "public base URL for OAuth callbacks")
	fs.StringVar(&config.BillingBaseURL, "b", config.BillingBaseURL, "billing API base URL")
	fs.StringVar(&config.RedisAddr, "r", config.RedisAddr, "redis address")
	fs.DurationVar(&config.ReclaimInterval, "i", config.ReclaimInterval, "stale token reclamation interval")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
