package redis

import "time"

type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"` // ConnectionURL in the format "redis://:password@localhost:6379/0".
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`                      // RetryAttempts is the number of connection attempts at startup.
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`                     // RetryInterval is the pause between connection attempts.
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`                   // ConnectTimeout bounds the whole connection procedure.
	ReadTimeout    time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"500ms"`                    // ReadTimeout is the socket read timeout of every command.
	WriteTimeout   time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"500ms"`                   // WriteTimeout is the socket write timeout of every command.
}
