package types

// Config holds driver selection and connection parameters for opening a
// storage executor.
type Config struct {
	Driver   string `json:"driver" yaml:"driver" mapstructure:"driver"`
	DSN      string `json:"dsn" yaml:"dsn" mapstructure:"dsn"`
	PoolSize int    `json:"pool_size" yaml:"pool_size" mapstructure:"pool_size"`
}

// Supported driver names.
const (
	DriverSQLite = "sqlite"
)

// knownDrivers lists the drivers that Validate accepts.
var knownDrivers = map[string]bool{
	DriverSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel
// error from this package on failure.
func (c Config) Validate() error {
	if c.Driver == "" {
		return ErrDriverEmpty
	}
	if !knownDrivers[c.Driver] {
		return ErrDriverUnknown
	}
	if c.DSN == "" {
		return ErrDSNEmpty
	}
	return nil
}
