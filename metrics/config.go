package metrics

// Config holds metrics endpoint configuration. An empty Addr disables the endpoint.
type Config struct {
	Addr string `yaml:"addr"`
}
