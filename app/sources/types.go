package sources

// Source configuration types

const (
	TypeGmail      = "gmail"
	TypeOutlook    = "outlook"
	TypeRSS        = "rss"
	TypeForwarding = "forwarding"
)

type Config struct {
	Name     string         // Derived from filename (without .yml extension)
	UserID   string         `yaml:"user_id"`
	Type     string         `yaml:"type"` // gmail | outlook | rss | forwarding
	URL      string         `yaml:"url"`  // feed URL, rss sources only
	Mailbox  ConfigMailbox  `yaml:"mailbox"`
	Alias    string         `yaml:"alias"` // inbound forwarding address, forwarding sources only
	Settings ConfigSettings `yaml:"settings"`
}

type ConfigMailbox struct {
	Address  string `yaml:"address"`   // mailbox address, gmail/outlook sources
	Label    string `yaml:"label"`     // provider label or folder to poll
	TokenEnv string `yaml:"token_env"` // env var holding the OAuth access token
}

type ConfigSettings struct {
	Enabled      bool `yaml:"enabled"`
	PollInterval int  `yaml:"poll_interval"` // seconds
	MaxItems     int  `yaml:"max_items"`     // max messages fetched per poll
	Timeout      int  `yaml:"timeout"`       // seconds
	StoreRaw     bool `yaml:"store_raw"`     // keep raw message body on the item
}
