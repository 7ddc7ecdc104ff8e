package constant

// Provider identifies a push delivery channel a device is reachable on.
type Provider string

const (
	ProviderLine     Provider = "line"
	ProviderPushover Provider = "pushover"
)

func (p Provider) Valid() bool {
	return p == ProviderLine || p == ProviderPushover
}
