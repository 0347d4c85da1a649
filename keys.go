package switchyard

type Key string

const (
	// IPAddrKey stashes the IP address of an HTTP request being handled by a host.
	IPAddrKey Key = "IPAddrKey"

	// RequestIDKey stashes a unique UUID for each HTTP request.
	RequestIDKey Key = "RequestIDKey"
)

// String formats the stringified key with additional contextual information
func (k Key) String() string {
	return "switchyard context key: " + string(k)
}
