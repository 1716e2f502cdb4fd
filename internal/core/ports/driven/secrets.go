package driven

// SecretSource resolves credentials that must never be written to the
// configuration file, such as provider API keys.
type SecretSource interface {
	// Lookup returns the value of the named secret and whether it is set.
	Lookup(name string) (string, bool)
}
