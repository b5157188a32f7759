package directive

func cleanup() error { return nil }

func run() {
	/* want `'nolint' directive has no justification` */ cleanup() //nolint:errcheck
	cleanup() //nolint:errcheck // best effort, the process is exiting
}
