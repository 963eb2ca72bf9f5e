//go:build !selfupdate

package update

// Enabled reports whether self-update was compiled in.
const Enabled = false
