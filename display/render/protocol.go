// Package render draws images inline in the terminal. Terminals that speak
// the Kitty graphics or iTerm2 inline image protocol receive the PNG itself;
// everything else gets a half-block approximation with 24-bit color.
package render

import (
	"os"
	"strings"
)

// Protocol identifies how an image is sent to the terminal.
type Protocol int

const (
	// ProtocolAuto detects the protocol from the environment.
	ProtocolAuto Protocol = iota
	// ProtocolKitty uses the Kitty Graphics Protocol (Ghostty, Kitty, WezTerm).
	ProtocolKitty
	// ProtocolITerm2 uses iTerm2 inline images.
	ProtocolITerm2
	// ProtocolUnicode uses upper half-block characters, two pixels per cell.
	ProtocolUnicode
)

// String returns the human-readable name of the protocol.
func (p Protocol) String() string {
	switch p {
	case ProtocolAuto:
		return "auto"
	case ProtocolKitty:
		return "kitty"
	case ProtocolITerm2:
		return "iterm2"
	case ProtocolUnicode:
		return "unicode"
	default:
		return "unknown"
	}
}

// ParseProtocol maps a name accepted on the command line to a Protocol.
func ParseProtocol(name string) (Protocol, bool) {
	switch strings.ToLower(name) {
	case "", "auto":
		return ProtocolAuto, true
	case "kitty":
		return ProtocolKitty, true
	case "iterm2":
		return ProtocolITerm2, true
	case "unicode", "blocks":
		return ProtocolUnicode, true
	}
	return ProtocolAuto, false
}

// DetectProtocol inspects the environment, in order: TERM_PROGRAM, TERM,
// KITTY_WINDOW_ID, the iTerm2 session variables, and WEZTERM_EXECUTABLE.
// Graphics protocols are not trusted over SSH, where the half-block
// fallback is used instead.
func DetectProtocol() Protocol {
	p := detectTerminal()
	if p != ProtocolUnicode && IsSSHSession() {
		return ProtocolUnicode
	}
	return p
}

func detectTerminal() Protocol {
	switch strings.ToLower(os.Getenv("TERM_PROGRAM")) {
	case "ghostty", "kitty", "wezterm":
		return ProtocolKitty
	case "iterm.app":
		return ProtocolITerm2
	case "apple_terminal":
		return ProtocolUnicode
	}

	if os.Getenv("TERM") == "xterm-kitty" || os.Getenv("KITTY_WINDOW_ID") != "" {
		return ProtocolKitty
	}
	if os.Getenv("ITERM_SESSION_ID") != "" || os.Getenv("LC_TERMINAL") == "iTerm2" {
		return ProtocolITerm2
	}
	if os.Getenv("WEZTERM_EXECUTABLE") != "" {
		return ProtocolKitty
	}
	return ProtocolUnicode
}

// IsSSHSession returns true if we're running inside an SSH session.
func IsSSHSession() bool {
	return os.Getenv("SSH_CLIENT") != "" || os.Getenv("SSH_CONNECTION") != "" ||
		os.Getenv("SSH_TTY") != ""
}
