package passphrase

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ErrMismatch is returned when a confirmed passphrase is entered differently
// the second time.
var ErrMismatch = errors.New("passphrases do not match")

// Source resolves the passphrase guarding a vinectl keystore. The environment
// variable wins over the terminal; the first result is cached.
type Source struct {
	envVar  string
	prompt  string
	confirm bool
	read    func(prompt string) (string, error)

	once  sync.Once
	value string
	err   error
}

// NewSource returns a Source that checks envVar before prompting.
func NewSource(envVar string) *Source {
	return &Source{
		envVar: strings.TrimSpace(envVar),
		prompt: "Enter keystore passphrase: ",
		read:   readTerminal,
	}
}

// WithPrompt replaces the terminal prompt.
func (s *Source) WithPrompt(prompt string) *Source {
	s.prompt = prompt
	return s
}

// WithConfirmation makes an interactive prompt ask twice. Used when a new
// keystore is created so a typo does not lock the key away.
func (s *Source) WithConfirmation() *Source {
	s.confirm = true
	return s
}

// Get returns the passphrase. Whitespace-only values are rejected.
func (s *Source) Get() (string, error) {
	s.once.Do(func() {
		s.value, s.err = s.resolve()
	})
	return s.value, s.err
}

func (s *Source) resolve() (string, error) {
	if s.envVar != "" {
		if value, ok := os.LookupEnv(s.envVar); ok {
			if strings.TrimSpace(value) == "" {
				return "", fmt.Errorf("%s is set but empty", s.envVar)
			}
			return value, nil
		}
	}
	value, err := s.read(s.prompt)
	if err != nil {
		if s.envVar != "" {
			return "", fmt.Errorf("keystore passphrase required; set %s or run interactively: %w", s.envVar, err)
		}
		return "", err
	}
	if strings.TrimSpace(value) == "" {
		return "", errors.New("keystore passphrase cannot be empty")
	}
	if s.confirm {
		again, err := s.read("Repeat passphrase: ")
		if err != nil {
			return "", err
		}
		if again != value {
			return "", ErrMismatch
		}
	}
	return value, nil
}

func readTerminal(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no terminal available")
	}
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read passphrase: %w", err)
	}
	return string(raw), nil
}
