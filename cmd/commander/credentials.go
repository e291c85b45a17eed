package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"

	"golang.org/x/term"

	"github.com/newtron-network/commander/pkg/device"
)

const (
	passwordEnv = "COMMANDER_PASSWORD"
	enableEnv   = "COMMANDER_ENABLE"
)

// promptOut receives the credential prompts, never stdout.
var promptOut io.Writer = os.Stderr

// readPassword reads one line from the terminal without echo.
var readPassword = func(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal")
	}
	fmt.Fprint(promptOut, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(promptOut)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// promptCredentials captures the run credentials once: the local OS user
// unless overridden, the password and, when asked for, an enable secret.
func promptCredentials(username string, withEnable bool) (device.Credentials, error) {
	if username == "" {
		u, err := user.Current()
		if err != nil {
			return device.Credentials{}, fmt.Errorf("determining username: %w (use --user)", err)
		}
		username = u.Username
	}
	fmt.Fprintf(promptOut, "Username: %s\n", username)

	password, err := secret(passwordEnv, "Password: ")
	if err != nil {
		return device.Credentials{}, fmt.Errorf("reading password: %w (or set %s)", err, passwordEnv)
	}
	creds := device.Credentials{Username: username, Password: password}

	if withEnable {
		creds.Enable, err = secret(enableEnv, "Enable secret: ")
		if err != nil {
			return device.Credentials{}, fmt.Errorf("reading enable secret: %w (or set %s)", err, enableEnv)
		}
	}
	return creds, nil
}

func secret(env, prompt string) (device.Secret, error) {
	if v, ok := os.LookupEnv(env); ok {
		return device.Secret(v), nil
	}
	v, err := readPassword(prompt)
	if err != nil {
		return "", err
	}
	return device.Secret(v), nil
}
