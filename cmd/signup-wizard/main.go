// Command signup-wizard walks through signup against a running signup-server
// from the terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MrEthical07/goSignup/wizard"
	"golang.org/x/term"
)

var readPassword = term.ReadPassword

func main() {
	server := flag.String("server", "http://localhost:3001", "signup-server base URL")
	flag.Parse()

	ctx := context.Background()
	client := wizard.NewHTTPClient(*server, nil)
	if err := run(ctx, wizard.New(client), client, bufio.NewReader(os.Stdin), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "signup-wizard: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, w *wizard.Wizard, client *wizard.HTTPClient, in *bufio.Reader, out io.Writer) error {
	for {
		v := w.View()
		switch v.Step {
		case wizard.StepEmail:
			email, err := prompt(in, out, "Email")
			if err != nil {
				return err
			}
			_ = w.SubmitEmail(ctx, email)

		case wizard.StepVerification:
			code, err := prompt(in, out, fmt.Sprintf("Code sent to %s (or 'back' to use a different email)", v.Email))
			if err != nil {
				return err
			}
			if strings.EqualFold(code, "back") {
				_ = w.UseDifferentEmail()
				continue
			}
			_ = w.SubmitCode(ctx, code)

		case wizard.StepPassword:
			name, err := prompt(in, out, "Name")
			if err != nil {
				return err
			}
			password, err := secret(out, "Password")
			if err != nil {
				return err
			}
			confirm, err := secret(out, "Confirm password")
			if err != nil {
				return err
			}
			_ = w.SubmitPassword(ctx, name, password, confirm)

		case wizard.StepSuccess:
			fmt.Fprintln(out, "Account created.")
			if profile, err := client.Profile(ctx); err == nil {
				fmt.Fprintf(out, "Signed in as %s (%s)\n", profile.Email, profile.Role)
			}
			target, err := w.Redirect(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Continue at %s\n", target)
			return nil
		}

		v = w.View()
		if v.Notice != "" {
			fmt.Fprintln(out, v.Notice)
		}
		if v.Error != "" {
			fmt.Fprintln(out, v.Error)
		}
	}
}

func prompt(in *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprintf(out, "%s: ", label)
	line, err := in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func secret(out io.Writer, label string) (string, error) {
	fmt.Fprintf(out, "%s: ", label)
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(out)
	if err != nil {
		return "", err
	}
	return string(pw), nil
}
