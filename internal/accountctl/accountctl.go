// Package accountctl implements the accountctl command line client.
package accountctl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aussiebroadwan/accountd/pkg/accountsdk"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// ErrUsage is returned for unknown commands and bad flags.
var ErrUsage = errors.New("usage error")

const usage = `usage: accountctl [-server URL] <command> [flags]

commands:
  register  -email E [-mobile M]          create an account (password is prompted)
  login     -email E | -mobile M [-device D]  print a credential as JSON
  check     -cred FILE                    verify a saved credential
  me        -cred FILE                    show the logged-in account
  logout    -cred FILE                    drop the session
  activate  -link URL                     open an activation link
  resend    -email E                      mail a new activation link
  health                                  show liveness and readiness
`

// CLI holds the streams a command reads from and writes to.
type CLI struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Password, when set, is used instead of prompting on the terminal.
	Password string
}

// Run parses args (without the program name) and executes one command.
func (c *CLI) Run(ctx context.Context, args []string) error {
	global := flag.NewFlagSet("accountctl", flag.ContinueOnError)
	global.SetOutput(c.Err)
	server := global.String("server", envOr("ACCOUNTD_URL", "http://localhost:8080"), "service base URL")
	global.Usage = func() { fmt.Fprint(c.Err, usage) }
	if err := global.Parse(args); err != nil {
		return ErrUsage
	}

	rest := global.Args()
	if len(rest) == 0 {
		global.Usage()
		return ErrUsage
	}

	client := accountsdk.NewSDKClient(*server)
	cmd, cmdArgs := rest[0], rest[1:]

	switch cmd {
	case "register":
		return c.register(ctx, client, cmdArgs)
	case "login":
		return c.login(ctx, client, cmdArgs)
	case "check", "me", "logout":
		return c.session(ctx, client, cmd, cmdArgs)
	case "activate":
		return c.activate(ctx, client, cmdArgs)
	case "resend":
		return c.resend(ctx, client, cmdArgs)
	case "health":
		return c.health(ctx, client)
	default:
		fmt.Fprintf(c.Err, "unknown command %q\n\n%s", cmd, usage)
		return ErrUsage
	}
}

func (c *CLI) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.Err)
	return fs
}

func (c *CLI) register(ctx context.Context, client *accountsdk.SDKClient, args []string) error {
	fs := c.flags("register")
	email := fs.String("email", "", "account email")
	mobile := fs.String("mobile", "", "mobile number")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	pw, err := c.password()
	if err != nil {
		return err
	}

	account, err := client.NewAccount(ctx, accountsdk.NewAccountRequest{
		Email:    *email,
		Password: pw,
		Mobile:   *mobile,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.Out, "registered %s (%s), check your inbox for the activation link\n", account.Email, account.ID)
	return nil
}

func (c *CLI) login(ctx context.Context, client *accountsdk.SDKClient, args []string) error {
	fs := c.flags("login")
	email := fs.String("email", "", "account email")
	mobile := fs.String("mobile", "", "mobile number")
	device := fs.String("device", "", "device class (default web)")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	pw, err := c.password()
	if err != nil {
		return err
	}

	sess, err := client.Login(ctx, accountsdk.LoginRequest{
		Email:    *email,
		Mobile:   *mobile,
		Password: pw,
		Device:   *device,
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(sess.Credential())
}

func (c *CLI) session(ctx context.Context, client *accountsdk.SDKClient, cmd string, args []string) error {
	fs := c.flags(cmd)
	credFile := fs.String("cred", "", "file holding the credential printed by login, - for stdin")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	cred, err := c.readCredential(*credFile)
	if err != nil {
		return err
	}
	sess := client.NewSession(cred)

	switch cmd {
	case "check":
		if err := sess.Check(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.Out, "credential ok")
	case "me":
		account, err := sess.Me(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.Out, "%s\t%s\t%s\tstatus=%d\n", account.ID, account.Email, account.Mobile, account.Status)
	case "logout":
		if err := sess.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.Out, "logged out")
	}
	return nil
}

func (c *CLI) activate(ctx context.Context, client *accountsdk.SDKClient, args []string) error {
	fs := c.flags("activate")
	link := fs.String("link", "", "activation link from the email")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	req, err := accountsdk.ParseActivationLink(*link)
	if err != nil {
		return err
	}
	if err := client.OpenActivationLink(ctx, req); err != nil {
		return err
	}

	fmt.Fprintln(c.Out, "account activated")
	return nil
}

func (c *CLI) resend(ctx context.Context, client *accountsdk.SDKClient, args []string) error {
	fs := c.flags("resend")
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	if err := client.SendActiveEmail(ctx, *email); err != nil {
		return err
	}
	fmt.Fprintln(c.Out, "activation email sent")
	return nil
}

func (c *CLI) health(ctx context.Context, client *accountsdk.SDKClient) error {
	live, err := client.GetLiveness(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Out, "live\t%s\t%s\tuptime=%s\n", live.Status, live.Version, live.Uptime)

	ready, err := client.GetReadiness(ctx)
	if ready != nil && ready.Checks != nil {
		fmt.Fprintf(c.Out, "ready\t%s\tdatabase=%s\n", ready.Status, ready.Checks.Database)
	}
	return err
}

// password returns c.Password or prompts for one without echo.
func (c *CLI) password() (string, error) {
	if c.Password != "" {
		return c.Password, nil
	}

	fmt.Fprint(c.Err, "Enter password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(c.Err)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}

func (c *CLI) readCredential(path string) (accountsdk.Credential, error) {
	var (
		r   io.Reader
		err error
	)
	switch path {
	case "":
		return accountsdk.Credential{}, fmt.Errorf("%w: -cred is required", ErrUsage)
	case "-":
		r = bufio.NewReader(c.In)
	default:
		f, openErr := os.Open(path)
		if openErr != nil {
			return accountsdk.Credential{}, openErr
		}
		defer f.Close()
		r = f
	}

	var cred accountsdk.Credential
	if err = json.NewDecoder(r).Decode(&cred); err != nil {
		return accountsdk.Credential{}, fmt.Errorf("decode credential: %w", err)
	}
	return cred, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
