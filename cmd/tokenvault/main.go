// Command tokenvault is a thin admin CLI over the vault's five-call
// contract: list registered types, and get, set, or delete a user's token.
// It exists for operators; the platform itself embeds the vault as a library.
//
// Usage:
//
//	tokenvault types
//	tokenvault get -type jira -user u1
//	tokenvault set -type jira -user u1 -field token=abc -field server_url=https://x
//	tokenvault delete -type jira -user u1
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/ericfisherdev/tokenvault/internal/config"
	vaultlog "github.com/ericfisherdev/tokenvault/internal/log"
	"github.com/ericfisherdev/tokenvault/internal/vault"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: tokenvault <types|get|set|delete> [flags]")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := vaultlog.NewLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	v, err := vault.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := v.Close(); closeErr != nil {
			logger.Error("error closing vault", "error", closeErr)
		}
	}()

	ctx := context.Background()

	switch os.Args[1] {
	case "types":
		for _, name := range v.ListTypes() {
			fmt.Println(name)
		}
		return nil

	case "get":
		tokenType, userID, _, err := parseFlags("get", os.Args[2:], false)
		if err != nil {
			return err
		}
		data, err := v.Get(ctx, tokenType, userID)
		if err != nil {
			return err
		}
		if data == nil {
			fmt.Println("(absent)")
			return nil
		}
		printFields(data)
		return nil

	case "set":
		tokenType, userID, fields, err := parseFlags("set", os.Args[2:], true)
		if err != nil {
			return err
		}
		ok, err := v.Upsert(ctx, tokenType, userID, fields)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("write failed, see log for details")
		}
		fmt.Println("stored")
		return nil

	case "delete":
		tokenType, userID, _, err := parseFlags("delete", os.Args[2:], false)
		if err != nil {
			return err
		}
		existed, err := v.Delete(ctx, tokenType, userID)
		if err != nil {
			return err
		}
		if existed {
			fmt.Println("deleted")
		} else {
			fmt.Println("(absent)")
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q (want types, get, set, or delete)", os.Args[1])
	}
}

// fieldList collects repeated -field k=v flags.
type fieldList map[string]any

func (f fieldList) String() string { return "" }

func (f fieldList) Set(kv string) error {
	k, v, ok := strings.Cut(kv, "=")
	if !ok {
		return fmt.Errorf("expected name=value, got %q", kv)
	}
	f[k] = v
	return nil
}

func parseFlags(cmd string, args []string, withFields bool) (tokenType, userID string, fields map[string]any, err error) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.StringVar(&tokenType, "type", "", "token type name")
	fs.StringVar(&userID, "user", "", "user identifier")
	fl := fieldList{}
	if withFields {
		fs.Var(fl, "field", "field as name=value (repeatable)")
	}
	if err := fs.Parse(args); err != nil {
		return "", "", nil, err
	}
	if tokenType == "" || userID == "" {
		return "", "", nil, fmt.Errorf("%s: -type and -user are required", cmd)
	}
	return tokenType, userID, fl, nil
}

func printFields(data any) {
	fields, ok := data.(map[string]any)
	if !ok {
		fmt.Printf("%+v\n", data)
		return
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("%s=%v\n", name, fields[name])
	}
}
