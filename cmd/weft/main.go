// Command weft is the client CLI: account keys, blobs and transfers
// against a running node or localnet.
//
// Domain failures print one JSON object {"code","message"} on stderr
// so scripts can branch on the code without parsing prose.
package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ipfs/go-cid"

	"github.com/weftlabs/weft/blob"
	"github.com/weftlabs/weft/client"
	"github.com/weftlabs/weft/keys"
	"github.com/weftlabs/weft/ledger"
	"github.com/weftlabs/weft/model"
	"github.com/weftlabs/weft/rpc"
	"github.com/weftlabs/weft/storage"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "put":
		return cmdPut(args[1:], out, errOut)
	case "get":
		return cmdGet(args[1:], out, errOut)
	case "balance":
		return cmdBalance(args[1:], out, errOut)
	case "send":
		return cmdSend(args[1:], out, errOut)
	case "history":
		return cmdHistory(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "weft: blobs, replicated data and transfers on a weft network")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  weft key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  weft key list")
	fmt.Fprintln(w, "  weft key show --name <name>")
	fmt.Fprintln(w, "  weft put [--seal] [--seal-key-hex <64hex>] <file>")
	fmt.Fprintln(w, "  weft get [--seal-key-hex <64hex>] [-o <file>] <cid>")
	fmt.Fprintln(w, "  weft balance [--name <name>]")
	fmt.Fprintln(w, "  weft send --to <account> --amount <n> [--name <name>]")
	fmt.Fprintln(w, "  weft history [--name <name>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - network commands take --addr (default 127.0.0.1:9190) and --timeout")
	fmt.Fprintln(w, "  - keys live under ~/.weft/keys (override with --keys)")
	fmt.Fprintln(w, "  - put --seal prints the root CID and then the hex seal key; keep the key")
	fmt.Fprintln(w, "  - domain errors print JSON {\"code\",\"message\"} on stderr")
}

// fail renders a domain error as one JSON line on stderr.
func fail(errOut io.Writer, err error) int {
	b, merr := json.Marshal(model.Coded(err))
	if merr != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	fmt.Fprintln(errOut, string(b))
	return 1
}

// netFlags are the flags every network command shares.
type netFlags struct {
	addr    *string
	timeout *time.Duration
	keysDir *string
	name    *string
}

func addNetFlags(fs *flag.FlagSet) netFlags {
	return netFlags{
		addr:    fs.String("addr", "127.0.0.1:9190", "Node address"),
		timeout: fs.Duration("timeout", 15*time.Second, "Overall command timeout"),
		keysDir: fs.String("keys", "", "Key store directory"),
		name:    fs.String("name", "default", "Account name in the key store"),
	}
}

// connect dials the node and binds the named account to it.
func connect(nf netFlags) (context.Context, context.CancelFunc, *client.Client, error) {
	store, err := keys.OpenStore(*nf.keysDir)
	if err != nil {
		return nil, nil, nil, err
	}
	acct, err := store.Load(*nf.name)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load account %q: %w", *nf.name, err)
	}
	rc, err := rpc.Dial(*nf.addr, rpc.DialOptions{Timeout: *nf.timeout})
	if err != nil {
		return nil, nil, nil, err
	}
	c, err := client.New(client.Config{Network: rc, Account: acct})
	if err != nil {
		rc.Close()
		return nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), *nf.timeout)
	stop := func() {
		cancel()
		rc.Close()
	}
	return ctx, stop, c, nil
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: weft key <init|list|show> ...")
		return 2
	}
	switch args[0] {
	case "init":
		fs := flag.NewFlagSet("key init", flag.ContinueOnError)
		fs.SetOutput(errOut)
		name := fs.String("name", "default", "Account name")
		seedHex := fs.String("seed-hex", "", "32-byte hex seed (random when empty)")
		force := fs.Bool("force", false, "Overwrite an existing key")
		keysDir := fs.String("keys", "", "Key store directory")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		store, err := keys.OpenStore(*keysDir)
		if err != nil {
			return fail(errOut, err)
		}
		var seed []byte
		if *seedHex != "" {
			if seed, err = keys.ParseSeedHex(*seedHex); err != nil {
				return fail(errOut, err)
			}
		} else {
			seed = make([]byte, 32)
			if _, err := rand.Read(seed); err != nil {
				return fail(errOut, err)
			}
		}
		id, err := store.Save(*name, seed, *force)
		if err != nil {
			return fail(errOut, err)
		}
		fmt.Fprintln(out, id)
		return 0
	case "list":
		fs := flag.NewFlagSet("key list", flag.ContinueOnError)
		fs.SetOutput(errOut)
		keysDir := fs.String("keys", "", "Key store directory")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		store, err := keys.OpenStore(*keysDir)
		if err != nil {
			return fail(errOut, err)
		}
		names, err := store.List()
		if err != nil {
			return fail(errOut, err)
		}
		for _, n := range names {
			acct, err := store.Load(n)
			if err != nil {
				fmt.Fprintf(out, "%s\t(unreadable: %v)\n", n, err)
				continue
			}
			fmt.Fprintf(out, "%s\t%s\n", n, acct.ID())
		}
		return 0
	case "show":
		fs := flag.NewFlagSet("key show", flag.ContinueOnError)
		fs.SetOutput(errOut)
		name := fs.String("name", "default", "Account name")
		keysDir := fs.String("keys", "", "Key store directory")
		if err := fs.Parse(args[1:]); err != nil {
			return 2
		}
		store, err := keys.OpenStore(*keysDir)
		if err != nil {
			return fail(errOut, err)
		}
		acct, err := store.Load(*name)
		if err != nil {
			return fail(errOut, err)
		}
		fmt.Fprintln(out, acct.ID())
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n", args[0])
		return 2
	}
}

func cmdPut(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("put", flag.ContinueOnError)
	fs.SetOutput(errOut)
	nf := addNetFlags(fs)
	seal := fs.Bool("seal", false, "Encrypt the content before storing")
	sealKeyHex := fs.String("seal-key-hex", "", "32-byte hex seal key (random when empty)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: weft put [--seal] [--seal-key-hex <64hex>] <file>")
		return 2
	}
	content, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return fail(errOut, err)
	}

	ctx, stop, c, err := connect(nf)
	if err != nil {
		return fail(errOut, err)
	}
	defer stop()

	if !*seal && *sealKeyHex != "" {
		*seal = true
	}
	if !*seal {
		root, err := c.PutBlob(ctx, content)
		if err != nil {
			return fail(errOut, err)
		}
		fmt.Fprintln(out, root.String())
		return 0
	}

	var key []byte
	if *sealKeyHex != "" {
		key, err = hex.DecodeString(*sealKeyHex)
		if err != nil {
			return fail(errOut, fmt.Errorf("%w: %v", blob.ErrBadSeal, err))
		}
	} else {
		if key, err = blob.NewKey(rand.Reader); err != nil {
			return fail(errOut, err)
		}
	}
	root, err := c.PutSealedBlob(ctx, content, key)
	if err != nil {
		return fail(errOut, err)
	}
	fmt.Fprintln(out, root.String())
	fmt.Fprintln(out, hex.EncodeToString(key))
	return 0
}

func cmdGet(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("get", flag.ContinueOnError)
	fs.SetOutput(errOut)
	nf := addNetFlags(fs)
	sealKeyHex := fs.String("seal-key-hex", "", "32-byte hex seal key for sealed blobs")
	outPath := fs.String("o", "", "Write content to file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: weft get [--seal-key-hex <64hex>] [-o <file>] <cid>")
		return 2
	}
	root, err := cid.Decode(fs.Arg(0))
	if err != nil {
		return fail(errOut, fmt.Errorf("%w: %v", storage.ErrInvalidCID, err))
	}

	ctx, stop, c, err := connect(nf)
	if err != nil {
		return fail(errOut, err)
	}
	defer stop()

	var content []byte
	if *sealKeyHex != "" {
		key, err := hex.DecodeString(*sealKeyHex)
		if err != nil {
			return fail(errOut, fmt.Errorf("%w: %v", blob.ErrBadSeal, err))
		}
		content, err = c.GetSealedBlob(ctx, root, key)
		if err != nil {
			return fail(errOut, err)
		}
	} else {
		content, err = c.GetBlob(ctx, root)
		if err != nil {
			return fail(errOut, err)
		}
	}

	if *outPath != "" {
		if err := os.WriteFile(*outPath, content, 0o644); err != nil {
			return fail(errOut, err)
		}
		return 0
	}
	if _, err := out.Write(content); err != nil {
		return fail(errOut, err)
	}
	return 0
}

func cmdBalance(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("balance", flag.ContinueOnError)
	fs.SetOutput(errOut)
	nf := addNetFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, stop, c, err := connect(nf)
	if err != nil {
		return fail(errOut, err)
	}
	defer stop()

	bal, err := c.Balance(ctx)
	if err != nil {
		return fail(errOut, err)
	}
	fmt.Fprintln(out, bal)
	return 0
}

func cmdSend(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(errOut)
	nf := addNetFlags(fs)
	to := fs.String("to", "", "Receiving account id")
	amount := fs.Uint64("amount", 0, "Amount to transfer")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *to == "" || *amount == 0 {
		fmt.Fprintln(errOut, "usage: weft send --to <account> --amount <n> [--name <name>]")
		return 2
	}

	ctx, stop, c, err := connect(nf)
	if err != nil {
		return fail(errOut, err)
	}
	defer stop()

	proof, err := c.Send(ctx, *to, ledger.Amount(*amount))
	if err != nil {
		return fail(errOut, err)
	}
	id, err := proof.Transfer.Transfer.ID()
	if err != nil {
		return fail(errOut, err)
	}
	fmt.Fprintln(out, id.String())
	return 0
}

func cmdHistory(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(errOut)
	nf := addNetFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, stop, c, err := connect(nf)
	if err != nil {
		return fail(errOut, err)
	}
	defer stop()

	hist, err := c.History(ctx)
	if err != nil {
		return fail(errOut, err)
	}
	b, err := json.MarshalIndent(hist, "", "  ")
	if err != nil {
		return fail(errOut, err)
	}
	fmt.Fprintln(out, string(b))
	return 0
}
