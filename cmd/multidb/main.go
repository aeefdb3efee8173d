// Command multidb is the federated query engine's entrypoint (C16): it
// loads a YAML source config, then either runs a single query passed with
// -f/--query or falls into a REPL, accumulating lines into a buffer until a
// semicolon-terminated statement is seen, per SPEC_FULL.md §4.11.
//
// Option parsing follows cmd/psqldef/psqldef.go's jessevdk/go-flags +
// golang.org/x/term.ReadPassword shape; the REPL's buffering and USE/EXIT
// handling follows multidb/main.py's ControlCenter.cycle().
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"github.com/olekukonko/tablewriter"
	"golang.org/x/term"

	"github.com/federatedsql/multidb/config"
	"github.com/federatedsql/multidb/control"
	"github.com/federatedsql/multidb/util"
)

type options struct {
	Config  string `short:"c" long:"config" description:"Path to the YAML source config" value-name:"path" required:"true"`
	Query   string `short:"f" long:"query" description:"Run a single query and exit, rather than starting a REPL" value-name:"sql"`
	LocalDB string `long:"local-db" description:"Path to the local mirror database file" value-name:"path" default:":memory:"`
	Prompt  bool   `long:"password-prompt" description:"Force a password prompt for every configured source"`
	Debug   bool   `long:"debug" description:"Dump the rewritten plan and result surface for every query"`
	Help    bool   `long:"help" description:"Show this help"`
}

func parseOptions(args []string) (*options, []string) {
	var opts options
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[option...]"
	rest, err := parser.ParseArgs(args)
	if err != nil {
		log.Fatal(err)
	}
	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	return &opts, rest
}

func main() {
	util.InitSlog()
	opts, _ := parseOptions(os.Args[1:])

	doc, err := config.Load(opts.Config)
	if err != nil {
		log.Fatal(err)
	}

	if opts.Prompt {
		doc = promptPasswords(doc)
	}

	center, err := control.New(doc, opts.LocalDB)
	if err != nil {
		log.Fatal(err)
	}
	defer center.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if opts.Query != "" {
		runQuery(center, opts.Query, opts.Debug)
		return
	}

	repl(ctx, center, opts.Debug)
}

// promptPasswords asks for each configured source's password interactively,
// overriding whatever (if anything) the config file set, following
// cmd/psqldef/psqldef.go's --password-prompt handling.
func promptPasswords(doc config.Document) config.Document {
	out := make(config.Document, len(doc))
	for name, entry := range doc {
		fmt.Printf("Password for %s: ", name)
		pass, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			log.Fatal(err)
		}
		entry.Password = string(pass)
		out[name] = entry
	}
	return out
}

// repl drives the line-buffering loop multidb/main.py's ControlCenter.cycle
// implements: blank lines are ignored, a bare USE/EXIT line is handled
// immediately, and any other line is appended to the pending query buffer
// until a line ending in ';' completes it.
func repl(ctx context.Context, center *control.Center, debug bool) {
	scanner := bufio.NewScanner(os.Stdin)
	var buffer []string

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		if len(buffer) > 0 {
			buffer = append(buffer, line)
			if strings.HasSuffix(strings.TrimRight(line, " \t"), ";") {
				query := strings.Join(buffer, "\n")
				buffer = nil
				runQuery(center, query, debug)
			}
			continue
		}

		if control.IsExit(line) {
			return
		}
		if ok, err := center.HandleUse(line); err != nil {
			fmt.Fprintln(os.Stderr, err)
			continue
		} else if ok {
			continue
		}

		buffer = append(buffer, line)
		if strings.HasSuffix(strings.TrimRight(line, " \t"), ";") {
			query := strings.Join(buffer, "\n")
			buffer = nil
			runQuery(center, query, debug)
		}
	}
}

func runQuery(center *control.Center, query string, debug bool) {
	res, err := center.Execute(query)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}

	if debug {
		pp.Println(res)
	}

	for _, s := range res.CreateSQL {
		fmt.Println(s)
	}
	for _, s := range res.SelectSQL {
		fmt.Println(s)
	}
	fmt.Println(res.ViewSQL)

	printSample(res.Header, res.Rows)
}

// printSample renders the row sample QT/main.py's TableModel.set_data
// displays, using olekukonko/tablewriter the way
// cmd/atlas/internal/migrate/report.go renders its status report.
func printSample(header []string, rows [][]any) {
	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader(header)
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, v := range row {
			if v == nil {
				cells[i] = "NULL"
			} else {
				cells[i] = fmt.Sprintf("%v", v)
			}
		}
		tbl.Append(cells)
	}
	tbl.Render()
}
