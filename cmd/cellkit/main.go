package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/UNO-SOFT/zlog/v2"
	"github.com/midbel/cli"

	"github.com/midbel/cellkit/csv"
	"github.com/midbel/cellkit/grid"
	"github.com/midbel/cellkit/layout"
)

var errFail = errors.New("fail")

var (
	summary = "cellkit"
	help    = ""
)

var verbose zlog.VerboseVar
var logger = zlog.NewLogger(zlog.MaybeConsoleHandler(&verbose, os.Stderr)).SLog()

func main() {
	var (
		set  = cli.NewFlagSet("cellkit")
		root = prepare()
	)
	root.SetSummary(summary)
	root.SetHelp(help)
	set.Var(&verbose, "v", "logging verbosity")
	if err := set.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			root.Help()
			os.Exit(2)
		}
	}
	err := root.Execute(set.Args())
	if err != nil {
		if s, ok := err.(cli.SuggestionError); ok && len(s.Others) > 0 {
			fmt.Fprintln(os.Stderr, "similar command(s)")
			for _, n := range s.Others {
				fmt.Fprintln(os.Stderr, "-", n)
			}
		}
		if !errors.Is(err, errFail) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func prepare() *cli.CommandTrie {
	root := cli.New()
	root.Register([]string{"print"}, &printCmd)
	root.Register([]string{"texts"}, &textsCmd)
	root.Register([]string{"size"}, &sizeCmd)
	root.Register([]string{"get"}, &getCmd)
	root.Register([]string{"set"}, &setCmd)
	root.Register([]string{"export"}, &exportCmd)

	return root
}

var printCmd = cli.Command{
	Name:    "print",
	Alias:   []string{"view", "show"},
	Summary: "evaluate a csv sheet and print its values",
	Usage:   "print [-c charset] [-s separator] <file>",
	Handler: &PrintCommand{},
}

var textsCmd = cli.Command{
	Name:    "texts",
	Summary: "print the raw cell texts of a csv sheet",
	Usage:   "texts [-c charset] [-s separator] <file>",
	Handler: &TextsCommand{},
}

var sizeCmd = cli.Command{
	Name:    "size",
	Summary: "print the printable size of a csv sheet",
	Usage:   "size [-c charset] [-s separator] <file>",
	Handler: &SizeCommand{},
}

var getCmd = cli.Command{
	Name:    "get",
	Summary: "evaluate one or more cells of a csv sheet",
	Usage:   "get [-c charset] [-s separator] <file> <cell,...>",
	Handler: &GetCommand{},
}

var setCmd = cli.Command{
	Name:    "set",
	Summary: "apply cell assignments to a csv sheet and write it back",
	Usage:   "set [-o file] [-t] <file> <cell=text,...>",
	Handler: &SetCommand{},
}

var exportCmd = cli.Command{
	Name:    "export",
	Alias:   []string{"extract"},
	Summary: "re-encode a csv sheet through the engine",
	Usage:   "export [-o file] [-t] <file>",
	Handler: &ExportCommand{},
}

func openSheet(file, charset, sep string) (*grid.Sheet, error) {
	comma, err := csv.Separator(sep)
	if err != nil {
		return nil, err
	}
	sheet, err := csv.Open(file, charset, comma)
	if err != nil {
		return nil, err
	}
	logger.Debug("sheet loaded", "file", file, "size", sheet.PrintableSize())
	return sheet, nil
}

type PrintCommand struct {
	Charset string
	Sep     string
}

func (c PrintCommand) Run(args []string) error {
	set := cli.NewFlagSet("print")
	set.StringVar(&c.Charset, "c", "", "input charset")
	set.StringVar(&c.Sep, "s", "", "fields separator")
	if err := set.Parse(args); err != nil {
		return err
	}
	sheet, err := openSheet(set.Arg(0), c.Charset, c.Sep)
	if err != nil {
		return err
	}
	return sheet.PrintValues(os.Stdout)
}

type TextsCommand struct {
	Charset string
	Sep     string
}

func (c TextsCommand) Run(args []string) error {
	set := cli.NewFlagSet("texts")
	set.StringVar(&c.Charset, "c", "", "input charset")
	set.StringVar(&c.Sep, "s", "", "fields separator")
	if err := set.Parse(args); err != nil {
		return err
	}
	sheet, err := openSheet(set.Arg(0), c.Charset, c.Sep)
	if err != nil {
		return err
	}
	return sheet.PrintTexts(os.Stdout)
}

type SizeCommand struct {
	Charset string
	Sep     string
}

func (c SizeCommand) Run(args []string) error {
	set := cli.NewFlagSet("size")
	set.StringVar(&c.Charset, "c", "", "input charset")
	set.StringVar(&c.Sep, "s", "", "fields separator")
	if err := set.Parse(args); err != nil {
		return err
	}
	sheet, err := openSheet(set.Arg(0), c.Charset, c.Sep)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, sheet.PrintableSize())
	return nil
}

type GetCommand struct {
	Charset string
	Sep     string
}

func (c GetCommand) Run(args []string) error {
	set := cli.NewFlagSet("get")
	set.StringVar(&c.Charset, "c", "", "input charset")
	set.StringVar(&c.Sep, "s", "", "fields separator")
	if err := set.Parse(args); err != nil {
		return err
	}
	sheet, err := openSheet(set.Arg(0), c.Charset, c.Sep)
	if err != nil {
		return err
	}
	for i := 1; i < set.NArg(); i++ {
		pos := layout.ParsePosition(set.Arg(i))
		cell, err := sheet.Cell(pos)
		if err != nil {
			return fmt.Errorf("%s: %w", set.Arg(i), err)
		}
		var val string
		if cell != nil {
			val = cell.Value().String()
		}
		fmt.Fprintf(os.Stdout, "%s: %s", pos, val)
		fmt.Fprintln(os.Stdout)
	}
	return nil
}

type SetCommand struct {
	Charset string
	Sep     string
	OutFile string
	Texts   bool
}

func (c SetCommand) Run(args []string) error {
	set := cli.NewFlagSet("set")
	set.StringVar(&c.Charset, "c", "", "input charset")
	set.StringVar(&c.Sep, "s", "", "fields separator")
	set.StringVar(&c.OutFile, "o", "", "write result to output file")
	set.BoolVar(&c.Texts, "t", false, "write raw texts instead of values")
	if err := set.Parse(args); err != nil {
		return err
	}
	sheet, err := openSheet(set.Arg(0), c.Charset, c.Sep)
	if err != nil {
		return err
	}
	for i := 1; i < set.NArg(); i++ {
		if err := apply(sheet, set.Arg(i)); err != nil {
			return err
		}
	}
	return writeSheet(sheet, c.OutFile, c.Texts)
}

func apply(sheet *grid.Sheet, assign string) error {
	label, text, ok := strings.Cut(assign, "=")
	if !ok {
		return fmt.Errorf("%s: missing '=' in assignment", assign)
	}
	pos := layout.ParsePosition(label)
	if !pos.IsValid() {
		return fmt.Errorf("%s: %w", label, grid.ErrPosition)
	}
	if text == "" {
		logger.Debug("clear cell", "cell", pos)
		return sheet.ClearCell(pos)
	}
	logger.Debug("set cell", "cell", pos, "text", text)
	if err := sheet.SetCell(pos, text); err != nil {
		return fmt.Errorf("%s: %w", pos, err)
	}
	return nil
}

type ExportCommand struct {
	Charset string
	Sep     string
	OutFile string
	Texts   bool
}

func (c ExportCommand) Run(args []string) error {
	set := cli.NewFlagSet("export")
	set.StringVar(&c.Charset, "c", "", "input charset")
	set.StringVar(&c.Sep, "s", "", "fields separator")
	set.StringVar(&c.OutFile, "o", "", "write result to output file")
	set.BoolVar(&c.Texts, "t", false, "write raw texts instead of values")
	if err := set.Parse(args); err != nil {
		return err
	}
	sheet, err := openSheet(set.Arg(0), c.Charset, c.Sep)
	if err != nil {
		return err
	}
	return writeSheet(sheet, c.OutFile, c.Texts)
}

func writeSheet(sheet *grid.Sheet, out string, texts bool) error {
	var w io.Writer = os.Stdout
	if out != "" && out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if texts {
		return csv.WriteTexts(w, sheet, 0)
	}
	return csv.WriteValues(w, sheet, 0)
}
