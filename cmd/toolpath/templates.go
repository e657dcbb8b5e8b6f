package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"gcode-toolpath/pkg/templates"
)

func (c *cli) runTemplates(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		fmt.Fprintf(c.stderr, "Usage: toolpath templates list|show ID|add|rm ID\n")
		if len(args) == 0 {
			return fmt.Errorf("missing templates subcommand")
		}
		return nil
	}

	store, err := c.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	switch args[0] {
	case "list", "ls":
		return c.listTemplates(store)
	case "show":
		if len(args) != 2 {
			return fmt.Errorf("usage: toolpath templates show ID")
		}
		t, err := store.Get(args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "; %s (%s)\n", t.Name, t.ID)
		fmt.Fprint(c.stdout, t.Code)
		if !strings.HasSuffix(t.Code, "\n") {
			fmt.Fprintln(c.stdout)
		}
		return nil
	case "add":
		return c.addTemplate(store, args[1:])
	case "rm", "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: toolpath templates rm ID")
		}
		if err := store.Delete(args[1]); err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "deleted %s\n", args[1])
		return nil
	}
	return fmt.Errorf("unknown templates subcommand %q", args[0])
}

func (c *cli) listTemplates(store *templates.Store) error {
	list, err := store.List()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRINTER\tPURPOSE\tUPDATED")
	for _, t := range list {
		updated := "built-in"
		if !t.IsBuiltIn {
			updated = humanize.Time(t.UpdatedAt)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Name, dash(t.PrinterTag), dash(t.PurposeTag), updated)
	}
	return tw.Flush()
}

func (c *cli) addTemplate(store *templates.Store, args []string) error {
	fs := c.newFlagSet("templates add", "CODE_FILE")
	var t templates.Template
	fs.StringVar(&t.ID, "id", "", "Template ID (default: generated)")
	fs.StringVar(&t.Name, "name", "", "Display name")
	fs.StringVar(&t.PrinterTag, "printer", "", "Printer tag")
	fs.StringVar(&t.PurposeTag, "purpose", templates.PurposeCustom, "Purpose tag: start, pause, end or custom")
	fs.StringVar(&t.Notes, "notes", "", "Free-form notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path, err := oneFile(fs)
	if err != nil {
		return err
	}
	if t.Code, err = c.readInput(path); err != nil {
		return err
	}

	stored, err := store.Put(t)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "%s\n", stored.ID)
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
